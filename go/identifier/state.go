package identifier

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/nbt"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	}
	return "invalid"
}

// StateValue is a single property value. It is comparable, so it can be
// used directly as (part of) a map key.
type StateValue struct {
	kind Kind
	i    int32
	s    string
}

func Int(v int32) StateValue { return StateValue{kind: KindInt, i: v} }

func Bool(v bool) StateValue {
	if v {
		return StateValue{kind: KindBool, i: 1}
	}
	return StateValue{kind: KindBool}
}

func Enum(v string) StateValue { return StateValue{kind: KindEnum, s: v} }

func (v StateValue) Kind() Kind        { return v.kind }
func (v StateValue) IsZero() bool      { return v.kind == KindInvalid }
func (v StateValue) IntValue() int32   { return v.i }
func (v StateValue) BoolValue() bool   { return v.kind == KindBool && v.i != 0 }
func (v StateValue) EnumValue() string { return v.s }

func (v StateValue) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(int(v.i))
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindEnum:
		return v.s
	}
	return "<invalid>"
}

// Compare orders by kind, then by value.
func (v StateValue) Compare(o StateValue) int {
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch {
	case v.i < o.i:
		return -1
	case v.i > o.i:
		return 1
	}
	return strings.Compare(v.s, o.s)
}

// FromAny boxes a plain Go value, as found in decoded JSON or YAML.
func FromAny(x any) (StateValue, error) {
	switch v := x.(type) {
	case StateValue:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return Enum(v), nil
	case int:
		return Int(int32(v)), nil
	case int8:
		return Int(int32(v)), nil
	case int16:
		return Int(int32(v)), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(int32(v)), nil
	case uint8:
		return Int(int32(v)), nil
	case float64:
		if v != float64(int32(v)) {
			return StateValue{}, errors.Errorf("non-integral state value %v", v)
		}
		return Int(int32(v)), nil
	}
	return StateValue{}, errors.Errorf("unable to box state value of type %T", x)
}

func (v StateValue) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		return v.i != 0
	case KindEnum:
		return v.s
	}
	return nil
}

// ToTag converts to the tag used by on-disk block palettes. Ints are always
// written as TAG_Int, so a byte or short read by FromTag comes back wider.
func (v StateValue) ToTag() nbt.Tag {
	switch v.kind {
	case KindBool:
		return nbt.Tag{Type: nbt.TagByte, Value: int8(v.i)}
	case KindEnum:
		return nbt.Tag{Type: nbt.TagString, Value: v.s}
	}
	return nbt.Tag{Type: nbt.TagInt, Value: v.i}
}

// FromTag is lenient: bytes other than 0/1 and shorts are kept as ints
// rather than rejected, since old saves contain such values.
func FromTag(t nbt.Tag) (StateValue, error) {
	switch x := t.Value.(type) {
	case int8:
		if x == 0 || x == 1 {
			return Bool(x == 1), nil
		}
		return Int(int32(x)), nil
	case int16:
		return Int(int32(x)), nil
	case int32:
		return Int(x), nil
	case string:
		return Enum(x), nil
	}
	return StateValue{}, errors.Errorf("unable to decode %v tag as a state value", t.Type)
}

// ParseStateValue reads the textual form used by String. "true"/"false"
// become booleans, decimal integers become ints, anything else an enum.
func ParseStateValue(s string) StateValue {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Int(int32(n))
	}
	return Enum(s)
}

// MarshalJSON/UnmarshalJSON keep the plain JSON scalar form.
func (v StateValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt, KindBool:
		return []byte(v.String()), nil
	case KindEnum:
		return []byte(strconv.Quote(v.s)), nil
	}
	return nil, errors.New("cannot marshal invalid state value")
}

func (v *StateValue) UnmarshalJSON(b []byte) error {
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return errors.Wrapf(err, "bad state value %s", s)
		}
		*v = Enum(u)
		return nil
	}
	p := ParseStateValue(s)
	if p.kind == KindEnum {
		return errors.Errorf("bad state value %s", s)
	}
	*v = p
	return nil
}
