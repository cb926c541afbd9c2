// Package identifier holds the native side of a block or item: a namespaced
// name plus a map of typed property values.
package identifier

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	VanillaNamespace = "minecraft"

	// DataState is the pseudo-state carrying the legacy packed data value
	// of pre-flattening blocks.
	DataState = "data"
)

type Identifier struct {
	Name   string
	States map[string]StateValue
}

func New(name string) Identifier {
	return Identifier{Name: name}
}

// FromData builds a legacy identifier whose only state is the packed data value.
func FromData(name string, data int32) Identifier {
	return Identifier{Name: name, States: map[string]StateValue{DataState: Int(data)}}
}

// WithStates returns a copy with the given states added (or replaced).
func (id Identifier) WithStates(states map[string]StateValue) Identifier {
	out := Identifier{Name: id.Name, States: make(map[string]StateValue, len(id.States)+len(states))}
	for k, v := range id.States {
		out.States[k] = v
	}
	for k, v := range states {
		out.States[k] = v
	}
	return out
}

func (id Identifier) With(name string, v StateValue) Identifier {
	return id.WithStates(map[string]StateValue{name: v})
}

func (id Identifier) State(name string) (StateValue, bool) {
	v, ok := id.States[name]
	return v, ok
}

// DataValue returns the legacy data value, or 0 when absent.
func (id Identifier) DataValue() int32 {
	return id.States[DataState].IntValue()
}

func (id Identifier) Equal(o Identifier) bool {
	if id.Name != o.Name || len(id.States) != len(o.States) {
		return false
	}
	for k, v := range id.States {
		if ov, ok := o.States[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (id Identifier) stateNames() []string {
	names := make([]string, 0, len(id.States))
	for k := range id.States {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Key is a stable string suitable for hashing or caching: the name followed
// by the states sorted by name. Equal identifiers have equal keys.
func (id Identifier) Key() string {
	if len(id.States) == 0 {
		return id.Name
	}
	var b strings.Builder
	b.WriteString(id.Name)
	for _, k := range id.stateNames() {
		v := id.States[k]
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte(byte('0' + v.kind))
		b.WriteString(v.String())
	}
	return b.String()
}

// Compare is a total order over identifiers: by name, then by the sorted
// state list.
func (id Identifier) Compare(o Identifier) int {
	if c := strings.Compare(id.Name, o.Name); c != 0 {
		return c
	}
	an, bn := id.stateNames(), o.stateNames()
	for i := 0; i < len(an) && i < len(bn); i++ {
		if c := strings.Compare(an[i], bn[i]); c != 0 {
			return c
		}
		if c := id.States[an[i]].Compare(o.States[bn[i]]); c != 0 {
			return c
		}
	}
	return len(an) - len(bn)
}

func (id Identifier) String() string {
	if len(id.States) == 0 {
		return id.Name
	}
	var b strings.Builder
	b.WriteString(id.Name)
	b.WriteByte('[')
	for i, k := range id.stateNames() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(id.States[k].String())
	}
	b.WriteByte(']')
	return b.String()
}

// ParseString parses the form produced by String, e.g.
// "minecraft:oak_log[axis=y]". Values are typed by ParseStateValue.
func ParseString(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	name, rest, hasStates := strings.Cut(s, "[")
	if name == "" {
		return Identifier{}, errors.Errorf("empty identifier in %q", s)
	}
	id := Identifier{Name: name}
	if !hasStates {
		return id, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return Identifier{}, errors.Errorf("unterminated state list in %q", s)
	}
	rest = strings.TrimSuffix(rest, "]")
	if rest == "" {
		return id, nil
	}
	id.States = map[string]StateValue{}
	for _, kv := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return Identifier{}, errors.Errorf("bad state %q in %q", kv, s)
		}
		if _, dup := id.States[k]; dup {
			return Identifier{}, errors.Errorf("duplicate state %q in %q", k, s)
		}
		id.States[k] = ParseStateValue(strings.TrimSpace(v))
	}
	return id, nil
}

func MustParse(s string) Identifier {
	id, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Namespace returns the part before the first colon, or "" if there is none.
func (id Identifier) Namespace() string {
	ns, _, ok := strings.Cut(id.Name, ":")
	if !ok {
		return ""
	}
	return ns
}

// Path is the name with its namespace removed.
func (id Identifier) Path() string {
	_, p, ok := strings.Cut(id.Name, ":")
	if !ok {
		return id.Name
	}
	return p
}

// IsVanilla reports whether the identifier belongs to the given vanilla
// namespace. Names without a namespace are treated as vanilla.
func (id Identifier) IsVanilla(vanilla string) bool {
	ns := id.Namespace()
	return ns == "" || ns == vanilla
}
