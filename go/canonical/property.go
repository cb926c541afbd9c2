package canonical

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/identifier"
)

// Property is a canonical property key. Every property has a closed,
// ordered value domain and a default.
type Property uint8

const (
	Waterlogged Property = iota + 1
	Facing
	Axis
	Half
	SlabType
	Color
	Wood
	StoneVariant
	Lit
	Age
	Level
	Layers
	Persistent
	Snowy
	Powered
	Open
	Hinge
	numProperties
)

type propertyInfo struct {
	name   string
	values []identifier.StateValue
	def    identifier.StateValue
}

func enums(names ...string) []identifier.StateValue {
	out := make([]identifier.StateValue, len(names))
	for i, n := range names {
		out[i] = identifier.Enum(n)
	}
	return out
}

func ints(lo, hi int32) []identifier.StateValue {
	out := make([]identifier.StateValue, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, identifier.Int(i))
	}
	return out
}

var bools = []identifier.StateValue{identifier.Bool(false), identifier.Bool(true)}

var Colors = []string{"white", "orange", "magenta", "light_blue", "yellow", "lime", "pink", "gray",
	"light_gray", "cyan", "purple", "blue", "brown", "green", "red", "black"}

var Woods = []string{"oak", "spruce", "birch", "jungle", "acacia", "dark_oak"}

var properties = [numProperties]propertyInfo{
	Waterlogged:  {"waterlogged", bools, identifier.Bool(false)},
	Facing:       {"facing", enums("north", "south", "west", "east"), identifier.Enum("north")},
	Axis:         {"axis", enums("x", "y", "z"), identifier.Enum("y")},
	Half:         {"half", enums("bottom", "top"), identifier.Enum("bottom")},
	SlabType:     {"slab_type", enums("bottom", "top", "double"), identifier.Enum("bottom")},
	Color:        {"color", enums(Colors...), identifier.Enum("white")},
	Wood:         {"wood", enums(Woods...), identifier.Enum("oak")},
	StoneVariant: {"stone_variant", enums("stone", "sandstone", "cobblestone", "brick", "stone_brick", "quartz"), identifier.Enum("stone")},
	Lit:          {"lit", bools, identifier.Bool(false)},
	Age:          {"age", ints(0, 7), identifier.Int(0)},
	Level:        {"level", ints(0, 15), identifier.Int(0)},
	Layers:       {"layers", ints(1, 8), identifier.Int(1)},
	Persistent:   {"persistent", bools, identifier.Bool(false)},
	Snowy:        {"snowy", bools, identifier.Bool(false)},
	Powered:      {"powered", bools, identifier.Bool(false)},
	Open:         {"open", bools, identifier.Bool(false)},
	Hinge:        {"hinge", enums("left", "right"), identifier.Enum("left")},
}

var propertiesByName = func() map[string]Property {
	m := make(map[string]Property, numProperties)
	for p := Property(1); p < numProperties; p++ {
		m[properties[p].name] = p
	}
	return m
}()

func (p Property) valid() bool { return p > 0 && p < numProperties }

func (p Property) String() string {
	if !p.valid() {
		return "invalid"
	}
	return properties[p].name
}

// Values is the property's domain, in declaration order. The slice is shared.
func (p Property) Values() []identifier.StateValue {
	if !p.valid() {
		return nil
	}
	return properties[p].values
}

func (p Property) Default() identifier.StateValue {
	if !p.valid() {
		return identifier.StateValue{}
	}
	return properties[p].def
}

// Valid reports whether v is in the property's domain.
func (p Property) Valid(v identifier.StateValue) bool {
	for _, d := range p.Values() {
		if d == v {
			return true
		}
	}
	return false
}

func ParseProperty(s string) (Property, error) {
	if p, ok := propertiesByName[s]; ok {
		return p, nil
	}
	return 0, errors.Errorf("unknown canonical property %q", s)
}

func AllProperties() []Property {
	out := make([]Property, 0, numProperties-1)
	for p := Property(1); p < numProperties; p++ {
		out = append(out, p)
	}
	return out
}

// Properties is a canonical property set.
type Properties map[Property]identifier.StateValue

func (ps Properties) Clone() Properties {
	out := make(Properties, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// Equal treats nil and empty sets as equal.
func (ps Properties) Equal(o Properties) bool {
	if len(ps) != len(o) {
		return false
	}
	for k, v := range ps {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (ps Properties) Keys() []Property {
	keys := make([]Property, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (ps Properties) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range ps.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k.String())
		b.WriteByte('=')
		b.WriteString(ps[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// StringMap renders the set with plain property names, for JSON output.
func (ps Properties) StringMap() map[string]identifier.StateValue {
	out := make(map[string]identifier.StateValue, len(ps))
	for k, v := range ps {
		out[k.String()] = v
	}
	return out
}

func ParseProperties(m map[string]identifier.StateValue) (Properties, error) {
	out := make(Properties, len(m))
	for k, v := range m {
		p, err := ParseProperty(k)
		if err != nil {
			return nil, err
		}
		out[p] = v
	}
	return out, nil
}
