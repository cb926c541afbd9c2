package resolver

import (
	"sort"

	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/statemap"
)

// Mapping binds a native identifier, optionally narrowed to specific native
// state values, to a canonical type with optional fixed canonical states.
//
// On decode, States select the mapping and Canonical is emitted as-is; on
// encode, Canonical selects the mapping and States are emitted as-is. The
// Source group translates every other property.
type Mapping[T canonical.Kind] struct {
	Name      string
	States    map[string]identifier.StateValue
	Type      T
	Canonical canonical.Properties
	Source    statemap.Source
}

func Of[T canonical.Kind](name string, t T) Mapping[T] {
	return Mapping[T]{Name: name, Type: t}
}

// OfState maps name only when its native state equals v.
func OfState[T canonical.Kind](name, state string, v identifier.StateValue, t T) Mapping[T] {
	return Of(name, t).WithState(state, v)
}

func (m Mapping[T]) WithGroup(src statemap.Source) Mapping[T] {
	m.Source = src
	return m
}

func (m Mapping[T]) WithState(name string, v identifier.StateValue) Mapping[T] {
	states := make(map[string]identifier.StateValue, len(m.States)+1)
	for k, sv := range m.States {
		states[k] = sv
	}
	states[name] = v
	m.States = states
	return m
}

func (m Mapping[T]) WithCanonical(p canonical.Property, v identifier.StateValue) Mapping[T] {
	ps := m.Canonical.Clone()
	ps[p] = v
	m.Canonical = ps
	return m
}

func (m Mapping[T]) native() identifier.Identifier {
	return identifier.Identifier{Name: m.Name, States: m.States}
}

// Group maps several native names to canonical types, all sharing src.
// The result is ordered by native name.
func Group[T canonical.Kind](src statemap.Source, names map[string]T) []Mapping[T] {
	out := make([]Mapping[T], 0, len(names))
	for _, name := range sortedKeys(names) {
		out = append(out, Of(name, names[name]).WithGroup(src))
	}
	return out
}

// GroupBy collapses several native names onto one canonical type,
// distinguished by the value each name gives canonical property p. For
// example furnace and lit_furnace both become a furnace, told apart by lit.
func GroupBy[T canonical.Kind](t T, p canonical.Property, src statemap.Source, names map[string]identifier.StateValue) []Mapping[T] {
	out := make([]Mapping[T], 0, len(names))
	for _, name := range sortedKeys(names) {
		out = append(out, Of(name, t).WithCanonical(p, names[name]).WithGroup(src))
	}
	return out
}

// FlatEntry is one row of a Flatten table.
type FlatEntry[T canonical.Kind] struct {
	Value     int32
	Type      T
	Canonical canonical.Properties
}

func Flat[T canonical.Kind](value int32, t T, props canonical.Properties) FlatEntry[T] {
	return FlatEntry[T]{Value: value, Type: t, Canonical: props}
}

// Flatten decodes native name by looking up its packed integer field in an
// explicit table. Encoding picks the row whose type and canonical states
// match, so each (type, states) pair should appear once; further rows for
// the same pair belong in DecodeOnly.
func Flatten[T canonical.Kind](name, field string, rows []FlatEntry[T]) []Mapping[T] {
	out := make([]Mapping[T], len(rows))
	for i, r := range rows {
		out[i] = Mapping[T]{
			Name:      name,
			States:    map[string]identifier.StateValue{field: identifier.Int(r.Value)},
			Type:      r.Type,
			Canonical: r.Canonical,
		}
	}
	return out
}

// DuplicateInputs are decode-only mappings: extra native spellings that
// decode to a canonical type but are never chosen on encode. They are a
// distinct type from DuplicateOutputs so the two cannot be confused.
type DuplicateInputs[T canonical.Kind] struct{ ms []Mapping[T] }

func DecodeOnly[T canonical.Kind](ms ...Mapping[T]) DuplicateInputs[T] {
	return DuplicateInputs[T]{ms}
}

// DuplicateOutputs are encode-only candidates. They fill encode slots no
// canonical registration claims, and yield to one that does.
type DuplicateOutputs[T canonical.Kind] struct{ ms []Mapping[T] }

func EncodeOnly[T canonical.Kind](ms ...Mapping[T]) DuplicateOutputs[T] {
	return DuplicateOutputs[T]{ms}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
