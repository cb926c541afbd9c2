// Package resolver binds native block and item identifiers to canonical
// types.
//
// Mapping data registers into a Table, which Build freezes into a Resolver.
// A Resolver is immutable: Decode and Encode only read shared state, so one
// Resolver may be used from any number of goroutines without locking.
package resolver

import (
	"sort"

	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/statemap"
	"github.com/rmmh/blockbridge/go/version"
)

// Result is a canonical block or item. Custom is set instead of Type for
// identifiers passed through untranslated.
type Result[T canonical.Kind] struct {
	Type       T
	Properties canonical.Properties
	Custom     *identifier.Identifier
}

func (r Result[T]) String() string {
	if r.Custom != nil {
		return "custom:" + r.Custom.String()
	}
	return r.Type.String() + r.Properties.String()
}

func (r Result[T]) Equal(o Result[T]) bool {
	if (r.Custom == nil) != (o.Custom == nil) {
		return false
	}
	if r.Custom != nil {
		return r.Custom.Equal(*o.Custom)
	}
	return r.Type == o.Type && r.Properties.Equal(o.Properties)
}

type Resolver[T canonical.Kind] struct {
	version version.Version
	cfg     config

	decode map[string]index[string, T]
	encode map[T]index[canonical.Property, T]
	extras []*statemap.Group
}

func (r *Resolver[T]) Version() version.Version { return r.version }
func (r *Resolver[T]) Direction() Direction     { return r.cfg.direction }
func (r *Resolver[T]) AllowsCustom() bool       { return r.cfg.allowCustom }

// Supports reports whether name has a decode mapping.
func (r *Resolver[T]) Supports(name string) bool {
	_, ok := r.decode[name]
	return ok
}

// SupportsType reports whether t has an encode mapping.
func (r *Resolver[T]) SupportsType(t T) bool {
	return r.encode[t].size() > 0
}

func (r *Resolver[T]) nativeDefault(name string) (identifier.StateValue, bool) {
	for _, g := range r.extras {
		if v, ok := g.DefaultNative(name); ok {
			return v, true
		}
	}
	return identifier.StateValue{}, false
}

// custom reports whether id may pass through untranslated.
func (r *Resolver[T]) custom(id identifier.Identifier) bool {
	return r.cfg.allowCustom && id.Namespace() != "" && !id.IsVanilla(r.cfg.vanilla)
}

func (r *Resolver[T]) Decode(id identifier.Identifier) (Result[T], error) {
	if r.cfg.direction&Decode == 0 {
		return Result[T]{}, &UnresolvedError{Op: "decode", Identifier: id, Reason: "resolver is encode-only"}
	}
	e := r.decode[id.Name].lookup(func(k string) (identifier.StateValue, bool) {
		if v, ok := id.States[k]; ok {
			return v, true
		}
		return r.nativeDefault(k)
	})
	if e == nil {
		if r.custom(id) {
			passthrough := id.WithStates(nil)
			return Result[T]{Custom: &passthrough}, nil
		}
		reason := "no mapping for identifier"
		if r.Supports(id.Name) {
			reason = "no mapping for states"
		}
		return Result[T]{}, &UnresolvedError{Op: "decode", Identifier: id, Reason: reason}
	}
	out := e.m.Canonical.Clone()
	e.group.Decode(id.States, out)
	for _, g := range r.extras {
		g.Decode(id.States, out)
	}
	return Result[T]{Type: e.m.Type, Properties: out}, nil
}

func (r *Resolver[T]) Encode(res Result[T]) (identifier.Identifier, error) {
	if res.Custom != nil {
		if r.custom(*res.Custom) {
			return res.Custom.WithStates(nil), nil
		}
		return identifier.Identifier{}, &UnresolvedError{Op: "encode", Identifier: *res.Custom, Reason: "custom identifiers not allowed"}
	}
	if r.cfg.direction&Encode == 0 {
		return identifier.Identifier{}, &UnresolvedError{Op: "encode", Type: res.String(), Reason: "resolver is decode-only"}
	}
	e := r.encode[res.Type].lookup(func(p canonical.Property) (identifier.StateValue, bool) {
		if v, ok := res.Properties[p]; ok {
			return v, true
		}
		return p.Default(), true
	})
	if e == nil {
		return identifier.Identifier{}, &UnresolvedError{Op: "encode", Type: res.String(), Reason: "no mapping for type"}
	}
	states := make(map[string]identifier.StateValue, len(e.m.States))
	for k, v := range e.m.States {
		states[k] = v
	}
	e.group.Encode(res.Properties, states)
	for _, g := range r.extras {
		g.EncodePresent(res.Properties, states)
	}
	if len(states) == 0 {
		states = nil
	}
	return identifier.Identifier{Name: e.m.Name, States: states}, nil
}

// Entry describes one registration, for dumps and diffs.
type Entry struct {
	Direction string `json:"direction"`
	Native    string `json:"native"`
	Type      string `json:"type"`
	Canonical string `json:"canonical"`
	Group     string `json:"group"`
	Role      string `json:"role"`
}

// Entries lists every registration in a stable order.
func (r *Resolver[T]) Entries() []Entry {
	var out []Entry
	add := func(dir string, e *entry[T]) {
		out = append(out, Entry{
			Direction: dir,
			Native:    e.m.native().String(),
			Type:      e.m.Type.String(),
			Canonical: e.m.Canonical.String(),
			Group:     e.group.Name(),
			Role:      e.role.String(),
		})
	}
	for _, ix := range r.decode {
		for _, g := range ix {
			for _, e := range g.entries {
				add("decode", e)
			}
		}
	}
	for _, ix := range r.encode {
		for _, g := range ix {
			for _, e := range g.entries {
				add("encode", e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.Native != b.Native {
			return a.Native < b.Native
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Canonical < b.Canonical
	})
	return out
}

// Names lists the native names with decode mappings, sorted.
func (r *Resolver[T]) Names() []string {
	return sortedKeys(r.decode)
}

// Types lists the canonical types with encode mappings.
func (r *Resolver[T]) Types() []T {
	return lo.Filter(lo.Keys(r.encode), func(t T, _ int) bool { return r.SupportsType(t) })
}

type Stats struct {
	Names         int `json:"names"`
	DecodeEntries int `json:"decode_entries"`
	Types         int `json:"types"`
	EncodeEntries int `json:"encode_entries"`
	Extras        int `json:"extras"`
}

func (r *Resolver[T]) Stats() Stats {
	st := Stats{Names: len(r.decode), Extras: len(r.extras)}
	for _, ix := range r.decode {
		st.DecodeEntries += ix.size()
	}
	for _, ix := range r.encode {
		if n := ix.size(); n > 0 {
			st.Types++
			st.EncodeEntries += n
		}
	}
	return st
}
