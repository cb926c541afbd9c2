package resolver

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/statemap"
)

type role uint8

const (
	roleCanonical role = iota
	roleDuplicateInput
	roleDuplicateOutput
	roleOverride
)

func (r role) String() string {
	return [...]string{"canonical", "duplicate_input", "duplicate_output", "override"}[r]
}

type entry[T canonical.Kind] struct {
	m     Mapping[T]
	group *statemap.Group
	role  role
}

// grouping holds the entries that discriminate on one particular set of
// keys, indexed by the values of those keys.
type grouping[K cmp.Ordered, T canonical.Kind] struct {
	keys    []K
	entries map[statemap.Tuple]*entry[T]
}

// index is ordered most specific first: more keys before fewer, ties broken
// by key names. The wildcard grouping (no keys) is always last.
type index[K cmp.Ordered, T canonical.Kind] []*grouping[K, T]

func (ix index[K, T]) find(keys []K) *grouping[K, T] {
	for _, g := range ix {
		if slices.Equal(g.keys, keys) {
			return g
		}
	}
	return nil
}

func (ix index[K, T]) with(keys []K) (index[K, T], *grouping[K, T]) {
	if g := ix.find(keys); g != nil {
		return ix, g
	}
	g := &grouping[K, T]{keys: keys, entries: map[statemap.Tuple]*entry[T]{}}
	ix = append(ix, g)
	slices.SortFunc(ix, func(a, b *grouping[K, T]) int {
		if c := cmp.Compare(len(b.keys), len(a.keys)); c != 0 {
			return c
		}
		return slices.Compare(a.keys, b.keys)
	})
	return ix, g
}

// ambiguity reports two distinct key sets of equal size. Input carrying
// both key sets would match either, so neither can be preferred.
func (ix index[K, T]) ambiguity() error {
	for i := 1; i < len(ix); i++ {
		a, b := ix[i-1], ix[i]
		if len(a.keys) == len(b.keys) && len(a.keys) > 0 && len(a.entries) > 0 && len(b.entries) > 0 {
			return errors.Errorf("discriminators %v and %v are equally specific", a.keys, b.keys)
		}
	}
	return nil
}

func (ix index[K, T]) size() int {
	n := 0
	for _, g := range ix {
		n += len(g.entries)
	}
	return n
}

func nativeKeys(states map[string]identifier.StateValue) ([]string, statemap.Tuple, error) {
	keys := sortedKeys(states)
	if len(keys) > statemap.MaxArity {
		return nil, statemap.Tuple{}, errors.Errorf("%d discriminating states, at most %d allowed", len(keys), statemap.MaxArity)
	}
	vals := make([]identifier.StateValue, len(keys))
	for i, k := range keys {
		vals[i] = states[k]
	}
	return keys, statemap.T(vals...), nil
}

func canonicalKeys(ps canonical.Properties) ([]canonical.Property, statemap.Tuple, error) {
	keys := ps.Keys()
	if len(keys) > statemap.MaxArity {
		return nil, statemap.Tuple{}, errors.Errorf("%d discriminating properties, at most %d allowed", len(keys), statemap.MaxArity)
	}
	vals := make([]identifier.StateValue, len(keys))
	for i, k := range keys {
		vals[i] = ps[k]
	}
	return keys, statemap.T(vals...), nil
}

// lookup gathers the values for keys with get, skipping groupings whose
// keys cannot all be resolved.
func (ix index[K, T]) lookup(get func(K) (identifier.StateValue, bool)) *entry[T] {
	var vals [statemap.MaxArity]identifier.StateValue
groupings:
	for _, g := range ix {
		for i, k := range g.keys {
			v, ok := get(k)
			if !ok {
				continue groupings
			}
			vals[i] = v
		}
		if e := g.entries[statemap.T(vals[:len(g.keys)]...)]; e != nil {
			return e
		}
	}
	return nil
}
