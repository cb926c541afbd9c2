package statemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/version"
)

var ErrNotTotal = errors.New("codec is not total over the canonical domain")

// Rule pairs native property names with canonical properties. One native and
// one canonical is a plain field; one native and several canonicals is a
// split (a combine when seen from encode); several natives and one canonical
// is a merge.
type Rule struct {
	Native    []string
	Canonical []canonical.Property
	Codec     Codec
}

func (r Rule) String() string {
	cs := make([]string, len(r.Canonical))
	for i, c := range r.Canonical {
		cs[i] = c.String()
	}
	return fmt.Sprintf("[%s]<->[%s]", strings.Join(r.Native, ","), strings.Join(cs, ","))
}

// Group is an immutable set of rules plus defaults.
type Group struct {
	name             string
	rules            []Rule
	defaultCanonical canonical.Properties
	defaultNative    map[string]identifier.StateValue
}

// Empty has no rules; types without properties use it.
var Empty = &Group{name: "empty"}

func (g *Group) Name() string { return g.name }

func (g *Group) Rules() []Rule { return g.rules }

// Resolve makes a plain group usable wherever a Source is accepted.
func (g *Group) Resolve(version.Version) *Group { return g }

// DefaultNative returns the value assumed for a native property that is
// missing from decode input.
func (g *Group) DefaultNative(name string) (identifier.StateValue, bool) {
	v, ok := g.defaultNative[name]
	return v, ok
}

func (g *Group) DefaultCanonical() canonical.Properties { return g.defaultCanonical }

// Decode adds the canonical properties for native to out. Properties
// already in out are never replaced. Default canonical outputs fill in
// whatever the rules did not produce.
//
// A native value the codec has no mapping for never fails decode. A 1:1
// rule passes it through unchanged under the canonical key; wider rules
// produce the canonical defaults instead.
func (g *Group) Decode(native map[string]identifier.StateValue, out canonical.Properties) {
	for _, r := range g.rules {
		in, ok := g.gatherNative(r, native)
		if !ok {
			continue
		}
		c, ok := r.Codec.Decode(in)
		if !ok || c.Len() != len(r.Canonical) {
			c = g.unmapped(r, in)
		}
		for i, p := range r.Canonical {
			if _, set := out[p]; !set {
				out[p] = c.At(i)
			}
		}
	}
	for p, v := range g.defaultCanonical {
		if _, set := out[p]; !set {
			out[p] = v
		}
	}
}

func (g *Group) unmapped(r Rule, in Tuple) Tuple {
	if len(r.Native) == 1 && len(r.Canonical) == 1 {
		return in
	}
	var t Tuple
	t.n = uint8(len(r.Canonical))
	for i, p := range r.Canonical {
		t.v[i] = g.canonicalDefault(p)
	}
	return t
}

func (g *Group) canonicalDefault(p canonical.Property) identifier.StateValue {
	if v, ok := g.defaultCanonical[p]; ok {
		return v
	}
	return p.Default()
}

func (g *Group) gatherNative(r Rule, native map[string]identifier.StateValue) (Tuple, bool) {
	var t Tuple
	t.n = uint8(len(r.Native))
	for i, name := range r.Native {
		v, ok := native[name]
		if !ok {
			if v, ok = g.defaultNative[name]; !ok {
				return Tuple{}, false
			}
		}
		t.v[i] = v
	}
	return t, true
}

// Encode adds the native properties for canonical to out. A canonical
// property the input lacks is taken from the group's default canonical
// outputs, then from the property's own default. Default native inputs are
// never written. A value a 1:1 codec cannot encode passes through
// unchanged, mirroring Decode; wider rules that miss write nothing.
func (g *Group) Encode(props canonical.Properties, out map[string]identifier.StateValue) {
	g.encode(props, out, true)
}

// EncodePresent is Encode restricted to rules whose canonical inputs are
// all present. Groups applied to every block encode this way, so blocks
// lacking a property do not grow a native one.
func (g *Group) EncodePresent(props canonical.Properties, out map[string]identifier.StateValue) {
	g.encode(props, out, false)
}

func (g *Group) encode(props canonical.Properties, out map[string]identifier.StateValue, fill bool) {
rules:
	for _, r := range g.rules {
		var in Tuple
		in.n = uint8(len(r.Canonical))
		for i, p := range r.Canonical {
			v, ok := props[p]
			if !ok {
				if !fill {
					continue rules
				}
				v = g.canonicalDefault(p)
			}
			in.v[i] = v
		}
		n, ok := r.Codec.Encode(in)
		if !ok || n.Len() != len(r.Native) {
			if len(r.Native) != 1 || len(r.Canonical) != 1 {
				continue
			}
			n = in
		}
		for i, name := range r.Native {
			if _, set := out[name]; !set {
				out[name] = n.At(i)
			}
		}
	}
}

// CanonicalKeys lists every canonical property the group can produce, sorted.
func (g *Group) CanonicalKeys() []canonical.Property {
	seen := map[canonical.Property]bool{}
	for _, r := range g.rules {
		for _, p := range r.Canonical {
			seen[p] = true
		}
	}
	for p := range g.defaultCanonical {
		seen[p] = true
	}
	keys := make([]canonical.Property, 0, len(seen))
	for p := range seen {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GroupBuilder accumulates rules; errors surface from Build.
type GroupBuilder struct {
	g    *Group
	errs []error
}

func NewGroup(name string) *GroupBuilder {
	return &GroupBuilder{g: &Group{
		name:             name,
		defaultCanonical: canonical.Properties{},
		defaultNative:    map[string]identifier.StateValue{},
	}}
}

func (b *GroupBuilder) Rule(r Rule) *GroupBuilder {
	if r.Codec == nil {
		b.errs = append(b.errs, errors.Errorf("%s: rule %v has no codec", b.g.name, r))
		return b
	}
	if len(r.Native) == 0 || len(r.Canonical) == 0 || len(r.Native) > MaxArity || len(r.Canonical) > MaxArity {
		b.errs = append(b.errs, errors.Errorf("%s: rule %v has bad arity", b.g.name, r))
		return b
	}
	na, ca := r.Codec.Arity()
	if (na != 0 && na != len(r.Native)) || (ca != 0 && ca != len(r.Canonical)) {
		b.errs = append(b.errs, errors.Errorf("%s: rule %v does not match codec arity %d:%d", b.g.name, r, na, ca))
		return b
	}
	for _, prev := range b.g.rules {
		for _, n := range r.Native {
			for _, pn := range prev.Native {
				if n == pn {
					b.errs = append(b.errs, errors.Errorf("%s: native property %q used by both %v and %v", b.g.name, n, prev, r))
				}
			}
		}
		for _, c := range r.Canonical {
			for _, pc := range prev.Canonical {
				if c == pc {
					b.errs = append(b.errs, errors.Errorf("%s: canonical property %v produced by both %v and %v", b.g.name, c, prev, r))
				}
			}
		}
	}
	b.g.rules = append(b.g.rules, r)
	return b
}

// Field maps one native property to one canonical property.
func (b *GroupBuilder) Field(native string, p canonical.Property, c Codec) *GroupBuilder {
	return b.Rule(Rule{Native: []string{native}, Canonical: []canonical.Property{p}, Codec: c})
}

// Split unpacks one native property into several canonical properties.
func (b *GroupBuilder) Split(native string, ps []canonical.Property, c Codec) *GroupBuilder {
	return b.Rule(Rule{Native: []string{native}, Canonical: ps, Codec: c})
}

// Combine packs several canonical properties into one native property. It
// is the same rule as Split, named from the encode side.
func (b *GroupBuilder) Combine(ps []canonical.Property, native string, c Codec) *GroupBuilder {
	return b.Split(native, ps, c)
}

// Merge reads several native properties into one canonical property.
func (b *GroupBuilder) Merge(natives []string, p canonical.Property, c Codec) *GroupBuilder {
	return b.Rule(Rule{Native: natives, Canonical: []canonical.Property{p}, Codec: c})
}

// DefaultCanonical emits p=v on decode unless a rule produced p.
func (b *GroupBuilder) DefaultCanonical(p canonical.Property, v identifier.StateValue) *GroupBuilder {
	if _, dup := b.g.defaultCanonical[p]; dup {
		b.errs = append(b.errs, errors.Errorf("%s: duplicate default for canonical %v", b.g.name, p))
		return b
	}
	b.g.defaultCanonical[p] = v
	return b
}

// DefaultNative assumes name=v on decode when the input lacks name.
func (b *GroupBuilder) DefaultNative(name string, v identifier.StateValue) *GroupBuilder {
	if _, dup := b.g.defaultNative[name]; dup {
		b.errs = append(b.errs, errors.Errorf("%s: duplicate default for native %q", b.g.name, name))
		return b
	}
	b.g.defaultNative[name] = v
	return b
}

// Include copies another group's rules and defaults into this one.
func (b *GroupBuilder) Include(o *Group) *GroupBuilder {
	for _, r := range o.rules {
		b.Rule(r)
	}
	for p, v := range o.defaultCanonical {
		b.DefaultCanonical(p, v)
	}
	for n, v := range o.defaultNative {
		b.DefaultNative(n, v)
	}
	return b
}

// Build checks that every rule's codec can encode every tuple its canonical
// properties can take, unless the codec declares itself total.
func (b *GroupBuilder) Build() (*Group, error) {
	for _, r := range b.g.rules {
		if r.Codec.Total() {
			continue
		}
		var missing []string
		forEachTuple(r.Canonical, func(t Tuple) {
			if _, ok := r.Codec.Encode(t); !ok {
				missing = append(missing, t.String())
			}
		})
		if len(missing) > 0 {
			if len(missing) > 4 {
				missing = append(missing[:4], fmt.Sprintf("and %d more", len(missing)-4))
			}
			b.errs = append(b.errs, errors.Wrapf(ErrNotTotal, "%s: rule %v cannot encode %s",
				b.g.name, r, strings.Join(missing, " ")))
		}
	}
	if len(b.errs) > 0 {
		return nil, joinErrors(b.errs)
	}
	return b.g, nil
}

func (b *GroupBuilder) MustBuild() *Group {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// forEachTuple enumerates the cartesian product of the properties' domains.
func forEachTuple(ps []canonical.Property, cb func(Tuple)) {
	var t Tuple
	t.n = uint8(len(ps))
	var rec func(i int)
	rec = func(i int) {
		if i == len(ps) {
			cb(t)
			return
		}
		for _, v := range ps[i].Values() {
			t.v[i] = v
			rec(i + 1)
		}
	}
	rec(0)
}
