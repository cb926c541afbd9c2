package statemap

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/version"
)

// Source yields the group that applies at a given platform version.
type Source interface {
	Resolve(v version.Version) *Group
}

type since struct {
	min   version.Version
	group *Group
}

// Versioned selects between a default group and groups that take effect
// from a minimum version onward.
type Versioned struct {
	defaults *Group
	steps    []since // ascending by min
}

type VersionedBuilder struct {
	v    *Versioned
	errs []error
}

func NewVersioned(defaults *Group) *VersionedBuilder {
	return &VersionedBuilder{v: &Versioned{defaults: defaults}}
}

// Since makes g apply from version min onward, until a later Since.
func (b *VersionedBuilder) Since(min version.Version, g *Group) *VersionedBuilder {
	for _, s := range b.v.steps {
		if s.min == min {
			b.errs = append(b.errs, errors.Errorf("two groups registered since %v", min))
			return b
		}
	}
	b.v.steps = append(b.v.steps, since{min, g})
	return b
}

func (b *VersionedBuilder) Build() (*Versioned, error) {
	if b.v.defaults == nil {
		b.errs = append(b.errs, errors.New("versioned group has no default"))
	}
	if len(b.errs) > 0 {
		return nil, joinErrors(b.errs)
	}
	sort.Slice(b.v.steps, func(i, j int) bool { return b.v.steps[i].min.Less(b.v.steps[j].min) })
	return b.v, nil
}

func (b *VersionedBuilder) MustBuild() *Versioned {
	v, err := b.Build()
	if err != nil {
		panic(err)
	}
	return v
}

// Resolve returns the group with the greatest minimum version not after v,
// or the default if every minimum is after v.
func (vg *Versioned) Resolve(v version.Version) *Group {
	i := sort.Search(len(vg.steps), func(i int) bool { return v.Less(vg.steps[i].min) })
	if i == 0 {
		return vg.defaults
	}
	return vg.steps[i-1].group
}

// Versions lists the minimum versions at which the selected group changes.
func (vg *Versioned) Versions() []version.Version {
	out := make([]version.Version, len(vg.steps))
	for i, s := range vg.steps {
		out[i] = s.min
	}
	return out
}
