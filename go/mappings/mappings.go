// Package mappings holds the identifier tables for every supported platform
// and version, and builds resolvers from them.
package mappings

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/version"
)

type Platform string

const (
	Java    Platform = "java"
	Bedrock Platform = "bedrock"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(s)); p {
	case Java, Bedrock:
		return p, nil
	}
	return "", errors.Errorf("unknown platform %q", s)
}

// Target is a platform at a specific version, written "java:1.12.2".
type Target struct {
	Platform Platform
	Version  version.Version
}

func ParseTarget(s string) (Target, error) {
	ps, vs, ok := strings.Cut(s, ":")
	if !ok {
		return Target{}, errors.Errorf("target %q is not platform:version", s)
	}
	p, err := ParsePlatform(ps)
	if err != nil {
		return Target{}, err
	}
	v, err := version.Parse(vs)
	if err != nil {
		return Target{}, errors.Wrapf(err, "target %q", s)
	}
	return Target{p, v}, nil
}

func MustParseTarget(s string) Target {
	t, err := ParseTarget(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Target) String() string { return string(t.Platform) + ":" + t.Version.String() }

func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Target) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTarget(string(b))
	return err
}

// era is a registration set in force from since until the next era.
type era[T canonical.Kind] struct {
	since    version.Version
	name     string
	register func(*resolver.Table[T])
}

func pickEra[T canonical.Kind](eras []era[T], v version.Version) (era[T], bool) {
	i := sort.Search(len(eras), func(i int) bool { return v.Less(eras[i].since) })
	if i == 0 {
		return era[T]{}, false
	}
	return eras[i-1], true
}

var blockEras = map[Platform][]era[canonical.BlockType]{
	Java: {
		{version.New(1, 8, 0), "java legacy", legacyBlocks(identifier.DataState, 7)},
		{version.New(1, 13, 0), "java", javaBlocks("minecraft:stone_slab")},
		{version.New(1, 14, 0), "java", javaBlocks("minecraft:smooth_stone_slab")},
	},
	Bedrock: {
		{version.New(1, 12, 0), "bedrock legacy", legacyBlocks(BedrockLegacyState, 6)},
		{version.New(1, 13, 0), "bedrock", bedrockBlocks},
	},
}

var itemEras = map[Platform][]era[canonical.ItemType]{
	Java: {
		{version.New(1, 8, 0), "java legacy", javaLegacyItems},
		{version.New(1, 13, 0), "java", javaItems},
	},
	Bedrock: {
		{version.New(1, 12, 0), "bedrock", bedrockItems},
	},
}

// Oldest is the earliest version with block mappings on p.
func Oldest(p Platform) (version.Version, bool) {
	eras := blockEras[p]
	if len(eras) == 0 {
		return version.Version{}, false
	}
	return eras[0].since, true
}

// Supported reports whether t has block and item mappings.
func Supported(t Target) bool {
	_, blocks := pickEra(blockEras[t.Platform], t.Version)
	_, items := pickEra(itemEras[t.Platform], t.Version)
	return blocks && items
}

func table[T canonical.Kind](kind string, eras []era[T], t Target, opts []resolver.Option) (*resolver.Table[T], string, error) {
	e, ok := pickEra(eras, t.Version)
	if !ok {
		return nil, "", errors.Errorf("no %s mappings for %v", kind, t)
	}
	tbl := resolver.NewTable[T](t.Version, opts...)
	e.register(tbl)
	return tbl, e.name, nil
}

func build[T canonical.Kind](kind string, eras []era[T], t Target, opts []resolver.Option) (*resolver.Resolver[T], error) {
	tbl, name, err := table(kind, eras, t, opts)
	if err != nil {
		return nil, err
	}
	r, err := tbl.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s mappings for %v", name, kind, t)
	}
	return r, nil
}

// Blocks builds the block resolver for t.
func Blocks(t Target, opts ...resolver.Option) (*resolver.Resolver[canonical.BlockType], error) {
	return build("block", blockEras[t.Platform], t, opts)
}

// Items builds the item resolver for t.
func Items(t Target, opts ...resolver.Option) (*resolver.Resolver[canonical.ItemType], error) {
	return build("item", itemEras[t.Platform], t, opts)
}

// BlockTable returns the unbuilt block table for t, for callers that layer
// their own registrations on top before building.
func BlockTable(t Target, opts ...resolver.Option) (*resolver.Table[canonical.BlockType], error) {
	tbl, _, err := table("block", blockEras[t.Platform], t, opts)
	return tbl, err
}

// ItemTable is BlockTable for items.
func ItemTable(t Target, opts ...resolver.Option) (*resolver.Table[canonical.ItemType], error) {
	tbl, _, err := table("item", itemEras[t.Platform], t, opts)
	return tbl, err
}

// props builds canonical properties from property/value pairs. Values may
// be string, int or bool.
func props(kv ...any) canonical.Properties {
	if len(kv) == 0 {
		return nil
	}
	if len(kv)%2 != 0 {
		panic("props: odd argument count")
	}
	out := make(canonical.Properties, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p := kv[i].(canonical.Property)
		switch v := kv[i+1].(type) {
		case string:
			out[p] = identifier.Enum(v)
		case int:
			out[p] = identifier.Int(int32(v))
		case bool:
			out[p] = identifier.Bool(v)
		case identifier.StateValue:
			out[p] = v
		default:
			panic(errors.Errorf("props: unsupported value %T for %v", v, p))
		}
	}
	return out
}
