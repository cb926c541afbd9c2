package statemap

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/version"
)

var (
	i = identifier.Int
	b = identifier.Bool
	e = identifier.Enum
)

func TestTableCodec(t *testing.T) {
	tbl := NewTable(1, 1).
		MapOne(i(0), e("north")).
		MapOne(i(1), e("south")).
		DecodeOnly(T(i(5)), T(e("north"))).
		MustBuild()

	for _, tc := range []struct {
		in       identifier.StateValue
		expected identifier.StateValue
		ok       bool
	}{
		{i(0), e("north"), true},
		{i(1), e("south"), true},
		{i(5), e("north"), true},
		{i(2), identifier.StateValue{}, false},
	} {
		got, ok := tbl.Decode(T(tc.in))
		require.Equal(t, tc.ok, ok, "Decode(%v)", tc.in)
		if ok {
			require.Equal(t, T(tc.expected), got, "Decode(%v)", tc.in)
		}
	}
	n, ok := tbl.Encode(T(e("north")))
	require.True(t, ok)
	require.Equal(t, T(i(0)), n, "decode-only spellings are never encoded")
	_, ok = tbl.Encode(T(e("west")))
	require.False(t, ok)
	require.False(t, tbl.Total())
}

func TestTableBuildErrors(t *testing.T) {
	_, err := NewTable(1, 1).MapOne(i(0), e("a")).MapOne(i(1), e("a")).Build()
	require.Error(t, err, "two natives encoding the same canonical")

	_, err = NewTable(1, 1).MapOne(i(0), e("a")).MapOne(i(0), e("b")).Build()
	require.Error(t, err, "one native decoding two ways")

	_, err = NewTable(1, 2).MapOne(i(0), e("a")).Build()
	require.Error(t, err, "arity mismatch")

	_, err = NewTable(2, 1).NearestLower().Build()
	require.Error(t, err)
}

func TestTableEncodeOnly(t *testing.T) {
	tbl := NewTable(1, 2).
		Map(T(i(0)), T(e("bottom"), b(false))).
		EncodeOnly(T(e("bottom"), b(true)), T(i(0))).
		Map(T(i(8)), T(e("top"), b(false))).
		MustBuild()

	n, ok := tbl.Encode(T(e("bottom"), b(true)))
	require.True(t, ok)
	require.Equal(t, T(i(0)), n)
	c, ok := tbl.Decode(T(i(0)))
	require.True(t, ok)
	require.Equal(t, T(e("bottom"), b(false)), c, "collapsed tuples decode to the mapped one")
	require.Equal(t, 2, tbl.Len())

	_, err := NewTable(1, 1).MapOne(i(0), e("a")).EncodeOnly(T(e("a")), T(i(1))).Build()
	require.Error(t, err)
}

func TestTableFallbacks(t *testing.T) {
	lower := NewTable(1, 1).
		MapOne(i(0), e("small")).
		MapOne(i(4), e("medium")).
		MapOne(i(8), e("large")).
		NearestLower().
		MustBuild()
	for _, tc := range []struct {
		in       int32
		expected string
	}{
		{0, "small"}, {3, "small"}, {4, "medium"}, {7, "medium"}, {100, "large"},
	} {
		got, ok := lower.Decode(T(i(tc.in)))
		require.True(t, ok, "Decode(%d)", tc.in)
		require.Equal(t, T(e(tc.expected)), got, "Decode(%d)", tc.in)
	}
	_, ok := lower.Decode(T(i(-1)))
	require.False(t, ok, "nothing below the smallest key")

	def := NewTable(1, 1).
		MapOne(i(0), e("a")).
		Default(T(i(0)), T(e("a"))).
		MustBuild()
	got, ok := def.Decode(T(i(99)))
	require.True(t, ok)
	require.Equal(t, T(e("a")), got)
	n, ok := def.Encode(T(e("zzz")))
	require.True(t, ok)
	require.Equal(t, T(i(0)), n)
	require.True(t, def.Total())
}

func TestUnmappedValues(t *testing.T) {
	half := Rename(map[string]string{"lower": "bottom", "upper": "top"}).MustBuild()
	woodAxis := NewTable(1, 2)
	for a, axis := range []string{"x", "y", "z"} {
		for w, wood := range canonical.Woods {
			woodAxis.Map(T(i(int32(a<<3|w))), T(e(wood), e(axis)))
		}
	}
	g := NewGroup("door").
		Field("half", canonical.Half, half).
		Field("age", canonical.Age, Identity()).
		Split("data", []canonical.Property{canonical.Wood, canonical.Axis}, woodAxis.MustBuild()).
		DefaultCanonical(canonical.Axis, e("z")).
		MustBuild()

	for _, tc := range []struct {
		native   map[string]identifier.StateValue
		expected canonical.Properties
	}{
		{
			map[string]identifier.StateValue{"half": e("lower"), "age": i(3), "data": i(1<<3 | 2)},
			canonical.Properties{canonical.Half: e("bottom"), canonical.Age: i(3), canonical.Wood: e("birch"), canonical.Axis: e("y")},
		},
		{
			map[string]identifier.StateValue{"half": e("middle"), "age": i(99), "data": i(1<<3 | 2)},
			canonical.Properties{canonical.Half: e("middle"), canonical.Age: i(99), canonical.Wood: e("birch"), canonical.Axis: e("y")},
		},
		{
			map[string]identifier.StateValue{"half": i(3)},
			canonical.Properties{canonical.Half: i(3), canonical.Axis: e("z")},
		},
		{
			// a split that misses takes the group default, then the property default
			map[string]identifier.StateValue{"half": e("upper"), "data": i(63)},
			canonical.Properties{canonical.Half: e("top"), canonical.Wood: canonical.Wood.Default(), canonical.Axis: e("z")},
		},
	} {
		out := canonical.Properties{}
		g.Decode(tc.native, out)
		require.Equal(t, tc.expected, out, "Decode(%v)", tc.native)
	}

	// values decode passed through encode back to the same native spelling
	native := map[string]identifier.StateValue{}
	g.Encode(canonical.Properties{canonical.Half: e("middle"), canonical.Age: i(99), canonical.Wood: e("birch"), canonical.Axis: e("y")}, native)
	require.Equal(t, map[string]identifier.StateValue{"half": e("middle"), "age": i(99), "data": i(1<<3 | 2)}, native)

	native = map[string]identifier.StateValue{}
	g.Encode(canonical.Properties{canonical.Half: i(3), canonical.Wood: e("cherry")}, native)
	require.Equal(t, map[string]identifier.StateValue{"half": i(3), "age": i(0)}, native,
		"a split cannot carry an unknown value, so it writes nothing")
}

func TestBoolInts(t *testing.T) {
	c := BoolInts()
	got, ok := c.Decode(T(b(true)))
	require.True(t, ok)
	require.Equal(t, T(b(true)), got)
	got, ok = c.Decode(T(i(1)))
	require.True(t, ok)
	require.Equal(t, T(b(true)), got)
	n, ok := c.Encode(T(b(false)))
	require.True(t, ok)
	require.Equal(t, T(i(0)), n)
}

func TestGroupDecodeEncode(t *testing.T) {
	facing := NewTable(1, 1).
		MapOne(i(1), e("east")).
		MapOne(i(2), e("west")).
		MapOne(i(3), e("south")).
		MapOne(i(4), e("north")).
		DecodeOnly(T(i(0)), T(e("north"))).
		MustBuild()
	g, err := NewGroup("wall_torch").
		Field("data", canonical.Facing, facing).
		Field("lit", canonical.Lit, Identity()).
		DefaultCanonical(canonical.Waterlogged, b(false)).
		DefaultNative("data", i(0)).
		Build()
	require.NoError(t, err)

	for _, tc := range []struct {
		native   map[string]identifier.StateValue
		expected canonical.Properties
	}{
		{
			map[string]identifier.StateValue{"data": i(2), "lit": b(true)},
			canonical.Properties{canonical.Facing: e("west"), canonical.Lit: b(true), canonical.Waterlogged: b(false)},
		},
		{
			// missing data falls back to the default native input
			map[string]identifier.StateValue{},
			canonical.Properties{canonical.Facing: e("north"), canonical.Waterlogged: b(false)},
		},
		{
			// unknown native values pass through, they never fail
			map[string]identifier.StateValue{"data": i(9), "lit": i(7)},
			canonical.Properties{canonical.Facing: i(9), canonical.Lit: i(7), canonical.Waterlogged: b(false)},
		},
	} {
		out := canonical.Properties{}
		g.Decode(tc.native, out)
		require.Equal(t, tc.expected, out, "Decode(%v)", tc.native)
	}

	native := map[string]identifier.StateValue{}
	g.Encode(canonical.Properties{canonical.Facing: e("south"), canonical.Waterlogged: b(true)}, native)
	require.Equal(t, map[string]identifier.StateValue{"data": i(3), "lit": b(false)}, native,
		"missing lit takes the property default; waterlogged has no native rule")

	native = map[string]identifier.StateValue{}
	g.Encode(canonical.Properties{}, native)
	require.Equal(t, i(4), native["data"], "default native inputs are never written, missing facing encodes the default")
}

func TestGroupDefaultsNeverOverrideRules(t *testing.T) {
	g := NewGroup("lamp").
		Field("lit", canonical.Lit, Identity()).
		DefaultCanonical(canonical.Lit, b(false)).
		MustBuild()
	out := canonical.Properties{}
	g.Decode(map[string]identifier.StateValue{"lit": b(true)}, out)
	require.Equal(t, b(true), out[canonical.Lit])

	out = canonical.Properties{}
	g.Decode(nil, out)
	require.Equal(t, b(false), out[canonical.Lit])

	// values already present are kept
	out = canonical.Properties{canonical.Lit: b(true)}
	g.Decode(map[string]identifier.StateValue{"lit": b(false)}, out)
	require.Equal(t, b(true), out[canonical.Lit])

	// the group default wins over the property default on encode
	g2 := NewGroup("lit_lamp").
		Field("lit", canonical.Lit, Identity()).
		DefaultCanonical(canonical.Lit, b(true)).
		MustBuild()
	native := map[string]identifier.StateValue{}
	g2.Encode(nil, native)
	require.Equal(t, b(true), native["lit"])
}

func TestSplitAndCombine(t *testing.T) {
	// legacy log data: low two bits wood, next two bits axis
	axes := []string{"y", "x", "z"}
	woods := []string{"oak", "spruce", "birch", "jungle"}
	tb := NewTable(1, 2)
	for a, axis := range axes {
		for w, wood := range woods {
			tb.Map(T(i(int32(a<<2|w))), T(e(wood), e(axis)))
		}
	}
	for w, wood := range woods {
		tb.DecodeOnly(T(i(int32(3<<2|w))), T(e(wood), e("y")))
	}
	tbl := tb.MustBuild()

	_, err := NewGroup("log").Split("data", []canonical.Property{canonical.Wood, canonical.Axis}, tbl).Build()
	require.ErrorIs(t, err, ErrNotTotal, "acacia and dark_oak have no legacy log data value")

	tb = NewTable(1, 2)
	for a, axis := range axes {
		for w, wood := range canonical.Woods {
			tb.Map(T(i(int32(a<<3|w))), T(e(wood), e(axis)))
		}
	}
	g := NewGroup("log").Combine([]canonical.Property{canonical.Wood, canonical.Axis}, "data", tb.MustBuild()).MustBuild()

	out := canonical.Properties{}
	g.Decode(map[string]identifier.StateValue{"data": i(1<<3 | 4)}, out)
	require.Equal(t, canonical.Properties{canonical.Wood: e("acacia"), canonical.Axis: e("x")}, out)

	native := map[string]identifier.StateValue{}
	g.Encode(out, native)
	require.Equal(t, i(1<<3|4), native["data"])
}

func TestMerge(t *testing.T) {
	tbl := NewTable(2, 1).
		Map(T(b(false), b(false)), T(e("bottom"))).
		Map(T(b(true), b(false)), T(e("top"))).
		Map(T(b(false), b(true)), T(e("double"))).
		DecodeOnly(T(b(true), b(true)), T(e("double"))).
		MustBuild()
	g := NewGroup("slab").Merge([]string{"top_slot_bit", "double"}, canonical.SlabType, tbl).MustBuild()
	out := canonical.Properties{}
	g.Decode(map[string]identifier.StateValue{"top_slot_bit": b(true), "double": b(true)}, out)
	require.Equal(t, e("double"), out[canonical.SlabType])
	native := map[string]identifier.StateValue{}
	g.Encode(out, native)
	require.Equal(t, map[string]identifier.StateValue{"top_slot_bit": b(false), "double": b(true)}, native)
}

func TestGroupBuildErrors(t *testing.T) {
	_, err := NewGroup("x").
		Field("a", canonical.Lit, Identity()).
		Field("a", canonical.Powered, Identity()).
		Build()
	require.Error(t, err, "native property used twice")

	_, err = NewGroup("x").
		Field("a", canonical.Lit, Identity()).
		Field("b", canonical.Lit, Identity()).
		Build()
	require.Error(t, err, "canonical property produced twice")

	_, err = NewGroup("x").Split("a", []canonical.Property{canonical.Lit, canonical.Open}, Identity()).Build()
	require.Error(t, err, "identity is 1:1")

	_, err = NewGroup("x").DefaultNative("a", i(0)).DefaultNative("a", i(1)).Build()
	require.Error(t, err)

	_, err = NewGroup("x").Field("a", canonical.Lit, nil).Build()
	require.Error(t, err)
}

func TestEncodePresent(t *testing.T) {
	g := NewGroup("waterlogging").Field("waterlogged", canonical.Waterlogged, Identity()).MustBuild()
	native := map[string]identifier.StateValue{}
	g.EncodePresent(canonical.Properties{canonical.Facing: e("east")}, native)
	require.Empty(t, native)
	g.EncodePresent(canonical.Properties{canonical.Waterlogged: b(true)}, native)
	require.Equal(t, b(true), native["waterlogged"])
}

func TestInclude(t *testing.T) {
	base := NewGroup("base").Field("lit", canonical.Lit, Identity()).DefaultNative("lit", b(false)).MustBuild()
	g := NewGroup("derived").Include(base).Field("facing", canonical.Facing, Identity()).MustBuild()
	require.Len(t, g.Rules(), 2)
	require.Equal(t, []canonical.Property{canonical.Facing, canonical.Lit}, g.CanonicalKeys())
	v, ok := g.DefaultNative("lit")
	require.True(t, ok)
	require.Equal(t, b(false), v)
}

func TestVersionedResolve(t *testing.T) {
	def := NewGroup("default").MustBuild()
	v1 := NewGroup("v1").MustBuild()
	v2 := NewGroup("v2").MustBuild()
	vg := NewVersioned(def).
		Since(version.New(1, 16, 0), v2).
		Since(version.New(1, 13, 0), v1).
		MustBuild()

	for _, tc := range []struct {
		v        string
		expected *Group
	}{
		{"1.12.2", def},
		{"1.13.0", v1},
		{"1.13.2", v1},
		{"1.15.99", v1},
		{"1.16.0", v2},
		{"1.20.4", v2},
		{"latest", v2},
	} {
		require.Same(t, tc.expected, vg.Resolve(version.MustParse(tc.v)), "Resolve(%s)", tc.v)
	}
	require.Equal(t, []version.Version{version.New(1, 13, 0), version.New(1, 16, 0)}, vg.Versions())

	// a plain group resolves to itself
	require.Same(t, v1, Source(v1).Resolve(version.Latest))

	_, err := NewVersioned(def).Since(version.New(1, 0, 0), v1).Since(version.New(1, 0, 0), v2).Build()
	require.Error(t, err)
	_, err = NewVersioned(nil).Build()
	require.True(t, err != nil && !errors.Is(err, ErrNotTotal))
}
