package canonical

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/identifier"
)

func TestBlockTypeNames(t *testing.T) {
	all := AllBlockTypes()
	names := lo.Map(all, func(b BlockType, _ int) string { return b.String() })
	require.Equal(t, len(names), len(lo.Uniq(names)), "block names must be unique")
	for _, b := range all {
		require.NotEmpty(t, b.String(), "block %d has no name", b)
		got, err := ParseBlockType(b.String())
		require.NoError(t, err)
		require.Equal(t, b, got)
	}
	_, err := ParseBlockType("unobtainium")
	require.Error(t, err)
	require.Equal(t, "block(9999)", BlockType(9999).String())
}

func TestItemTypeNames(t *testing.T) {
	for _, it := range AllItemTypes() {
		require.NotEmpty(t, it.String(), "item %d has no name", it)
		got, err := ParseItemType(it.String())
		require.NoError(t, err)
		require.Equal(t, it, got)
	}
	var it ItemType
	require.NoError(t, it.UnmarshalText([]byte("coal")))
	require.Equal(t, ItemCoal, it)
}

func TestPropertyDomains(t *testing.T) {
	for _, p := range AllProperties() {
		require.NotEmpty(t, p.Values(), "%v has an empty domain", p)
		require.True(t, p.Valid(p.Default()), "default of %v is outside its domain", p)
		got, err := ParseProperty(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
	require.Len(t, Color.Values(), 16)
	require.Equal(t, identifier.Int(1), Layers.Default())
	require.False(t, Age.Valid(identifier.Int(8)))
	require.False(t, Facing.Valid(identifier.Enum("up")))
	require.Nil(t, Property(0).Values())
}

func TestProperties(t *testing.T) {
	ps := Properties{Facing: identifier.Enum("east"), Waterlogged: identifier.Bool(true)}
	require.Equal(t, []Property{Waterlogged, Facing}, ps.Keys())
	require.Equal(t, "{waterlogged=true,facing=east}", ps.String())

	c := ps.Clone()
	c[Lit] = identifier.Bool(false)
	require.False(t, ps.Equal(c))
	delete(c, Lit)
	require.True(t, ps.Equal(c))
	require.True(t, Properties(nil).Equal(Properties{}))

	back, err := ParseProperties(ps.StringMap())
	require.NoError(t, err)
	require.True(t, ps.Equal(back))
	_, err = ParseProperties(map[string]identifier.StateValue{"bogus": identifier.Int(1)})
	require.Error(t, err)
}
