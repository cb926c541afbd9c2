package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/version"
)

func TestMigration(t *testing.T) {
	for _, tc := range []struct {
		vfrom, vto      int
		input, expected string
	}{
		{2680, 2690, "minecraft:weathered_copper_block", "minecraft:oxidized_copper_block"},
		{2680, 2691, "minecraft:weathered_copper_block", "minecraft:oxidized_copper"},
		{2689, 2690, "minecraft:weathered_copper_block", "minecraft:oxidized_copper_block"},
		{2690, 2691, "minecraft:weathered_copper_block", "minecraft:weathered_copper"},
		{2690, 2691, "minecraft:grimstone", "minecraft:grimstone"},
		{2690, 2696, "minecraft:grimstone", "minecraft:deepslate"},
		{1487, 1488, "minecraft:kelp", "minecraft:kelp_plant"},
		{1487, 1488, "minecraft:kelp_top", "minecraft:kelp"},
		{1500, 1519, "minecraft:kelp", "minecraft:kelp"},
		{1470, 1952, "minecraft:flowing_water", "minecraft:water"},
		{1519, 1952, "minecraft:stone_slab", "minecraft:smooth_stone_slab"},
		{1952, 1952, "minecraft:stone_slab", "minecraft:stone_slab"},
		{3463, 3463, "minecraft:grass", "minecraft:grass"},
		{3463, 3700, "minecraft:grass", "minecraft:short_grass"},
	} {
		m := NewMigrator(tc.vto)
		require.Equal(t, tc.expected, m.Rename(tc.vfrom, tc.input), "migrate(%d, %d, %q)", tc.vfrom, tc.vto, tc.input)
	}
}

func TestNilMigrator(t *testing.T) {
	var m *Migrator
	assert.Nil(t, m.Renames(100))
	assert.Equal(t, "minecraft:grass", m.Rename(100, "minecraft:grass"))
	assert.Zero(t, m.Target())
}

func TestNewerChunksAreNotRenamed(t *testing.T) {
	m := NewMigrator(2700)
	assert.Nil(t, m.Renames(2700))
	assert.Nil(t, m.Renames(4000))
	assert.NotEmpty(t, m.Renames(2699))
}

func TestDataVersion(t *testing.T) {
	for _, tc := range []struct {
		release string
		want    int
	}{
		{"1.12.2", 0},
		{"1.13.0", 1519},
		{"1.13.2", 1631},
		{"1.14.3", 1952},
		{"1.20.1", 3463},
		{"1.20.4", 3698},
		{"1.99.0", 4554},
	} {
		assert.Equal(t, tc.want, DataVersion(version.MustParse(tc.release)), tc.release)
	}
	assert.Equal(t, 3463, ForVersion(version.MustParse("1.20.0")).Target())
}
