package mappings

import (
	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/statemap"
)

var (
	javaSnowy     = field("java_snowy", "snowy", canonical.Snowy)
	javaLevel     = field("java_level", "level", canonical.Level)
	javaAxis      = field("java_axis", "axis", canonical.Axis)
	javaLit       = field("java_lit", "lit", canonical.Lit)
	javaWallTorch = field("java_wall_torch", "facing", canonical.Facing)
	javaAge       = field("java_age", "age", canonical.Age)
	javaSnow      = field("java_snow", "layers", canonical.Layers)
)

var javaRedstoneWallTorch = statemap.NewGroup("java_redstone_wall_torch").
	Field("facing", canonical.Facing, statemap.Identity()).
	Field("lit", canonical.Lit, statemap.Identity()).
	MustBuild()

var javaLeaves = statemap.NewGroup("java_leaves").
	Field("persistent", canonical.Persistent, statemap.Identity()).
	DefaultNative("persistent", vb(false)).
	MustBuild()

var javaFurnace = statemap.NewGroup("java_furnace").
	Field("facing", canonical.Facing, statemap.Identity()).
	Field("lit", canonical.Lit, statemap.Identity()).
	MustBuild()

var javaSlab = statemap.NewGroup("java_slab").
	Field("type", canonical.SlabType, statemap.Identity()).
	Field("waterlogged", canonical.Waterlogged, statemap.Identity()).
	MustBuild()

var javaStairs = statemap.NewGroup("java_stairs").
	Field("facing", canonical.Facing, statemap.Identity()).
	Field("half", canonical.Half, statemap.Identity()).
	Field("waterlogged", canonical.Waterlogged, statemap.Identity()).
	MustBuild()

var javaChest = statemap.NewGroup("java_chest").
	Field("facing", canonical.Facing, statemap.Identity()).
	Field("waterlogged", canonical.Waterlogged, statemap.Identity()).
	MustBuild()

var javaDoor = statemap.NewGroup("java_door").
	Field("facing", canonical.Facing, statemap.Identity()).
	Field("half", canonical.Half, statemap.Rename(map[string]string{"lower": "bottom", "upper": "top"}).MustBuild()).
	Field("hinge", canonical.Hinge, statemap.Identity()).
	Field("open", canonical.Open, statemap.Identity()).
	Field("powered", canonical.Powered, statemap.Identity()).
	MustBuild()

// javaBlocks registers the named-state table used from 1.13 on. The smooth
// stone slab took the plain stone slab's name in 1.13 and got its own in
// 1.14.
func javaBlocks(smoothSlab string) func(*blocks) {
	return func(t *blocks) {
		t.Register(resolver.Group(nil, map[string]canonical.BlockType{
			"minecraft:air":               canonical.Air,
			"minecraft:stone":             canonical.Stone,
			"minecraft:granite":           canonical.Granite,
			"minecraft:polished_granite":  canonical.PolishedGranite,
			"minecraft:diorite":           canonical.Diorite,
			"minecraft:polished_diorite":  canonical.PolishedDiorite,
			"minecraft:andesite":          canonical.Andesite,
			"minecraft:polished_andesite": canonical.PolishedAndesite,
			"minecraft:dirt":              canonical.Dirt,
			"minecraft:coarse_dirt":       canonical.CoarseDirt,
			"minecraft:cobblestone":       canonical.Cobblestone,
			"minecraft:sand":              canonical.Sand,
			"minecraft:red_sand":          canonical.RedSand,
			"minecraft:gravel":            canonical.Gravel,
			"minecraft:bedrock":           canonical.Bedrock,
			"minecraft:glass":             canonical.Glass,
			"minecraft:obsidian":          canonical.Obsidian,
			"minecraft:glowstone":         canonical.Glowstone,
			"minecraft:torch":             canonical.Torch,
		})...)
		t.RegisterDuplicateInput(resolver.DecodeOnly(
			resolver.Of("minecraft:cave_air", canonical.Air),
			resolver.Of("minecraft:void_air", canonical.Air),
		))

		t.Register(resolver.Group(javaSnowy, map[string]canonical.BlockType{
			"minecraft:grass_block": canonical.GrassBlock,
			"minecraft:podzol":      canonical.Podzol,
		})...)
		t.Register(resolver.Group(javaLevel, map[string]canonical.BlockType{
			"minecraft:water": canonical.Water,
			"minecraft:lava":  canonical.Lava,
		})...)

		t.Register(resolver.GroupBy(canonical.Planks, canonical.Wood, nil, woodNames("_planks"))...)
		t.Register(resolver.GroupBy(canonical.Log, canonical.Wood, javaAxis, woodNames("_log"))...)
		t.Register(resolver.GroupBy(canonical.Leaves, canonical.Wood, javaLeaves, woodNames("_leaves"))...)
		t.Register(resolver.GroupBy(canonical.WoodenSlab, canonical.Wood, javaSlab, woodNames("_slab"))...)
		t.Register(resolver.GroupBy(canonical.Wool, canonical.Color, nil, colorNames("_wool"))...)

		t.Register(resolver.Of("minecraft:wall_torch", canonical.WallTorch).WithGroup(javaWallTorch))
		t.Register(resolver.Of("minecraft:redstone_torch", canonical.RedstoneTorch).WithGroup(javaLit))
		t.Register(resolver.Of("minecraft:redstone_wall_torch", canonical.RedstoneWallTorch).WithGroup(javaRedstoneWallTorch))
		t.Register(resolver.Of("minecraft:furnace", canonical.Furnace).WithGroup(javaFurnace))
		t.Register(resolver.Of("minecraft:redstone_lamp", canonical.RedstoneLamp).WithGroup(javaLit))
		t.Register(resolver.Of("minecraft:chest", canonical.Chest).WithGroup(javaChest))

		t.Register(resolver.GroupBy(canonical.StoneSlab, canonical.StoneVariant, javaSlab, map[string]identifier.StateValue{
			smoothSlab:                   ve("stone"),
			"minecraft:sandstone_slab":   ve("sandstone"),
			"minecraft:cobblestone_slab": ve("cobblestone"),
			"minecraft:brick_slab":       ve("brick"),
			"minecraft:stone_brick_slab": ve("stone_brick"),
			"minecraft:quartz_slab":      ve("quartz"),
		})...)

		t.Register(resolver.Of("minecraft:oak_stairs", canonical.OakStairs).WithGroup(javaStairs))
		t.Register(resolver.Of("minecraft:wheat", canonical.Wheat).WithGroup(javaAge))
		t.Register(resolver.Of("minecraft:snow", canonical.Snow).WithGroup(javaSnow))
		t.Register(resolver.Of("minecraft:oak_door", canonical.OakDoor).WithGroup(javaDoor))
		t.Register(resolver.Of("minecraft:kelp", canonical.Kelp).WithGroup(javaAge))
		t.RegisterDuplicateInput(resolver.DecodeOnly(
			resolver.Of("minecraft:kelp_plant", canonical.Kelp),
		))
	}
}

// woodNames is the minecraft:<wood><suffix> name for every wood.
func woodNames(suffix string) map[string]identifier.StateValue {
	return prefixed(canonical.Woods, suffix)
}

func colorNames(suffix string) map[string]identifier.StateValue {
	return prefixed(canonical.Colors, suffix)
}

func prefixed(values []string, suffix string) map[string]identifier.StateValue {
	out := make(map[string]identifier.StateValue, len(values))
	for _, v := range values {
		out[identifier.VanillaNamespace+":"+v+suffix] = ve(v)
	}
	return out
}
