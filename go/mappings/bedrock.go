package mappings

import (
	"sort"

	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/statemap"
	"github.com/rmmh/blockbridge/go/version"
)

var bedrockDefaults = statemap.NewGroup("bedrock_defaults").
	DefaultCanonical(canonical.Waterlogged, vb(false)).
	MustBuild()

// bedrockCardinal is the horizontal facing of furnaces, which moved to
// minecraft:cardinal_direction in 1.20.30.
var bedrockCardinal = statemap.NewVersioned(
	statemap.NewGroup("bedrock_facing_direction").Field("facing_direction", canonical.Facing, horizontalFacing()).MustBuild(),
).Since(version.New(1, 20, 30),
	field("bedrock_cardinal_direction", "minecraft:cardinal_direction", canonical.Facing),
).MustBuild()

// bedrockChest is bedrockCardinal for chests, which moved a version later.
var bedrockChest = statemap.NewVersioned(
	statemap.NewGroup("bedrock_chest_facing_direction").Field("facing_direction", canonical.Facing, horizontalFacing()).MustBuild(),
).Since(version.New(1, 20, 40),
	field("bedrock_chest_cardinal_direction", "minecraft:cardinal_direction", canonical.Facing),
).MustBuild()

// bedrockKelp renamed age to kelp_age in 1.14.
var bedrockKelp = statemap.NewVersioned(
	field("bedrock_kelp_age_legacy", "age", canonical.Age),
).Since(version.New(1, 14, 0),
	field("bedrock_kelp_age", "kelp_age", canonical.Age),
).MustBuild()

var (
	bedrockPillar = field("bedrock_pillar", "pillar_axis", canonical.Axis)
	bedrockLiquid = field("bedrock_liquid", "liquid_depth", canonical.Level)
	bedrockCrop   = field("bedrock_crop", "growth", canonical.Age)
	bedrockLeaves = field("bedrock_leaves", "persistent_bit", canonical.Persistent)
)

var bedrockTorch = statemap.NewGroup("bedrock_torch").
	Field("torch_facing_direction", canonical.Facing, statemap.Identity()).
	MustBuild()

var bedrockLayers = func() *statemap.Group {
	tbl := statemap.NewTable(1, 1)
	for h := 0; h < 8; h++ {
		tbl.MapOne(vi(h), vi(h+1))
	}
	return statemap.NewGroup("bedrock_layers").Field("height", canonical.Layers, tbl.MustBuild()).MustBuild()
}()

var bedrockStairs = func() *statemap.Group {
	facing := statemap.NewTable(1, 1)
	for d, f := range stairFacing {
		facing.MapOne(vi(d), ve(f))
	}
	return statemap.NewGroup("bedrock_stairs").
		Field("weirdo_direction", canonical.Facing, facing.MustBuild()).
		Field("upside_down_bit", canonical.Half, boolHalf(vb(false), vb(true))).
		MustBuild()
}()

var bedrockDoor = func() *statemap.Group {
	facing := statemap.NewTable(1, 1)
	for d, f := range doorFacing {
		facing.MapOne(vi(d), ve(f))
	}
	hinge := statemap.NewTable(1, 1).
		MapOne(vb(false), ve("left")).
		MapOne(vb(true), ve("right")).
		MustBuild()
	return statemap.NewGroup("bedrock_door").
		Field("direction", canonical.Facing, facing.MustBuild()).
		Field("upper_block_bit", canonical.Half, boolHalf(vb(false), vb(true))).
		Field("door_hinge_bit", canonical.Hinge, hinge).
		Field("open_bit", canonical.Open, statemap.Identity()).
		DefaultCanonical(canonical.Powered, vb(false)).
		MustBuild()
}()

// bedrockColors spells light gray the old way.
var bedrockColors = func() map[string]string {
	m := same(canonical.Colors)
	delete(m, "light_gray")
	m["silver"] = "light_gray"
	return m
}()

var bedrockStoneSlabs = map[string]string{
	"smooth_stone": "stone",
	"sandstone":    "sandstone",
	"cobblestone":  "cobblestone",
	"brick":        "brick",
	"stone_brick":  "stone_brick",
	"quartz":       "quartz",
}

// revision is a set of registrations layered over an era's table from a
// given version on.
type revision[T canonical.Kind] struct {
	since version.Version
	apply func(*resolver.Table[T])
}

func applyRevisions[T canonical.Kind](t *resolver.Table[T], revs []revision[T]) {
	for _, r := range revs {
		if t.Version().AtLeast(r.since) {
			r.apply(t)
		}
	}
}

var bedrockBlockRevisions = []revision[canonical.BlockType]{
	{version.New(1, 19, 70), flattenedWool},
	{version.New(1, 20, 50), flattenedStoneAndPlanks},
}

func bedrockBlocks(t *blocks) {
	t.RegisterExtra(bedrockDefaults)

	t.Register(resolver.Group(nil, map[string]canonical.BlockType{
		"minecraft:air":         canonical.Air,
		"minecraft:cobblestone": canonical.Cobblestone,
		"minecraft:gravel":      canonical.Gravel,
		"minecraft:bedrock":     canonical.Bedrock,
		"minecraft:glass":       canonical.Glass,
		"minecraft:obsidian":    canonical.Obsidian,
		"minecraft:glowstone":   canonical.Glowstone,
	})...)
	t.Register(resolver.Group(noSnow, map[string]canonical.BlockType{
		"minecraft:grass":  canonical.GrassBlock,
		"minecraft:podzol": canonical.Podzol,
	})...)

	t.Register(
		resolver.OfState("minecraft:stone", "stone_type", ve("stone"), canonical.Stone),
		resolver.OfState("minecraft:stone", "stone_type", ve("granite"), canonical.Granite),
		resolver.OfState("minecraft:stone", "stone_type", ve("granite_smooth"), canonical.PolishedGranite),
		resolver.OfState("minecraft:stone", "stone_type", ve("diorite"), canonical.Diorite),
		resolver.OfState("minecraft:stone", "stone_type", ve("diorite_smooth"), canonical.PolishedDiorite),
		resolver.OfState("minecraft:stone", "stone_type", ve("andesite"), canonical.Andesite),
		resolver.OfState("minecraft:stone", "stone_type", ve("andesite_smooth"), canonical.PolishedAndesite),
		resolver.OfState("minecraft:dirt", "dirt_type", ve("normal"), canonical.Dirt),
		resolver.OfState("minecraft:dirt", "dirt_type", ve("coarse"), canonical.CoarseDirt),
		resolver.OfState("minecraft:sand", "sand_type", ve("normal"), canonical.Sand),
		resolver.OfState("minecraft:sand", "sand_type", ve("red"), canonical.RedSand),
	)

	t.Register(byState("minecraft:planks", "wood_type", canonical.Planks, canonical.Wood, same(canonical.Woods), nil)...)
	t.Register(byState("minecraft:wool", "color", canonical.Wool, canonical.Color, bedrockColors, nil)...)
	t.Register(byState("minecraft:log", "old_log_type", canonical.Log, canonical.Wood, same(canonical.Woods[:4]), bedrockPillar)...)
	t.Register(byState("minecraft:log2", "new_log_type", canonical.Log, canonical.Wood, same(canonical.Woods[4:]), bedrockPillar)...)
	t.Register(byState("minecraft:leaves", "old_leaf_type", canonical.Leaves, canonical.Wood, same(canonical.Woods[:4]), bedrockLeaves)...)
	t.Register(byState("minecraft:leaves2", "new_leaf_type", canonical.Leaves, canonical.Wood, same(canonical.Woods[4:]), bedrockLeaves)...)

	t.Register(resolver.Group(bedrockLiquid, map[string]canonical.BlockType{
		"minecraft:water": canonical.Water,
		"minecraft:lava":  canonical.Lava,
	})...)
	t.RegisterDuplicateInput(resolver.DecodeOnly(resolver.Group(bedrockLiquid, map[string]canonical.BlockType{
		"minecraft:flowing_water": canonical.Water,
		"minecraft:flowing_lava":  canonical.Lava,
	})...))

	t.Register(
		resolver.OfState("minecraft:torch", "torch_facing_direction", ve("top"), canonical.Torch),
		resolver.Of("minecraft:torch", canonical.WallTorch).WithGroup(bedrockTorch),
	)
	t.RegisterDuplicateInput(resolver.DecodeOnly(
		resolver.OfState("minecraft:torch", "torch_facing_direction", ve("unknown"), canonical.Torch),
	))
	for _, name := range []string{"minecraft:redstone_torch", "minecraft:unlit_redstone_torch"} {
		lit := vb(name == "minecraft:redstone_torch")
		t.Register(
			resolver.OfState(name, "torch_facing_direction", ve("top"), canonical.RedstoneTorch).WithCanonical(canonical.Lit, lit),
			resolver.Of(name, canonical.RedstoneWallTorch).WithCanonical(canonical.Lit, lit).WithGroup(bedrockTorch),
		)
		t.RegisterDuplicateInput(resolver.DecodeOnly(
			resolver.OfState(name, "torch_facing_direction", ve("unknown"), canonical.RedstoneTorch).WithCanonical(canonical.Lit, lit),
		))
	}

	t.Register(resolver.GroupBy(canonical.Furnace, canonical.Lit, bedrockCardinal, map[string]identifier.StateValue{
		"minecraft:furnace":     vb(false),
		"minecraft:lit_furnace": vb(true),
	})...)
	t.Register(resolver.GroupBy(canonical.RedstoneLamp, canonical.Lit, nil, map[string]identifier.StateValue{
		"minecraft:redstone_lamp":     vb(false),
		"minecraft:lit_redstone_lamp": vb(true),
	})...)
	t.Register(resolver.Of("minecraft:chest", canonical.Chest).WithGroup(bedrockChest))

	registerBedrockSlabs(t, "minecraft:stone_slab", "minecraft:double_stone_slab", "stone_slab_type",
		canonical.StoneSlab, canonical.StoneVariant, bedrockStoneSlabs)
	registerBedrockSlabs(t, "minecraft:wooden_slab", "minecraft:double_wooden_slab", "wood_type",
		canonical.WoodenSlab, canonical.Wood, same(canonical.Woods))
	t.RegisterDuplicateInput(resolver.DecodeOnly(
		resolver.OfState("minecraft:stone_slab", "stone_slab_type", ve("wood"), canonical.WoodenSlab).
			WithState("top_slot_bit", vb(false)).
			WithCanonical(canonical.Wood, ve("oak")).
			WithCanonical(canonical.SlabType, ve("bottom")),
		resolver.OfState("minecraft:stone_slab", "stone_slab_type", ve("wood"), canonical.WoodenSlab).
			WithState("top_slot_bit", vb(true)).
			WithCanonical(canonical.Wood, ve("oak")).
			WithCanonical(canonical.SlabType, ve("top")),
	))

	t.Register(resolver.Of("minecraft:oak_stairs", canonical.OakStairs).WithGroup(bedrockStairs))
	t.Register(resolver.Of("minecraft:wheat", canonical.Wheat).WithGroup(bedrockCrop))
	t.Register(resolver.OfState("minecraft:snow_layer", "covered_bit", vb(false), canonical.Snow).WithGroup(bedrockLayers))
	t.RegisterDuplicateInput(resolver.DecodeOnly(
		resolver.Of("minecraft:snow_layer", canonical.Snow).WithGroup(bedrockLayers),
	))
	t.Register(resolver.Of("minecraft:wooden_door", canonical.OakDoor).WithGroup(bedrockDoor))
	t.Register(resolver.Of("minecraft:kelp", canonical.Kelp).WithGroup(bedrockKelp))

	applyRevisions(t, bedrockBlockRevisions)
}

// registerBedrockSlabs registers single slabs told apart by top_slot_bit
// and double slabs under their own name.
func registerBedrockSlabs(t *blocks, single, double, state string, ty canonical.BlockType, p canonical.Property, values map[string]string) {
	for _, native := range sortedKeys(values) {
		c := ve(values[native])
		t.Register(
			resolver.OfState(single, state, ve(native), ty).
				WithState("top_slot_bit", vb(false)).
				WithCanonical(p, c).
				WithCanonical(canonical.SlabType, ve("bottom")),
			resolver.OfState(single, state, ve(native), ty).
				WithState("top_slot_bit", vb(true)).
				WithCanonical(p, c).
				WithCanonical(canonical.SlabType, ve("top")),
			resolver.OfState(double, state, ve(native), ty).
				WithCanonical(p, c).
				WithCanonical(canonical.SlabType, ve("double")),
		)
	}
}

// flattenedWool gives each wool color its own identifier.
func flattenedWool(t *blocks) {
	ms := resolver.GroupBy(canonical.Wool, canonical.Color, nil, colorNames("_wool"))
	t.RegisterOverrideOutput(ms...)
	t.RegisterDuplicateInput(resolver.DecodeOnly(ms...))
}

// flattenedStoneAndPlanks drops stone_type and wood_type for named blocks.
func flattenedStoneAndPlanks(t *blocks) {
	ms := resolver.GroupBy(canonical.Planks, canonical.Wood, nil, woodNames("_planks"))
	ms = append(ms, resolver.Group(nil, map[string]canonical.BlockType{
		"minecraft:stone":             canonical.Stone,
		"minecraft:granite":           canonical.Granite,
		"minecraft:polished_granite":  canonical.PolishedGranite,
		"minecraft:diorite":           canonical.Diorite,
		"minecraft:polished_diorite":  canonical.PolishedDiorite,
		"minecraft:andesite":          canonical.Andesite,
		"minecraft:polished_andesite": canonical.PolishedAndesite,
	})...)
	t.RegisterOverrideOutput(ms...)
	t.RegisterDuplicateInput(resolver.DecodeOnly(ms...))
}

// byState registers name once per native value of state, each fixing
// canonical property p to the paired value.
func byState[T canonical.Kind](name, state string, ty T, p canonical.Property, values map[string]string, src statemap.Source) []resolver.Mapping[T] {
	out := make([]resolver.Mapping[T], 0, len(values))
	for _, native := range sortedKeys(values) {
		out = append(out, resolver.OfState(name, state, ve(native), ty).
			WithCanonical(p, ve(values[native])).
			WithGroup(src))
	}
	return out
}

// same maps every value to itself.
func same(values []string) map[string]string {
	return lo.SliceToMap(values, func(v string) (string, string) { return v, v })
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
