package mappings

import (
	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/statemap"
)

// BedrockLegacyState is the packed data field of pre-1.13 Bedrock palettes.
const BedrockLegacyState = "val"

type blocks = resolver.Table[canonical.BlockType]

// legacyDefaults applies to every block of a packed-data era: missing data
// reads as 0, and nothing is waterlogged.
func legacyDefaults(f string) *statemap.Group {
	return statemap.NewGroup("legacy_defaults").
		DefaultNative(f, vi(0)).
		DefaultCanonical(canonical.Waterlogged, vb(false)).
		MustBuild()
}

func legacyFacing(f string) *statemap.Group {
	return statemap.NewGroup("legacy_facing").Field(f, canonical.Facing, horizontalFacing()).MustBuild()
}

// legacyTorchFacing covers wall torches, data 1..4. Data 5 and the unused
// values are standing torches and are registered separately.
func legacyTorchFacing(f string) *statemap.Group {
	return statemap.NewGroup("legacy_torch_facing").
		Field(f, canonical.Facing, statemap.NewTable(1, 1).
			MapOne(vi(1), ve("east")).
			MapOne(vi(2), ve("west")).
			MapOne(vi(3), ve("south")).
			MapOne(vi(4), ve("north")).
			MustBuild()).
		MustBuild()
}

// legacyStairs packs facing in the low two bits and the upside-down flag
// in bit 2.
func legacyStairs(f string) *statemap.Group {
	tbl := statemap.NewTable(1, 2)
	for h, half := range []string{"bottom", "top"} {
		for d, facing := range stairFacing {
			tbl.Map(statemap.T(vi(d|h<<2)), statemap.T(ve(facing), ve(half)))
		}
	}
	return statemap.NewGroup("legacy_stairs").
		Split(f, []canonical.Property{canonical.Facing, canonical.Half}, tbl.MustBuild()).
		MustBuild()
}

func legacySnowLayers(f string) *statemap.Group {
	tbl := statemap.NewTable(1, 1)
	for l := 0; l < 8; l++ {
		tbl.MapOne(vi(l), vi(l+1))
	}
	return statemap.NewGroup("legacy_snow").Field(f, canonical.Layers, tbl.MustBuild()).MustBuild()
}

// legacyDoor decodes the split door encoding. The lower half carries facing
// in bits 0-1 and open in bit 2; the upper half sets bit 3 and carries the
// hinge in bit 0 and powered in bit 1. Each half only round-trips the
// states it stores, the rest encode to the half's plain value.
func legacyDoor(f string) *statemap.Group {
	tbl := statemap.NewTable(1, 4)
	for d, facing := range doorFacing {
		for o, open := range []bool{false, true} {
			lower := statemap.T(vi(d | o<<2))
			tbl.Map(lower, statemap.T(ve("bottom"), ve(facing), vb(open), ve("left")))
			tbl.EncodeOnly(statemap.T(ve("bottom"), ve(facing), vb(open), ve("right")), lower)
			for h, hinge := range []string{"left", "right"} {
				upper := statemap.T(vi(8 | h))
				c := statemap.T(ve("top"), ve(facing), vb(open), ve(hinge))
				if facing == "north" && !open {
					tbl.Map(upper, c)
					tbl.DecodeOnly(statemap.T(vi(8|h|2)), c)
				} else {
					tbl.EncodeOnly(c, upper)
				}
			}
		}
	}
	return statemap.NewGroup("legacy_door").
		Split(f, []canonical.Property{canonical.Half, canonical.Facing, canonical.Open, canonical.Hinge}, tbl.MustBuild()).
		DefaultCanonical(canonical.Powered, vb(false)).
		MustBuild()
}

type slabVariant struct {
	variant string
	data    int
}

// stoneSlabData lists packed slab variants. Java and Bedrock disagree on
// which of 6 and 7 is quartz.
func stoneSlabData(quartz int) []slabVariant {
	return []slabVariant{
		{"stone", 0},
		{"sandstone", 1},
		{"cobblestone", 3},
		{"brick", 4},
		{"stone_brick", 5},
		{"quartz", quartz},
	}
}

func legacyLogRows(woods []string) (rows, bark []row) {
	for w, wood := range woods {
		for a, axis := range []string{"y", "x", "z"} {
			rows = append(rows, flat(w|a<<2, canonical.Log, canonical.Wood, wood, canonical.Axis, axis))
		}
		bark = append(bark, flat(w|12, canonical.Log, canonical.Wood, wood, canonical.Axis, "y"))
	}
	return rows, bark
}

// legacyLeafRows packs the wood in bits 0-1 and no-decay in bit 2. Bit 3
// is a transient decay check flag.
func legacyLeafRows(woods []string) (rows, checking []row) {
	for w, wood := range woods {
		for p, persistent := range []bool{false, true} {
			rows = append(rows, flat(w|p<<2, canonical.Leaves, canonical.Wood, wood, canonical.Persistent, persistent))
			checking = append(checking, flat(w|p<<2|8, canonical.Leaves, canonical.Wood, wood, canonical.Persistent, persistent))
		}
	}
	return rows, checking
}

// legacyBlocks registers the packed-data block table shared by Java before
// 1.13 and Bedrock before 1.13. f names the data field.
func legacyBlocks(f string, quartzSlab int) func(*blocks) {
	return func(t *blocks) {
		flatten := func(name string, rows ...row) []resolver.Mapping[canonical.BlockType] {
			return resolver.Flatten(name, f, rows)
		}
		decodeOnly := func(name string, rows ...row) {
			t.RegisterDuplicateInput(resolver.DecodeOnly(flatten(name, rows...)...))
		}

		t.RegisterExtra(legacyDefaults(f))

		t.Register(resolver.Group(nil, map[string]canonical.BlockType{
			"minecraft:air":         canonical.Air,
			"minecraft:cobblestone": canonical.Cobblestone,
			"minecraft:gravel":      canonical.Gravel,
			"minecraft:bedrock":     canonical.Bedrock,
			"minecraft:glass":       canonical.Glass,
			"minecraft:obsidian":    canonical.Obsidian,
			"minecraft:glowstone":   canonical.Glowstone,
		})...)

		t.Register(flatten("minecraft:stone",
			flat(0, canonical.Stone),
			flat(1, canonical.Granite),
			flat(2, canonical.PolishedGranite),
			flat(3, canonical.Diorite),
			flat(4, canonical.PolishedDiorite),
			flat(5, canonical.Andesite),
			flat(6, canonical.PolishedAndesite),
		)...)
		t.Register(resolver.Of("minecraft:grass", canonical.GrassBlock).WithGroup(noSnow))
		t.Register(flatten("minecraft:dirt",
			flat(0, canonical.Dirt),
			flat(1, canonical.CoarseDirt),
		)...)
		t.Register(resolver.OfState("minecraft:dirt", f, vi(2), canonical.Podzol).WithGroup(noSnow))
		t.Register(flatten("minecraft:sand",
			flat(0, canonical.Sand),
			flat(1, canonical.RedSand),
		)...)

		var planks, wool []row
		for w, wood := range canonical.Woods {
			planks = append(planks, flat(w, canonical.Planks, canonical.Wood, wood))
		}
		for c, color := range canonical.Colors {
			wool = append(wool, flat(c, canonical.Wool, canonical.Color, color))
		}
		t.Register(flatten("minecraft:planks", planks...)...)
		t.Register(flatten("minecraft:wool", wool...)...)

		logs, bark := legacyLogRows(canonical.Woods[:4])
		logs2, bark2 := legacyLogRows(canonical.Woods[4:])
		t.Register(flatten("minecraft:log", logs...)...)
		t.Register(flatten("minecraft:log2", logs2...)...)
		decodeOnly("minecraft:log", bark...)
		decodeOnly("minecraft:log2", bark2...)

		leaves, checking := legacyLeafRows(canonical.Woods[:4])
		leaves2, checking2 := legacyLeafRows(canonical.Woods[4:])
		t.Register(flatten("minecraft:leaves", leaves...)...)
		t.Register(flatten("minecraft:leaves2", leaves2...)...)
		decodeOnly("minecraft:leaves", checking...)
		decodeOnly("minecraft:leaves2", checking2...)

		level := statemap.NewGroup("legacy_level").Field(f, canonical.Level, statemap.Identity()).MustBuild()
		t.Register(resolver.Of("minecraft:water", canonical.Water).WithGroup(level))
		t.Register(resolver.Of("minecraft:lava", canonical.Lava).WithGroup(level))
		t.RegisterDuplicateInput(resolver.DecodeOnly(
			resolver.Of("minecraft:flowing_water", canonical.Water).WithGroup(level),
			resolver.Of("minecraft:flowing_lava", canonical.Lava).WithGroup(level),
		))
		// Kelp postdates packed data; it is written as the water it grows in.
		t.RegisterDuplicateOutput(resolver.EncodeOnly(
			resolver.OfState("minecraft:water", f, vi(0), canonical.Kelp),
		))

		torchFacing := legacyTorchFacing(f)
		t.Register(resolver.OfState("minecraft:torch", f, vi(5), canonical.Torch))
		t.Register(resolver.Of("minecraft:torch", canonical.WallTorch).WithGroup(torchFacing))
		decodeOnly("minecraft:torch",
			flat(0, canonical.Torch),
			flat(6, canonical.Torch),
			flat(7, canonical.Torch),
		)
		for _, rt := range []struct {
			name string
			lit  bool
		}{
			{"minecraft:redstone_torch", true},
			{"minecraft:unlit_redstone_torch", false},
		} {
			name, lit := rt.name, rt.lit
			t.Register(resolver.OfState(name, f, vi(5), canonical.RedstoneTorch).WithCanonical(canonical.Lit, vb(lit)))
			t.Register(resolver.Of(name, canonical.RedstoneWallTorch).WithCanonical(canonical.Lit, vb(lit)).WithGroup(torchFacing))
			decodeOnly(name,
				flat(0, canonical.RedstoneTorch, canonical.Lit, lit),
				flat(6, canonical.RedstoneTorch, canonical.Lit, lit),
				flat(7, canonical.RedstoneTorch, canonical.Lit, lit),
			)
		}

		facing := legacyFacing(f)
		t.Register(resolver.GroupBy(canonical.Furnace, canonical.Lit, facing, map[string]identifier.StateValue{
			"minecraft:furnace":     vb(false),
			"minecraft:lit_furnace": vb(true),
		})...)
		t.Register(resolver.Of("minecraft:chest", canonical.Chest).WithGroup(facing))
		t.Register(resolver.GroupBy(canonical.RedstoneLamp, canonical.Lit, nil, map[string]identifier.StateValue{
			"minecraft:redstone_lamp":     vb(false),
			"minecraft:lit_redstone_lamp": vb(true),
		})...)

		var slabs, doubles []row
		for _, sv := range stoneSlabData(quartzSlab) {
			variant, d := sv.variant, sv.data
			slabs = append(slabs,
				flat(d, canonical.StoneSlab, canonical.StoneVariant, variant, canonical.SlabType, "bottom"),
				flat(d|8, canonical.StoneSlab, canonical.StoneVariant, variant, canonical.SlabType, "top"))
			doubles = append(doubles, flat(d, canonical.StoneSlab, canonical.StoneVariant, variant, canonical.SlabType, "double"))
		}
		t.Register(flatten("minecraft:stone_slab", slabs...)...)
		t.Register(flatten("minecraft:double_stone_slab", doubles...)...)
		// Smooth double slabs and the petrified oak slab have no canonical
		// form of their own.
		decodeOnly("minecraft:double_stone_slab",
			flat(8, canonical.StoneSlab, canonical.StoneVariant, "stone", canonical.SlabType, "double"),
			flat(9, canonical.StoneSlab, canonical.StoneVariant, "sandstone", canonical.SlabType, "double"),
		)
		decodeOnly("minecraft:stone_slab",
			flat(2, canonical.WoodenSlab, canonical.Wood, "oak", canonical.SlabType, "bottom"),
			flat(10, canonical.WoodenSlab, canonical.Wood, "oak", canonical.SlabType, "top"),
		)

		var wslabs, wdoubles []row
		for w, wood := range canonical.Woods {
			wslabs = append(wslabs,
				flat(w, canonical.WoodenSlab, canonical.Wood, wood, canonical.SlabType, "bottom"),
				flat(w|8, canonical.WoodenSlab, canonical.Wood, wood, canonical.SlabType, "top"))
			wdoubles = append(wdoubles, flat(w, canonical.WoodenSlab, canonical.Wood, wood, canonical.SlabType, "double"))
		}
		t.Register(flatten("minecraft:wooden_slab", wslabs...)...)
		t.Register(flatten("minecraft:double_wooden_slab", wdoubles...)...)

		t.Register(resolver.Of("minecraft:oak_stairs", canonical.OakStairs).WithGroup(legacyStairs(f)))
		t.Register(resolver.Of("minecraft:wheat", canonical.Wheat).
			WithGroup(statemap.NewGroup("legacy_age").Field(f, canonical.Age, statemap.Identity()).MustBuild()))
		t.Register(resolver.Of("minecraft:snow_layer", canonical.Snow).WithGroup(legacySnowLayers(f)))
		t.Register(resolver.Of("minecraft:wooden_door", canonical.OakDoor).WithGroup(legacyDoor(f)))
	}
}
