package mappings

import (
	"strings"

	"github.com/rmmh/blockbridge/go/identifier"
)

// legacyBlockIDs is the pre-1.13 numeric block id table, by id. Gaps are
// empty.
var legacyBlockIDs = [256]string{
	// 0
	"air", "stone", "grass", "dirt", "cobblestone", "planks", "sapling", "bedrock",
	// 8
	"flowing_water", "water", "flowing_lava", "lava", "sand", "gravel", "gold_ore", "iron_ore",
	// 16
	"coal_ore", "log", "leaves", "sponge", "glass", "lapis_ore", "lapis_block", "dispenser",
	// 24
	"sandstone", "noteblock", "bed", "golden_rail", "detector_rail", "sticky_piston", "web", "tallgrass",
	// 32
	"deadbush", "piston", "piston_head", "wool", "piston_extension", "yellow_flower", "red_flower", "brown_mushroom",
	// 40
	"red_mushroom", "gold_block", "iron_block", "double_stone_slab", "stone_slab", "brick_block", "tnt", "bookshelf",
	// 48
	"mossy_cobblestone", "obsidian", "torch", "fire", "mob_spawner", "oak_stairs", "chest", "redstone_wire",
	// 56
	"diamond_ore", "diamond_block", "crafting_table", "wheat", "farmland", "furnace", "lit_furnace", "standing_sign",
	// 64
	"wooden_door", "ladder", "rail", "stone_stairs", "wall_sign", "lever", "stone_pressure_plate", "iron_door",
	// 72
	"wooden_pressure_plate", "redstone_ore", "lit_redstone_ore", "unlit_redstone_torch", "redstone_torch", "stone_button", "snow_layer", "ice",
	// 80
	"snow", "cactus", "clay", "reeds", "jukebox", "fence", "pumpkin", "netherrack",
	// 88
	"soul_sand", "glowstone", "portal", "lit_pumpkin", "cake", "unpowered_repeater", "powered_repeater", "stained_glass",
	// 96
	"trapdoor", "monster_egg", "stonebrick", "brown_mushroom_block", "red_mushroom_block", "iron_bars", "glass_pane", "melon_block",
	// 104
	"pumpkin_stem", "melon_stem", "vine", "fence_gate", "brick_stairs", "stone_brick_stairs", "mycelium", "waterlily",
	// 112
	"nether_brick", "nether_brick_fence", "nether_brick_stairs", "nether_wart", "enchanting_table", "brewing_stand", "cauldron", "end_portal",
	// 120
	"end_portal_frame", "end_stone", "dragon_egg", "redstone_lamp", "lit_redstone_lamp", "double_wooden_slab", "wooden_slab", "cocoa",
	// 128
	"sandstone_stairs", "emerald_ore", "ender_chest", "tripwire_hook", "tripwire", "emerald_block", "spruce_stairs", "birch_stairs",
	// 136
	"jungle_stairs", "command_block", "beacon", "cobblestone_wall", "flower_pot", "carrots", "potatoes", "wooden_button",
	// 144
	"skull", "anvil", "trapped_chest", "light_weighted_pressure_plate", "heavy_weighted_pressure_plate", "unpowered_comparator", "powered_comparator", "daylight_detector",
	// 152
	"redstone_block", "quartz_ore", "hopper", "quartz_block", "quartz_stairs", "activator_rail", "dropper", "stained_hardened_clay",
	// 160
	"stained_glass_pane", "leaves2", "log2", "acacia_stairs", "dark_oak_stairs", "slime", "barrier", "iron_trapdoor",
	// 168
	"prismarine", "sea_lantern", "hay_block", "carpet", "hardened_clay", "coal_block", "packed_ice", "double_plant",
	// 176
	"standing_banner", "wall_banner", "daylight_detector_inverted", "red_sandstone", "red_sandstone_stairs", "double_stone_slab2", "stone_slab2", "spruce_fence_gate",
	// 184
	"birch_fence_gate", "jungle_fence_gate", "dark_oak_fence_gate", "acacia_fence_gate", "spruce_fence", "birch_fence", "jungle_fence", "dark_oak_fence",
	// 192
	"acacia_fence", "spruce_door", "birch_door", "jungle_door", "acacia_door", "dark_oak_door", "end_rod", "chorus_plant",
	// 200
	"chorus_flower", "purpur_block", "purpur_pillar", "purpur_stairs", "purpur_double_slab", "purpur_slab", "end_bricks", "beetroots",
	// 208
	"grass_path", "end_gateway", "repeating_command_block", "chain_command_block", "frosted_ice", "magma", "nether_wart_block", "red_nether_brick",
	// 216
	"bone_block", "structure_void", "observer", "white_shulker_box", "orange_shulker_box", "magenta_shulker_box", "light_blue_shulker_box", "yellow_shulker_box",
	// 224
	"lime_shulker_box", "pink_shulker_box", "gray_shulker_box", "silver_shulker_box", "cyan_shulker_box", "purple_shulker_box", "blue_shulker_box", "brown_shulker_box",
	// 232
	"green_shulker_box", "red_shulker_box", "black_shulker_box", "white_glazed_terracotta", "orange_glazed_terracotta", "magenta_glazed_terracotta", "light_blue_glazed_terracotta", "yellow_glazed_terracotta",
	// 240
	"lime_glazed_terracotta", "pink_glazed_terracotta", "gray_glazed_terracotta", "silver_glazed_terracotta", "cyan_glazed_terracotta", "purple_glazed_terracotta", "blue_glazed_terracotta", "brown_glazed_terracotta",
	// 248
	"green_glazed_terracotta", "red_glazed_terracotta", "black_glazed_terracotta", "concrete", "concrete_powder", "", "", "structure_block",
}

var legacyBlockIDsByName = func() map[string]uint8 {
	m := make(map[string]uint8, len(legacyBlockIDs))
	for id, name := range legacyBlockIDs {
		if name != "" {
			m[name] = uint8(id)
		}
	}
	return m
}()

// LegacyBlockName is the namespaced identifier for a pre-1.13 block id.
func LegacyBlockName(id uint8) (string, bool) {
	name := legacyBlockIDs[id]
	if name == "" {
		return "", false
	}
	return identifier.VanillaNamespace + ":" + name, true
}

// LegacyBlockID is the pre-1.13 block id for name. A missing namespace is
// taken as vanilla.
func LegacyBlockID(name string) (uint8, bool) {
	if ns, path, ok := strings.Cut(name, ":"); ok {
		if ns != identifier.VanillaNamespace {
			return 0, false
		}
		name = path
	}
	id, ok := legacyBlockIDsByName[name]
	return id, ok
}
