package region

import (
	"sort"

	"github.com/rmmh/blockbridge/go/version"
)

// renameStep is a set of simultaneous block renames introduced at a
// DataVersion. Sourced from minecraft/datafixer/Schemas.java, which appears
// to be the single best source of truth for data-level format differences.
type renameStep struct {
	version int
	names   map[string]string
}

var renameSteps = []renameStep{
	{1474, map[string]string{
		"minecraft:purple_shulker_box": "minecraft:shulker_box",
	}},
	{1475, map[string]string{
		"minecraft:flowing_water": "minecraft:water",
		"minecraft:flowing_lava":  "minecraft:lava",
	}},
	{1480, map[string]string{
		"minecraft:blue_coral":         "minecraft:tube_coral_block",
		"minecraft:pink_coral":         "minecraft:brain_coral_block",
		"minecraft:purple_coral":       "minecraft:bubble_coral_block",
		"minecraft:red_coral":          "minecraft:fire_coral_block",
		"minecraft:yellow_coral":       "minecraft:horn_coral_block",
		"minecraft:blue_coral_plant":   "minecraft:tube_coral",
		"minecraft:pink_coral_plant":   "minecraft:brain_coral",
		"minecraft:purple_coral_plant": "minecraft:bubble_coral",
		"minecraft:red_coral_plant":    "minecraft:fire_coral",
		"minecraft:yellow_coral_plant": "minecraft:horn_coral",
		"minecraft:blue_coral_fan":     "minecraft:tube_coral_fan",
		"minecraft:pink_coral_fan":     "minecraft:brain_coral_fan",
		"minecraft:purple_coral_fan":   "minecraft:bubble_coral_fan",
		"minecraft:red_coral_fan":      "minecraft:fire_coral_fan",
		"minecraft:yellow_coral_fan":   "minecraft:horn_coral_fan",
		"minecraft:blue_dead_coral":    "minecraft:dead_tube_coral",
		"minecraft:pink_dead_coral":    "minecraft:dead_brain_coral",
		"minecraft:purple_dead_coral":  "minecraft:dead_bubble_coral",
		"minecraft:red_dead_coral":     "minecraft:dead_fire_coral",
		"minecraft:yellow_dead_coral":  "minecraft:dead_horn_coral",
	}},
	{1484, map[string]string{
		"minecraft:sea_grass":      "minecraft:seagrass",
		"minecraft:tall_sea_grass": "minecraft:tall_seagrass",
	}},
	{1487, map[string]string{
		"minecraft:prismarine_bricks_slab":   "minecraft:prismarine_brick_slab",
		"minecraft:prismarine_bricks_stairs": "minecraft:prismarine_brick_stairs",
	}},
	{1488, map[string]string{
		"minecraft:kelp_top": "minecraft:kelp",
		"minecraft:kelp":     "minecraft:kelp_plant",
	}},
	{1490, map[string]string{
		"minecraft:melon_block": "minecraft:melon",
	}},
	{1510, map[string]string{
		"minecraft:portal":                 "minecraft:nether_portal",
		"minecraft:oak_bark":               "minecraft:oak_wood",
		"minecraft:spruce_bark":            "minecraft:spruce_wood",
		"minecraft:birch_bark":             "minecraft:birch_wood",
		"minecraft:jungle_bark":            "minecraft:jungle_wood",
		"minecraft:acacia_bark":            "minecraft:acacia_wood",
		"minecraft:dark_oak_bark":          "minecraft:dark_oak_wood",
		"minecraft:stripped_oak_bark":      "minecraft:stripped_oak_wood",
		"minecraft:stripped_spruce_bark":   "minecraft:stripped_spruce_wood",
		"minecraft:stripped_birch_bark":    "minecraft:stripped_birch_wood",
		"minecraft:stripped_jungle_bark":   "minecraft:stripped_jungle_wood",
		"minecraft:stripped_acacia_bark":   "minecraft:stripped_acacia_wood",
		"minecraft:stripped_dark_oak_bark": "minecraft:stripped_dark_oak_wood",
		"minecraft:mob_spawner":            "minecraft:spawner",
	}},
	{1515, map[string]string{
		"minecraft:tube_coral_fan":   "minecraft:tube_coral_wall_fan",
		"minecraft:brain_coral_fan":  "minecraft:brain_coral_wall_fan",
		"minecraft:bubble_coral_fan": "minecraft:bubble_coral_wall_fan",
		"minecraft:fire_coral_fan":   "minecraft:fire_coral_wall_fan",
		"minecraft:horn_coral_fan":   "minecraft:horn_coral_wall_fan",
	}},
	{1802, map[string]string{
		"minecraft:stone_slab": "minecraft:smooth_stone_slab",
		"minecraft:sign":       "minecraft:oak_sign",
		"minecraft:wall_sign":  "minecraft:oak_wall_sign",
	}},
	{2209, map[string]string{
		"minecraft:bee_hive": "minecraft:beehive",
	}},
	{2508, map[string]string{
		"minecraft:warped_fungi":  "minecraft:warped_fungus",
		"minecraft:crimson_fungi": "minecraft:crimson_fungus",
	}},
	// TODO: figure out 2527's BitStorageAlignFix
	{2528, map[string]string{
		"minecraft:soul_fire_torch":      "minecraft:soul_torch",
		"minecraft:soul_fire_wall_torch": "minecraft:soul_wall_torch",
		"minecraft:soul_fire_lantern":    "minecraft:soul_lantern",
	}},
	// Technically this should be done based on the contents.
	{2679, map[string]string{
		"minecraft:cauldron": "minecraft:water_cauldron",
	}},
	{2680, map[string]string{
		"minecraft:grass_path": "minecraft:dirt_path",
	}},
	{2690, map[string]string{
		"minecraft:weathered_copper_block":                    "minecraft:oxidized_copper_block",
		"minecraft:semi_weathered_copper_block":               "minecraft:weathered_copper_block",
		"minecraft:lightly_weathered_copper_block":            "minecraft:exposed_copper_block",
		"minecraft:weathered_cut_copper":                      "minecraft:oxidized_cut_copper",
		"minecraft:semi_weathered_cut_copper":                 "minecraft:weathered_cut_copper",
		"minecraft:lightly_weathered_cut_copper":              "minecraft:exposed_cut_copper",
		"minecraft:weathered_cut_copper_stairs":               "minecraft:oxidized_cut_copper_stairs",
		"minecraft:semi_weathered_cut_copper_stairs":          "minecraft:weathered_cut_copper_stairs",
		"minecraft:lightly_weathered_cut_copper_stairs":       "minecraft:exposed_cut_copper_stairs",
		"minecraft:weathered_cut_copper_slab":                 "minecraft:oxidized_cut_copper_slab",
		"minecraft:semi_weathered_cut_copper_slab":            "minecraft:weathered_cut_copper_slab",
		"minecraft:lightly_weathered_cut_copper_slab":         "minecraft:exposed_cut_copper_slab",
		"minecraft:waxed_semi_weathered_copper":               "minecraft:waxed_weathered_copper",
		"minecraft:waxed_lightly_weathered_copper":            "minecraft:waxed_exposed_copper",
		"minecraft:waxed_semi_weathered_cut_copper":           "minecraft:waxed_weathered_cut_copper",
		"minecraft:waxed_lightly_weathered_cut_copper":        "minecraft:waxed_exposed_cut_copper",
		"minecraft:waxed_semi_weathered_cut_copper_stairs":    "minecraft:waxed_weathered_cut_copper_stairs",
		"minecraft:waxed_lightly_weathered_cut_copper_stairs": "minecraft:waxed_exposed_cut_copper_stairs",
		"minecraft:waxed_semi_weathered_cut_copper_slab":      "minecraft:waxed_weathered_cut_copper_slab",
		"minecraft:waxed_lightly_weathered_cut_copper_slab":   "minecraft:waxed_exposed_cut_copper_slab",
	}},
	{2691, map[string]string{
		"minecraft:waxed_copper":           "minecraft:waxed_copper_block",
		"minecraft:oxidized_copper_block":  "minecraft:oxidized_copper",
		"minecraft:weathered_copper_block": "minecraft:weathered_copper",
		"minecraft:exposed_copper_block":   "minecraft:exposed_copper",
	}},
	{2696, map[string]string{
		"minecraft:grimstone":                 "minecraft:deepslate",
		"minecraft:grimstone_slab":            "minecraft:cobbled_deepslate_slab",
		"minecraft:grimstone_stairs":          "minecraft:cobbled_deepslate_stairs",
		"minecraft:grimstone_wall":            "minecraft:cobbled_deepslate_wall",
		"minecraft:polished_grimstone":        "minecraft:polished_deepslate",
		"minecraft:polished_grimstone_slab":   "minecraft:polished_deepslate_slab",
		"minecraft:polished_grimstone_stairs": "minecraft:polished_deepslate_stairs",
		"minecraft:polished_grimstone_wall":   "minecraft:polished_deepslate_wall",
		"minecraft:grimstone_tiles":           "minecraft:deepslate_tiles",
		"minecraft:grimstone_tile_slab":       "minecraft:deepslate_tile_slab",
		"minecraft:grimstone_tile_stairs":     "minecraft:deepslate_tile_stairs",
		"minecraft:grimstone_tile_wall":       "minecraft:deepslate_tile_wall",
		"minecraft:grimstone_bricks":          "minecraft:deepslate_bricks",
		"minecraft:grimstone_brick_slab":      "minecraft:deepslate_brick_slab",
		"minecraft:grimstone_brick_stairs":    "minecraft:deepslate_brick_stairs",
		"minecraft:grimstone_brick_wall":      "minecraft:deepslate_brick_wall",
		"minecraft:chiseled_grimstone":        "minecraft:chiseled_deepslate",
	}},
	{2700, map[string]string{
		"minecraft:cave_vines_head": "minecraft:cave_vines",
		"minecraft:cave_vines_body": "minecraft:cave_vines_plant",
	}},
	{2717, map[string]string{
		"minecraft:azalea_leaves_flowers": "minecraft:flowering_azalea_leaves",
	}},
	{3692, map[string]string{
		"minecraft:grass": "minecraft:short_grass",
	}},
	{4541, map[string]string{
		"minecraft:chain": "minecraft:iron_chain",
	}},
}

// Migrator renames palette entries written by older game versions to the
// spelling used at a target DataVersion. Renames chain across steps, so a
// chunk several versions old ends up with the newest name. A nil Migrator
// renames nothing.
type Migrator struct {
	target int
	since  []int
	// composed[i] holds every rename that applies to chunks older than since[i].
	composed []map[string]string
}

func NewMigrator(target int) *Migrator {
	var steps []renameStep
	for _, s := range renameSteps {
		if s.version <= target {
			steps = append(steps, s)
		}
	}
	m := &Migrator{
		target:   target,
		since:    make([]int, len(steps)),
		composed: make([]map[string]string, len(steps)),
	}
	var later map[string]string
	for i := len(steps) - 1; i >= 0; i-- {
		cur := make(map[string]string, len(steps[i].names)+len(later))
		for from, to := range later {
			cur[from] = to
		}
		for from, to := range steps[i].names {
			if final, ok := later[to]; ok {
				to = final
			}
			if to == from {
				delete(cur, from)
				continue
			}
			cur[from] = to
		}
		m.since[i] = steps[i].version
		m.composed[i] = cur
		later = cur
	}
	return m
}

// ForVersion builds a Migrator targeting the DataVersion of a Java release.
func ForVersion(v version.Version) *Migrator {
	return NewMigrator(DataVersion(v))
}

func (m *Migrator) Target() int {
	if m == nil {
		return 0
	}
	return m.target
}

// Renames is the rename table for a chunk written at DataVersion from. The
// returned map must not be modified.
func (m *Migrator) Renames(from int) map[string]string {
	if m == nil {
		return nil
	}
	i := sort.SearchInts(m.since, from+1)
	if i == len(m.since) {
		return nil
	}
	return m.composed[i]
}

func (m *Migrator) Rename(from int, name string) string {
	if to, ok := m.Renames(from)[name]; ok {
		return to
	}
	return name
}

var dataVersions = []struct {
	release version.Version
	data    int
}{
	{version.New(1, 13, 0), 1519},
	{version.New(1, 13, 1), 1628},
	{version.New(1, 13, 2), 1631},
	{version.New(1, 14, 0), 1952},
	{version.New(1, 14, 4), 1976},
	{version.New(1, 15, 0), 2225},
	{version.New(1, 15, 2), 2230},
	{version.New(1, 16, 0), 2566},
	{version.New(1, 16, 5), 2586},
	{version.New(1, 17, 0), 2724},
	{version.New(1, 17, 1), 2730},
	{version.New(1, 18, 0), 2860},
	{version.New(1, 18, 2), 2975},
	{version.New(1, 19, 0), 3105},
	{version.New(1, 19, 4), 3337},
	{version.New(1, 20, 0), 3463},
	{version.New(1, 20, 2), 3578},
	{version.New(1, 20, 3), 3698},
	{version.New(1, 20, 5), 3837},
	{version.New(1, 21, 0), 3953},
	{version.New(1, 21, 4), 4189},
	{version.New(1, 21, 9), 4554},
}

// DataVersion is the chunk DataVersion written by a Java release, or 0 for
// releases older than the flattening, whose chunks carry numeric ids.
func DataVersion(v version.Version) int {
	i := sort.Search(len(dataVersions), func(i int) bool {
		return v.Less(dataVersions[i].release)
	})
	if i == 0 {
		return 0
	}
	return dataVersions[i-1].data
}
