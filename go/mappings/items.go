package mappings

import (
	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/statemap"
	"github.com/rmmh/blockbridge/go/version"
)

// DamageState carries the damage value of packed items.
const DamageState = "damage"

type items = resolver.Table[canonical.ItemType]

var damageDefaults = statemap.NewGroup("damage_defaults").DefaultNative(DamageState, vi(0)).MustBuild()

func itemRow(v int, t canonical.ItemType, kv ...any) resolver.FlatEntry[canonical.ItemType] {
	return resolver.Flat(int32(v), t, props(kv...))
}

func woolItems() []resolver.FlatEntry[canonical.ItemType] {
	rows := make([]resolver.FlatEntry[canonical.ItemType], len(canonical.Colors))
	for c, color := range canonical.Colors {
		rows[c] = itemRow(c, canonical.ItemWool, canonical.Color, color)
	}
	return rows
}

func plankItems() []resolver.FlatEntry[canonical.ItemType] {
	rows := make([]resolver.FlatEntry[canonical.ItemType], len(canonical.Woods))
	for w, wood := range canonical.Woods {
		rows[w] = itemRow(w, canonical.ItemPlanks, canonical.Wood, wood)
	}
	return rows
}

var commonItems = map[string]canonical.ItemType{
	"minecraft:air":        canonical.ItemAir,
	"minecraft:stone":      canonical.ItemStone,
	"minecraft:dirt":       canonical.ItemDirt,
	"minecraft:stick":      canonical.ItemStick,
	"minecraft:diamond":    canonical.ItemDiamond,
	"minecraft:iron_ingot": canonical.ItemIronIngot,
	"minecraft:torch":      canonical.ItemTorch,
	"minecraft:apple":      canonical.ItemApple,
}

func javaLegacyItems(t *items) {
	t.RegisterExtra(damageDefaults)
	t.Register(resolver.Group(nil, commonItems)...)
	t.Register(resolver.Flatten("minecraft:coal", DamageState, []resolver.FlatEntry[canonical.ItemType]{
		itemRow(0, canonical.ItemCoal),
		itemRow(1, canonical.ItemCharcoal),
	})...)
	t.Register(resolver.Flatten("minecraft:golden_apple", DamageState, []resolver.FlatEntry[canonical.ItemType]{
		itemRow(0, canonical.ItemGoldenApple),
		itemRow(1, canonical.ItemEnchantedGoldenApple),
	})...)
	t.Register(resolver.Flatten("minecraft:wool", DamageState, woolItems())...)
	t.Register(resolver.Flatten("minecraft:planks", DamageState, plankItems())...)
}

func javaItems(t *items) {
	t.Register(resolver.Group(nil, commonItems)...)
	t.Register(resolver.Group(nil, map[string]canonical.ItemType{
		"minecraft:coal":                   canonical.ItemCoal,
		"minecraft:charcoal":               canonical.ItemCharcoal,
		"minecraft:golden_apple":           canonical.ItemGoldenApple,
		"minecraft:enchanted_golden_apple": canonical.ItemEnchantedGoldenApple,
	})...)
	t.Register(resolver.GroupBy(canonical.ItemWool, canonical.Color, nil, colorNames("_wool"))...)
	t.Register(resolver.GroupBy(canonical.ItemPlanks, canonical.Wood, nil, woodNames("_planks"))...)
}

var bedrockItemRevisions = []revision[canonical.ItemType]{
	{version.New(1, 19, 70), func(t *items) {
		ms := resolver.GroupBy(canonical.ItemWool, canonical.Color, nil, colorNames("_wool"))
		t.RegisterOverrideOutput(ms...)
		t.RegisterDuplicateInput(resolver.DecodeOnly(ms...))
	}},
}

func bedrockItems(t *items) {
	t.RegisterExtra(damageDefaults)
	t.Register(resolver.Group(nil, commonItems)...)
	t.Register(resolver.Group(nil, map[string]canonical.ItemType{
		"minecraft:coal":           canonical.ItemCoal,
		"minecraft:charcoal":       canonical.ItemCharcoal,
		"minecraft:golden_apple":   canonical.ItemGoldenApple,
		"minecraft:appleenchanted": canonical.ItemEnchantedGoldenApple,
	})...)
	// Old worlds store charcoal as damaged coal.
	t.RegisterDuplicateInput(resolver.DecodeOnly(
		resolver.OfState("minecraft:coal", DamageState, vi(1), canonical.ItemCharcoal),
	))
	t.Register(resolver.Flatten("minecraft:wool", DamageState, woolItems())...)
	t.Register(resolver.Flatten("minecraft:planks", DamageState, plankItems())...)
	applyRevisions(t, bedrockItemRevisions)
}
