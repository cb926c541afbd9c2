package canonical

import (
	"fmt"

	"github.com/pkg/errors"
)

type ItemType uint16

const (
	ItemInvalid ItemType = iota
	ItemAir
	ItemStone
	ItemDirt
	ItemStick
	ItemCoal
	ItemCharcoal
	ItemDiamond
	ItemIronIngot
	ItemWool
	ItemTorch
	ItemApple
	ItemGoldenApple
	ItemEnchantedGoldenApple
	ItemPlanks
	numItemTypes
)

var itemNames = [numItemTypes]string{
	ItemInvalid:              "invalid",
	ItemAir:                  "air",
	ItemStone:                "stone",
	ItemDirt:                 "dirt",
	ItemStick:                "stick",
	ItemCoal:                 "coal",
	ItemCharcoal:             "charcoal",
	ItemDiamond:              "diamond",
	ItemIronIngot:            "iron_ingot",
	ItemWool:                 "wool",
	ItemTorch:                "torch",
	ItemApple:                "apple",
	ItemGoldenApple:          "golden_apple",
	ItemEnchantedGoldenApple: "enchanted_golden_apple",
	ItemPlanks:               "planks",
}

var itemsByName = func() map[string]ItemType {
	m := make(map[string]ItemType, numItemTypes)
	for t := ItemAir; t < numItemTypes; t++ {
		m[itemNames[t]] = t
	}
	return m
}()

func (t ItemType) String() string {
	if t < numItemTypes {
		return itemNames[t]
	}
	return fmt.Sprintf("item(%d)", uint16(t))
}

func ParseItemType(s string) (ItemType, error) {
	if t, ok := itemsByName[s]; ok {
		return t, nil
	}
	return ItemInvalid, errors.Errorf("unknown item type %q", s)
}

func AllItemTypes() []ItemType {
	out := make([]ItemType, 0, numItemTypes-1)
	for t := ItemAir; t < numItemTypes; t++ {
		out = append(out, t)
	}
	return out
}

func (t ItemType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ItemType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseItemType(string(b))
	return err
}
