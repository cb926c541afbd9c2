package canonical

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is satisfied by the canonical type enumerations the resolver is
// instantiated for.
type Kind interface {
	comparable
	fmt.Stringer
}

type BlockType uint16

const (
	BlockInvalid BlockType = iota
	Air
	Stone
	Granite
	PolishedGranite
	Diorite
	PolishedDiorite
	Andesite
	PolishedAndesite
	GrassBlock
	Dirt
	CoarseDirt
	Podzol
	Cobblestone
	Planks
	Log
	Leaves
	Sand
	RedSand
	Gravel
	Bedrock
	Water
	Lava
	Glass
	Wool
	Torch
	WallTorch
	RedstoneTorch
	RedstoneWallTorch
	Furnace
	StoneSlab
	WoodenSlab
	OakStairs
	Wheat
	RedstoneLamp
	Chest
	Snow
	Obsidian
	Glowstone
	OakDoor
	Kelp
	numBlockTypes
)

var blockNames = [numBlockTypes]string{
	BlockInvalid:      "invalid",
	Air:               "air",
	Stone:             "stone",
	Granite:           "granite",
	PolishedGranite:   "polished_granite",
	Diorite:           "diorite",
	PolishedDiorite:   "polished_diorite",
	Andesite:          "andesite",
	PolishedAndesite:  "polished_andesite",
	GrassBlock:        "grass_block",
	Dirt:              "dirt",
	CoarseDirt:        "coarse_dirt",
	Podzol:            "podzol",
	Cobblestone:       "cobblestone",
	Planks:            "planks",
	Log:               "log",
	Leaves:            "leaves",
	Sand:              "sand",
	RedSand:           "red_sand",
	Gravel:            "gravel",
	Bedrock:           "bedrock",
	Water:             "water",
	Lava:              "lava",
	Glass:             "glass",
	Wool:              "wool",
	Torch:             "torch",
	WallTorch:         "wall_torch",
	RedstoneTorch:     "redstone_torch",
	RedstoneWallTorch: "redstone_wall_torch",
	Furnace:           "furnace",
	StoneSlab:         "stone_slab",
	WoodenSlab:        "wooden_slab",
	OakStairs:         "oak_stairs",
	Wheat:             "wheat",
	RedstoneLamp:      "redstone_lamp",
	Chest:             "chest",
	Snow:              "snow",
	Obsidian:          "obsidian",
	Glowstone:         "glowstone",
	OakDoor:           "oak_door",
	Kelp:              "kelp",
}

var blocksByName = func() map[string]BlockType {
	m := make(map[string]BlockType, numBlockTypes)
	for t := Air; t < numBlockTypes; t++ {
		m[blockNames[t]] = t
	}
	return m
}()

func (t BlockType) String() string {
	if t < numBlockTypes {
		return blockNames[t]
	}
	return fmt.Sprintf("block(%d)", uint16(t))
}

func ParseBlockType(s string) (BlockType, error) {
	if t, ok := blocksByName[s]; ok {
		return t, nil
	}
	return BlockInvalid, errors.Errorf("unknown block type %q", s)
}

func AllBlockTypes() []BlockType {
	out := make([]BlockType, 0, numBlockTypes-1)
	for t := Air; t < numBlockTypes; t++ {
		out = append(out, t)
	}
	return out
}

func (t BlockType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BlockType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseBlockType(string(b))
	return err
}
