package mappings

import (
	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/statemap"
)

var (
	vi = func(v int) identifier.StateValue { return identifier.Int(int32(v)) }
	vb = identifier.Bool
	ve = identifier.Enum
)

// row is one line of a packed data table.
type row = resolver.FlatEntry[canonical.BlockType]

func flat(v int, t canonical.BlockType, kv ...any) row {
	return row{Value: int32(v), Type: t, Canonical: props(kv...)}
}

// field is a group with a single identity rule.
func field(name, native string, p canonical.Property) *statemap.Group {
	return statemap.NewGroup(name).Field(native, p, statemap.Identity()).MustBuild()
}

var noSnow = statemap.NewGroup("no_snow").DefaultCanonical(canonical.Snowy, vb(false)).MustBuild()

// horizontalFacing maps the 2..5 facing ids used by furnaces and chests.
// 0 and 1 point up and down and are read as north.
func horizontalFacing() *statemap.Table {
	return statemap.NewTable(1, 1).
		MapOne(vi(2), ve("north")).
		MapOne(vi(3), ve("south")).
		MapOne(vi(4), ve("west")).
		MapOne(vi(5), ve("east")).
		DecodeOnly(statemap.T(vi(0)), statemap.T(ve("north"))).
		DecodeOnly(statemap.T(vi(1)), statemap.T(ve("north"))).
		MustBuild()
}

// stairFacing is the 0..3 stair direction: east, west, south, north.
var stairFacing = []string{"east", "west", "south", "north"}

// doorFacing is the 0..3 door direction: east, south, west, north.
var doorFacing = []string{"east", "south", "west", "north"}

func boolHalf(bottom, top identifier.StateValue) *statemap.Table {
	return statemap.NewTable(1, 1).
		MapOne(bottom, ve("bottom")).
		MapOne(top, ve("top")).
		MustBuild()
}
