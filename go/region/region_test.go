package region

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/nbt"
)

// modernChunk is a 1.18-style chunk: one two-entry section below zero and
// one uniform stone section.
func modernChunk(x, z int32, status string) []byte {
	data := make([]uint64, 256)
	data[0] = 1 // first block is the log
	w := &nbt.Writer{}
	w.Compound("")
	w.Int("DataVersion", 3463)
	w.Int("xPos", x)
	w.Int("zPos", z)
	w.String("Status", status)
	w.List("sections", nbt.TagCompound, 2)
	{
		w.Byte("Y", 0)
		w.Compound("block_states")
		w.List("palette", nbt.TagCompound, 1)
		w.String("Name", "minecraft:stone").End()
		w.End() // block_states
		w.End()
	}
	{
		w.Byte("Y", -1)
		w.Compound("block_states")
		w.List("palette", nbt.TagCompound, 2)
		w.String("Name", "minecraft:air").End()
		w.String("Name", "minecraft:oak_log")
		w.Compound("Properties").String("axis", "x").End()
		w.End()
		w.LongArray("data", data)
		w.End() // block_states
		w.End()
	}
	w.End()
	return w.Bytes()
}

// legacyChunk is a pre-1.13 chunk with numeric block arrays.
func legacyChunk(x, z int32) []byte {
	blocks := bytes.Repeat([]byte{1}, 4096)
	blocks[0] = 17
	data := make([]byte, 2048)
	data[0] = 0x01 // spruce
	w := &nbt.Writer{}
	w.Compound("")
	w.Compound("Level")
	w.Int("xPos", x)
	w.Int("zPos", z)
	w.List("Sections", nbt.TagCompound, 1)
	w.Byte("Y", 0)
	w.ByteArray("Blocks", blocks)
	w.ByteArray("Data", data)
	w.End()
	w.End() // Level
	w.End()
	return w.Bytes()
}

func compress(t *testing.T, kind byte, raw []byte) []byte {
	var buf bytes.Buffer
	switch kind {
	case compressionZlib:
		zw := zlib.NewWriter(&buf)
		_, err := zw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	case compressionGzip:
		gw := gzip.NewWriter(&buf)
		_, err := gw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, gw.Close())
	default:
		buf.Write(raw)
	}
	return buf.Bytes()
}

func writeRegion(t *testing.T, path string, kind byte, chunks map[int][]byte) {
	t.Helper()
	var header [8192]byte
	var body bytes.Buffer
	sector := 2
	for _, i := range lo.Keys(chunks) {
		comp := compress(t, kind, chunks[i])
		n := (len(comp) + 5 + 4095) / 4096
		padded := make([]byte, n*4096)
		binary.BigEndian.PutUint32(padded, uint32(len(comp)+1))
		padded[4] = kind
		copy(padded[5:], comp)
		binary.BigEndian.PutUint32(header[i*4:], uint32(sector<<8|n))
		binary.BigEndian.PutUint32(header[4096+i*4:], 1700000000)
		body.Write(padded)
		sector += n
	}
	require.NoError(t, os.WriteFile(path, append(header[:], body.Bytes()...), 0o644))
}

func TestParseName(t *testing.T) {
	for _, tc := range []struct {
		path   string
		rx, rz int
		ok     bool
	}{
		{"world/region/r.0.0.mca", 0, 0, true},
		{"r.-3.12.mca", -3, 12, true},
		{"r.1.2.mcr", 0, 0, false},
		{"level.dat", 0, 0, false},
	} {
		rx, rz, ok := ParseName(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, []int{tc.rx, tc.rz}, []int{rx, rz}, tc.path)
	}
}

func TestParseModernChunk(t *testing.T) {
	c, err := ParseChunk(modernChunk(1, 1, "minecraft:full"), nil)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 3463, c.DataVersion)
	require.Len(t, c.Sections, 2)

	low := c.Sections[0]
	assert.EqualValues(t, -1, low.Y, "sections are sorted by Y")
	assert.False(t, low.Legacy)
	assert.Equal(t, "minecraft:oak_log[axis=x]", low.At(0).String())
	assert.Equal(t, "minecraft:air", low.At(1).String())
	assert.Equal(t, "minecraft:air", low.At(4095).String())

	stone := c.Sections[1]
	assert.Nil(t, stone.Indices)
	assert.Equal(t, "minecraft:stone", stone.At(1234).String())
}

func TestParseSkipsProtoChunks(t *testing.T) {
	c, err := ParseChunk(modernChunk(0, 0, "minecraft:features"), nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseLegacyChunk(t *testing.T) {
	c, err := ParseChunk(legacyChunk(0, 0), nil)
	require.NoError(t, err)
	require.Len(t, c.Sections, 1)
	s := c.Sections[0]
	assert.True(t, s.Legacy)
	require.Len(t, s.Palette, 2)
	assert.True(t, s.At(0).Equal(identifier.FromData("minecraft:log", 1)), "got %s", s.At(0))
	assert.True(t, s.At(1).Equal(identifier.FromData("minecraft:stone", 0)), "got %s", s.At(1))
}

func TestParseRenamesOldPalettes(t *testing.T) {
	w := &nbt.Writer{}
	w.Compound("")
	w.Int("DataVersion", 1519)
	w.Compound("Level")
	w.List("Sections", nbt.TagCompound, 1)
	w.Byte("Y", 4)
	w.List("Palette", nbt.TagCompound, 1)
	w.String("Name", "minecraft:stone_slab")
	w.Compound("Properties").String("type", "bottom").String("waterlogged", "false").End()
	w.End()
	w.End() // section
	w.End() // Level
	w.End()

	c, err := ParseChunk(w.Bytes(), NewMigrator(1952))
	require.NoError(t, err)
	require.Len(t, c.Sections, 1)
	assert.Equal(t, "minecraft:smooth_stone_slab[type=bottom,waterlogged=false]", c.Sections[0].At(0).String())
	v, _ := c.Sections[0].At(0).State("waterlogged")
	assert.Equal(t, identifier.Bool(false), v, "properties are typed")
}

func TestReadRegion(t *testing.T) {
	for _, kind := range []byte{compressionZlib, compressionGzip, compressionNone} {
		path := filepath.Join(t.TempDir(), "r.0.0.mca")
		writeRegion(t, path, kind, map[int][]byte{
			33: modernChunk(1, 1, "minecraft:full"),
			0:  legacyChunk(0, 0),
			2:  modernChunk(7, 7, "minecraft:full"), // misplaced
		})

		r, err := Open(path, nil)
		require.NoError(t, err)
		chunks, err := r.ReadChunks(nil)
		require.NoError(t, err, "compression %d", kind)
		require.Len(t, chunks, 2, "compression %d", kind)
		assert.Equal(t, 0, chunks[0].Index)
		assert.True(t, chunks[0].Sections[0].Legacy)
		assert.Equal(t, 33, chunks[1].Index)
		assert.Equal(t, []int{1, 1}, []int{chunks[1].X, chunks[1].Z})

		chunks, err = r.ReadChunks([]int{33, 500})
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 33, chunks[0].Index)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"r.1.0.mca", "r.0.0.mca", "r.a.b.mca", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	paths, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "r.0.0.mca"), filepath.Join(dir, "r.1.0.mca")}, paths)
}

func TestFakeOpenerRenames(t *testing.T) {
	open := FakeOpener(func(rx, rz int) []Chunk {
		return []Chunk{{Index: 0, DataVersion: 1700, Sections: []Section{
			FakeSection(0, identifier.New("minecraft:stone_slab"), identifier.New("minecraft:stone")),
		}}}
	})
	r, err := open("r.2.3.mca", NewMigrator(1952))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rx())
	chunks, err := r.ReadChunks(nil)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:smooth_stone_slab", chunks[0].Sections[0].At(100).Name)
	assert.Equal(t, "minecraft:stone", chunks[0].Sections[0].At(3).Name)
}
