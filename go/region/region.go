// Package region reads Java edition region (.mca) files into per-section
// palettes of native block identifiers, ready for translation.
package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/nbt"
)

// Opener opens a region file. Open is the real one; tests substitute fakes.
type Opener func(path string, m *Migrator) (Regioner, error)

type Regioner interface {
	// ReadChunks returns the chunks present in the region, in index order.
	// wanted restricts the read to the given chunk indexes when non-empty.
	ReadChunks(wanted []int) ([]Chunk, error)
	Rx() int
	Rz() int
}

// Section is a 16x16x16 cube of blocks. Indices point into Palette in YZX
// order; a nil Indices means every block is Palette[0].
type Section struct {
	Y       int8
	Palette []identifier.Identifier
	Indices []uint16

	// Legacy sections came from numeric block arrays; their palette holds
	// pre-flattening names with a data state.
	Legacy bool
}

// At is the palette entry of the block at index i.
func (s *Section) At(i int) identifier.Identifier {
	if s.Indices == nil {
		return s.Palette[0]
	}
	return s.Palette[s.Indices[i]]
}

type Chunk struct {
	Index       int
	X, Z        int
	DataVersion int
	Sections    []Section
}

var regionMatchRE = regexp.MustCompile(`r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseName extracts region coordinates from an r.X.Z.mca file name.
func ParseName(path string) (rx, rz int, ok bool) {
	m := regionMatchRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, 0, false
	}
	rx, _ = strconv.Atoi(m[1])
	rz, _ = strconv.Atoi(m[2])
	return rx, rz, true
}

// List returns the region files in dir, sorted by name.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "r.*.*.mca"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out := paths[:0]
	for _, p := range paths {
		if _, _, ok := ParseName(p); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

type Region struct {
	path       string
	rx, rz     int
	migrate    *Migrator
	offsets    [1024]uint32
	timestamps [1024]uint32
}

func (r *Region) Rx() int { return r.rx }
func (r *Region) Rz() int { return r.rz }

// Timestamp is the last modification time of chunk i, in epoch seconds.
func (r *Region) Timestamp(i int) uint32 { return r.timestamps[i] }

// Open reads the region header. Palette names are renamed through m, which
// may be nil.
func Open(path string, m *Migrator) (Regioner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	r := &Region{path: path, migrate: m}
	var ok bool
	if r.rx, r.rz, ok = ParseName(path); !ok {
		slog.Warn("region file doesn't match expected r.X.Z.mca format", "path", path)
	}

	var buf [8192]uint8
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}
	for i := 0; i < 1024; i++ {
		r.offsets[i] = binary.BigEndian.Uint32(buf[i*4:])
		r.timestamps[i] = binary.BigEndian.Uint32(buf[4096+i*4:])
	}
	return r, nil
}

const (
	compressionGzip = 1
	compressionZlib = 2
	compressionNone = 3
)

func (r *Region) ReadChunks(wanted []int) ([]Chunk, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	maxSectors := 0 // size of largest chunk in region
	for _, offset := range r.offsets {
		if int(offset&255) > maxSectors {
			maxSectors = int(offset & 255)
		}
	}

	// read the region file in sequential order, by first sorting
	// a list of chunks indexes according to their offset in the region file
	seqChunks := make([]uint16, 0, 1024)
	if len(wanted) > 0 {
		for _, i := range wanted {
			if i >= 0 && i < 1024 && r.offsets[i] != 0 {
				seqChunks = append(seqChunks, uint16(i))
			}
		}
	} else {
		for i := 0; i < 1024; i++ {
			if r.offsets[i] != 0 {
				seqChunks = append(seqChunks, uint16(i))
			}
		}
	}
	sort.Slice(seqChunks, func(i, j int) bool {
		return r.offsets[seqChunks[i]] < r.offsets[seqChunks[j]]
	})

	// allocating these once per region saves memory
	chunkBuf := make([]byte, 4096*maxSectors)
	chunkDecompressed := bytes.NewBuffer(make([]byte, 0, 4*(1<<20)))
	var zr io.ReadCloser
	var gz *gzip.Reader

	var chunks []Chunk
	for _, chunkNum := range seqChunks {
		paddedLen := 4096 * int(r.offsets[chunkNum]&0xff)
		if _, err := f.ReadAt(chunkBuf[:paddedLen], int64(r.offsets[chunkNum]>>8)*4096); err != nil && err != io.EOF {
			return chunks, errors.Wrapf(err, "reading chunk %d of %s", chunkNum, r.path)
		}
		chunkLen := int(binary.BigEndian.Uint32(chunkBuf))
		if chunkLen > paddedLen || chunkLen < 1 {
			slog.Warn("chunk length doesn't fit its sectors", "path", r.path, "chunk", chunkNum, "length", chunkLen)
			continue
		}

		payload := bytes.NewReader(chunkBuf[5 : chunkLen+4])
		var src io.Reader
		switch chunkBuf[4] {
		case compressionZlib:
			if zr == nil {
				zr, err = zlib.NewReader(payload)
			} else {
				err = zr.(zlib.Resetter).Reset(payload, nil)
			}
			src = zr
		case compressionGzip:
			if gz == nil {
				gz, err = gzip.NewReader(payload)
			} else {
				err = gz.Reset(payload)
			}
			src = gz
		case compressionNone:
			src = payload
		default:
			slog.Warn("unhandled compression type", "path", r.path, "chunk", chunkNum, "type", chunkBuf[4])
			continue
		}
		if err != nil {
			return chunks, errors.Wrapf(err, "decompressing chunk %d of %s", chunkNum, r.path)
		}
		chunkDecompressed.Reset()
		if _, err := chunkDecompressed.ReadFrom(src); err != nil {
			return chunks, errors.Wrapf(err, "decompressing chunk %d of %s", chunkNum, r.path)
		}

		xPos, zPos := int(chunkNum&31)|r.rx<<5, int(chunkNum>>5)|r.rz<<5
		c, err := ParseChunk(chunkDecompressed.Bytes(), r.migrate)
		if err != nil {
			slog.Warn("skipping unreadable chunk", "path", r.path, "chunk", chunkNum, "err", err)
			continue
		}
		if c == nil {
			continue // proto-chunk
		}
		if (c.X != math.MaxInt && c.X != xPos) || (c.Z != math.MaxInt && c.Z != zPos) {
			slog.Warn("chunk misplaced (corrupt region file?)", "path", r.path,
				"expected", fmt.Sprintf("%d,%d", xPos, zPos), "got", fmt.Sprintf("%d,%d", c.X, c.Z))
			continue
		}
		c.Index, c.X, c.Z = int(chunkNum), xPos, zPos
		chunks = append(chunks, *c)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

type paletteEntry struct {
	name   string
	states map[string]identifier.StateValue
}

type rawSection struct {
	y                 int8
	palette           []paletteEntry
	blockStates       []byte
	blocks, blockData []byte
}

// ParseChunk decodes an uncompressed chunk. It returns nil for chunks that
// have not finished generating. X and Z are math.MaxInt when the chunk
// doesn't record its position.
func ParseChunk(buf []byte, m *Migrator) (*Chunk, error) {
	dataVersion := 0
	sections := []*rawSection{}
	section := func(i int) *rawSection {
		for len(sections) <= i {
			sections = append(sections, &rawSection{})
		}
		return sections[i]
	}
	chunkXPos, chunkZPos := math.MaxInt, math.MaxInt
	chunkStatus := ""

	err := nbt.Walk(buf, func(path []string, idxes []int, ty nbt.TagType, value []byte) {
		if len(path) == 0 {
			return
		}
		last := path[len(path)-1]
		if len(path) <= 2 && ty == nbt.TagInt {
			switch last {
			case "xPos":
				chunkXPos = int(int32(binary.BigEndian.Uint32(value)))
			case "zPos":
				chunkZPos = int(int32(binary.BigEndian.Uint32(value)))
			case "DataVersion":
				dataVersion = int(int32(binary.BigEndian.Uint32(value)))
			}
			return
		}
		if last == "Status" && len(path) <= 2 {
			chunkStatus = string(value)
			return
		}
		if !(path[0] == "sections" || len(path) > 1 && path[1] == "Sections") || len(idxes) == 0 {
			return
		}
		sec := section(idxes[0])
		if len(idxes) == 2 && len(path) > 4 && (path[3] == "Palette" || path[3] == "palette") {
			if idxes[1] >= len(sec.palette) {
				sec.palette = append(sec.palette, paletteEntry{})
			}
			entry := &sec.palette[idxes[1]]
			if last == "Name" {
				entry.name = string(value)
			} else if len(path) == 7 && path[5] == "Properties" {
				if entry.states == nil {
					entry.states = map[string]identifier.StateValue{}
				}
				entry.states[last] = identifier.ParseStateValue(string(value))
			}
			return
		}
		switch {
		case ty == nbt.TagByteArray && last == "Blocks":
			sec.blocks = value
		case ty == nbt.TagByteArray && last == "Data":
			sec.blockData = value
		case ty == nbt.TagLongArray && (last == "BlockStates" || last == "data" && path[len(path)-2] == "block_states"):
			sec.blockStates = value
		case ty == nbt.TagByte && last == "Y":
			sec.y = int8(value[0])
		}
	})
	if err != nil {
		return nil, err
	}
	switch chunkStatus {
	case "", "full", "minecraft:full", "postprocessed", "minecraft:postprocessed":
	default:
		return nil, nil
	}

	c := &Chunk{X: chunkXPos, Z: chunkZPos, DataVersion: dataVersion}
	renames := m.Renames(dataVersion)
	for _, raw := range sections {
		var s Section
		var err error
		switch {
		case len(raw.blocks) > 0:
			s, err = legacySection(raw)
		case len(raw.palette) > 0:
			s, err = paletteSection(raw, dataVersion, renames)
		default:
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "section %d", raw.y)
		}
		c.Sections = append(c.Sections, s)
	}
	sort.SliceStable(c.Sections, func(i, j int) bool { return c.Sections[i].Y < c.Sections[j].Y })
	return c, nil
}

func paletteSection(raw *rawSection, dataVersion int, renames map[string]string) (Section, error) {
	s := Section{Y: raw.y, Palette: make([]identifier.Identifier, len(raw.palette))}
	for i, p := range raw.palette {
		name := p.name
		if to, ok := renames[name]; ok {
			name = to
		}
		s.Palette[i] = identifier.Identifier{Name: name, States: p.states}
	}
	if len(raw.blockStates) == 0 {
		if len(s.Palette) > 1 {
			return s, errors.Errorf("%d palette entries but no block data", len(s.Palette))
		}
		return s, nil
	}
	if dataVersion < 2529 {
		// before 1.16 snapshot 20w17a
		s.Indices = blockstatesToShortsPacked(raw.blockStates)
	} else {
		s.Indices = blockstatesToShorts116(raw.blockStates)
	}
	for _, v := range s.Indices {
		if int(v) >= len(s.Palette) {
			return s, errors.Errorf("block index %d outside palette of %d", v, len(s.Palette))
		}
	}
	return s, nil
}

// legacySection builds a palette out of the distinct id/data pairs in a
// pre-flattening section.
func legacySection(raw *rawSection) (Section, error) {
	if len(raw.blocks) != 4096 || len(raw.blockData) != 2048 {
		return Section{}, errors.Errorf("legacy arrays have %d blocks and %d data bytes", len(raw.blocks), len(raw.blockData))
	}
	s := Section{Y: raw.y, Legacy: true, Indices: make([]uint16, 4096)}
	seen := map[uint16]uint16{}
	for i, ob := range raw.blocks {
		data := (raw.blockData[i>>1] >> ((i & 1) << 2)) & 0xf
		o := uint16(ob)<<4 | uint16(data)
		idx, ok := seen[o]
		if !ok {
			name, known := mappings.LegacyBlockName(ob)
			if !known {
				name = fmt.Sprintf("%s:%d", identifier.VanillaNamespace, ob)
			}
			idx = uint16(len(s.Palette))
			seen[o] = idx
			s.Palette = append(s.Palette, identifier.FromData(name, int32(data)))
		}
		s.Indices[i] = idx
	}
	return s, nil
}

// 1.16 64-bit BlockState long array to uint16 array
func blockstatesToShorts116(value []byte) []uint16 {
	bpb := (64 * (len(value) / 8)) / 4096
	if bpb < 4 {
		bpb = 4
	}

	ret := make([]uint16, 4096)
	if bpb == 4 {
		// fast case: a nibble
		for i := 0; i < 4096 && (i/2)&^7+7 < len(value); i += 2 {
			b := uint16(value[(i/2)&^7+7-(i/2)&7])
			ret[i] = b & 0xf
			ret[i+1] = b >> 4
		}
		return ret
	}

	larr := make([]uint64, len(value)/8)
	for i, v := range value[:len(larr)*8] {
		larr[i>>3] |= uint64(v) << ((7 - (i & 7)) * 8)
	}
	bmask := uint64(1<<bpb) - 1
	bpe := 64 / bpb
	for bsi, v := range larr {
		for i := 0; i < bpe; i++ {
			nido := bsi*bpe + i
			if nido >= 4096 {
				break
			}
			ret[nido] = uint16((v >> (i * bpb)) & bmask)
		}
	}
	return ret
}

// pre-1.16, blockstates are packed to use every bit possible
func blockstatesToShortsPacked(value []byte) []uint16 {
	bpb := (64 * (len(value) / 8)) / 4096
	if bpb == 0 || 64%bpb == 0 {
		// simple case: the state bits fit into longs with no slop
		return blockstatesToShorts116(value)
	}

	bmask := uint32(1<<bpb) - 1
	ret := make([]uint16, 4096)
	var bitbuf uint32
	bits := 0
	vptr := 0
	for i := 0; i < 4096; i++ {
		for bits < bpb {
			// n.b.: value is a representation of *big endian* longs
			// this bit twiddling reads it in the right order
			bitbuf |= (uint32(value[vptr&^7+(7-vptr&7)]) << bits)
			bits += 8
			vptr++
		}
		ret[i] = uint16(bitbuf & bmask)
		bitbuf >>= bpb
		bits -= bpb
	}

	return ret
}
