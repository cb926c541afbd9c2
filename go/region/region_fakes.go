package region

import (
	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/identifier"
)

// Fake is an in-memory Regioner.
type Fake struct {
	X, Z   int
	Chunks []Chunk
}

func (f *Fake) Rx() int { return f.X }
func (f *Fake) Rz() int { return f.Z }

func (f *Fake) ReadChunks(wanted []int) ([]Chunk, error) {
	if len(wanted) == 0 {
		return f.Chunks, nil
	}
	want := map[int]bool{}
	for _, i := range wanted {
		want[i] = true
	}
	var out []Chunk
	for _, c := range f.Chunks {
		if want[c.Index] {
			out = append(out, c)
		}
	}
	return out, nil
}

// FakeOpener serves every r.X.Z.mca path with the chunks gen returns for
// that region, renamed through the Migrator like a real read.
func FakeOpener(gen func(rx, rz int) []Chunk) Opener {
	return func(path string, m *Migrator) (Regioner, error) {
		rx, rz, ok := ParseName(path)
		if !ok {
			return nil, errors.Errorf("not a region file: %s", path)
		}
		chunks := gen(rx, rz)
		for ci := range chunks {
			c := &chunks[ci]
			renames := m.Renames(c.DataVersion)
			for si := range c.Sections {
				s := &c.Sections[si]
				for pi, id := range s.Palette {
					if to, ok := renames[id.Name]; ok {
						s.Palette[pi] = identifier.Identifier{Name: to, States: id.States}
					}
				}
			}
		}
		return &Fake{X: rx, Z: rz, Chunks: chunks}, nil
	}
}

// FakeSection is a section of a single repeated block, with a second block
// laid along the bottom row so palettes have more than one entry.
func FakeSection(y int8, fill, row identifier.Identifier) Section {
	s := Section{Y: y, Palette: []identifier.Identifier{fill, row}, Indices: make([]uint16, 4096)}
	for x := 0; x < 16; x++ {
		s.Indices[x] = 1
	}
	return s
}
