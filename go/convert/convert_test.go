package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappingfile"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/region"
	"github.com/rmmh/blockbridge/go/resolver"
)

type recorder struct {
	mu   sync.Mutex
	gaps []coverage.Gap
}

func (r *recorder) Report(g coverage.Gap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps = append(r.gaps, g)
}

func converter(t *testing.T, from, to string, custom bool) *Converter {
	t.Helper()
	c, err := New(mappings.MustParseTarget(from), mappings.MustParseTarget(to), custom)
	require.NoError(t, err)
	return c
}

func TestTranslate(t *testing.T) {
	c := converter(t, "java:1.12.2", "bedrock:1.16.100", false)
	sink := &recorder{}
	c.Sink = sink

	for _, tc := range []struct {
		in, out string
	}{
		{"minecraft:stone[data=3]", "minecraft:stone[stone_type=diorite]"},
		{"minecraft:wool[data=8]", "minecraft:wool[color=silver]"},
		{"minecraft:air", "minecraft:air"},
	} {
		out, err := c.Translate(identifier.MustParse(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.out, out.String(), tc.in)
	}
	assert.Empty(t, sink.gaps)

	// twice, so the second answer comes from the cache and is still reported
	for i := 0; i < 2; i++ {
		out, err := c.Translate(identifier.MustParse("minecraft:jukebox[data=0]"))
		require.ErrorIs(t, err, resolver.ErrUnresolved)
		assert.Equal(t, "minecraft:air", out.String())
	}
	require.Len(t, sink.gaps, 2, spew.Sdump(sink.gaps))
	assert.Equal(t, "decode", sink.gaps[0].Op)
	assert.Equal(t, "minecraft:jukebox[data=0]", sink.gaps[0].Native)
}

func TestTranslateWithMappingFile(t *testing.T) {
	c := converter(t, "java:1.12.2", "bedrock:1.16.100", false)
	f, err := mappingfile.Parse([]byte(`
blocks:
  - from: {name: "minecraft:jukebox"}
    to: {name: "minecraft:stone", states: {data: 1}}
  - from: {name: "minecraft:wool", states: {data: 1}}
    to: {states: {data: 14}}
`))
	require.NoError(t, err)
	c.Mapping = f

	out, err := c.Translate(identifier.MustParse("minecraft:jukebox[data=0]"))
	require.NoError(t, err)
	assert.Equal(t, "minecraft:stone[stone_type=granite]", out.String())

	out, err = c.Translate(identifier.MustParse("minecraft:wool[data=1]"))
	require.NoError(t, err)
	assert.Equal(t, "minecraft:wool[color=red]", out.String())
}

func TestTranslateCustom(t *testing.T) {
	c := converter(t, "java:1.20.0", "bedrock:1.20.0", true)
	out, err := c.Translate(identifier.MustParse("mymod:widget[power=3]"))
	require.NoError(t, err)
	assert.Equal(t, "mymod:widget[power=3]", out.String())

	strict := converter(t, "java:1.20.0", "bedrock:1.20.0", false)
	_, err = strict.Translate(identifier.MustParse("mymod:widget[power=3]"))
	assert.ErrorIs(t, err, resolver.ErrUnresolved)
}

func TestTranslateSection(t *testing.T) {
	c := converter(t, "java:1.20.0", "bedrock:1.20.0", false)
	require.NotNil(t, c.Legacy)

	legacy := region.Section{Y: 2, Legacy: true, Palette: []identifier.Identifier{
		identifier.FromData("minecraft:log", 1),
		identifier.FromData("minecraft:stone", 0),
	}, Indices: make([]uint16, 4096)}
	out, missed := c.TranslateSection(legacy, "test")
	assert.Zero(t, missed)
	assert.EqualValues(t, 2, out.Y)
	assert.Equal(t, "minecraft:log[old_log_type=spruce,pillar_axis=y]", out.Palette[0].String())
	assert.Equal(t, "minecraft:stone[stone_type=stone]", out.Palette[1].String())
	assert.Equal(t, "minecraft:stone[data=0]", legacy.Palette[1].String(), "input palette is untouched")

	modern := region.FakeSection(0, identifier.MustParse("minecraft:oak_log[axis=x]"), identifier.MustParse("minecraft:jukebox[has_record=false]"))
	out, missed = c.TranslateSection(modern, "test")
	assert.Equal(t, 1, missed)
	assert.Equal(t, "minecraft:log[old_log_type=oak,pillar_axis=x]", out.At(100).String())
	assert.Equal(t, "minecraft:air", out.At(0).String())
}

func fakeWorld(rx, rz int) []region.Chunk {
	return []region.Chunk{{Index: 0, X: rx << 5, Z: rz << 5, DataVersion: 3463, Sections: []region.Section{
		region.FakeSection(-1, identifier.New("minecraft:stone"), identifier.New("minecraft:jukebox")),
		region.FakeSection(0, identifier.New("minecraft:air"), identifier.MustParse("minecraft:grass_block[snowy=false]")),
	}}}
}

func regionDir(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	return dir
}

func readReport(t *testing.T, path string) []SectionLine {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()
	var lines []SectionLine
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var l SectionLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestRun(t *testing.T) {
	out := t.TempDir()
	cfg := Config{
		From:       mappings.MustParseTarget("java:1.20.0"),
		To:         mappings.MustParseTarget("bedrock:1.20.0"),
		RegionDir:  regionDir(t, "r.0.0.mca", "r.1.0.mca", "r.5.5.mca", "level.dat"),
		Workers:    2,
		Filters:    []string{"r.0.", "r.1."},
		CoverageDB: filepath.Join(out, "coverage.db"),
		Report:     filepath.Join(out, "report", "sections.jsonl.zst"),
		Open:       region.FakeOpener(fakeWorld),
	}
	sum, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.Regions)
	assert.EqualValues(t, 2, sum.Chunks)
	assert.EqualValues(t, 4, sum.Sections)
	assert.EqualValues(t, 8, sum.Entries)
	assert.EqualValues(t, 2, sum.Unresolved)
	require.NotEmpty(t, sum.RunID)

	lines := readReport(t, cfg.Report)
	require.Len(t, lines, 4)
	for _, l := range lines {
		switch l.Y {
		case -1:
			assert.Equal(t, []string{"minecraft:stone[stone_type=stone]", "minecraft:air"}, l.Palette)
			assert.Equal(t, 1, l.Unresolved)
		case 0:
			assert.Equal(t, []string{"minecraft:air", "minecraft:grass"}, l.Palette)
			assert.Zero(t, l.Unresolved)
		}
	}

	store, err := coverage.Open(cfg.CoverageDB)
	require.NoError(t, err)
	defer store.Close()
	gaps, err := store.Gaps(context.Background(), sum.RunID)
	require.NoError(t, err)
	require.Len(t, gaps, 1, spew.Sdump(gaps))
	assert.Equal(t, "minecraft:jukebox", gaps[0].Native)
	assert.EqualValues(t, 2, gaps[0].Count)
	assert.ElementsMatch(t, []string{"r.0.0.mca/0/-1", "r.1.0.mca/0/-1"}, gaps[0].Samples)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{
		From:      mappings.MustParseTarget("java:1.20.0"),
		To:        mappings.MustParseTarget("bedrock:1.20.0"),
		RegionDir: regionDir(t, "r.0.0.mca", "r.0.1.mca"),
		Open:      region.FakeOpener(fakeWorld),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convert.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
from: java:1.12.2
to: bedrock:1.20.50
region_dir: world/region
allow_custom: true
`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "java:1.12.2", cfg.From.String())
	assert.Equal(t, "bedrock:1.20.50", cfg.To.String())
	assert.True(t, cfg.AllowCustom)
	assert.Positive(t, cfg.Workers)
	require.NoError(t, cfg.Validate())

	cfg.From = mappings.MustParseTarget("bedrock:1.20.0")
	assert.ErrorContains(t, cfg.Validate(), "java worlds")

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "platform")

	require.NoError(t, os.WriteFile(path, []byte("from: nowhere:1\n"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestNilReport(t *testing.T) {
	var r *Report
	assert.NoError(t, r.Write(SectionLine{}))
	assert.NoError(t, r.Close())
}
