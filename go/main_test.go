package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
)

func TestTranslateCommand(t *testing.T) {
	var out bytes.Buffer
	err := runTranslate([]string{"-from", "java:1.12.2", "-to", "bedrock:1.16.100",
		"minecraft:stone[data=3]", "minecraft:log[data=6]"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:stone[data=3]\tminecraft:stone[stone_type=diorite]\n"+
		"minecraft:log[data=6]\tminecraft:log[old_log_type=birch,pillar_axis=x]\n", out.String())

	out.Reset()
	err = runTranslate([]string{"-from", "java:1.20.0", "-to", "bedrock:1.20.0",
		"minecraft:stone", "minecraft:jukebox"}, &out)
	assert.ErrorContains(t, err, "1 of 2")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "minecraft:jukebox\tminecraft:air\t# "), lines[1])

	out.Reset()
	err = runTranslate([]string{"-items", "-from", "java:1.12.2", "-to", "bedrock:1.16.100",
		"minecraft:golden_apple[damage=1]"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:golden_apple[damage=1]\tminecraft:appleenchanted\n", out.String())

	assert.Error(t, runTranslate([]string{"-from", "java:1.12.2"}, &out))
	assert.Error(t, runTranslate([]string{"-from", "nowhere:1.0", "minecraft:stone"}, &out))
}

func TestDumpCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDump([]string{"-platform", "java", "-version", "1.20.0", "-direction", "decode"}, &out))
	var d dump
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))
	assert.Equal(t, "java:1.20.0", d.Target)
	assert.Equal(t, "blocks", d.Kind)
	assert.Positive(t, d.Stats.Names)
	assert.Zero(t, d.Stats.EncodeEntries)
	assert.True(t, lo.EveryBy(d.Entries, func(e resolver.Entry) bool { return e.Direction == "decode" }))
	assert.True(t, lo.ContainsBy(d.Entries, func(e resolver.Entry) bool { return e.Native == "minecraft:oak_log" }),
		spew.Sdump(lo.Slice(d.Entries, 0, 5)))

	assert.Error(t, runDump([]string{"-platform", "java", "-version", "1.0.0"}, &out))
	assert.Error(t, runDump([]string{"-direction", "sideways"}, &out))
}

func TestDiffCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDiff([]string{"-platform", "bedrock", "-a", "1.16.100", "-b", "1.20.50"}, &out))
	assert.Contains(t, out.String(), "decode minecraft:granite")
	assert.Contains(t, out.String(), "decode minecraft:red_wool")

	out.Reset()
	require.NoError(t, runDiff([]string{"-platform", "bedrock", "-a", "1.16.100", "-b", "1.16.200"}, &out))
	assert.Contains(t, out.String(), "identical tables")
}

func get(t *testing.T, srv *httptest.Server, path string, q url.Values, v any) int {
	t.Helper()
	u := srv.URL + path
	if q != nil {
		u += "?" + q.Encode()
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestServer(t *testing.T) {
	srv := httptest.NewServer(newServer(nil).router())
	defer srv.Close()

	var dec result
	code := get(t, srv, "/decode", url.Values{"target": {"java:1.20.0"}, "id": {"minecraft:spruce_log[axis=x]"}}, &dec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "log", dec.Type)
	assert.Equal(t, identifier.Enum("spruce"), dec.Properties["wood"])
	assert.Equal(t, identifier.Enum("x"), dec.Properties["axis"])

	code = get(t, srv, "/decode", url.Values{"target": {"java:1.20.0"}, "id": {"mymod:widget"}}, &dec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mymod:widget", dec.Custom)

	var enc map[string]string
	code = get(t, srv, "/encode", url.Values{"target": {"bedrock:1.20.0"}, "type": {"log"}, "wood": {"spruce"}, "axis": {"z"}}, &enc)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "minecraft:log[old_log_type=spruce,pillar_axis=z]", enc["id"])

	for _, tc := range []struct {
		path string
		q    url.Values
		code int
	}{
		{"/decode", url.Values{"target": {"java:1.20.0"}, "id": {"minecraft:jukebox"}}, http.StatusNotFound},
		{"/decode", url.Values{"target": {"java"}, "id": {"minecraft:stone"}}, http.StatusBadRequest},
		{"/encode", url.Values{"target": {"java:1.20.0"}, "type": {"no_such_block"}}, http.StatusBadRequest},
		{"/encode", url.Values{"target": {"java:1.20.0"}, "type": {"log"}, "flavor": {"sweet"}}, http.StatusBadRequest},
		{"/entries/minecraft", url.Values{"version": {"1.20.0"}}, http.StatusBadRequest},
		{"/runs", nil, http.StatusNotFound},
	} {
		assert.Equal(t, tc.code, get(t, srv, tc.path, tc.q, nil), "%s?%s", tc.path, tc.q.Encode())
	}

	var d dump
	require.Equal(t, http.StatusOK, get(t, srv, "/entries/bedrock", url.Values{"version": {"1.16.100"}}, &d))
	assert.Equal(t, "bedrock:1.16.100", d.Target)
	assert.Positive(t, d.Stats.Types)

	var ty struct {
		Type      string           `json:"type"`
		Supported bool             `json:"supported"`
		Entries   []resolver.Entry `json:"entries"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/types/log", url.Values{"target": {"java:1.20.0"}}, &ty))
	assert.True(t, ty.Supported)
	assert.True(t, lo.EveryBy(ty.Entries, func(e resolver.Entry) bool { return e.Type == "log" }))
	assert.True(t, lo.ContainsBy(ty.Entries, func(e resolver.Entry) bool { return e.Native == "minecraft:dark_oak_log" }),
		spew.Sdump(ty.Entries))
}

func TestServerRuns(t *testing.T) {
	ctx := context.Background()
	store, err := coverage.Open(filepath.Join(t.TempDir(), "coverage.db"))
	require.NoError(t, err)
	defer store.Close()
	run, err := store.Begin(ctx, "java:1.20.0", "bedrock:1.20.0")
	require.NoError(t, err)
	run.Report(coverage.Gap{Op: "decode", Native: "minecraft:jukebox", Where: "r.0.0.mca/0/0"})
	require.NoError(t, run.Finish(ctx, coverage.Totals{Regions: 1}))

	srv := httptest.NewServer(newServer(store).router())
	defer srv.Close()

	var runs []coverage.RunInfo
	require.Equal(t, http.StatusOK, get(t, srv, "/runs", nil, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID.String(), runs[0].ID)

	var gaps []coverage.Count
	require.Equal(t, http.StatusOK, get(t, srv, "/runs/"+runs[0].ID+"/gaps", nil, &gaps))
	require.Len(t, gaps, 1)
	assert.Equal(t, "minecraft:jukebox", gaps[0].Native)
	assert.Equal(t, []string{"r.0.0.mca/0/0"}, gaps[0].Samples)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "client.jar")
	f, err := os.Create(jarPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"assets/minecraft/blockstates/glass.json":   `{"variants": {"": {"model": "minecraft:block/glass"}}}`,
		"assets/minecraft/blockstates/jukebox.json": `{"variants": {"has_record=false": {"model": "a"}, "has_record=true": {"model": "b"}}}`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dbPath := filepath.Join(dir, "coverage.db")
	var out bytes.Buffer
	require.NoError(t, runCheck([]string{"-jar", jarPath, "-version", "1.20.0", "-coverage", dbPath}, &out))
	assert.Contains(t, out.String(), "minecraft:jukebox[has_record=true]\t# ")
	assert.Contains(t, out.String(), "2 blocks, 3 states, 2 unresolved, 0 truncated")

	store, err := coverage.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	gaps, err := store.Gaps(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, gaps, 2)

	assert.ErrorContains(t, runCheck([]string{"-jar", jarPath, "-version", "1.12.2"}, &out), "predates")
}
