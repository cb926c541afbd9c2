package blockstates

import (
	"archive/zip"
	"encoding/json"
	"io"
	"log/slog"
	"reflect"
	"regexp"
	"sort"

	"github.com/nsf/jsondiff"
	"github.com/pkg/errors"
)

var blockstateRe = regexp.MustCompile(`^assets/(\w+)/blockstates/(.*?)\.json$`)

// Jar holds the block state definitions of a client jar or resource pack,
// keyed by namespaced block name.
type Jar struct {
	Definitions map[string]*Definition
	// Mismatches counts definitions that did not survive a decode and
	// re-encode unchanged.
	Mismatches int
}

// Open reads the definitions from a jar on disk.
func Open(path string) (*Jar, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer zr.Close()
	return FromZip(&zr.Reader)
}

func FromZip(zr *zip.Reader) (*Jar, error) {
	j := &Jar{Definitions: map[string]*Definition{}}
	for _, f := range zr.File {
		m := blockstateRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", f.Name)
		}
		def := &Definition{}
		if err := json.Unmarshal(data, def); err != nil {
			return nil, errors.Wrapf(err, "unable to decode %s", f.Name)
		}
		j.Definitions[m[1]+":"+m[2]] = def
		if !roundTrips(f.Name, data, def) {
			j.Mismatches++
		}
	}
	return j, nil
}

// roundTrips reports whether def encodes back to the document it was read
// from, logging the difference when it does not.
func roundTrips(name string, data []byte, def *Definition) bool {
	var got, want any
	if err := json.Unmarshal(data, &want); err != nil {
		return false
	}
	buf, err := json.Marshal(def)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(buf, &got); err != nil {
		return false
	}
	if reflect.DeepEqual(got, want) {
		return true
	}
	opts := jsondiff.DefaultJSONOptions()
	opts.CompareNumbers = func(a, b json.Number) bool {
		av, _ := a.Float64()
		bv, _ := b.Float64()
		return av == bv
	}
	diff, str := jsondiff.Compare(data, buf, &opts)
	if diff == jsondiff.FullMatch {
		return true
	}
	slog.Warn("mismatch decoding", "file", name, "diff", diff.String())
	slog.Debug("mismatch detail", "file", name, "diff", str)
	return false
}

func (j *Jar) Names() []string {
	names := make([]string, 0, len(j.Definitions))
	for name := range j.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
