package convert

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Report writes one JSON object per line into a zstd compressed file. A nil
// *Report discards everything.
type Report struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// SectionLine is the report entry for one translated section.
type SectionLine struct {
	Region     string   `json:"region"`
	Chunk      int      `json:"chunk"`
	X          int      `json:"x"`
	Z          int      `json:"z"`
	Y          int8     `json:"y"`
	Legacy     bool     `json:"legacy,omitempty"`
	Palette    []string `json:"palette"`
	Unresolved int      `json:"unresolved,omitempty"`
}

func CreateReport(path string) (*Report, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, errors.WithStack(err)
	}
	return &Report{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (r *Report) Write(v any) error {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(b); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.w.WriteByte('\n'))
}

func (r *Report) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.w.Flush()
	if cerr := r.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return errors.WithStack(err)
}
