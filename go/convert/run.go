package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappingfile"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/region"
)

// Summary is the outcome of a Run.
type Summary struct {
	RunID string `json:"run_id,omitempty"`
	coverage.Totals
	Unresolved int64         `json:"unresolved"`
	Elapsed    time.Duration `json:"elapsed"`
}

type counters struct {
	regions, chunks, sections, entries, unresolved atomic.Int64
}

func (c *counters) totals() coverage.Totals {
	return coverage.Totals{
		Regions:  c.regions.Load(),
		Chunks:   c.chunks.Load(),
		Sections: c.sections.Load(),
		Entries:  c.entries.Load(),
	}
}

// Run translates every block palette in the region files of
// cfg.RegionDir, spreading the files over cfg.Workers goroutines that share
// one Converter.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	start := time.Now()

	conv, err := New(cfg.From, cfg.To, cfg.AllowCustom)
	if err != nil {
		return Summary{}, err
	}
	if cfg.MappingFile != "" {
		if conv.Mapping, err = mappingfile.Load(cfg.MappingFile); err != nil {
			return Summary{}, err
		}
		slog.Info("loaded mapping file", "path", cfg.MappingFile, "rules", conv.Mapping.Len())
	}

	var run *coverage.Run
	if cfg.CoverageDB != "" {
		store, err := coverage.Open(cfg.CoverageDB)
		if err != nil {
			return Summary{}, err
		}
		defer store.Close()
		if run, err = store.Begin(ctx, cfg.From.String(), cfg.To.String()); err != nil {
			return Summary{}, err
		}
		conv.Sink = run
	}

	var report *Report
	if cfg.Report != "" {
		if report, err = CreateReport(cfg.Report); err != nil {
			return Summary{}, err
		}
	}

	files, err := region.List(cfg.RegionDir)
	if err != nil {
		report.Close()
		return Summary{}, err
	}
	if len(cfg.Filters) > 0 {
		files = lo.Filter(files, func(f string, _ int) bool {
			return lo.SomeBy(cfg.Filters, func(filter string) bool {
				return strings.Contains(filepath.Base(f), filter)
			})
		})
	}

	var migrator *region.Migrator
	if cfg.From.Platform == mappings.Java {
		migrator = region.ForVersion(cfg.From.Version)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		count    counters
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	work := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				if err := convertRegion(ctx, conv, cfg.Open, migrator, path, report, &count); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for _, path := range files {
		select {
		case work <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := report.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrap(err, "closing report")
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}

	sum := Summary{Totals: count.totals(), Unresolved: count.unresolved.Load(), Elapsed: time.Since(start)}
	if run != nil {
		sum.RunID = run.ID.String()
		// record what was done even when the run was cut short
		if err := run.Finish(context.WithoutCancel(ctx), sum.Totals); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	slog.Info("conversion finished", "from", cfg.From, "to", cfg.To, "regions", sum.Regions,
		"chunks", sum.Chunks, "entries", sum.Entries, "unresolved", sum.Unresolved, "elapsed", sum.Elapsed)
	return sum, firstErr
}

func convertRegion(ctx context.Context, conv *Converter, open region.Opener, m *region.Migrator, path string, report *Report, count *counters) error {
	r, err := open(path, m)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	chunks, err := r.ReadChunks(nil)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	name := filepath.Base(path)
	missed := 0
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range c.Sections {
			where := fmt.Sprintf("%s/%d/%d", name, c.Index, s.Y)
			out, n := conv.TranslateSection(s, where)
			missed += n
			count.sections.Add(1)
			count.entries.Add(int64(len(s.Palette)))
			count.unresolved.Add(int64(n))
			err := report.Write(SectionLine{
				Region:     name,
				Chunk:      c.Index,
				X:          c.X,
				Z:          c.Z,
				Y:          s.Y,
				Legacy:     s.Legacy,
				Palette:    lo.Map(out.Palette, func(id identifier.Identifier, _ int) string { return id.String() }),
				Unresolved: n,
			})
			if err != nil {
				return errors.Wrap(err, "writing report")
			}
		}
		count.chunks.Add(1)
	}
	count.regions.Add(1)
	slog.Debug("converted region", "path", path, "chunks", len(chunks), "unresolved", missed)
	return nil
}
