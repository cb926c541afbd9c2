// Package coverage records identifiers a conversion could not translate, so
// gaps in the mapping data can be found and fixed after the fact.
package coverage

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	lz4 "github.com/DataDog/golz4-2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// maxSamples bounds how many locations are kept per gap.
const maxSamples = 16

// Gap is one untranslatable identifier. Where is a free-form location and
// is not part of the gap's identity.
type Gap struct {
	Op     string `json:"op"`
	Native string `json:"native"`
	Type   string `json:"type,omitempty"`
	Reason string `json:"reason"`
	Where  string `json:"-"`
}

func (g Gap) key() Gap {
	g.Where = ""
	return g
}

// Count is a stored gap with its number of occurrences.
type Count struct {
	Gap
	Count   int64    `json:"count"`
	Samples []string `json:"samples,omitempty"`
}

// Totals summarises a finished run.
type Totals struct {
	Regions  int64 `json:"regions"`
	Chunks   int64 `json:"chunks"`
	Sections int64 `json:"sections"`
	Entries  int64 `json:"entries"`
}

type RunInfo struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Totals
	Gaps int64 `json:"gaps"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	started INTEGER NOT NULL,
	finished INTEGER,
	regions INTEGER NOT NULL DEFAULT 0,
	chunks INTEGER NOT NULL DEFAULT 0,
	sections INTEGER NOT NULL DEFAULT 0,
	entries INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS gaps (
	run_id TEXT NOT NULL REFERENCES runs(id),
	op TEXT NOT NULL,
	native TEXT NOT NULL,
	type TEXT NOT NULL,
	reason TEXT NOT NULL,
	count INTEGER NOT NULL,
	samples BLOB
);
CREATE INDEX IF NOT EXISTS gaps_run ON gaps(run_id);
`

type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening coverage db %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating coverage schema in %s", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Begin starts recording a run converting source to target.
func (s *Store) Begin(ctx context.Context, source, target string) (*Run, error) {
	r := &Run{
		ID:      uuid.New(),
		store:   s,
		started: time.Now(),
		gaps:    map[Gap]*tally{},
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO runs (id, source, target, started) VALUES (?, ?, ?, ?)",
		r.ID.String(), source, target, r.started.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "recording run")
	}
	return r, nil
}

type tally struct {
	count   int64
	samples []string
}

// Run aggregates gaps in memory until Finish writes them out. Report is
// safe for concurrent use.
type Run struct {
	ID      uuid.UUID
	store   *Store
	started time.Time

	mu   sync.Mutex
	gaps map[Gap]*tally
}

func (r *Run) Report(g Gap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.gaps[g.key()]
	if !ok {
		t = &tally{}
		r.gaps[g.key()] = t
	}
	t.count++
	if g.Where != "" && len(t.samples) < maxSamples {
		t.samples = append(t.samples, g.Where)
	}
}

// Len is the number of distinct gaps reported so far.
func (r *Run) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gaps)
}

// Finish stores the aggregated gaps and the run totals.
func (r *Run) Finish(ctx context.Context, totals Totals) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO gaps (run_id, op, native, type, reason, count, samples) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.WithStack(err)
	}
	defer stmt.Close()
	for g, t := range r.gaps {
		var blob []byte
		if len(t.samples) > 0 {
			raw, err := json.Marshal(t.samples)
			if err != nil {
				return errors.WithStack(err)
			}
			if blob, err = compress(raw); err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, r.ID.String(), g.Op, g.Native, g.Type, g.Reason, t.count, blob); err != nil {
			return errors.Wrapf(err, "storing gap %s", g.Native)
		}
	}
	_, err = tx.ExecContext(ctx, "UPDATE runs SET finished = ?, regions = ?, chunks = ?, sections = ?, entries = ? WHERE id = ?",
		time.Now().Unix(), totals.Regions, totals.Chunks, totals.Sections, totals.Entries, r.ID.String())
	if err != nil {
		return errors.Wrap(err, "finishing run")
	}
	return errors.WithStack(tx.Commit())
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.target, r.started, COALESCE(r.finished, 0),
			r.regions, r.chunks, r.sections, r.entries,
			(SELECT COUNT(*) FROM gaps g WHERE g.run_id = r.id)
		FROM runs r ORDER BY r.started DESC, r.id`)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		var ri RunInfo
		var started, finished int64
		if err := rows.Scan(&ri.ID, &ri.Source, &ri.Target, &started, &finished,
			&ri.Regions, &ri.Chunks, &ri.Sections, &ri.Entries, &ri.Gaps); err != nil {
			return nil, errors.WithStack(err)
		}
		ri.Started = time.Unix(started, 0)
		if finished != 0 {
			ri.Finished = time.Unix(finished, 0)
		}
		out = append(out, ri)
	}
	return out, errors.WithStack(rows.Err())
}

// Gaps returns the gaps of a run, most frequent first.
func (s *Store) Gaps(ctx context.Context, runID string) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT op, native, type, reason, count, samples FROM gaps WHERE run_id = ?", runID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()
	var out []Count
	for rows.Next() {
		var c Count
		var blob []byte
		if err := rows.Scan(&c.Op, &c.Native, &c.Type, &c.Reason, &c.Count, &blob); err != nil {
			return nil, errors.WithStack(err)
		}
		if len(blob) > 0 {
			raw, err := decompress(blob)
			if err != nil {
				return nil, errors.Wrapf(err, "samples of %s", c.Native)
			}
			if err := json.Unmarshal(raw, &c.Samples); err != nil {
				return nil, errors.Wrapf(err, "samples of %s", c.Native)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Native != out[j].Native {
			return out[i].Native < out[j].Native
		}
		return out[i].Op < out[j].Op
	})
	return out, nil
}

// Sample blobs carry a one byte method tag ahead of the payload; 0 is lz4.
const methodLZ4 = 0

func compress(buf []byte) ([]byte, error) {
	comp := make([]byte, lz4.CompressBoundHdr(buf)+1)
	n, err := lz4.CompressHCHdr(comp[1:], buf)
	if err != nil {
		return nil, errors.Wrap(err, "compressing samples")
	}
	comp[0] = methodLZ4
	return comp[:n+1], nil
}

func decompress(buf []byte) ([]byte, error) {
	if buf[0] != methodLZ4 {
		return nil, errors.Errorf("unknown sample encoding %d", buf[0])
	}
	decomp, err := lz4.UncompressAllocHdr(nil, buf[1:])
	return decomp, errors.Wrap(err, "decompressing samples")
}
