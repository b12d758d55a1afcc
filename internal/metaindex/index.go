// Package metaindex keeps a SQLite index of every cell a run wrote, so
// grids can be searched by parameter after the fact.
package metaindex

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/axisgrid/internal/artifact"
	_ "modernc.org/sqlite"
)

// schema.sql creates the cells table and its run index.
//
//go:embed schema.sql
var schemaSQL string

// Entry is one indexed cell.
type Entry struct {
	RunID     string
	Path      string
	Axes      map[string]string
	Params    map[string]any
	Info      string
	Seed      int64
	CreatedAt time.Time
}

// Index is a run-scoped handle on the database. It implements
// artifact.Recorder.
type Index struct {
	db    *sql.DB
	runID string
}

// Open opens (or creates) the database at path and starts a new run.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}
	// Saver goroutines write concurrently; serialize them on one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}
	return &Index{db: db, runID: uuid.New().String()}, nil
}

// RunID identifies the run entries are recorded under.
func (x *Index) RunID() string {
	return x.runID
}

// Record implements artifact.Recorder.
func (x *Index) Record(ctx context.Context, rec artifact.Record) error {
	axes, err := json.Marshal(rec.Axes)
	if err != nil {
		return fmt.Errorf("failed to encode axes: %w", err)
	}
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	_, err = x.db.ExecContext(ctx, `
		INSERT INTO cells (run_id, path, axes_json, params_json, infotext, seed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, x.runID, rec.Path, string(axes), string(params), rec.Info, rec.Seed, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert cell %s: %w", rec.Path, err)
	}
	return nil
}

// ListRun returns the entries of runID in insertion order.
func (x *Index) ListRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT run_id, path, axes_json, params_json, infotext, seed, created_at
		FROM cells WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			axes, params   string
			createdAtEpoch int64
		)
		if err := rows.Scan(&e.RunID, &e.Path, &axes, &params, &e.Info, &e.Seed, &createdAtEpoch); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		if err := json.Unmarshal([]byte(axes), &e.Axes); err != nil {
			return nil, fmt.Errorf("failed to decode axes of %s: %w", e.Path, err)
		}
		if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of %s: %w", e.Path, err)
		}
		e.CreatedAt = time.Unix(createdAtEpoch, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}
