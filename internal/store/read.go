package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/transpiler/internal/trace"
)

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, lang, tree, tree_hash, data, output, output_hash, error_code, error_message, event_count`

type rowScanner interface {
	Scan(dest ...any) error
}

// ReadRun returns the run with id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by ID.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id COLLATE BINARY ASC`)
}

// RunsForTree returns the runs whose input tree hashed to treeHash,
// ordered by ID.
func (s *Store) RunsForTree(ctx context.Context, treeHash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE tree_hash = ?
		ORDER BY id COLLATE BINARY ASC
	`, treeHash)
}

// ReadEvents returns the dispatch events of a run in seq order.
// Returns an empty slice (not nil) when the run has none.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]trace.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, depth, name, layer, base_only
		FROM dispatch_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []trace.Event{}
	for rows.Next() {
		var e trace.Event
		if err := rows.Scan(&e.Seq, &e.Depth, &e.Name, &e.Layer, &e.BaseOnly); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var data sql.NullString
	err := row.Scan(
		&run.ID,
		&run.Lang,
		&run.Tree,
		&run.TreeHash,
		&data,
		&run.Output,
		&run.OutputHash,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.EventCount,
	)
	if err != nil {
		return Run{}, err
	}
	if data.Valid {
		s := data.String
		run.Data = &s
	}
	return run, nil
}
