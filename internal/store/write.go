package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/transpiler/internal/trace"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRun inserts a run. Duplicate IDs are ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if err := writeRun(ctx, s.db, run); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvents inserts the events of a run in one transaction. The run must
// exist.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []trace.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := writeEvents(ctx, tx, runID, events); err != nil {
			return fmt.Errorf("write events: %w", err)
		}
		return nil
	})
}

// RecordRun writes a run and its events atomically. EventCount is set from
// events.
func (s *Store) RecordRun(ctx context.Context, run Run, events []trace.Event) error {
	run.EventCount = len(events)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := writeRun(ctx, tx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if err := writeEvents(ctx, tx, run.ID, events); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func writeRun(ctx context.Context, db execer, run Run) error {
	var data any
	if run.Data != nil {
		data = *run.Data
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(id, lang, tree, tree_hash, data, output, output_hash, error_code, error_message, event_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Lang,
		run.Tree,
		run.TreeHash,
		data,
		run.Output,
		run.OutputHash,
		run.ErrorCode,
		run.ErrorMessage,
		run.EventCount,
	)
	return err
}

func writeEvents(ctx context.Context, db execer, runID string, events []trace.Event) error {
	for _, e := range events {
		_, err := db.ExecContext(ctx, `
			INSERT INTO dispatch_events (run_id, seq, depth, name, layer, base_only)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, e.Seq, e.Depth, e.Name, e.Layer, e.BaseOnly)
		if err != nil {
			return fmt.Errorf("event seq=%d: %w", e.Seq, err)
		}
	}
	return nil
}
