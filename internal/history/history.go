// Package history persists play and remap runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/simonsays/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			recording TEXT NOT NULL,
			script TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			status TEXT NOT NULL,
			actions INTEGER NOT NULL,
			failed_index INTEGER NOT NULL,
			error TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recording ON runs(recording);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores a finished run, assigning a new id when rec.ID is empty.
func (s *Store) Insert(ctx context.Context, rec model.RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, recording, script, started_at, ended_at, status, actions, failed_index, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Kind),
		rec.Recording,
		rec.Script,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.EndedAt.UTC().Format(timeLayout),
		string(rec.Status),
		rec.Actions,
		rec.FailedIndex,
		rec.Error,
		rec.Duration().Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return rec.ID, nil
}

// Filter narrows ListRecent.
type Filter struct {
	Kind      model.RunKind
	Recording string
	Since     *time.Time
}

// ListRecent returns up to limit runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int, f Filter) ([]model.RunRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	clauses := []string{"1=1"}
	args := []any{}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Recording != "" {
		clauses = append(clauses, "recording = ?")
		args = append(args, f.Recording)
	}
	if f.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, kind, recording, script, started_at, ended_at, status, actions, failed_index, error
		FROM runs
		WHERE %s
		ORDER BY ended_at DESC
		LIMIT ?`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var rec model.RunRecord
		var kind, status, startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &kind, &rec.Recording, &rec.Script, &startedAt, &endedAt, &status, &rec.Actions, &rec.FailedIndex, &rec.Error); err != nil {
			return nil, err
		}
		rec.Kind = model.RunKind(kind)
		rec.Status = model.RunStatus(status)
		if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RecordingSummary aggregates play runs of one recording.
type RecordingSummary struct {
	Recording  string
	Runs       int
	Completed  int
	Aborted    int
	Cancelled  int
	DurationMs int64
	LastRun    time.Time
}

// SuccessRate returns the completed share of runs.
func (r RecordingSummary) SuccessRate() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.Completed) / float64(r.Runs)
}

// Summaries aggregates play runs per recording, most recently played first.
func (s *Store) Summaries(ctx context.Context) ([]RecordingSummary, error) {
	query := `SELECT recording,
		COUNT(*) AS runs,
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed,
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS aborted,
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS cancelled,
		SUM(duration_ms) AS duration_ms,
		MAX(ended_at) AS last_run
	FROM runs
	WHERE kind = ?
	GROUP BY recording
	ORDER BY last_run DESC`
	rows, err := s.db.QueryContext(ctx, query,
		string(model.StatusCompleted), string(model.StatusAborted), string(model.StatusCancelled), string(model.RunPlay))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []RecordingSummary
	for rows.Next() {
		var sum RecordingSummary
		var lastRun string
		if err := rows.Scan(&sum.Recording, &sum.Runs, &sum.Completed, &sum.Aborted, &sum.Cancelled, &sum.DurationMs, &lastRun); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, lastRun)
		if err != nil {
			return nil, err
		}
		sum.LastRun = parsed
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
