package history

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event kinds recorded for supervised services.
const (
	EventStart = "start"
	EventStop  = "stop"
	EventCrash = "crash"
)

// Event is one service lifecycle observation within a run.
type Event struct {
	Service  string
	Kind     string
	PID      int
	ExitCode sql.NullInt64
	At       time.Time
}

// Run summarizes one launcher invocation.
type Run struct {
	ID        int64
	StartedAt time.Time
	EndedAt   sql.NullTime
	Events    int
}

// Store records launcher runs and service lifecycle events in a local SQLite
// database (modernc.org/sqlite driver, CGO-free). Use ":memory:" for tests.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.ExecContext(ctx, "PRAGMA busy_timeout=3000;")
	s := &Store{db: d}
	if err := s.ensureSchema(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP NULL
		);`,
		`CREATE TABLE IF NOT EXISTS service_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			service TEXT NOT NULL,
			kind TEXT NOT NULL,
			pid INTEGER NOT NULL,
			exit_code INTEGER NULL,
			at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_events_run ON service_events(run_id);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// BeginRun records a new launcher invocation and returns its id.
func (s *Store) BeginRun(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(started_at) VALUES(?);`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// EndRun marks the run as finished.
func (s *Store) EndRun(ctx context.Context, runID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at=? WHERE id=?;`, time.Now().UTC(), runID)
	return err
}

// RecordEvent appends one service lifecycle event to the run.
func (s *Store) RecordEvent(ctx context.Context, runID int64, e Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_events(run_id, service, kind, pid, exit_code, at)
		VALUES(?, ?, ?, ?, ?, ?);`,
		runID, e.Service, e.Kind, e.PID, e.ExitCode, at.UTC())
	return err
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.ended_at, COUNT(e.id)
		FROM runs r LEFT JOIN service_events e ON e.run_id = r.id
		GROUP BY r.id ORDER BY r.id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.Events); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventsForRun returns the run's events in insertion order.
func (s *Store) EventsForRun(ctx context.Context, runID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, kind, pid, exit_code, at
		FROM service_events WHERE run_id=? ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Service, &e.Kind, &e.PID, &e.ExitCode, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
