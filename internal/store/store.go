// Package store persists decoded telemetry runs to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sensorlocator/internal/telemetry"
)

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{1, "create_telemetry_runs", `
        CREATE TABLE IF NOT EXISTS telemetry_runs (
            id UUID PRIMARY KEY,
            source TEXT NOT NULL,
            record_count INTEGER NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`},
	{2, "create_telemetry_records", `
        CREATE TABLE IF NOT EXISTS telemetry_records (
            run_id UUID NOT NULL REFERENCES telemetry_runs(id) ON DELETE CASCADE,
            seq INTEGER NOT NULL,
            ts BIGINT NOT NULL,
            sensor_id BIGINT NOT NULL,
            length INTEGER NOT NULL,
            summary TEXT NOT NULL,
            PRIMARY KEY (run_id, seq)
        )`},
	{3, "create_telemetry_readings", `
        CREATE TABLE IF NOT EXISTS telemetry_readings (
            run_id UUID NOT NULL,
            record_seq INTEGER NOT NULL,
            field_seq INTEGER NOT NULL,
            value_seq INTEGER NOT NULL,
            code TEXT NOT NULL,
            name TEXT NOT NULL,
            unit TEXT NOT NULL,
            value DOUBLE PRECISION NOT NULL,
            FOREIGN KEY (run_id, record_seq) REFERENCES telemetry_records(run_id, seq) ON DELETE CASCADE
        )`},
	{4, "index_readings_by_code", `
        CREATE INDEX IF NOT EXISTS idx_telemetry_readings_code ON telemetry_readings(code)`},
}

var ErrRunExists = errors.New("run already stored")

type Store struct {
	db *sql.DB
	// Quiet suppresses migration progress logging.
	Quiet bool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("store: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) logf(format string, args ...any) {
	if !s.Quiet {
		log.Printf(format, args...)
	}
}

// Migrate applies pending schema migrations, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("store: read applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store: apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", m.Version, err)
		}
		s.logf("store: applied migration version=%d name=%s", m.Version, m.Name)
	}
	return nil
}

// SaveRun writes a run, its records and every field value in one
// transaction. Readings are bulk-loaded with COPY.
func (s *Store) SaveRun(ctx context.Context, runID uuid.UUID, source string, records []telemetry.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := saveRun(ctx, tx, runID, source, records); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	s.logf("store: run saved id=%s records=%d", runID, len(records))
	return nil
}

func saveRun(ctx context.Context, tx *sql.Tx, runID uuid.UUID, source string, records []telemetry.Record) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO telemetry_runs (id, source, record_count) VALUES ($1, $2, $3)",
		runID, source, len(records)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrRunExists, runID)
		}
		return fmt.Errorf("store: insert run: %w", err)
	}

	if err := copyRows(ctx, tx, pq.CopyIn("telemetry_records", "run_id", "seq", "ts", "sensor_id", "length", "summary"),
		func(add func(args ...any) error) error {
			for i, rec := range records {
				if err := add(runID, i, rec.Timestamp, rec.SensorID, rec.Length, rec.String()); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return fmt.Errorf("store: copy records: %w", err)
	}

	if err := copyRows(ctx, tx, pq.CopyIn("telemetry_readings", "run_id", "record_seq", "field_seq", "value_seq", "code", "name", "unit", "value"),
		func(add func(args ...any) error) error {
			for i, rec := range records {
				for j, f := range rec.Fields {
					for k, v := range f.Values {
						if err := add(runID, i, j, k, string(f.Code), f.Name, v.Unit, v.Value); err != nil {
							return err
						}
					}
				}
			}
			return nil
		}); err != nil {
		return fmt.Errorf("store: copy readings: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, query string, fill func(add func(args ...any) error) error) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	add := func(args ...any) error {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	}
	if err := fill(add); err != nil {
		_ = stmt.Close()
		return err
	}
	// An Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// RunSummary holds the stored counters of one run.
type RunSummary struct {
	ID       uuid.UUID
	Source   string
	Records  int
	Readings int
}

// Run reads back the stored counters for one run.
func (s *Store) Run(ctx context.Context, runID uuid.UUID) (RunSummary, error) {
	var rs RunSummary
	err := s.db.QueryRowContext(ctx, `
        SELECT r.id, r.source, r.record_count,
               (SELECT COUNT(*) FROM telemetry_readings WHERE run_id = r.id)
        FROM telemetry_runs r
        WHERE r.id = $1`, runID).Scan(&rs.ID, &rs.Source, &rs.Records, &rs.Readings)
	if err != nil {
		return RunSummary{}, err
	}
	return rs, nil
}
