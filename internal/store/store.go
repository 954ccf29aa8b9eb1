// Package store persists the security event table in SQLite and exposes
// the small query surface consumed by downstream tooling.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/logtally/authtab/processors/authlog"
)

const openRetryMaxElapsed = 5 * time.Second

// ip_address is TEXT: PAM events may carry a hostname in the rhost=
// slot rather than a dotted-quad address.
const schema = `
CREATE TABLE IF NOT EXISTS security_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	ip_address TEXT NOT NULL,
	username TEXT NOT NULL,
	event_type TEXT NOT NULL,
	repetition_count INTEGER NOT NULL,
	raw_message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_security_events_event_type ON security_events (event_type);
CREATE INDEX IF NOT EXISTS idx_security_events_ip_address ON security_events (ip_address);
`

const insertSQL = `
INSERT INTO security_events
	(timestamp, ip_address, username, event_type, repetition_count, raw_message)
VALUES (?, ?, ?, ?, ?, ?)
`

// Store is a SQLite-backed event table sink.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and
// ensures the schema exists. The initial ping is retried with
// exponential backoff to ride out transient locks from concurrent
// writers.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database '%s': %w", path, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = openRetryMaxElapsed

	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database '%s': %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert appends one record to the event table.
func (s *Store) Insert(ctx context.Context, rec authlog.Record) error {
	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.Timestamp, rec.IPAddress, rec.Username,
		string(rec.EventType), rec.Repetitions, rec.RawMessage)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// InsertBatch appends recs in one transaction; either all records land
// or none do.
func (s *Store) InsertBatch(ctx context.Context, recs []authlog.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.ExecContext(ctx,
			rec.Timestamp, rec.IPAddress, rec.Username,
			string(rec.EventType), rec.Repetitions, rec.RawMessage)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// CountByEventType returns the number of stored records per event type.
func (s *Store) CountByEventType(ctx context.Context) (map[authlog.EventType]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM security_events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by event type: %w", err)
	}
	defer rows.Close()

	counts := make(map[authlog.EventType]int64)

	for rows.Next() {
		var eventType string
		var count int64

		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}

		counts[authlog.EventType(eventType)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating count rows: %w", err)
	}

	return counts, nil
}

// SourceCount is one row of the top-sources query. Attempts sums
// repetition counts, so a single collapsed "repeated N times" line
// contributes N.
type SourceCount struct {
	IPAddress string
	Attempts  int64
}

// TopSources returns the sources with the most authentication failure
// attempts, descending, at most limit rows.
func (s *Store) TopSources(ctx context.Context, limit int) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ip_address, SUM(repetition_count) AS attempts
FROM security_events
GROUP BY ip_address
ORDER BY attempts DESC, ip_address ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sources: %w", err)
	}
	defer rows.Close()

	var top []SourceCount

	for rows.Next() {
		var sc SourceCount

		if err := rows.Scan(&sc.IPAddress, &sc.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan top source row: %w", err)
		}

		top = append(top, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating top source rows: %w", err)
	}

	return top, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
