// Package analytics keeps per-phone usage counters in SQLite.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"remind-lab/domain"
	"time"

	_ "modernc.org/sqlite"
)

type Counter string

const (
	Messages  Counter = "messages"
	Reminders Counter = "reminders"
	Completed Counter = "completed"
	Notified  Counter = "notified"
	Failed    Counter = "failed"
)

func (c Counter) valid() bool {
	switch c {
	case Messages, Reminders, Completed, Notified, Failed:
		return true
	default:
		return false
	}
}

// Store is safe for concurrent use; SQLite runs in WAL mode.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate analytics: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analytics (
		phone      TEXT PRIMARY KEY,
		messages   INTEGER NOT NULL DEFAULT 0,
		reminders  INTEGER NOT NULL DEFAULT 0,
		completed  INTEGER NOT NULL DEFAULT 0,
		notified   INTEGER NOT NULL DEFAULT 0,
		failed     INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Incr adds one to a counter of phone, creating the row on first use.
func (s *Store) Incr(ctx context.Context, phone string, c Counter) error {
	if !c.valid() {
		return fmt.Errorf("unknown counter %q", c)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	// The column name comes from the closed Counter set above.
	query := fmt.Sprintf(
		`INSERT INTO analytics (phone, %[1]s, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(phone) DO UPDATE SET %[1]s = %[1]s + 1, updated_at = excluded.updated_at`, c)
	return retryOnContention(func() error {
		_, err := s.db.ExecContext(ctx, query, phone, now)
		return err
	})
}

// Get returns the counters of phone, all zero when nothing was recorded.
func (s *Store) Get(ctx context.Context, phone string) (domain.Analytics, error) {
	a := domain.Analytics{Phone: phone}
	err := s.db.QueryRowContext(ctx,
		`SELECT messages, reminders, completed, notified, failed FROM analytics WHERE phone = ?`, phone,
	).Scan(&a.Messages, &a.Reminders, &a.Completed, &a.Notified, &a.Failed)
	if err == sql.ErrNoRows {
		return a, nil
	}
	return a, err
}

// List returns every phone's counters ordered by message volume.
func (s *Store) List(ctx context.Context) ([]domain.Analytics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phone, messages, reminders, completed, notified, failed FROM analytics ORDER BY messages DESC, phone`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Analytics
	for rows.Next() {
		var a domain.Analytics
		if err := rows.Scan(&a.Phone, &a.Messages, &a.Reminders, &a.Completed, &a.Notified, &a.Failed); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
