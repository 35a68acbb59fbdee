package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_history (
	id            BIGSERIAL PRIMARY KEY,
	ts            TIMESTAMPTZ NOT NULL,
	document_id   TEXT NOT NULL,
	document_name TEXT NOT NULL,
	action        TEXT NOT NULL,
	status        TEXT NOT NULL,
	detail        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_history_ts_idx ON audit_history (ts DESC);`

// PostgresStore persists history events in PostgreSQL. Wired only when a
// DSN is configured; the single-session default stays in memory.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the connection and ensures the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := &PostgresStore{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithDB wraps an existing connection; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) (*PostgresStore, error) {
	store := &PostgresStore{db: db}
	if err := store.ensureSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) ensureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_history (ts, document_id, document_name, action, status, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.Timestamp, event.DocumentID, event.DocumentName, event.Action, event.Status, event.Detail)
	if err != nil {
		return fmt.Errorf("append history event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, document_id, document_name, action, status, detail
		 FROM audit_history ORDER BY ts DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.DocumentID, &e.DocumentName, &e.Action, &e.Status, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan history event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
