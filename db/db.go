package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"mentormuni-server/journal"
	"mentormuni-server/utils"
)

// InitDB initializes the PostgreSQL database connection pool
func InitDB(ctx context.Context, connString string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Ping the database to verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return pool, nil
}

// CreateSchema sets up the journal table.
// In a production environment, use a proper migration tool (e.g., golang-migrate).
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS journal_entries (
		id BIGSERIAL PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		recorded_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		payload JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS journal_entries_kind_id_idx ON journal_entries (kind, id DESC);
	`
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

// EventStore mirrors journal entries into PostgreSQL.
type EventStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool, now: time.Now}
}

// Record inserts one entry. The payload carries the same "ts" field as the
// file journal so both sources render identically.
func (s *EventStore) Record(ctx context.Context, kind journal.Kind, fields map[string]any) error {
	ts := s.now().UTC()
	payload := utils.NonEmptyFields(fields)
	payload["ts"] = ts.Format(time.RFC3339Nano)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", kind, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO journal_entries (kind, recorded_at, payload)
		VALUES ($1, $2, $3)
	`, string(kind), ts, body)
	if err != nil {
		return fmt.Errorf("failed to insert %s entry: %w", kind, err)
	}
	return nil
}

// Recent returns up to limit entries of kind, newest first.
func (s *EventStore) Recent(ctx context.Context, kind journal.Kind, limit int) ([]journal.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM journal_entries
		WHERE kind = $1
		ORDER BY id DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s entries: %w", kind, err)
	}
	defer rows.Close()

	entries := []journal.Entry{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s entry: %w", kind, err)
		}
		var e journal.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s entries: %w", kind, err)
	}
	return entries, nil
}
