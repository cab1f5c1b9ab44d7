package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/formlane/visor/pkg/platform"
)

// DBStore persists view events in a SQL database. Postgres backs server
// deployments; the same statements run against SQLite for embedded use and
// tests ($N placeholders are accepted by both drivers).
type DBStore struct {
	db *sql.DB
}

// NewDBStore creates a database-backed store and ensures its table exists.
func NewDBStore(db *sql.DB) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	store := &DBStore{db: db}
	if err := store.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure viewed_records table: %w", err)
	}
	return store, nil
}

func (s *DBStore) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS viewed_records (
		event_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		record_id TEXT NOT NULL,
		form_id TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, record_id)
	);

	CREATE INDEX IF NOT EXISTS idx_viewed_records_user_id ON viewed_records(user_id);
	`
	_, err := s.db.Exec(query)
	return err
}

// Load returns all view events recorded for the user.
func (s *DBStore) Load(ctx context.Context, userID string) ([]platform.ViewEvent, error) {
	query := `
		SELECT event_id, record_id, COALESCE(form_id, '')
		FROM viewed_records
		WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query viewed records: %w", err)
	}
	defer rows.Close()

	var events []platform.ViewEvent
	for rows.Next() {
		var ev platform.ViewEvent
		if err := rows.Scan(&ev.EventID, &ev.RecordID, &ev.FormID); err != nil {
			return nil, fmt.Errorf("scan viewed record: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Save inserts one view event. A duplicate (user, record) pair is not an
// error: the existing event id is returned instead.
func (s *DBStore) Save(ctx context.Context, userID, recordID, formID string) (string, error) {
	eventID := uuid.NewString()
	query := `
		INSERT INTO viewed_records (event_id, user_id, record_id, form_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, eventID, userID, recordID, formID, time.Now().UTC())
	if err == nil {
		return eventID, nil
	}
	if !isUniqueViolation(err) {
		return "", fmt.Errorf("insert viewed record: %w", err)
	}

	var existing string
	lookup := `SELECT event_id FROM viewed_records WHERE user_id = $1 AND record_id = $2`
	if err := s.db.QueryRowContext(ctx, lookup, userID, recordID).Scan(&existing); err != nil {
		return "", fmt.Errorf("lookup existing viewed record: %w", err)
	}
	return existing, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// SQLite reports constraint violations as plain errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
