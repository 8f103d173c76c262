package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"finchat/internal/domain"
)

// SQLiteStore implements domain.LogStore using SQLite. Each user
// identity owns a single row holding the capped conversation log as a
// JSON blob, mirroring the dashboard's one-slot-per-user persistence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and
// runs the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open log db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate log db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_logs (
			user_id    TEXT PRIMARY KEY,
			entries    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) ([]domain.Entry, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT entries FROM chat_logs WHERE user_id = ?", userID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreLoad, err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", domain.ErrStoreLoad, err)
	}
	return entries, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, entries []domain.Entry) error {
	blob, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrStoreSave, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_logs (user_id, entries, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET entries = excluded.entries, updated_at = excluded.updated_at
	`, userID, string(blob), now)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreSave, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_logs WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}

var _ domain.LogStore = (*SQLiteStore)(nil)
