// Package sqlite stores tray session flags in a SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-tray/core/store/sqlite")

// Store is a store.FlagStore backed by SQLite.
type Store struct {
	db *sql.DB
	// mu serialises writers; go-sqlite3 returns SQLITE_BUSY on concurrent
	// writes to the same file.
	mu sync.Mutex
}

// Open opens the database at dbPath and creates the flags table if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS flags (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Bool reads a flag. Missing keys and read failures read as false.
func (s *Store) Bool(key string) bool {
	var value bool
	err := s.db.QueryRow(`SELECT value FROM flags WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		logger.Warn("failed to read flag", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return value
}

func (s *Store) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO flags (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert flag: %w", err)
	}
	return nil
}
