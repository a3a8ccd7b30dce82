// Package store is the local offline cache: the last-known flow snapshot
// and chat history per (driver, year), so the client can render something
// consistent when the backend is unreachable. The cache is never
// authoritative; every successful fetch overwrites it wholesale.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens the cache database at the given path, creating parent
// directories as needed. ":memory:" gives an in-memory cache. Sets WAL
// mode and runs migrations.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS flow_snapshots (
		driver_id  INTEGER NOT NULL,
		year       INTEGER NOT NULL,
		payload    TEXT    NOT NULL,
		fetched_at TEXT    NOT NULL,
		PRIMARY KEY (driver_id, year)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		driver_id   INTEGER NOT NULL,
		message_id  TEXT    NOT NULL,
		sender_id   INTEGER NOT NULL,
		body        TEXT    NOT NULL,
		sent_at     TEXT    NOT NULL,
		PRIMARY KEY (driver_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_driver
		ON chat_messages (driver_id, sent_at)`,
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
