// Copyright 2024-2026 Aiku AI

// Package store persists the bridge's durable state in SQLite: cached media
// group items, linked Mastodon accounts, and registered OAuth apps.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS telegram_media_group (
	group_id   TEXT    NOT NULL,
	msg_id     INTEGER NOT NULL,
	media_json TEXT    NOT NULL,
	PRIMARY KEY (group_id, msg_id)
);
CREATE TABLE IF NOT EXISTS mastodon_login_user (
	tg_user_id       INTEGER PRIMARY KEY,
	credentials_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mastodon_client (
	domain   TEXT PRIMARY KEY,
	app_json TEXT NOT NULL
);
`

// DB wraps the SQLite connection shared by the stores.
type DB struct {
	sql *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string, log zerolog.Logger) (*DB, error) {
	log = log.With().Str("component", "store").Logger()
	log.Info().Str("path", path).Msg("Opening database")

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent publish requests.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &DB{sql: sqlDB, log: log}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.sql.Close()
}
