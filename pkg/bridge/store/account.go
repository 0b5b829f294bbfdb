// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// AccountStore persists linked Mastodon account credentials per Telegram
// user. The payload is opaque to the store; the mastodon package owns its
// wire format.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates an AccountStore on db.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Save upserts the credentials blob for a Telegram user.
func (s *AccountStore) Save(ctx context.Context, tgUserID int64, credentials []byte) error {
	_, err := s.db.sql.ExecContext(ctx, `
		INSERT OR REPLACE INTO mastodon_login_user (tg_user_id, credentials_json)
		VALUES (?, ?)`,
		tgUserID, string(credentials),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Load returns the credentials blob for a Telegram user, or ErrNotFound.
func (s *AccountStore) Load(ctx context.Context, tgUserID int64) ([]byte, error) {
	var credentials string
	err := s.db.sql.QueryRowContext(ctx, `
		SELECT credentials_json
		FROM mastodon_login_user
		WHERE tg_user_id = ?`,
		tgUserID,
	).Scan(&credentials)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return []byte(credentials), nil
}

// Delete removes the credentials of a Telegram user. Deleting a user that
// was never linked is not an error.
func (s *AccountStore) Delete(ctx context.Context, tgUserID int64) error {
	_, err := s.db.sql.ExecContext(ctx, `
		DELETE FROM mastodon_login_user
		WHERE tg_user_id = ?`,
		tgUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// ListUserIDs returns the Telegram user IDs of every linked account.
func (s *AccountStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT tg_user_id
		FROM mastodon_login_user
		ORDER BY tg_user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return ids, nil
}

// AppStore persists registered OAuth applications per Mastodon domain, so a
// domain is registered against at most once.
type AppStore struct {
	db *DB
}

// NewAppStore creates an AppStore on db.
func NewAppStore(db *DB) *AppStore {
	return &AppStore{db: db}
}

// Save stores the app registration blob for a domain.
func (s *AppStore) Save(ctx context.Context, domain string, app []byte) error {
	_, err := s.db.sql.ExecContext(ctx, `
		INSERT OR REPLACE INTO mastodon_client (domain, app_json)
		VALUES (?, ?)`,
		domain, string(app),
	)
	if err != nil {
		return fmt.Errorf("failed to save app registration: %w", err)
	}
	return nil
}

// Load returns the app registration blob for a domain, or ErrNotFound.
func (s *AppStore) Load(ctx context.Context, domain string) ([]byte, error) {
	var app string
	err := s.db.sql.QueryRowContext(ctx, `
		SELECT app_json
		FROM mastodon_client
		WHERE domain = ?`,
		domain,
	).Scan(&app)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load app registration: %w", err)
	}
	return []byte(app), nil
}
