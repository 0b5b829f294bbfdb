// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aiku/telegram-mastodon-sync/pkg/bridge/media"
)

// MediaGroupStore caches the media of physical messages belonging to one
// logical media group. Messages of a group arrive as independent async
// events with no completion signal, so items are recorded as they are seen
// and only read back, in full, when a publish targets the group.
type MediaGroupStore struct {
	db *DB
}

// NewMediaGroupStore creates a MediaGroupStore on db.
func NewMediaGroupStore(db *DB) *MediaGroupStore {
	return &MediaGroupStore{db: db}
}

// Record upserts the media item of one message, keyed by (groupID, msgID).
// The last write for a key wins, so redelivered updates are harmless.
func (s *MediaGroupStore) Record(ctx context.Context, groupID string, msgID int, item *media.Item) error {
	mediaJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to serialize media item: %w", err)
	}
	_, err = s.db.sql.ExecContext(ctx, `
		INSERT OR REPLACE INTO telegram_media_group (group_id, msg_id, media_json)
		VALUES (?, ?, ?)`,
		groupID, msgID, string(mediaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record media group item: %w", err)
	}
	return nil
}

// Resolve returns every recorded item of the group ordered by message ID
// ascending. A group may still be growing when it is resolved; whatever has
// arrived so far is returned.
func (s *MediaGroupStore) Resolve(ctx context.Context, groupID string) ([]*media.Item, error) {
	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT media_json
		FROM telegram_media_group
		WHERE group_id = ?
		ORDER BY msg_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query media group: %w", err)
	}
	defer rows.Close()

	var items []*media.Item
	for rows.Next() {
		var mediaJSON string
		if err := rows.Scan(&mediaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan media group row: %w", err)
		}
		item := &media.Item{}
		if err := json.Unmarshal([]byte(mediaJSON), item); err != nil {
			return nil, fmt.Errorf("failed to deserialize media item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media group rows: %w", err)
	}
	return items, nil
}
