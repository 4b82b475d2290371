package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Metadata keys written after every import.
const (
	MetaImportedAt     = "imported_at"
	MetaImportID       = "import_id"
	MetaImportStrategy = "import_strategy"
	MetaFeedSource     = "feed_source"
)

// GetMetadata retrieves a value from the feed_metadata table. A missing key
// yields "".
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		db.Rebind(`SELECT value FROM feed_metadata WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores a key-value pair in the feed_metadata table.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, db.Rebind(
		`INSERT INTO feed_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
