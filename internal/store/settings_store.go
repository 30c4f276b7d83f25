package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting returns the stored value for key, or def when none is stored.
func (s *SQLiteStore) GetSetting(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, storageErr("get setting", fmt.Errorf("%s: %w", key, err))
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return storageErr("set setting", fmt.Errorf("%s: %w", key, err))
	}
	return nil
}
