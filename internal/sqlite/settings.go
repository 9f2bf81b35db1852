// Key/value settings shared by the board operations and the legacy migration.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

// Setting keys.
const (
	settingActiveBoard    = "active_board_id"
	settingLegacyMigrated = "legacy_json_migrated"
)

// getSetting returns the value stored under key, or "" when the key is unset.
func getSetting(q querier, key string) (string, error) {
	var value string
	err := q.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// setSetting stores value under key. An empty value removes the key.
func setSetting(q querier, key, value string) error {
	if value == "" {
		if _, err := q.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
			return fmt.Errorf("clearing setting %s: %w", key, err)
		}
		return nil
	}
	if _, err := q.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// ActiveBoardID returns the stored active board id without normalizing it
// against the index. Use GetBoards for the resolved value.
func (b *Backend) ActiveBoardID() (string, error) {
	db, err := b.conn()
	if err != nil {
		return "", err
	}
	id, err := getSetting(db, settingActiveBoard)
	if err != nil {
		return "", storageErr("reading active board", err)
	}
	return id, nil
}

// RestoreActiveBoard writes id back as the active board without checking it.
// An empty id clears the setting. Import uses this to put back the active
// board it captured before creating boards.
func (b *Backend) RestoreActiveBoard(id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if err := setSetting(db, settingActiveBoard, id); err != nil {
		return storageErr("restoring active board", err)
	}
	return nil
}
