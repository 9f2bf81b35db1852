// Schema DDL and initialization for the board store.
package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version after the schema is created.
const schemaVersion = 1

// Schema DDL. The layout matches stores written by earlier releases, so every
// statement is idempotent.
const (
	createBoards = `CREATE TABLE IF NOT EXISTS boards (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    collaboration_link TEXT,
    thumbnail TEXT
);`

	createFolders = `CREATE TABLE IF NOT EXISTS folders (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createIndexItems = `CREATE TABLE IF NOT EXISTS index_items (
    position INTEGER NOT NULL,
    item_type TEXT NOT NULL,
    item_id TEXT NOT NULL,
    PRIMARY KEY (position)
);`

	createFolderItems = `CREATE TABLE IF NOT EXISTS folder_items (
    folder_id TEXT NOT NULL,
    board_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (folder_id, position),
    UNIQUE (folder_id, board_id),
    FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE CASCADE,
    FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
);`

	createBoardData = `CREATE TABLE IF NOT EXISTS board_data (
    board_id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createBoards,
	createFolders,
	createIndexItems,
	createFolderItems,
	createBoardData,
	createSettings,
}

// initSchema creates any missing tables and stamps the schema version on a
// fresh store.
func initSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version == 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("stamping schema version: %w", err)
		}
	}
	return nil
}
