// One-time import of the JSON index written by earlier releases.
package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// LegacyIndexFile is the JSON index earlier releases kept in the boards
// directory. Each board's document sat next to it in <board id>.json.
const LegacyIndexFile = "index.json"

// legacyBoardsIndex is the oldest index shape: a flat list of boards.
type legacyBoardsIndex struct {
	Boards        []types.Board `json:"boards"`
	ActiveBoardID string        `json:"active_board_id"`
}

// migrateLegacy copies the legacy JSON index into the store once. The
// migrated flag is set when there is nothing to copy, when the store already
// has boards, or after a successful copy. A failed copy leaves the flag unset
// so the next Attach tries again. Legacy files are only read.
func (b *Backend) migrateLegacy() error {
	done, err := getSetting(b.db, settingLegacyMigrated)
	if err != nil {
		return storageErr("reading migration flag", err)
	}
	if done == "1" {
		return nil
	}

	indexPath := filepath.Join(b.dir, LegacyIndexFile)
	if _, err := os.Stat(indexPath); errors.Is(err, fs.ErrNotExist) {
		return b.markMigrated()
	} else if err != nil {
		return storageErr("checking legacy index", err)
	}

	var hasBoards bool
	if err := b.db.QueryRow("SELECT EXISTS(SELECT 1 FROM boards LIMIT 1)").Scan(&hasBoards); err != nil {
		return storageErr("checking existing boards", err)
	}
	if hasBoards {
		b.logger.Info("store already has boards; skipping legacy index", zap.String("path", indexPath))
		return b.markMigrated()
	}

	idx, err := readLegacyIndex(indexPath)
	if err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	inserted := make(map[string]bool)
	indexed := make(map[string]bool)
	pos := 0
	for _, it := range idx.Items {
		if indexed[it.ID()] {
			continue
		}
		indexed[it.ID()] = true

		switch it.Kind {
		case types.KindBoard:
			if err := b.insertLegacyBoard(tx, inserted, it.Board); err != nil {
				return err
			}
			if err := insertIndexItem(tx, pos, types.KindBoard, it.Board.ID); err != nil {
				return storageErr("migrating index", err)
			}
		case types.KindFolder:
			f := it.Folder
			if _, err := tx.Exec("INSERT OR REPLACE INTO folders (id, name) VALUES (?, ?)", f.ID, f.Name); err != nil {
				return storageErr("migrating folder", err)
			}
			if err := insertIndexItem(tx, pos, types.KindFolder, f.ID); err != nil {
				return storageErr("migrating index", err)
			}
			for i := range f.Items {
				member := &f.Items[i]
				if err := b.insertLegacyBoard(tx, inserted, member); err != nil {
					return err
				}
				if _, err := tx.Exec(
					"INSERT INTO folder_items (folder_id, board_id, position) VALUES (?, ?, ?)",
					f.ID, member.ID, i,
				); err != nil {
					return storageErr("migrating folder membership", err)
				}
			}
		}
		pos++
	}

	if err := setSetting(tx, settingActiveBoard, idx.ResolveActive(idx.ActiveBoardID)); err != nil {
		return storageErr("migrating active board", err)
	}
	if err := setSetting(tx, settingLegacyMigrated, "1"); err != nil {
		return storageErr("setting migration flag", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing migration", err)
	}

	b.logger.Info("legacy index migrated",
		zap.String("path", indexPath),
		zap.Int("boards", len(inserted)),
		zap.Int("items", len(idx.Items)),
	)
	return nil
}

func (b *Backend) markMigrated() error {
	if err := setSetting(b.db, settingLegacyMigrated, "1"); err != nil {
		return storageErr("setting migration flag", err)
	}
	return nil
}

// readLegacyIndex parses either index shape. A file with neither an items
// nor a boards field is an empty index.
func readLegacyIndex(path string) (*types.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageErr("reading legacy index", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", path, types.ErrMalformedInput, err)
	}

	_, hasItems := fields["items"]
	_, hasBoards := fields["boards"]

	switch {
	case hasItems:
		var idx types.Index
		if err := json.Unmarshal(data, &idx); err != nil {
			return nil, fmt.Errorf("parsing %s: %w: %w", path, types.ErrMalformedInput, err)
		}
		return &idx, nil

	case hasBoards:
		var old legacyBoardsIndex
		if err := json.Unmarshal(data, &old); err != nil {
			return nil, fmt.Errorf("parsing %s: %w: %w", path, types.ErrMalformedInput, err)
		}
		idx := &types.Index{ActiveBoardID: old.ActiveBoardID}
		for _, board := range old.Boards {
			idx.Items = append(idx.Items, types.BoardItem(board))
		}
		return idx, nil

	default:
		return &types.Index{}, nil
	}
}

// insertLegacyBoard stores a board and its companion document the first time
// its id is seen in this migration.
func (b *Backend) insertLegacyBoard(q querier, inserted map[string]bool, board *types.Board) error {
	if inserted[board.ID] {
		return nil
	}

	if _, err := q.Exec(
		"INSERT OR IGNORE INTO boards ("+boardColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		board.ID, board.Name,
		board.CreatedAt.UnixMilli(), board.UpdatedAt.UnixMilli(),
		nullString(board.CollaborationLink), nullString(board.Thumbnail),
	); err != nil {
		return storageErr("migrating board "+board.ID, err)
	}

	doc, err := b.readLegacyDocument(board.ID)
	if err != nil {
		return err
	}
	if _, err := q.Exec(
		"INSERT OR REPLACE INTO board_data (board_id, data) VALUES (?, ?)",
		board.ID, doc,
	); err != nil {
		return storageErr("migrating document "+board.ID, err)
	}

	inserted[board.ID] = true
	return nil
}

// readLegacyDocument returns the contents of <board id>.json, or the default
// document when there is no such file. Ids that are not plain file names
// never map to a file.
func (b *Backend) readLegacyDocument(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return types.DefaultDocument, nil
	}
	data, err := os.ReadFile(filepath.Join(b.dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return types.DefaultDocument, nil
	}
	if err != nil {
		return "", storageErr("reading legacy document "+id, err)
	}
	return string(data), nil
}
