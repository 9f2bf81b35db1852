// Index reconstruction and bulk reordering.
package sqlite

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// GetBoards rebuilds the ordered index from storage. The stored active board
// is resolved against the index and written back when resolution changed it.
func (b *Backend) GetBoards() (*types.Index, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	idx, err := loadIndex(tx)
	if err != nil {
		return nil, storageErr("loading index", err)
	}

	if idx.Normalize() {
		if err := setSetting(tx, settingActiveBoard, idx.ActiveBoardID); err != nil {
			return nil, storageErr("normalizing active board", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, storageErr("committing active board", err)
		}
		b.logger.Debug("active board normalized", zap.String("board_id", idx.ActiveBoardID))
	}
	return idx, nil
}

// SetBoardsIndex replaces the whole ordering and folder membership with
// items. Folders without members are dropped. The returned index is re-read
// from storage after the write, so passing it back in changes nothing.
//
// Returns ErrInvalidIndex for structurally invalid items and ErrNotFound when
// an item names a board that is not stored. Either leaves storage untouched.
func (b *Backend) SetBoardsIndex(items []types.ListItem) (*types.Index, error) {
	if err := types.ValidateItems(items); err != nil {
		return nil, err
	}

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"index_items", "folder_items", "folders"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return nil, storageErr("clearing "+table, err)
		}
	}

	if err := writeItems(tx, items); err != nil {
		return nil, err
	}

	idx, err := loadIndex(tx)
	if err != nil {
		return nil, storageErr("reloading index", err)
	}
	idx.Normalize()
	if err := setSetting(tx, settingActiveBoard, idx.ActiveBoardID); err != nil {
		return nil, storageErr("normalizing active board", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing index", err)
	}

	b.logger.Debug("index replaced", zap.Int("items", len(idx.Items)))
	return idx, nil
}

// writeItems stores items at contiguous positions starting from zero. Board
// existence is checked here; anything else is expected to have been
// validated already.
func writeItems(q querier, items []types.ListItem) error {
	pos := 0
	for _, it := range items {
		switch it.Kind {
		case types.KindBoard:
			if err := requireBoard(q, it.Board.ID); err != nil {
				return err
			}
			if err := insertIndexItem(q, pos, types.KindBoard, it.Board.ID); err != nil {
				return storageErr("writing index", err)
			}
			pos++

		case types.KindFolder:
			f := it.Folder
			if f.Empty() {
				continue
			}
			if _, err := q.Exec("INSERT OR REPLACE INTO folders (id, name) VALUES (?, ?)", f.ID, f.Name); err != nil {
				return storageErr("writing folder", err)
			}
			for i, member := range f.Items {
				if err := requireBoard(q, member.ID); err != nil {
					return err
				}
				if _, err := q.Exec(
					"INSERT INTO folder_items (folder_id, board_id, position) VALUES (?, ?, ?)",
					f.ID, member.ID, i,
				); err != nil {
					return storageErr("writing folder membership", err)
				}
			}
			if err := insertIndexItem(q, pos, types.KindFolder, f.ID); err != nil {
				return storageErr("writing index", err)
			}
			pos++
		}
	}
	return nil
}

func requireBoard(q querier, id string) error {
	exists, err := boardExists(q, id)
	if err != nil {
		return storageErr("checking board", err)
	}
	if !exists {
		return notFound(id)
	}
	return nil
}

func insertIndexItem(q querier, pos int, kind types.ItemKind, id string) error {
	_, err := q.Exec(
		"INSERT INTO index_items (position, item_type, item_id) VALUES (?, ?, ?)",
		pos, string(kind), id,
	)
	if err != nil {
		return fmt.Errorf("inserting index item %s: %w", id, err)
	}
	return nil
}

// appendIndexItem adds an entry after the last top-level position.
func appendIndexItem(q querier, kind types.ItemKind, id string) error {
	var next int
	if err := q.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM index_items").Scan(&next); err != nil {
		return fmt.Errorf("reading next index position: %w", err)
	}
	return insertIndexItem(q, next, kind, id)
}

type indexRow struct {
	kind types.ItemKind
	id   string
}

// loadIndex assembles the index from its tables. Entries naming missing
// boards are passed over and folders without members are left out. The
// active board is returned as stored; callers normalize it.
func loadIndex(q querier) (*types.Index, error) {
	boards, err := loadBoardMap(q)
	if err != nil {
		return nil, err
	}
	folderNames, err := loadFolderNames(q)
	if err != nil {
		return nil, err
	}
	members, err := loadFolderMembers(q)
	if err != nil {
		return nil, err
	}
	order, err := loadIndexRows(q)
	if err != nil {
		return nil, err
	}

	idx := &types.Index{Items: []types.ListItem{}}
	for _, r := range order {
		switch r.kind {
		case types.KindBoard:
			if board, ok := boards[r.id]; ok {
				idx.Items = append(idx.Items, types.BoardItem(*board))
			}
		case types.KindFolder:
			name, ok := folderNames[r.id]
			if !ok {
				continue
			}
			folder := types.Folder{ID: r.id, Name: name}
			for _, boardID := range members[r.id] {
				if board, ok := boards[boardID]; ok {
					folder.Items = append(folder.Items, *board)
				}
			}
			if folder.Empty() {
				continue
			}
			idx.Items = append(idx.Items, types.FolderItem(folder))
		}
	}

	idx.ActiveBoardID, err = getSetting(q, settingActiveBoard)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func loadBoardMap(q querier) (map[string]*types.Board, error) {
	rows, err := q.Query("SELECT " + boardColumns + " FROM boards")
	if err != nil {
		return nil, fmt.Errorf("querying boards: %w", err)
	}
	defer rows.Close()

	boards := make(map[string]*types.Board)
	for rows.Next() {
		board, err := hydrateBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		boards[board.ID] = board
	}
	return boards, rows.Err()
}

func loadFolderNames(q querier) (map[string]string, error) {
	rows, err := q.Query("SELECT id, name FROM folders")
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// loadFolderMembers returns board ids per folder in position order.
func loadFolderMembers(q querier) (map[string][]string, error) {
	rows, err := q.Query("SELECT folder_id, board_id FROM folder_items ORDER BY folder_id, position")
	if err != nil {
		return nil, fmt.Errorf("querying folder items: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var folderID, boardID string
		if err := rows.Scan(&folderID, &boardID); err != nil {
			return nil, fmt.Errorf("scanning folder item: %w", err)
		}
		members[folderID] = append(members[folderID], boardID)
	}
	return members, rows.Err()
}

func loadIndexRows(q querier) ([]indexRow, error) {
	rows, err := q.Query("SELECT item_type, item_id FROM index_items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var out []indexRow
	for rows.Next() {
		var r indexRow
		var kind string
		if err := rows.Scan(&kind, &r.id); err != nil {
			return nil, fmt.Errorf("scanning index item: %w", err)
		}
		r.kind = types.ItemKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// compactPositions renumbers the top-level index and every folder to
// contiguous positions from zero, keeping relative order.
func compactPositions(q querier) error {
	order, err := loadIndexRows(q)
	if err != nil {
		return err
	}
	if _, err := q.Exec("DELETE FROM index_items"); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	for i, r := range order {
		if err := insertIndexItem(q, i, r.kind, r.id); err != nil {
			return err
		}
	}

	members, err := loadFolderMembers(q)
	if err != nil {
		return err
	}
	if _, err := q.Exec("DELETE FROM folder_items"); err != nil {
		return fmt.Errorf("clearing folder items: %w", err)
	}
	for folderID, boardIDs := range members {
		for i, boardID := range boardIDs {
			if _, err := q.Exec(
				"INSERT INTO folder_items (folder_id, board_id, position) VALUES (?, ?, ?)",
				folderID, boardID, i,
			); err != nil {
				return fmt.Errorf("rewriting folder item: %w", err)
			}
		}
	}
	return nil
}
