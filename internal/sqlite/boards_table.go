// Board row operations: create, rename, delete, duplicate, and metadata
// updates.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

const boardColumns = "id, name, created_at, updated_at, collaboration_link, thumbnail"

// CreateBoard creates a board with a fresh id and an empty document, appends
// it to the end of the top-level index, and makes it the active board. The
// four writes commit together or not at all.
func (b *Backend) CreateBoard(name string) (*types.Board, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	board := &types.Board{
		ID:        generateUUID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := insertBoard(tx, board, types.DefaultDocument); err != nil {
		return nil, storageErr("creating board", err)
	}
	if err := appendIndexItem(tx, types.KindBoard, board.ID); err != nil {
		return nil, storageErr("creating board", err)
	}
	if err := setSetting(tx, settingActiveBoard, board.ID); err != nil {
		return nil, storageErr("creating board", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing board creation", err)
	}

	b.logger.Debug("board created", zap.String("board_id", board.ID), zap.String("name", name))
	return board, nil
}

// GetBoard returns the board with the given id.
func (b *Backend) GetBoard(id string) (*types.Board, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	return getBoard(db, id)
}

// RenameBoard sets the board's name and bumps updated_at.
func (b *Backend) RenameBoard(id, name string) (*types.Board, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	res, err := db.Exec(
		"UPDATE boards SET name = ?, updated_at = ? WHERE id = ?",
		name, nowUTC().UnixMilli(), id,
	)
	if err != nil {
		return nil, storageErr("renaming board", err)
	}
	if err := requireRow(res, id); err != nil {
		return nil, err
	}
	return getBoard(db, id)
}

// DeleteBoard removes the board, its document, its index entry, and its
// folder membership. Folders left empty are dropped with their index entries,
// positions are renumbered, and when the board was active the first
// remaining reachable board becomes active (or none).
func (b *Backend) DeleteBoard(id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM board_data WHERE board_id = ?", id); err != nil {
		return storageErr("deleting board document", err)
	}
	res, err := tx.Exec("DELETE FROM boards WHERE id = ?", id)
	if err != nil {
		return storageErr("deleting board", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	// Cascades are spelled out: folder pruning is not a foreign-key rule.
	steps := []struct {
		action string
		query  string
		args   []any
	}{
		{"deleting index entry", "DELETE FROM index_items WHERE item_type = 'board' AND item_id = ?", []any{id}},
		{"deleting folder membership", "DELETE FROM folder_items WHERE board_id = ?", []any{id}},
		{"pruning empty folders", "DELETE FROM folders WHERE id NOT IN (SELECT DISTINCT folder_id FROM folder_items)", nil},
		{"pruning folder index entries", "DELETE FROM index_items WHERE item_type = 'folder' AND item_id NOT IN (SELECT id FROM folders)", nil},
	}
	for _, s := range steps {
		if _, err := tx.Exec(s.query, s.args...); err != nil {
			return storageErr(s.action, err)
		}
	}

	if err := compactPositions(tx); err != nil {
		return storageErr("renumbering index", err)
	}

	active, err := getSetting(tx, settingActiveBoard)
	if err != nil {
		return storageErr("deleting board", err)
	}
	if active == id {
		idx, err := loadIndex(tx)
		if err != nil {
			return storageErr("deleting board", err)
		}
		next := idx.FirstBoardID()
		if err := setSetting(tx, settingActiveBoard, next); err != nil {
			return storageErr("reassigning active board", err)
		}
		b.logger.Debug("active board reassigned", zap.String("from", id), zap.String("to", next))
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing board deletion", err)
	}

	b.logger.Debug("board deleted", zap.String("board_id", id))
	return nil
}

// SetActiveBoard records id as the active board. The id must name a stored
// board; reachability through the index is checked on the next read.
func (b *Backend) SetActiveBoard(id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	exists, err := boardExists(db, id)
	if err != nil {
		return storageErr("setting active board", err)
	}
	if !exists {
		return notFound(id)
	}
	if err := setSetting(db, settingActiveBoard, id); err != nil {
		return storageErr("setting active board", err)
	}
	return nil
}

// SetCollaborationLink sets or, with a nil link, clears the board's
// collaboration link and bumps updated_at.
func (b *Backend) SetCollaborationLink(id string, link *string) error {
	return b.updateOptionalColumn("collaboration_link", id, link)
}

// SetThumbnail sets or, with a nil thumbnail, clears the board's thumbnail
// and bumps updated_at.
func (b *Backend) SetThumbnail(id string, thumbnail *string) error {
	return b.updateOptionalColumn("thumbnail", id, thumbnail)
}

func (b *Backend) updateOptionalColumn(column, id string, value *string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		"UPDATE boards SET "+column+" = ?, updated_at = ? WHERE id = ?",
		nullString(value), nowUTC().UnixMilli(), id,
	)
	if err != nil {
		return storageErr("updating "+column, err)
	}
	return requireRow(res, id)
}

// DuplicateBoard copies the board under a new id and name. The copy keeps the
// thumbnail and document, drops the collaboration link, and is appended at
// the top level even when the source sits in a folder. The active board is
// not changed.
func (b *Backend) DuplicateBoard(id, name string) (*types.Board, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	source, err := getBoard(tx, id)
	if err != nil {
		return nil, err
	}
	doc, ok, err := loadDocument(tx, id)
	if err != nil {
		return nil, storageErr("reading board document", err)
	}
	if !ok {
		doc = types.DefaultDocument
	}

	now := nowUTC()
	clone := &types.Board{
		ID:        generateUUID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Thumbnail: source.Thumbnail,
	}

	if err := insertBoard(tx, clone, doc); err != nil {
		return nil, storageErr("duplicating board", err)
	}
	if err := appendIndexItem(tx, types.KindBoard, clone.ID); err != nil {
		return nil, storageErr("duplicating board", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing board duplicate", err)
	}

	b.logger.Debug("board duplicated", zap.String("source_id", id), zap.String("board_id", clone.ID))
	return clone, nil
}

// BoardNames returns the name of every stored board keyed by id, including
// boards the index does not reach.
func (b *Backend) BoardNames() (map[string]string, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT id, name FROM boards")
	if err != nil {
		return nil, storageErr("listing boards", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, storageErr("scanning board", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating boards", err)
	}
	return names, nil
}

// insertBoard writes the board row and its document.
func insertBoard(q querier, board *types.Board, document string) error {
	_, err := q.Exec(
		"INSERT INTO boards ("+boardColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		board.ID, board.Name,
		board.CreatedAt.UnixMilli(), board.UpdatedAt.UnixMilli(),
		nullString(board.CollaborationLink), nullString(board.Thumbnail),
	)
	if err != nil {
		return fmt.Errorf("inserting board: %w", err)
	}
	if _, err := q.Exec("INSERT INTO board_data (board_id, data) VALUES (?, ?)", board.ID, document); err != nil {
		return fmt.Errorf("inserting board document: %w", err)
	}
	return nil
}

// getBoard reads one board row, returning ErrNotFound when absent.
func getBoard(q querier, id string) (*types.Board, error) {
	row := q.QueryRow("SELECT "+boardColumns+" FROM boards WHERE id = ?", id)
	board, err := hydrateBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageErr("reading board", err)
	}
	return board, nil
}

func boardExists(q querier, id string) (bool, error) {
	var exists bool
	if err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM boards WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking board %s: %w", id, err)
	}
	return exists, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateBoard converts a boards row into a *types.Board.
func hydrateBoard(row scanner) (*types.Board, error) {
	var (
		b                    types.Board
		createdAt, updatedAt int64
		link, thumbnail      sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &createdAt, &updatedAt, &link, &thumbnail); err != nil {
		return nil, err
	}
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	b.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if link.Valid {
		b.CollaborationLink = &link.String
	}
	if thumbnail.Valid {
		b.Thumbnail = &thumbnail.String
	}
	return &b, nil
}

// requireRow maps an UPDATE or DELETE that matched nothing to ErrNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("reading affected rows", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("board %s: %w", id, types.ErrNotFound)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nowUTC returns the current time truncated to the millisecond precision the
// store keeps.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
