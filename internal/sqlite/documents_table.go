package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// SaveDocument replaces the board's document blob and bumps updated_at. The
// blob is stored as given; it is not parsed.
func (b *Backend) SaveDocument(id, document string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE boards SET updated_at = ? WHERE id = ?", nowUTC().UnixMilli(), id)
	if err != nil {
		return storageErr("saving document", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO board_data (board_id, data) VALUES (?, ?)",
		id, document,
	); err != nil {
		return storageErr("saving document", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing document", err)
	}

	b.logger.Debug("document saved", zap.String("board_id", id), zap.Int("bytes", len(document)))
	return nil
}

// LoadDocument returns the board's document blob. A board that has never had
// a document stored yields DefaultDocument.
func (b *Backend) LoadDocument(id string) (string, error) {
	db, err := b.conn()
	if err != nil {
		return "", err
	}

	doc, ok, err := loadDocument(db, id)
	if err != nil {
		return "", storageErr("loading document", err)
	}
	if ok {
		return doc, nil
	}

	exists, err := boardExists(db, id)
	if err != nil {
		return "", storageErr("loading document", err)
	}
	if !exists {
		return "", notFound(id)
	}
	return types.DefaultDocument, nil
}

// loadDocument reads the stored blob and reports whether a row exists.
func loadDocument(q querier, id string) (string, bool, error) {
	var doc string
	err := q.QueryRow("SELECT data FROM board_data WHERE board_id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading document %s: %w", id, err)
	}
	return doc, true, nil
}
