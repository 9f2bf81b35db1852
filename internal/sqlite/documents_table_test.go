package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/easel/pkg/types"
)

func TestLoadDocument_Default(t *testing.T) {
	b, _ := newTestBackend(t)
	board := mustCreate(t, b, "Blank")[0]

	// A board row without a document row still loads the default.
	_, err := b.db.Exec("DELETE FROM board_data WHERE board_id = ?", board.ID)
	require.NoError(t, err)

	doc, err := b.LoadDocument(board.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"excalidraw": null, "excalidraw-state": null}`, doc)
}

func TestSaveDocument(t *testing.T) {
	b, _ := newTestBackend(t)
	board := mustCreate(t, b, "Sketch")[0]

	time.Sleep(5 * time.Millisecond)
	blob := `{"excalidraw":{"elements":[{"id":"e1"}]},"excalidraw-state":{"zoom":1}}`
	require.NoError(t, b.SaveDocument(board.ID, blob))

	doc, err := b.LoadDocument(board.ID)
	require.NoError(t, err)
	assert.Equal(t, blob, doc, "blob is stored verbatim")

	stored, err := b.GetBoard(board.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.After(board.UpdatedAt))

	require.NoError(t, b.SaveDocument(board.ID, "not even json"))
	doc, err = b.LoadDocument(board.ID)
	require.NoError(t, err)
	assert.Equal(t, "not even json", doc)
}

func TestDocument_NotFound(t *testing.T) {
	b, _ := newTestBackend(t)

	err := b.SaveDocument("missing", "{}")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = b.LoadDocument("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	var rows int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM board_data").Scan(&rows))
	assert.Zero(t, rows, "failed save writes nothing")
}
