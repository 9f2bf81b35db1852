// Unit tests for the one-time migration of the legacy JSON index.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/easel/pkg/types"
)

const legacyItemsIndex = `{
  "items": [
    {"type": "board", "id": "b1", "name": "Top", "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-03T03:04:05Z", "collaboration_link": null, "thumbnail": "thumb-1"},
    {"type": "folder", "id": "f1", "name": "Projects", "items": [
      {"id": "b2", "name": "Inner", "created_at": "2024-02-01T00:00:00Z", "updated_at": "2024-02-01T00:00:00Z", "collaboration_link": "https://excalidraw.com/#room=r,k", "thumbnail": null},
      {"id": "b3", "name": "Second", "created_at": "2024-02-02T00:00:00Z", "updated_at": "2024-02-02T00:00:00Z"}
    ]}
  ],
  "active_board_id": "b2"
}`

const legacyBoardsIndexJSON = `{
  "boards": [
    {"id": "old1", "name": "Alpha", "created_at": "2023-05-01T10:00:00Z", "updated_at": "2023-05-01T10:00:00Z"},
    {"id": "old2", "name": "Beta", "created_at": "2023-05-02T10:00:00Z", "updated_at": "2023-05-02T10:00:00Z"}
  ],
  "active_board_id": "nope"
}`

// writeLegacy lays out a legacy boards directory under a fresh data dir.
func writeLegacy(t *testing.T, index string, docs map[string]string) string {
	t.Helper()

	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, BoardsDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyIndexFile), []byte(index), 0o644))
	for id, doc := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(doc), 0o644))
	}
	return dataDir
}

func openAt(t *testing.T, dataDir string) *Backend {
	t.Helper()

	b, err := Open(testConfig(dataDir), nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestMigrateLegacy_ItemsShape(t *testing.T) {
	dataDir := writeLegacy(t, legacyItemsIndex, map[string]string{
		"b1": `{"excalidraw":{"elements":[]},"excalidraw-state":null}`,
	})
	b := openAt(t, dataDir)

	idx, err := b.GetBoards()
	require.NoError(t, err)
	require.Len(t, idx.Items, 2)
	assert.Equal(t, "b2", idx.ActiveBoardID)

	top := idx.Items[0]
	require.Equal(t, types.KindBoard, top.Kind)
	assert.Equal(t, "Top", top.Board.Name)
	require.NotNil(t, top.Board.Thumbnail)
	assert.Equal(t, "thumb-1", *top.Board.Thumbnail)
	assert.Equal(t, 2024, top.Board.CreatedAt.Year())

	folder := idx.Items[1]
	require.Equal(t, types.KindFolder, folder.Kind)
	assert.Equal(t, "Projects", folder.Folder.Name)
	require.Len(t, folder.Folder.Items, 2)
	assert.Equal(t, "b2", folder.Folder.Items[0].ID)
	assert.Equal(t, "b3", folder.Folder.Items[1].ID)
	require.NotNil(t, folder.Folder.Items[0].CollaborationLink)

	doc, err := b.LoadDocument("b1")
	require.NoError(t, err)
	assert.Equal(t, `{"excalidraw":{"elements":[]},"excalidraw-state":null}`, doc)

	doc, err = b.LoadDocument("b3")
	require.NoError(t, err)
	assert.JSONEq(t, types.DefaultDocument, doc, "missing companion file yields the default document")
}

func TestMigrateLegacy_BoardsShape(t *testing.T) {
	dataDir := writeLegacy(t, legacyBoardsIndexJSON, nil)
	b := openAt(t, dataDir)

	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, []string{"old1", "old2"}, indexIDs(idx))
	assert.Equal(t, "old1", idx.ActiveBoardID, "unknown active id resolves to the first board")
}

func TestMigrateLegacy_NeitherShape(t *testing.T) {
	dataDir := writeLegacy(t, `{"version": 3}`, nil)
	b := openAt(t, dataDir)

	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Empty(t, idx.Items)

	flag, err := getSetting(b.db, settingLegacyMigrated)
	require.NoError(t, err)
	assert.Equal(t, "1", flag)
}

func TestMigrateLegacy_RunsOnce(t *testing.T) {
	dataDir := writeLegacy(t, legacyItemsIndex, nil)

	b, err := Open(testConfig(dataDir), nil)
	require.NoError(t, err)
	first, err := b.GetBoards()
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b = openAt(t, dataDir)
	second, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	names, err := b.BoardNames()
	require.NoError(t, err)
	assert.Len(t, names, 3, "no duplicate boards")
}

func TestMigrateLegacy_MalformedRetries(t *testing.T) {
	dataDir := writeLegacy(t, `{"items": [`, nil)

	_, err := Open(testConfig(dataDir), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedInput)

	indexPath := filepath.Join(dataDir, BoardsDirName, LegacyIndexFile)
	require.NoError(t, os.WriteFile(indexPath, []byte(legacyBoardsIndexJSON), 0o644))

	b := openAt(t, dataDir)
	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, []string{"old1", "old2"}, indexIDs(idx), "flag stayed unset, so the fixed file migrates")
}

func TestMigrateLegacy_FailedStepRollsBack(t *testing.T) {
	dataDir := writeLegacy(t, `{
  "items": [
    {"type": "board", "id": "b1", "name": "Top"},
    {"type": "folder", "id": "f1", "name": "Twice", "items": [
      {"id": "b2", "name": "Inner"},
      {"id": "b2", "name": "Inner"}
    ]}
  ],
  "active_board_id": "b1"
}`, map[string]string{"b1": `{"elements":[]}`})

	_, err := Open(testConfig(dataDir), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorage)

	db, err := sql.Open("sqlite", dsn(filepath.Join(dataDir, BoardsDirName, DBFileName)))
	require.NoError(t, err)
	defer db.Close()
	for _, table := range []string{"boards", "board_data", "folders", "index_items", "folder_items", "settings"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "%s is untouched", table)
	}
	flag, err := getSetting(db, settingLegacyMigrated)
	require.NoError(t, err)
	assert.Empty(t, flag)
	require.NoError(t, db.Close())

	indexPath := filepath.Join(dataDir, BoardsDirName, LegacyIndexFile)
	require.NoError(t, os.WriteFile(indexPath, []byte(legacyItemsIndex), 0o644))

	b := openAt(t, dataDir)
	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "f1"}, indexIDs(idx), "the corrected file migrates")
	assert.Equal(t, "b2", idx.ActiveBoardID)
}

func TestMigrateLegacy_RepeatedTopLevelEntry(t *testing.T) {
	dataDir := writeLegacy(t, `{"boards": [
    {"id": "a", "name": "A"},
    {"id": "b", "name": "B"},
    {"id": "a", "name": "A again"}
  ]}`, nil)
	b := openAt(t, dataDir)

	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, indexIDs(idx))
	assert.Equal(t, "A", idx.Items[0].Board.Name)

	again, err := b.SetBoardsIndex(idx.Items)
	require.NoError(t, err, "a migrated index can be written back unchanged")
	assert.Equal(t, idx, again)
}

func TestMigrateLegacy_UnknownItemType(t *testing.T) {
	dataDir := writeLegacy(t, `{"items": [{"type": "canvas", "id": "x"}]}`, nil)

	_, err := Open(testConfig(dataDir), nil)
	assert.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestMigrateLegacy_SkippedWhenStoreHasBoards(t *testing.T) {
	dataDir := t.TempDir()

	b, err := Open(testConfig(dataDir), nil)
	require.NoError(t, err)
	existing, err := b.CreateBoard("Existing")
	require.NoError(t, err)
	// Clear the flag so the next open sees an unmigrated store with boards.
	require.NoError(t, setSetting(b.db, settingLegacyMigrated, ""))
	require.NoError(t, b.Detach())

	indexPath := filepath.Join(dataDir, BoardsDirName, LegacyIndexFile)
	require.NoError(t, os.WriteFile(indexPath, []byte(legacyBoardsIndexJSON), 0o644))

	b = openAt(t, dataDir)
	idx, err := b.GetBoards()
	require.NoError(t, err)
	assert.Equal(t, []string{existing.ID}, indexIDs(idx))

	flag, err := getSetting(b.db, settingLegacyMigrated)
	require.NoError(t, err)
	assert.Equal(t, "1", flag)
}

func TestMigrateLegacy_LeavesFilesInPlace(t *testing.T) {
	dataDir := writeLegacy(t, legacyItemsIndex, map[string]string{"b1": `{"a":1}`})
	openAt(t, dataDir)

	dir := filepath.Join(dataDir, BoardsDirName)
	index, err := os.ReadFile(filepath.Join(dir, LegacyIndexFile))
	require.NoError(t, err)
	assert.Equal(t, legacyItemsIndex, string(index))

	doc, err := os.ReadFile(filepath.Join(dir, "b1.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(doc))
}

func TestReadLegacyDocument_IgnoresPathLikeIDs(t *testing.T) {
	b, dataDir := newTestBackend(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "secret.json"), []byte("leak"), 0o644))

	for _, id := range []string{"", "../secret", "sub/dir", ".."} {
		doc, err := b.readLegacyDocument(id)
		require.NoError(t, err)
		assert.Equal(t, types.DefaultDocument, doc, "id %q", id)
	}
}
