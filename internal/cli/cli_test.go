// Tests for the easel command tree, run in-process against temp directories.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/pkg/types"
)

type testEnv struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("EASEL_DATA_DIR", "")
	t.Setenv("EASEL_LOG_LEVEL", "")
	t.Setenv("EASEL_LOG_FILE", "")
	root := t.TempDir()
	return &testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the command tree with the env's directories and returns stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := e.run(t, "", args...)
	require.NoError(t, err, "easel %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) create(t *testing.T, name string) types.Board {
	t.Helper()

	var b types.Board
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "create", name)), &b))
	require.NotEmpty(t, b.ID)
	return b
}

func (e *testEnv) index(t *testing.T) types.Index {
	t.Helper()

	var idx types.Index
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "list")), &idx))
	return idx
}

func TestVersion(t *testing.T) {
	env := newEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "easel v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestCreateListActivate(t *testing.T) {
	env := newEnv(t)

	alpha := env.create(t, "Alpha")
	beta := env.create(t, "Beta")

	idx := env.index(t)
	require.Len(t, idx.Items, 2)
	assert.Equal(t, beta.ID, idx.ActiveBoardID)

	env.mustRun(t, "activate", alpha.ID)
	assert.Equal(t, alpha.ID, env.index(t).ActiveBoardID)

	out := env.mustRun(t, "list")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, beta.ID)

	_, err := env.run(t, "", "activate", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestRenameDuplicateDelete(t *testing.T) {
	env := newEnv(t)
	board := env.create(t, "Draft")

	out := env.mustRun(t, "rename", board.ID, "Final")
	assert.Contains(t, out, "Renamed Final")

	var clone types.Board
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "duplicate", board.ID, "Final copy")), &clone))
	assert.NotEqual(t, board.ID, clone.ID)

	env.mustRun(t, "delete", board.ID)
	idx := env.index(t)
	require.Len(t, idx.Items, 1)
	assert.Equal(t, clone.ID, idx.Items[0].ID())
	assert.Equal(t, clone.ID, idx.ActiveBoardID)

	_, err := env.run(t, "", "delete", board.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSaveLoad(t *testing.T) {
	env := newEnv(t)
	board := env.create(t, "Canvas")

	out := env.mustRun(t, "load", board.ID)
	assert.JSONEq(t, types.DefaultDocument, out)

	doc := `{"excalidraw":{"elements":[]},"excalidraw-state":null}`
	_, err := env.run(t, doc, "save", board.ID)
	require.NoError(t, err)
	assert.Equal(t, doc+"\n", env.mustRun(t, "load", board.ID))

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o644))
	env.mustRun(t, "save", board.ID, "--file", path)
	assert.JSONEq(t, `{"from":"file"}`, env.mustRun(t, "load", board.ID))

	_, err = env.run(t, "", "save", board.ID, "--file", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestLinkAndThumbnail(t *testing.T) {
	env := newEnv(t)
	board := env.create(t, "Shared")

	env.mustRun(t, "link", board.ID, "https://excalidraw.com/#room=a,b")
	env.mustRun(t, "thumbnail", board.ID, "data:image/png;base64,AA")

	item := env.index(t).Items[0]
	require.NotNil(t, item.Board.CollaborationLink)
	assert.Equal(t, "https://excalidraw.com/#room=a,b", *item.Board.CollaborationLink)
	require.NotNil(t, item.Board.Thumbnail)

	env.mustRun(t, "link", board.ID, "--clear")
	env.mustRun(t, "thumbnail", board.ID, "--clear")
	item = env.index(t).Items[0]
	assert.Nil(t, item.Board.CollaborationLink)
	assert.Nil(t, item.Board.Thumbnail)

	_, err := env.run(t, "", "link", board.ID)
	assert.Error(t, err, "url or --clear is required")
	_, err = env.run(t, "", "link", board.ID, "https://x", "--clear")
	assert.Error(t, err)

	_, err = env.run(t, "data:image/png;base64,BB", "thumbnail", board.ID, "--file", "-")
	require.NoError(t, err)
	item = env.index(t).Items[0]
	require.NotNil(t, item.Board.Thumbnail)
	assert.Equal(t, "data:image/png;base64,BB", *item.Board.Thumbnail)

	_, err = env.run(t, "data:image/png;base64,CC", "thumbnail", board.ID, "data:image/png;base64,DD", "--file", "-")
	assert.Error(t, err, "a positional value and --file conflict")
	_, err = env.run(t, "", "thumbnail", board.ID, "--file", "-", "--clear")
	assert.Error(t, err)
	item = env.index(t).Items[0]
	require.NotNil(t, item.Board.Thumbnail)
	assert.Equal(t, "data:image/png;base64,BB", *item.Board.Thumbnail, "rejected calls leave the thumbnail alone")
}

func TestReorder(t *testing.T) {
	env := newEnv(t)
	a := env.create(t, "A")
	b := env.create(t, "B")
	c := env.create(t, "C")

	items := fmt.Sprintf(`[
		{"type": "folder", "id": "f1", "name": "Group", "items": [{"id": %q}, {"id": %q}]},
		{"type": "board", "id": %q}
	]`, c.ID, a.ID, b.ID)

	out, err := env.run(t, items, "--json", "reorder")
	require.NoError(t, err)
	var idx types.Index
	require.NoError(t, json.Unmarshal([]byte(out), &idx))
	require.Len(t, idx.Items, 2)
	assert.Equal(t, "f1", idx.Items[0].ID())
	assert.Equal(t, "C", idx.Items[0].Folder.Items[0].Name, "boards are filled in from the store")

	// Feeding back the listed index is a no-op.
	listed := env.mustRun(t, "--json", "list")
	out, err = env.run(t, listed, "--json", "reorder")
	require.NoError(t, err)
	assert.JSONEq(t, listed, out)

	text := env.mustRun(t, "list")
	assert.Contains(t, text, "Group/")

	_, err = env.run(t, `[{"type": "board", "id": "missing"}]`, "reorder")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = env.run(t, `{"items": [`, "reorder")
	assert.ErrorIs(t, err, types.ErrMalformedInput)
	_, err = env.run(t, fmt.Sprintf(`[
		{"type": "folder", "id": "f1", "name": "F", "items": [{"id": %q}]},
		{"type": "folder", "id": "f2", "name": "G", "items": [{"id": %q}]}
	]`, a.ID, a.ID), "reorder")
	assert.ErrorIs(t, err, types.ErrInvalidIndex)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExportImport(t *testing.T) {
	src := newEnv(t)
	a := src.create(t, "Alpha")
	src.create(t, "Beta")
	_, err := src.run(t, `{"elements":[1]}`, "save", a.ID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "boards.json")
	src.mustRun(t, "export", path)

	var preview []previewEntry
	require.NoError(t, json.Unmarshal([]byte(src.mustRun(t, "--json", "import", path, "--preview")), &preview))
	require.Len(t, preview, 2)
	assert.Equal(t, "Alpha", preview[0].Name)
	assert.True(t, preview[0].HasData)

	dst := newEnv(t)
	var result types.ImportResult
	require.NoError(t, json.Unmarshal([]byte(dst.mustRun(t, "--json", "import", path, "--all")), &result))
	assert.Equal(t, types.ImportResult{Imported: 2}, result)

	idx := dst.index(t)
	require.Len(t, idx.Items, 2)
	assert.Equal(t, idx.Items[0].ID(), idx.ActiveBoardID, "import leaves no active board; reading resolves the first")

	out := src.mustRun(t, "import", path, "--select", "0")
	assert.Contains(t, out, "Imported 1, skipped 0")
	names := map[string]bool{}
	for _, it := range src.index(t).Items {
		names[it.Board.Name] = true
	}
	assert.True(t, names["Alpha (Copy)"])

	_, err = dst.run(t, "", "import", path)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = dst.run(t, "", "import", filepath.Join(t.TempDir(), "missing.json"), "--all")
	assert.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestWhereAndConfig(t *testing.T) {
	env := newEnv(t)

	out := env.mustRun(t, "where")
	assert.Equal(t, filepath.Join(env.dataDir, sqlite.BoardsDirName)+"\n", out)

	configured := filepath.Join(t.TempDir(), "from-config")
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(env.configDir, configFileExt),
		[]byte("data_dir: "+configured+"\nlog_level: error\n"),
		0o644,
	))

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config-dir", env.configDir, "where"})
	require.NoError(t, root.Execute())
	assert.Equal(t, filepath.Join(configured, sqlite.BoardsDirName)+"\n", buf.String())
}

func TestInit(t *testing.T) {
	env := newEnv(t)

	out := env.mustRun(t, "init")
	configPath := filepath.Join(env.configDir, configFileExt)
	assert.Contains(t, out, configPath)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data_dir: "+env.dataDir)
	assert.Contains(t, string(data), "log_level: warn")

	_, err = os.Stat(filepath.Join(env.dataDir, sqlite.BoardsDirName, sqlite.DBFileName))
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(configPath, []byte("log_level: info\n"), 0o644))
	env.mustRun(t, "init")
	data, err = os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "log_level: info\n", string(data), "existing config is kept")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"not found", fmt.Errorf("board x: %w", types.ErrNotFound), exitUserError},
		{"malformed", types.ErrMalformedInput, exitUserError},
		{"plain", errors.New("bad flag"), exitUserError},
		{"storage", fmt.Errorf("write: %w", types.ErrStorage), exitSysError},
		{"system", sysErr(errors.New("no home")), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
