package transfer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// Export writes every board reachable from the index to path. Boards appear
// in walk order, each once. Documents that are not valid JSON are exported
// as null. The file is replaced atomically.
func Export(store Store, path string) error {
	if path == "" {
		return fmt.Errorf("export path is empty: %w", types.ErrMalformedInput)
	}

	idx, err := store.GetBoards()
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	file := types.ExportFile{
		Version:    types.ExportVersion,
		ExportedAt: time.Now().UTC(),
		Boards:     []types.ExportEntry{},
	}
	for _, board := range idx.Boards() {
		doc, err := store.LoadDocument(board.ID)
		if err != nil {
			return fmt.Errorf("loading document for %s: %w", board.ID, err)
		}
		file.Boards = append(file.Boards, exportEntry(board, doc))
	}

	if err := writeExportFile(path, &file); err != nil {
		return err
	}

	zap.L().Info("boards exported", zap.String("path", path), zap.Int("boards", len(file.Boards)))
	return nil
}

func exportEntry(board types.Board, doc string) types.ExportEntry {
	data := json.RawMessage("null")
	if json.Valid([]byte(doc)) {
		data = json.RawMessage(doc)
	}
	return types.ExportEntry{
		ID:                board.ID,
		Name:              board.Name,
		CreatedAt:         board.CreatedAt,
		UpdatedAt:         board.UpdatedAt,
		CollaborationLink: board.CollaborationLink,
		Thumbnail:         board.Thumbnail,
		Data:              data,
	}
}

// writeExportFile writes the file using the temp-file, fsync, rename pattern.
func writeExportFile(path string, file *types.ExportFile) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".easel-export-*.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("export directory %s: %w: %w", dir, types.ErrMalformedInput, err)
		}
		return fmt.Errorf("creating temp file: %w: %w", types.ErrStorage, err)
	}
	tmpName := tmp.Name()

	fail := func(action string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w: %w", action, types.ErrStorage, err)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(file); err != nil {
		return fail("encoding export", err)
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w: %w", types.ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w: %w", types.ErrStorage, err)
	}
	return nil
}

// ReadExportFile parses an export file. Unreadable files, invalid JSON, and
// versions other than ExportVersion fail with ErrMalformedInput.
func ReadExportFile(path string) (*types.ExportFile, error) {
	if path == "" {
		return nil, fmt.Errorf("import path is empty: %w", types.ErrMalformedInput)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", path, types.ErrMalformedInput, err)
	}

	var file types.ExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", path, types.ErrMalformedInput, err)
	}
	if file.Version != types.ExportVersion {
		return nil, fmt.Errorf("%s: unsupported export version %d: %w", path, file.Version, types.ErrMalformedInput)
	}
	return &file, nil
}
