package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// Import creates a board for each entry of the export file at path whose
// position is in selected. Positions outside the file are ignored.
//
// An entry whose id already exists in the store, or was imported earlier in
// the same call, is renamed "<name> (Copy)", then "<name> (Copy 2)" and so on
// until the name is unused, compared case-insensitively. A board that cannot
// be created is counted as skipped and the import continues. A document that
// cannot be saved aborts the import. The active board is restored to its
// value before the import in every case.
func Import(store Store, path string, selected []int) (*types.ImportResult, error) {
	file, err := ReadExportFile(path)
	if err != nil {
		return nil, err
	}

	activeBefore, err := store.ActiveBoardID()
	if err != nil {
		return nil, fmt.Errorf("reading active board: %w", err)
	}
	existing, err := store.BoardNames()
	if err != nil {
		return nil, fmt.Errorf("reading board names: %w", err)
	}

	names := newNameSet()
	seenIDs := make(map[string]bool, len(existing))
	for id, name := range existing {
		seenIDs[id] = true
		names.add(name)
	}

	want := make(map[int]bool, len(selected))
	for _, i := range selected {
		want[i] = true
	}

	result := &types.ImportResult{}
	importErr := func() error {
		for i, entry := range file.Boards {
			if !want[i] {
				continue
			}

			name := baseName(entry.Name)
			hasID := strings.TrimSpace(entry.ID) != ""
			if hasID && seenIDs[entry.ID] {
				name = names.copyName(name)
			}

			board, err := store.CreateBoard(name)
			if err != nil {
				zap.L().Warn("import entry skipped",
					zap.Int("position", i),
					zap.String("name", name),
					zap.Error(err),
				)
				result.Skipped++
				continue
			}

			if entry.HasData() {
				if err := store.SaveDocument(board.ID, compactDocument(entry.Data)); err != nil {
					return fmt.Errorf("saving document for %q: %w", name, err)
				}
			}

			names.add(name)
			if hasID {
				seenIDs[entry.ID] = true
			}
			result.Imported++
		}
		return nil
	}()

	if err := store.RestoreActiveBoard(activeBefore); err != nil {
		return nil, fmt.Errorf("restoring active board: %w", err)
	}
	if importErr != nil {
		return nil, importErr
	}

	zap.L().Info("boards imported",
		zap.String("path", path),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// compactDocument strips the indentation the export file adds.
func compactDocument(data json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

// baseName trims the entry name and substitutes a placeholder for a blank
// one.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ImportedBoardName
	}
	return name
}

// nameSet holds board names compared case-insensitively.
type nameSet map[string]bool

func newNameSet() nameSet {
	return make(nameSet)
}

func (s nameSet) add(name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key != "" {
		s[key] = true
	}
}

func (s nameSet) has(name string) bool {
	return s[strings.ToLower(name)]
}

// copyName returns the first of "<base> (Copy)", "<base> (Copy 2)", ... that
// is not in the set.
func (s nameSet) copyName(base string) string {
	candidate := base + " (Copy)"
	for n := 2; s.has(candidate); n++ {
		candidate = fmt.Sprintf("%s (Copy %d)", base, n)
	}
	return candidate
}
