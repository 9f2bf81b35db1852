// Output helpers shared by the subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/pkg/types"
)

var (
	activeMark = color.New(color.FgGreen, color.Bold)
	folderName = color.New(color.FgCyan, color.Bold)
	dimmed     = color.New(color.Faint)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// printIndex renders the index as a tree. The active board is starred.
func printIndex(w io.Writer, idx *types.Index) {
	if len(idx.Items) == 0 {
		fmt.Fprintln(w, "No boards.")
		return
	}

	line := func(indent string, b *types.Board) {
		mark := " "
		if b.ID == idx.ActiveBoardID {
			mark = activeMark.Sprint("*")
		}
		fmt.Fprintf(w, "%s%s %s  %s\n", indent, mark, b.Name, dimmed.Sprint(b.ID))
	}

	for _, it := range idx.Items {
		switch it.Kind {
		case types.KindBoard:
			line("", it.Board)
		case types.KindFolder:
			fmt.Fprintf(w, "  %s/  %s\n", folderName.Sprint(it.Folder.Name), dimmed.Sprint(it.Folder.ID))
			for i := range it.Folder.Items {
				line("    ", &it.Folder.Items[i])
			}
		}
	}
}

// printBoard writes a single board in the selected output mode.
func (a *app) printBoard(w io.Writer, verb string, b *types.Board) error {
	if a.jsonMode {
		return writeJSON(w, b)
	}
	fmt.Fprintf(w, "%s %s  %s\n", verb, b.Name, dimmed.Sprint(b.ID))
	return nil
}

// printDone writes a short confirmation, or {"id": ...} in JSON mode.
func (a *app) printDone(w io.Writer, msg, id string) error {
	if a.jsonMode {
		return writeJSON(w, map[string]string{"id": id})
	}
	fmt.Fprintln(w, msg)
	return nil
}

func zapPath(path string) zap.Field {
	return zap.String("path", path)
}
