// Export and import commands.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/internal/transfer"
	"github.com/mesh-intelligence/easel/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write every listed board and its document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				if err := transfer.Export(s, args[0]); err != nil {
					return err
				}
				return a.printDone(cmd.OutOrStdout(), "Exported boards to "+args[0], args[0])
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var (
		selected []int
		all      bool
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Create boards from an export file",
		Long: "Create new boards from chosen entries of an export file. Entries are chosen\n" +
			"by position (see --preview). Boards whose id already exists are imported\n" +
			"under a \"(Copy)\" name. The active board does not change.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := transfer.ReadExportFile(args[0])
			if err != nil {
				return err
			}

			if preview {
				return a.printPreview(cmd, file)
			}
			if all {
				selected = make([]int, len(file.Boards))
				for i := range selected {
					selected[i] = i
				}
			}
			if len(selected) == 0 {
				return errors.New("choose entries with --select or --all (list them with --preview)")
			}

			return a.withStore(func(s *sqlite.Backend) error {
				result, err := transfer.Import(s, args[0], selected)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d\n", result.Imported, result.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&selected, "select", nil, "entry positions to import, e.g. 0,2,3")
	cmd.Flags().BoolVar(&all, "all", false, "import every entry")
	cmd.Flags().BoolVar(&preview, "preview", false, "list the entries without importing")
	cmd.MarkFlagsMutuallyExclusive("select", "all")
	return cmd
}

type previewEntry struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	HasData  bool   `json:"has_data"`
}

func (a *app) printPreview(cmd *cobra.Command, file *types.ExportFile) error {
	entries := make([]previewEntry, 0, len(file.Boards))
	for i := range file.Boards {
		e := &file.Boards[i]
		entries = append(entries, previewEntry{Position: i, ID: e.ID, Name: e.Name, HasData: e.HasData()})
	}
	if a.jsonMode {
		return writeJSON(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %s, %d boards\n", file.ExportedAt.Format("2006-01-02 15:04"), len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "%3d  %s  %s\n", e.Position, e.Name, dimmed.Sprint(e.ID))
	}
	return nil
}
