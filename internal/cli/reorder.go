package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/pkg/types"
)

func newReorderCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "reorder",
		Short: "Replace the board order and folders",
		Long: "Replace the whole index with the items in a JSON file. The file holds either\n" +
			"the output of \"easel list --json\" or a bare array of its items. Boards are\n" +
			"referenced by id; folders are created, renamed, or dropped to match the file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			items, err := parseItems([]byte(data))
			if err != nil {
				return err
			}
			return a.withStore(func(s *sqlite.Backend) error {
				idx, err := s.SetBoardsIndex(items)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return writeJSON(cmd.OutOrStdout(), idx)
				}
				printIndex(cmd.OutOrStdout(), idx)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "items file (- for stdin)")
	return cmd
}

// parseItems accepts an index object or a bare item array.
func parseItems(data []byte) ([]types.ListItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []types.ListItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse items: %w: %w", types.ErrMalformedInput, err)
		}
		return items, nil
	}

	var idx types.Index
	if err := json.Unmarshal(trimmed, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w: %w", types.ErrMalformedInput, err)
	}
	if idx.Items == nil {
		return nil, fmt.Errorf("index has no items field: %w", types.ErrMalformedInput)
	}
	return idx.Items, nil
}
