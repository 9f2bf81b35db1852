// Board commands: list, create, rename, delete, activate, duplicate, where.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/easel/internal/sqlite"
)

func newWhereCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "where",
		Short: "Print the directory holding the board store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				if a.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"dir": s.Dir()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Dir())
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show boards and folders in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				idx, err := s.GetBoards()
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
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a board and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				b, err := s.CreateBoard(args[0])
				if err != nil {
					return err
				}
				return a.printBoard(cmd.OutOrStdout(), "Created", b)
			})
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				b, err := s.RenameBoard(args[0], args[1])
				if err != nil {
					return err
				}
				return a.printBoard(cmd.OutOrStdout(), "Renamed", b)
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a board and its document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				if err := s.DeleteBoard(args[0]); err != nil {
					return err
				}
				return a.printDone(cmd.OutOrStdout(), "Deleted "+args[0], args[0])
			})
		},
	}
}

func newActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Make a board the active board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				if err := s.SetActiveBoard(args[0]); err != nil {
					return err
				}
				return a.printDone(cmd.OutOrStdout(), "Active board: "+args[0], args[0])
			})
		},
	}
}

func newDuplicateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id> <name>",
		Short: "Copy a board and its document under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				b, err := s.DuplicateBoard(args[0], args[1])
				if err != nil {
					return err
				}
				return a.printBoard(cmd.OutOrStdout(), "Duplicated as", b)
			})
		},
	}
}
