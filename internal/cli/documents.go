// Document and metadata commands: save, load, link, thumbnail.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/pkg/types"
)

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", path, types.ErrMalformedInput, err)
	}
	return string(data), nil
}

func newSaveCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Store a board document read from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			return a.withStore(func(s *sqlite.Backend) error {
				if err := s.SaveDocument(args[0], doc); err != nil {
					return err
				}
				return a.printDone(cmd.OutOrStdout(), fmt.Sprintf("Saved %d bytes to %s", len(doc), args[0]), args[0])
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "document file (- for stdin)")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Print a board document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Backend) error {
				doc, err := s.LoadDocument(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, doc)
				if !strings.HasSuffix(doc, "\n") {
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
}

func newLinkCmd(a *app) *cobra.Command {
	var clearValue bool
	cmd := &cobra.Command{
		Use:   "link <id> [url]",
		Short: "Set or clear a board's collaboration link",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := optionalValue(args, clearValue, "url")
			if err != nil {
				return err
			}
			return a.withStore(func(s *sqlite.Backend) error {
				if err := s.SetCollaborationLink(args[0], link); err != nil {
					return err
				}
				msg := "Cleared link on " + args[0]
				if link != nil {
					msg = "Linked " + args[0] + " to " + *link
				}
				return a.printDone(cmd.OutOrStdout(), msg, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&clearValue, "clear", false, "remove the collaboration link")
	return cmd
}

func newThumbnailCmd(a *app) *cobra.Command {
	var (
		clearValue bool
		file       string
	)
	cmd := &cobra.Command{
		Use:   "thumbnail <id> [data-url]",
		Short: "Set or clear a board's thumbnail",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				switch {
				case len(args) > 1:
					return errors.New("give either <data-url> or --file, not both")
				case clearValue:
					return errors.New("give either --file or --clear, not both")
				}
				data, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				args = append(args, strings.TrimSpace(data))
			}
			thumb, err := optionalValue(args, clearValue, "data-url")
			if err != nil {
				return err
			}
			return a.withStore(func(s *sqlite.Backend) error {
				if err := s.SetThumbnail(args[0], thumb); err != nil {
					return err
				}
				msg := "Cleared thumbnail on " + args[0]
				if thumb != nil {
					msg = "Updated thumbnail on " + args[0]
				}
				return a.printDone(cmd.OutOrStdout(), msg, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&clearValue, "clear", false, "remove the thumbnail")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the thumbnail from a file (- for stdin)")
	return cmd
}

// optionalValue returns the second positional argument, or nil with --clear.
// Exactly one of the two must be given.
func optionalValue(args []string, clearValue bool, name string) (*string, error) {
	switch {
	case clearValue && len(args) > 1:
		return nil, fmt.Errorf("give either <%s> or --clear, not both", name)
	case clearValue:
		return nil, nil
	case len(args) < 2 || args[1] == "":
		return nil, fmt.Errorf("missing <%s> (or use --clear)", name)
	default:
		return &args[1], nil
	}
}
