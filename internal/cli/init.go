package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/easel/internal/paths"
	"github.com/mesh-intelligence/easel/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize easel configuration and storage",
		Long: "Write a default config.yaml if none exists, then create the board store,\n" +
			"migrating a legacy index.json if one is present.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.configDir)
			if err != nil {
				return sysErr(fmt.Errorf("resolve config dir: %w", err))
			}
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return err
			}

			configPath := filepath.Join(configDir, configFileExt)
			wrote, err := writeConfigIfMissing(configPath, dataDir)
			if err != nil {
				return sysErr(err)
			}
			if wrote {
				a.logger.Info("config written", zapPath(configPath))
			}

			var boardsDir string
			if err := a.withStore(func(s *sqlite.Backend) error {
				boardsDir = s.Dir()
				return nil
			}); err != nil {
				return err
			}

			if a.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"config": configPath,
					"boards": boardsDir,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\nBoards: %s\n", configPath, boardsDir)
			return nil
		},
	}
}
