// Package cli implements the easel command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/internal/logging"
	"github.com/mesh-intelligence/easel/internal/paths"
	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state prepared before a subcommand
// runs.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool

	config *viper.Viper
	logger *zap.Logger
}

// NewRootCmd creates the top-level "easel" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "easel",
		Short: "Manage whiteboard boards, folders, and their order",
		Long: "Easel keeps whiteboard boards in a local store: their names, documents,\n" +
			"folders, display order, and the active board.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newWhereCmd(a),
		newListCmd(a),
		newCreateCmd(a),
		newRenameCmd(a),
		newDeleteCmd(a),
		newActivateCmd(a),
		newDuplicateCmd(a),
		newSaveCmd(a),
		newLoadCmd(a),
		newLinkCmd(a),
		newThumbnailCmd(a),
		newReorderCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "easel:", err)
	}
	os.Exit(exitCode(err))
}

// setup loads config.yaml and builds the logger.
func (a *app) setup(stderr io.Writer) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysErr(err)
	}
	a.config = cfg

	dataDir, err := a.resolveDataDir()
	if err != nil {
		return err
	}

	level := cfg.GetString(cfgKeyLogLevel)
	if a.verbose {
		level = "debug"
	}
	logFile := cfg.GetString(cfgKeyLogFile)
	if logFile == "" {
		logFile = logging.DefaultFile(dataDir)
	}

	logger, err := logging.New(logging.Options{Level: level, File: logFile, Console: stderr})
	if err != nil {
		return sysErr(fmt.Errorf("create logger: %w", err))
	}
	a.logger = logger
	zap.ReplaceGlobals(logger)
	return nil
}

// resolveDataDir applies --data-dir > config.yaml data_dir > EASEL_DATA_DIR >
// platform default.
func (a *app) resolveDataDir() (string, error) {
	configValue := ""
	if a.config != nil {
		configValue = a.config.GetString(cfgKeyDataDir)
	}
	dir, err := paths.ResolveDataDir(a.dataDir, configValue)
	if err != nil {
		return "", sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	return dir, nil
}

// withStore opens the board store for the duration of fn.
func (a *app) withStore(fn func(s *sqlite.Backend) error) error {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}, a.logger)
	if err != nil {
		return fmt.Errorf("open board store: %w", err)
	}
	defer store.Detach()

	return fn(store)
}

// systemError marks failures outside the user's control.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	return systemError{err: err}
}

// exitCode maps an error to the process exit status. Storage failures and
// errors marked with sysErr exit 2; everything else is a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se systemError
	if errors.As(err, &se) || errors.Is(err, types.ErrStorage) {
		return exitSysError
	}
	return exitUserError
}
