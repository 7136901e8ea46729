package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/simplify"
	"github.com/dshills/quill/internal/ui"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "AI commit messages and code reviews from your diffs",
	Long: "Quill collects pending changes from git or svn and uses an AI provider\n" +
		"to write commit messages and per-file code reviews.",
}

var flagSettings string

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().StringVar(&flagSettings, "settings", "", "Path to the settings file (default: user config dir)")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print quill version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "quill version %s\n", version)
	},
}

// app bundles the shared wiring every command needs.
type app struct {
	store  config.Store
	cfg    *config.Manager
	simp   *simplify.Source
	notify *ui.Notifier
	log    zerolog.Logger
}

// newApp opens the settings store and builds the configuration manager,
// logger, and simplifier.
func newApp() (*app, error) {
	path := flagSettings
	if path == "" {
		var err error
		path, err = config.SettingsPath()
		if err != nil {
			return nil, err
		}
	}

	// The log level lives in the store itself: bootstrap at info, then
	// rebuild once the store is readable. The store keeps the bootstrap
	// logger so reload warnings always surface.
	log := logging.New(os.Stderr, "info")
	store, err := config.OpenFileStore(path, log)
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	if v, ok := store.Get(config.StoreKey("base.logLevel")); ok {
		if s, ok := v.(string); ok && s != "info" {
			log = logging.New(os.Stderr, s)
		}
	}

	cfg := config.NewManager(config.Default(), store, log)
	return &app{
		store:  store,
		cfg:    cfg,
		simp:   simplify.NewSource(cfg),
		notify: ui.NewNotifier(),
		log:    log,
	}, nil
}

// Close releases subscriptions and the settings watcher.
func (a *app) Close() {
	a.simp.Close()
	a.cfg.Dispose()
	a.store.Close() //nolint:errcheck // shutdown path
}
