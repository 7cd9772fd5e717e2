// Package cli implements the command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/config"
	"github.com/pomdtr/vt/internal/logging"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	// Global flags
	tokenFlag   string
	configPath  string
	debugFlag   bool
	logFileFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	logger             = logging.Discard()
	logCloser          io.Closer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vt",
	Short: "vt - A command-line client for Val Town",
	Long: `vt manages your vals, blobs and SQLite tables from the terminal.

Use 'vt sync' to keep a local directory of val files in sync with your account.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		resolvedConfigPath = config.ResolvePath(configPath)
		cfg, _, err = config.LoadAllowMissing(resolvedConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureCodeTheme(cfg.UI.CodeTheme)

		logFile := cfg.Log.File
		if logFileFlag != "" {
			logFile = logFileFlag
		}
		logger, logCloser, err = logging.New(logging.Options{
			Level: cfg.Log.LevelOrDefault(),
			Debug: debugFlag,
			File:  logFile,
		})
		if err != nil {
			return err
		}
		logger.Debug("loaded config", "path", resolvedConfigPath)
		return nil
	},
}

// Execute runs the CLI. Errors are printed to stderr and returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func closeLogger() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "API token (overrides "+config.TokenEnv+" and the config file)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log debug diagnostics")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Write diagnostics to a rotating log file")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

func getLogger() *log.Logger {
	return logger
}
