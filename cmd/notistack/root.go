package main

import (
	"fmt"
	"log/slog"
	"os"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/history"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose     bool
		historyFile string
		configPath  string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notistack",
	Short: "Notification history for the notistackd popup daemon",
	Long: `notistack reads the history recorded by notistackd.

Every notification the daemon receives is appended to a history file.
notistack lists, searches and browses that history.

Running notistack without a subcommand lists the most recent notifications.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.historyFile, "history-file", "",
		"Path to history file (default: ~/.local/share/notistack/history.jsonl)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/notistack/notistack.toml)")

	addHistoryFlags(rootCmd)
}

// setupLogger installs a charmbracelet/log handler behind slog. Logs go to
// stderr so stdout stays clean for output.
func setupLogger() {
	level := clog.WarnLevel
	if globalOpts.verbose {
		level = clog.DebugLevel
	}

	handler := clog.NewWithOptions(os.Stderr, clog.Options{
		Level:  level,
		Prefix: "notistack",
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// historyPath returns the history file to read.
func historyPath() string {
	if globalOpts.historyFile != "" {
		return globalOpts.historyFile
	}
	return config.HistoryPath()
}

// openStore opens the history file shared with the daemon.
func openStore() (*history.Store, error) {
	s, err := history.Open(historyPath(), history.DefaultLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return s, nil
}
