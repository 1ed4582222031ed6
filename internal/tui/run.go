package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/notistack/internal/history"
)

// RunOptions configures the TUI.
type RunOptions struct {
	Store            *history.Store
	Filter           func(history.Entry) bool
	ClipboardCommand string
	// Watch refreshes the list when the daemon appends to the history file.
	Watch  bool
	Logger *slog.Logger
}

// Run starts the browser and blocks until the user quits.
func Run(opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var changes chan struct{}
	if opts.Watch {
		changes = make(chan struct{}, 1)
		watcher, err := history.NewFileWatcher(opts.Store, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}, logger)
		if err != nil {
			logger.Warn("failed to create history watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("failed to start history watcher", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	m := New(opts.Store, Options{
		Filter:           opts.Filter,
		Changes:          changes,
		ClipboardCommand: opts.ClipboardCommand,
	})
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
