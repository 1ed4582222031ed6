package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/tui"
)

var browseOpts struct {
	app       string
	urgency   string
	clipboard string
	noWatch   bool
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the history interactively",
	Long: `Open an interactive browser over the notification history.

The list refreshes as notistackd records new notifications. Press / to
search, enter to view a notification and ? for all key bindings.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseOpts.app, "app", "",
		"Only show notifications from matching applications (glob)")
	browseCmd.Flags().StringVar(&browseOpts.urgency, "urgency", "",
		"Only show notifications with this urgency")
	browseCmd.Flags().StringVar(&browseOpts.clipboard, "clipboard", "",
		"Clipboard command (default: wl-copy, xclip or xsel)")
	browseCmd.Flags().BoolVar(&browseOpts.noWatch, "no-watch", false,
		"Do not refresh when the history file changes")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	filter, err := entryFilter(browseOpts.app, browseOpts.urgency)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return tui.Run(tui.RunOptions{
		Store:            s,
		Filter:           filter,
		ClipboardCommand: browseOpts.clipboard,
		Watch:            !browseOpts.noWatch,
		Logger:           logger,
	})
}
