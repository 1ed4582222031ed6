package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/history"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/output"
)

var historyOpts struct {
	count   int
	search  string
	all     bool
	json    bool
	yaml    bool
	format  string
	clear   bool
	path    bool
	app     string
	urgency string
	since   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded notifications",
	Long: `List notifications recorded by notistackd, newest first.

Examples:
  # Show the last 10 notifications
  notistack history

  # Search everything for a word
  notistack history --all --search backup

  # Critical notifications from Slack as JSON
  notistack history --app 'Slack*' --urgency critical --json

  # Pick one with a launcher
  notistack history --format dmenu | fuzzel -d`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	addHistoryFlags(historyCmd)
}

// addHistoryFlags registers the history flags; the root command shares them.
func addHistoryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&historyOpts.count, "count", "n", 10,
		"Number of notifications to show")
	cmd.Flags().StringVarP(&historyOpts.search, "search", "s", "",
		"Case-insensitive search over app name, summary and body")
	cmd.Flags().BoolVarP(&historyOpts.all, "all", "a", false,
		"Show the whole history, oldest first")
	cmd.Flags().BoolVar(&historyOpts.json, "json", false,
		"Output as JSON")
	cmd.Flags().BoolVar(&historyOpts.yaml, "yaml", false,
		"Output as YAML")
	cmd.Flags().StringVarP(&historyOpts.format, "format", "f", string(output.FormatPlain),
		"Output format (plain, json, yaml, dmenu, ids)")
	cmd.Flags().BoolVar(&historyOpts.clear, "clear", false,
		"Delete the whole history")
	cmd.Flags().BoolVar(&historyOpts.path, "path", false,
		"Print the history file path")
	cmd.Flags().StringVar(&historyOpts.app, "app", "",
		"Filter by application name (glob, e.g. 'fire*')")
	cmd.Flags().StringVar(&historyOpts.urgency, "urgency", "",
		"Filter by urgency (low, normal, critical)")
	cmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only show notifications from the last duration (e.g., 1h, 7d, 1w)")

	cmd.MarkFlagsMutuallyExclusive("json", "yaml", "format")
	cmd.MarkFlagsMutuallyExclusive("clear", "path")
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if historyOpts.path {
		_, err := fmt.Fprintln(out, historyPath())
		return err
	}

	format, err := historyFormat()
	if err != nil {
		return err
	}
	filter, err := entryFilter(historyOpts.app, historyOpts.urgency)
	if err != nil {
		return err
	}
	since, err := parseAge(historyOpts.since)
	if err != nil {
		return err
	}
	filter = withSince(filter, since, time.Now())

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if historyOpts.clear {
		if err := s.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, err := fmt.Fprintln(out, "History cleared.")
		return err
	}

	entries := selectEntries(s, historyQuery{
		search: historyOpts.search,
		all:    historyOpts.all,
		count:  historyOpts.count,
		filter: filter,
	})
	logger.Debug("history query", "path", s.Path(), "total", s.Len(), "matched", len(entries))

	filtered := filter != nil || historyOpts.search != ""
	return writeEntries(out, format, entries, filtered)
}

// historyFormat resolves --json, --yaml and --format.
func historyFormat() (output.FormatType, error) {
	switch {
	case historyOpts.json:
		return output.FormatJSON, nil
	case historyOpts.yaml:
		return output.FormatYAML, nil
	default:
		return output.ParseFormat(historyOpts.format)
	}
}

// entryFilter builds a predicate from the --app glob and --urgency flags.
// It returns nil when neither is set.
func entryFilter(app, urgency string) (func(history.Entry) bool, error) {
	if app == "" && urgency == "" {
		return nil, nil
	}

	var want model.Urgency
	if urgency != "" {
		u, err := model.ParseUrgency(urgency)
		if err != nil {
			return nil, fmt.Errorf("invalid --urgency: %w", err)
		}
		want = u
	}

	return func(e history.Entry) bool {
		if app != "" && !config.GlobMatch(app, e.AppName) {
			return false
		}
		if urgency != "" && e.UrgencyLevel() != want {
			return false
		}
		return true
	}, nil
}

// withSince narrows filter to entries newer than since. A zero since
// returns filter unchanged.
func withSince(filter func(history.Entry) bool, since time.Duration, now time.Time) func(history.Entry) bool {
	if since <= 0 {
		return filter
	}
	cutoff := now.Add(-since)
	return func(e history.Entry) bool {
		if e.Time().Before(cutoff) {
			return false
		}
		return filter == nil || filter(e)
	}
}

// entryQuerier is the read side of the history store.
type entryQuerier interface {
	All() []history.Entry
	Recent(n int) []history.Entry
	Search(query string) []history.Entry
}

// historyQuery selects which entries the history command lists.
type historyQuery struct {
	search string
	all    bool
	count  int
	filter func(history.Entry) bool
}

// selectEntries runs q against s. A search lists every match and --all every
// entry, both oldest first; otherwise the count most recent entries are
// listed newest first. The filter applies before the count.
func selectEntries(s entryQuerier, q historyQuery) []history.Entry {
	var entries []history.Entry
	limit := 0
	switch {
	case q.search != "":
		entries = s.Search(q.search)
	case q.all:
		entries = s.All()
	default:
		if q.count <= 0 {
			return []history.Entry{}
		}
		entries = s.Recent(0)
		limit = q.count
	}

	selected := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		if q.filter != nil && !q.filter(e) {
			continue
		}
		selected = append(selected, e)
		if limit > 0 && len(selected) == limit {
			break
		}
	}
	return selected
}

// writeEntries formats entries to out.
func writeEntries(out io.Writer, format output.FormatType, entries []history.Entry, filtered bool) error {
	opts := output.DefaultFormatterOptions()
	if filtered {
		opts.EmptyMessage = output.NoMatchMessage
	}
	return output.NewFormatter(format, opts).Format(out, entries)
}
