package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/history"
)

var pruneOpts struct {
	olderThan string
	keep      int
	dryRun    bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old notifications from history",
	Long: `Remove old notifications from the history file.

Examples:
  # Remove notifications older than 7 days
  notistack prune --older-than 7d

  # Keep only the 100 most recent notifications
  notistack prune --keep 100

  # Preview what would be removed (dry run)
  notistack prune --older-than 48h --dry-run`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneOpts.olderThan, "older-than", "",
		"Remove notifications older than this duration (e.g., 48h, 7d, 1w)")
	pruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", 0,
		"Keep only the N most recent notifications (0=unlimited)")
	pruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without actually removing")
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneOpts.olderThan == "" && pruneOpts.keep == 0 {
		return fmt.Errorf("specify --older-than or --keep")
	}

	var age time.Duration
	if pruneOpts.olderThan != "" {
		d, err := parseAge(pruneOpts.olderThan)
		if err != nil {
			return err
		}
		age = d
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out := cmd.OutOrStdout()
	now := time.Now()
	remove := pruneSelector(s.Recent(0), age, pruneOpts.keep, now)

	if pruneOpts.dryRun {
		var doomed []history.Entry
		for _, e := range s.All() {
			if remove(e) {
				doomed = append(doomed, e)
			}
		}
		if len(doomed) == 0 {
			_, err := fmt.Fprintln(out, "No notifications to remove")
			return err
		}
		fmt.Fprintf(out, "Would remove %d notification(s):\n", len(doomed))
		for i, e := range doomed {
			if i >= 10 {
				fmt.Fprintf(out, "  ... and %d more\n", len(doomed)-10)
				break
			}
			fmt.Fprintf(out, "  - [%s] %s (%s)\n", e.AppName, e.Summary, e.RelativeTime(now))
		}
		return nil
	}

	removed, err := s.Prune(remove)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if removed == 0 {
		_, err := fmt.Fprintln(out, "No notifications to remove")
		return err
	}
	_, err = fmt.Fprintf(out, "Removed %d notification(s)\n", removed)
	return err
}

// pruneSelector returns a predicate matching entries older than age or
// outside the keep most recent. newest must be ordered newest first. A
// zero age or keep disables that criterion.
func pruneSelector(newest []history.Entry, age time.Duration, keep int, now time.Time) func(history.Entry) bool {
	kept := make(map[string]bool)
	if keep > 0 {
		for i := 0; i < keep && i < len(newest); i++ {
			kept[newest[i].HistoryID] = true
		}
	}
	cutoff := now.Add(-age)

	return func(e history.Entry) bool {
		if age > 0 && e.Time().Before(cutoff) {
			return true
		}
		return keep > 0 && !kept[e.HistoryID]
	}
}

// parseAge parses a duration that also accepts day (7d) and week (1w)
// suffixes.
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	for suffix, unit := range map[string]time.Duration{
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	} {
		if n, found := strings.CutSuffix(s, suffix); found {
			v, err := strconv.Atoi(n)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			return time.Duration(v) * unit, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}
