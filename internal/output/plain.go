package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/notistack/internal/history"
)

const separatorWidth = 60

// PlainFormatter formats entries as labelled blocks for a terminal.
type PlainFormatter struct {
	opts FormatterOptions
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts}
}

// Format writes a header line followed by one block per entry. Styling is
// only applied when w is a color terminal.
func (f *PlainFormatter) Format(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		msg := f.opts.EmptyMessage
		if msg == "" {
			msg = EmptyHistoryMessage
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true)
	labelStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	separatorStyle := r.NewStyle().Foreground(lipgloss.Color("8"))
	separator := separatorStyle.Render(strings.Repeat("-", separatorWidth))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Showing %d notification(s):", len(entries))))
	sb.WriteString("\n")

	now := f.opts.now()
	for _, e := range entries {
		sb.WriteString(separator + "\n")
		field := func(label, value string) {
			sb.WriteString(labelStyle.Render(label+":") + " " + value + "\n")
		}
		field("ID", e.HistoryID)
		field("App", e.AppName)
		field("Time", fmt.Sprintf("%s (%s)", e.Datetime, e.RelativeTime(now)))
		field("Urgency", e.Urgency)
		field("Summary", e.Summary)
		if e.Body != "" {
			field("Body", e.Body)
		}
	}
	sb.WriteString(separator + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
