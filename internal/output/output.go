// Package output provides formatters for notification history.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmylchreest/notistack/internal/history"
)

// Messages printed instead of an empty listing.
const (
	EmptyHistoryMessage = "No notifications in history."
	NoMatchMessage      = "No notifications found matching the search query."
)

// Formatter formats history entries for output.
type Formatter interface {
	// Format writes formatted entries to the writer.
	Format(w io.Writer, entries []history.Entry) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the supported formats.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (FormatType, error) {
	f := FormatType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FormatTypes() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template     string           // Custom template for dmenu format
	BodyMaxLen   int              // Maximum body length in dmenu lines (0 = unlimited)
	Separator    string           // Field separator for dmenu format
	EmptyMessage string           // Printed by the plain formatter when there is nothing to show
	Now          func() time.Time // Clock for relative times
}

// DefaultFormatterOptions returns the options used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		BodyMaxLen:   80,
		Separator:    " | ",
		EmptyMessage: EmptyHistoryMessage,
		Now:          time.Now,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// FormatField outputs a specific field from an entry.
func FormatField(e history.Entry, field string) string {
	switch strings.ToLower(field) {
	case "id", "history_id":
		return e.HistoryID
	case "notification_id":
		return fmt.Sprintf("%d", e.ID)
	case "app", "app_name", "appname":
		return e.AppName
	case "summary":
		return e.Summary
	case "body":
		return e.Body
	case "urgency":
		return e.Urgency
	case "time", "datetime":
		return e.Datetime
	case "all", "full":
		return fmt.Sprintf("%s\n%s", e.Summary, e.Body)
	default:
		return e.Summary
	}
}
