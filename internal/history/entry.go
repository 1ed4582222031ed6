// Package history keeps a persistent record of every notification the
// daemon has received.
//
// Entries are stored one JSON object per line behind a schema header. The
// file is capped; older entries are dropped when it is compacted.
package history

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/notistack/internal/model"
)

// DatetimeFormat is the layout of Entry.Datetime.
const DatetimeFormat = "2006-01-02 15:04:05 UTC"

// Entry is a single notification as recorded in the history file.
type Entry struct {
	HistoryID string `json:"history_id" yaml:"history_id"`
	ID        uint32 `json:"id" yaml:"id"`
	AppName   string `json:"app_name" yaml:"app_name"`
	Summary   string `json:"summary" yaml:"summary"`
	Body      string `json:"body" yaml:"body"`
	Urgency   string `json:"urgency" yaml:"urgency"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Datetime  string `json:"datetime" yaml:"datetime"`
}

// NewEntry records n under a fresh ULID derived from its timestamp.
func NewEntry(n model.Notification) Entry {
	ts := n.TimestampTime()
	id := ulid.MustNew(ulid.Timestamp(ts), rand.Reader)

	return Entry{
		HistoryID: id.String(),
		ID:        n.ID,
		AppName:   n.AppName,
		Summary:   n.Summary,
		Body:      n.Body,
		Urgency:   n.Urgency.String(),
		Timestamp: n.Timestamp,
		Datetime:  ts.UTC().Format(DatetimeFormat),
	}
}

// Time returns the timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// RelativeTime returns a human-readable age like "3 minutes ago".
func (e Entry) RelativeTime(now time.Time) string {
	return humanize.RelTime(e.Time(), now, "ago", "from now")
}

// UrgencyLevel parses the stored urgency, defaulting to normal.
func (e Entry) UrgencyLevel() model.Urgency {
	u, err := model.ParseUrgency(e.Urgency)
	if err != nil {
		return model.UrgencyNormal
	}
	return u
}

// Matches reports whether query occurs in the app name, summary or body,
// ignoring case. An empty query matches everything.
func (e Entry) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.AppName), q) ||
		strings.Contains(strings.ToLower(e.Summary), q) ||
		strings.Contains(strings.ToLower(e.Body), q)
}
