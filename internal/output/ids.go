package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/notistack/internal/history"
)

// IDsFormatter outputs just the history IDs, one per line.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes history IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, entries []history.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.HistoryID); err != nil {
			return err
		}
	}
	return nil
}
