package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// bodyIndent prefixes every body line.
const bodyIndent = "    "

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape makes user text safe to embed in Pango markup.
func Escape(s string) string {
	return markupEscaper.Replace(s)
}

// AgeBucket formats an age as whole seconds, minutes or hours: "42s", "5m", "3h".
func AgeBucket(age time.Duration) string {
	secs := int64(age / time.Second)
	switch {
	case secs < 0:
		return "0s"
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm", secs/60)
	default:
		return fmt.Sprintf("%dh", secs/3600)
	}
}

// NotificationMarkup renders one notification block: the muted age and the
// app name, the bold summary, then the indented body when there is one.
func NotificationMarkup(n model.Notification, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(`<span fgalpha="60%">`)
	sb.WriteString(AgeBucket(n.Age(now)))
	sb.WriteString("</span> ")
	sb.WriteString(Escape(n.AppName))
	sb.WriteString("\n<b>")
	sb.WriteString(Escape(n.Summary))
	sb.WriteString("</b>")

	if n.Body != "" {
		for _, line := range strings.Split(n.Body, "\n") {
			sb.WriteString("\n")
			sb.WriteString(bodyIndent)
			sb.WriteString(Escape(line))
		}
	}
	return sb.String()
}

// FooterMarkup is shown below the stack when unread notifications overflow
// the display limit.
func FooterMarkup(overflow int) string {
	return fmt.Sprintf("... and %d more", overflow)
}
