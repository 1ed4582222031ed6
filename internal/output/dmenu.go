package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/notistack/internal/history"
)

// DmenuFormatter formats entries one per line for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter. An invalid template falls
// back to the default line layout.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes entries in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, entries []history.Entry) error {
	for i, e := range entries {
		if _, err := fmt.Fprintln(w, f.formatLine(i+1, e)); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) formatLine(index int, e history.Entry) string {
	relative := e.RelativeTime(f.opts.now())

	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Entry:        e,
			RelativeTime: relative,
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	// Default format: index | time | app | summary: body
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	parts := []string{fmt.Sprintf("%d", index), relative}
	if e.AppName != "" {
		parts = append(parts, e.AppName)
	}

	content := e.Summary
	if body := sanitizeBody(e.Body, f.opts.BodyMaxLen); body != "" {
		content += ": " + body
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

// templateData is the data passed to custom dmenu templates.
type templateData struct {
	Index        int
	Entry        history.Entry
	RelativeTime string
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"urgencyIcon": func(urgency string) string {
			switch urgency {
			case "low":
				return "L"
			case "critical":
				return "!"
			default:
				return "-"
			}
		},
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// sanitizeBody flattens body text onto one line.
func sanitizeBody(body string, maxLen int) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = strings.Join(strings.Fields(body), " ")
	return truncate(body, maxLen)
}
