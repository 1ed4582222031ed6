package config

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// CustomCommand is a shell command run when a matching notification is drawn.
// Command is a text/template rendered against the notification.
type CustomCommand struct {
	Filter  *Filter `toml:"filter"`
	Command string  `toml:"command"`

	tmpl *template.Template
}

// CommandFuncs are available to custom command templates.
var CommandFuncs = template.FuncMap{
	// humantime formats a number of seconds as a duration, e.g. "1m30s".
	"humantime": func(secs int64) string {
		return (time.Duration(secs) * time.Second).String()
	},
	// since formats an epoch timestamp relative to now, e.g. "3 minutes ago".
	"since": func(ts int64) string {
		return humanize.Time(time.Unix(ts, 0))
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// compile parses the command template once.
func (c *CustomCommand) compile() error {
	tmpl, err := template.New("command").Funcs(CommandFuncs).Option("missingkey=zero").Parse(c.Command)
	if err != nil {
		return fmt.Errorf("parse command template %q: %w", c.Command, err)
	}
	c.tmpl = tmpl
	return nil
}

// Render executes the command template with the given data.
func (c *CustomCommand) Render(data any) (string, error) {
	if c.tmpl == nil {
		if err := c.compile(); err != nil {
			return "", err
		}
	}
	var sb strings.Builder
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render command template: %w", err)
	}
	return sb.String(), nil
}
