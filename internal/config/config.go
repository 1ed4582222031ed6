// Package config handles configuration file loading and parsing.
package config

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// Default configuration values.
const (
	DefaultDisplayLimit      = 5
	DefaultRefreshIntervalMS = 1000
	DefaultSeparatorHeight   = 2
	DefaultCloseButtonWidth  = 24
	DefaultRetainRead        = 100
	DefaultSoundVolume       = 80
	DefaultFont              = "Monospace 10"
)

// Config is a resolved, validated configuration snapshot.
// It is never mutated after Load returns; a reload produces a new Config.
type Config struct {
	Global          Global           `toml:"global"`
	UrgencyLow      UrgencyConfig    `toml:"urgency_low"`
	UrgencyNormal   UrgencyConfig    `toml:"urgency_normal"`
	UrgencyCritical UrgencyConfig    `toml:"urgency_critical"`
	AppColors       map[string]Color `toml:"app_colors"`
	Rules           []Rule           `toml:"rules"`

	// Path is the file the configuration was loaded from, empty for the
	// embedded default.
	Path string `toml:"-"`
}

// Global contains window, layout and daemon-wide settings.
type Global struct {
	LogVerbosity        string   `toml:"log_verbosity"`        // error, warn, info, debug, trace
	StartupNotification bool     `toml:"startup_notification"` // Notify when the daemon starts
	Geometry            Geometry `toml:"geometry"`             // WxH+X+Y, X/Y offsets from Origin
	Origin              Origin   `toml:"origin"`
	WrapContent         bool     `toml:"wrap_content"` // Resize the window to fit its content
	Font                string   `toml:"font"`         // Pango font description
	DisplayLimit        int      `toml:"display_limit"`
	MinWidth            int      `toml:"min_width"`
	RefreshIntervalMS   int      `toml:"refresh_interval_ms"` // 0 disables age refresh
	SeparatorHeight     int      `toml:"separator_height"`
	CloseButtonWidth    int      `toml:"close_button_width"`
	RetainRead          int      `toml:"retain_read"` // Read entries kept in memory
	Monitor             int      `toml:"monitor"`     // 0 = compositor default, 1+ = specific monitor
	SoundVolume         int      `toml:"sound_volume"`
}

// UrgencyConfig contains the styling and behaviour for one urgency level.
type UrgencyConfig struct {
	Background     Color           `toml:"background"`
	Foreground     Color           `toml:"foreground"`
	Timeout        int             `toml:"timeout"` // Seconds, used when the client asks for the default
	AutoClear      bool            `toml:"auto_clear"`
	Text           string          `toml:"text"`
	Sound          string          `toml:"sound"`
	CustomCommands []CustomCommand `toml:"custom_commands"`
}

// Rule overrides colors for notifications whose fields match glob patterns.
// Empty patterns are not checked.
type Rule struct {
	AppName    string `toml:"app_name"`
	Summary    string `toml:"summary"`
	Body       string `toml:"body"`
	Foreground *Color `toml:"foreground"`
	Background *Color `toml:"background"`
}

// Matches reports whether all specified patterns match the notification.
func (r Rule) Matches(n model.Notification) bool {
	if r.AppName != "" && !GlobMatch(r.AppName, n.AppName) {
		return false
	}
	if r.Summary != "" && !GlobMatch(r.Summary, n.Summary) {
		return false
	}
	if r.Body != "" && !GlobMatch(r.Body, n.Body) {
		return false
	}
	return true
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Global: Global{
			LogVerbosity:      "info",
			Geometry:          Geometry{Width: 300, Height: 100, X: 10, Y: 10},
			Origin:            OriginTopLeft,
			WrapContent:       true,
			Font:              DefaultFont,
			DisplayLimit:      DefaultDisplayLimit,
			RefreshIntervalMS: DefaultRefreshIntervalMS,
			SeparatorHeight:   DefaultSeparatorHeight,
			CloseButtonWidth:  DefaultCloseButtonWidth,
			RetainRead:        DefaultRetainRead,
			SoundVolume:       DefaultSoundVolume,
		},
		UrgencyLow: UrgencyConfig{
			Background: MustColor("#000000"),
			Foreground: MustColor("#888888"),
			Timeout:    10,
			AutoClear:  true,
			Text:       "low",
		},
		UrgencyNormal: UrgencyConfig{
			Background: MustColor("#000000"),
			Foreground: MustColor("#ffffff"),
			Timeout:    10,
			AutoClear:  true,
			Text:       "normal",
		},
		UrgencyCritical: UrgencyConfig{
			Background: MustColor("#000000"),
			Foreground: MustColor("#ff0000"),
			Text:       "critical",
		},
		AppColors: make(map[string]Color),
	}
}

// Urgency returns the settings for the given urgency level.
func (c *Config) Urgency(u model.Urgency) *UrgencyConfig {
	switch u {
	case model.UrgencyLow:
		return &c.UrgencyLow
	case model.UrgencyCritical:
		return &c.UrgencyCritical
	default:
		return &c.UrgencyNormal
	}
}

// UrgencyText returns the configured label for an urgency, or its name.
func (c *Config) UrgencyText(u model.Urgency) string {
	if t := c.Urgency(u).Text; t != "" {
		return t
	}
	return u.String()
}

// Timeout returns the default expire timeout for an urgency; zero means never.
func (c *Config) Timeout(u model.Urgency) time.Duration {
	return time.Duration(c.Urgency(u).Timeout) * time.Second
}

// AppColor returns the color configured for an application. An exact key
// wins over glob patterns; patterns are tried in sorted key order.
func (c *Config) AppColor(appName string) (Color, bool) {
	if color, ok := c.AppColors[appName]; ok {
		return color, true
	}

	keys := make([]string, 0, len(c.AppColors))
	for k := range c.AppColors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, pattern := range keys {
		if GlobMatch(pattern, appName) {
			return c.AppColors[pattern], true
		}
	}
	return Color{}, false
}

// MatchingRule returns the first rule in declared order that matches.
func (c *Config) MatchingRule(n model.Notification) (*Rule, bool) {
	for i := range c.Rules {
		if c.Rules[i].Matches(n) {
			return &c.Rules[i], true
		}
	}
	return nil, false
}

// Background resolves the block background override for a notification:
// a matching rule's background, else the app color. ok is false when the
// block should inherit the window background.
func (c *Config) Background(n model.Notification) (Color, bool) {
	if rule, ok := c.MatchingRule(n); ok && rule.Background != nil {
		return *rule.Background, true
	}
	return c.AppColor(n.AppName)
}

// Foreground resolves the text color for a notification: a matching rule's
// foreground, else the urgency foreground.
func (c *Config) Foreground(n model.Notification) Color {
	if rule, ok := c.MatchingRule(n); ok && rule.Foreground != nil {
		return *rule.Foreground
	}
	return c.Urgency(n.Urgency).Foreground
}

// WrapWidth is the fixed layout width: the geometry width, raised to
// min_width when that is larger.
func (g Global) WrapWidth() int {
	return max(g.Geometry.Width, g.MinWidth)
}

// RefreshInterval returns the age refresh cadence; zero disables polling.
func (g Global) RefreshInterval() time.Duration {
	return time.Duration(g.RefreshIntervalMS) * time.Millisecond
}

// LevelTrace sits below slog.LevelDebug for very chatty output.
const LevelTrace = slog.LevelDebug - 4

// LogLevel converts log_verbosity into an slog level.
func (g Global) LogLevel() (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(g.LogVerbosity)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "off":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// lightPalette replaces the embedded default colors when the desktop
// prefers a light color scheme.
var lightPalette = map[model.Urgency][2]string{
	model.UrgencyLow:      {"#eff1f5", "#8c8fa1"},
	model.UrgencyNormal:   {"#eff1f5", "#4c4f69"},
	model.UrgencyCritical: {"#eff1f5", "#d20f39"},
}

// WithColorScheme returns the configuration to use under the desktop's
// color scheme. Only the embedded default follows it; a config loaded from
// a file is returned unchanged.
func (c *Config) WithColorScheme(dark bool) *Config {
	if dark || c.Path != "" {
		return c
	}
	light := *c
	for u, colors := range lightPalette {
		uc := light.Urgency(u)
		uc.Background = MustColor(colors[0])
		uc.Foreground = MustColor(colors[1])
	}
	return &light
}
