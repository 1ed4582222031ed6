package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	appName = "notistack"

	// ConfigEnv overrides the configuration file location.
	ConfigEnv = "NOTISTACK_CONFIG"

	// ConfigFile is the configuration file name inside the config directories.
	ConfigFile = "notistack.toml"
)

//go:embed notistack.toml
var embeddedConfig []byte

// EmbeddedDefault returns the configuration shipped with the binary.
func EmbeddedDefault() []byte {
	return embeddedConfig
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigPath returns the XDG location of the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, ConfigFile)
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}

// HistoryPath returns the path to the history JSONL file.
func HistoryPath() string {
	return filepath.Join(DataPath(), "history.jsonl")
}

// CandidatePaths lists config locations in lookup order. explicit, when set,
// comes first.
func CandidatePaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		paths = append(paths, env)
	}
	if p := ConfigPath(); p != "" {
		paths = append(paths, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+appName, ConfigFile))
	}
	return paths
}

// ResolvePath returns the first existing candidate config file, or "" when
// the embedded default should be used. An explicit path that does not exist
// is an error.
func ResolvePath(explicit string) (string, error) {
	for i, p := range CandidatePaths(explicit) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat config file: %w", err)
		} else if i == 0 && explicit != "" {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
	}
	return "", nil
}

// Load resolves and loads the configuration. Without any config file on
// disk the embedded default is used.
func Load(explicit string) (*Config, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Parse(embeddedConfig)
	}
	return LoadFile(path)
}

// LoadFile loads and validates a specific config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid and compiles command
// templates.
func (c *Config) Validate() error {
	g := c.Global

	if _, ok := g.LogLevel(); !ok {
		return &ValidationError{"global.log_verbosity", fmt.Errorf("unknown level %q", g.LogVerbosity)}
	}
	if g.Geometry.Width <= 0 {
		return &ValidationError{"global.geometry", fmt.Errorf("%w: width must be positive", ErrInvalidGeometry)}
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"global.display_limit", g.DisplayLimit},
		{"global.min_width", g.MinWidth},
		{"global.refresh_interval_ms", g.RefreshIntervalMS},
		{"global.separator_height", g.SeparatorHeight},
		{"global.close_button_width", g.CloseButtonWidth},
		{"global.retain_read", g.RetainRead},
		{"global.monitor", g.Monitor},
	} {
		if f.value < 0 {
			return &ValidationError{f.name, fmt.Errorf("must not be negative, got %d", f.value)}
		}
	}
	if g.CloseButtonWidth >= g.WrapWidth() {
		return &ValidationError{"global.close_button_width", fmt.Errorf("must be narrower than the window (%d)", g.WrapWidth())}
	}
	if g.SoundVolume < 0 || g.SoundVolume > 100 {
		return &ValidationError{"global.sound_volume", fmt.Errorf("must be between 0 and 100, got %d", g.SoundVolume)}
	}

	for _, u := range []struct {
		name string
		cfg  *UrgencyConfig
	}{
		{"urgency_low", &c.UrgencyLow},
		{"urgency_normal", &c.UrgencyNormal},
		{"urgency_critical", &c.UrgencyCritical},
	} {
		if u.cfg.Timeout < 0 {
			return &ValidationError{u.name + ".timeout", fmt.Errorf("must not be negative, got %d", u.cfg.Timeout)}
		}
		for i := range u.cfg.CustomCommands {
			if err := u.cfg.CustomCommands[i].compile(); err != nil {
				return &ValidationError{fmt.Sprintf("%s.custom_commands[%d]", u.name, i), err}
			}
		}
	}
	return nil
}
