// Package config handles configuration loading and validation for
// expandd.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Snippets configures where trigger definitions come from.
	Snippets SnippetsConfig `toml:"snippets" json:"snippets" yaml:"snippets"`

	// Engine configures the matcher and expansion timing.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// History configures the expansion log.
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`

	// Logging configures structured log output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// SnippetsConfig locates snippet bundles.
type SnippetsConfig struct {
	// Dirs are directories scanned for markdown snippet bundles.
	Dirs []string `toml:"dirs" json:"dirs" yaml:"dirs"`

	// Watch enables incremental reload when bundle files change.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`

	// DebounceMs is how long a bundle must be quiet after a write
	// before it is re-parsed.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// EngineConfig tunes matching and injection.
type EngineConfig struct {
	// MaxBufferSize is the rolling keystroke buffer capacity in
	// characters.
	MaxBufferSize int `toml:"max_buffer_size" json:"max_buffer_size" yaml:"max_buffer_size"`

	// SettleDelayMs is the pause after a match before synthetic edits
	// begin, letting the triggering keystroke land in the target
	// application.
	SettleDelayMs int `toml:"settle_delay_ms" json:"settle_delay_ms" yaml:"settle_delay_ms"`

	// PasteDelayMs is the pause between deleting the trigger and
	// pasting the replacement.
	PasteDelayMs int `toml:"paste_delay_ms" json:"paste_delay_ms" yaml:"paste_delay_ms"`
}

// HistoryConfig configures the SQLite expansion log.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, or file.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output is file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Snippets: SnippetsConfig{
			Dirs:       []string{defaultSnippetDir()},
			Watch:      true,
			DebounceMs: 500,
		},
		Engine: EngineConfig{
			MaxBufferSize: 50,
			SettleDelayMs: 50,
			PasteDelayMs:  50,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// defaultSnippetDir returns the platform default bundle directory.
func defaultSnippetDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".expandd", "snippets")
}

// defaultHistoryPath returns the platform default history database
// path.
func defaultHistoryPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "expandd", "history.db")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "expandd", "history.db")
	default:
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, _ := os.UserHomeDir()
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "expandd", "history.db")
	}
}

// Load reads a configuration file, applies environment overrides, and
// validates the result. The format is chosen by extension: .toml
// (default), .yaml/.yml, or .json. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := unmarshalByExt(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func unmarshalByExt(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml config: %w", err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies EXPANDD_* environment variables on top of
// the loaded file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EXPANDD_SNIPPET_DIRS"); v != "" {
		c.Snippets.Dirs = filepath.SplitList(v)
	}
	if v := os.Getenv("EXPANDD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EXPANDD_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("EXPANDD_MAX_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.MaxBufferSize = n
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if len(c.Snippets.Dirs) == 0 {
		return errors.New("snippets.dirs must not be empty")
	}
	if c.Engine.MaxBufferSize <= 0 {
		return errors.New("engine.max_buffer_size must be positive")
	}
	if c.Engine.SettleDelayMs < 0 || c.Engine.PasteDelayMs < 0 {
		return errors.New("engine delays must not be negative")
	}
	if c.Snippets.DebounceMs < 0 {
		return errors.New("snippets.debounce_ms must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path required when history is enabled")
	}
	return nil
}
