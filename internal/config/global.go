package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/imgajeed76/tabula/internal/logging"
	"github.com/imgajeed76/tabula/internal/pipeline"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "TABULA_CONFIG"

// Config represents the user's tabula settings stored in the config directory.
// Command-line flags take precedence over every value here.
type Config struct {
	Table    TableConfig    `toml:"table"`
	Display  DisplayConfig  `toml:"display"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// TableConfig contains the pipeline defaults for every table
type TableConfig struct {
	PageSize   int    `toml:"page_size" config:"table.page_size" default:"10" min:"0" max:"100000" desc:"Rows per page (0 = all rows)"`
	SelectMode string `toml:"select_mode" config:"table.select_mode" default:"none" desc:"Row selection: none, single, multi, range"`
	Sortable   bool   `toml:"sortable" config:"table.sortable" default:"true" desc:"Columns are sortable unless the field list says otherwise"`
}

// DisplayConfig contains output settings
type DisplayConfig struct {
	NoPager     bool `toml:"no_pager" config:"display.no_pager" default:"false" desc:"Print tables instead of opening the interactive viewer"`
	MaxColWidth int  `toml:"max_col_width" config:"display.max_col_width" default:"40" min:"4" max:"1000" desc:"Truncate cells wider than this"`
}

// DatabaseConfig contains PostgreSQL settings for the query command
type DatabaseConfig struct {
	URL     string `toml:"url" config:"database.url" desc:"PostgreSQL connection URL for tabula query"`
	Timeout string `toml:"timeout" config:"database.timeout" default:"30s" desc:"Query timeout (Go duration)"`
}

// LogConfig contains diagnostics settings
type LogConfig struct {
	Level  string `toml:"level" config:"log.level" default:"warn" desc:"Log level: debug, info, warn, error"`
	Format string `toml:"format" config:"log.format" default:"text" desc:"Log format: text or json"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			PageSize:   int(pipeline.DefaultPageSize),
			SelectMode: string(pipeline.SelectNone),
			Sortable:   true,
		},
		Display: DisplayConfig{
			MaxColWidth: 40,
		},
		Database: DatabaseConfig{
			Timeout: "30s",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Path returns the path to the config file.
// Follows XDG Base Directory spec on Linux, platform conventions elsewhere
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "Library", "Application Support", "tabula")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tabula")
	default: // Linux and others - follow XDG
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "tabula")
		} else {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config", "tabula")
		}
	}

	return filepath.Join(configDir, "config.toml")
}

// Load reads the config file, falling back to defaults if it doesn't exist
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config file at path on top of the defaults
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Empty strings in the file mean "use the default"
	defaults := DefaultConfig()
	if cfg.Table.SelectMode == "" {
		cfg.Table.SelectMode = defaults.Table.SelectMode
	}
	if cfg.Display.MaxColWidth == 0 {
		cfg.Display.MaxColWidth = defaults.Display.MaxColWidth
	}
	if cfg.Database.Timeout == "" {
		cfg.Database.Timeout = defaults.Database.Timeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file
func (c *Config) Save() error {
	return c.SaveFile(Path())
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Validate checks values whose format the struct tags can't express
func (c *Config) Validate() error {
	if _, err := pipeline.ParseSelectMode(c.Table.SelectMode); err != nil {
		return fmt.Errorf("table.select_mode: %w", err)
	}
	if c.Table.PageSize < 0 {
		return fmt.Errorf("table.page_size: %w: %d", pipeline.ErrInvalidPageSize, c.Table.PageSize)
	}
	if _, err := c.QueryTimeout(); err != nil {
		return fmt.Errorf("database.timeout: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// PageSize returns the configured page size.
func (c *Config) PageSize() pipeline.PageSize {
	return pipeline.PageSize(c.Table.PageSize)
}

// SelectMode returns the configured selection mode.
func (c *Config) SelectMode() pipeline.SelectMode {
	mode, err := pipeline.ParseSelectMode(c.Table.SelectMode)
	if err != nil {
		return pipeline.SelectNone
	}
	return mode
}

// QueryTimeout parses database.timeout. Zero means no timeout.
func (c *Config) QueryTimeout() (time.Duration, error) {
	if c.Database.Timeout == "" || c.Database.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Database.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// GetValue returns a config value by key (uses reflection)
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key (uses reflection with validation)
func (c *Config) SetValue(key, value string) error {
	prev, _ := getFieldValue(c, key)
	if err := setFieldValue(c, key, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		_ = setFieldValue(c, key, prev)
		return err
	}
	return nil
}
