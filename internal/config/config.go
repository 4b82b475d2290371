package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from the defaults,
// then an optional YAML file, then GTFSDB_* environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite3 sqlite pgx"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type ImportConfig struct {
	BatchSize        int    `yaml:"batch_size" validate:"gt=0"`
	RowPolicy        string `yaml:"row_policy" validate:"oneof=skip abort"`
	MaxLineLength    int    `yaml:"max_line_length" validate:"gt=0"`
	RequireCoreFiles bool   `yaml:"require_core_files"`
	ClearExisting    bool   `yaml:"clear_existing"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./gtfs.db",
		},
		Import: ImportConfig{
			BatchSize:     10000,
			RowPolicy:     "skip",
			MaxLineLength: 10000,
			ClearExisting: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from path (skipped when empty) and the
// environment. It does not validate: callers apply their own overrides
// and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envSettings maps each GTFSDB_* variable to the setting it overrides.
// The target is a *string, *int or *bool.
var envSettings = []struct {
	key    string
	target func(c *Config) any
}{
	{"GTFSDB_DB_DRIVER", func(c *Config) any { return &c.Database.Driver }},
	{"GTFSDB_DB_DSN", func(c *Config) any { return &c.Database.DSN }},
	{"GTFSDB_BATCH_SIZE", func(c *Config) any { return &c.Import.BatchSize }},
	{"GTFSDB_ROW_POLICY", func(c *Config) any { return &c.Import.RowPolicy }},
	{"GTFSDB_MAX_LINE_LENGTH", func(c *Config) any { return &c.Import.MaxLineLength }},
	{"GTFSDB_REQUIRE_CORE_FILES", func(c *Config) any { return &c.Import.RequireCoreFiles }},
	{"GTFSDB_CLEAR_EXISTING", func(c *Config) any { return &c.Import.ClearExisting }},
	{"GTFSDB_LOG_LEVEL", func(c *Config) any { return &c.Log.Level }},
	{"GTFSDB_LOG_FORMAT", func(c *Config) any { return &c.Log.Format }},
}

// applyEnv overrides settings from the environment. Empty variables are
// ignored; a value that does not parse is an error.
func (c *Config) applyEnv() error {
	for _, s := range envSettings {
		v := os.Getenv(s.key)
		if v == "" {
			continue
		}
		switch p := s.target(c).(type) {
		case *string:
			*p = v
		case *int:
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: invalid integer %q", s.key, v)
			}
			*p = n
		case *bool:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: invalid boolean %q", s.key, v)
			}
			*p = b
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
