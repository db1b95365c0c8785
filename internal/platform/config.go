package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/aretw0/daybook/pkg/core"
)

// ID strategies accepted in configuration.
const (
	IDStrategyLength       = "length"
	IDStrategyNextAfterMax = "next-after-max"
)

// Config is the user configuration, read from a TOML file and then
// overridden by DAYBOOK_* environment variables.
type Config struct {
	DataDir          string `toml:"data_dir" env:"DAYBOOK_DATA_DIR"`
	Adapter          string `toml:"adapter" env:"DAYBOOK_ADAPTER"`
	LogLevel         string `toml:"log_level" env:"DAYBOOK_LOG_LEVEL"`
	LogFormat        string `toml:"log_format" env:"DAYBOOK_LOG_FORMAT"`
	IDStrategy       string `toml:"id_strategy" env:"DAYBOOK_ID_STRATEGY"`
	StrictToggle     bool   `toml:"strict_toggle" env:"DAYBOOK_STRICT_TOGGLE"`
	ReadOnly         bool   `toml:"read_only" env:"DAYBOOK_READ_ONLY"`
	SchemaValidation bool   `toml:"schema_validation" env:"DAYBOOK_SCHEMA_VALIDATION"`
	BackupKeep       int    `toml:"backup_keep" env:"DAYBOOK_BACKUP_KEEP"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Adapter:          AdapterFS,
		LogLevel:         "info",
		LogFormat:        "text",
		IDStrategy:       IDStrategyLength,
		SchemaValidation: true,
		BackupKeep:       10,
	}
}

// LoadConfig reads path (a missing file is not an error; an empty path means
// DefaultConfigFile) and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		def, err := DefaultConfigFile()
		if err == nil {
			path = def
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown enumerated values.
func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterFS, AdapterSQLite:
	default:
		return fmt.Errorf("unknown adapter %q (want %q or %q)", c.Adapter, AdapterFS, AdapterSQLite)
	}
	switch c.IDStrategy {
	case IDStrategyLength, IDStrategyNextAfterMax:
	default:
		return fmt.Errorf("unknown id_strategy %q (want %q or %q)", c.IDStrategy, IDStrategyLength, IDStrategyNextAfterMax)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	if c.BackupKeep < 0 {
		return fmt.Errorf("backup_keep must not be negative: %d", c.BackupKeep)
	}
	return nil
}

// Options converts the configuration into factory options.
func (c Config) Options() []Option {
	opts := []Option{
		WithAdapter(c.Adapter),
		WithReadOnly(c.ReadOnly),
		WithStrictToggle(c.StrictToggle),
		WithSchemaValidation(c.SchemaValidation),
	}
	if c.IDStrategy == IDStrategyNextAfterMax {
		opts = append(opts, WithIDAllocator(core.NextAfterMaxIDs))
	}
	return opts
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", name)
	}
	return level, nil
}
