// Package config loads epubtidy settings from an optional YAML file and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings of a reformat run.
type Config struct {
	// Exclude lists item names or manifest ids copied unchanged.
	Exclude []string `mapstructure:"exclude"`
	// Blocks names the paragraph elements to merge.
	Blocks []string `mapstructure:"blocks"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Exclude:  []string{},
		Blocks:   []string{"p"},
		LogLevel: "info",
	}
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"exclude": "exclude",
	"blocks":  "block",
}

// Load reads cfgFile, or ./epubtidy.yaml when cfgFile is empty, and applies
// flags on top. A missing default file is not an error; a missing explicit
// file is.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("blocks", defaults.Blocks)
	v.SetDefault("log_level", defaults.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("epubtidy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
