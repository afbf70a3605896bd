package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ORDERBOOK"

type Config struct {
	Instrument string      `mapstructure:"instrument"`
	Prune      PruneConfig `mapstructure:"prune"`
	Log        LogConfig   `mapstructure:"log"`
}

type PruneConfig struct {
	Hour     int    `mapstructure:"hour"`
	Minute   int    `mapstructure:"minute"`
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Production bool `mapstructure:"production"`
}

// LoadConfig reads the configuration from path, if given, and from
// ORDERBOOK_ prefixed environment variables such as ORDERBOOK_PRUNE_HOUR.
// Environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("instrument", "")
	v.SetDefault("prune.hour", DefaultPruneHour)
	v.SetDefault("prune.minute", DefaultPruneMinute)
	v.SetDefault("prune.timezone", "Local")
	v.SetDefault("log.production", true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Prune.Hour < 0 || c.Prune.Hour > 23 {
		return fmt.Errorf("%w: prune.hour %d out of range", ErrInvalidParam, c.Prune.Hour)
	}
	if c.Prune.Minute < 0 || c.Prune.Minute > 59 {
		return fmt.Errorf("%w: prune.minute %d out of range", ErrInvalidParam, c.Prune.Minute)
	}
	if _, err := time.LoadLocation(c.Prune.Timezone); err != nil {
		return fmt.Errorf("%w: prune.timezone %q: %v", ErrInvalidParam, c.Prune.Timezone, err)
	}
	return nil
}

// Options converts the configuration into order book options.
func (c *Config) Options() ([]OrderBookOption, error) {
	loc, err := time.LoadLocation(c.Prune.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", c.Prune.Timezone, err)
	}

	return []OrderBookOption{
		WithInstrument(c.Instrument),
		WithPruneTime(c.Prune.Hour, c.Prune.Minute),
		WithLocation(loc),
	}, nil
}
