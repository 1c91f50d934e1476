// Package config provides configuration loading and validation for tilth.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidTokenBudget  = errors.New("read token budget must be positive")
	ErrInvalidCacheEntries = errors.New("cache entry cap must be positive")
	ErrInvalidMetricsAddr  = errors.New("metrics address requires a port")
)

// Default configuration values.
const (
	defaultReadTokenBudget  = 1500
	defaultOutlineCacheCap  = 2048
	defaultBloomCacheCap    = 4096
	defaultSiblingHopBudget = 2
)

// Config holds all configuration for tilth.
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Read    ReadConfig    `mapstructure:"read"`
	Edit    EditConfig    `mapstructure:"edit"`
	Logging LoggingConfig `mapstructure:"logging"`
	OTEL    OTELConfig    `mapstructure:"otel"`
}

// CacheConfig bounds the in-memory caches tilth keeps across a session.
type CacheConfig struct {
	// OutlineEntries is the configured per-file outline cache entry cap.
	// LoadConfig rejects a non-positive value; no other package reads it,
	// and the outline cache has no entry limit or eviction.
	OutlineEntries int `mapstructure:"outline_entries"`

	// BloomEntries is the configured per-file Bloom filter cache entry cap.
	// LoadConfig rejects a non-positive value; no other package reads it,
	// and the Bloom cache has no entry limit or eviction.
	BloomEntries int `mapstructure:"bloom_entries"`

	// Directory is a configured on-disk cache location. It is loaded but not
	// read by any other package; caches are kept in memory only.
	Directory string `mapstructure:"directory"`
}

// ReadConfig controls tilth_read's full-vs-outline decision and expansion
// behavior.
type ReadConfig struct {
	// TokenBudget is a configured full-vs-outline token threshold. LoadConfig
	// rejects a non-positive value; no other package reads it: tilth_read
	// uses its own default threshold or the call's budget argument.
	TokenBudget int `mapstructure:"token_budget"`

	// SiblingHopBudget is a configured hop bound for expansion. It is loaded
	// but not read by the callee or sibling resolvers.
	SiblingHopBudget int `mapstructure:"sibling_hop_budget"`

	// StripComments is a configured comment-stripping toggle. It is loaded
	// but not read by match expansion.
	StripComments bool `mapstructure:"strip_comments"`
}

// EditConfig gates the hashline edit protocol.
type EditConfig struct {
	// Enabled turns on tilth_edit. Disabled by default; the CLI's --edit
	// flag flips this on for a session.
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OTELConfig holds OpenTelemetry export configuration.
type OTELConfig struct {
	Endpoint    string            `mapstructure:"endpoint"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`
	MetricsAddr string            `mapstructure:"metrics_addr"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("tilth")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./.tilth")
		viperCfg.AddConfigPath("/etc/tilth")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix("TILTH")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file.
	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Cache defaults.
	viperCfg.SetDefault("cache.outline_entries", defaultOutlineCacheCap)
	viperCfg.SetDefault("cache.bloom_entries", defaultBloomCacheCap)
	viperCfg.SetDefault("cache.directory", "")

	// Read defaults.
	viperCfg.SetDefault("read.token_budget", defaultReadTokenBudget)
	viperCfg.SetDefault("read.sibling_hop_budget", defaultSiblingHopBudget)
	viperCfg.SetDefault("read.strip_comments", true)

	// Edit defaults.
	viperCfg.SetDefault("edit.enabled", false)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	// OTEL defaults.
	viperCfg.SetDefault("otel.endpoint", "")
	viperCfg.SetDefault("otel.insecure", false)
	viperCfg.SetDefault("otel.metrics_addr", "")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Read.TokenBudget <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTokenBudget, config.Read.TokenBudget)
	}

	if config.Cache.OutlineEntries <= 0 {
		return fmt.Errorf("%w: outline_entries=%d", ErrInvalidCacheEntries, config.Cache.OutlineEntries)
	}

	if config.Cache.BloomEntries <= 0 {
		return fmt.Errorf("%w: bloom_entries=%d", ErrInvalidCacheEntries, config.Cache.BloomEntries)
	}

	if config.OTEL.MetricsAddr != "" && !strings.Contains(config.OTEL.MetricsAddr, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsAddr, config.OTEL.MetricsAddr)
	}

	return nil
}
