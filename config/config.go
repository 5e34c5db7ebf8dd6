package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Pipeline PipelineConfig
	Output   OutputConfig
	Cache    CacheConfig
	Log      LogConfig
	Stores   map[string]StoreConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScraperConfig holds listing page fetch settings
type ScraperConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// PipelineConfig holds run orchestration settings
type PipelineConfig struct {
	Stores            []string `mapstructure:"stores"` // merge order
	Strict            bool     `mapstructure:"strict"`
	Concurrency       int      `mapstructure:"concurrency"`
	RejectionWarnRate float64  `mapstructure:"rejection_warn_rate"`
}

// OutputConfig holds artifact locations
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite_path"` // empty disables run history
	IndentJSON bool   `mapstructure:"indent_json"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// StoreConfig adjusts one built-in store profile. Amounts are decimal strings.
type StoreConfig struct {
	Enabled   *bool  `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	PageParam string `mapstructure:"page_param"`
	MaxPages  int    `mapstructure:"max_pages"`
	MinPrice  string `mapstructure:"min_price"`
	PriceMin  string `mapstructure:"price_min"`
	PriceMax  string `mapstructure:"price_max"`
}

// IsEnabled reports whether the store takes part in runs; absent means enabled
func (s StoreConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// EnabledStores returns the configured store order without disabled stores
func (c *Config) EnabledStores() []string {
	out := make([]string, 0, len(c.Pipeline.Stores))
	for _, store := range c.Pipeline.Stores {
		if c.Stores[store].IsEnabled() {
			out = append(out, store)
		}
	}
	return out
}

// Load loads configuration from environment variables and config files.
// path selects an explicit config file; empty searches the default locations.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/churbro/")
	}

	// CHURBRO_SERVER_PORT -> server.port
	v.SetEnvPrefix("CHURBRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Scraper defaults
	v.SetDefault("scraper.user_agent", "churbro/1.0 (+https://github.com/churbro)")
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.requests_per_second", 0.5)
	v.SetDefault("scraper.burst", 1)
	v.SetDefault("scraper.max_retries", 2)
	v.SetDefault("scraper.retry_backoff", "2s")

	// Pipeline defaults
	v.SetDefault("pipeline.stores", []string{"newworld", "paknsave", "woolworths", "madbutcher"})
	v.SetDefault("pipeline.strict", false)
	v.SetDefault("pipeline.concurrency", 2)
	v.SetDefault("pipeline.rejection_warn_rate", 0.5)

	// Output defaults
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.sqlite_path", "data/churbro.db")
	v.SetDefault("output.indent_json", true)

	// Cache defaults
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.sweep_interval", "5m")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	if config.Scraper.RequestsPerSecond <= 0 {
		return fmt.Errorf("scraper requests_per_second must be positive, got: %v", config.Scraper.RequestsPerSecond)
	}
	if config.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper max_retries must not be negative, got: %d", config.Scraper.MaxRetries)
	}

	if len(config.Pipeline.Stores) == 0 {
		return fmt.Errorf("pipeline stores must list at least one store")
	}
	if config.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1, got: %d", config.Pipeline.Concurrency)
	}

	if config.Output.Dir == "" {
		return fmt.Errorf("output dir is required (set CHURBRO_OUTPUT_DIR)")
	}

	for name, store := range config.Stores {
		if err := store.validate(); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
	}
	return nil
}

func (s StoreConfig) validate() error {
	amounts := map[string]string{"min_price": s.MinPrice, "price_min": s.PriceMin, "price_max": s.PriceMax}
	for key, raw := range amounts {
		if raw == "" {
			continue
		}
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("%s %q is not an amount", key, raw)
		}
	}
	if s.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got: %d", s.MaxPages)
	}
	return nil
}

// loadEnvFile reads ./.env without overriding variables that are already
// set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// NewLogger builds the process logger described by the log settings
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
