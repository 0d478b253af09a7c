package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

// ExtractionConfig holds the tunables of record extraction
type ExtractionConfig struct {
	ApproximateUplift float64 `mapstructure:"approximate_uplift"`
	MaxSalesUnits     int     `mapstructure:"max_sales_units"`
	DefaultLayout     string  `mapstructure:"default_layout"`
}

// FetchConfig holds detail page fetching configuration
type FetchConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	MaxBatch       int           `mapstructure:"max_batch"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/marketlens/")

	// MARKETLENS_FETCH_RATE_PER_SECOND -> fetch.rate_per_second
	v.SetEnvPrefix("MARKETLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})
	v.SetDefault("server.max_body_bytes", 10<<20)

	// Extraction defaults
	v.SetDefault("extraction.approximate_uplift", 1.10)
	v.SetDefault("extraction.max_sales_units", 50_000_000)
	v.SetDefault("extraction.default_layout", "primary")

	// Fetch defaults
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; MarketLens/1.0)")
	v.SetDefault("fetch.accept_language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.burst", 4)
	v.SetDefault("fetch.max_concurrent", 4)
	v.SetDefault("fetch.max_batch", 50)

	// Cache defaults
	v.SetDefault("cache.ttl", "6h")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.development", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set MARKETLENS_SERVER_PORT)")
	}

	if config.Extraction.ApproximateUplift < 1 {
		return fmt.Errorf("approximate uplift must be at least 1, got: %v", config.Extraction.ApproximateUplift)
	}

	if config.Extraction.MaxSalesUnits < 1 {
		return fmt.Errorf("max sales units must be positive, got: %d", config.Extraction.MaxSalesUnits)
	}

	switch config.Extraction.DefaultLayout {
	case "primary", "secondary":
	default:
		return fmt.Errorf("default layout must be 'primary' or 'secondary', got: %s", config.Extraction.DefaultLayout)
	}

	if config.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("fetch rate must be positive, got: %v", config.Fetch.RatePerSecond)
	}

	if config.Fetch.MaxConcurrent < 1 {
		return fmt.Errorf("fetch max concurrency must be positive, got: %d", config.Fetch.MaxConcurrent)
	}

	if config.Fetch.MaxBatch < 1 {
		return fmt.Errorf("fetch max batch must be positive, got: %d", config.Fetch.MaxBatch)
	}

	return nil
}
