package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Barcode    BarcodeConfig
	Cache      CacheConfig
	Classifier ClassifierConfig
	Enrichment EnrichmentConfig
	Auth       AuthConfig
	Logging    LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BarcodeConfig holds barcode lookup API configuration.
// An empty APIKey disables lookups; every UPC then resolves from the supplier table.
type BarcodeConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ClassifierConfig holds the path to the exported category model
type ClassifierConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

// EnrichmentConfig holds enrichment run settings
type EnrichmentConfig struct {
	Storefront string `mapstructure:"storefront"`
	Workers    int    `mapstructure:"workers"`
}

// AuthConfig holds the shared access key for the HTTP surface
type AuthConfig struct {
	AccessKey string `mapstructure:"access_key"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Option customises how Load resolves configuration
type Option func(*loadOptions)

type loadOptions struct {
	configFile string
	flags      map[string]*pflag.Flag
}

// WithConfigFile reads path instead of searching the default locations
func WithConfigFile(path string) Option {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithFlag binds a command-line flag to a config key. Flags that were set win over env and file values.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(o *loadOptions) {
		if flag != nil {
			o.flags[key] = flag
		}
	}
}

// Load loads configuration from environment variables and config files
func Load(opts ...Option) (*Config, error) {
	options := loadOptions{flags: make(map[string]*pflag.Flag)}
	for _, opt := range opts {
		opt(&options)
	}

	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	if options.configFile != "" {
		v.SetConfigFile(options.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/itembuilder/")
	}

	// Environment variable settings
	v.SetEnvPrefix("ITEMBUILDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	for key, flag := range options.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("error binding flag %s: %w", flag.Name, err)
		}
	}

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment are left untouched.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Barcode lookup defaults
	v.SetDefault("barcode.api_key", "")
	v.SetDefault("barcode.base_url", "https://api.barcodelookup.com/v3")
	v.SetDefault("barcode.timeout", "10s")
	v.SetDefault("barcode.requests_per_second", 2)
	v.SetDefault("barcode.burst", 5)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Classifier defaults (no model)
	v.SetDefault("classifier.model_path", "")

	// Enrichment defaults
	v.SetDefault("enrichment.storefront", "MindGames.ca")
	v.SetDefault("enrichment.workers", 1)

	// Auth defaults (gate disabled)
	v.SetDefault("auth.access_key", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Barcode.Timeout <= 0 {
		return fmt.Errorf("barcode timeout must be positive, got: %s", config.Barcode.Timeout)
	}

	if config.Enrichment.Workers < 1 {
		return fmt.Errorf("enrichment workers must be at least 1, got: %d", config.Enrichment.Workers)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be one of debug, info, warn, error, got: %s", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got: %s", config.Logging.Format)
	}

	return nil
}

// LookupEnabled reports whether barcode lookups can be attempted
func (c *Config) LookupEnabled() bool {
	return c.Barcode.APIKey != "" && c.Barcode.BaseURL != ""
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
