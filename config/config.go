package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Decomposer DecomposerConfig
	Cache      CacheConfig
	Matching   MatchingConfig
	Planning   PlanningConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects where recipes, inventory and staples are stored
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "memory"
	Path   string `mapstructure:"path"`
}

// DecomposerConfig holds the meal decomposition service settings.
// An empty BaseURL disables decomposition.
type DecomposerConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MatchingConfig tunes the fuzzy matcher
type MatchingConfig struct {
	MinConfidenceThreshold float64 `mapstructure:"min_confidence_threshold"`
	AmbiguityMargin        float64 `mapstructure:"ambiguity_margin"`
	FuzzyEditDistance      int     `mapstructure:"fuzzy_edit_distance"`
}

// PlanningConfig holds meal planning defaults
type PlanningConfig struct {
	DefaultServings    int  `mapstructure:"default_servings"`
	RememberDecomposed bool `mapstructure:"remember_decomposed"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grocerybutler/")

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFile loads configuration from an explicit file; env vars still override it
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GROCERYBUTLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// loadEnvFile exports variables from ./.env that are not already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values. Every key is registered so that
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "grocerybutler.db")

	v.SetDefault("decomposer.base_url", "")
	v.SetDefault("decomposer.api_key", "")
	v.SetDefault("decomposer.timeout", "30s")
	v.SetDefault("decomposer.requests_per_second", 2.0)
	v.SetDefault("decomposer.max_retries", 3)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "168h") // 7 days

	v.SetDefault("matching.min_confidence_threshold", 0.8)
	v.SetDefault("matching.ambiguity_margin", 0.05)
	v.SetDefault("matching.fuzzy_edit_distance", 1)

	v.SetDefault("planning.default_servings", 4)
	v.SetDefault("planning.remember_decomposed", true)

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.development", false)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver (set GROCERYBUTLER_DATABASE_PATH)")
		}
	case "memory":
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'memory', got: %s", config.Database.Driver)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if t := config.Matching.MinConfidenceThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("matching.min_confidence_threshold must be in (0,1], got: %v", t)
	}

	if m := config.Matching.AmbiguityMargin; m <= 0 || m >= 1 {
		return fmt.Errorf("matching.ambiguity_margin must be in (0,1), got: %v", m)
	}

	if config.Matching.FuzzyEditDistance < 0 {
		return fmt.Errorf("matching.fuzzy_edit_distance must not be negative, got: %d", config.Matching.FuzzyEditDistance)
	}

	if config.Planning.DefaultServings <= 0 {
		return fmt.Errorf("planning.default_servings must be positive, got: %d", config.Planning.DefaultServings)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got: %s", config.Logging.Format)
	}

	return nil
}
