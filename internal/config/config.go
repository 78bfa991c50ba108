// Package config loads the application configuration from the environment
// and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the geomatcher.
type Config struct {
	Env      string         `mapstructure:"env"`      // Env is the current environment: local, development, production.
	Matcher  string         `mapstructure:"matcher"`  // Matcher selects the nearest-city search: linear or rtree.
	Geocoder GeocoderConfig `mapstructure:"geocoder"` // Geocoder holds the geocoding provider settings.
	Metrics  MetricsConfig  `mapstructure:"metrics"`  // Metrics holds the monitoring server settings.
	Cache    CacheConfig    `mapstructure:"cache"`    // Cache holds the geocode cache settings.
}

// GeocoderConfig holds the geocoding provider settings.
type GeocoderConfig struct {
	Provider  string `mapstructure:"provider"`   // Provider specifies which geocoding provider to use.
	APIKey    string `mapstructure:"api_key"`    // The API key for accessing external services (required for Google).
	RateLimit int    `mapstructure:"rate_limit"` // RateLimit caps provider requests per second.
	Workers   int    `mapstructure:"workers"`    // The number of concurrent workers for processing requests.
}

// MetricsConfig holds the monitoring server settings.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // Addr is the monitoring server listen address; empty disables it.
}

// CacheConfig holds the geocode cache settings.
type CacheConfig struct {
	Driver   string         `mapstructure:"driver"`   // Driver selects the cache backend: sqlite, postgres, off.
	Path     string         `mapstructure:"path"`     // Path is the SQLite database file.
	Postgres PostgresConfig `mapstructure:"postgres"` // Postgres holds the postgres cache configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// Load reads the configuration from an optional .env file, the PERIPLUS_*
// environment variables, and an optional config.yaml in the working
// directory. Environment variables win over the config file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PERIPLUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default: AutomaticEnv only unmarshals keys viper
	// already knows about.
	v.SetDefault("env", "local")
	v.SetDefault("matcher", "linear")
	v.SetDefault("geocoder.provider", "arcgis")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.rate_limit", 10)
	v.SetDefault("geocoder.workers", 10)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "periplus.db")
	v.SetDefault("cache.postgres.host", "")
	v.SetDefault("cache.postgres.port", "5432")
	v.SetDefault("cache.postgres.user", "")
	v.SetDefault("cache.postgres.password", "")
	v.SetDefault("cache.postgres.db_name", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
