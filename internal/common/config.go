// Package common provides shared utilities for Tradebook
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends
const (
	BackendMemory    = "memory"
	BackendBadger    = "badger"
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
)

// Overdraft policies for a SELL larger than the held quantity
const (
	OverdraftReject = "reject"
	OverdraftClose  = "close"
)

// Config holds all configuration for Tradebook
type Config struct {
	Environment     string          `toml:"environment"`
	DisplayCurrency string          `toml:"display_currency"` // ISO code used when presenting prices
	Server          ServerConfig    `toml:"server"`
	Storage         StorageConfig   `toml:"storage"`
	Positions       PositionsConfig `toml:"positions"`
	Logging         LoggingConfig   `toml:"logging"`
	Profiling       ProfilingConfig `toml:"profiling"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"` // requests per second across the API, 0 disables
	RateBurst int     `toml:"rate_burst"`
}

// StorageConfig selects and configures the position store backend.
type StorageConfig struct {
	Backend   string          `toml:"backend"`
	Badger    BadgerConfig    `toml:"badger"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
	Postgres  PostgresConfig  `toml:"postgres"`
}

// BadgerConfig holds the embedded BadgerHold store location.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// PostgresConfig holds PostgreSQL connection settings. DSN wins when set.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
	DSN      string `toml:"dsn"`
}

// PositionsConfig holds reconciliation policy.
type PositionsConfig struct {
	OverdraftPolicy string `toml:"overdraft_policy"` // "reject" (default) or "close"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// ProfilingConfig holds continuous profiling settings
type ProfilingConfig struct {
	Enabled         bool   `toml:"enabled"`
	ServerAddress   string `toml:"server_address"`
	ApplicationName string `toml:"application_name"`
	UploadRate      string `toml:"upload_rate"`
}

// GetUploadRate parses and returns the profile upload interval
func (c *ProfilingConfig) GetUploadRate() time.Duration {
	d, err := time.ParseDuration(c.UploadRate)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "INR",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 50,
			RateBurst: 100,
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Badger:  BadgerConfig{Path: "data/positions"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "tradebook",
				Database:  "tradebook",
				Username:  "root",
				Password:  "root",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "tradebook",
				Database: "tradebook",
				SSLMode:  "disable",
			},
		},
		Positions: PositionsConfig{
			OverdraftPolicy: OverdraftReject,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Outputs:  []string{"console"},
			FilePath: "./logs/tradebook.log",
		},
		Profiling: ProfilingConfig{
			ServerAddress:   "http://localhost:4040",
			ApplicationName: "tradebook",
			UploadRate:      "15s",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRADEBOOK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TRADEBOOK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TRADEBOOK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TRADEBOOK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("TRADEBOOK_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("TRADEBOOK_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = filepath.Join(path, "positions")
	}

	if addr := os.Getenv("TRADEBOOK_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	if dsn := os.Getenv("TRADEBOOK_POSTGRES_DSN"); dsn != "" {
		config.Storage.Postgres.DSN = dsn
	}

	if policy := os.Getenv("TRADEBOOK_OVERDRAFT_POLICY"); policy != "" {
		config.Positions.OverdraftPolicy = strings.ToLower(policy)
	}

	if dc := os.Getenv("TRADEBOOK_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = strings.ToUpper(dc)
	}
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendBadger, BackendSurrealDB, BackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend: %s (supported: memory, badger, surrealdb, postgres)", c.Storage.Backend)
	}

	switch c.Positions.OverdraftPolicy {
	case OverdraftReject, OverdraftClose:
	default:
		return fmt.Errorf("unknown overdraft policy: %s (supported: reject, close)", c.Positions.OverdraftPolicy)
	}

	c.DisplayCurrency = strings.ToUpper(c.DisplayCurrency)
	if money.GetCurrency(c.DisplayCurrency) == nil {
		return fmt.Errorf("unknown display currency: %s", c.DisplayCurrency)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
