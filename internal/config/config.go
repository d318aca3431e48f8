// Package config provides the configuration of the maintenance service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Schema verification modes.
const (
	VerifyStrict = "strict"
	VerifyWarn   = "warn"
	VerifyOff    = "off"
)

// Config holds the configuration of the maintenance service.
type Config struct {
	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// API behaviour
	API APIConfig `json:"api" yaml:"api"`

	// Update statistics
	Stats StatsConfig `json:"stats" yaml:"stats"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds the drain of in-flight requests
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Driver is sqlserver or sqlite3
	Driver string `json:"driver" yaml:"driver"`

	// Server, Port, Name, User and Password address a SQL Server instance
	Server   string `json:"server" yaml:"server"`
	Port     int    `json:"port" yaml:"port"`
	Name     string `json:"name" yaml:"name"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`

	// Encrypt and TrustServerCertificate control TLS to SQL Server
	Encrypt                bool `json:"encrypt" yaml:"encrypt"`
	TrustServerCertificate bool `json:"trust_server_certificate" yaml:"trust_server_certificate"`

	// Path is the sqlite database file
	Path string `json:"path" yaml:"path"`

	// MaxPoolSize is the maximum number of open connections
	MaxPoolSize int `json:"max_pool_size" yaml:"max_pool_size"`

	// ConnectTimeout bounds the initial connection attempt
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`

	// HealthInterval is the interval between availability pings
	HealthInterval time.Duration `json:"health_interval" yaml:"health_interval"`

	// VerifySchema is strict, warn or off
	VerifySchema string `json:"verify_schema" yaml:"verify_schema"`

	// Bootstrap creates missing tables at startup
	Bootstrap bool `json:"bootstrap" yaml:"bootstrap"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" yaml:"level"`

	// Format is text or json
	Format string `json:"format" yaml:"format"`

	// SeqURL enables shipping logs to a Seq server
	SeqURL string `json:"seq_url" yaml:"seq_url"`
}

// APIConfig holds REST API behaviour.
type APIConfig struct {
	// StripAuditFields removes Created_At and Updated_At from responses
	StripAuditFields bool `json:"strip_audit_fields" yaml:"strip_audit_fields"`
}

// StatsConfig holds update statistics configuration.
type StatsConfig struct {
	// Window is how long per-column counters are kept without activity
	Window time.Duration `json:"window" yaml:"window"`

	// TopN is the number of entries reported per ranking
	TopN int `json:"top_n" yaml:"top_n"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":3001",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         "sqlite3",
			Port:           1433,
			Encrypt:        true,
			MaxPoolSize:    10,
			ConnectTimeout: 30 * time.Second,
			HealthInterval: 30 * time.Second,
			VerifySchema:   VerifyWarn,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		API: APIConfig{
			StripAuditFields: true,
		},
		Stats: StatsConfig{
			Window: 24 * time.Hour,
			TopN:   10,
		},
	}
}

// Resolve fills values derived from other settings.
func (c *Config) Resolve() {
	if c.Database.Driver == "sqlite3" && c.Database.Path == "" {
		c.Database.Path = filepath.Join(".", "data", "bakery.db")
	}
	if c.Database.VerifySchema == "" {
		c.Database.VerifySchema = VerifyWarn
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	switch c.Database.Driver {
	case "sqlserver":
		if c.Database.Server == "" {
			return fmt.Errorf("database.server is required when driver is sqlserver")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required when driver is sqlserver")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
		}
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required when driver is sqlite3")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlserver or sqlite3)", c.Database.Driver)
	}

	if c.Database.MaxPoolSize < 1 {
		return fmt.Errorf("database.max_pool_size must be at least 1, got %d", c.Database.MaxPoolSize)
	}
	if c.Database.HealthInterval <= 0 {
		return fmt.Errorf("database.health_interval must be positive")
	}

	switch c.Database.VerifySchema {
	case VerifyStrict, VerifyWarn, VerifyOff:
	default:
		return fmt.Errorf("invalid database.verify_schema: %s (must be strict, warn, or off)", c.Database.VerifySchema)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Stats.Window <= 0 {
		return fmt.Errorf("stats.window must be positive")
	}
	if c.Stats.TopN < 1 {
		return fmt.Errorf("stats.top_n must be at least 1, got %d", c.Stats.TopN)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are kept. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// BAKERY_ variables take precedence over the deployment names (PORT,
// DB_SERVER, ...) shared with the existing installation scripts.
func LoadFromEnv(cfg *Config) {
	if v := firstEnv("BAKERY_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := firstEnv("BAKERY_HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		}
	}

	// Database configuration
	if v := firstEnv("BAKERY_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	} else if os.Getenv("DB_SERVER") != "" {
		cfg.Database.Driver = "sqlserver"
	}
	if v := firstEnv("BAKERY_DB_SERVER", "DB_SERVER"); v != "" {
		cfg.Database.Server = v
	}
	if v := firstEnv("BAKERY_DB_PORT", "DB_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Database.Port)
	}
	if v := firstEnv("BAKERY_DB_NAME", "DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := firstEnv("BAKERY_DB_USER", "DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := firstEnv("BAKERY_DB_PASSWORD", "DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := firstEnv("BAKERY_DB_ENCRYPT", "DB_ENCRYPT"); v != "" {
		cfg.Database.Encrypt = parseBool(v, cfg.Database.Encrypt)
	}
	if v := firstEnv("BAKERY_DB_TRUST_SERVER_CERTIFICATE", "DB_TRUST_SERVER_CERTIFICATE"); v != "" {
		cfg.Database.TrustServerCertificate = parseBool(v, cfg.Database.TrustServerCertificate)
	}
	if v := firstEnv("BAKERY_DB_MAX_POOL_SIZE", "DB_MAX_POOL_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Database.MaxPoolSize)
	}
	if v := firstEnv("BAKERY_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := firstEnv("BAKERY_DB_HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Database.HealthInterval = d
		}
	}
	if v := firstEnv("BAKERY_DB_VERIFY_SCHEMA"); v != "" {
		cfg.Database.VerifySchema = strings.ToLower(v)
	}
	if v := firstEnv("BAKERY_DB_BOOTSTRAP"); v != "" {
		cfg.Database.Bootstrap = parseBool(v, cfg.Database.Bootstrap)
	}

	// Logging configuration
	if v := firstEnv("BAKERY_LOG_LEVEL", "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := firstEnv("BAKERY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := firstEnv("BAKERY_SEQ_URL", "SEQ_URL"); v != "" {
		cfg.Logging.SeqURL = v
	}

	if v := firstEnv("BAKERY_API_STRIP_AUDIT_FIELDS"); v != "" {
		cfg.API.StripAuditFields = parseBool(v, cfg.API.StripAuditFields)
	}
	if v := firstEnv("BAKERY_STATS_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stats.Window = d
		}
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
