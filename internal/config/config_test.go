package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.API.StripAuditFields {
		t.Error("audit fields should be stripped by default")
	}
	if cfg.Database.Path == "" {
		t.Error("Resolve should set a sqlite path")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"sqlserver without server", func(c *Config) { c.Database.Driver = "sqlserver"; c.Database.Name = "db" }},
		{"sqlserver without name", func(c *Config) { c.Database.Driver = "sqlserver"; c.Database.Server = "h" }},
		{"sqlserver bad port", func(c *Config) {
			c.Database.Driver = "sqlserver"
			c.Database.Server = "h"
			c.Database.Name = "db"
			c.Database.Port = 0
		}},
		{"pool size", func(c *Config) { c.Database.MaxPoolSize = 0 }},
		{"verify mode", func(c *Config) { c.Database.VerifySchema = "sometimes" }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"stats window", func(c *Config) { c.Stats.Window = 0 }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bakery.yaml")
	content := `
http:
  addr: ":9000"
database:
  driver: sqlserver
  server: db.local
  name: Bakery
  verify_schema: strict
logging:
  level: debug
stats:
  window: 1h
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.Database.Server != "db.local" || cfg.Database.VerifySchema != VerifyStrict {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Stats.Window != time.Hour {
		t.Errorf("stats.window = %v", cfg.Stats.Window)
	}
	// Unset fields keep their defaults.
	if cfg.Database.Port != 1433 || cfg.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("defaults lost: port=%d read_timeout=%v", cfg.Database.Port, cfg.HTTP.ReadTimeout)
	}
}

func TestLoadFromFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bakery.toml")
	if err := os.WriteFile(path, []byte("x=1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for .toml")
	}
}

func TestLoadFromEnv_DeploymentNames(t *testing.T) {
	t.Setenv("PORT", "3005")
	t.Setenv("DB_SERVER", "sql.example")
	t.Setenv("DB_NAME", "Bakery")
	t.Setenv("DB_PORT", "1500")
	t.Setenv("DB_ENCRYPT", "false")
	t.Setenv("DB_TRUST_SERVER_CERTIFICATE", "true")
	t.Setenv("DB_MAX_POOL_SIZE", "25")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.HTTP.Addr != ":3005" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Database.Driver != "sqlserver" {
		t.Errorf("driver = %q, want sqlserver when DB_SERVER is set", cfg.Database.Driver)
	}
	if cfg.Database.Port != 1500 || cfg.Database.MaxPoolSize != 25 {
		t.Errorf("port=%d pool=%d", cfg.Database.Port, cfg.Database.MaxPoolSize)
	}
	if cfg.Database.Encrypt || !cfg.Database.TrustServerCertificate {
		t.Errorf("encrypt=%v trust=%v", cfg.Database.Encrypt, cfg.Database.TrustServerCertificate)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromEnv_PrefixedWins(t *testing.T) {
	t.Setenv("DB_NAME", "Legacy")
	t.Setenv("BAKERY_DB_NAME", "Current")
	t.Setenv("BAKERY_HTTP_ADDR", "127.0.0.1:8000")
	t.Setenv("PORT", "9999")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	if cfg.Database.Name != "Current" {
		t.Errorf("name = %q", cfg.Database.Name)
	}
	if cfg.HTTP.Addr != "127.0.0.1:8000" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BAKERY_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("BAKERY_TEST_DOTENV") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("BAKERY_TEST_DOTENV"); got != "loaded" {
		t.Errorf("BAKERY_TEST_DOTENV = %q", got)
	}
}
