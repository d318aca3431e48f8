// Package main implements the bakery maintenance backend binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bakeryops/bakery-maint/internal/app"
	"github.com/bakeryops/bakery-maint/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		envFile     string
		addr        string
		logLevel    string
		bootstrap   bool
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before the environment")
	flag.StringVar(&addr, "addr", "", "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&bootstrap, "bootstrap", false, "Create missing tables on startup")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bakery-maint - store, product and adjustment maintenance API\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bakery-maint [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bakery-maint --bootstrap\n")
		fmt.Fprintf(os.Stderr, "  bakery-maint --config /etc/bakery/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PORT, BAKERY_HTTP_ADDR       HTTP listen port or address\n")
		fmt.Fprintf(os.Stderr, "  DB_SERVER, DB_NAME, DB_USER  SQL Server connection (selects the sqlserver driver)\n")
		fmt.Fprintf(os.Stderr, "  DB_PASSWORD, DB_PORT         SQL Server credentials and port\n")
		fmt.Fprintf(os.Stderr, "  BAKERY_DB_PATH               sqlite database file\n")
		fmt.Fprintf(os.Stderr, "  LOG_LEVEL, SEQ_URL           logging\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("bakery-maint version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, envFile, addr, logLevel, bootstrap)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx := context.Background()
	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		application.Logger().Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// loadConfig applies defaults, the config file, .env, the environment and
// command line flags, in increasing priority.
func loadConfig(configFile, envFile, addr, logLevel string, bootstrap bool) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	config.LoadFromEnv(cfg)

	if addr != "" {
		cfg.HTTP.Addr = addr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if bootstrap {
		cfg.Database.Bootstrap = true
	}

	return cfg, nil
}
