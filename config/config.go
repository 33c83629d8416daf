// Package config reads the settings of the inv command from the environment,
// optionally completed by a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store types.
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Store     StoreConfig
	Report    ReportConfig
	Logging   LoggingConfig
	Scheduler SchedulerConfig
}

// StoreConfig tells where transactions and matches live.
type StoreConfig struct {
	Type string // StoreJSONL or StoreSQLite
	Data string // folder of the JSONL files, or SQLite database file
}

// ReportConfig holds the settings of reports.
type ReportConfig struct {
	Currency string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Verbose bool
	Format  string // text or json
}

// SchedulerConfig holds the background reconciliation settings.
type SchedulerConfig struct {
	Shards int // 0 means one per CPU
}

// Load loads configuration from environment variables. Variables not set in
// the environment are read from files, ".env" by default, if they exist.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("loading %s: %w", strings.Join(files, ", "), err)
	}

	verbose, errVerbose := getEnvBool("INV_VERBOSE", false)
	shards, errShards := getEnvInt("INV_SHARDS", 0)
	if err := errors.Join(errVerbose, errShards); err != nil {
		return nil, err
	}

	c := &Config{
		Store: StoreConfig{
			Type: getEnvString("INV_STORE", StoreJSONL),
			Data: getEnvString("INV_DATA", "."),
		},
		Report: ReportConfig{
			Currency: getEnvString("INV_CURRENCY", "ISK"),
		},
		Logging: LoggingConfig{
			Verbose: verbose,
			Format:  getEnvString("INV_LOG_FORMAT", "text"),
		},
		Scheduler: SchedulerConfig{
			Shards: shards,
		},
	}
	return c, c.Validate()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreJSONL, StoreSQLite:
	default:
		return fmt.Errorf("invalid store type %q, want %q or %q", c.Store.Type, StoreJSONL, StoreSQLite)
	}
	if c.Store.Data == "" {
		return fmt.Errorf("data location required for the %s store", c.Store.Type)
	}
	if c.Report.Currency == "" {
		return fmt.Errorf("report currency required")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	if c.Scheduler.Shards < 0 {
		return fmt.Errorf("invalid number of shards: %d", c.Scheduler.Shards)
	}
	return nil
}

// Logger returns a logger writing to w according to the configuration.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if c.Logging.Verbose {
		opts.Level = slog.LevelDebug
	}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) String() string {
	return fmt.Sprintf("Store{Type:%s, Data:%s}, Report{Currency:%s}, Shards:%d",
		c.Store.Type, c.Store.Data, c.Report.Currency, c.Scheduler.Shards)
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want an integer", key, value)
	}
	return intValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue, nil
	}
	switch strings.ToLower(value) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s %q: want true or false", key, value)
}
