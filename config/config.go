// Package config loads server settings from the environment.
//
// Values come from, in increasing priority: defaults, a .env file in the
// working directory, the process environment, and command-line flags
// (applied by the caller through BindFlags).
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Port         int
	DBPath       string // ":memory:" keeps everything in process
	KeyPrefix    string
	Strict       bool
	SyncInterval time.Duration // 0 disables background re-sync
	CORSOrigins  []string
	LogLevel     slog.Level
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:         8080,
		DBPath:       "pharmacy.db",
		SyncInterval: time.Minute,
		CORSOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		LogLevel:     slog.LevelInfo,
	}
}

// Load reads .env (if present) and the environment on top of the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("PHARMACY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PHARMACY_PORT %q", v)
		}
		cfg.Port = port
	}
	if v := getenv("PHARMACY_DB"); v != "" {
		cfg.DBPath = v
	}
	cfg.KeyPrefix = getenv("PHARMACY_KEY_PREFIX")
	if v := getenv("PHARMACY_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PHARMACY_STRICT %q: %w", v, err)
		}
		cfg.Strict = strict
	}
	if v := getenv("PHARMACY_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid PHARMACY_SYNC_INTERVAL %q", v)
		}
		cfg.SyncInterval = d
	}
	if v := getenv("PHARMACY_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getenv("PHARMACY_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, fmt.Errorf("invalid PHARMACY_LOG_LEVEL %q: %w", v, err)
		}
	}
	return cfg, nil
}

// BindFlags registers flags that override cfg when fs is parsed.
func (cfg *Config) BindFlags(fs *flag.FlagSet) {
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (\":memory:\" for none)")
	fs.StringVar(&cfg.KeyPrefix, "key-prefix", cfg.KeyPrefix, "namespace prefix for storage keys")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "reject unknown and duplicate ids")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "retry interval for failed saves (0 disables)")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
