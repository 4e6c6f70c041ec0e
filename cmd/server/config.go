package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// config is the process configuration read from the environment.
type config struct {
	Port             string
	DBPath           string
	SpoolPath        string
	ModeratorsConfig string
	OTelEnabled      bool
	MetricsInterval  time.Duration
	SlowQuery        time.Duration
}

// loadConfig reads the configuration through getenv so tests can supply
// their own environment.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		Port:             getenv("PORT"),
		DBPath:           getenv("MENTORHUB_DB_PATH"),
		SpoolPath:        getenv("MENTORHUB_SPOOL_PATH"),
		ModeratorsConfig: getenv("MENTORHUB_MODERATORS_CONFIG"),
		OTelEnabled:      getenv("OTEL_ENABLED") == "true",
		MetricsInterval:  time.Minute,
		SlowQuery:        200 * time.Millisecond,
	}
	if cfg.Port == "" {
		cfg.Port = "18920"
	}

	if cfg.DBPath == "" {
		// Default to the XDG data directory so the binary can run from a
		// read-only location
		dataDir := getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return cfg, fmt.Errorf("resolve home directory: %w", err)
			}
			dataDir = filepath.Join(home, ".local", "share")
		}
		cfg.DBPath = filepath.Join(dataDir, "mentorhub", "mentorhub.db")
	}
	if cfg.SpoolPath == "" {
		cfg.SpoolPath = filepath.Join(filepath.Dir(cfg.DBPath), "audit-spool.db")
	}

	if raw := getenv("METRICS_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("METRICS_INTERVAL must be a positive duration, got %q", raw)
		}
		cfg.MetricsInterval = d
	}
	if raw := getenv("MENTORHUB_SLOW_QUERY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("MENTORHUB_SLOW_QUERY must be a duration, got %q", raw)
		}
		cfg.SlowQuery = d
	}
	return cfg, nil
}

// parseLevel maps LOG_LEVEL to a zerolog level. Unknown values fall back to
// info.
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
