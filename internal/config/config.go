// Package config reads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL     = "http://localhost:5000"
	defaultTimeout    = 10 * time.Second
	defaultDBPath     = "./matrix.db"
	defaultExportDir  = "."
	defaultListenAddr = ":8080"
)

type Config struct {
	APIURL          string
	HTTPTimeout     time.Duration
	DBPath          string
	ExportDir       string
	ListenAddr      string
	RefreshInterval time.Duration
	LogLevel        slog.Level
}

// Load reads .env from the working directory when present, then the
// environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		APIURL:     strings.TrimRight(get("MATRIX_API_URL", defaultAPIURL), "/"),
		DBPath:     get("MATRIX_DB_PATH", defaultDBPath),
		ExportDir:  get("MATRIX_EXPORT_DIR", defaultExportDir),
		ListenAddr: get("MATRIX_LISTEN_ADDR", defaultListenAddr),
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("MATRIX_API_URL: %q is not an http(s) URL", cfg.APIURL)
	}

	cfg.HTTPTimeout, err = duration(get("MATRIX_HTTP_TIMEOUT", ""), defaultTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("MATRIX_HTTP_TIMEOUT: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("MATRIX_HTTP_TIMEOUT: must be positive")
	}

	cfg.RefreshInterval, err = duration(get("MATRIX_REFRESH_INTERVAL", ""), 0)
	if err != nil {
		return Config{}, fmt.Errorf("MATRIX_REFRESH_INTERVAL: %w", err)
	}
	if cfg.RefreshInterval < 0 {
		return Config{}, fmt.Errorf("MATRIX_REFRESH_INTERVAL: must not be negative")
	}

	cfg.LogLevel, err = ParseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func duration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", s)
	}
	return level, nil
}
