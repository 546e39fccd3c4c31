// Package config resolves the data directory layout and runtime settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataPath string
	DBPath   string
	AppsPath string

	// Session lifecycle.
	StaleAfter    time.Duration // open sessions older than this are zeroed by the sweep
	ActiveMaxAge  time.Duration // the active pointer is ignored past this age
	SweepInterval time.Duration

	QuotaKB      int
	LogLevel     string
	OTELEndpoint string
	Location     *time.Location

	// malformed lists INTENT_* values that did not parse; Validate reports them.
	malformed []string
}

func New(dataPath string) (Config, error) {
	if dataPath == "" {
		return Config{}, fmt.Errorf("data path is required")
	}
	return Config{
		DataPath:      dataPath,
		DBPath:        filepath.Join(dataPath, ".intent", "intent.db"),
		AppsPath:      filepath.Join(dataPath, "apps.yaml"),
		StaleAfter:    4 * time.Hour,
		ActiveMaxAge:  3 * time.Hour,
		SweepInterval: 30 * time.Second,
		QuotaKB:       5120,
		LogLevel:      "info",
	}, nil
}

// Load builds the default layout for dataPath and applies INTENT_* overrides
// from the environment and from an optional .env file.
func Load(dataPath string) (Config, error) {
	cfg, err := New(dataPath)
	if err != nil {
		return Config{}, err
	}
	_ = godotenv.Load(filepath.Join(dataPath, ".env"))

	cfg.StaleAfter = cfg.envDuration("INTENT_STALE_AFTER", cfg.StaleAfter)
	cfg.ActiveMaxAge = cfg.envDuration("INTENT_ACTIVE_MAX_AGE", cfg.ActiveMaxAge)
	cfg.SweepInterval = cfg.envDuration("INTENT_SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.QuotaKB = cfg.envInt("INTENT_QUOTA_KB", cfg.QuotaKB)
	cfg.LogLevel = envStr("INTENT_LOG_LEVEL", cfg.LogLevel)
	cfg.OTELEndpoint = envStr("INTENT_OTEL_ENDPOINT", "")
	if apps := envStr("INTENT_APPS_FILE", ""); apps != "" {
		cfg.AppsPath = apps
	}
	if tz := envStr("INTENT_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		cfg.Location = loc
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	errs := append([]string(nil), c.malformed...)
	if c.StaleAfter <= 0 {
		errs = append(errs, "INTENT_STALE_AFTER must be positive")
	}
	if c.ActiveMaxAge <= 0 {
		errs = append(errs, "INTENT_ACTIVE_MAX_AGE must be positive")
	}
	if c.ActiveMaxAge > c.StaleAfter {
		errs = append(errs, "INTENT_ACTIVE_MAX_AGE must not exceed INTENT_STALE_AFTER")
	}
	if c.SweepInterval < time.Second {
		errs = append(errs, "INTENT_SWEEP_INTERVAL must be at least 1s")
	}
	if c.QuotaKB <= 0 {
		errs = append(errs, "INTENT_QUOTA_KB must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.malformed = append(c.malformed, fmt.Sprintf("%s=%q is not an integer", key, v))
		return fallback
	}
	return n
}

func (c *Config) envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.malformed = append(c.malformed, fmt.Sprintf("%s=%q is not a duration", key, v))
		return fallback
	}
	return d
}
