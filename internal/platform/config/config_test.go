package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent/internal/platform/config"
)

func TestNewLaysOutDataDirectory(t *testing.T) {
	t.Parallel()
	cfg, err := config.New("/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", ".intent", "intent.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("/data", "apps.yaml"), cfg.AppsPath)
	assert.Equal(t, 4*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 3*time.Hour, cfg.ActiveMaxAge)
	require.NoError(t, cfg.Validate())
}

func TestNewRequiresDataPath(t *testing.T) {
	t.Parallel()
	_, err := config.New("")
	require.Error(t, err)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INTENT_STALE_AFTER", "2h")
	t.Setenv("INTENT_ACTIVE_MAX_AGE", "90m")
	t.Setenv("INTENT_QUOTA_KB", "64")
	t.Setenv("INTENT_TIMEZONE", "UTC")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 90*time.Minute, cfg.ActiveMaxAge)
	assert.Equal(t, 64, cfg.QuotaKB)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "UTC", cfg.Location.String())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INTENT_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("INTENT_LOG_LEVEL", "")
	_ = os.Unsetenv("INTENT_LOG_LEVEL")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsGuardLongerThanStaleness(t *testing.T) {
	t.Setenv("INTENT_STALE_AFTER", "1h")
	t.Setenv("INTENT_ACTIVE_MAX_AGE", "2h")
	_, err := config.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTENT_ACTIVE_MAX_AGE")
}

func TestLoadReportsMalformedOverrides(t *testing.T) {
	t.Setenv("INTENT_QUOTA_KB", "lots")
	t.Setenv("INTENT_SWEEP_INTERVAL", "often")
	_, err := config.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTENT_QUOTA_KB")
	assert.Contains(t, err.Error(), "INTENT_SWEEP_INTERVAL")
}
