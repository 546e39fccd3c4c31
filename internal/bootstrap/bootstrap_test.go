package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent/internal/bootstrap"
	"intent/internal/platform/config"
	"intent/internal/platform/kv"
)

func TestNewSweepsStaleSessionsAtStartup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	cfg.LogLevel = "error"

	startedAt := time.Now().Add(-5 * time.Hour).UnixMilli()
	fresh := time.Now().Add(-10 * time.Minute).UnixMilli()
	seed, err := kv.NewSQLiteStore(cfg.DBPath, cfg.QuotaKB)
	require.NoError(t, err)
	require.NoError(t, seed.Set(ctx, "events", []map[string]any{
		{"id": "old", "sessionId": "old", "kind": "allow", "app": "tiktok", "timestamp": startedAt, "startedAt": startedAt},
		{"id": "new", "sessionId": "new", "kind": "allow", "app": "tiktok", "timestamp": fresh, "startedAt": fresh},
	}))
	require.NoError(t, seed.Close())

	app, err := bootstrap.New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, app.Close(ctx))

	store, err := kv.NewSQLiteStore(cfg.DBPath, cfg.QuotaKB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	var events []map[string]any
	found, err := store.Get(ctx, "events", &events)
	require.NoError(t, err)
	require.True(t, found)

	byID := map[string]map[string]any{}
	for _, e := range events {
		byID[e["id"].(string)] = e
	}
	require.Contains(t, byID, "old")
	require.Contains(t, byID, "new")
	assert.Equal(t, true, byID["old"]["staleFinalized"])
	assert.Equal(t, float64(0), byID["old"]["minutesActual"])
	assert.Nil(t, byID["new"]["minutesActual"])
	assert.Equal(t, false, byID["new"]["staleFinalized"])
}
