package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sessionout "intent/internal/modules/session/adapter/out"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/kv"
)

func TestKVActiveSessionStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store, err := kv.NewSQLiteStore(filepath.Join(t.TempDir(), ".intent", "intent.db"), 0)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	active := sessionout.NewKVActiveSessionStore(store)
	ctx := context.Background()

	if _, err := active.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
	if err := active.SaveActive(ctx, "abc_1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := active.LoadActive(ctx)
	if err != nil || got != "abc_1" {
		t.Fatalf("load = %q, %v", got, err)
	}
	if err := active.ClearActive(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := active.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected cleared pointer, got %v", err)
	}
}
