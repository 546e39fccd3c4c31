package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	eventlogout "intent/internal/modules/eventlog/adapter/out"
	"intent/internal/modules/eventlog/domain"
	"intent/internal/modules/eventlog/service"
	"intent/internal/platform/catalog"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/kv"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqID struct{ n *int }

func (s seqID) New() string {
	*s.n++
	return fmt.Sprintf("id%d", *s.n)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(store kv.Store, now time.Time) *service.EventLogService {
	n := 0
	norm := domain.Normalizer{Catalog: catalog.Default(), IDs: seqID{n: &n}, Clock: fixedClock{now: now}}
	return service.NewEventLogService(norm, eventlogout.NewKVLogStore(store), discard)
}

var day = time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)

func TestAppendPersistsAndFiltersToday(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(kv.NewMemoryStore(0), day)

	yesterday := day.Add(-24 * time.Hour).UnixMilli()
	if _, err := svc.Append(ctx, map[string]any{"kind": "allow", "sessionId": "old", "timestamp": float64(yesterday), "minutesActual": 10.0}); err != nil {
		t.Fatalf("append old: %v", err)
	}
	if _, err := svc.Append(ctx, map[string]any{"kind": "allow", "sessionId": "new", "minutesActual": 7.0}); err != nil {
		t.Fatalf("append new: %v", err)
	}
	if _, err := svc.Append(ctx, map[string]any{"kind": "coach", "choice": "alt2"}); err != nil {
		t.Fatalf("append coach: %v", err)
	}

	today, err := svc.Today(ctx)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(today) != 2 || domain.TotalMinutes(today) != 7 {
		t.Fatalf("expected two events today totalling 7 minutes, got %d / %d", len(today), domain.TotalMinutes(today))
	}
	coach, err := svc.ByKind(ctx, domain.KindCoach)
	if err != nil {
		t.Fatalf("by kind: %v", err)
	}
	if len(coach) != 1 || coach[0].Coach.Choice != domain.ChoiceAlt2 {
		t.Fatalf("unexpected coach events %+v", coach)
	}
}

func TestAppendRejectsStructuralAndDuplicateInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(kv.NewMemoryStore(0), day)
	if _, err := svc.Append(ctx, "not an object"); !errors.Is(err, apperrors.ErrStructural) {
		t.Fatalf("expected structural rejection, got %v", err)
	}
	if _, err := svc.Append(ctx, map[string]any{"kind": "allow", "sessionId": "s1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := svc.Append(ctx, map[string]any{"kind": "allow", "sessionId": "s1", "minutesActual": 3.0}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected duplicate session id rejection, got %v", err)
	}
	events, _ := svc.Load(ctx)
	if len(events) != 1 {
		t.Fatalf("rejected appends must not change the log, got %d events", len(events))
	}
}

func TestAppendReturnsEventWhenPersistenceFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(kv.NewMemoryStore(1), day)
	e, err := svc.Append(ctx, map[string]any{"kind": "coach", "choice": "primary", "id": strings.Repeat("x", 60), "calendarDay": strings.Repeat("d", 30)})
	if err != nil {
		t.Fatalf("first append should fit: %v", err)
	}
	for i := 0; i < 20 && err == nil; i++ {
		e, err = svc.Append(ctx, map[string]any{"kind": "coach", "choice": "alt1", "calendarDay": strings.Repeat("d", 30)})
	}
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("expected persistence failure once the quota is hit, got %v", err)
	}
	if e.Kind != domain.KindCoach || e.Coach.Choice != domain.ChoiceAlt1 {
		t.Fatalf("attempted event must still be returned, got %+v", e)
	}
}

func TestLoadSelfHealsPersistedLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	store.SetRaw("events", []byte(`[{"kind":"allow","sessionId":"a"},42,{"kind":"allow","sessionId":"a"}]`))
	svc := newService(store, day)

	events, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after sanitizing, got %d", len(events))
	}
	var persisted []any
	if _, err := store.Get(ctx, "events", &persisted); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("cleaned log should be written back, got %d records", len(persisted))
	}
}

func TestLoadPropagatesUndecodableLog(t *testing.T) {
	t.Parallel()
	store := kv.NewMemoryStore(0)
	store.SetRaw("events", []byte(`{"not":"a list"}`))
	if _, err := newService(store, day).Load(context.Background()); err == nil {
		t.Fatalf("a non-list log is an unexpected structural violation and must surface")
	}
}

func TestMigratorRunsOnceAndRecordsVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	store.SetRaw("events", []byte(`[{"mode":"allow","app":"youtube","sessionId":"s1"}]`))
	logs := eventlogout.NewKVLogStore(store)
	m := service.NewMigrator(catalog.Default(), logs, logs, discard)

	first, err := m.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if first.From != 1 || first.To != domain.SchemaVersion || first.Rewrites == 0 {
		t.Fatalf("unexpected first migration %+v", first)
	}
	second, err := m.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if second.From != domain.SchemaVersion || second.Rewrites != 0 {
		t.Fatalf("second run must be a no-op, got %+v", second)
	}
	recs, _ := logs.LoadRaw(ctx)
	rec := recs[0].(map[string]any)
	if rec["minutesPlanned"] != 45.0 || rec["kind"] != "allow" {
		t.Fatalf("unexpected migrated record %#v", rec)
	}
}
