package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventlogout "intent/internal/modules/eventlog/adapter/out"
	evdomain "intent/internal/modules/eventlog/domain"
	eventlogservice "intent/internal/modules/eventlog/service"
	sessionout "intent/internal/modules/session/adapter/out"
	sessionport "intent/internal/modules/session/port/out"
	"intent/internal/modules/transfer/dto"
	transferin "intent/internal/modules/transfer/port/in"
	"intent/internal/modules/transfer/usecase"
	"intent/internal/platform/catalog"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/kv"
	"intent/internal/platform/shield"
	"intent/internal/platform/tx"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqID struct{ n *int }

func (s seqID) New() string {
	*s.n++
	return fmt.Sprintf("id%d", *s.n)
}

type fixture struct {
	uc     transferin.Usecase
	log    *eventlogservice.EventLogService
	active sessionport.ActiveSessionStore
	errs   *shield.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := fixedClock{now: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)}
	n := 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kv.NewMemoryStore(0)
	logStore := eventlogout.NewKVLogStore(store)
	norm := evdomain.Normalizer{Catalog: catalog.Default(), IDs: seqID{n: &n}, Clock: clk}
	log := eventlogservice.NewEventLogService(norm, logStore, logger)
	migrator := eventlogservice.NewMigrator(catalog.Default(), logStore, logStore, logger)
	_, err := migrator.Migrate(context.Background())
	require.NoError(t, err)
	active := sessionout.NewKVActiveSessionStore(store)
	errs := shield.NewRecorder(store, clk)

	uc := usecase.NewInteractor(usecase.Deps{
		Log:     log,
		Schema:  migrator,
		Active:  active,
		Errors:  errs,
		Storage: store,
		Clock:   clk,
		Tx:      tx.NewMutexManager(),
		Logger:  logger,
	})
	return fixture{uc: uc, log: log, active: active, errs: errs}
}

func seed(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.log.Append(ctx, map[string]any{"kind": "allow", "sessionId": "keep-me", "minutesActual": 7.0, "finalized": true})
	require.NoError(t, err)
	require.NoError(t, f.active.SaveActive(ctx, "keep-me"))
}

func payload(n int) []byte {
	var b strings.Builder
	b.WriteString(`{"events":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"kind":"allow","sessionId":"imp-%d","minutesActual":1}`, i)
	}
	b.WriteString(`]}`)
	return []byte(b.String())
}

func TestImportRejectsOversizedPayloadWithoutMutation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	_, err := f.uc.Import(ctx, dto.ImportInput{Data: payload(evdomain.MaxEvents + 1)})
	require.ErrorIs(t, err, apperrors.ErrTooManyEvents)

	events, err := f.log.Load(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "keep-me", events[0].SessionID)
	pointer, err := f.active.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", pointer)
}

func TestImportRejectsLegacyAndCorruptPayloads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Import(ctx, dto.ImportInput{Data: []byte(`{"history":[],"intents":[]}`)})
	assert.ErrorIs(t, err, apperrors.ErrLegacyPayload)
	_, err = f.uc.Import(ctx, dto.ImportInput{Data: []byte(`{"lastSrc":"x"}`)})
	assert.ErrorIs(t, err, apperrors.ErrMissingEvents)
	_, err = f.uc.Import(ctx, dto.ImportInput{Data: []byte(`{"events":[1,2]}`)})
	assert.ErrorIs(t, err, apperrors.ErrCorruptPayload)
	_, err = f.uc.Import(ctx, dto.ImportInput{Data: []byte(`not json`)})
	assert.ErrorIs(t, err, apperrors.ErrCorruptPayload)
}

func TestImportReplacesLogAndClearsPointer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	data := []byte(`{
		"events": [
			{"mode":"allow","sessionId":"a","minutes":4,"intent":"auto"},
			{"kind":"allow","sessionId":"a","minutesActual":9},
			{"kind":"coach","choice":"alt1"}
		],
		"lastError": {"ts":"2026-03-01T10:00:00Z","type":"init","message":"boom"}
	}`)
	out, err := f.uc.Import(ctx, dto.ImportInput{Data: data})
	require.NoError(t, err)
	assert.Equal(t, dto.ImportOutput{Imported: 2, Duplicates: 1}, out)

	events, err := f.log.Load(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, evdomain.IntentUnconscious, events[0].Intent)
	assert.Equal(t, 4, events[0].Minutes())

	_, err = f.active.LoadActive(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)
	last, err := f.errs.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "boom", last.Message)
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()
	src := newFixture(t)
	seed(t, src)
	ctx := context.Background()

	exported, err := src.uc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, evdomain.SchemaVersion, exported.SchemaVersion)
	assert.Equal(t, 1, exported.Events)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(exported.Data, &doc))
	assert.Equal(t, "2026-03-04T20:00:00Z", doc["exportedAt"])
	assert.Equal(t, float64(evdomain.SchemaVersion), doc["schemaVersion"])
	assert.Nil(t, doc["lastError"])
	require.Len(t, doc["events"], 1)

	dst := newFixture(t)
	out, err := dst.uc.Import(ctx, dto.ImportInput{Data: exported.Data})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported)

	before, err := src.log.Load(ctx)
	require.NoError(t, err)
	after, err := dst.log.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDumpAndReset(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	dump, err := f.uc.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dump.Events)
	assert.Equal(t, "keep-me", dump.ActiveSessionID)
	assert.Nil(t, dump.LastError)
	assert.Greater(t, dump.SizeKB, 0.0)
	assert.Contains(t, string(dump.Data), `"schemaVersion": 4`)

	require.NoError(t, f.uc.Reset(ctx))
	dump, err = f.uc.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dump.Events)
	assert.Empty(t, dump.ActiveSessionID)
	assert.Equal(t, evdomain.SchemaVersion, dump.SchemaVersion)
}
