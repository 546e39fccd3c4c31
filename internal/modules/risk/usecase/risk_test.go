package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evdomain "intent/internal/modules/eventlog/domain"
	riskout "intent/internal/modules/risk/adapter/out"
	"intent/internal/modules/risk/dto"
	riskin "intent/internal/modules/risk/port/in"
	"intent/internal/modules/risk/service"
	"intent/internal/modules/risk/usecase"
	"intent/internal/platform/catalog"
	"intent/internal/platform/kv"
	"intent/internal/platform/tx"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type staticEvents []evdomain.Event

func (s staticEvents) Load(context.Context) ([]evdomain.Event, error) { return s, nil }

func usage(app string, at time.Time, minutes int) evdomain.Event {
	ts := at.UnixMilli()
	return evdomain.Event{
		ID:          "e-" + app + at.Format("150405"),
		SessionID:   "s-" + app + at.Format("150405"),
		Kind:        evdomain.KindAllow,
		App:         app,
		Timestamp:   ts,
		CalendarDay: evdomain.DayKey(at),
		Usage:       &evdomain.Usage{StartedAt: &ts, MinutesActual: &minutes, Minutes: minutes, Finalized: true},
	}
}

func newInteractor(events staticEvents, clk *fakeClock) riskin.Usecase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pings := riskout.NewKVPingStore(kv.NewMemoryStore(0))
	return usecase.NewInteractor(service.NewRiskService(clk, catalog.Default()), events, pings, tx.NewMutexManager(), logger)
}

func TestAssessResolvesAppThresholds(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)}
	events := staticEvents{
		usage("youtube", clk.now.AddDate(0, 0, -6), 60),
		usage("youtube", clk.now.Add(-time.Hour), 60),
	}
	uc := newInteractor(events, clk)

	out, err := uc.Assess(context.Background(), dto.AssessInput{App: "YouTube"})
	require.NoError(t, err)
	assert.Equal(t, "youtube", out.App)
	assert.Equal(t, 45, out.Orange)
	assert.Equal(t, 90, out.Red)
	// part = (60-45)/(90-45) = 1/3 -> round(28) = 28
	require.Len(t, out.Reasons, 1)
	assert.Equal(t, 28, out.Reasons[0].Weight)
	assert.Equal(t, 36, out.Score)
	assert.Equal(t, "low", out.Tier)
	assert.Len(t, out.Debug.Daily, 7)

	global, err := uc.Assess(context.Background(), dto.AssessInput{})
	require.NoError(t, err)
	assert.Equal(t, "", global.App)
	assert.Equal(t, 45, global.Orange)
	assert.Equal(t, 90, global.Red)
}

func TestRecordPingDetectsLoop(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)}
	uc := newInteractor(nil, clk)
	ctx := context.Background()

	var last dto.LoopOutput
	for i := 0; i < 3; i++ {
		out, err := uc.RecordPing(ctx)
		require.NoError(t, err)
		last = out
		clk.now = clk.now.Add(2 * time.Minute)
	}
	assert.True(t, last.InLoop)
	assert.Equal(t, 3, last.Count15)

	clk.now = clk.now.Add(-2 * time.Minute)
	assessed, err := uc.Assess(ctx, dto.AssessInput{})
	require.NoError(t, err)
	assert.Equal(t, 30, assessed.Score)
	assert.True(t, assessed.Debug.InLoop)

	require.NoError(t, uc.ResetPings(ctx))
	assessed, err = uc.Assess(ctx, dto.AssessInput{})
	require.NoError(t, err)
	assert.False(t, assessed.Debug.InLoop)
	assert.Equal(t, 8, assessed.Score)
}

func TestOverviewReportsPerAppState(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)}
	uc := newInteractor(staticEvents{usage("instagram", clk.now, 65)}, clk)

	out, err := uc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RED", out.State)
	assert.Equal(t, 65, out.TotalToday)
	require.NotEmpty(t, out.Apps)
	assert.Equal(t, "instagram", out.Apps[0].App)
	assert.Equal(t, "RED", out.Apps[0].State)
}
