package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/modules/risk/domain"
	"intent/internal/platform/catalog"
)

var (
	evening = time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)
	base    = catalog.Thresholds{Orange: 30, Red: 60}
)

type builder struct{ n int }

func (b *builder) usage(app string, at time.Time, minutes int) evdomain.Event {
	b.n++
	ts := at.UnixMilli()
	m := minutes
	return evdomain.Event{
		ID:          fmt.Sprintf("e%d", b.n),
		SessionID:   fmt.Sprintf("s%d", b.n),
		Kind:        evdomain.KindAllow,
		App:         app,
		Timestamp:   ts,
		CalendarDay: evdomain.DayKey(at),
		Usage: &evdomain.Usage{
			StartedAt:     &ts,
			MinutesActual: &m,
			Minutes:       m,
			Finalized:     true,
		},
	}
}

func (b *builder) coach(at time.Time, choice evdomain.Choice) evdomain.Event {
	b.n++
	return evdomain.Event{
		ID:          fmt.Sprintf("e%d", b.n),
		Kind:        evdomain.KindCoach,
		App:         "instagram",
		Timestamp:   at.UnixMilli(),
		CalendarDay: evdomain.DayKey(at),
		Coach:       &evdomain.Coach{Choice: choice},
	}
}

func codes(a domain.Assessment) []string {
	out := make([]string, 0, len(a.TopReasons))
	for _, r := range a.TopReasons {
		out = append(out, r.Code)
	}
	return out
}

func TestComputeTodayOrangeBandScenario(t *testing.T) {
	t.Parallel()
	b := &builder{}
	events := []evdomain.Event{
		// Same total six days ago keeps the 7-day trend flat.
		b.usage("instagram", evening.AddDate(0, 0, -6), 45),
		b.usage("instagram", evening.Add(-2*time.Hour), 45),
	}

	got := domain.Compute(domain.Input{Events: events, Thresholds: base, Now: evening})

	require.Equal(t, 45, got.Debug.TotalToday)
	assert.Equal(t, domain.DirectionStable, got.Debug.Trend.Direction)
	require.Len(t, got.TopReasons, 1)
	assert.Equal(t, domain.Reason{Code: "TODAY_ORANGE", Detail: "45m (orange 30m)", Weight: 30}, got.TopReasons[0])
	assert.Equal(t, 38, got.Score)
	assert.Equal(t, domain.TierLow, got.Tier)
}

func TestComputeLoopScenario(t *testing.T) {
	t.Parallel()
	pings := []int64{
		evening.Add(-14 * time.Minute).UnixMilli(),
		evening.Add(-5 * time.Minute).UnixMilli(),
		evening.Add(-time.Minute).UnixMilli(),
		evening.Add(-20 * time.Minute).UnixMilli(),
		evening.Add(time.Minute).UnixMilli(),
	}

	got := domain.Compute(domain.Input{Thresholds: base, Pings: pings, Now: evening})

	assert.True(t, got.Debug.Loop.InLoop)
	assert.Equal(t, 3, got.Debug.Loop.Count15)
	assert.Equal(t, []string{"LOOP"}, codes(got))
	assert.Equal(t, 30, got.Score)
	assert.Equal(t, domain.TierLow, got.Tier)
}

func TestComputeLoopPenaltyGrowsAndCaps(t *testing.T) {
	t.Parallel()
	pings := make([]int64, 0, 8)
	for i := 0; i < 8; i++ {
		pings = append(pings, evening.Add(-time.Duration(i)*time.Minute).UnixMilli())
	}
	got := domain.Compute(domain.Input{Thresholds: base, Pings: pings[:4], Now: evening})
	assert.Equal(t, 8+26, got.Score)

	got = domain.Compute(domain.Input{Thresholds: base, Pings: pings, Now: evening})
	assert.Equal(t, 8+32, got.Score)
}

func TestComputeTodayBands(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		minutes int
		code    string
		weight  int
	}{
		{name: "red", minutes: 60, code: "TODAY_RED", weight: 42},
		{name: "orange floor", minutes: 30, code: "TODAY_ORANGE", weight: 24},
		{name: "buildup", minutes: 20, code: "TODAY_BUILDUP", weight: 4},
		{name: "below floor", minutes: 14},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := &builder{}
			events := []evdomain.Event{
				b.usage("instagram", evening.AddDate(0, 0, -6), tc.minutes),
				b.usage("instagram", evening, tc.minutes),
			}
			got := domain.Compute(domain.Input{Events: events, Thresholds: base, Now: evening})
			if tc.code == "" {
				assert.Empty(t, got.TopReasons)
				assert.Equal(t, domain.BaseScore, got.Score)
				return
			}
			require.Len(t, got.TopReasons, 1)
			assert.Equal(t, tc.code, got.TopReasons[0].Code)
			assert.Equal(t, tc.weight, got.TopReasons[0].Weight)
		})
	}
}

func TestComputeSpilloverOnlyWithAppFilter(t *testing.T) {
	t.Parallel()
	b := &builder{}
	events := []evdomain.Event{
		b.usage("tiktok", evening.AddDate(0, 0, -6), 50),
		b.usage("tiktok", evening, 50),
		b.usage("instagram", evening, 5),
	}

	filtered := domain.Compute(domain.Input{Events: events, Thresholds: base, Now: evening, App: "instagram"})
	assert.Equal(t, []string{"GLOBAL_HIGH"}, codes(filtered))
	assert.Equal(t, 5, filtered.Debug.TotalToday)
	assert.Equal(t, 55, filtered.Debug.TotalGlobal)

	global := domain.Compute(domain.Input{Events: events, Thresholds: base, Now: evening})
	assert.NotContains(t, codes(global), "GLOBAL_HIGH")
}

func TestComputeTrend(t *testing.T) {
	t.Parallel()
	b := &builder{}
	rising := []evdomain.Event{b.usage("instagram", evening.AddDate(0, 0, -1), 20)}
	falling := []evdomain.Event{b.usage("instagram", evening.AddDate(0, 0, -5), 20)}

	up := domain.Compute(domain.Input{Events: rising, Thresholds: base, Now: evening})
	assert.Equal(t, domain.DirectionUp, up.Debug.Trend.Direction)
	assert.Equal(t, 8+14, up.Score)

	down := domain.Compute(domain.Input{Events: falling, Thresholds: base, Now: evening})
	assert.Equal(t, domain.DirectionDown, down.Debug.Trend.Direction)
	assert.Equal(t, []domain.Reason{{Code: "TREND_DOWN", Detail: "7-day trend falling", Weight: -6}}, down.TopReasons)
	assert.Equal(t, 2, down.Score)
}

func TestComputeIntentBands(t *testing.T) {
	t.Parallel()
	b := &builder{}
	withIntents := func(intents ...evdomain.Intent) []evdomain.Event {
		var out []evdomain.Event
		for i, in := range intents {
			e := b.usage("instagram", evening.Add(-time.Duration(i+1)*time.Hour), 0)
			e.Intent = in
			out = append(out, e)
		}
		return out
	}
	u, p := evdomain.IntentUnconscious, evdomain.IntentPurposeful

	tooFew := domain.Compute(domain.Input{Events: withIntents(u, u, u), Thresholds: base, Now: evening})
	assert.Empty(t, tooFew.TopReasons)

	high := domain.Compute(domain.Input{Events: withIntents(u, u, u, p), Thresholds: base, Now: evening})
	assert.Equal(t, 75, high.Debug.Intents.Unconscious)
	assert.Equal(t, []string{"AUTO_HIGH"}, codes(high))

	med := domain.Compute(domain.Input{Events: withIntents(u, u, p, p, p), Thresholds: base, Now: evening})
	assert.Equal(t, []string{"AUTO_MED"}, codes(med))

	low := domain.Compute(domain.Input{Events: withIntents(u, p, p, p), Thresholds: base, Now: evening})
	assert.Equal(t, []string{"AUTO_LOW"}, codes(low))

	old := withIntents(u, u, u, u)
	for i := range old {
		old[i].Timestamp = evening.Add(-8 * 24 * time.Hour).UnixMilli()
	}
	assert.Empty(t, domain.Compute(domain.Input{Events: old, Thresholds: base, Now: evening}).TopReasons)
}

func TestPressureLevels(t *testing.T) {
	t.Parallel()
	b := &builder{}
	series := func(easy, total int) []evdomain.Event {
		var out []evdomain.Event
		for i := 0; i < total; i++ {
			choice := evdomain.ChoicePrimary
			if i < easy {
				choice = evdomain.ChoiceAlt1
			}
			out = append(out, b.coach(evening.Add(-time.Duration(total-i)*time.Minute), choice))
		}
		return out
	}

	assert.Equal(t, 0, domain.Pressure(series(4, 4)), "below the minimum sample")
	assert.Equal(t, 3, domain.Pressure(series(4, 5)))
	assert.Equal(t, 2, domain.Pressure(series(3, 5)))
	assert.Equal(t, 1, domain.Pressure(series(9, 20)))
	assert.Equal(t, 0, domain.Pressure(series(2, 5)))

	// Only the most recent coach events count.
	history := append(series(30, 30), series(0, 20)...)
	assert.Equal(t, 0, domain.Pressure(history))
}

func TestComputeTimeOfDay(t *testing.T) {
	t.Parallel()
	late := domain.Compute(domain.Input{Thresholds: base, Now: time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)})
	assert.Equal(t, []string{"LATE"}, codes(late))
	assert.Equal(t, 20, late.Score)

	work := domain.Compute(domain.Input{Thresholds: base, Now: time.Date(2026, 3, 7, 18, 59, 0, 0, time.UTC)})
	assert.Equal(t, []string{"WORK_HOURS"}, codes(work))
}

func TestComputeIsDeterministicAndBounded(t *testing.T) {
	t.Parallel()
	b := &builder{}
	now := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
	var events []evdomain.Event
	events = append(events, b.usage("tiktok", now, 120))
	for i := 0; i < 6; i++ {
		e := b.usage("instagram", now.Add(-time.Duration(i)*time.Minute), 40)
		e.Intent = evdomain.IntentUnconscious
		events = append(events, e)
	}
	for i := 0; i < 6; i++ {
		events = append(events, b.coach(now.Add(-time.Duration(i)*time.Second), evdomain.ChoiceSkip))
	}
	var pings []int64
	for i := 0; i < 10; i++ {
		pings = append(pings, now.Add(-time.Duration(i)*time.Minute).UnixMilli())
	}
	in := domain.Input{Events: events, Thresholds: base, Pings: pings, Now: now, App: "instagram"}
	snapshot := append([]evdomain.Event(nil), events...)

	first := domain.Compute(in)
	second := domain.Compute(in)

	assert.Equal(t, first, second)
	assert.Equal(t, 100, first.Score)
	assert.Equal(t, domain.TierHigh, first.Tier)
	assert.Equal(t, []string{"TODAY_RED", "LOOP", "AUTO_HIGH"}, codes(first))
	assert.Equal(t, snapshot, events)
}

func TestTierFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, domain.TierLow, domain.TierFor(44))
	assert.Equal(t, domain.TierModerate, domain.TierFor(45))
	assert.Equal(t, domain.TierModerate, domain.TierFor(74))
	assert.Equal(t, domain.TierHigh, domain.TierFor(75))
}
