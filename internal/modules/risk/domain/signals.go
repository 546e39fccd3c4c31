package domain

import (
	"math"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
)

const (
	// TrendMargin is the minimum change in minutes per day between the
	// first and last three days of the window that counts as a trend.
	TrendMargin = 5.0

	IntentWindow     = 7 * 24 * time.Hour
	MinIntentSamples = 4

	PressureSample    = 20
	MinPressureSample = 5

	LoopWindow    = 15 * time.Minute
	LoopThreshold = 3
)

type Direction string

const (
	DirectionStable Direction = "stable"
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
)

// round rounds half up, the way the scores were always rounded.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampFloat(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// DayTotal sums effective minutes for events on day, optionally restricted
// to one app.
func DayTotal(events []evdomain.Event, day, app string) int {
	return evdomain.TotalMinutes(evdomain.ForApp(evdomain.OnDay(events, day), app))
}

// Trend is the shape of the last seven daily totals, oldest first. Days
// without events count as zero.
type Trend struct {
	Daily            [7]int
	Average          int
	WeeklyProjection int
	Delta            float64
	Direction        Direction
}

func Last7Days(events []evdomain.Event, now time.Time, app string) Trend {
	var t Trend
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		index[evdomain.DayKey(now.AddDate(0, 0, i-6))] = i
	}
	for _, e := range evdomain.ForApp(events, app) {
		if i, ok := index[e.CalendarDay]; ok {
			t.Daily[i] += e.Minutes()
		}
	}
	sum := 0
	for _, v := range t.Daily {
		sum += v
	}
	avg := float64(sum) / 7
	t.Average = round(avg)
	t.WeeklyProjection = round(avg * 7)

	first := float64(t.Daily[0]+t.Daily[1]+t.Daily[2]) / 3
	last := float64(t.Daily[4]+t.Daily[5]+t.Daily[6]) / 3
	t.Delta = last - first
	switch {
	case t.Delta > TrendMargin:
		t.Direction = DirectionUp
	case t.Delta < -TrendMargin:
		t.Direction = DirectionDown
	default:
		t.Direction = DirectionStable
	}
	return t
}

// IntentStats are whole percentages over intent-bearing events in the
// trailing window.
type IntentStats struct {
	Total         int
	Purposeful    int
	Entertainment int
	Unconscious   int
}

func Intents7Days(events []evdomain.Event, now time.Time, app string) IntentStats {
	var counts struct{ purposeful, entertainment, unconscious, total int }
	nowMS := now.UnixMilli()
	window := IntentWindow.Milliseconds()
	for _, e := range evdomain.ForApp(events, app) {
		if e.Intent == evdomain.IntentNone || e.Timestamp <= 0 || nowMS-e.Timestamp > window {
			continue
		}
		counts.total++
		switch e.Intent {
		case evdomain.IntentPurposeful:
			counts.purposeful++
		case evdomain.IntentEntertainment:
			counts.entertainment++
		case evdomain.IntentUnconscious:
			counts.unconscious++
		}
	}
	pct := func(n int) int {
		if counts.total == 0 {
			return 0
		}
		return round(float64(n) / float64(counts.total) * 100)
	}
	return IntentStats{
		Total:         counts.total,
		Purposeful:    pct(counts.purposeful),
		Entertainment: pct(counts.entertainment),
		Unconscious:   pct(counts.unconscious),
	}
}

// Pressure is the 0..3 open-loop pressure over the most recent coach
// events: how often something other than the primary action was picked.
func Pressure(events []evdomain.Event) int {
	coach := evdomain.OfKind(events, evdomain.KindCoach)
	if len(coach) > PressureSample {
		coach = coach[len(coach)-PressureSample:]
	}
	if len(coach) < MinPressureSample {
		return 0
	}
	easy := 0
	for _, e := range coach {
		if e.Coach != nil && e.Coach.Choice != evdomain.ChoiceNone && e.Coach.Choice != evdomain.ChoicePrimary {
			easy++
		}
	}
	rate := float64(easy) / float64(len(coach))
	switch {
	case rate >= 0.75:
		return 3
	case rate >= 0.60:
		return 2
	case rate >= 0.45:
		return 1
	default:
		return 0
	}
}

type LoopStatus struct {
	Count15 int
	InLoop  bool
}

// Loop counts pings in the trailing LoopWindow. Pings after now are ignored.
func Loop(pings []int64, now time.Time) LoopStatus {
	nowMS := now.UnixMilli()
	window := LoopWindow.Milliseconds()
	n := 0
	for _, p := range pings {
		if age := nowMS - p; age >= 0 && age <= window {
			n++
		}
	}
	return LoopStatus{Count15: n, InLoop: n >= LoopThreshold}
}
