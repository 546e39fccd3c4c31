// Package domain scores the near-term risk of compulsive usage from the
// event log. Everything here is a pure function of its inputs.
package domain

import (
	"fmt"
	"sort"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/platform/catalog"
)

type Tier string

const (
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
)

const (
	BaseScore = 8

	buildupFloor     = 15
	spilloverMinimum = 45
	topReasons       = 3
)

type Reason struct {
	Code   string
	Detail string
	Weight int
}

// Breakdown exposes the intermediate signals behind a score.
type Breakdown struct {
	TotalToday  int
	TotalGlobal int
	Trend       Trend
	Intents     IntentStats
	Pressure    int
	Loop        LoopStatus
	Hour        int
}

type Assessment struct {
	Score      int
	Tier       Tier
	TopReasons []Reason
	Debug      Breakdown
}

type Input struct {
	Events     []evdomain.Event
	Thresholds catalog.Thresholds
	// Pings are epoch milliseconds of recent external triggers.
	Pings []int64
	Now   time.Time
	// App restricts the usage and intent signals to one app. Empty means
	// all apps.
	App string
}

func TierFor(score int) Tier {
	switch {
	case score >= 75:
		return TierHigh
	case score >= 45:
		return TierModerate
	default:
		return TierLow
	}
}

// Compute is the additive point model. Inputs are not modified.
func Compute(in Input) Assessment {
	today := evdomain.DayKey(in.Now)
	orange, red := in.Thresholds.Orange, in.Thresholds.Red

	b := Breakdown{
		TotalToday:  DayTotal(in.Events, today, in.App),
		TotalGlobal: DayTotal(in.Events, today, ""),
		Trend:       Last7Days(in.Events, in.Now, in.App),
		Intents:     Intents7Days(in.Events, in.Now, in.App),
		Pressure:    Pressure(in.Events),
		Loop:        Loop(in.Pings, in.Now),
		Hour:        in.Now.Hour(),
	}

	score := BaseScore
	var reasons []Reason
	add := func(code, detail string, weight int) {
		score += weight
		reasons = append(reasons, Reason{Code: code, Detail: detail, Weight: weight})
	}

	switch total := b.TotalToday; {
	case total >= red:
		add("TODAY_RED", fmt.Sprintf(">= %dm today", red), 42)
	case total >= orange:
		part := 1.0
		if red > orange {
			part = clampFloat(float64(total-orange)/float64(red-orange), 0, 1)
		}
		add("TODAY_ORANGE", fmt.Sprintf("%dm (orange %dm)", total, orange), round(24+12*part))
	case total >= buildupFloor && orange > 0:
		add("TODAY_BUILDUP", fmt.Sprintf("%dm today", total), round(6*float64(total)/float64(orange)))
	}

	if in.App != "" {
		if other := b.TotalGlobal - b.TotalToday; other >= spilloverMinimum {
			add("GLOBAL_HIGH", fmt.Sprintf("+%dm on other apps", other), 10)
		}
	}

	switch b.Trend.Direction {
	case DirectionUp:
		add("TREND_UP", "7-day trend rising", 14)
	case DirectionDown:
		add("TREND_DOWN", "7-day trend falling", -6)
	}

	if b.Intents.Total >= MinIntentSamples {
		auto := b.Intents.Unconscious
		switch {
		case auto >= 60:
			add("AUTO_HIGH", fmt.Sprintf("autopilot high (%d%%)", auto), 26)
		case auto >= 40:
			add("AUTO_MED", fmt.Sprintf("autopilot moderate (%d%%)", auto), 16)
		case auto >= 25:
			add("AUTO_LOW", fmt.Sprintf("autopilot present (%d%%)", auto), 8)
		}
	}

	if b.Loop.InLoop {
		add("LOOP", fmt.Sprintf("loop: %dx in 15 min", b.Loop.Count15), 22+min(10, (b.Loop.Count15-LoopThreshold)*4))
	}

	switch b.Pressure {
	case 3:
		add("PRESSURE_3", "systematic avoidance", 16)
	case 2:
		add("PRESSURE_2", "comfort bias", 10)
	case 1:
		add("PRESSURE_1", "slight drift", 5)
	}

	if b.Hour >= 22 {
		add("LATE", "after 22:00", 12)
	}
	if b.Hour >= 9 && b.Hour <= 18 {
		add("WORK_HOURS", "work hours", 7)
	}

	score = max(0, min(100, score))

	sort.SliceStable(reasons, func(i, j int) bool {
		return abs(reasons[i].Weight) > abs(reasons[j].Weight)
	})
	if len(reasons) > topReasons {
		reasons = reasons[:topReasons]
	}

	return Assessment{Score: score, Tier: TierFor(score), TopReasons: reasons, Debug: b}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
