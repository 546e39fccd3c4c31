package domain

import (
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/platform/catalog"
)

type State string

const (
	StateGreen  State = "GREEN"
	StateOrange State = "ORANGE"
	StateRed    State = "RED"
)

func severity(s State) int {
	switch s {
	case StateRed:
		return 2
	case StateOrange:
		return 1
	default:
		return 0
	}
}

// StateFor grades today's total and the 7-day average against t. Either
// one crossing a threshold is enough.
func StateFor(today, avg7 int, t catalog.Thresholds) State {
	switch {
	case today >= t.Red || avg7 >= t.Red:
		return StateRed
	case today >= t.Orange || avg7 >= t.Orange:
		return StateOrange
	default:
		return StateGreen
	}
}

type AppOverview struct {
	App        string
	Name       string
	Thresholds catalog.Thresholds
	Today      int
	Trend      Trend
	State      State
}

type Overview struct {
	Day        string
	TotalToday int
	Apps       []AppOverview
	// State is the worst per-app state.
	State State
}

func ComputeOverview(events []evdomain.Event, c catalog.Catalog, now time.Time) Overview {
	day := evdomain.DayKey(now)
	o := Overview{Day: day, TotalToday: DayTotal(events, day, ""), State: StateGreen}
	for _, app := range c.Apps() {
		t := catalog.Thresholds{Orange: app.Orange, Red: app.Red}
		ao := AppOverview{
			App:        app.ID,
			Name:       app.Name,
			Thresholds: t,
			Today:      DayTotal(events, day, app.ID),
			Trend:      Last7Days(events, now, app.ID),
		}
		ao.State = StateFor(ao.Today, ao.Trend.Average, t)
		if severity(ao.State) > severity(o.State) {
			o.State = ao.State
		}
		o.Apps = append(o.Apps, ao)
	}
	return o
}
