// Package domain defines the event log record and the rules that keep the
// persisted log well-formed.
package domain

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindAllow   Kind = "allow"
	KindCoach   Kind = "coach"
	KindOutcome Kind = "outcome"
	KindUnknown Kind = "unknown"
)

type Intent string

const (
	IntentNone          Intent = ""
	IntentPurposeful    Intent = "purposeful"
	IntentEntertainment Intent = "entertainment"
	IntentUnconscious   Intent = "unconscious"
)

// Choice names a coaching action. Coach events record which one the user
// picked; outcome events record which one they followed.
type Choice string

const (
	ChoiceNone    Choice = ""
	ChoicePrimary Choice = "primary"
	ChoiceAlt1    Choice = "alt1"
	ChoiceAlt2    Choice = "alt2"
	ChoiceSkip    Choice = "skip"
)

// Actions are the coaching actions that can be suggested and scored.
var Actions = []Choice{ChoicePrimary, ChoiceAlt1, ChoiceAlt2}

type Result string

const (
	ResultNone    Result = ""
	ResultDone    Result = "done"
	ResultPartial Result = "partial"
	ResultIgnored Result = "ignored"
)

// Event is the common envelope. Exactly one of Usage, Coach or Outcome is
// set for the matching Kind; unknown events carry none.
type Event struct {
	ID          string
	SessionID   string
	Kind        Kind
	App         string
	Timestamp   int64 // epoch milliseconds
	CalendarDay string
	Intent      Intent

	Usage   *Usage
	Coach   *Coach
	Outcome *Outcome
}

// Usage is a tracked usage session.
type Usage struct {
	StartedAt      *int64
	EndedAt        *int64
	MinutesPlanned int
	// MinutesActual is nil until a duration is known. Zero is a real report.
	MinutesActual  *int
	Minutes        int
	Cancelled      bool
	Finalized      bool
	StaleFinalized bool
}

type Coach struct {
	Choice Choice
}

type Outcome struct {
	ActionKey Choice
	Result    Result
}

// Minutes is the effective duration used by every aggregation.
func (e Event) Minutes() int {
	if e.Usage == nil {
		return 0
	}
	return e.Usage.Minutes
}

// Time is the creation instant in loc.
func (e Event) Time(loc *time.Location) time.Time {
	t := time.UnixMilli(e.Timestamp)
	if loc != nil {
		t = t.In(loc)
	}
	return t
}

// Terminal reports whether a usage session has settled. Non-session events
// are always terminal.
func (e Event) Terminal() bool {
	if e.Kind != KindAllow || e.Usage == nil {
		return true
	}
	return e.Usage.Finalized || e.Usage.Cancelled || e.Usage.MinutesActual != nil
}

// IsOpen reports whether e is a usage session still waiting for a duration.
func (e Event) IsOpen() bool {
	return e.Kind == KindAllow && e.Usage != nil && !e.Terminal()
}

// Clone returns a copy that shares no pointers with e.
func (e Event) Clone() Event {
	out := e
	if e.Usage != nil {
		u := *e.Usage
		u.StartedAt = clonePtr(e.Usage.StartedAt)
		u.EndedAt = clonePtr(e.Usage.EndedAt)
		u.MinutesActual = clonePtr(e.Usage.MinutesActual)
		out.Usage = &u
	}
	if e.Coach != nil {
		c := *e.Coach
		out.Coach = &c
	}
	if e.Outcome != nil {
		o := *e.Outcome
		out.Outcome = &o
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Record is the flat wire shape used for persistence and exports.
type Record struct {
	ID             string  `json:"id"`
	SessionID      *string `json:"sessionId"`
	Kind           Kind    `json:"kind"`
	App            string  `json:"app"`
	Timestamp      int64   `json:"timestamp"`
	CalendarDay    string  `json:"calendarDay"`
	StartedAt      *int64  `json:"startedAt"`
	EndedAt        *int64  `json:"endedAt"`
	MinutesPlanned *int    `json:"minutesPlanned"`
	MinutesActual  *int    `json:"minutesActual"`
	Minutes        int     `json:"minutes"`
	Intent         *Intent `json:"intent"`
	Cancelled      bool    `json:"cancelled"`
	Finalized      bool    `json:"finalized"`
	StaleFinalized bool    `json:"staleFinalized"`
	Choice         *Choice `json:"choice"`
	ActionKey      *Choice `json:"actionKey"`
	Result         *Result `json:"result"`
}

func (e Event) Record() Record {
	r := Record{
		ID:          e.ID,
		Kind:        e.Kind,
		App:         e.App,
		Timestamp:   e.Timestamp,
		CalendarDay: e.CalendarDay,
	}
	if e.SessionID != "" {
		r.SessionID = &e.SessionID
	}
	if e.Intent != IntentNone {
		r.Intent = &e.Intent
	}
	if u := e.Usage; u != nil {
		planned := u.MinutesPlanned
		r.StartedAt = u.StartedAt
		r.EndedAt = u.EndedAt
		r.MinutesPlanned = &planned
		r.MinutesActual = u.MinutesActual
		r.Minutes = u.Minutes
		r.Cancelled = u.Cancelled
		r.Finalized = u.Finalized
		r.StaleFinalized = u.StaleFinalized
	}
	if c := e.Coach; c != nil && c.Choice != ChoiceNone {
		r.Choice = &c.Choice
	}
	if o := e.Outcome; o != nil {
		if o.ActionKey != ChoiceNone {
			r.ActionKey = &o.ActionKey
		}
		if o.Result != ResultNone {
			r.Result = &o.Result
		}
	}
	return r
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}

// Fields is the loosely-typed view of r, as a decoder would produce it.
func (r Record) Fields() map[string]any {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil
	}
	return out
}
