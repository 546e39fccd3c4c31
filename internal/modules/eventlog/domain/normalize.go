package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"intent/internal/platform/catalog"
	"intent/internal/platform/clock"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/id"
)

const (
	// MaxEvents is the hard capacity of the log.
	MaxEvents = 20000
	// MaxMinutes caps every duration field.
	MaxMinutes = 480
	// DefaultPlannedMinutes applies when neither the record nor the app
	// catalog provide a planned duration.
	DefaultPlannedMinutes = 10

	// MaxTimestamp is the last millisecond of year 9999. Larger instants
	// are treated as absent.
	MaxTimestamp = 253402300799999

	MaxSessionIDLen = 80
	maxIDLen        = 64
	maxDayLen       = 32
)

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidSessionID reports whether s has the shape of a session id.
func ValidSessionID(s string) bool {
	return s != "" && len(s) <= MaxSessionIDLen && sessionIDPattern.MatchString(s)
}

// DayKey returns the calendar-day key of t in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// Normalizer turns loosely-typed records into Events. Every field is
// defaulted, clamped or whitelisted on its own; only a record that is not an
// object is rejected outright.
type Normalizer struct {
	Catalog catalog.Catalog
	IDs     id.Generator
	Clock   clock.Clock
}

func (n Normalizer) Normalize(raw any) (Event, error) {
	switch v := raw.(type) {
	case Event:
		raw = v.Record().Fields()
	case Record:
		raw = v.Fields()
	}
	rec, ok := raw.(map[string]any)
	if !ok || rec == nil {
		return Event{}, fmt.Errorf("normalize %T: %w", raw, apperrors.ErrStructural)
	}
	now := n.Clock.Now()

	e := Event{}
	if ts := instant(firstOf(rec, "timestamp", "ts")); ts != nil {
		e.Timestamp = *ts
	} else {
		e.Timestamp = now.UnixMilli()
	}

	if sid, ok := rec["sessionId"].(string); ok && ValidSessionID(strings.TrimSpace(sid)) {
		e.SessionID = strings.TrimSpace(sid)
	}
	e.ID = capString(str(rec["id"]), maxIDLen)
	if e.ID == "" {
		e.ID = e.SessionID
	}
	if e.ID == "" {
		e.ID = n.IDs.New()
	}

	e.Kind = ParseKind(str(firstOf(rec, "kind", "mode", "type")))
	e.App = resolveApp(n.Catalog, e.Kind, str(rec["app"]))

	if day := capString(str(firstOf(rec, "calendarDay", "date")), maxDayLen); day != "" {
		e.CalendarDay = day
	} else {
		e.CalendarDay = DayKey(time.UnixMilli(e.Timestamp).In(now.Location()))
	}
	e.Intent = ParseIntent(str(rec["intent"]))

	switch e.Kind {
	case KindAllow:
		e.Usage = n.usage(rec, e.App)
	case KindCoach:
		e.Coach = &Coach{Choice: ParseChoice(str(rec["choice"]))}
	case KindOutcome:
		e.Outcome = &Outcome{
			ActionKey: ParseChoice(str(rec["actionKey"])),
			Result:    ParseResult(str(rec["result"])),
		}
	case KindUnknown:
	}
	return e, nil
}

func (n Normalizer) usage(rec map[string]any, app string) *Usage {
	u := &Usage{
		StartedAt:      instant(rec["startedAt"]),
		EndedAt:        instant(rec["endedAt"]),
		Cancelled:      rec["cancelled"] == true,
		Finalized:      rec["finalized"] == true,
		StaleFinalized: rec["staleFinalized"] == true,
	}
	if planned, ok := minutes(rec["minutesPlanned"]); ok {
		u.MinutesPlanned = planned
	} else {
		u.MinutesPlanned = PlannedDefault(n.Catalog, app)
	}
	if actual, ok := minutes(rec["minutesActual"]); ok {
		u.MinutesActual = &actual
		u.Minutes = actual
	} else if m, ok := minutes(rec["minutes"]); ok {
		// Older records only carry the legacy total; keep it so imported
		// history still counts toward daily usage.
		u.Minutes = m
	}
	return u
}

// resolveApp keeps the system tag on coach and outcome events and maps every
// other tag onto the closed app set.
func resolveApp(c catalog.Catalog, kind Kind, tag string) string {
	if kind != KindAllow && strings.EqualFold(tag, catalog.System) {
		return catalog.System
	}
	return c.Resolve(tag)
}

// PlannedDefault is the app's orange threshold, or DefaultPlannedMinutes.
func PlannedDefault(c catalog.Catalog, app string) int {
	if a, ok := c.Lookup(app); ok {
		return a.Orange
	}
	return DefaultPlannedMinutes
}

// SanitizeReport describes what SanitizeAll dropped.
type SanitizeReport struct {
	Rejected   int
	Duplicates int
	Truncated  int
}

func (r SanitizeReport) Changed() bool {
	return r.Rejected+r.Duplicates+r.Truncated > 0
}

// SanitizeAll normalizes raws in order, dropping structural rejects and
// repeated session ids (first occurrence wins), then keeps the newest
// MaxEvents.
func (n Normalizer) SanitizeAll(raws []any) ([]Event, SanitizeReport) {
	report := SanitizeReport{}
	seen := make(map[string]struct{})
	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		e, err := n.Normalize(raw)
		if err != nil {
			report.Rejected++
			continue
		}
		if e.SessionID != "" {
			if _, dup := seen[e.SessionID]; dup {
				report.Duplicates++
				continue
			}
			seen[e.SessionID] = struct{}{}
		}
		out = append(out, e)
	}
	if len(out) > MaxEvents {
		report.Truncated = len(out) - MaxEvents
		out = out[len(out)-MaxEvents:]
	}
	return out, report
}

func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAllow:
		return KindAllow
	case KindCoach:
		return KindCoach
	case KindOutcome:
		return KindOutcome
	default:
		return KindUnknown
	}
}

// ParseIntent accepts the current intents and their legacy spellings.
func ParseIntent(s string) Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purposeful", "reply":
		return IntentPurposeful
	case "entertainment", "fun":
		return IntentEntertainment
	case "unconscious", "auto":
		return IntentUnconscious
	default:
		return IntentNone
	}
}

func ParseChoice(s string) Choice {
	switch c := Choice(strings.ToLower(strings.TrimSpace(s))); c {
	case ChoicePrimary, ChoiceAlt1, ChoiceAlt2, ChoiceSkip:
		return c
	default:
		return ChoiceNone
	}
}

func ParseResult(s string) Result {
	switch r := Result(strings.ToLower(strings.TrimSpace(s))); r {
	case ResultDone, ResultPartial, ResultIgnored:
		return r
	default:
		return ResultNone
	}
}

func firstOf(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// capString cuts s to at most max bytes without splitting a rune.
func capString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func instant(v any) *int64 {
	f, ok := number(v)
	if !ok || f < 0 || f > MaxTimestamp {
		return nil
	}
	ms := int64(f)
	return &ms
}

// minutes reads a duration, clamped to [0, MaxMinutes]. Absent or
// non-numeric values report false so that "unknown" never becomes zero.
func minutes(v any) (int, bool) {
	f, ok := number(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(math.Min(math.Max(f, 0), MaxMinutes))), true
}

func ClampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	if m > MaxMinutes {
		return MaxMinutes
	}
	return m
}
