package service

import (
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/modules/session/domain"
	"intent/internal/platform/catalog"
	"intent/internal/platform/clock"
	"intent/internal/platform/id"
)

// SessionService holds the pure transitions over a loaded log. It never
// touches storage; the interactor owns the read-modify-write boundary.
type SessionService struct {
	clock   clock.Clock
	idGen   id.Generator
	catalog catalog.Catalog
	policy  domain.Policy
}

func NewSessionService(clock clock.Clock, idGen id.Generator, c catalog.Catalog, policy domain.Policy) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, catalog: c, policy: policy}
}

func (s *SessionService) Now() time.Time {
	return s.clock.Now()
}

func (s *SessionService) Policy() domain.Policy {
	return s.policy
}

// Open builds a new session event. Unknown apps fall back to the catalog
// default; a non-positive plan falls back to the app's orange threshold.
func (s *SessionService) Open(app string, intent evdomain.Intent, planned int, now time.Time) evdomain.Event {
	app = s.catalog.Resolve(app)
	if planned <= 0 {
		planned = evdomain.PlannedDefault(s.catalog, app)
	}
	started := now.UnixMilli()
	sessionID := s.idGen.New()
	return evdomain.Event{
		ID:          s.idGen.New(),
		SessionID:   sessionID,
		Kind:        evdomain.KindAllow,
		App:         app,
		Timestamp:   started,
		CalendarDay: evdomain.DayKey(now),
		Intent:      intent,
		Usage: &evdomain.Usage{
			StartedAt:      &started,
			MinutesPlanned: evdomain.ClampMinutes(planned),
		},
	}
}

// Supersede zeroes the session referenced by prevID when it is still open.
func (s *SessionService) Supersede(events []evdomain.Event, prevID string, now time.Time) ([]evdomain.Event, bool) {
	if prevID == "" {
		return events, false
	}
	idx := evdomain.IndexBySession(events, prevID)
	if idx < 0 || !events[idx].IsOpen() {
		return events, false
	}
	zeroed, err := domain.ZeroFinalize(events[idx], now)
	if err != nil {
		return events, false
	}
	return evdomain.WithReplaced(events, idx, zeroed), true
}

// SweepStale zeroes every open session older than the staleness window and
// returns the ids it settled, oldest first.
func (s *SessionService) SweepStale(events []evdomain.Event, now time.Time) ([]evdomain.Event, []string) {
	var settled []string
	out := events
	for i, e := range events {
		if !domain.Stale(e, now, s.policy.StaleAfter) {
			continue
		}
		zeroed, err := domain.ZeroFinalize(e, now)
		if err != nil {
			continue
		}
		out = evdomain.WithReplaced(out, i, zeroed)
		settled = append(settled, e.SessionID)
	}
	return out, settled
}

// ResolveActive finds the active session. The pointer wins while it still
// names an open session inside the active guard; otherwise the most recent
// open session inside the guard is used. pointerValid is false when the
// pointer should be cleared.
func (s *SessionService) ResolveActive(events []evdomain.Event, pointer string, now time.Time) (idx int, pointerValid bool) {
	if pointer != "" {
		if i := evdomain.IndexBySession(events, pointer); i >= 0 && domain.OpenWithin(events[i], now, s.policy.ActiveMaxAge) {
			return i, true
		}
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == evdomain.KindAllow && domain.OpenWithin(events[i], now, s.policy.ActiveMaxAge) {
			return i, false
		}
	}
	return -1, false
}
