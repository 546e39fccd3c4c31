// Package domain is the usage-session state machine:
// Open -> Finalized (reported or stale-zeroed) | Cancelled.
package domain

import (
	"fmt"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	apperrors "intent/internal/platform/errors"
)

// MaxReportMinutes bounds externally reported durations.
const MaxReportMinutes = evdomain.MaxMinutes

// Policy holds the two independent timeouts. ActiveMaxAge guards the active
// pointer; StaleAfter drives the sweep and must be the longer of the two.
type Policy struct {
	StaleAfter   time.Duration
	ActiveMaxAge time.Duration
}

func DefaultPolicy() Policy {
	return Policy{StaleAfter: 4 * time.Hour, ActiveMaxAge: 3 * time.Hour}
}

// Age is how long the session has been open at now. Sessions without a
// start instant report false.
func Age(e evdomain.Event, now time.Time) (time.Duration, bool) {
	if e.Usage == nil || e.Usage.StartedAt == nil {
		return 0, false
	}
	return now.Sub(time.UnixMilli(*e.Usage.StartedAt)), true
}

// OpenWithin reports whether e is open and started no more than maxAge ago.
func OpenWithin(e evdomain.Event, now time.Time, maxAge time.Duration) bool {
	if !e.IsOpen() {
		return false
	}
	age, ok := Age(e, now)
	return ok && age <= maxAge
}

// Stale reports whether e is open and has been for at least staleAfter.
func Stale(e evdomain.Event, now time.Time, staleAfter time.Duration) bool {
	if !e.IsOpen() {
		return false
	}
	age, ok := Age(e, now)
	return ok && age >= staleAfter
}

// ZeroFinalize settles an abandoned session with a duration of zero. Used by
// both supersession and the staleness sweep.
func ZeroFinalize(e evdomain.Event, now time.Time) (evdomain.Event, error) {
	if !e.IsOpen() {
		return e, fmt.Errorf("zero-finalize %s: %w", e.SessionID, apperrors.ErrSessionSettled)
	}
	out := settle(e, now, 0)
	out.Usage.StaleFinalized = true
	return out, nil
}

// Report settles e with an externally reported duration.
func Report(e evdomain.Event, now time.Time, minutes int) (evdomain.Event, error) {
	if !e.IsOpen() {
		return e, fmt.Errorf("report %s: %w", e.SessionID, apperrors.ErrSessionSettled)
	}
	return settle(e, now, minutes), nil
}

// Cancel aborts e before any duration is known; it counts as zero.
func Cancel(e evdomain.Event, now time.Time) (evdomain.Event, error) {
	if !e.IsOpen() {
		return e, fmt.Errorf("cancel %s: %w", e.SessionID, apperrors.ErrSessionSettled)
	}
	out := settle(e, now, 0)
	out.Usage.Cancelled = true
	return out, nil
}

func settle(e evdomain.Event, now time.Time, minutes int) evdomain.Event {
	out := e.Clone()
	ended := now.UnixMilli()
	actual := minutes
	out.Usage.EndedAt = &ended
	out.Usage.MinutesActual = &actual
	out.Usage.Minutes = minutes
	out.Usage.Finalized = true
	return out
}

// ValidateReport checks the shape of an out-of-band completion report.
func ValidateReport(sessionID string, minutes int) error {
	if !evdomain.ValidSessionID(sessionID) {
		return fmt.Errorf("session id %q: %w", sessionID, apperrors.ErrInvalidInput)
	}
	if minutes < 0 || minutes > MaxReportMinutes {
		return fmt.Errorf("reported minutes %d outside [0, %d]: %w", minutes, MaxReportMinutes, apperrors.ErrInvalidInput)
	}
	return nil
}
