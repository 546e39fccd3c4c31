package service

import (
	"strings"
	"time"

	"intent/internal/modules/coach/domain"
	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/platform/catalog"
	"intent/internal/platform/clock"
)

type CoachService struct {
	clock clock.Clock
}

func NewCoachService(clock clock.Clock) *CoachService {
	return &CoachService{clock: clock}
}

func (s *CoachService) location() *time.Location {
	return s.clock.Now().Location()
}

// ChoiceRecord is the raw coach event for choice, stamped now. Choices made
// without an app in view are tagged catalog.System.
func (s *CoachService) ChoiceRecord(choice evdomain.Choice, app string) map[string]any {
	now := s.clock.Now()
	if strings.TrimSpace(app) == "" {
		app = catalog.System
	}
	return map[string]any{
		"kind":        string(evdomain.KindCoach),
		"app":         app,
		"choice":      string(choice),
		"timestamp":   now.UnixMilli(),
		"calendarDay": evdomain.DayKey(now),
	}
}

// OutcomeRecord attaches result to the action picked in the last coach
// event.
func (s *CoachService) OutcomeRecord(last evdomain.Event, result evdomain.Result) map[string]any {
	now := s.clock.Now()
	return map[string]any{
		"kind":        string(evdomain.KindOutcome),
		"app":         last.App,
		"actionKey":   string(last.Coach.Choice),
		"result":      string(result),
		"timestamp":   now.UnixMilli(),
		"calendarDay": evdomain.DayKey(now),
	}
}

func (s *CoachService) Profile(events []evdomain.Event) domain.Profile {
	return domain.ComputeProfile(events, s.location())
}

func (s *CoachService) Suggest(events []evdomain.Event, riskScore int) (domain.Suggestion, domain.Profile, domain.Performance) {
	profile := s.Profile(events)
	perf := domain.ActionPerformance(events)
	return domain.Suggest(riskScore, profile, perf), profile, perf
}
