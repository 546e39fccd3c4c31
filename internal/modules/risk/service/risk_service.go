package service

import (
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/modules/risk/domain"
	"intent/internal/platform/catalog"
	"intent/internal/platform/clock"
)

type RiskService struct {
	clock   clock.Clock
	catalog catalog.Catalog
}

func NewRiskService(clock clock.Clock, c catalog.Catalog) *RiskService {
	return &RiskService{clock: clock, catalog: c}
}

func (s *RiskService) Now() time.Time {
	return s.clock.Now()
}

// Scope resolves an app filter. An empty filter scores all apps against
// the global thresholds; anything else is resolved through the catalog.
func (s *RiskService) Scope(app string) (string, catalog.Thresholds) {
	if app == "" {
		return "", s.catalog.Global()
	}
	resolved := s.catalog.Resolve(app)
	return resolved, s.catalog.Thresholds(resolved)
}

func (s *RiskService) Assess(events []evdomain.Event, pings []int64, app string, now time.Time) domain.Assessment {
	scope, thresholds := s.Scope(app)
	return domain.Compute(domain.Input{
		Events:     events,
		Thresholds: thresholds,
		Pings:      pings,
		Now:        now,
		App:        scope,
	})
}

func (s *RiskService) Overview(events []evdomain.Event, now time.Time) domain.Overview {
	return domain.ComputeOverview(events, s.catalog, now)
}
