package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"intent/internal/modules/eventlog/domain"
	eventlogout "intent/internal/modules/eventlog/port/out"
	"intent/internal/platform/clock"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/telemetry"
)

// EventLogService is the single writer of the event log. It does not lock;
// callers that read-modify-write run it inside a tx.Manager boundary.
type EventLogService struct {
	norm   domain.Normalizer
	store  eventlogout.LogStore
	clock  clock.Clock
	logger *slog.Logger

	appended metric.Int64Counter
	failures metric.Int64Counter
}

func NewEventLogService(norm domain.Normalizer, store eventlogout.LogStore, logger *slog.Logger) *EventLogService {
	return &EventLogService{
		norm:     norm,
		store:    store,
		clock:    norm.Clock,
		logger:   logger,
		appended: telemetry.Counter("intent.events.appended", "Events appended to the log."),
		failures: telemetry.Counter("intent.persistence.failures", "Rejected whole-log writes."),
	}
}

// Load returns the sanitized log. When sanitizing changed anything the
// cleaned log is written back; a failure to do so is logged, not returned.
func (s *EventLogService) Load(ctx context.Context) ([]domain.Event, error) {
	raws, err := s.store.LoadRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("load event log: %w", err)
	}
	events, report := s.norm.SanitizeAll(raws)
	if report.Changed() {
		s.logger.Warn("event log self-healed",
			"rejected", report.Rejected, "duplicates", report.Duplicates, "truncated", report.Truncated)
		if err := s.persist(ctx, events); err != nil {
			s.logger.Warn("event log self-heal not persisted", "error", err)
		}
	}
	return events, nil
}

// Save replaces the whole log. The returned error wraps ErrPersistence when
// the store refused the write.
func (s *EventLogService) Save(ctx context.Context, events []domain.Event) error {
	raws := make([]any, len(events))
	for i, e := range events {
		raws[i] = e
	}
	clean, _ := s.norm.SanitizeAll(raws)
	return s.persist(ctx, clean)
}

// Append normalizes raw and adds it to the end of the log. A structurally
// invalid record yields ErrStructural and nothing is written. When the write
// itself fails the normalized event is still returned together with an
// error wrapping ErrPersistence.
func (s *EventLogService) Append(ctx context.Context, raw any) (domain.Event, error) {
	e, err := s.norm.Normalize(raw)
	if err != nil {
		return domain.Event{}, err
	}
	events, err := s.Load(ctx)
	if err != nil {
		return domain.Event{}, err
	}
	if len(events) >= domain.MaxEvents {
		return domain.Event{}, fmt.Errorf("append %s: %w", e.ID, apperrors.ErrLogFull)
	}
	if domain.IndexBySession(events, e.SessionID) >= 0 {
		return domain.Event{}, fmt.Errorf("append: duplicate session id %s: %w", e.SessionID, apperrors.ErrInvalidInput)
	}
	if err := s.persist(ctx, domain.WithAppended(events, e)); err != nil {
		return e, err
	}
	s.appended.Add(ctx, 1)
	return e, nil
}

// Replace swaps the whole log for the sanitized raws.
func (s *EventLogService) Replace(ctx context.Context, raws []any) ([]domain.Event, domain.SanitizeReport, error) {
	events, report := s.norm.SanitizeAll(raws)
	if err := s.persist(ctx, events); err != nil {
		return events, report, err
	}
	return events, report, nil
}

// Today returns events whose calendar day equals today's key.
func (s *EventLogService) Today(ctx context.Context) ([]domain.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.OnDay(events, domain.DayKey(s.clock.Now())), nil
}

func (s *EventLogService) ByKind(ctx context.Context, kind domain.Kind) ([]domain.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.OfKind(events, kind), nil
}

func (s *EventLogService) Normalizer() domain.Normalizer {
	return s.norm
}

func (s *EventLogService) persist(ctx context.Context, events []domain.Event) error {
	if err := s.store.Save(ctx, events); err != nil {
		s.failures.Add(ctx, 1)
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}
