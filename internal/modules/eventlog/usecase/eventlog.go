package usecase

import (
	"context"
	"errors"
	"fmt"

	"intent/internal/modules/eventlog/domain"
	"intent/internal/modules/eventlog/dto"
	eventlogin "intent/internal/modules/eventlog/port/in"
	"intent/internal/modules/eventlog/service"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/tx"
)

type Interactor struct {
	log      *service.EventLogService
	migrator *service.Migrator
	tx       tx.Manager
}

func NewInteractor(log *service.EventLogService, migrator *service.Migrator, txm tx.Manager) eventlogin.Usecase {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &Interactor{log: log, migrator: migrator, tx: txm}
}

// Append stores a record. On ErrPersistence the returned output still holds
// the normalized event: it is logically appended, its durability unknown.
func (i *Interactor) Append(ctx context.Context, input dto.AppendInput) (dto.EventOutput, error) {
	if input.Record == nil {
		return dto.EventOutput{}, fmt.Errorf("append: %w", apperrors.ErrStructural)
	}
	var stored domain.Event
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		var err error
		stored, err = i.log.Append(ctx, input.Record)
		return err
	})
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		return dto.EventOutput{}, err
	}
	return ToOutput(stored), err
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) ([]dto.EventOutput, error) {
	var events []domain.Event
	var err error
	if input.Today {
		events, err = i.log.Today(ctx)
	} else {
		events, err = i.log.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	if input.Kind != "" {
		events = domain.OfKind(events, domain.ParseKind(input.Kind))
	}
	events = domain.ForApp(events, input.App)

	out := make([]dto.EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, ToOutput(e))
	}
	return out, nil
}

func (i *Interactor) Migrate(ctx context.Context) (dto.MigrateOutput, error) {
	var result service.MigrationResult
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		var err error
		result, err = i.migrator.Migrate(ctx)
		return err
	})
	if err != nil {
		return dto.MigrateOutput{}, err
	}
	return dto.MigrateOutput{From: result.From, To: result.To, Rewrites: result.Rewrites}, nil
}

// ToOutput flattens an event for callers outside the module.
func ToOutput(e domain.Event) dto.EventOutput {
	out := dto.EventOutput{
		ID:          e.ID,
		SessionID:   e.SessionID,
		Kind:        string(e.Kind),
		App:         e.App,
		Timestamp:   e.Timestamp,
		CalendarDay: e.CalendarDay,
		Intent:      string(e.Intent),
		Minutes:     e.Minutes(),
	}
	switch e.Kind {
	case domain.KindAllow:
		if u := e.Usage; u != nil {
			out.StartedAt = u.StartedAt
			out.EndedAt = u.EndedAt
			out.MinutesPlanned = u.MinutesPlanned
			out.MinutesActual = u.MinutesActual
			out.Cancelled = u.Cancelled
			out.Finalized = u.Finalized
			out.StaleFinalized = u.StaleFinalized
		}
	case domain.KindCoach:
		if e.Coach != nil {
			out.Choice = string(e.Coach.Choice)
		}
	case domain.KindOutcome:
		if e.Outcome != nil {
			out.ActionKey = string(e.Outcome.ActionKey)
			out.Result = string(e.Outcome.Result)
		}
	case domain.KindUnknown:
	}
	return out
}
