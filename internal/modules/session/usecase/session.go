package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/metric"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/modules/session/domain"
	sessiondto "intent/internal/modules/session/dto"
	sessionin "intent/internal/modules/session/port/in"
	sessionout "intent/internal/modules/session/port/out"
	"intent/internal/modules/session/service"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/telemetry"
	"intent/internal/platform/tx"
)

type Interactor struct {
	svc         *service.SessionService
	log         sessionout.EventLog
	activeStore sessionout.ActiveSessionStore
	tx          tx.Manager
	logger      *slog.Logger

	started        metric.Int64Counter
	superseded     metric.Int64Counter
	staleFinalized metric.Int64Counter
	reported       metric.Int64Counter
	stopped        metric.Int64Counter
}

func NewInteractor(svc *service.SessionService, log sessionout.EventLog, activeStore sessionout.ActiveSessionStore, txm tx.Manager, logger *slog.Logger) sessionin.Usecase {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{
		svc:            svc,
		log:            log,
		activeStore:    activeStore,
		tx:             txm,
		logger:         logger,
		started:        telemetry.Counter("intent.sessions.started", "Usage sessions started."),
		superseded:     telemetry.Counter("intent.sessions.superseded", "Open sessions zeroed by a newer start."),
		staleFinalized: telemetry.Counter("intent.sessions.stale_finalized", "Open sessions zeroed by the staleness sweep."),
		reported:       telemetry.Counter("intent.sessions.reported", "Sessions settled by an external report."),
		stopped:        telemetry.Counter("intent.sessions.stopped", "Sessions cancelled by the user."),
	}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.StartOutput, error) {
	if input.MinutesPlanned < 0 || input.MinutesPlanned > evdomain.MaxMinutes {
		return sessiondto.StartOutput{}, fmt.Errorf("planned minutes %d: %w", input.MinutesPlanned, apperrors.ErrInvalidInput)
	}
	intent := evdomain.ParseIntent(input.Intent)

	var out sessiondto.StartOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		if len(events) >= evdomain.MaxEvents {
			return apperrors.ErrLogFull
		}
		now := i.svc.Now()

		prev, err := i.activeStore.LoadActive(ctx)
		if err != nil && !errors.Is(err, apperrors.ErrNoActiveSession) {
			return err
		}
		events, superseded := i.svc.Supersede(events, prev, now)

		session := i.svc.Open(input.App, intent, input.MinutesPlanned, now)
		out = sessiondto.StartOutput{
			SessionID:      session.SessionID,
			App:            session.App,
			StartedAt:      now,
			MinutesPlanned: session.Usage.MinutesPlanned,
			CoachAdvised:   intent == evdomain.IntentUnconscious,
		}
		if superseded {
			out.SupersededID = prev
		}

		if err := i.log.Save(ctx, evdomain.WithAppended(events, session)); err != nil {
			return err
		}
		if superseded {
			i.superseded.Add(ctx, 1)
			i.logger.Info("session superseded", "session_id", prev, "by", session.SessionID)
		}
		i.started.Add(ctx, 1)
		return i.activeStore.SaveActive(ctx, session.SessionID)
	})
	return out, err
}

// Report applies an out-of-band completion. A report for a session that is
// already settled changes nothing and returns ErrSessionSettled alongside
// the stored session.
func (i *Interactor) Report(ctx context.Context, input sessiondto.ReportInput) (sessiondto.SessionOutput, error) {
	if err := domain.ValidateReport(input.SessionID, input.Minutes); err != nil {
		return sessiondto.SessionOutput{}, err
	}

	var out sessiondto.SessionOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		idx := evdomain.IndexBySession(events, input.SessionID)
		if idx < 0 || events[idx].Kind != evdomain.KindAllow {
			return fmt.Errorf("session %s: %w", input.SessionID, apperrors.ErrNotFound)
		}
		current := events[idx]
		if current.Terminal() {
			out = toOutput(current)
			if err := i.clearIfActive(ctx, input.SessionID); err != nil {
				return err
			}
			return fmt.Errorf("report %s: %w", input.SessionID, apperrors.ErrSessionSettled)
		}

		settled, err := domain.Report(current, i.svc.Now(), input.Minutes)
		if err != nil {
			return err
		}
		out = toOutput(settled)
		if err := i.log.Save(ctx, evdomain.WithReplaced(events, idx, settled)); err != nil {
			return err
		}
		i.reported.Add(ctx, 1)
		return i.clearIfActive(ctx, input.SessionID)
	})
	return out, err
}

func (i *Interactor) Stop(ctx context.Context) (sessiondto.SessionOutput, error) {
	var out sessiondto.SessionOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		now := i.svc.Now()
		idx, err := i.resolve(ctx, events, now)
		if err != nil {
			return err
		}
		cancelled, err := domain.Cancel(events[idx], now)
		if err != nil {
			return err
		}
		out = toOutput(cancelled)
		if err := i.log.Save(ctx, evdomain.WithReplaced(events, idx, cancelled)); err != nil {
			return err
		}
		i.stopped.Add(ctx, 1)
		return i.activeStore.ClearActive(ctx)
	})
	return out, err
}

func (i *Interactor) Sweep(ctx context.Context) (sessiondto.SweepOutput, error) {
	var out sessiondto.SweepOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		swept, settled := i.svc.SweepStale(events, i.svc.Now())
		if len(settled) == 0 {
			return nil
		}
		if err := i.log.Save(ctx, swept); err != nil {
			return err
		}
		out.Finalized = settled
		i.staleFinalized.Add(ctx, int64(len(settled)))
		i.logger.Info("stale sessions finalized", "count", len(settled))

		pointer, err := i.activeStore.LoadActive(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				return nil
			}
			return err
		}
		if slices.Contains(settled, pointer) {
			out.PointerCleared = true
			return i.activeStore.ClearActive(ctx)
		}
		return nil
	})
	return out, err
}

func (i *Interactor) GetActive(ctx context.Context) (sessiondto.SessionOutput, error) {
	var out sessiondto.SessionOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		idx, err := i.resolve(ctx, events, i.svc.Now())
		if err != nil {
			return err
		}
		out = toOutput(events[idx])
		return nil
	})
	return out, err
}

// resolve runs the active lookup and clears a pointer that no longer names
// an open session inside the guard.
func (i *Interactor) resolve(ctx context.Context, events []evdomain.Event, now time.Time) (int, error) {
	pointer, err := i.activeStore.LoadActive(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNoActiveSession) {
		return -1, err
	}
	idx, pointerValid := i.svc.ResolveActive(events, pointer, now)
	if pointer != "" && !pointerValid {
		if err := i.activeStore.ClearActive(ctx); err != nil {
			return -1, err
		}
		i.logger.Debug("active pointer cleared", "session_id", pointer)
	}
	if idx < 0 {
		return -1, apperrors.ErrNoActiveSession
	}
	return idx, nil
}

func (i *Interactor) clearIfActive(ctx context.Context, sessionID string) error {
	pointer, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return nil
		}
		return err
	}
	if pointer != sessionID {
		return nil
	}
	return i.activeStore.ClearActive(ctx)
}

func toOutput(e evdomain.Event) sessiondto.SessionOutput {
	out := sessiondto.SessionOutput{
		SessionID: e.SessionID,
		App:       e.App,
		Intent:    string(e.Intent),
	}
	if e.Usage == nil {
		return out
	}
	u := e.Usage
	if u.StartedAt != nil {
		out.StartedAt = time.UnixMilli(*u.StartedAt)
	}
	if u.EndedAt != nil {
		out.EndedAt = time.UnixMilli(*u.EndedAt)
	}
	if u.MinutesActual != nil {
		m := *u.MinutesActual
		out.MinutesActual = &m
	}
	out.MinutesPlanned = u.MinutesPlanned
	out.Cancelled = u.Cancelled
	out.Finalized = u.Finalized
	out.StaleFinalized = u.StaleFinalized
	return out
}
