package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"intent/internal/modules/coach/domain"
	coachdto "intent/internal/modules/coach/dto"
	coachin "intent/internal/modules/coach/port/in"
	coachout "intent/internal/modules/coach/port/out"
	"intent/internal/modules/coach/service"
	evdomain "intent/internal/modules/eventlog/domain"
	riskdto "intent/internal/modules/risk/dto"
	riskin "intent/internal/modules/risk/port/in"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/tx"
)

type Interactor struct {
	svc    *service.CoachService
	log    coachout.EventLog
	risk   riskin.Usecase
	tx     tx.Manager
	logger *slog.Logger
}

func NewInteractor(svc *service.CoachService, log coachout.EventLog, risk riskin.Usecase, txm tx.Manager, logger *slog.Logger) coachin.Usecase {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{svc: svc, log: log, risk: risk, tx: txm, logger: logger}
}

func (i *Interactor) LogChoice(ctx context.Context, input coachdto.ChoiceInput) (coachdto.EventOutput, error) {
	choice := evdomain.ParseChoice(input.Choice)
	if choice == evdomain.ChoiceNone {
		return coachdto.EventOutput{}, fmt.Errorf("coach choice %q: %w", input.Choice, apperrors.ErrInvalidInput)
	}
	var out coachdto.EventOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		e, err := i.log.Append(ctx, i.svc.ChoiceRecord(choice, input.App))
		if e.ID != "" {
			out = toEventOutput(e)
		}
		return err
	})
	return out, err
}

// LogOutcome records how the most recently chosen action went.
func (i *Interactor) LogOutcome(ctx context.Context, input coachdto.OutcomeInput) (coachdto.EventOutput, error) {
	result := evdomain.ParseResult(input.Result)
	if result == evdomain.ResultNone {
		return coachdto.EventOutput{}, fmt.Errorf("outcome result %q: %w", input.Result, apperrors.ErrInvalidInput)
	}
	var out coachdto.EventOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		last, ok := evdomain.LastOfKind(events, evdomain.KindCoach)
		if !ok || last.Coach == nil || last.Coach.Choice == evdomain.ChoiceNone {
			return apperrors.ErrNoCoachChoice
		}
		e, err := i.log.Append(ctx, i.svc.OutcomeRecord(last, result))
		if e.ID != "" {
			out = toEventOutput(e)
		}
		return err
	})
	return out, err
}

func (i *Interactor) Profile(ctx context.Context) (coachdto.ProfileOutput, error) {
	var out coachdto.ProfileOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		out = toProfileOutput(i.svc.Profile(events))
		return nil
	})
	return out, err
}

// Suggest scores risk first, in its own boundary, then reads the log for
// the profile and action history.
func (i *Interactor) Suggest(ctx context.Context, input coachdto.SuggestInput) (coachdto.SuggestOutput, error) {
	if i.risk == nil {
		return coachdto.SuggestOutput{}, errors.New("risk usecase is not configured")
	}
	risk, err := i.risk.Assess(ctx, riskdto.AssessInput{App: input.App})
	if err != nil {
		return coachdto.SuggestOutput{}, err
	}

	var out coachdto.SuggestOutput
	err = i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		suggestion, profile, perf := i.svc.Suggest(events, risk.Score)
		out = coachdto.SuggestOutput{
			RiskScore: risk.Score,
			RiskTier:  risk.Tier,
			Traits:    profile.Keys(),
			Scores:    map[string]float64{},
			BaseKey:   string(suggestion.Base),
			FinalKey:  string(suggestion.Final),
			Action:    domain.ActionTexts[suggestion.Final],
			Actions:   map[string]string{},
		}
		if len(out.Traits) == 0 {
			out.Traits = []string{string(domain.TraitStable)}
		}
		for _, a := range evdomain.Actions {
			out.Scores[string(a)] = perf[a]
			out.Actions[string(a)] = domain.ActionTexts[a]
		}
		if suggestion.Final != suggestion.Base {
			i.logger.Debug("suggestion overridden by history", "base", suggestion.Base, "final", suggestion.Final)
		}
		return nil
	})
	return out, err
}

func toEventOutput(e evdomain.Event) coachdto.EventOutput {
	out := coachdto.EventOutput{
		ID:        e.ID,
		Kind:      string(e.Kind),
		App:       e.App,
		Timestamp: time.UnixMilli(e.Timestamp),
	}
	if e.Coach != nil {
		out.Choice = string(e.Coach.Choice)
	}
	if e.Outcome != nil {
		out.Choice = string(e.Outcome.ActionKey)
		out.Result = string(e.Outcome.Result)
	}
	return out
}

func toProfileOutput(p domain.Profile) coachdto.ProfileOutput {
	out := coachdto.ProfileOutput{Sessions: p.Sessions, Insufficient: p.Insufficient, Summary: p.Summary()}
	for _, t := range p.Traits {
		out.Traits = append(out.Traits, coachdto.TraitOutput{Key: string(t.Key), Label: t.Label, Percent: t.Percent})
	}
	return out
}
