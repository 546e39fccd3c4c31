package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"intent/internal/modules/risk/domain"
	riskdto "intent/internal/modules/risk/dto"
	riskin "intent/internal/modules/risk/port/in"
	riskout "intent/internal/modules/risk/port/out"
	"intent/internal/modules/risk/service"
	"intent/internal/platform/telemetry"
	"intent/internal/platform/tx"
)

type Interactor struct {
	svc    *service.RiskService
	events riskout.EventSource
	pings  riskout.PingStore
	tx     tx.Manager
	logger *slog.Logger

	scores metric.Int64Histogram
}

func NewInteractor(svc *service.RiskService, events riskout.EventSource, pings riskout.PingStore, txm tx.Manager, logger *slog.Logger) riskin.Usecase {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{
		svc:    svc,
		events: events,
		pings:  pings,
		tx:     txm,
		logger: logger,
		scores: telemetry.Histogram("intent.risk.score", "Computed risk scores."),
	}
}

func (i *Interactor) Assess(ctx context.Context, input riskdto.AssessInput) (riskdto.AssessOutput, error) {
	var out riskdto.AssessOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.events.Load(ctx)
		if err != nil {
			return err
		}
		pings, err := i.pings.LoadPings(ctx)
		if err != nil {
			return err
		}
		app, thresholds := i.svc.Scope(input.App)
		a := i.svc.Assess(events, pings, app, i.svc.Now())
		out = toAssessOutput(a)
		out.App = app
		out.Orange = thresholds.Orange
		out.Red = thresholds.Red
		return nil
	})
	if err != nil {
		return riskdto.AssessOutput{}, err
	}
	i.scores.Record(ctx, int64(out.Score), metric.WithAttributes(attribute.String("tier", out.Tier)))
	return out, nil
}

func (i *Interactor) Overview(ctx context.Context) (riskdto.OverviewOutput, error) {
	var out riskdto.OverviewOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.events.Load(ctx)
		if err != nil {
			return err
		}
		o := i.svc.Overview(events, i.svc.Now())
		out = riskdto.OverviewOutput{Day: o.Day, TotalToday: o.TotalToday, State: string(o.State)}
		for _, a := range o.Apps {
			out.Apps = append(out.Apps, riskdto.AppOverviewOutput{
				App:              a.App,
				Name:             a.Name,
				Orange:           a.Thresholds.Orange,
				Red:              a.Thresholds.Red,
				Today:            a.Today,
				Average7:         a.Trend.Average,
				WeeklyProjection: a.Trend.WeeklyProjection,
				Trend:            string(a.Trend.Direction),
				State:            string(a.State),
			})
		}
		return nil
	})
	return out, err
}

// RecordPing stores the current instant as an external trigger and reports
// the resulting loop status.
func (i *Interactor) RecordPing(ctx context.Context) (riskdto.LoopOutput, error) {
	var out riskdto.LoopOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		pings, err := i.pings.LoadPings(ctx)
		if err != nil {
			return err
		}
		now := i.svc.Now()
		pings = domain.PrunePings(append(pings, now.UnixMilli()), now)
		if err := i.pings.SavePings(ctx, pings); err != nil {
			return err
		}
		loop := domain.Loop(pings, now)
		out = riskdto.LoopOutput{Pings: len(pings), Count15: loop.Count15, InLoop: loop.InLoop}
		if loop.InLoop {
			i.logger.Info("open loop detected", "count15", loop.Count15)
		}
		return nil
	})
	return out, err
}

func (i *Interactor) ResetPings(ctx context.Context) error {
	return i.tx.Within(ctx, func(ctx context.Context) error {
		return i.pings.ClearPings(ctx)
	})
}

func toAssessOutput(a domain.Assessment) riskdto.AssessOutput {
	out := riskdto.AssessOutput{Score: a.Score, Tier: string(a.Tier)}
	for _, r := range a.TopReasons {
		out.Reasons = append(out.Reasons, riskdto.ReasonOutput{Code: r.Code, Detail: r.Detail, Weight: r.Weight})
	}
	d := a.Debug
	out.Debug = riskdto.BreakdownOutput{
		TotalToday:       d.TotalToday,
		TotalGlobal:      d.TotalGlobal,
		Daily:            append([]int(nil), d.Trend.Daily[:]...),
		Average7:         d.Trend.Average,
		WeeklyProjection: d.Trend.WeeklyProjection,
		TrendDelta:       d.Trend.Delta,
		Trend:            string(d.Trend.Direction),
		IntentTotal:      d.Intents.Total,
		PctPurposeful:    d.Intents.Purposeful,
		PctEntertainment: d.Intents.Entertainment,
		PctUnconscious:   d.Intents.Unconscious,
		Pressure:         d.Pressure,
		LoopCount15:      d.Loop.Count15,
		InLoop:           d.Loop.InLoop,
		Hour:             d.Hour,
	}
	return out
}
