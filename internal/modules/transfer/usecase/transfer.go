package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/modules/transfer/domain"
	transferdto "intent/internal/modules/transfer/dto"
	transferin "intent/internal/modules/transfer/port/in"
	transferout "intent/internal/modules/transfer/port/out"
	"intent/internal/platform/clock"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/tx"
)

type Interactor struct {
	log     transferout.EventLog
	schema  transferout.Schema
	active  transferout.ActiveSession
	errors  transferout.ErrorLog
	storage transferout.Storage
	clock   clock.Clock
	tx      tx.Manager
	logger  *slog.Logger
}

type Deps struct {
	Log     transferout.EventLog
	Schema  transferout.Schema
	Active  transferout.ActiveSession
	Errors  transferout.ErrorLog
	Storage transferout.Storage
	Clock   clock.Clock
	Tx      tx.Manager
	Logger  *slog.Logger
}

func NewInteractor(deps Deps) transferin.Usecase {
	if deps.Tx == nil {
		deps.Tx = tx.NoopManager{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Interactor{
		log:     deps.Log,
		schema:  deps.Schema,
		active:  deps.Active,
		errors:  deps.Errors,
		storage: deps.Storage,
		clock:   deps.Clock,
		tx:      deps.Tx,
		logger:  deps.Logger,
	}
}

func (i *Interactor) Export(ctx context.Context) (transferdto.ExportOutput, error) {
	var out transferdto.ExportOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		version, err := i.schema.Current(ctx)
		if err != nil {
			return err
		}
		lastErr, err := i.errors.Last(ctx)
		if err != nil {
			return err
		}
		now := i.clock.Now()
		data, err := json.MarshalIndent(domain.NewExport(now, version, events, lastErr), "", "  ")
		if err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		out = transferdto.ExportOutput{ExportedAt: now, SchemaVersion: version, Events: len(events), Data: data}
		return nil
	})
	return out, err
}

// Import replaces the whole log with a validated payload. A rejected
// payload leaves every stored value untouched.
func (i *Interactor) Import(ctx context.Context, input transferdto.ImportInput) (transferdto.ImportOutput, error) {
	raw, err := domain.Decode(input.Data)
	if err != nil {
		return transferdto.ImportOutput{}, err
	}
	payload, err := domain.Validate(raw)
	if err != nil {
		return transferdto.ImportOutput{}, err
	}

	var out transferdto.ImportOutput
	err = i.tx.Within(ctx, func(ctx context.Context) error {
		events, report, err := i.log.Replace(ctx, payload.Events)
		if err != nil {
			return err
		}
		out = transferdto.ImportOutput{
			Imported:   len(events),
			Rejected:   report.Rejected,
			Duplicates: report.Duplicates,
			Truncated:  report.Truncated,
		}
		if err := i.schema.Stamp(ctx); err != nil {
			return err
		}
		if err := i.active.ClearActive(ctx); err != nil {
			return err
		}
		if payload.LastError != nil {
			if err := i.errors.Save(ctx, *payload.LastError); err != nil {
				return err
			}
		}
		i.logger.Info("event log imported", "events", out.Imported, "rejected", out.Rejected, "duplicates", out.Duplicates)
		return nil
	})
	return out, err
}

func (i *Interactor) Dump(ctx context.Context) (transferdto.DumpOutput, error) {
	var out transferdto.DumpOutput
	err := i.tx.Within(ctx, func(ctx context.Context) error {
		events, err := i.log.Load(ctx)
		if err != nil {
			return err
		}
		version, err := i.schema.Current(ctx)
		if err != nil {
			return err
		}
		active, err := i.active.LoadActive(ctx)
		if err != nil && !errors.Is(err, apperrors.ErrNoActiveSession) {
			return err
		}
		lastErr, err := i.errors.Last(ctx)
		if err != nil {
			return err
		}
		size, err := i.storage.ApproximateSizeKB(ctx)
		if err != nil {
			return err
		}

		dump := struct {
			Meta            map[string]int   `json:"_meta"`
			ActiveSessionID string           `json:"activeSessionId,omitempty"`
			LastError       any              `json:"lastError"`
			ApproxSizeKB    float64          `json:"approxSizeKB"`
			Events          []evdomain.Event `json:"events"`
		}{
			Meta:            map[string]int{"schemaVersion": version},
			ActiveSessionID: active,
			LastError:       lastErr,
			ApproxSizeKB:    size,
			Events:          events,
		}
		if dump.Events == nil {
			dump.Events = []evdomain.Event{}
		}
		data, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return fmt.Errorf("encode dump: %w", err)
		}

		out = transferdto.DumpOutput{
			SchemaVersion:   version,
			Events:          len(events),
			ActiveSessionID: active,
			SizeKB:          size,
			Data:            data,
		}
		if lastErr != nil {
			out.LastError = &transferdto.LastErrorOutput{TS: lastErr.TS, Type: lastErr.Type, Message: lastErr.Message}
		}
		return nil
	})
	return out, err
}

// Reset wipes every stored value, then records the current schema so the
// empty log is not migrated again.
func (i *Interactor) Reset(ctx context.Context) error {
	return i.tx.Within(ctx, func(ctx context.Context) error {
		if err := i.storage.ClearAll(ctx); err != nil {
			return fmt.Errorf("reset storage: %w", err)
		}
		i.logger.Warn("all stored data cleared", "at", i.clock.Now().Format(time.RFC3339))
		return i.schema.Stamp(ctx)
	})
}
