package out

import (
	"context"

	evdomain "intent/internal/modules/eventlog/domain"
	"intent/internal/platform/shield"
)

type EventLog interface {
	Load(ctx context.Context) ([]evdomain.Event, error)
	Replace(ctx context.Context, raws []any) ([]evdomain.Event, evdomain.SanitizeReport, error)
}

type Schema interface {
	Current(ctx context.Context) (int, error)
	Stamp(ctx context.Context) error
}

type ActiveSession interface {
	LoadActive(ctx context.Context) (string, error)
	ClearActive(ctx context.Context) error
}

type ErrorLog interface {
	Last(ctx context.Context) (*shield.Record, error)
	Save(ctx context.Context, rec shield.Record) error
}

// Storage is the whole persistence collaborator, for size reporting and
// full resets.
type Storage interface {
	ClearAll(ctx context.Context) error
	ApproximateSizeKB(ctx context.Context) (float64, error)
}
