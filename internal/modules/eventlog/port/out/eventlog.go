package out

import (
	"context"

	"intent/internal/modules/eventlog/domain"
)

// LogStore persists the whole log as one value. Writes replace the log
// atomically; there are no partial updates.
type LogStore interface {
	LoadRaw(ctx context.Context) ([]any, error)
	SaveRaw(ctx context.Context, recs []any) error
	Save(ctx context.Context, events []domain.Event) error
}

type MetaStore interface {
	LoadMeta(ctx context.Context) (domain.Meta, error)
	SaveMeta(ctx context.Context, meta domain.Meta) error
}
