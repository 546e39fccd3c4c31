package out

import (
	"context"

	evdomain "intent/internal/modules/eventlog/domain"
)

type EventLog interface {
	Load(ctx context.Context) ([]evdomain.Event, error)
	Append(ctx context.Context, raw any) (evdomain.Event, error)
}
