package out

import (
	"context"

	evdomain "intent/internal/modules/eventlog/domain"
)

// EventSource reads the sanitized event log.
type EventSource interface {
	Load(ctx context.Context) ([]evdomain.Event, error)
}

// PingStore persists the recent external trigger instants, epoch
// milliseconds, oldest first.
type PingStore interface {
	LoadPings(ctx context.Context) ([]int64, error)
	SavePings(ctx context.Context, pings []int64) error
	ClearPings(ctx context.Context) error
}
