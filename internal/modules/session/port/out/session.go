package out

import (
	"context"

	evdomain "intent/internal/modules/eventlog/domain"
)

// EventLog is the slice of the event log the lifecycle manager needs: whole
// log reads and whole log replacement.
type EventLog interface {
	Load(ctx context.Context) ([]evdomain.Event, error)
	Save(ctx context.Context, events []evdomain.Event) error
}

// ActiveSessionStore persists the single active-session pointer. The
// pointer is an index into the log, not the session itself.
type ActiveSessionStore interface {
	SaveActive(ctx context.Context, sessionID string) error
	LoadActive(ctx context.Context) (string, error)
	ClearActive(ctx context.Context) error
}
