package tx

import (
	"context"
	"sync"
)

// Manager wraps a read-modify-write boundary around the persisted log.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// MutexManager serializes every boundary in the process. The staleness
// sweeper and foreground commands both go through it so that no mutation
// works from a copy of the log read before another one was written.
type MutexManager struct {
	mu sync.Mutex
}

func NewMutexManager() *MutexManager {
	return &MutexManager{}
}

func (m *MutexManager) Within(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
