// Package shield keeps the last unexpected failure so it can be inspected
// later and shipped with exports.
package shield

import (
	"context"
	"fmt"
	"time"

	"intent/internal/platform/clock"
	"intent/internal/platform/kv"
)

const lastErrorKey = "_lastError"

type Record struct {
	TS      string `json:"ts"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Recorder struct {
	store kv.Store
	clock clock.Clock
}

func NewRecorder(store kv.Store, clock clock.Clock) *Recorder {
	return &Recorder{store: store, clock: clock}
}

// Capture stores err as the last error under kind.
func (r *Recorder) Capture(ctx context.Context, kind string, err error) error {
	if err == nil {
		return nil
	}
	return r.Save(ctx, Record{
		TS:      r.clock.Now().UTC().Format(time.RFC3339Nano),
		Type:    kind,
		Message: err.Error(),
	})
}

func (r *Recorder) Save(ctx context.Context, rec Record) error {
	if err := r.store.Set(ctx, lastErrorKey, rec); err != nil {
		return fmt.Errorf("write last error: %w", err)
	}
	return nil
}

// Last returns nil when nothing has been recorded.
func (r *Recorder) Last(ctx context.Context) (*Record, error) {
	var rec Record
	found, err := r.store.Get(ctx, lastErrorKey, &rec)
	if err != nil {
		return nil, fmt.Errorf("read last error: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

func (r *Recorder) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, lastErrorKey)
}
