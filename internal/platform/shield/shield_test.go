package shield_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent/internal/platform/kv"
	"intent/internal/platform/shield"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestRecorderCaptureAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := shield.NewRecorder(kv.NewMemoryStore(0), fixedClock{now: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)})

	last, err := r.Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, r.Capture(ctx, "command", nil))
	last, err = r.Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last, "a nil error records nothing")

	require.NoError(t, r.Capture(ctx, "command", errors.New("disk on fire")))
	last, err = r.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, shield.Record{TS: "2026-03-04T20:00:00Z", Type: "command", Message: "disk on fire"}, *last)

	require.NoError(t, r.Clear(ctx))
	last, err = r.Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
}
