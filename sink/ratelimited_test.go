package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/c360/semledger/errors"
)

func TestNewRateLimited_Validation(t *testing.T) {
	_, err := NewRateLimited(nil, 10, 1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewRateLimited(NewMemory(), 0, 1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewRateLimited(NewMemory(), 10, 0)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRateLimited_Delegates(t *testing.T) {
	inner := NewMemory()
	r, err := NewRateLimited(inner, rate.Limit(1000), 10)
	require.NoError(t, err)

	assert.Equal(t, "memory", r.Name())

	id, err := r.SaveEntity(context.Background(), "contract", map[string]any{"id": "c1"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id)
	assert.Equal(t, 1, inner.Count())
}

func TestRateLimited_PropagatesInnerFailure(t *testing.T) {
	inner := NewMemory()
	inner.FailEntity("c1", -1)
	r, err := NewRateLimited(inner, rate.Limit(1000), 10)
	require.NoError(t, err)

	_, err = r.SaveEntity(context.Background(), "contract", map[string]any{"id": "c1"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestRateLimited_ThrottlesBeyondBurst(t *testing.T) {
	r, err := NewRateLimited(NewMemory(), rate.Limit(50), 1)
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := r.SaveEntity(ctx, "contract", map[string]any{"id": "c1"})
		require.NoError(t, err)
	}

	// Burst covers the first save; the next two wait a token apiece at
	// 20ms per token.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimited_CancelledContext(t *testing.T) {
	r, err := NewRateLimited(NewMemory(), rate.Limit(1), 1)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = r.SaveEntity(ctx, "contract", map[string]any{"id": "c1"})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.SaveEntity(cancelled, "contract", map[string]any{"id": "c2"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
