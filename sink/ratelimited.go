package sink

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/writer"
)

var _ writer.Sink = (*RateLimited)(nil)

// RateLimited wraps a sink with a token bucket so delivery never
// exceeds the collector's sustainable rate. Writer workers block in
// Wait, which turns the limit into backpressure rather than failures.
type RateLimited struct {
	inner   writer.Sink
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing limit saves per
// second and bursts up to burst.
func NewRateLimited(inner writer.Sink, limit rate.Limit, burst int) (*RateLimited, error) {
	if inner == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "RateLimited", "NewRateLimited", "inner sink is required")
	}
	if limit <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "RateLimited", "NewRateLimited", "limit must be positive")
	}
	if burst < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "RateLimited", "NewRateLimited", "burst must be at least 1")
	}

	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Name reports the wrapped sink's name so logs and metrics attribute
// saves to the real destination.
func (r *RateLimited) Name() string {
	if named, ok := r.inner.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "sink"
}

// SaveEntity waits for a token, then delegates.
func (r *RateLimited) SaveEntity(ctx context.Context, entityType string, data map[string]any) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", errors.WrapTransient(err, "RateLimited", "SaveEntity", "await rate token")
	}
	return r.inner.SaveEntity(ctx, entityType, data)
}
