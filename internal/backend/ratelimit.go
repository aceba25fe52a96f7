package backend

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped client.
type RateLimited struct {
	Client
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with a burst of at least one.
func NewRateLimited(c Client, perSecond float64) *RateLimited {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Client: c, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Invoke waits for a token, then calls through.
func (r *RateLimited) Invoke(ctx context.Context, prompt string) (Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{BackendID: r.ID()}, fmt.Errorf("%s: %w: rate limit: %v", r.ID(), ErrBackendUnavailable, err)
	}
	return r.Client.Invoke(ctx, prompt)
}
