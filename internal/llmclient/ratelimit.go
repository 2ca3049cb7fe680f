// internal/llmclient/ratelimit.go
package llmclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// RateLimitedClient throttles calls to an underlying client.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient allows requestsPerMinute calls per minute with a burst
// of one.
func NewRateLimitedClient(next schemas.LLMClient, requestsPerMinute float64) *RateLimitedClient {
	interval := time.Duration(float64(time.Minute) / requestsPerMinute)
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Generate waits for a token, then delegates.
func (r *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}
	return r.next.Generate(ctx, req)
}

func (r *RateLimitedClient) Close() error {
	return r.next.Close()
}
