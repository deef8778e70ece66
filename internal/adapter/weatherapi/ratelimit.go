package weatherapi

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// RateLimited wraps a WeatherProvider with a token-bucket limiter so a wide
// ingestion run cannot exceed the provider's request quota.
type RateLimited struct {
	inner   domain.WeatherProvider
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited decorator. rps may be fractional for
// slower than one request per second.
func NewRateLimited(inner domain.WeatherProvider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Fetch waits for limiter permission, then forwards to the inner provider.
// A cancelled wait reports as a ProviderError so callers see one failure type.
func (r *RateLimited) Fetch(ctx context.Context, query string) (domain.Observation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: err}
	}
	return r.inner.Fetch(ctx, query)
}

var _ domain.WeatherProvider = (*RateLimited)(nil)
