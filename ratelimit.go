package gotlive

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter is a token bucket that paces provider requests.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	perSecond  float64
	lastRefill time.Time
	now        func() time.Time
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // default 60
	BurstSize         int // default: same as RequestsPerMinute
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return newRateLimiter(cfg, time.Now)
}

func newRateLimiter(cfg RateLimitConfig, now func() time.Time) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60
	}
	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm
	}

	return &RateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		perSecond:  rpm / 60.0,
		lastRefill: now(),
		now:        now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	_, ok := r.reserve()
	return ok
}

// Available returns the current number of tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// reserve takes a token if one is available. Otherwise it reports how long
// until the bucket holds a whole token again.
func (r *RateLimiter) reserve() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return 0, true
	}

	missing := 1 - r.tokens
	return time.Duration(missing / r.perSecond * float64(time.Second)), false
}

// refill must be called with mu held.
func (r *RateLimiter) refill() {
	now := r.now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.perSecond
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
}

// RateLimitedProvider wraps an AIProvider with a hard request rate.
type RateLimitedProvider struct {
	provider AIProvider
	limiter  *RateLimiter
	logger   *slog.Logger
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider AIProvider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
		logger:   slog.Default(),
	}
}

// Translate implements AIProvider.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if !p.limiter.TryAcquire() {
		p.logger.Debug("gotlive: waiting for rate limiter", "segments", len(req.Segments))
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &ProviderError{
				Message: "rate limit wait cancelled",
				Cause:   err,
			}
		}
	}

	return p.provider.Translate(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}

var _ AIProvider = (*RateLimitedProvider)(nil)
