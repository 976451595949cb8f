package ratelimit

import "context"

// Limiter throttles requests to a source endpoint.
type Limiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	Reset()
}

// Strategy selects the throttling algorithm.
type Strategy string

const (
	StrategyTokenBucket Strategy = "token_bucket"
	StrategyFixedDelay  Strategy = "fixed_delay"
)

// NewLimiter creates a limiter based on config.
func NewLimiter(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	if cfg.Strategy == StrategyFixedDelay {
		return NewFixedDelay(cfg)
	}
	return NewTokenBucket(cfg)
}
