package ratelimit

import "time"

// Config holds throttle settings for outbound source requests.
type Config struct {
	Strategy       Strategy      `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
	RequestsPerSec float64       `yaml:"requests_per_second" json:"requests_per_second" mapstructure:"requests_per_second"`
	Burst          int           `yaml:"burst" json:"burst" mapstructure:"burst"`
	FixedDelay     time.Duration `yaml:"fixed_delay" json:"fixed_delay" mapstructure:"fixed_delay"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyTokenBucket,
		RequestsPerSec: 2.0,
		Burst:          4,
		FixedDelay:     500 * time.Millisecond,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.FixedDelay <= 0 {
		cfg.FixedDelay = def.FixedDelay
	}
	return cfg
}
