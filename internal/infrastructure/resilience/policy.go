package resilience

import "time"

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig makes a single attempt per call: upstream failures surface to
// the caller unchanged, and only the breaker short-circuits a dead upstream.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

type Upstream string

const (
	UpstreamOllama Upstream = "ollama"
	UpstreamQdrant Upstream = "qdrant"
	UpstreamNATS   Upstream = "nats"
)

// UpstreamConfig returns the policy for one dependency. maxAttempts and
// breakerEnabled are the operator settings; the backoff and breaker windows
// follow how each upstream fails.
func UpstreamConfig(upstream Upstream, maxAttempts int, breakerEnabled bool) Config {
	cfg := DefaultConfig()
	cfg.RetryMaxAttempts = maxAttempts
	cfg.BreakerEnabled = breakerEnabled

	switch upstream {
	case UpstreamOllama:
		// A chat call takes seconds, so few calls reach the breaker window.
		cfg.RetryInitialBackoff = 250 * time.Millisecond
		cfg.RetryMaxBackoff = time.Second
		cfg.BreakerMinRequests = 5
		cfg.BreakerFailureRatio = 0.6
	case UpstreamQdrant:
		cfg.RetryInitialBackoff = 50 * time.Millisecond
		cfg.RetryMaxBackoff = 200 * time.Millisecond
		cfg.BreakerOpenTimeout = 10 * time.Second
	case UpstreamNATS:
		// The client reconnects and buffers on its own; one extra attempt at most.
		if cfg.RetryMaxAttempts > 2 {
			cfg.RetryMaxAttempts = 2
		}
		cfg.BreakerOpenTimeout = 5 * time.Second
	}
	return cfg.normalize()
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
