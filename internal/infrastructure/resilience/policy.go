package resilience

import (
	"math"
	"time"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy bounds attempts of a single call. MaxAttempts of 1 disables
// retries.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// delay is the wait after the given failed attempt, counting from 1.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// BreakerPolicy configures one breaker per operation key. When
// ConsecutiveFailures is set it trips on that many failures in a row and the
// ratio fields are ignored.
type BreakerPolicy struct {
	Enabled             bool
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	// Window clears closed-state counts; zero keeps them until a state change.
	Window        time.Duration
	OpenTimeout   time.Duration
	HalfOpenCalls uint32
}

func (p BreakerPolicy) tripped(c gobreaker.Counts) bool {
	if p.ConsecutiveFailures > 0 {
		return c.ConsecutiveFailures >= p.ConsecutiveFailures
	}
	if c.Requests < p.MinRequests {
		return false
	}
	return float64(c.TotalFailures)/float64(c.Requests) >= p.FailureRatio
}

type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
}

// DatasetConfig suits dataset loads: one breaker per source driver, a few
// retries on temporary failures, tripping on the failure ratio.
func DatasetConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: BreakerPolicy{
			Enabled:       true,
			MinRequests:   10,
			FailureRatio:  0.5,
			OpenTimeout:   30 * time.Second,
			HalfOpenCalls: 2,
		},
	}
}

// ImageConfig suits per-host image fetches. The resolver's candidate list
// already walks alternatives, so each call runs once. A host that keeps
// failing is cut off quickly and retested with a single call.
func ImageConfig() Config {
	return Config{
		Retry: RetryPolicy{MaxAttempts: 1},
		Breaker: BreakerPolicy{
			Enabled:             true,
			ConsecutiveFailures: 5,
			Window:              time.Minute,
			OpenTimeout:         10 * time.Second,
			HalfOpenCalls:       1,
		},
	}
}

func (c Config) normalize() Config {
	out := c
	def := DatasetConfig()

	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = 1
	}
	if out.Retry.InitialBackoff < 0 {
		out.Retry.InitialBackoff = 0
	}
	if out.Retry.MaxBackoff < out.Retry.InitialBackoff {
		out.Retry.MaxBackoff = out.Retry.InitialBackoff
	}
	if out.Retry.Multiplier < 1 {
		out.Retry.Multiplier = 1
	}

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if out.Breaker.HalfOpenCalls == 0 {
		out.Breaker.HalfOpenCalls = 1
	}
	return out
}
