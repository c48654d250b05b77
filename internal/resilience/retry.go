package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryConfig is the policy for waiting out a dependency that is still
// coming up, such as a Postgres container that accepts TCP before it accepts
// queries. Delays double from BaseDelay up to MaxDelay.
type RetryConfig struct {
	// Attempts is the total number of calls, including the first. Default: 5.
	Attempts int

	// BaseDelay is the wait before the second call. Default: 250ms.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Default: 4s.
	MaxDelay time.Duration

	// Jitter spreads each wait by ±Jitter of its length (0 disables).
	Jitter float64

	// OnRetry runs before each wait with the 1-based number of the failed call.
	OnRetry func(attempt int, err error)
}

// StartupRetryConfig covers roughly ten seconds of a database starting up.
func StartupRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  5,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  4 * time.Second,
		Jitter:    0.2,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := StartupRetryConfig()
	if c.Attempts <= 0 {
		c.Attempts = d.Attempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// delay returns the wait after the given failed call (1-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.BaseDelay
	for i := 1; i < attempt && d < c.MaxDelay; i++ {
		d *= 2
	}
	if d > c.MaxDelay {
		d = c.MaxDelay
	}
	if c.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * c.Jitter * float64(d))
	}
	return max(d, 0)
}

// Do calls fn until it succeeds. Errors that IsTransient rejects are returned
// at once. When ctx ends during a wait the last error is returned; when the
// attempts run out it is wrapped with the attempt count.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			return err
		}
		if attempt == cfg.Attempts {
			return eris.Wrapf(err, "resilience: gave up after %d attempts", attempt)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(cfg.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// LogRetries returns an OnRetry hook that logs each failed call to target.
func LogRetries(target string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: waiting for dependency",
			zap.String("target", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
