// Package retry drives generate-content attempts across rotating credentials.
//
// Each credential gets a fixed number of tries per operation. Rate-limited
// attempts wait BaseDelay multiplied by the current credential cycle, so the
// wait grows only after a full pass over every credential. Other failures
// move straight on to the next credential.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config holds retry configuration parameters.
type Config struct {
	// RetriesPerCredential is the number of attempts each credential gets
	// per operation (default: 3). The attempt budget is this times the
	// number of credentials.
	RetriesPerCredential int

	// BaseDelay is the rate-limit wait during the first credential cycle
	// (default: 2s). Cycle c waits BaseDelay*c.
	BaseDelay time.Duration

	// Wait suspends for d or until ctx is done. Nil uses a timer.
	Wait func(ctx context.Context, d time.Duration) error

	// Logger receives attempt diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default retry configuration.
//   - 3 attempts per credential
//   - 2 second base delay, scaled by credential cycle
func DefaultConfig() Config {
	return Config{
		RetriesPerCredential: 3,
		BaseDelay:            2 * time.Second,
	}
}

// MaxAttempts returns the attempt budget for n credentials.
func (c Config) MaxAttempts(n int) int {
	per := c.RetriesPerCredential
	if per <= 0 {
		per = DefaultConfig().RetriesPerCredential
	}
	return n * per
}

// Cycle returns the 1-based credential cycle of a 1-based attempt.
func Cycle(attempt, n int) int {
	if n <= 0 || attempt <= 0 {
		return 1
	}
	return (attempt-1)/n + 1
}

// Delay returns the rate-limit wait after the given 1-based attempt with n
// credentials: BaseDelay * cycle.
func (c Config) Delay(attempt, n int) time.Duration {
	base := c.BaseDelay
	if base <= 0 {
		base = DefaultConfig().BaseDelay
	}
	return base * time.Duration(Cycle(attempt, n))
}

func (c Config) wait(ctx context.Context, d time.Duration) error {
	if c.Wait != nil {
		return c.Wait(ctx, d)
	}
	return sleep(ctx, d)
}

// sleep waits for d using a timer that is released on cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
