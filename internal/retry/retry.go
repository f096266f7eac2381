package retry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/logging"
)

// Rotator hands out credentials round-robin.
type Rotator interface {
	Len() int
	Next() (string, bool)
	Reset()
}

// Do calls fn once per attempt with the next credential from rot until a call
// succeeds or the attempt budget is spent.
//
// With no credentials it fails at once with a configuration error. On
// success the rotation is reset so the next operation starts from the first
// credential. Failed attempts keep advancing the rotation. A rate-limited
// attempt waits cfg.Delay before the next one; other failures retry at once.
// Once the budget is spent it returns *ai.AllCredentialsFailedError wrapping
// the last failure. Cancelling ctx aborts the loop, including a pending wait.
func Do[T any](ctx context.Context, cfg Config, rot Rotator, events chan<- Event, fn func(ctx context.Context, credential string) (T, error)) (T, error) {
	var zero T
	log := logging.OrNop(cfg.Logger)

	n := rot.Len()
	if n == 0 {
		emit(events, Event{Type: EventUnconfigured})
		return zero, ai.NewConfigurationError(ai.ErrNoCredentials.Error())
	}

	maxAttempts := cfg.MaxAttempts(n)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("aborted before attempt %d/%d: %w", attempt, maxAttempts, err)
		}

		key, ok := rot.Next()
		if !ok {
			continue
		}
		cycle := Cycle(attempt, n)
		masked := logging.MaskKey(key)

		emit(events, Event{
			Type:        EventAttemptStart,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Cycle:       cycle,
			Credential:  masked,
		})

		result, err := fn(ctx, key)
		if err == nil {
			rot.Reset()
			emit(events, Event{
				Type:        EventSuccess,
				Attempt:     attempt,
				MaxAttempts: maxAttempts,
				Cycle:       cycle,
				Credential:  masked,
			})
			return result, nil
		}

		lastErr = err
		rateLimited := Classify(err) == ai.KindRateLimited

		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Cycle:       cycle,
			Credential:  masked,
			Error:       err,
			RateLimited: rateLimited,
		})
		log.Warn("attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			logging.Key(key),
			zap.Int("status", ai.StatusCodeOf(err)),
			zap.String("error", ai.CleanMessage(err)))

		// Nothing left to wait for after the last attempt.
		if !rateLimited || attempt == maxAttempts {
			continue
		}

		delay := cfg.Delay(attempt, n)
		emit(events, Event{
			Type:        EventBackoff,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Cycle:       cycle,
			Credential:  masked,
			Delay:       delay,
			RateLimited: true,
		})
		log.Info("rate limit hit, backing off",
			zap.Int("cycle", cycle),
			zap.Duration("delay", delay))

		if err := cfg.wait(ctx, delay); err != nil {
			return zero, fmt.Errorf("aborted during backoff after attempt %d/%d: %w", attempt, maxAttempts, err)
		}
	}

	emit(events, Event{
		Type:        EventExhausted,
		Attempt:     maxAttempts,
		MaxAttempts: maxAttempts,
		Error:       lastErr,
	})
	log.Error("all credentials failed",
		zap.Int("attempts", maxAttempts),
		zap.String("last_error", ai.CleanMessage(lastErr)))

	return zero, &ai.AllCredentialsFailedError{Attempts: maxAttempts, Last: lastErr}
}
