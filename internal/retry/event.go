package retry

import "time"

// EventType identifies the kind of event occurring during retry execution.
type EventType string

const (
	// EventAttemptStart fires before each attempt.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires after a failed attempt.
	EventAttemptFailed EventType = "attempt_failed"

	// EventBackoff fires before waiting out a rate limit.
	EventBackoff EventType = "backoff"

	// EventSuccess fires when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventExhausted fires when all retry attempts are exhausted.
	EventExhausted EventType = "exhausted"

	// EventUnconfigured fires when no credentials are configured.
	EventUnconfigured EventType = "unconfigured"
)

// Event represents an observable occurrence during retry execution.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Attempt is the current attempt number (1-indexed).
	Attempt int

	// MaxAttempts is the total number of attempts allowed.
	MaxAttempts int

	// Cycle is the credential cycle of the attempt (1-indexed).
	Cycle int

	// Credential is the masked credential used by the attempt.
	Credential string

	// Error contains the error from a failed attempt.
	Error error

	// Delay is the wait before the next attempt (for EventBackoff).
	Delay time.Duration

	// RateLimited indicates the failure was classified as a rate limit.
	RateLimited bool

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
