package client

import (
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/retry"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before an operation begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after an operation completes successfully.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when an operation fails.
	EventRequestError EventType = "request_error"

	// EventRetry fires for every dispatcher step (forwarded from retry package).
	EventRetry EventType = "retry"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// OpID identifies the generate-content operation the event belongs to.
	OpID string

	// Provider is the provider resolved for the operation.
	Provider ai.Provider

	// Model is the model name being used.
	Model string

	// Duration is the elapsed time for finished operations.
	Duration time.Duration

	// Error contains the error for EventRequestError.
	Error error

	// RetryEvent contains the underlying dispatcher event for EventRetry.
	RetryEvent *retry.Event

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
