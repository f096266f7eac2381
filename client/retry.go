package client

import (
	"github.com/spetersoncode/relay/internal/retry"
)

// RetryConfig holds dispatcher configuration parameters.
type RetryConfig = retry.Config

// RetryEvent represents an observable occurrence during dispatch.
type RetryEvent = retry.Event

// RetryEventType identifies the kind of dispatcher event.
type RetryEventType = retry.EventType

// Retry event type constants.
const (
	RetryEventAttemptStart  = retry.EventAttemptStart
	RetryEventAttemptFailed = retry.EventAttemptFailed
	RetryEventBackoff       = retry.EventBackoff
	RetryEventSuccess       = retry.EventSuccess
	RetryEventExhausted     = retry.EventExhausted
	RetryEventUnconfigured  = retry.EventUnconfigured
)

// DefaultRetryConfig returns the default dispatcher configuration.
//   - 3 attempts per credential
//   - 2 second rate-limit delay, multiplied by the credential cycle
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}
