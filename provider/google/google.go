// Package google exposes the Gemini generate-content adapter on its own.
// Requests are passed to the Gemini API unchanged apart from the role and
// config mapping, and each call rotates through the store's credentials.
package google

import (
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/provider/google"
)

// DefaultModel is used by callers that have no model of their own.
const DefaultModel = relay.DefaultGeminiModel

// Client is the Gemini adapter.
type Client = google.Client

// ClientOption configures a Client.
type ClientOption = google.ClientOption

// Models is the subset of the genai models service the adapter calls.
type Models = google.Models

// Factory builds a Models for one API key and base URL.
type Factory = google.Factory

// Options accepted by New.
var (
	WithHTTPClient       = google.WithHTTPClient
	WithLogger           = google.WithLogger
	WithRetryConfig      = google.WithRetryConfig
	WithIsolatedRotation = google.WithIsolatedRotation
	WithFactory          = google.WithFactory
)

// New creates an adapter that rotates through the store's credentials.
func New(store *credential.Store, opts ...ClientOption) *Client {
	return google.New(store, opts...)
}
