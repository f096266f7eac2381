// Package openai exposes the OpenAI-style generate-content adapter for
// callers that always talk to one chat completions endpoint and do not
// need the provider switch in package client.
//
// The adapter reads keys and the base URL from a credential store on every
// call, so settings changes apply without rebuilding it:
//
//	store := credential.Load(ctx, os.Getenv("API_KEY"), settings.NewMemory(), logger)
//	_ = store.SetBaseURL(ctx, "https://my-gateway.example.com")
//
//	c := openai.New(store, openai.WithLogger(logger))
//	resp, err := c.GenerateContent(ctx, &relay.Request{
//	    Model:    "gpt-4o-mini",
//	    Contents: relay.Prompt("Hello"),
//	})
package openai

import (
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/provider/openai"
)

// DefaultModel is used by callers that have no model of their own.
const DefaultModel = relay.DefaultOpenAIModel

// Client is the OpenAI-style adapter.
type Client = openai.Client

// ClientOption configures a Client.
type ClientOption = openai.ClientOption

// Options accepted by New.
var (
	WithHTTPClient       = openai.WithHTTPClient
	WithLogger           = openai.WithLogger
	WithRetryConfig      = openai.WithRetryConfig
	WithIsolatedRotation = openai.WithIsolatedRotation
)

// New creates an adapter that rotates through the store's credentials.
func New(store *credential.Store, opts ...ClientOption) *Client {
	return openai.New(store, opts...)
}
