package relay

import "context"

// Generator produces content for a provider-neutral request.
type Generator interface {
	// GenerateContent sends the request and returns a normalized response,
	// or a classified error once the call cannot succeed.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}
