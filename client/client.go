package client

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/logging"
	"github.com/spetersoncode/relay/internal/provider/google"
	"github.com/spetersoncode/relay/internal/provider/openai"
	"github.com/spetersoncode/relay/internal/retry"
)

// Config holds configuration for creating a unified client.
type Config struct {
	// Store supplies credentials, the base URL and the active provider.
	// If nil, an empty in-memory store is used and every call fails with a
	// configuration error until credentials are set.
	Store *credential.Store

	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger

	// HTTPClient is used for provider calls. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	// IsolatedRotation gives each operation its own rotation state starting
	// at the first credential instead of sharing the store's cursor.
	IsolatedRotation bool

	// RetryConfig configures the dispatcher.
	// If nil, uses the default (3 attempts per credential, 2s rate-limit delay).
	RetryConfig *retry.Config

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct {
	Provider ai.Provider
}

func (e *ErrNoModel) Error() string {
	return fmt.Sprintf("no model specified for %s: set Request.Model or use client.WithDefaultModel()", e.Provider)
}

// ErrUnsupportedProvider is returned when the store names a provider with no adapter.
type ErrUnsupportedProvider struct {
	Provider ai.Provider
}

func (e *ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Provider)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultModel sets the model used when a request leaves Model empty.
func WithDefaultModel(model string) ClientOption {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithDefaultTemperature sets the temperature used when a request does not set one.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultTemperature = &t
	}
}

// WithDefaultMaxTokens sets the output token limit used when a request does not set one.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultMaxTokens = &n
	}
}

// adapter is implemented by each provider client.
type adapter interface {
	Generate(ctx context.Context, req *ai.Request, events chan<- retry.Event) (*ai.Response, error)
}

// Client is the single entry point for generate-content requests. The
// provider is read from the store on every call, so switching providers
// takes effect on the next call.
type Client struct {
	store  *credential.Store
	logger *zap.Logger
	events chan<- Event

	defaultModel       string
	defaultTemperature *float64
	defaultMaxTokens   *int

	adapters map[ai.Provider]adapter
	inflight map[ai.Provider]*atomic.Int64
}

// New creates a unified client with the given configuration.
func New(cfg Config, opts ...ClientOption) *Client {
	logger := logging.OrNop(cfg.Logger)
	store := cfg.Store
	if store == nil {
		store = credential.Load(context.Background(), "", nil, logger)
	}
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}

	c := &Client{
		store:  store,
		logger: logger,
		events: cfg.Events,
		adapters: map[ai.Provider]adapter{
			ai.ProviderOpenAI: openai.New(store,
				openai.WithHTTPClient(cfg.HTTPClient),
				openai.WithLogger(logger),
				openai.WithRetryConfig(retryConfig),
				openai.WithIsolatedRotation(cfg.IsolatedRotation)),
			ai.ProviderGemini: google.New(store,
				google.WithHTTPClient(cfg.HTTPClient),
				google.WithLogger(logger),
				google.WithRetryConfig(retryConfig),
				google.WithIsolatedRotation(cfg.IsolatedRotation)),
		},
	}
	c.inflight = make(map[ai.Provider]*atomic.Int64, len(c.adapters))
	for p := range c.adapters {
		c.inflight[p] = new(atomic.Int64)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports how many generate-content operations are in progress
// for provider.
func (c *Client) InFlight(provider ai.Provider) int64 {
	if n, ok := c.inflight[provider]; ok {
		return n.Load()
	}
	return 0
}

// Store returns the credential store backing the client.
func (c *Client) Store() *credential.Store {
	return c.store
}

// GenerateContent sends req to the active provider and returns its
// normalized response. Retries and classification happen in the provider
// adapter; errors are returned unchanged.
func (c *Client) GenerateContent(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("client: nil request")
	}
	provider := c.store.Provider()
	a, ok := c.adapters[provider]
	if !ok {
		return nil, &ErrUnsupportedProvider{Provider: provider}
	}

	req = c.withDefaults(req)
	if req.Model == "" {
		return nil, &ErrNoModel{Provider: provider}
	}

	inflight := c.inflight[provider]
	inflight.Add(1)
	defer inflight.Add(-1)

	opID := uuid.NewString()
	log := c.logger.With(
		zap.String("op_id", opID),
		zap.String("provider", provider.String()),
		zap.String("model", req.Model))

	start := time.Now()
	emit(c.events, Event{
		Type:     EventRequestStart,
		OpID:     opID,
		Provider: provider,
		Model:    req.Model,
	})
	log.Debug("generate content started")

	// Create retry events channel if client events are enabled
	var retryEvents chan retry.Event
	var forwarded chan struct{}
	if c.events != nil {
		retryEvents = make(chan retry.Event, 16)
		forwarded = make(chan struct{})
		go func() {
			defer close(forwarded)
			c.forwardRetryEvents(retryEvents, opID, provider, req.Model)
		}()
	}

	resp, err := a.Generate(ctx, req, retryEvents)

	if retryEvents != nil {
		close(retryEvents)
		<-forwarded
	}

	if err != nil {
		emit(c.events, Event{
			Type:     EventRequestError,
			OpID:     opID,
			Provider: provider,
			Model:    req.Model,
			Duration: time.Since(start),
			Error:    err,
		})
		log.Warn("generate content failed",
			zap.Duration("duration", time.Since(start)),
			zap.String("error", ai.CleanMessage(err)))
		return nil, err
	}

	emit(c.events, Event{
		Type:     EventRequestComplete,
		OpID:     opID,
		Provider: provider,
		Model:    req.Model,
		Duration: time.Since(start),
	})
	log.Debug("generate content completed", zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// withDefaults returns req with client defaults filled in. req itself is
// not modified.
func (c *Client) withDefaults(req *ai.Request) *ai.Request {
	if req.Model != "" && c.defaultTemperature == nil && c.defaultMaxTokens == nil {
		return req
	}

	out := *req
	if out.Model == "" {
		out.Model = c.defaultModel
	}
	if c.defaultTemperature == nil && c.defaultMaxTokens == nil {
		return &out
	}

	var cfg ai.GenerateConfig
	if req.Config != nil {
		cfg = *req.Config
	}
	if cfg.Temperature == nil && c.defaultTemperature != nil {
		cfg.Temperature = ai.Ptr(*c.defaultTemperature)
	}
	if cfg.MaxOutputTokens == nil && c.defaultMaxTokens != nil {
		cfg.MaxOutputTokens = ai.Ptr(*c.defaultMaxTokens)
	}
	out.Config = &cfg
	return &out
}

// forwardRetryEvents reads from a retry events channel and forwards events
// to the client's event channel as EventRetry events.
func (c *Client) forwardRetryEvents(retryEvents <-chan retry.Event, opID string, provider ai.Provider, model string) {
	for re := range retryEvents {
		reCopy := re
		emit(c.events, Event{
			Type:       EventRetry,
			OpID:       opID,
			Provider:   provider,
			Model:      model,
			RetryEvent: &reCopy,
		})
	}
}

var _ ai.Generator = (*Client)(nil)
