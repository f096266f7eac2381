package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/logging"
	"github.com/spetersoncode/relay/internal/retry"
)

// Credentials supplies the base URL and credential rotation at call time.
type Credentials interface {
	BaseURL() string
	Rotator(isolated bool) credential.Rotator
}

// Models is the part of the genai SDK used to generate content.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Factory builds a Models handle bound to one credential and base URL.
type Factory func(ctx context.Context, apiKey, baseURL string) (Models, error)

type cacheKey struct {
	apiKey  string
	baseURL string
}

// Client sends generate-content requests to the Gemini API.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	logger     *zap.Logger
	retry      retry.Config
	isolated   bool
	factory    Factory

	mu     sync.Mutex
	models map[cacheKey]Models
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client handed to the SDK.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// WithRetryConfig overrides the dispatcher configuration.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithIsolatedRotation gives every call its own rotation starting at the
// first credential instead of sharing the store's cursor.
func WithIsolatedRotation(isolated bool) ClientOption {
	return func(c *Client) {
		c.isolated = isolated
	}
}

// WithFactory replaces the SDK client constructor.
func WithFactory(f Factory) ClientOption {
	return func(c *Client) {
		if f != nil {
			c.factory = f
		}
	}
}

// New creates a new Gemini client over the given credential source.
func New(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:  creds,
		logger: zap.NewNop(),
		retry:  retry.DefaultConfig(),
		models: make(map[cacheKey]Models),
	}
	c.factory = c.newSDKModels
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newSDKModels creates a genai client for the Gemini API backend.
func (c *Client) newSDKModels(ctx context.Context, apiKey, baseURL string) (Models, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if baseURL != "" && baseURL != ai.DefaultGeminiBaseURL {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// modelsFor returns the cached Models for a credential, creating it on
// first use.
func (c *Client) modelsFor(ctx context.Context, apiKey, baseURL string) (Models, error) {
	key := cacheKey{apiKey: apiKey, baseURL: baseURL}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[key]; ok {
		return m, nil
	}
	m, err := c.factory(ctx, apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	c.models[key] = m
	return m, nil
}

// GenerateContent implements ai.Generator.
func (c *Client) GenerateContent(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return c.Generate(ctx, req, nil)
}

// Generate sends req, rotating credentials and retrying per the dispatcher
// policy. Retry events are sent to events when it is non-nil.
func (c *Client) Generate(ctx context.Context, req *ai.Request, events chan<- retry.Event) (*ai.Response, error) {
	if req == nil {
		return nil, errors.New("google: nil request")
	}
	contents, err := convertContents(req.Contents)
	if err != nil {
		return nil, err
	}
	config, err := convertConfig(req.Config)
	if err != nil {
		return nil, err
	}

	baseURL := c.creds.BaseURL()
	log := c.logger.With(zap.String("provider", ai.ProviderGemini.String()), zap.String("model", req.Model))
	logging.DebugPayload(log, "gemini request", "params", req, logging.RequestTruncate,
		zap.String("base_url", baseURL))

	cfg := c.retry
	if cfg.Logger == nil {
		cfg.Logger = log
	}

	resp, err := retry.Do(ctx, cfg, c.creds.Rotator(c.isolated), events, func(ctx context.Context, key string) (*ai.Response, error) {
		m, err := c.modelsFor(ctx, key, baseURL)
		if err != nil {
			return nil, ai.NewTransientError(fmt.Sprintf("create client: %v", err), 0, nil, err)
		}
		out, err := m.GenerateContent(ctx, req.Model, contents, config)
		if err != nil {
			return nil, wrapError(err)
		}
		return convertResponse(out)
	})
	if err != nil {
		var acf *ai.AllCredentialsFailedError
		if errors.As(err, &acf) {
			log.Error("gemini request failed",
				zap.String("error", err.Error()),
				logging.Payload("params", req, logging.RequestTruncate))
		}
		return nil, err
	}

	logging.DebugPayload(log, "gemini success", "response", resp, logging.DefaultTruncate)
	return resp, nil
}

var _ ai.Generator = (*Client)(nil)
