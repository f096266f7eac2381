package openai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/logging"
	"github.com/spetersoncode/relay/internal/retry"
)

// ChatCompletionsPath is the request path below the configured base URL.
const ChatCompletionsPath = "/v1/chat/completions"

// Credentials supplies the base URL and credential rotation at call time.
type Credentials interface {
	BaseURL() string
	Rotator(isolated bool) credential.Rotator
}

type cacheKey struct {
	apiKey  string
	baseURL string
}

// Client sends generate-content requests to an OpenAI-compatible endpoint.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	logger     *zap.Logger
	retry      retry.Config
	isolated   bool

	mu      sync.Mutex
	clients map[cacheKey]*openai.Client
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
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

// New creates a new OpenAI-style client over the given credential source.
func New(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:   creds,
		logger:  zap.NewNop(),
		retry:   retry.DefaultConfig(),
		clients: make(map[cacheKey]*openai.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sdkClient returns the SDK client bound to one credential and base URL.
// The SDK's own retries are disabled; the dispatcher owns the attempt budget.
func (c *Client) sdkClient(apiKey, baseURL string) *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{apiKey: apiKey, baseURL: baseURL}
	if client, ok := c.clients[key]; ok {
		return client
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiBase(baseURL)),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	client := openai.NewClient(opts...)
	c.clients[key] = &client
	return &client
}

// GenerateContent implements ai.Generator.
func (c *Client) GenerateContent(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return c.Generate(ctx, req, nil)
}

// Generate sends req, rotating credentials and retrying per the dispatcher
// policy. Retry events are sent to events when it is non-nil.
func (c *Client) Generate(ctx context.Context, req *ai.Request, events chan<- retry.Event) (*ai.Response, error) {
	if req == nil {
		return nil, errors.New("openai: nil request")
	}
	params := buildRequest(req)

	baseURL := c.creds.BaseURL()
	log := c.logger.With(zap.String("provider", ai.ProviderOpenAI.String()), zap.String("model", req.Model))
	logging.DebugPayload(log, "openai request", "params", req, logging.RequestTruncate,
		zap.String("url", endpoint(baseURL)))

	cfg := c.retry
	if cfg.Logger == nil {
		cfg.Logger = log
	}

	resp, err := retry.Do(ctx, cfg, c.creds.Rotator(c.isolated), events, func(ctx context.Context, key string) (*ai.Response, error) {
		return c.send(ctx, baseURL, key, params)
	})
	if err != nil {
		var acf *ai.AllCredentialsFailedError
		if errors.As(err, &acf) {
			log.Error("openai request failed",
				zap.String("error", err.Error()),
				logging.Payload("params", req, logging.RequestTruncate))
		}
		return nil, err
	}

	logging.DebugPayload(log, "openai success", "response", resp, logging.DefaultTruncate)
	return resp, nil
}

// send performs one chat completion attempt with a single credential.
func (c *Client) send(ctx context.Context, baseURL, key string, params openai.ChatCompletionNewParams) (*ai.Response, error) {
	var reply capturedReply
	completion, err := c.sdkClient(key, baseURL).Chat.Completions.New(ctx, params, option.WithMiddleware(reply.capture))
	if err == nil {
		raw := []byte(completion.RawJSON())
		if len(raw) == 0 {
			raw = reply.body
		}
		return parseResponse(reply.statusOr(http.StatusOK), raw)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return nil, parseError(apiErr.StatusCode, reply.body)
	}
	switch {
	case reply.status >= 300:
		return nil, parseError(reply.status, reply.body)
	case reply.status != 0:
		// The SDK could not decode a successful reply.
		return parseResponse(reply.status, reply.body)
	}
	return nil, ai.NewTransientError("", 0, nil, err)
}

// capturedReply keeps the status and body of the HTTP reply so error bodies
// that are not JSON still reach the caller.
type capturedReply struct {
	status int
	body   []byte
}

func (r *capturedReply) capture(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil || resp == nil {
		return resp, err
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	r.status = resp.StatusCode
	r.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func (r *capturedReply) statusOr(fallback int) int {
	if r.status == 0 {
		return fallback
	}
	return r.status
}

// apiBase is the SDK base URL: the configured URL plus the /v1/ prefix.
func apiBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/"
}

func endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + ChatCompletionsPath
}

var _ ai.Generator = (*Client)(nil)
