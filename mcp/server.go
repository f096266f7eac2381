// Package mcp exposes the generate-content client as an MCP server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/logging"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	model   string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithDefaultModel sets the model used when a generate_content call omits one.
// Without it the active provider's default model is used.
func WithDefaultModel(model string) ServerOption {
	return func(c *serverConfig) {
		c.model = model
	}
}

type handlers struct {
	gen   ai.Generator
	store *credential.Store
	model string
}

// NewServer creates an MCP server with generate_content, get_settings and
// update_settings tools.
//
// Example:
//
//	store := credential.Load(ctx, os.Getenv("API_KEY"), settings.NewMemory(), logger)
//	c := client.New(client.Config{Store: store})
//
//	if err := server.ServeStdio(mcp.NewServer(c, store)); err != nil {
//	    log.Fatal(err)
//	}
func NewServer(gen ai.Generator, store *credential.Store, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "relay-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	h := &handlers{gen: gen, store: store, model: cfg.model}
	s.AddTool(generateContentTool(), h.generateContent)
	s.AddTool(getSettingsTool(), h.getSettings)
	s.AddTool(updateSettingsTool(), h.updateSettings)
	return s
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(gen ai.Generator, store *credential.Store, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(gen, store, opts...))
}

func (h *handlers) generateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, ok := args["contents"]
	if !ok || raw == nil {
		return mcp.NewToolResultError("contents is required"), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal contents: %v", err)), nil
	}

	model := req.GetString("model", h.model)
	if model == "" {
		model = h.store.Provider().DefaultModel()
	}
	request := &ai.Request{
		Model:    model,
		Contents: ai.ParseContents(data),
	}

	cfg := &ai.GenerateConfig{SystemInstruction: req.GetString("system_instruction", "")}
	if _, ok := args["temperature"]; ok {
		cfg.Temperature = ai.Ptr(req.GetFloat("temperature", 0))
	}
	if _, ok := args["max_output_tokens"]; ok {
		cfg.MaxOutputTokens = ai.Ptr(req.GetInt("max_output_tokens", 0))
	}
	if cfg.SystemInstruction != "" || cfg.Temperature != nil || cfg.MaxOutputTokens != nil {
		request.Config = cfg
	}

	resp, err := h.gen.GenerateContent(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(ai.CleanMessage(err)), nil
	}
	return mcp.NewToolResultStructured(resp, resp.Text), nil
}

// Settings is the view returned by get_settings and update_settings.
type Settings struct {
	Provider     string   `json:"provider"`
	BaseURL      string   `json:"base_url"`
	Keys         []string `json:"keys"`
	Locked       bool     `json:"locked"`
	Unconfigured bool     `json:"unconfigured"`
}

func (h *handlers) snapshot() Settings {
	creds := h.store.Credentials()
	masked := make([]string, len(creds))
	for i, k := range creds {
		masked[i] = logging.MaskKey(k)
	}
	return Settings{
		Provider:     h.store.Provider().String(),
		BaseURL:      h.store.BaseURL(),
		Keys:         masked,
		Locked:       h.store.IsLocked(),
		Unconfigured: len(creds) == 0,
	}
}

func (h *handlers) getSettings(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := h.snapshot()
	return mcp.NewToolResultStructured(view, describe(view)), nil
}

func (h *handlers) updateSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store.IsLocked() {
		return mcp.NewToolResultError("API keys are provided by the environment; settings cannot be changed"), nil
	}
	args := req.GetArguments()

	if _, ok := args["provider"]; ok {
		p, err := ai.ParseProvider(req.GetString("provider", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := h.store.SetProvider(ctx, p); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save provider: %v", err)), nil
		}
	}
	if _, ok := args["base_url"]; ok {
		if err := h.store.SetBaseURL(ctx, req.GetString("base_url", "")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save base URL: %v", err)), nil
		}
	}
	if _, ok := args["api_keys"]; ok {
		if err := h.store.SetCredentials(ctx, req.GetString("api_keys", "")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save API keys: %v", err)), nil
		}
	}

	view := h.snapshot()
	return mcp.NewToolResultStructured(view, describe(view)), nil
}

func describe(s Settings) string {
	lock := ""
	if s.Locked {
		lock = " (from environment)"
	}
	return fmt.Sprintf("provider=%s base_url=%s keys=%d%s", s.Provider, s.BaseURL, len(s.Keys), lock)
}
