package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/internal/config"
	"github.com/spetersoncode/relay/internal/logging"
)

// options holds parsed command-line flags.
type options struct {
	model       string
	system      string
	contents    string
	temperature float64
	maxTokens   int
	jsonOutput  bool

	setTemperature bool
	setMaxTokens   bool
}

// runtimeOpener builds the shared runtime. Tests replace it.
var runtimeOpener = func(ctx context.Context, cfg *config.Config) (*config.Runtime, error) {
	return cfg.Open(ctx)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "settings" {
		return runSettings(ctx, cfg, args[1:], stdout)
	}

	opts, prompt, err := parseFlags(args, cfg.Model)
	if err != nil {
		return err
	}

	req, err := buildRequest(opts, prompt, stdin)
	if err != nil {
		return err
	}

	rt, err := runtimeOpener(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c := client.New(client.Config{
		Store:            rt.Store,
		Logger:           rt.Logger,
		IsolatedRotation: cfg.IsolatedRotation,
	}, client.WithDefaultModel(rt.Store.Provider().DefaultModel()))

	resp, err := c.GenerateContent(ctx, req)
	if err != nil {
		rt.Logger.Error("generate content failed", zap.Error(err))
		return errors.New(ai.CleanMessage(err))
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprintln(stdout, resp.Text)
	return err
}

func parseFlags(args []string, defaultModel string) (*options, string, error) {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.model, "model", defaultModel, "model identifier (default: RELAY_MODEL or the provider's default)")
	fs.StringVar(&opts.system, "system", "", "system instruction")
	fs.StringVar(&opts.contents, "contents", "", "contents as JSON: a string, a turn, or a list of turns")
	fs.Float64Var(&opts.temperature, "temperature", 0, "sampling temperature")
	fs.IntVar(&opts.maxTokens, "max-tokens", 0, "maximum output tokens")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print the full normalized response as JSON")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "temperature":
			opts.setTemperature = true
		case "max-tokens":
			opts.setMaxTokens = true
		}
	})
	return opts, strings.Join(fs.Args(), " "), nil
}

func buildRequest(opts *options, prompt string, stdin io.Reader) (*ai.Request, error) {
	req := &ai.Request{Model: opts.model}

	switch {
	case opts.contents != "":
		req.Contents = ai.ParseContents([]byte(opts.contents))
	case strings.TrimSpace(prompt) != "":
		req.Contents = ai.Prompt(prompt)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read prompt: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, errors.New("no prompt given")
		}
		req.Contents = ai.Prompt(text)
	}

	if opts.system != "" || opts.setTemperature || opts.setMaxTokens {
		req.Config = &ai.GenerateConfig{SystemInstruction: opts.system}
		if opts.setTemperature {
			req.Config.Temperature = ai.Ptr(opts.temperature)
		}
		if opts.setMaxTokens {
			req.Config.MaxOutputTokens = ai.Ptr(opts.maxTokens)
		}
	}
	return req, nil
}

// runSettings shows or edits the persisted provider, base URL and keys.
func runSettings(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("relay settings", flag.ContinueOnError)
	provider := fs.String("provider", "", "provider: gemini or openai")
	baseURL := fs.String("base-url", "", "API base URL; \"default\" resets to the provider default")
	keys := fs.String("keys", "", "API keys, comma separated; \"none\" clears them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := runtimeOpener(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	store := rt.Store

	if store.IsLocked() && (*provider != "" || *baseURL != "" || *keys != "") {
		fmt.Fprintln(stdout, "API keys come from the environment; settings are read-only.")
	}

	if *provider != "" {
		p, err := ai.ParseProvider(*provider)
		if err != nil {
			return err
		}
		if err := store.SetProvider(ctx, p); err != nil {
			return fmt.Errorf("save provider: %w", err)
		}
	}
	if *baseURL != "" {
		url := *baseURL
		if url == "default" {
			url = ""
		}
		if err := store.SetBaseURL(ctx, url); err != nil {
			return fmt.Errorf("save base URL: %w", err)
		}
	}
	if *keys != "" {
		raw := *keys
		if raw == "none" {
			raw = ""
		}
		if err := store.SetCredentials(ctx, raw); err != nil {
			return fmt.Errorf("save API keys: %w", err)
		}
	}

	fmt.Fprintf(stdout, "provider: %s\n", store.Provider())
	fmt.Fprintf(stdout, "base URL: %s\n", store.BaseURL())
	creds := store.Credentials()
	fmt.Fprintf(stdout, "API keys: %d", len(creds))
	if store.IsLocked() {
		fmt.Fprint(stdout, " (from environment)")
	}
	fmt.Fprintln(stdout)
	for _, k := range creds {
		fmt.Fprintf(stdout, "  %s\n", logging.MaskKey(k))
	}
	return nil
}
