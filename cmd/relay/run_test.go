package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/config"
)

func quietRuntime(t *testing.T) {
	t.Helper()
	prev := runtimeOpener
	runtimeOpener = func(ctx context.Context, cfg *config.Config) (*config.Runtime, error) {
		return cfg.OpenWithLogger(ctx, nil)
	}
	t.Cleanup(func() { runtimeOpener = prev })
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"API_KEY", "RELAY_SETTINGS", "RELAY_SETTINGS_PATH", "RELAY_REDIS_URL",
		"RELAY_MODEL", "RELAY_TIMEOUT", "RELAY_ISOLATED_ROTATION", "RELAY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeSettings(t *testing.T, values map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	data, err := json.Marshal(values)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func openAIServer(t *testing.T, bodies *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*bodies = append(*bodies, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","choices":[{"message":{"content":"hello back"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunGenerates(t *testing.T) {
	clearEnv(t)
	quietRuntime(t)

	var bodies []string
	srv := openAIServer(t, &bodies)
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("RELAY_SETTINGS", "file")
	t.Setenv("RELAY_SETTINGS_PATH", writeSettings(t, map[string]string{
		"api_provider":        "openai",
		"gemini_api_base_url": srv.URL,
	}))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-system", "terse", "-max-tokens", "20", "say", "hi"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, "hello back\n", out.String())

	require.Len(t, bodies, 1)
	body := gjson.Parse(bodies[0])
	assert.Equal(t, ai.DefaultOpenAIModel, body.Get("model").String())
	assert.Equal(t, "system", body.Get("messages.0.role").String())
	assert.Equal(t, "say hi", body.Get("messages.1.content").String())
	assert.Equal(t, int64(20), body.Get("max_tokens").Int())
	assert.False(t, body.Get("temperature").Exists())
}

func TestRunJSONOutputFromStdin(t *testing.T) {
	clearEnv(t)
	quietRuntime(t)

	var bodies []string
	srv := openAIServer(t, &bodies)
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("RELAY_MODEL", "gpt-custom")
	t.Setenv("RELAY_SETTINGS", "file")
	t.Setenv("RELAY_SETTINGS_PATH", writeSettings(t, map[string]string{
		"api_provider":        "openai",
		"gemini_api_base_url": srv.URL,
	}))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-json"}, strings.NewReader("from stdin\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, "hello back", gjson.Get(out.String(), "text").String())
	assert.Equal(t, "hello back", gjson.Get(out.String(), "candidates.0.content.parts.0.text").String())
	assert.Equal(t, "c1", gjson.Get(out.String(), "id").String())
	assert.Equal(t, "gpt-custom", gjson.Get(bodies[0], "model").String())
	assert.Equal(t, "from stdin", gjson.Get(bodies[0], "messages.0.content").String())
}

func TestRunUnconfigured(t *testing.T) {
	clearEnv(t)
	quietRuntime(t)

	err := run(context.Background(), []string{"hello"}, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ai.ErrNoCredentials.Error())
}

func TestRunNoPrompt(t *testing.T) {
	clearEnv(t)
	quietRuntime(t)

	err := run(context.Background(), nil, strings.NewReader("   "), io.Discard)
	assert.EqualError(t, err, "no prompt given")
}

func TestRunSettings(t *testing.T) {
	clearEnv(t)
	quietRuntime(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	t.Setenv("RELAY_SETTINGS", "file")
	t.Setenv("RELAY_SETTINGS_PATH", path)

	var out bytes.Buffer
	err := run(context.Background(), []string{"settings", "-provider", "openai", "-keys", "sk-aaaa1111,sk-bbbb2222"}, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "provider: openai")
	assert.Contains(t, out.String(), "base URL: https://api.openai.com")
	assert.Contains(t, out.String(), "API keys: 2")
	assert.Contains(t, out.String(), "...1111")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"settings"}, nil, &out))
	assert.Contains(t, out.String(), "provider: openai")

	t.Run("locked", func(t *testing.T) {
		t.Setenv("API_KEY", "env-key-9999")
		out.Reset()
		require.NoError(t, run(context.Background(), []string{"settings", "-keys", "other"}, nil, &out))
		assert.Contains(t, out.String(), "read-only")
		assert.Contains(t, out.String(), "API keys: 1 (from environment)")
		assert.Contains(t, out.String(), "...9999")
	})
}

func TestBuildRequest(t *testing.T) {
	t.Run("contents flag wins", func(t *testing.T) {
		req, err := buildRequest(&options{model: "m", contents: `[{"role":"model","parts":[{"text":"Hi"}]}]`}, "ignored", nil)
		require.NoError(t, err)
		conv, ok := req.Contents.(ai.Conversation)
		require.True(t, ok)
		assert.Equal(t, "model", conv[0].Role)
		assert.Nil(t, req.Config)
	})

	t.Run("explicit zero temperature is kept", func(t *testing.T) {
		req, err := buildRequest(&options{model: "m", setTemperature: true}, "p", nil)
		require.NoError(t, err)
		require.NotNil(t, req.Config)
		require.NotNil(t, req.Config.Temperature)
		assert.Equal(t, 0.0, *req.Config.Temperature)
		assert.Nil(t, req.Config.MaxOutputTokens)
	})
}

func TestParseFlags(t *testing.T) {
	opts, prompt, err := parseFlags([]string{"-temperature", "0.7", "hello", "world"}, "default-model")
	require.NoError(t, err)
	assert.Equal(t, "default-model", opts.model)
	assert.True(t, opts.setTemperature)
	assert.False(t, opts.setMaxTokens)
	assert.Equal(t, "hello world", prompt)
}
