package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/relay"
)

func TestConvertContents(t *testing.T) {
	tests := []struct {
		name     string
		contents ai.Contents
		expected []message
	}{
		{
			name:     "prompt",
			contents: ai.Prompt("Hello"),
			expected: []message{{Role: "user", Content: "Hello"}},
		},
		{
			name: "conversation remaps model role",
			contents: ai.Conversation{
				{Role: "model", Parts: []ai.Part{ai.NewTextPart("Hi")}},
			},
			expected: []message{{Role: "assistant", Content: "Hi"}},
		},
		{
			name: "conversation defaults role and joins parts",
			contents: ai.Conversation{
				{Parts: []ai.Part{ai.NewTextPart("a"), ai.NewTextPart("b")}},
				{Role: "system", Text: "flat"},
			},
			expected: []message{
				{Role: "user", Content: "a\nb"},
				{Role: "system", Content: "flat"},
			},
		},
		{
			name:     "single turn",
			contents: ai.Turn{Role: "user", Parts: []ai.Part{ai.NewTextPart("one")}},
			expected: []message{{Role: "user", Content: "one"}},
		},
		{
			name:     "opaque",
			contents: ai.Opaque{Value: json.RawMessage(`42`)},
			expected: []message{{Role: "user", Content: "42"}},
		},
		{
			name:     "nil contents",
			contents: nil,
			expected: []message{{Role: "user", Content: ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, convertContents(tt.contents))
		})
	}
}

func requestJSON(t *testing.T, req *ai.Request) gjson.Result {
	t.Helper()
	data, err := json.Marshal(buildRequest(req))
	require.NoError(t, err)
	return gjson.ParseBytes(data)
}

func TestBuildRequestSystemInstruction(t *testing.T) {
	body := requestJSON(t, &ai.Request{
		Model:    "gpt-4o",
		Contents: ai.Prompt("Hello"),
		Config:   &ai.GenerateConfig{SystemInstruction: "Be brief."},
	})

	assert.Equal(t, "gpt-4o", body.Get("model").String())
	assert.Equal(t, int64(2), body.Get("messages.#").Int())
	assert.Equal(t, "system", body.Get("messages.0.role").String())
	assert.Equal(t, "Be brief.", body.Get("messages.0.content").String())
	assert.Equal(t, "user", body.Get("messages.1.role").String())
	assert.Equal(t, "Hello", body.Get("messages.1.content").String())
}

func TestBuildRequestRoles(t *testing.T) {
	body := requestJSON(t, &ai.Request{
		Model: "m",
		Contents: ai.Conversation{
			{Role: "model", Text: "Hi"},
			{Role: "function", Text: "odd"},
			{Text: "plain"},
		},
	})

	assert.Equal(t, "assistant", body.Get("messages.0.role").String())
	assert.Equal(t, "Hi", body.Get("messages.0.content").String())
	assert.Equal(t, "user", body.Get("messages.1.role").String())
	assert.Equal(t, "user", body.Get("messages.2.role").String())
}

func TestBuildRequestOmitsUnsetConfig(t *testing.T) {
	body := requestJSON(t, &ai.Request{Model: "m", Contents: ai.Prompt("x")})
	assert.Equal(t, "x", body.Get("messages.0.content").String())
	assert.False(t, body.Get("temperature").Exists())
	assert.False(t, body.Get("max_tokens").Exists())

	body = requestJSON(t, &ai.Request{
		Model:    "m",
		Contents: ai.Prompt("x"),
		Config: &ai.GenerateConfig{
			Temperature:     ai.Ptr(0.0),
			MaxOutputTokens: ai.Ptr(256),
			Extra:           map[string]any{"topK": 3},
		},
	})
	require.True(t, body.Get("temperature").Exists())
	assert.Equal(t, 0.0, body.Get("temperature").Float())
	assert.Equal(t, int64(256), body.Get("max_tokens").Int())
	assert.False(t, body.Get("topK").Exists())
}
