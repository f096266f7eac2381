package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/settings"
)

// recordingAdapter wraps a memory adapter and counts writes.
type recordingAdapter struct {
	*settings.Memory
	writes int
	getErr error
	setErr error
}

func newRecording(seed map[string]string) *recordingAdapter {
	return &recordingAdapter{Memory: settings.NewMemoryFrom(seed)}
}

func (r *recordingAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	if r.getErr != nil {
		return "", false, r.getErr
	}
	return r.Memory.Get(ctx, key)
}

func (r *recordingAdapter) Set(ctx context.Context, key, value string) error {
	r.writes++
	if r.setErr != nil {
		return r.setErr
	}
	return r.Memory.Set(ctx, key, value)
}

func (r *recordingAdapter) Delete(ctx context.Context, key string) error {
	r.writes++
	return r.Memory.Delete(ctx, key)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "k1", []string{"k1"}},
		{"newlines", "k1\nk2\n", []string{"k1", "k2"}},
		{"commas and spaces", " k1 , k2,,k3 ", []string{"k1", "k2", "k3"}},
		{"mixed", "k1,\n\n  k2\r\n", []string{"k1", "k2"}},
		{"only separators", ",\n, ,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.raw))
		})
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults with empty settings", func(t *testing.T) {
		s := Load(ctx, "", nil, nil)
		assert.False(t, s.IsLocked())
		assert.False(t, s.HasCredentials())
		assert.Equal(t, ai.ProviderGemini, s.Provider())
		assert.Equal(t, ai.DefaultGeminiBaseURL, s.BaseURL())
		assert.Equal(t, -1, s.Cursor())
	})

	t.Run("environment credentials lock the store", func(t *testing.T) {
		a := newRecording(map[string]string{KeyCredentials: "stored"})
		s := Load(ctx, "env1, env2", a, nil)
		assert.True(t, s.IsLocked())
		assert.Equal(t, []string{"env1", "env2"}, s.Credentials())
	})

	t.Run("stored settings", func(t *testing.T) {
		a := newRecording(map[string]string{
			KeyCredentials: "a\nb",
			KeyProvider:    "openai",
		})
		s := Load(ctx, "  ", a, nil)
		assert.False(t, s.IsLocked())
		assert.Equal(t, []string{"a", "b"}, s.Credentials())
		assert.Equal(t, "a\nb", s.CredentialsText())
		assert.Equal(t, ai.ProviderOpenAI, s.Provider())
		assert.Equal(t, ai.DefaultOpenAIBaseURL, s.BaseURL())
	})

	t.Run("stored base url wins over default", func(t *testing.T) {
		a := newRecording(map[string]string{KeyBaseURL: "https://proxy.local"})
		s := Load(ctx, "", a, nil)
		assert.Equal(t, "https://proxy.local", s.BaseURL())
	})

	t.Run("invalid stored provider falls back to gemini", func(t *testing.T) {
		a := newRecording(map[string]string{KeyProvider: "bedrock"})
		s := Load(ctx, "", a, nil)
		assert.Equal(t, ai.ProviderGemini, s.Provider())
	})

	t.Run("unreadable settings", func(t *testing.T) {
		a := newRecording(nil)
		a.getErr = errors.New("storage offline")
		s := Load(ctx, "", a, nil)
		assert.Empty(t, s.Credentials())
		assert.Equal(t, ai.ProviderGemini, s.Provider())
		assert.Equal(t, ai.DefaultGeminiBaseURL, s.BaseURL())
	})
}

func TestNextWrapsAround(t *testing.T) {
	s := Load(context.Background(), "a,b,c", nil, nil)

	var got []string
	for i := 0; i < 7; i++ {
		k, ok := s.Next()
		require.True(t, ok)
		got = append(got, k)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)
	assert.Equal(t, 0, s.Cursor())

	s.Reset()
	k, _ := s.Next()
	assert.Equal(t, "a", k)
}

func TestNextEmpty(t *testing.T) {
	s := Load(context.Background(), "", nil, nil)
	_, ok := s.Next()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Cursor())
}

func TestSetCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("persists raw text", func(t *testing.T) {
		a := newRecording(nil)
		s := Load(ctx, "", a, nil)
		require.NoError(t, s.SetCredentials(ctx, "k1,\nk2"))
		assert.Equal(t, []string{"k1", "k2"}, s.Credentials())
		v, ok, _ := a.Memory.Get(ctx, KeyCredentials)
		assert.True(t, ok)
		assert.Equal(t, "k1,\nk2", v)
	})

	t.Run("empty clears persisted value", func(t *testing.T) {
		a := newRecording(map[string]string{KeyCredentials: "old"})
		s := Load(ctx, "", a, nil)
		require.NoError(t, s.SetCredentials(ctx, " , "))
		assert.False(t, s.HasCredentials())
		_, ok, _ := a.Memory.Get(ctx, KeyCredentials)
		assert.False(t, ok)
	})

	t.Run("storage failure keeps in-memory change", func(t *testing.T) {
		a := newRecording(nil)
		a.setErr = errors.New("disk full")
		s := Load(ctx, "", a, nil)
		err := s.SetCredentials(ctx, "k1")
		assert.Error(t, err)
		assert.Equal(t, []string{"k1"}, s.Credentials())
	})
}

func TestSetBaseURL(t *testing.T) {
	ctx := context.Background()
	a := newRecording(nil)
	s := Load(ctx, "", a, nil)

	require.NoError(t, s.SetBaseURL(ctx, "  https://proxy.local  "))
	assert.Equal(t, "https://proxy.local", s.BaseURL())
	v, _, _ := a.Memory.Get(ctx, KeyBaseURL)
	assert.Equal(t, "https://proxy.local", v)

	require.NoError(t, s.SetBaseURL(ctx, "   "))
	assert.Equal(t, ai.DefaultGeminiBaseURL, s.BaseURL())
}

func TestSetProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("default url follows provider", func(t *testing.T) {
		a := newRecording(nil)
		s := Load(ctx, "", a, nil)
		require.NoError(t, s.SetProvider(ctx, ai.ProviderOpenAI))
		assert.Equal(t, ai.ProviderOpenAI, s.Provider())
		assert.Equal(t, ai.DefaultOpenAIBaseURL, s.BaseURL())

		p, _, _ := a.Memory.Get(ctx, KeyProvider)
		u, _, _ := a.Memory.Get(ctx, KeyBaseURL)
		assert.Equal(t, "openai", p)
		assert.Equal(t, ai.DefaultOpenAIBaseURL, u)

		require.NoError(t, s.SetProvider(ctx, ai.ProviderGemini))
		assert.Equal(t, ai.DefaultGeminiBaseURL, s.BaseURL())
	})

	t.Run("custom url is preserved", func(t *testing.T) {
		a := newRecording(nil)
		s := Load(ctx, "", a, nil)
		require.NoError(t, s.SetBaseURL(ctx, "https://proxy.local"))
		writes := a.writes
		require.NoError(t, s.SetProvider(ctx, ai.ProviderOpenAI))
		assert.Equal(t, "https://proxy.local", s.BaseURL())
		assert.Equal(t, writes+1, a.writes)
	})

	t.Run("invalid provider", func(t *testing.T) {
		s := Load(ctx, "", nil, nil)
		assert.Error(t, s.SetProvider(ctx, ai.Provider("bedrock")))
		assert.Equal(t, ai.ProviderGemini, s.Provider())
	})
}

func TestLockedStoreIgnoresSetters(t *testing.T) {
	ctx := context.Background()
	a := newRecording(nil)
	s := Load(ctx, "env-key", a, nil)

	require.NoError(t, s.SetCredentials(ctx, "user-key"))
	require.NoError(t, s.SetBaseURL(ctx, "https://proxy.local"))
	require.NoError(t, s.SetProvider(ctx, ai.ProviderOpenAI))

	assert.Equal(t, []string{"env-key"}, s.Credentials())
	assert.Equal(t, ai.DefaultGeminiBaseURL, s.BaseURL())
	assert.Equal(t, ai.ProviderGemini, s.Provider())
	assert.Equal(t, 0, a.writes)
	assert.Empty(t, a.Snapshot())
}

func TestRotator(t *testing.T) {
	s := Load(context.Background(), "a,b", nil, nil)

	assert.Same(t, s, s.Rotator(false))

	s.Next()
	iso := s.Rotator(true)
	k, ok := iso.Next()
	require.True(t, ok)
	assert.Equal(t, "a", k)
	assert.Equal(t, 0, s.Cursor())
}

func TestRotation(t *testing.T) {
	r := NewRotation([]string{"x", "y"})
	assert.Equal(t, 2, r.Len())
	k1, _ := r.Next()
	k2, _ := r.Next()
	k3, _ := r.Next()
	assert.Equal(t, []string{"x", "y", "x"}, []string{k1, k2, k3})
	r.Reset()
	k, _ := r.Next()
	assert.Equal(t, "x", k)

	_, ok := NewRotation(nil).Next()
	assert.False(t, ok)
}
