package credential

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/logging"
	"github.com/spetersoncode/relay/settings"
)

// Settings keys.
const (
	KeyCredentials = "gemini_api_keys"
	KeyBaseURL     = "gemini_api_base_url"
	KeyProvider    = "api_provider"
)

// Store is the credential store. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	settings settings.Adapter
	logger   *zap.Logger

	locked   bool
	creds    []string
	cursor   int
	baseURL  string
	provider ai.Provider
}

// Load builds a store. A non-blank envCredentials is authoritative and locks
// the store; otherwise credentials come from the settings adapter. Settings
// read failures are logged and treated as unset. A nil adapter means an
// in-memory one.
func Load(ctx context.Context, envCredentials string, s settings.Adapter, logger *zap.Logger) *Store {
	if s == nil {
		s = settings.NewMemory()
	}
	st := &Store{
		settings: s,
		logger:   logging.OrNop(logger),
		cursor:   -1,
		provider: ai.ProviderGemini,
	}

	if strings.TrimSpace(envCredentials) != "" {
		st.locked = true
		st.creds = Parse(envCredentials)
	} else {
		st.creds = Parse(st.read(ctx, KeyCredentials))
	}

	if raw := st.read(ctx, KeyProvider); raw != "" {
		if p, err := ai.ParseProvider(raw); err == nil {
			st.provider = p
		} else {
			st.logger.Warn("ignoring stored provider", zap.String("provider", raw), zap.Error(err))
		}
	}

	st.baseURL = st.read(ctx, KeyBaseURL)
	if st.baseURL == "" {
		st.baseURL = st.provider.DefaultBaseURL()
	}

	st.logger.Debug("credential store loaded",
		zap.Int("credentials", len(st.creds)),
		zap.Bool("locked", st.locked),
		zap.String("provider", st.provider.String()),
		zap.String("base_url", st.baseURL))
	return st
}

func (s *Store) read(ctx context.Context, key string) string {
	v, _, err := s.settings.Get(ctx, key)
	if err != nil {
		s.logger.Warn("could not read settings; value will not be persisted",
			zap.String("setting", key), zap.Error(err))
		return ""
	}
	return v
}

// IsLocked reports whether credentials came from the environment.
func (s *Store) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Credentials returns a copy of the credential list.
func (s *Store) Credentials() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.creds...)
}

// CredentialsText returns the credentials joined by newlines.
func (s *Store) CredentialsText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.creds, "\n")
}

// HasCredentials reports whether at least one credential is configured.
func (s *Store) HasCredentials() bool {
	return s.Len() > 0
}

// Len returns the number of credentials.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creds)
}

// BaseURL returns the active base URL.
func (s *Store) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Provider returns the active provider.
func (s *Store) Provider() ai.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// Next advances the shared cursor with wraparound and returns the
// credential under it.
func (s *Store) Next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.creds) == 0 {
		return "", false
	}
	s.cursor = advance(s.cursor, len(s.creds))
	return s.creds[s.cursor], true
}

// Reset sets the shared cursor to unset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = -1
}

// Cursor returns the shared cursor position, -1 when unset.
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Rotator returns the store itself, or a fresh isolated Rotation over the
// current credentials when isolated is true.
func (s *Store) Rotator(isolated bool) Rotator {
	if isolated {
		return NewRotation(s.Credentials())
	}
	return s
}

// SetCredentials replaces the credential list with Parse(raw) and persists
// raw, or clears the persisted value when nothing parses. No-op when locked.
func (s *Store) SetCredentials(ctx context.Context, raw string) error {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return nil
	}
	s.creds = Parse(raw)
	n := len(s.creds)
	s.mu.Unlock()

	if n > 0 {
		return s.persist(ctx, KeyCredentials, raw)
	}
	if err := s.settings.Delete(ctx, KeyCredentials); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// SetBaseURL sets the base URL. A blank url restores the active provider's
// default. No-op when locked.
func (s *Store) SetBaseURL(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return nil
	}
	newURL := strings.TrimSpace(url)
	if newURL == "" {
		newURL = s.provider.DefaultBaseURL()
	}
	s.baseURL = newURL
	s.mu.Unlock()

	return s.persist(ctx, KeyBaseURL, newURL)
}

// SetProvider switches the active provider. When the current base URL is
// either provider's default it follows the switch; a customized URL is kept.
// No-op when locked.
func (s *Store) SetProvider(ctx context.Context, p ai.Provider) error {
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", p)
	}

	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return nil
	}
	s.provider = p
	refreshURL := ai.IsDefaultBaseURL(s.baseURL)
	if refreshURL {
		s.baseURL = p.DefaultBaseURL()
	}
	baseURL := s.baseURL
	s.mu.Unlock()

	if err := s.persist(ctx, KeyProvider, p.String()); err != nil {
		return err
	}
	if refreshURL {
		return s.persist(ctx, KeyBaseURL, baseURL)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, key, value string) error {
	if err := s.settings.Set(ctx, key, value); err != nil {
		s.logger.Warn("could not persist setting", zap.String("setting", key), zap.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
