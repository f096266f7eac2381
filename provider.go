package relay

import (
	"fmt"
	"strings"
)

// Provider identifies a backend API dialect.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Default base URLs for each provider.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultOpenAIBaseURL = "https://api.openai.com"
)

// Default models used when a caller does not pick one.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Providers lists every supported provider.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI}
}

// DefaultBaseURL returns the default base URL for the provider.
// Unknown providers get the Gemini default.
func (p Provider) DefaultBaseURL() string {
	if p == ProviderOpenAI {
		return DefaultOpenAIBaseURL
	}
	return DefaultGeminiBaseURL
}

// DefaultModel returns a reasonable model identifier for the provider.
func (p Provider) DefaultModel() string {
	if p == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGemini || p == ProviderOpenAI
}

// ParseProvider converts a provider tag into a Provider.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q (want %q or %q)", s, ProviderGemini, ProviderOpenAI)
	}
	return p, nil
}

// IsDefaultBaseURL reports whether url is the default base URL of any provider.
func IsDefaultBaseURL(url string) bool {
	return url == DefaultGeminiBaseURL || url == DefaultOpenAIBaseURL
}
