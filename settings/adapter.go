// Package settings provides persistence backends for user-editable client
// settings: credential text, base URL and provider tag.
package settings

import (
	"context"
	"fmt"
	"strings"
)

// Adapter defines the interface for persistence backends.
// Implementations must be thread-safe.
type Adapter interface {
	// Get retrieves a value by key. Returns "", false, nil if not found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value by key.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options configures Open.
type Options struct {
	Backend     string
	Path        string // file backend
	RedisURL    string // redis backend
	RedisPrefix string // redis backend
}

// Open creates the adapter named by opts.Backend. An empty backend means memory.
// Callers should close the result when it implements io.Closer.
func Open(opts Options) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file settings backend requires a path")
		}
		return NewFile(opts.Path), nil
	case BackendRedis:
		return NewRedisFromURL(opts.RedisURL, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", opts.Backend)
	}
}
