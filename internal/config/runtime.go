package config

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spetersoncode/relay/credential"
	"github.com/spetersoncode/relay/internal/logging"
	"github.com/spetersoncode/relay/settings"
)

// Runtime holds the shared pieces every command builds from a Config.
type Runtime struct {
	Logger   *zap.Logger
	Settings settings.Adapter
	Store    *credential.Store
}

// Open builds the logger, opens the settings backend and loads the
// credential store.
func (c *Config) Open(ctx context.Context) (*Runtime, error) {
	logger, err := logging.New(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return c.OpenWithLogger(ctx, logger)
}

// OpenWithLogger is Open with a caller-supplied logger.
func (c *Config) OpenWithLogger(ctx context.Context, logger *zap.Logger) (*Runtime, error) {
	logger = logging.OrNop(logger)
	adapter, err := settings.Open(c.SettingsOptions())
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	store := credential.Load(ctx, c.APIKeys, adapter, logger)
	logger.Info("credential store ready",
		zap.String("settings", c.SettingsBackend),
		zap.String("provider", store.Provider().String()),
		zap.Int("keys", store.Len()),
		zap.Bool("locked", store.IsLocked()))

	return &Runtime{Logger: logger, Settings: adapter, Store: store}, nil
}

// Close releases the settings backend and flushes the logger.
func (r *Runtime) Close() error {
	var err error
	if closer, ok := r.Settings.(io.Closer); ok {
		err = closer.Close()
	}
	_ = r.Logger.Sync()
	return err
}
