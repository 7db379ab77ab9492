// Package storage selects the durable key-value backend from configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// DriverMemory keeps everything in process memory.
const DriverMemory = "memory"

// Backend is an opened key-value store.
type Backend struct {
	ports.KeyValueStore

	// Health is nil for backends with nothing to probe.
	Health ports.HealthChecker

	closeFn func() error
}

// Close releases the backend.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}

	return b.closeFn()
}

// Open opens the backend named by cfg.Driver.
func Open(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Driver == DriverMemory {
		logger.WarnContext(ctx, "using in-memory storage, quotes will not survive a restart")
		return &Backend{KeyValueStore: memory.NewStore()}, nil
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver: cfg.Driver,
		DSN:    cfg.DSN,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	return &Backend{KeyValueStore: store, Health: store, closeFn: store.Close}, nil
}
