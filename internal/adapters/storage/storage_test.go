package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/platform/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), &config.StorageConfig{Driver: DriverMemory}, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, b.Health)
	require.NoError(t, b.Set(context.Background(), "k", "v"))
	require.NoError(t, b.Close())
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "quotes.db")

	b, err := Open(ctx, &config.StorageConfig{Driver: "sqlite", DSN: dsn}, discardLogger())
	require.NoError(t, err)

	require.NotNil(t, b.Health)
	assert.Equal(t, "quote-store-sqlite", b.Health.Name())
	require.NoError(t, b.Health.Check(ctx))

	require.NoError(t, b.Set(ctx, "k", "v"))
	require.NoError(t, b.Close())

	reopened, err := Open(ctx, &config.StorageConfig{Driver: "sqlite", DSN: dsn}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.StorageConfig{Driver: "mongo", DSN: "x"}, discardLogger())
	require.ErrorContains(t, err, "unsupported storage driver")
}
