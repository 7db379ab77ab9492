// Package main is the entry point for quotectl, the quote store command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/adapters/cli"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/archive"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	root := cli.NewRootCommand(cli.Options{Open: open, DefaultProfile: profile})
	code := cli.Run(ctx, root)

	stop()
	os.Exit(code)
}

// open wires the quote service from the profile's configuration.
func open(ctx context.Context, profile string) (*app.QuoteService, func(), error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	// Only warnings reach the terminal; the file sink follows the config.
	logger := logging.NewWithWriter(&logging.Config{
		Level:   "warn",
		Format:  "pretty",
		Service: "quotectl",
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, os.Stderr)
	logging.SetDefault(logger)

	backend, err := storage.Open(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}

	release := func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing store", slog.Any("error", err))
		}
	}

	store, err := app.NewQuoteStore(ctx, app.QuoteStoreConfig{
		Store: backend,
		Keys: app.StoreKeys{
			Quotes:     cfg.Storage.QuotesKey,
			Filter:     cfg.Storage.FilterKey,
			LastViewed: cfg.Storage.LastViewedKey,
		},
		Logger: logger,
	})
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("loading quote store: %w", err)
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   "quotectl/" + cfg.App.Version,
		Logger:      logger,
	})
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	snapshots, err := archive.Open(ctx, &cfg.Export.Archive)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("opening snapshot archive: %w", err)
	}

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Store:    store,
		Sessions: memory.NewSessionStore(time.Hour),
		Remote: acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
			Client:     httpClient,
			FetchLimit: cfg.Services.Quote.FetchLimit,
			Logger:     logger,
		}),
		Archive:            snapshots,
		ForwardNewQuotes:   cfg.Services.Quote.ForwardNewQuotes,
		ForwardConcurrency: cfg.Services.Quote.ForwardConcurrency,
		Logger:             logger,
	})

	return svc, release, nil
}
