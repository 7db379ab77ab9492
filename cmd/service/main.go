// Package main is the entry point for the quote service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/archive"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(loggingConfig(cfg))
	logging.SetDefault(logger)

	logger.Info("starting quote service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("profile", profile),
		slog.String("storage", cfg.Storage.Driver),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("flushing telemetry", slog.Any("error", err))
		}
	}()

	backend, err := storage.Open(ctx, &cfg.Storage, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing store", slog.Any("error", err))
		}
	}()

	w, err := wire(ctx, cfg, backend, logger)
	if err != nil {
		return err
	}

	server := http.New(&cfg.Server, logger)

	routes := http.NewDefaultRouterConfig(logger, &cfg.App, &cfg.Auth, w.health, w.quotes)
	routes.SessionHeader = cfg.Session.Header
	http.SetupRouter(server.Engine(), routes)

	return serve(ctx, cfg, logger, server, w.syncer)
}

// wiring is the application graph behind the HTTP surface.
type wiring struct {
	health *handlers.HealthHandler
	quotes *handlers.QuoteHandler
	syncer *app.Syncer
}

func wire(ctx context.Context, cfg *config.Config, backend *storage.Backend, logger *slog.Logger) (*wiring, error) {
	registry := ports.NewHealthRegistry(ports.WithCheckTimeout(cfg.Client.Timeout))

	// Only the store gates readiness. A failing remote source marks the
	// service degraded.
	var critical []string

	if backend.Health != nil {
		if err := registry.Register(backend.Health); err != nil {
			return nil, fmt.Errorf("registering store health check: %w", err)
		}

		critical = append(critical, backend.Health.Name())
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
		return nil, fmt.Errorf("loading quote store: %w", err)
	}

	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + Version,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating remote client: %w", err)
	}

	remote := acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
		Client:     client,
		FetchLimit: cfg.Services.Quote.FetchLimit,
		Logger:     logger,
	})

	if err := registry.Register(remote); err != nil {
		return nil, fmt.Errorf("registering remote health check: %w", err)
	}

	snapshots, err := archive.Open(ctx, &cfg.Export.Archive)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot archive: %w", err)
	}

	syncer := app.NewSyncer(app.SyncerConfig{
		Store:    store,
		Remote:   remote,
		Interval: cfg.Sync.Interval,
		Logger:   logger,
	})

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Store:              store,
		Sessions:           memory.NewSessionStore(cfg.Session.TTL),
		Remote:             remote,
		Syncer:             syncer,
		Archive:            snapshots,
		ForwardNewQuotes:   cfg.Services.Quote.ForwardNewQuotes,
		ForwardConcurrency: cfg.Services.Quote.ForwardConcurrency,
		Logger:             logger,
	})

	w := &wiring{
		health: handlers.NewHealthHandler(registry, handlers.NewBuildInfo(Version, Commit, BuildTime), critical...),
		quotes: handlers.NewQuoteHandler(svc),
	}

	if cfg.Sync.Enabled {
		w.syncer = syncer
	}

	return w, nil
}

// serve runs the HTTP server and, when set, the background sync loop until
// ctx is canceled or the server fails. The server is then drained within
// the configured shutdown timeout.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, server *http.Server, syncer *app.Syncer) error {
	g, gctx := errgroup.WithContext(ctx)

	serverErr := server.Start()

	g.Go(func() error {
		select {
		case err, ok := <-serverErr:
			if ok {
				return err
			}

			return nil
		case <-gctx.Done():
		}

		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(drainCtx)
	})

	if syncer != nil {
		g.Go(func() error {
			syncer.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func loggingConfig(cfg *config.Config) *logging.Config {
	return &logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}
}
