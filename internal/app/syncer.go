package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// DefaultSyncInterval is the period of the background sync loop.
const DefaultSyncInterval = 30 * time.Second

// SyncerConfig contains the dependencies of a Syncer.
type SyncerConfig struct {
	// Store receives the merged quotes. Required.
	Store *QuoteStore

	// Remote is the quote source. Required.
	Remote ports.RemoteQuotes

	// Interval between background runs. Defaults to DefaultSyncInterval.
	Interval time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Syncer pulls quotes from the remote source and merges them into the store.
type Syncer struct {
	store    *QuoteStore
	remote   ports.RemoteQuotes
	interval time.Duration
	logger   *slog.Logger
}

// NewSyncer creates a syncer. Panics if Store or Remote is nil.
func NewSyncer(cfg SyncerConfig) *Syncer {
	if cfg.Store == nil {
		panic("Syncer: Store is required")
	}

	if cfg.Remote == nil {
		panic("Syncer: Remote is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	logger = logger.With(slog.String("component", "quote_syncer"))

	return &Syncer{
		store:    cfg.Store,
		remote:   cfg.Remote,
		interval: interval,
		logger:   logger,
	}
}

// SyncOnce runs one fetch and merge cycle. A fetch failure leaves the
// store untouched and returns an error wrapping domain.ErrRemoteFetch.
func (s *Syncer) SyncOnce(ctx context.Context) (domain.MergeResult, error) {
	res, err := Pipeline[[]domain.Quote, domain.MergeResult]{
		Name:  "sync_quotes",
		Fetch: s.remote.FetchQuotes,
		Check: func(_ context.Context, fetched []domain.Quote) ([]domain.Quote, error) {
			valid := fetched[:0:0]

			for _, q := range fetched {
				if domain.NormalizeKey(q.Text) != "" {
					valid = append(valid, q)
				}
			}

			return valid, nil
		},
		Commit: s.store.MergeRemote,
	}.Run(ctx, s.logger)

	syncRuns.WithLabelValues(resultLabel(err)).Inc()

	if err != nil {
		return domain.MergeResult{}, err
	}

	syncMerged.WithLabelValues("updated").Add(float64(res.Updated))
	syncMerged.WithLabelValues("inserted").Add(float64(res.Inserted))

	return res, nil
}

// Run syncs once immediately and then every interval until ctx is done.
// Failures are logged and the loop keeps going.
func (s *Syncer) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "sync loop started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Syncer) runCycle(ctx context.Context) {
	res, err := s.SyncOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WarnContext(ctx, "sync failed", slog.Any("error", err))
		}

		return
	}

	if res.Changed() {
		s.logger.InfoContext(ctx, "sync merged remote quotes",
			slog.Int("updated", res.Updated),
			slog.Int("inserted", res.Inserted),
		)
	}
}
