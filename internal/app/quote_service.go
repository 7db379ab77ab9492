package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// DefaultForwardConcurrency bounds parallel posts of imported quotes.
const DefaultForwardConcurrency = 4

// QuoteService orchestrates quote use cases on top of the QuoteStore: it
// forwards new quotes to the remote source, keeps per-session state,
// archives exports and runs manual syncs.
type QuoteService struct {
	store    *QuoteStore
	sessions ports.SessionStore
	remote   ports.RemoteQuotes
	archive  ports.SnapshotArchive
	syncer   *Syncer

	forward            bool
	forwardConcurrency int
	now                func() time.Time
	logger             *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	// Store is the quote collection. Required.
	Store *QuoteStore

	// Sessions holds per-session state. Required.
	Sessions ports.SessionStore

	// Remote is the remote quote source. Optional; without it quotes are
	// not forwarded and Sync reports the source as unavailable.
	Remote ports.RemoteQuotes

	// Syncer runs manual syncs. Built from Store and Remote when nil.
	Syncer *Syncer

	// Archive receives exported snapshots. Optional.
	Archive ports.SnapshotArchive

	// ForwardNewQuotes posts added and imported quotes to Remote.
	ForwardNewQuotes bool

	// ForwardConcurrency bounds parallel posts during import.
	ForwardConcurrency int

	// Now is the clock used to name exports. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if Store or Sessions is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("QuoteService: Store is required")
	}

	if cfg.Sessions == nil {
		panic("QuoteService: Sessions is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	syncer := cfg.Syncer
	if syncer == nil && cfg.Remote != nil {
		syncer = NewSyncer(SyncerConfig{Store: cfg.Store, Remote: cfg.Remote, Logger: logger})
	}

	concurrency := cfg.ForwardConcurrency
	if concurrency <= 0 {
		concurrency = DefaultForwardConcurrency
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &QuoteService{
		store:              cfg.Store,
		sessions:           cfg.Sessions,
		remote:             cfg.Remote,
		archive:            cfg.Archive,
		syncer:             syncer,
		forward:            cfg.ForwardNewQuotes && cfg.Remote != nil,
		forwardConcurrency: concurrency,
		now:                now,
		logger:             logger.With(slog.String("component", "quote_service")),
	}
}

// AddResult is the outcome of adding a quote.
type AddResult struct {
	Quote domain.Quote

	// Forwarded reports whether the remote source accepted the quote.
	Forwarded bool
}

// AddQuote stores a new quote, records it as the session's last viewed
// quote and, when enabled, forwards it to the remote source. A failed
// forward is logged and never undoes the add.
func (s *QuoteService) AddQuote(ctx context.Context, sessionID string, candidate domain.Quote) (AddResult, error) {
	q, err := s.store.Add(ctx, candidate, s.session(ctx, sessionID))
	if err != nil {
		return AddResult{}, err
	}

	res := AddResult{Quote: q}
	if s.forward {
		res.Forwarded = s.forwardOne(ctx, q) == nil
	}

	return res, nil
}

func (s *QuoteService) forwardOne(ctx context.Context, q domain.Quote) error {
	err := s.remote.PostQuote(ctx, q)
	forwardedQuotes.WithLabelValues(resultLabel(err)).Inc()

	if err != nil {
		s.logger.WarnContext(ctx, "failed to forward quote to remote source", slog.Any("error", err))
	}

	return err
}

// ListQuotes returns the quotes in category, every quote for "" or "all".
func (s *QuoteService) ListQuotes(_ context.Context, category string) []domain.Quote {
	return s.store.ListByCategory(category)
}

// RandomQuote picks a quote in category and records it as the session's
// last viewed quote. An empty sessionID skips the recording.
func (s *QuoteService) RandomQuote(ctx context.Context, sessionID, category string) (domain.Quote, error) {
	return s.store.PickRandom(ctx, category, s.session(ctx, sessionID))
}

// session returns the store for sessionID, nil for an anonymous caller.
func (s *QuoteService) session(ctx context.Context, sessionID string) ports.KeyValueStore {
	if sessionID == "" {
		return nil
	}

	return s.sessions.Session(ctx, sessionID)
}

// LastViewed returns the session's last viewed quote.
func (s *QuoteService) LastViewed(ctx context.Context, sessionID string) (domain.Quote, error) {
	q, ok := s.store.LastViewed(ctx, s.sessions.Session(ctx, sessionID))
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("last viewed quote", "")
	}

	return q, nil
}

// StartupQuote is the quote shown when a session opens: the last viewed
// quote when there is one, otherwise a random pick in the selected category.
func (s *QuoteService) StartupQuote(ctx context.Context, sessionID string) (domain.Quote, error) {
	if q, err := s.LastViewed(ctx, sessionID); err == nil {
		return q, nil
	}

	return s.RandomQuote(ctx, sessionID, s.store.SelectedCategory(ctx))
}

// EndSession discards the session's state.
func (s *QuoteService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}

// Categories returns "all" followed by the distinct categories.
func (s *QuoteService) Categories(_ context.Context) []string {
	return s.store.DistinctCategories()
}

// SelectedCategory returns the persisted category filter.
func (s *QuoteService) SelectedCategory(ctx context.Context) string {
	return s.store.SelectedCategory(ctx)
}

// SetSelectedCategory persists the category filter.
func (s *QuoteService) SetSelectedCategory(ctx context.Context, category string) (string, error) {
	return s.store.SetSelectedCategory(ctx, category)
}

// ExportResult is a snapshot ready to be downloaded.
type ExportResult struct {
	Filename string
	Data     []byte

	// Location is where the archive stored the snapshot, empty when not archived.
	Location string
}

// Export snapshots the collection. When an archive is configured the
// snapshot is also stored there; an archive failure is logged only.
func (s *QuoteService) Export(ctx context.Context) (ExportResult, error) {
	data, err := s.store.ExportSnapshot()
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{
		Filename: domain.ExportFilename(s.now()),
		Data:     data,
	}

	if s.archive != nil {
		loc, err := s.archive.Put(ctx, res.Filename, data)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to archive snapshot",
				slog.String("filename", res.Filename),
				slog.Any("error", err),
			)
		} else {
			res.Location = loc
			s.logger.InfoContext(ctx, "snapshot archived", slog.String("location", loc))
		}
	}

	return res, nil
}

// ImportOutcome is the outcome of an import.
type ImportOutcome struct {
	domain.ImportResult

	// Forwarded counts added quotes accepted by the remote source.
	Forwarded int `json:"forwarded"`
}

// Import adds the quotes of an import payload and, when enabled, forwards
// the added ones to the remote source with bounded parallelism.
func (s *QuoteService) Import(ctx context.Context, raw []byte) (ImportOutcome, error) {
	res, err := s.store.ImportBatch(ctx, raw)
	if err != nil {
		return ImportOutcome{}, err
	}

	out := ImportOutcome{ImportResult: res}
	if !s.forward || len(res.AddedQuotes) == 0 {
		return out, nil
	}

	forwarded, err := eachLimit(ctx, s.forwardConcurrency, res.AddedQuotes, s.forwardOne)
	if err != nil {
		s.logger.WarnContext(ctx, "some imported quotes were not forwarded",
			slog.Int("forwarded", forwarded),
			slog.Int("added", len(res.AddedQuotes)),
		)
	}

	out.Forwarded = forwarded

	return out, nil
}

// Sync runs one manual sync cycle.
func (s *QuoteService) Sync(ctx context.Context) (domain.MergeResult, error) {
	if s.syncer == nil {
		return domain.MergeResult{}, domain.NewUnavailableError("remote-quotes", "remote source not configured")
	}

	return s.syncer.SyncOnce(ctx)
}
