// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// StoreKeys names the entries the quote store keeps in key-value storage.
type StoreKeys struct {
	// Quotes holds the JSON-encoded collection in the durable store.
	Quotes string

	// Filter holds the selected category in the durable store.
	Filter string

	// LastViewed holds the JSON-encoded last shown quote in a session store.
	LastViewed string
}

// DefaultStoreKeys returns the storage keys used when none are configured.
func DefaultStoreKeys() StoreKeys {
	return StoreKeys{
		Quotes:     "dqg_quotes_v1",
		Filter:     "dqg_selected_category_v1",
		LastViewed: "dqg_last_quote_v1",
	}
}

func (k StoreKeys) withDefaults() StoreKeys {
	d := DefaultStoreKeys()
	if k.Quotes == "" {
		k.Quotes = d.Quotes
	}

	if k.Filter == "" {
		k.Filter = d.Filter
	}

	if k.LastViewed == "" {
		k.LastViewed = d.LastViewed
	}

	return k
}

// QuoteStoreConfig contains the dependencies of a QuoteStore.
type QuoteStoreConfig struct {
	// Store is the durable key-value store. Required.
	Store ports.KeyValueStore

	// Keys overrides the storage keys. Empty fields use the defaults.
	Keys StoreKeys

	// IntN picks a random index in [0, n). Defaults to math/rand/v2.IntN.
	IntN func(n int) int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// QuoteStore owns the quote collection. It keeps the collection unique by
// normalized text, persists it after every mutation and serves filtered and
// random views.
//
// Reads run concurrently. Mutations are serialized and each one persists the
// whole collection before returning; when persisting fails the in-memory
// collection is rolled back so memory and storage never diverge.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []domain.Quote
	index  map[string]int

	kv     ports.KeyValueStore
	keys   StoreKeys
	intn   func(int) int
	logger *slog.Logger
}

// NewQuoteStore loads the collection from durable storage. When nothing
// usable is stored the seed quotes are installed and persisted.
// Panics if cfg.Store is nil.
func NewQuoteStore(ctx context.Context, cfg QuoteStoreConfig) (*QuoteStore, error) {
	if cfg.Store == nil {
		panic("QuoteStore: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	intn := cfg.IntN
	if intn == nil {
		intn = rand.IntN
	}

	s := &QuoteStore{
		kv:     cfg.Store,
		keys:   cfg.Keys.withDefaults(),
		intn:   intn,
		logger: logger.With(slog.String("component", "quote_store")),
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *QuoteStore) load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, s.keys.Quotes)
	if err != nil && !domain.IsNotFound(err) {
		return fmt.Errorf("loading quotes: %w", err)
	}

	var (
		loaded  []domain.Quote
		dropped int
	)

	if err == nil {
		loaded, dropped = decodeStored(raw)
		if loaded == nil && dropped == 0 && strings.TrimSpace(raw) != "[]" {
			s.logger.WarnContext(ctx, "stored quotes are unreadable, reseeding",
				slog.String("key", s.keys.Quotes))
		}
	}

	seeded := len(loaded) == 0
	if seeded {
		loaded = domain.SeedQuotes()
	}

	s.setLocked(loaded)

	if seeded || dropped > 0 {
		if err := s.persistLocked(ctx); err != nil {
			return fmt.Errorf("saving initial quotes: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "quote store loaded",
		slog.Int("quotes", len(s.quotes)),
		slog.Int("dropped", dropped),
		slog.Bool("seeded", seeded),
	)

	return nil
}

// decodeStored parses a persisted collection, keeping valid, unique records
// in stored order. Unparseable input yields nil.
func decodeStored(raw string) (quotes []domain.Quote, dropped int) {
	var records []any
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, 0
	}

	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		q, ok := quoteFromRecord(rec)
		if !ok {
			dropped++
			continue
		}

		if _, dup := seen[q.Key()]; dup {
			dropped++
			continue
		}

		seen[q.Key()] = struct{}{}
		quotes = append(quotes, q)
	}

	return quotes, dropped
}

// quoteFromRecord accepts a decoded JSON object whose text and category are
// non-empty strings after trimming. A missing or blank author gets the default.
func quoteFromRecord(rec any) (domain.Quote, bool) {
	m, ok := rec.(map[string]any)
	if !ok {
		return domain.Quote{}, false
	}

	raw := domain.Quote{}
	raw.Text, _ = m["text"].(string)
	raw.Category, _ = m["category"].(string)
	raw.Author, _ = m["author"].(string)

	if !raw.Valid() {
		return domain.Quote{}, false
	}

	q, err := domain.NewQuote(raw.Text, raw.Author, raw.Category)
	if err != nil {
		return domain.Quote{}, false
	}

	return q, true
}

// Add validates a candidate quote, appends it and persists the collection.
// The new quote becomes session's last viewed quote when session is set.
// Fails with domain.ErrEmptyText or domain.ErrDuplicateText.
func (s *QuoteStore) Add(ctx context.Context, candidate domain.Quote, session ports.KeyValueStore) (domain.Quote, error) {
	q, err := domain.NewQuote(candidate.Text, candidate.Author, candidate.Category)
	if err != nil {
		storeMutations.WithLabelValues("add", resultError).Inc()
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[q.Key()]; exists {
		storeMutations.WithLabelValues("add", resultError).Inc()
		return domain.Quote{}, fmt.Errorf("%w: %q", domain.ErrDuplicateText, q.Text)
	}

	err = s.mutateLocked(ctx, "add", func() {
		s.appendLocked(q)
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.logger.InfoContext(ctx, "quote added",
		slog.String("category", q.Category),
		slog.Int("total", len(s.quotes)),
	)

	if session != nil {
		s.rememberLastViewed(ctx, session, q)
	}

	return q, nil
}

// ListByCategory returns the quotes matching filter in stored order. An
// empty filter or "all" returns every quote.
func (s *QuoteStore) ListByCategory(filter string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(filter)
}

func (s *QuoteStore) listLocked(filter string) []domain.Quote {
	if domain.IsAllCategories(filter) {
		return slices.Clone(s.quotes)
	}

	filter = strings.TrimSpace(filter)
	out := make([]domain.Quote, 0, len(s.quotes))

	for _, q := range s.quotes {
		if q.Category == filter {
			out = append(out, q)
		}
	}

	return out
}

// PickRandom returns a uniformly chosen quote among those matching filter
// and records it as the session's last viewed quote. A nil session skips
// the recording. Fails with domain.ErrNoQuotesInCategory.
func (s *QuoteStore) PickRandom(ctx context.Context, filter string, session ports.KeyValueStore) (domain.Quote, error) {
	s.mu.RLock()
	candidates := s.listLocked(filter)
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return domain.Quote{}, fmt.Errorf("%w: %q", domain.ErrNoQuotesInCategory, filter)
	}

	q := candidates[s.intn(len(candidates))]

	if session != nil {
		s.rememberLastViewed(ctx, session, q)
	}

	return q, nil
}

func (s *QuoteStore) rememberLastViewed(ctx context.Context, session ports.KeyValueStore, q domain.Quote) {
	data, err := json.Marshal(q)
	if err == nil {
		err = session.Set(ctx, s.keys.LastViewed, string(data))
	}

	if err != nil {
		s.logger.WarnContext(ctx, "failed to record last viewed quote", slog.Any("error", err))
	}
}

// LastViewed returns the quote last shown in session. Missing or invalid
// entries report false.
func (s *QuoteStore) LastViewed(ctx context.Context, session ports.KeyValueStore) (domain.Quote, bool) {
	raw, err := session.Get(ctx, s.keys.LastViewed)
	if err != nil {
		return domain.Quote{}, false
	}

	var rec any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Quote{}, false
	}

	return quoteFromRecord(rec)
}

// DistinctCategories returns "all" followed by every category in
// first-seen order.
func (s *QuoteStore) DistinctCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{domain.AllCategories}
	seen := map[string]struct{}{}

	for _, q := range s.quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// ExportSnapshot returns the collection as an indented JSON array.
func (s *QuoteStore) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := s.quotes
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	return data, nil
}

// ImportBatch adds every valid, new record of an import payload. The
// payload is a JSON array of quotes or an object with a "quotes" array;
// anything else fails with domain.ErrImportFormat. Invalid records and
// duplicates, including duplicates within the batch, are skipped. The
// collection is persisted once, after the whole batch.
func (s *QuoteStore) ImportBatch(ctx context.Context, raw []byte) (domain.ImportResult, error) {
	records, err := parseImport(raw)
	if err != nil {
		storeMutations.WithLabelValues("import", resultError).Inc()
		return domain.ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res domain.ImportResult

	err = s.mutateLocked(ctx, "import", func() {
		for _, rec := range records {
			q, ok := quoteFromRecord(rec)
			if !ok {
				res.Skipped++
				continue
			}

			if _, exists := s.index[q.Key()]; exists {
				res.Skipped++
				continue
			}

			s.appendLocked(q)
			res.Added++
			res.AddedQuotes = append(res.AddedQuotes, q)
		}
	})
	if err != nil {
		return domain.ImportResult{}, err
	}

	res.Total = len(s.quotes)

	importedQuotes.WithLabelValues("added").Add(float64(res.Added))
	importedQuotes.WithLabelValues("skipped").Add(float64(res.Skipped))

	s.logger.InfoContext(ctx, "quotes imported",
		slog.Int("added", res.Added),
		slog.Int("skipped", res.Skipped),
		slog.Int("total", res.Total),
	)

	return res, nil
}

func parseImport(raw []byte) ([]any, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImportFormat, err)
	}

	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if quotes, ok := v["quotes"].([]any); ok {
			return quotes, nil
		}
	}

	return nil, domain.ErrImportFormat
}

// MergeRemote reconciles server quotes into the collection with a
// server-wins policy: a quote whose normalized text is already stored
// replaces the stored one in place, any other quote is appended. Records
// with empty text are ignored. Updated counts replacements of quotes that
// existed before the merge, even when nothing changed.
func (s *QuoteStore) MergeRemote(ctx context.Context, remote []domain.Quote) (domain.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res domain.MergeResult

	existing := len(s.quotes)
	pending := make([]domain.Quote, 0, len(remote))

	for _, r := range remote {
		q, err := domain.NewQuote(r.Text, r.Author, r.Category)
		if err != nil {
			continue
		}

		pending = append(pending, q)
	}

	if len(pending) == 0 {
		return res, nil
	}

	err := s.mutateLocked(ctx, "merge", func() {
		for _, q := range pending {
			idx, ok := s.index[q.Key()]
			if !ok {
				s.appendLocked(q)
				res.Inserted++

				continue
			}

			s.quotes[idx] = q
			if idx < existing {
				res.Updated++
			}
		}
	})
	if err != nil {
		return domain.MergeResult{}, err
	}

	return res, nil
}

// SelectedCategory returns the persisted category filter, "all" when unset.
func (s *QuoteStore) SelectedCategory(ctx context.Context) string {
	v, err := s.kv.Get(ctx, s.keys.Filter)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "failed to read selected category", slog.Any("error", err))
		}

		return domain.AllCategories
	}

	if v = strings.TrimSpace(v); v == "" {
		return domain.AllCategories
	}

	return v
}

// SetSelectedCategory persists the category filter. Empty selects "all".
func (s *QuoteStore) SetSelectedCategory(ctx context.Context, category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.AllCategories
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Set(ctx, s.keys.Filter, category)
	storeMutations.WithLabelValues("select_category", resultLabel(err)).Inc()

	if err != nil {
		return "", fmt.Errorf("saving selected category: %w", err)
	}

	return category, nil
}

// Len returns the number of stored quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Keys returns the storage keys in use.
func (s *QuoteStore) Keys() StoreKeys {
	return s.keys
}

// mutateLocked applies fn and persists the result, restoring the previous
// collection when persisting fails. Callers hold s.mu.
func (s *QuoteStore) mutateLocked(ctx context.Context, op string, fn func()) error {
	prev := slices.Clone(s.quotes)

	fn()

	if err := s.persistLocked(ctx); err != nil {
		s.setLocked(prev)
		storeMutations.WithLabelValues(op, resultError).Inc()

		s.logger.ErrorContext(ctx, "failed to persist quotes, change rolled back",
			slog.String("op", op),
			slog.Any("error", err),
		)

		return fmt.Errorf("%s: %w", op, err)
	}

	storeMutations.WithLabelValues(op, resultOK).Inc()

	return nil
}

func (s *QuoteStore) persistLocked(ctx context.Context) error {
	quotes := s.quotes
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	if err := s.kv.Set(ctx, s.keys.Quotes, string(data)); err != nil {
		return fmt.Errorf("saving quotes: %w", err)
	}

	storeSize.Set(float64(len(s.quotes)))

	return nil
}

func (s *QuoteStore) appendLocked(q domain.Quote) {
	s.index[q.Key()] = len(s.quotes)
	s.quotes = append(s.quotes, q)
}

func (s *QuoteStore) setLocked(quotes []domain.Quote) {
	s.quotes = quotes
	s.index = make(map[string]int, len(quotes))

	for i, q := range quotes {
		s.index[q.Key()] = i
	}
}
