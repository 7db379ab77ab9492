//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	apihttp "github.com/jsamuelsen/quote-generator/internal/adapters/http"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/archive"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRemote is a JSONPlaceholder-style posts API.
type fakeRemote struct {
	mu       sync.Mutex
	posts    []map[string]any
	received []domain.Quote
	failing  bool

	server *httptest.Server
}

func newFakeRemote(titles ...string) *fakeRemote {
	f := &fakeRemote{}
	for i, title := range titles {
		f.posts = append(f.posts, map[string]any{"userId": i/2 + 1, "id": i + 1, "title": title, "body": "body"})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", f.list)
	mux.HandleFunc("GET /posts/{id}", f.one)
	mux.HandleFunc("POST /posts", f.create)

	f.server = httptest.NewServer(mux)

	return f
}

func (f *fakeRemote) URL() string { return f.server.URL }

func (f *fakeRemote) Close() { f.server.Close() }

func (f *fakeRemote) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *fakeRemote) Received() []domain.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]domain.Quote(nil), f.received...)
}

func (f *fakeRemote) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(f.posts)
}

func (f *fakeRemote) one(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	_, _ = w.Write([]byte(`{"id":1}`))
}

func (f *fakeRemote) create(w http.ResponseWriter, r *http.Request) {
	var q domain.Quote
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	f.received = append(f.received, q)

	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"id":%d}`, 100+len(f.received))
}

// service is a fully wired quote service backed by sqlite and the fake remote.
type service struct {
	server  *httptest.Server
	sqlite  *sqlstore.Store
	store   *app.QuoteStore
	syncer  *app.Syncer
	remote  *fakeRemote
	dbPath  string
	archive string
}

type serviceOptions struct {
	dbPath  string
	remote  *fakeRemote
	forward bool
}

// startService wires the same components as cmd/service against temporary
// storage. Callers own cleanup through stop.
func startService(opts serviceOptions) (*service, error) {
	ctx := context.Background()
	logger := discardLogger()

	sqlite, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: opts.dbPath, Logger: logger})
	if err != nil {
		return nil, err
	}

	store, err := app.NewQuoteStore(ctx, app.QuoteStoreConfig{Store: sqlite, Logger: logger})
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     opts.remote.URL(),
		ServiceName: "remote-quotes",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   50,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Logger: logger,
	})
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	remote := acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{Client: httpClient, Logger: logger})

	archiveDir := filepath.Join(filepath.Dir(opts.dbPath), "exports")

	snapshots, err := archive.NewDir(archiveDir)
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	syncer := app.NewSyncer(app.SyncerConfig{Store: store, Remote: remote, Interval: time.Hour, Logger: logger})

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Store:            store,
		Sessions:         memory.NewSessionStore(time.Minute),
		Remote:           remote,
		Syncer:           syncer,
		Archive:          snapshots,
		ForwardNewQuotes: opts.forward,
		Logger:           logger,
	})

	registry := ports.NewHealthRegistry()
	if err := registry.Register(sqlite); err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	if err := registry.Register(remote); err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	srv := apihttp.New(&config.ServerConfig{MaxRequestSize: config.DefaultMaxRequestSize}, logger)
	apihttp.SetupRouter(srv.Engine(), apihttp.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "quote-generator", Version: "integration", Environment: "test"},
		&config.AuthConfig{},
		handlers.NewHealthHandler(registry, handlers.NewBuildInfo("integration", "none", "now"), sqlite.Name()),
		handlers.NewQuoteHandler(quotes),
	))

	return &service{
		server:  httptest.NewServer(srv.Engine()),
		sqlite:  sqlite,
		store:   store,
		syncer:  syncer,
		remote:  opts.remote,
		dbPath:  opts.dbPath,
		archive: archiveDir,
	}, nil
}

func (s *service) stop() {
	s.server.Close()
	_ = s.sqlite.Close()
}

// newService starts a service for a test and registers its cleanup.
func newService(t *testing.T, remote *fakeRemote, forward bool) *service {
	t.Helper()

	svc, err := startService(serviceOptions{
		dbPath:  filepath.Join(t.TempDir(), "quotes.db"),
		remote:  remote,
		forward: forward,
	})
	if err != nil {
		t.Fatalf("starting service: %v", err)
	}

	t.Cleanup(svc.stop)

	return svc
}
