package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverConfig(maxBody int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: maxBody,
	}
}

// newQuoteServer wires a server over an in-memory quote service.
func newQuoteServer(t *testing.T, maxBody int64, auth *config.AuthConfig) (*Server, *app.QuoteStore) {
	t.Helper()

	logger := discardLogger()

	store, err := app.NewQuoteStore(context.Background(), app.QuoteStoreConfig{Store: memory.NewStore(), Logger: logger})
	require.NoError(t, err)

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:    store,
		Sessions: memory.NewSessionStore(time.Minute),
		Logger:   logger,
	})

	srv := New(serverConfig(maxBody), logger)

	cfg := NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "quote-generator", Version: "test", Environment: "test"},
		auth,
		handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "test"}),
		handlers.NewQuoteHandler(service),
	)
	SetupRouter(srv.Engine(), cfg)

	return srv, store
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	return w
}

func TestServerNew(t *testing.T) {
	cfg := serverConfig(1 << 20)
	cfg.Port = 3000

	srv := New(cfg, discardLogger())

	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "127.0.0.1:3000", srv.Addr())
	assert.NotNil(t, srv.Engine())
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(serverConfig(1<<20), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	errCh := srv.Start()
	require.NotEqual(t, "127.0.0.1:0", srv.Addr(), "Addr reports the bound port")

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err, ok := <-errCh:
		assert.NoError(t, err)
		assert.False(t, ok, "error channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to stop")
	}
}

func TestServerStart_ListenFailure(t *testing.T) {
	first := New(serverConfig(1<<20), discardLogger())
	require.NoError(t, <-nonBlocking(first.Start()))
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)

	cfg := serverConfig(1 << 20)
	cfg.Port, _ = strconv.Atoi(port)

	err = <-New(cfg, discardLogger()).Start()
	require.ErrorContains(t, err, "listening on")
}

// nonBlocking yields nil when ch has nothing ready.
func nonBlocking(ch <-chan error) <-chan error {
	out := make(chan error, 1)

	select {
	case err := <-ch:
		out <- err
	default:
		out <- nil
	}

	return out
}

func TestNewDefaultRouterConfig(t *testing.T) {
	logger := discardLogger()
	appCfg := &config.AppConfig{Name: "quote-generator"}
	authCfg := &config.AuthConfig{}

	cfg := NewDefaultRouterConfig(logger, appCfg, authCfg, nil, nil)

	assert.Equal(t, logger, cfg.Logger)
	assert.Equal(t, appCfg, cfg.AppConfig)
	assert.Equal(t, authCfg, cfg.AuthConfig)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout)
}

func TestSetupRouter_Routes(t *testing.T) {
	srv, _ := newQuoteServer(t, 1<<20, nil)

	routes := make(map[string]bool)
	for _, r := range srv.Engine().Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /api/v1/quotes",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes/random",
		"GET /api/v1/quotes/export",
		"POST /api/v1/quotes/import",
		"GET /api/v1/categories",
		"GET /api/v1/preferences/category",
		"PUT /api/v1/preferences/category",
		"GET /api/v1/session/quote",
		"GET /api/v1/session/last-viewed",
		"DELETE /api/v1/session",
		"POST /api/v1/sync",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	require.NotPanics(t, func() {
		SetupRouter(gin.New(), RouterConfig{AppConfig: &config.AppConfig{Name: "quote-generator"}})
	})
}

func TestSetupRouter_SessionAndRequestIDs(t *testing.T) {
	srv, _ := newQuoteServer(t, 1<<20, nil)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil))
	require.Equal(t, http.StatusOK, w.Code)

	session := w.Header().Get(middleware.HeaderSessionID)
	require.NotEmpty(t, session)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/last-viewed", nil)
	req.Header.Set(middleware.HeaderSessionID, session)
	assert.Equal(t, http.StatusOK, serve(srv, req).Code)

	// probes carry no session
	w = serve(srv, httptest.NewRequest(http.MethodGet, "/-/live", nil))
	assert.Empty(t, w.Header().Get(middleware.HeaderSessionID))
}

func TestSetupRouter_AuthGuardsMutations(t *testing.T) {
	srv, store := newQuoteServer(t, 1<<20, &config.AuthConfig{Enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"text":"Guarded"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, serve(srv, req).Code)
	assert.Equal(t, 3, store.Len())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"text":"Guarded"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Scopes", "quotes:read")
	assert.Equal(t, http.StatusForbidden, serve(srv, req).Code)
	assert.Equal(t, 3, store.Len())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"text":"Guarded"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Scopes", "quotes:read "+WriteScope)
	assert.Equal(t, http.StatusCreated, serve(srv, req).Code)
	assert.Equal(t, 4, store.Len())

	assert.Equal(t, http.StatusOK, serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)).Code)
}

func TestSetupRouter_SyncWithoutRemote(t *testing.T) {
	srv, _ := newQuoteServer(t, 1<<20, nil)

	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestMaxBodySize_RejectsOversizedImport(t *testing.T) {
	srv, store := newQuoteServer(t, 64, nil)

	body := `[{"text":"` + strings.Repeat("x", 200) + `","category":"A"}]`
	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/quotes/import", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 3, store.Len())

	w = serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/quotes/import", strings.NewReader(`[]`)))
	assert.Equal(t, http.StatusOK, w.Code)
}
