package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

func setupRemoteClient(t *testing.T, limit int, handler http.HandlerFunc) *RemoteQuoteClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewRemoteQuoteClient(RemoteQuoteConfig{
		Client:     client,
		FetchLimit: limit,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func postsHandler(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts := make([]remotePost, 0, n)
		for i := 1; i <= n; i++ {
			posts = append(posts, remotePost{UserID: (i + 1) / 2, ID: i, Title: fmt.Sprintf("title %d", i), Body: "body"})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(posts)
	}
}

func TestNewRemoteQuoteClient(t *testing.T) {
	assert.Panics(t, func() { NewRemoteQuoteClient(RemoteQuoteConfig{}) })

	client, err := clients.New(testConfig("http://localhost"))
	require.NoError(t, err)

	c := NewRemoteQuoteClient(RemoteQuoteConfig{Client: client})
	assert.Equal(t, DefaultFetchLimit, c.limit)
	assert.Equal(t, "remote-quotes", c.Name())
}

func TestRemoteQuoteClient_FetchQuotes(t *testing.T) {
	var path string

	c := setupRemoteClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		postsHandler(20)(w, r)
	})

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/posts", path)
	assert.Equal(t, []domain.Quote{
		{Text: "title 1", Author: "User 1", Category: domain.ServerCategory},
		{Text: "title 2", Author: "User 1", Category: domain.ServerCategory},
		{Text: "title 3", Author: "User 2", Category: domain.ServerCategory},
	}, quotes)
}

func TestRemoteQuoteClient_FetchQuotes_FewerThanLimit(t *testing.T) {
	c := setupRemoteClient(t, 10, postsHandler(2))

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestTranslatePost_WithoutUser(t *testing.T) {
	q, err := translatePost(&remotePost{Title: "anonymous"})
	require.NoError(t, err)

	assert.Equal(t, domain.Quote{Text: "anonymous", Author: "Server", Category: "Server"}, q)
}

func TestRemoteQuoteClient_FetchQuotes_Failures(t *testing.T) {
	status := func(code int) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(code) }
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		cause   string
	}{
		{name: "server error", handler: status(http.StatusInternalServerError), cause: "max retries exceeded"},
		{name: "not found", handler: status(http.StatusNotFound), cause: "not found"},
		{name: "bad request", handler: status(http.StatusBadRequest), cause: "status 400"},
		{name: "unauthorized", handler: status(http.StatusUnauthorized), cause: "authentication required"},
		{name: "conflict", handler: status(http.StatusConflict), cause: "status 409"},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"not":"an array"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupRemoteClient(t, 10, tt.handler)

			quotes, err := c.FetchQuotes(context.Background())

			require.ErrorIs(t, err, domain.ErrRemoteFetch)
			assert.Nil(t, quotes)
			assert.Contains(t, err.Error(), tt.cause)

			assert.True(t, domain.IsUnavailable(err))
			assert.False(t, domain.IsNotFound(err))
			assert.False(t, domain.IsValidation(err))
			assert.False(t, domain.IsForbidden(err))
			assert.False(t, domain.IsConflict(err))

			code, resp := dto.MapError(err)
			assert.Equal(t, http.StatusServiceUnavailable, code)
			assert.Equal(t, dto.ErrorCodeUnavailable, resp.Error.Code)
		})
	}
}

func TestRemoteQuoteClient_PostQuote_RemoteRejects(t *testing.T) {
	c := setupRemoteClient(t, 10, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.PostQuote(context.Background(), domain.Quote{Text: "x", Author: "y", Category: "z"})

	require.ErrorIs(t, err, domain.ErrRemotePost)
	assert.True(t, domain.IsUnavailable(err))
	assert.False(t, domain.IsValidation(err))
}

func TestRemoteQuoteClient_PostQuote(t *testing.T) {
	var (
		method      string
		contentType string
		received    domain.Quote
	)

	c := setupRemoteClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))
	})

	quote := domain.Quote{Text: "Stay hungry.", Author: "Steve Jobs", Category: "Life"}
	require.NoError(t, c.PostQuote(context.Background(), quote))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, quote, received)
}

func TestRemoteQuoteClient_PostQuote_Failure(t *testing.T) {
	c := setupRemoteClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.PostQuote(context.Background(), domain.Quote{Text: "x", Author: "y", Category: "z"})

	require.ErrorIs(t, err, domain.ErrRemotePost)
	assert.True(t, domain.IsUnavailable(err))
}

func TestRemoteQuoteClient_Check(t *testing.T) {
	healthy := setupRemoteClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1}`))
	})
	assert.NoError(t, healthy.Check(context.Background()))

	failing := setupRemoteClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.True(t, domain.IsUnavailable(failing.Check(context.Background())))
}

func TestRemoteQuoteClient_Check_OpenCircuit(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	cfg.Circuit.MaxFailures = 1

	client, err := clients.New(cfg)
	require.NoError(t, err)

	c := NewRemoteQuoteClient(RemoteQuoteConfig{Client: client})

	_, err = c.FetchQuotes(context.Background())
	require.Error(t, err)
	require.Equal(t, clients.StateOpen, client.CircuitState())

	err = c.Check(context.Background())
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, int32(1), calls.Load(), "open circuit skips the network")
}
