package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestIDMiddlewares(t *testing.T) {
	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		fromGin    func(*gin.Context) string
		fromCtx    func(context.Context) string
	}{
		{"request id", RequestID(), HeaderRequestID, GetRequestID, RequestIDFromContext},
		{"correlation id", CorrelationID(), HeaderCorrelationID, GetCorrelationID, CorrelationIDFromContext},
		{"session id", SessionID(""), HeaderSessionID, GetSessionID, SessionIDFromContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ginID, ctxID string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/", func(c *gin.Context) {
				ginID = tt.fromGin(c)
				ctxID = tt.fromCtx(c.Request.Context())
				c.Status(http.StatusOK)
			})

			// generated when absent
			w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
			generated := w.Header().Get(tt.header)

			_, err := uuid.Parse(generated)
			require.NoError(t, err)
			assert.Equal(t, generated, ginID)
			assert.Equal(t, generated, ctxID)

			// propagated when present
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(tt.header, "given-id")
			w = serve(router, req)

			assert.Equal(t, "given-id", w.Header().Get(tt.header))
			assert.Equal(t, "given-id", ginID)
			assert.Equal(t, "given-id", ctxID)
		})
	}
}

func TestIDMiddlewares_EnrichContextLogger(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(func(c *gin.Context) {
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
	}, RequestID(), SessionID(""))
	router.GET("/", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("handled")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderSessionID, "sess-1")
	serve(router, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
}

func TestSessionID_CustomHeader(t *testing.T) {
	router := gin.New()
	router.Use(SessionID("X-Quote-Session"))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Quote-Session", "abc")
	w := serve(router, req)

	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Quote-Session"))
	assert.Empty(t, w.Header().Get(HeaderSessionID))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(ContextLogger(slog.New(slog.NewJSONHandler(&buf, nil))), RequestID())
	router.GET("/", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	serve(router, req)

	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
}

func TestIDFromContext_Unset(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.Empty(t, SessionIDFromContext(nil)) //nolint:staticcheck // nil context is handled
}

func TestExtractClaims(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.AuthConfig
		headers map[string]string
		want    *Claims
	}{
		{
			name: "default headers",
			headers: map[string]string{
				"X-User-ID":     "user-1",
				"X-User-Roles":  "editor, admin,",
				"X-User-Scopes": "quotes:read  quotes:write",
			},
			want: &Claims{Subject: "user-1", Roles: []string{"editor", "admin"}, Scopes: []string{"quotes:read", "quotes:write"}},
		},
		{
			name:    "custom subject header",
			cfg:     &config.AuthConfig{SubjectHeader: "X-Sub"},
			headers: map[string]string{"X-Sub": "user-2", "X-User-ID": "ignored"},
			want:    &Claims{Subject: "user-2", Scopes: []string{}},
		},
		{
			name: "nothing",
			want: &Claims{Scopes: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			got := ExtractClaims(c, tt.cfg)

			assert.Equal(t, tt.want.Subject, got.Subject)
			assert.Equal(t, tt.want.Roles, got.Roles)
			assert.ElementsMatch(t, tt.want.Scopes, got.Scopes)
		})
	}
}

func TestClaims(t *testing.T) {
	claims := &Claims{Roles: []string{"admin"}, Scopes: []string{"quotes:write"}}

	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("editor"))
	assert.True(t, claims.HasScope("quotes:write"))
	assert.False(t, claims.HasScope("quotes:sync"))
}

func TestRequireAuthAndScope(t *testing.T) {
	router := gin.New()
	router.POST("/import", RequireAuth(nil), RequireScope(nil, "quotes:write"), func(c *gin.Context) {
		assert.Equal(t, "user-1", GetClaims(c).Subject)
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"anonymous", nil, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"missing scope", map[string]string{"X-User-ID": "user-1"}, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"granted", map[string]string{"X-User-ID": "user-1", "X-User-Scopes": "quotes:write"}, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/import", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			w := serve(router, req)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode != "" {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestRequireScope_WithoutRequireAuth(t *testing.T) {
	router := gin.New()
	router.GET("/", RequireScope(nil, "quotes:sync"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Scopes", "quotes:sync")

	assert.Equal(t, http.StatusOK, serve(router, req).Code)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(func(c *gin.Context) {
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
	}, Logging("/favicon.ico"))
	router.GET("/api/v1/quotes/:x", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/-/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, httptest.NewRequest(http.MethodGet, "/-/live", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Empty(t, buf.String())

	serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random?category=Life", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/v1/quotes/:x", entry["route"])
	assert.Equal(t, "category=Life", entry["query"])
	assert.InDelta(t, float64(http.StatusNotFound), entry["status"], 0)
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(*gin.Context) { panic("boom") })
	router.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	w := serve(router, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
	assert.Equal(t, "req-9", resp.TraceID)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/late", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(50*time.Millisecond, "/export"))

	hasDeadline := func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	}
	router.GET("/quotes", hasDeadline)
	router.GET("/export", hasDeadline)

	assert.JSONEq(t, `{"deadline":true}`, serve(router, httptest.NewRequest(http.MethodGet, "/quotes", nil)).Body.String())
	assert.JSONEq(t, `{"deadline":false}`, serve(router, httptest.NewRequest(http.MethodGet, "/export", nil)).Body.String())
}

func TestTimeout_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(0))
	router.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
}
