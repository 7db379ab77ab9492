package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return c, w
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := map[string]int{
		ErrorCodeNotFound:     http.StatusNotFound,
		ErrorCodeConflict:     http.StatusConflict,
		ErrorCodeValidation:   http.StatusBadRequest,
		ErrorCodeBadRequest:   http.StatusBadRequest,
		ErrorCodeForbidden:    http.StatusForbidden,
		ErrorCodeUnauthorized: http.StatusUnauthorized,
		ErrorCodeUnavailable:  http.StatusServiceUnavailable,
		ErrorCodeTimeout:      http.StatusGatewayTimeout,
		ErrorCodeInternal:     http.StatusInternalServerError,
		"SOMETHING_ELSE":      http.StatusInternalServerError,
	}

	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, HTTPStatusFromCode(code))
		})
	}
}

func TestNewErrorResponseWithDetails(t *testing.T) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "invalid", map[string]string{"text": "required"}).
		WithTraceID("trace-1")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"error":{"code":"VALIDATION_ERROR","message":"invalid","details":{"text":"required"}},"traceId":"trace-1"}`,
		string(raw))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"empty text", domain.ErrEmptyText, http.StatusBadRequest, ErrorCodeValidation, "quote text is required"},
		{"duplicate text", domain.ErrDuplicateText, http.StatusConflict, ErrorCodeConflict, "already exists"},
		{"import format", fmt.Errorf("decoding: %w", domain.ErrImportFormat), http.StatusBadRequest, ErrorCodeValidation, "quotes array"},
		{"no quotes", domain.ErrNoQuotesInCategory, http.StatusNotFound, ErrorCodeNotFound, "quotes in category"},
		{"remote fetch", fmt.Errorf("%w: timeout", domain.ErrRemoteFetch), http.StatusServiceUnavailable, ErrorCodeUnavailable, "temporarily unavailable"},
		{"forbidden", domain.NewForbiddenError("import", "read only"), http.StatusForbidden, ErrorCodeForbidden, "import"},
		{"unclassified", errors.New("disk on fire"), http.StatusInternalServerError, ErrorCodeInternal, "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
}

func TestMapError_ValidationDetails(t *testing.T) {
	_, resp := MapError(domain.ErrEmptyText)
	assert.Equal(t, map[string]string{"text": "quote text is required"}, resp.Error.Details)

	_, resp = MapError(domain.NewValidationError("", "bad"))
	assert.Nil(t, resp.Error.Details)
}

func TestMapError_DoesNotLeakInternals(t *testing.T) {
	_, resp := MapError(errors.New("pq: password authentication failed for user admin"))
	assert.NotContains(t, resp.Error.Message, "admin")
}

func TestHandleError(t *testing.T) {
	c, w := newTestContext()
	c.Set("trace_id", "trace-123")

	HandleError(c, domain.ErrNoQuotesInCategory)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeNotFound, resp.Error.Code)
	assert.Equal(t, "trace-123", resp.TraceID)
}

func TestAbortWithCode(t *testing.T) {
	c, w := newTestContext()

	AbortWithCode(c, ErrorCodeUnauthorized, "authentication required")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestGetTraceID(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x0a, 0x0b},
		SpanID:  trace.SpanID{0x01},
	})

	tests := []struct {
		name  string
		setup func(*gin.Context)
		want  string
	}{
		{
			name:  "context value",
			setup: func(c *gin.Context) { c.Set("trace_id", "ctx-trace") },
			want:  "ctx-trace",
		},
		{
			name: "context value wins over header",
			setup: func(c *gin.Context) {
				c.Set("trace_id", "ctx-trace")
				c.Request.Header.Set("X-Request-ID", "req-1")
			},
			want: "ctx-trace",
		},
		{
			name: "active span",
			setup: func(c *gin.Context) {
				c.Request = c.Request.WithContext(trace.ContextWithSpanContext(context.Background(), spanCtx))
				c.Request.Header.Set("X-Request-ID", "req-1")
			},
			want: spanCtx.TraceID().String(),
		},
		{
			name:  "request id header",
			setup: func(c *gin.Context) { c.Request.Header.Set("X-Request-ID", "req-1") },
			want:  "req-1",
		},
		{
			name:  "wrong type",
			setup: func(c *gin.Context) { c.Set("trace_id", 42) },
			want:  "",
		},
		{
			name:  "nothing",
			setup: func(*gin.Context) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}
