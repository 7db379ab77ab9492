package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID carries the id of a business transaction that may
	// span several services.
	HeaderCorrelationID = "X-Correlation-ID"

	// HeaderSessionID carries the caller's browsing session. Last viewed
	// quotes are scoped to it.
	HeaderSessionID = "X-Session-ID"

	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
	ContextKeySessionID     = "session_id"
)

type idMiddlewareConfig struct {
	header     string
	ginKey     string
	withID     func(context.Context, string) context.Context
	logKey     string
}

// idMiddleware reads the id from its header or generates a UUID, then
// echoes it on the response and stores it in both contexts and the context
// logger.
func idMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(cfg.ginKey, id)
		c.Header(cfg.header, id)

		ctx := logging.With(cfg.withID(c.Request.Context(), id), cfg.logKey, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestID propagates or generates X-Request-ID.
func RequestID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header:     HeaderRequestID,
		ginKey:     ContextKeyRequestID,
		withID:     ContextWithRequestID,
		logKey:     ContextKeyRequestID,
	})
}

// CorrelationID propagates or generates X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header:     HeaderCorrelationID,
		ginKey:     ContextKeyCorrelationID,
		withID:     ContextWithCorrelationID,
		logKey:     ContextKeyCorrelationID,
	})
}

// SessionID propagates the session header (HeaderSessionID when header is
// empty) or starts a new session. Clients keep the echoed id to see their
// last viewed quote on later requests.
func SessionID(header string) gin.HandlerFunc {
	if header == "" {
		header = HeaderSessionID
	}

	return idMiddleware(idMiddlewareConfig{
		header:     header,
		ginKey:     ContextKeySessionID,
		withID:     ContextWithSessionID,
		logKey:     ContextKeySessionID,
	})
}

func idFromGin(c *gin.Context, key string) string {
	return c.GetString(key)
}

// GetRequestID returns the request id, or "" outside the middleware.
func GetRequestID(c *gin.Context) string {
	return idFromGin(c, ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id, or "" outside the middleware.
func GetCorrelationID(c *gin.Context) string {
	return idFromGin(c, ContextKeyCorrelationID)
}

// GetSessionID returns the session id, or "" outside the middleware.
func GetSessionID(c *gin.Context) string {
	return idFromGin(c, ContextKeySessionID)
}
