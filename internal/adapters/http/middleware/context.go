// Package middleware provides the gin middleware chain: request, correlation
// and session ids, gateway claims, request logging, panic recovery and
// deadlines.
package middleware

import "context"

type contextKey string

const (
	ctxKeyRequestID     contextKey = "request_id"
	ctxKeyCorrelationID contextKey = "correlation_id"
	ctxKeySessionID     contextKey = "session_id"
)

func valueFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}

// RequestIDFromContext returns the request id, or "" when unset. Outbound
// clients use it to propagate the id downstream.
func RequestIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation id, or "" when unset.
func CorrelationIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeyCorrelationID)
}

// SessionIDFromContext returns the caller's session id, or "" when unset.
func SessionIDFromContext(ctx context.Context) string {
	return valueFromContext(ctx, ctxKeySessionID)
}

// ContextWithRequestID stores a request id in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores a correlation id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// ContextWithSessionID stores a session id in ctx.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}
