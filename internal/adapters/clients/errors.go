// Package clients is the resilient HTTP client the remote quote source is
// reached through: retries with backoff, a circuit breaker, tracing and
// metrics.
package clients

import "errors"

// Transport-level failures. The acl package turns them into domain errors.
var (
	// ErrCircuitOpen means the breaker rejected the call without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is used.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
