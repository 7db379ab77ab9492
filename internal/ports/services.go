// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// KeyValueStore is a string-keyed store of string values. The quote store
// keeps its durable state in one, and every session gets its own.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key has never been set or was deleted.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// SessionStore hands out per-session key-value stores. Values stored in a
// session are dropped when the session ends or expires.
type SessionStore interface {
	// Session returns the store for the session id, creating it on first use.
	Session(ctx context.Context, id string) KeyValueStore

	// End discards everything stored for the session id.
	End(ctx context.Context, id string) error
}

// RemoteQuotes is the remote quote source the collection is synchronized with.
type RemoteQuotes interface {
	// FetchQuotes pulls the current server-side quotes, already translated
	// into domain quotes. Failures wrap domain.ErrRemoteFetch.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PostQuote forwards a locally created quote. Failures wrap
	// domain.ErrRemotePost.
	PostQuote(ctx context.Context, q domain.Quote) error
}

// SnapshotArchive keeps exported snapshots outside the service.
type SnapshotArchive interface {
	// Put stores data under name and returns where it was written.
	Put(ctx context.Context, name string, data []byte) (string, error)
}
