// Package memory provides in-process implementations of the key-value and
// session ports. The durable store uses it when storage.driver is "memory";
// the HTTP adapter always keeps sessions here.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Store is a mutex-guarded map implementing ports.KeyValueStore.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", domain.NewNotFoundError("key", key)
	}

	return v, nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

// Compile-time interface checks.
var (
	_ ports.KeyValueStore = (*Store)(nil)
	_ ports.SessionStore  = (*SessionStore)(nil)
)

type session struct {
	store    *Store
	lastSeen time.Time
}

// SessionStore keeps one Store per session id. A session that has not been
// touched for longer than the idle TTL is discarded on the next access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

// NewSessionStore creates a session store. A ttl of zero keeps sessions
// until they are ended explicitly.
func NewSessionStore(ttl time.Duration, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Session implements ports.SessionStore.
func (s *SessionStore) Session(_ context.Context, id string) ports.KeyValueStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{store: NewStore()}
		s.sessions[id] = sess
	}

	sess.lastSeen = now

	return sess.store
}

// End implements ports.SessionStore.
func (s *SessionStore) End(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)

	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())

	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}

	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
