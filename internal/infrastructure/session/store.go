// Package session keeps per-user extraction sessions for the HTTP server.
// Sessions expire after a period of inactivity and the registry is bounded;
// the least recently used session is dropped when it is full.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Store is an expiring LRU of sessions keyed by uuid.
type Store struct {
	cache  *expirable.LRU[string, *entry]
	logger ports.Logger

	hooksMu sync.RWMutex
	hooks   []func(id string)
}

// NewStore creates a store holding at most maxSessions, each idle for at most ttl.
func NewStore(maxSessions int, ttl time.Duration, logger ports.Logger) *Store {
	if maxSessions <= 0 {
		maxSessions = domain.DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	s := &Store{logger: logger}
	s.cache = expirable.NewLRU[string, *entry](maxSessions, s.evicted, ttl)
	return s
}

// OnEvict registers fn to run whenever a session leaves the store, whether
// deleted, expired or pushed out by the size bound.
func (s *Store) OnEvict(fn func(id string)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) evicted(id string, _ *entry) {
	if s.logger != nil {
		s.logger.Debug("session evicted", map[string]interface{}{"session": id})
	}
	s.notify(id)
}

func (s *Store) notify(id string) {
	s.hooksMu.RLock()
	defer s.hooksMu.RUnlock()
	for _, fn := range s.hooks {
		fn(id)
	}
}

// Create registers a new empty session.
func (s *Store) Create(opts domain.SessionOptions) (*domain.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	sess := domain.NewSession(id.String(), opts)
	s.cache.Add(sess.ID, &entry{session: sess})
	return sess, nil
}

// Update runs fn with exclusive access to the session and refreshes its expiry.
func (s *Store) Update(id string, fn func(*domain.Session) error) error {
	e, ok := s.cache.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	if _, still := s.cache.Peek(id); still {
		s.cache.Add(id, e)
	} else {
		// evicted while fn ran; state fn attached to id must go too
		s.notify(id)
	}
	return err
}

// Delete drops the session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	return s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}

var _ ports.SessionStore = (*Store)(nil)
