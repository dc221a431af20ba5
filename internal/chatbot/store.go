package chatbot

import (
	"sync"
	"time"
)

// SessionTTL is the sliding inactivity window after which a session is
// silently discarded.
const SessionTTL = 30 * time.Minute

// SessionStore is an in-memory, concurrency-safe map from requester id
// to in-progress session. Expiry is evaluated lazily on Get rather than
// by a background sweep. The store-wide mutex only guards map access;
// turn-level serialization for one requester goes through Lock, so
// distinct requesters never wait on each other's dialogue turns.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	lockMu sync.Mutex
	locks  map[string]*keyLock

	now func() time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*keyLock),
		now:      time.Now,
	}
}

// Get returns the live session for key. A session idle longer than
// SessionTTL is deleted as a side effect and reported as absent.
func (s *SessionStore) Get(key string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LastUpdated) > SessionTTL {
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have
		// refreshed the entry.
		if cur, ok := s.sessions[key]; ok && s.now().Sub(cur.LastUpdated) > SessionTTL {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return sess, true
}

// Put inserts or overwrites the session for key and refreshes its
// LastUpdated timestamp.
func (s *SessionStore) Put(key string, sess *Session) {
	sess.LastUpdated = s.now()
	s.mu.Lock()
	s.sessions[key] = sess
	s.mu.Unlock()
}

// Delete removes the session for key unconditionally.
func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// Len reports the number of sessions currently held, including entries
// whose expiry has not been observed yet.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Lock acquires the per-key mutex serializing a whole message turn for
// one requester and returns the matching unlock. Locks are created on
// demand and reference-counted away when the last holder releases, so
// the lock table stays proportional to in-flight turns.
func (s *SessionStore) Lock(key string) (unlock func()) {
	s.lockMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.lockMu.Unlock()
	}
}
