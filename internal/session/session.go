// ABOUTME: In-memory browser session store keyed by a random cookie token
// ABOUTME: Sessions expire after a fixed TTL and carry a one-shot error message

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Session is the state attached to one browser. Username is empty until
// login succeeds; DBPath is empty until a path is bound. Both are owned by
// the requesting browser only and never shared across sessions.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu           sync.Mutex
	username     string
	dbPath       string
	pendingError string
}

// Username returns the authenticated identity, or "" if anonymous.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// SetUsername promotes the session to authenticated.
func (s *Session) SetUsername(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
}

// DBPath returns the bound database path, or "" if unbound.
func (s *Session) DBPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dbPath
}

// SetDBPath binds the session to a database path.
func (s *Session) SetDBPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dbPath = path
}

// SetError stores a message to show on the next render.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingError = msg
}

// TakeError returns the pending error and clears it, so the message is
// displayed exactly once. Concurrent takers race benignly: one gets the
// message, the rest get "".
func (s *Session) TakeError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.pendingError
	s.pendingError = ""
	return msg
}

// Store holds live sessions in memory. A background goroutine sweeps out
// expired entries; an expired session also reads as missing on Get, so the
// sweep is purely housekeeping.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	closed   bool
}

// NewStore creates a session store with the given fixed session lifetime.
func NewStore(ttl time.Duration) *Store {
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go st.sweep()
	return st
}

// Create makes a new anonymous session and returns it with its token.
func (st *Store) Create() (*Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now()
	s := &Session{
		ID:        token,
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
	}

	st.mu.Lock()
	st.sessions[token] = s
	st.mu.Unlock()

	return s, nil
}

// Get returns the session for a token, or nil if the token is unknown or
// the session has expired. Expiry is indistinguishable from never having
// had a session.
func (st *Store) Get(token string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[token]
	st.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(s.ExpiresAt) {
		st.Delete(token)
		return nil
	}
	return s
}

// Delete destroys a session. Identity, bound path and pending error all go
// with it. Deleting an unknown token is a no-op.
func (st *Store) Delete(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}

// Len reports the number of live (possibly expired, not yet swept) sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// sweep runs in a background goroutine, periodically removing expired sessions.
func (st *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.runSweep()
		case <-st.done:
			return
		}
	}
}

// runSweep removes all expired sessions from the store.
func (st *Store) runSweep() {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()
	for token, s := range st.sessions {
		if now.After(s.ExpiresAt) {
			delete(st.sessions, token)
		}
	}
}

// Close stops the background sweep goroutine. Safe to call multiple times.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.closed {
		close(st.done)
		st.closed = true
	}
}

// generateToken returns a cryptographically random hex token.
func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
