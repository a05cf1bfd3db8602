// Package service provides the session and catalog operations behind the API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

// DefaultIdleTTL is how long a session may sit without messages before it
// is evicted.
const DefaultIdleTTL = 2 * time.Hour

var (
	// ErrSessionBusy is returned when a session already has a turn in flight.
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionNotFound is returned for sessions that have never seen a message.
	ErrSessionNotFound = errors.New("session not found")
)

type sessionKey struct {
	tenantID  string
	sessionID string
}

// session holds one conversation. state is replaced, never mutated, so a
// pointer read under mu is a stable snapshot.
type session struct {
	mu       sync.RWMutex
	state    *model.ConversationState
	turn     *semaphore.Weighted
	lastSeen time.Time
}

func (s *session) snapshot() *model.ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *session) commit(st *model.ConversationState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// SessionStore keeps conversation state in memory, isolated per tenant and
// session id. Sessions idle for longer than the idle TTL are dropped by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*session
	idleTTL  time.Duration
	now      func() time.Time
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithIdleTTL overrides DefaultIdleTTL. Non-positive values keep the default.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// NewSessionStore creates an empty store.
func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[sessionKey]*session),
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) lookup(tenantID, sessionID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionKey{tenantID, sessionID}]
	return sess, ok
}

func (s *SessionStore) getOrCreate(tenantID, sessionID string) *session {
	now := s.now()
	if sess, ok := s.lookup(tenantID, sessionID); ok {
		sess.touch(now)
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{tenantID, sessionID}
	if sess, ok := s.sessions[key]; ok {
		sess.touch(now)
		return sess
	}
	sess := &session{
		state:    model.NewConversationState(now),
		turn:     semaphore.NewWeighted(1),
		lastSeen: now,
	}
	s.sessions[key] = sess
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	return sess
}

// Get returns a copy of the session's committed state.
func (s *SessionStore) Get(tenantID, sessionID string) (*model.ConversationState, error) {
	sess, ok := s.lookup(tenantID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.snapshot().Clone(), nil
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the idle TTL and returns how
// many were removed. Sessions with a turn in flight are kept.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, sess := range s.sessions {
		if !sess.idleSince().Before(cutoff) {
			continue
		}
		if !sess.turn.TryAcquire(1) {
			continue
		}
		delete(s.sessions, key)
		sess.turn.Release(1)
		removed++
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
