package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory behind a single mutex,
// which serializes access per session as the Store contract requires.
// Suitable for tests and single-instance deployments; use RedisStore
// when sessions must survive restarts or span instances.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Session
	byToken map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*Session),
		byToken: make(map[string]uuid.UUID),
	}
}

// GetByToken returns a copy of the session bound to the given token.
func (s *MemoryStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	sess, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *sess
	return &cp, nil
}

// Save stores the session, re-indexing the token when it rotated.
func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byID[sess.ID]; ok && prev.Token != sess.Token {
		delete(s.byToken, prev.Token)
	}

	cp := *sess
	s.byID[sess.ID] = &cp
	s.byToken[sess.Token] = sess.ID
	return nil
}

// Delete removes the session record entirely.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byToken, sess.Token)
	delete(s.byID, id)
	return nil
}

// DeleteExpired sweeps out sessions past their expiry.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.byID {
		if sess.IsExpired() {
			delete(s.byToken, sess.Token)
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}
