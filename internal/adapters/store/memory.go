package store

import (
	"context"
	"sync"

	"agora/internal/domain/auth"
)

// MemoryStore keeps the session for the lifetime of the process
type MemoryStore struct {
	mu      sync.RWMutex
	session *auth.Session
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements auth.SessionStore
func (s *MemoryStore) Load(ctx context.Context) (*auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	out := s.session.Clone()
	return &out, nil
}

// Save implements auth.SessionStore
func (s *MemoryStore) Save(ctx context.Context, session auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := session.Clone()
	s.session = &out
	return nil
}
