package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for unit tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Identity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]Identity)}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.users[username]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return id, nil
}

func (s *MemoryStore) FindByVerificationToken(_ context.Context, token string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return Identity{}, ErrNotFound
	}
	for _, id := range s.users {
		if id.VerificationToken == token {
			return id, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id.Username]; ok {
		return ErrDuplicate
	}
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}
	s.users[id.Username] = id
	return nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	id.Verified = true
	id.VerificationToken = ""
	s.users[username] = id
	return nil
}
