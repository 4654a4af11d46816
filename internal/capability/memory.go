package capability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps capabilities in a mutex-protected map. Suitable for a
// single process; the delete under lock is the pop-if-present step that
// keeps redemption exactly-once.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]Token

	// now is swappable in tests.
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]Token),
		now:    time.Now,
	}
}

func (s *MemoryStore) Request(_ context.Context, owner, resource string, ttl time.Duration) (Token, error) {
	tok := Token{
		ID:        uuid.NewString(),
		Owner:     owner,
		Resource:  resource,
		ExpiresAt: s.now().UTC().Add(ClampTTL(ttl)),
	}
	s.mu.Lock()
	s.tokens[tok.ID] = tok
	s.mu.Unlock()
	return tok, nil
}

func (s *MemoryStore) Redeem(_ context.Context, id, requester string) (string, error) {
	s.mu.Lock()
	tok, ok := s.tokens[id]
	if ok {
		delete(s.tokens, id)
	}
	s.mu.Unlock()

	if !ok {
		return "", ErrNotFound
	}
	// The record is already gone; whatever happens below, this id is spent.
	if tok.Owner != requester {
		return "", ErrForbidden
	}
	if s.now().UTC().After(tok.ExpiresAt) {
		return "", ErrExpired
	}
	return tok.Resource, nil
}
