// Package revocation tracks revoked session token IDs until their natural
// expiry. Tokens stay verifiable without a round trip; only logout puts a
// jti here, so the list stays small.
package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemory is the test/dev revocation list. Entries are pruned lazily on
// read.
type InMemory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewInMemory constructs an empty revocation list.
func NewInMemory() *InMemory {
	return &InMemory{revoked: make(map[string]time.Time)}
}

// Revoke marks a jti revoked for ttl.
func (s *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether the jti is on the list and not yet expired.
func (s *InMemory) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	s.mu.RLock()
	until, ok := s.revoked[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		s.mu.Lock()
		delete(s.revoked, jti)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
