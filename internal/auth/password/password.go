// Package password wraps adaptive one-way password hashing.
//
// bcrypt is deliberately slow; callers on single-threaded request paths
// should hash on a worker goroutine. Verification is constant-time with
// respect to the correctness signal (bcrypt compares internally with
// subtle.ConstantTimeCompare).
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the original system's salt rounds.
const DefaultCost = 12

// Hasher hashes and verifies passwords at a fixed cost factor.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. Costs below bcrypt.MinCost fall back to
// DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives the salted one-way hash of raw.
func (h *Hasher) Hash(raw string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether raw matches the stored hash.
func (h *Hasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
