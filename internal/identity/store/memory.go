package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alumnet/internal/identity/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Error Contract:
// - sentinel.ErrNotFound when the user does not exist
// - sentinel.ErrConflict when the email is already registered
// - sentinel.ErrExpired / ErrAlreadyUsed from the reset-consume path
// - nil on success

// InMemory stores users in memory for tests and development. One mutex
// covers every map, so the conditional updates the reset flow needs are
// naturally atomic.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Profile.Skills = append([]string(nil), u.Profile.Skills...)
	cp.Profile.MentorTopics = append([]string(nil), u.Profile.MentorTopics...)
	return &cp
}

// CreateIfEmailAvailable inserts the user only when the email is unclaimed.
// Email uniqueness is global, not per college.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("email %q: %w", user.Email, sentinel.ErrConflict)
	}
	s.byID[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

// FindByID retrieves a user by ID.
func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[userID]; ok {
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
}

// FindByEmail retrieves a user by normalized email.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[models.NormalizeEmail(email)]; ok {
		return cloneUser(s.byID[userID]), nil
	}
	return nil, fmt.Errorf("user email: %w", sentinel.ErrNotFound)
}

// MarkVerified flips IsVerified and clears the verification token.
func (s *InMemory) MarkVerified(_ context.Context, userID id.UserID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	u.ApplyVerification(now)
	return nil
}

// ConsumeVerificationToken atomically finds the user holding the token
// with an unexpired window and marks the account verified. Single use:
// verification clears the token under the same lock.
func (s *InMemory) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Credentials.VerificationToken == "" || u.Credentials.VerificationToken != token {
			continue
		}
		if now.After(u.Credentials.VerificationTokenExpiry) {
			return nil, fmt.Errorf("verification token: %w", sentinel.ErrExpired)
		}
		u.ApplyVerification(now)
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("verification token: %w", sentinel.ErrNotFound)
}

// UpdateLastLogin stamps the login time.
func (s *InMemory) UpdateLastLogin(_ context.Context, userID id.UserID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	u.LastLogin = now
	return nil
}

// UpdateProfile replaces the owner-mutable profile fields.
func (s *InMemory) UpdateProfile(_ context.Context, userID id.UserID, profile models.Profile, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	u.Profile = profile
	u.UpdatedAt = now
	return nil
}

// SetResetToken stores the hash and expiry of a freshly issued reset token,
// replacing any previous one.
func (s *InMemory) SetResetToken(_ context.Context, userID id.UserID, tokenHash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	u.Credentials.ResetTokenHash = tokenHash
	u.Credentials.ResetTokenExpiry = expiry
	return nil
}

// ConsumeResetToken atomically finds the user holding tokenHash with an
// unexpired window, replaces the password hash, and clears the token. The
// read-check-clear happens under one lock, so two concurrent consumers of
// the same token cannot both succeed.
func (s *InMemory) ConsumeResetToken(_ context.Context, tokenHash string, newPasswordHash string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Credentials.ResetTokenHash == "" || u.Credentials.ResetTokenHash != tokenHash {
			continue
		}
		if now.After(u.Credentials.ResetTokenExpiry) {
			return nil, fmt.Errorf("reset token: %w", sentinel.ErrExpired)
		}
		u.Credentials.PasswordHash = newPasswordHash
		u.Credentials.ResetTokenHash = ""
		u.Credentials.ResetTokenExpiry = time.Time{}
		u.UpdatedAt = now
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("reset token: %w", sentinel.ErrNotFound)
}
