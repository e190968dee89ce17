package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alumnet/internal/auth/password"
	"alumnet/internal/auth/token"
	collegeservice "alumnet/internal/college/service"
	"alumnet/internal/identity/models"
	"alumnet/internal/notify"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/platform/sentinel"
	"alumnet/pkg/requestcontext"
)

// Store is the persistence contract for identities. CreateIfEmailAvailable
// must be atomic against the email uniqueness constraint;
// ConsumeResetToken must be a single atomic conditional update.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, userID id.UserID, now time.Time) error
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID id.UserID, now time.Time) error
	UpdateProfile(ctx context.Context, userID id.UserID, profile models.Profile, now time.Time) error
	SetResetToken(ctx context.Context, userID id.UserID, tokenHash string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (*models.User, error)
}

// RegistrationResult is what register hands back to the transport: the
// public projection plus whether the college gates access behind admin
// approval.
type RegistrationResult struct {
	Identity         *models.PublicProfile
	RequiresApproval bool
}

// Service owns the identity lifecycle: registration (the only path that
// creates colleges as a side effect), verification, and profile updates.
type Service struct {
	users    Store
	colleges *collegeservice.Registry
	hasher   *password.Hasher
	mailer   notify.Mailer
	logger   *slog.Logger
}

// New constructs the identity service.
func New(
	users Store,
	colleges *collegeservice.Registry,
	hasher *password.Hasher,
	mailer notify.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		colleges: colleges,
		hasher:   hasher,
		mailer:   mailer,
		logger:   logger,
	}
}

func wrapUserErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "email already registered")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	case err == nil:
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}

// Register validates the input, resolves (or implicitly creates) the
// college for the email's domain, and persists a new unverified identity.
// Returns the public projection and whether admin approval gates access.
//
// Errors: CodeValidation for malformed fields or a domain mismatch against
// an existing college, CodeConflict for an already-registered email.
func (s *Service) Register(ctx context.Context, fullName, email, rawPassword, roleName, collegeName string) (*RegistrationResult, error) {
	email = models.NormalizeEmail(email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(rawPassword); err != nil {
		return nil, err
	}
	role, err := id.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	// Duplicate check up front for a clean error; the store's unique
	// constraint still backs the race.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapUserErr(err)
	}

	college, err := s.colleges.ResolveOrCreate(ctx, email, collegeName)
	if err != nil {
		return nil, err
	}
	if !college.DomainMatches(email) {
		return nil, dErrors.New(dErrors.CodeValidation, "email domain does not match college")
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	verification, err := token.NewOpaque()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification token")
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.NewUserID(), fullName, email, role, college.ID, hash, verification, now)
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		return nil, wrapUserErr(err)
	}
	if err := s.colleges.IncrementRoleCounter(ctx, college.ID, role); err != nil {
		// The user row exists; a lost counter is recoverable, a failed
		// registration is not. Log and continue.
		s.logger.WarnContext(ctx, "role counter increment failed",
			"college_id", college.ID.String(), "role", role.String(), "error", err)
	}

	if err := s.mailer.VerificationRequested(ctx, user.Email, verification); err != nil {
		s.logger.WarnContext(ctx, "verification notification failed",
			"email", user.Email, "error", err)
	}

	return &RegistrationResult{
		Identity:         user.Public(),
		RequiresApproval: college.Settings.RequireAdminApproval,
	}, nil
}

// FindByEmail returns the full user record. Internal callers only; the
// transport layer works with Public projections.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// FindByID returns the full user record.
func (s *Service) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// PublicProfile returns the projection safe to send outside the core.
func (s *Service) PublicProfile(ctx context.Context, userID id.UserID) (*models.PublicProfile, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Verify marks the account approved. Called by the admin-approval
// collaborator; the verification token is cleared on first use.
func (s *Service) Verify(ctx context.Context, userID id.UserID) error {
	if userID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	if err := s.users.MarkVerified(ctx, userID, requestcontext.Now(ctx)); err != nil {
		return wrapUserErr(err)
	}
	return nil
}

// VerifyByToken redeems an emailed verification token. The store makes
// redemption single use.
//
// Errors: CodeUnauthorized for an unknown or expired token.
func (s *Service) VerifyByToken(ctx context.Context, plaintextToken string) (*models.PublicProfile, error) {
	if plaintextToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired verification token")
	}
	user, err := s.users.ConsumeVerificationToken(ctx, plaintextToken, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired verification token")
		}
		return nil, wrapUserErr(err)
	}
	s.logger.InfoContext(ctx, "account verified", "user_id", user.ID.String())
	return user.Public(), nil
}

// StampLastLogin records a successful authentication.
func (s *Service) StampLastLogin(ctx context.Context, userID id.UserID, now time.Time) error {
	if err := s.users.UpdateLastLogin(ctx, userID, now); err != nil {
		return wrapUserErr(err)
	}
	return nil
}

// StoreResetToken persists the hash and expiry of an issued reset token,
// replacing any outstanding one.
func (s *Service) StoreResetToken(ctx context.Context, userID id.UserID, tokenHash string, expiry time.Time) error {
	if err := s.users.SetResetToken(ctx, userID, tokenHash, expiry); err != nil {
		return wrapUserErr(err)
	}
	return nil
}

// ConsumeResetToken atomically redeems a reset token hash for a password
// replacement. The store guarantees single use.
func (s *Service) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	user, err := s.users.ConsumeResetToken(ctx, tokenHash, newPasswordHash, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "reset token expired")
		}
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// UpdateProfile replaces the caller's own profile fields. Ownership is the
// guard layer's concern; this method trusts userID.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, profile models.Profile) (*models.PublicProfile, error) {
	if len(profile.Bio) > 500 {
		return nil, dErrors.New(dErrors.CodeValidation, "bio cannot exceed 500 characters")
	}
	now := requestcontext.Now(ctx)
	if err := s.users.UpdateProfile(ctx, userID, profile, now); err != nil {
		return nil, wrapUserErr(err)
	}
	return s.PublicProfile(ctx, userID)
}
