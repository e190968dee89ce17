package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alumnet/internal/auth/password"
	"alumnet/internal/auth/token"
	identitymodels "alumnet/internal/identity/models"
	identityservice "alumnet/internal/identity/service"
	"alumnet/internal/notify"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/platform/sentinel"
	"alumnet/pkg/requestcontext"
)

// resetTokenTTL bounds the password-reset window.
const resetTokenTTL = 30 * time.Minute

// RevocationList tracks logged-out token IDs until natural expiry.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginResult pairs the public identity with its session token.
type LoginResult struct {
	Identity     *identitymodels.PublicProfile
	SessionToken string
}

// Service owns credentials and sessions: login, bearer-token issuance and
// verification, logout, and the password-reset token lifecycle.
type Service struct {
	identities *identityservice.Service
	tokens     *token.Service
	hasher     *password.Hasher
	revoked    RevocationList
	mailer     notify.Mailer
	logger     *slog.Logger
}

// New constructs the credential and session service.
func New(
	identities *identityservice.Service,
	tokens *token.Service,
	hasher *password.Hasher,
	revoked RevocationList,
	mailer notify.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		identities: identities,
		tokens:     tokens,
		hasher:     hasher,
		revoked:    revoked,
		mailer:     mailer,
		logger:     logger,
	}
}

// errInvalidCredentials is deliberately identical for unknown email and
// wrong password so login cannot be used to enumerate accounts.
func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

// Login authenticates by email and password.
//
// Errors: CodeUnauthorized with a uniform message for unknown email or
// wrong password; CodeForbidden for a correct password on an unverified
// account (verification state is only revealed after the password check).
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	if email == "" || rawPassword == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}

	if !s.hasher.Verify(rawPassword, user.Credentials.PasswordHash) {
		return nil, errInvalidCredentials()
	}

	if !user.IsVerified {
		return nil, dErrors.New(dErrors.CodeForbidden, "account pending verification")
	}

	now := requestcontext.Now(ctx)
	signed, err := s.tokens.Issue(user.ID, user.Role, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	if err := s.identities.StampLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "last login stamp failed", "user_id", user.ID.String(), "error", err)
	}
	user.LastLogin = now

	return &LoginResult{Identity: user.Public(), SessionToken: signed}, nil
}

// VerifySessionToken checks the bearer token and the revocation list and
// returns the bound user id.
//
// Errors: CodeUnauthorized with "token expired" or "invalid token".
func (s *Service) VerifySessionToken(ctx context.Context, bearer string) (*token.Session, error) {
	session, err := s.tokens.Verify(bearer)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	revoked, err := s.revoked.IsRevoked(ctx, session.JTI)
	if err != nil {
		// Fail closed: an unreachable revocation list must not admit a
		// possibly revoked token.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation list unavailable")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return session, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, bearer string) error {
	session, err := s.VerifySessionToken(ctx, bearer)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Revoke(ctx, session.JTI, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
	}
	return nil
}

// BeginPasswordReset issues an opaque reset token, stores only its hash
// with a 30-minute expiry, and returns the plaintext for out-of-band
// delivery. Unlike login, this path intentionally reveals whether the
// email exists: reset is initiated by the account owner.
//
// Errors: CodeNotFound when no account holds the email.
func (s *Service) BeginPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	plaintext, err := token.NewOpaque()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate reset token")
	}

	now := requestcontext.Now(ctx)
	if err := s.identities.StoreResetToken(ctx, user.ID, token.HashOpaque(plaintext), now.Add(resetTokenTTL)); err != nil {
		return "", err
	}

	if err := s.mailer.ResetRequested(ctx, user.Email, plaintext); err != nil {
		s.logger.WarnContext(ctx, "reset notification failed", "email", user.Email, "error", err)
	}
	return plaintext, nil
}

// CompletePasswordReset consumes a reset token and replaces the password.
// The store performs the match-check-clear-replace as one atomic
// conditional update, so a token consumed once can never be consumed
// again, and the password never changes without the token clearing.
//
// Errors: CodeUnauthorized "invalid or expired reset token" for unknown,
// consumed, or stale tokens.
func (s *Service) CompletePasswordReset(ctx context.Context, plaintextToken, newPassword string) error {
	if plaintextToken == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired reset token")
	}
	if err := identitymodels.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	_, err = s.identities.ConsumeResetToken(ctx, token.HashOpaque(plaintextToken), newHash, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return err
	}
	return nil
}
