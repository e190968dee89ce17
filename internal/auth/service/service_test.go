package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/auth/password"
	"alumnet/internal/auth/store/revocation"
	"alumnet/internal/auth/token"
	collegeservice "alumnet/internal/college/service"
	collegestore "alumnet/internal/college/store"
	identityservice "alumnet/internal/identity/service"
	identitystore "alumnet/internal/identity/store"
	"alumnet/internal/notify"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	users      *identitystore.InMemory
	identities *identityservice.Service
	auth       *Service
	ctx        context.Context
	now        time.Time
}

func (s *AuthServiceSuite) SetupTest() {
	// Real time, not a fixed date: jwt validity is checked against the
	// wall clock during parsing.
	s.now = time.Now().UTC().Truncate(time.Second)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	logger := slog.New(slog.DiscardHandler)
	hasher := password.NewHasher(4)
	mailer := notify.LogMailer{Logger: logger}
	registry := collegeservice.NewRegistry(collegestore.NewInMemory())

	s.users = identitystore.NewInMemory()
	s.identities = identityservice.New(s.users, registry, hasher, mailer, logger)
	tokens := token.NewService(token.Config{
		SigningKey: []byte("auth-suite-key"),
		TTL:        time.Hour,
		Issuer:     "alumnet-test",
	})
	s.auth = New(s.identities, tokens, hasher, revocation.NewInMemory(), mailer, logger)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

// register creates an account and returns its email; verified controls
// whether the verification gate has been passed.
func (s *AuthServiceSuite) register(email string, verified bool) {
	res, err := s.identities.Register(s.ctx, "Test Person", email, "password123", "student", "Test College")
	s.Require().NoError(err)
	if verified {
		s.Require().NoError(s.identities.Verify(s.ctx, res.Identity.ID))
	}
}

func (s *AuthServiceSuite) TestLogin() {
	s.register("alice@login.edu", true)

	s.Run("succeeds with correct credentials", func() {
		res, err := s.auth.Login(s.ctx, "alice@login.edu", "password123")
		s.Require().NoError(err)
		s.NotEmpty(res.SessionToken)
		s.Equal("alice@login.edu", res.Identity.Email)
		s.Require().NotNil(res.Identity.LastLogin)
		s.Equal(s.now, *res.Identity.LastLogin)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		_, unknownErr := s.auth.Login(s.ctx, "nobody@login.edu", "password123")
		_, wrongErr := s.auth.Login(s.ctx, "alice@login.edu", "wrong-password")

		s.Require().Error(unknownErr)
		s.Require().Error(wrongErr)
		s.True(dErrors.HasCode(unknownErr, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(wrongErr, dErrors.CodeUnauthorized))
		s.Equal(unknownErr.Error(), wrongErr.Error())
	})

	s.Run("unverified account with correct password is forbidden", func() {
		s.register("pending@login.edu", false)
		_, err := s.auth.Login(s.ctx, "pending@login.edu", "password123")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects empty input", func() {
		_, err := s.auth.Login(s.ctx, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AuthServiceSuite) TestSessionLifecycle() {
	s.register("bob@session.edu", true)
	res, err := s.auth.Login(s.ctx, "bob@session.edu", "password123")
	s.Require().NoError(err)

	s.Run("verifies a live token", func() {
		session, err := s.auth.VerifySessionToken(s.ctx, res.SessionToken)
		s.Require().NoError(err)
		s.Equal(res.Identity.ID, session.UserID)
	})

	s.Run("rejects garbage", func() {
		_, err := s.auth.VerifySessionToken(s.ctx, "garbage")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("logout revokes the token", func() {
		s.Require().NoError(s.auth.Logout(s.ctx, res.SessionToken))
		_, err := s.auth.VerifySessionToken(s.ctx, res.SessionToken)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestPasswordReset() {
	s.register("carol@reset.edu", true)

	s.Run("reveals whether the email exists", func() {
		_, err := s.auth.BeginPasswordReset(s.ctx, "nobody@reset.edu")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("full reset flow, token single use", func() {
		plaintext, err := s.auth.BeginPasswordReset(s.ctx, "carol@reset.edu")
		s.Require().NoError(err)
		s.NotEmpty(plaintext)

		s.Require().NoError(s.auth.CompletePasswordReset(s.ctx, plaintext, "brand-new-password"))

		_, err = s.auth.Login(s.ctx, "carol@reset.edu", "password123")
		s.Require().Error(err, "old password no longer works")
		res, err := s.auth.Login(s.ctx, "carol@reset.edu", "brand-new-password")
		s.Require().NoError(err)
		s.NotEmpty(res.SessionToken)

		err = s.auth.CompletePasswordReset(s.ctx, plaintext, "another-password")
		s.Require().Error(err, "token cannot be consumed twice")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired token is rejected", func() {
		plaintext, err := s.auth.BeginPasswordReset(s.ctx, "carol@reset.edu")
		s.Require().NoError(err)

		late := requestcontext.WithTime(context.Background(), s.now.Add(31*time.Minute))
		err = s.auth.CompletePasswordReset(late, plaintext, "whatever-password")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects a short replacement password", func() {
		plaintext, err := s.auth.BeginPasswordReset(s.ctx, "carol@reset.edu")
		s.Require().NoError(err)

		err = s.auth.CompletePasswordReset(s.ctx, plaintext, "short")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
