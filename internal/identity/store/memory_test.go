package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/identity/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) newUser(email string) *models.User {
	user, err := models.NewUser(id.NewUserID(), "Test User", email,
		id.RoleStudent, id.NewCollegeID(), "hash", "verify-"+email, s.now)
	s.Require().NoError(err)
	return user
}

func (s *UserStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID and email", func() {
		user := s.newUser("a@x.edu")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, user))

		byID, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(s.ctx, "A@X.EDU")
		s.Require().NoError(err)
		s.Equal(user.ID, byEmail.ID)
	})

	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, s.newUser("dup@x.edu")))
		err := s.store.CreateIfEmailAvailable(s.ctx, s.newUser("dup@x.edu"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *UserStoreSuite) TestVerificationToken() {
	s.Run("consumes a valid token once", func() {
		user := s.newUser("v@x.edu")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, user))

		verified, err := s.store.ConsumeVerificationToken(s.ctx, "verify-v@x.edu", s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.True(verified.IsVerified)

		_, err = s.store.ConsumeVerificationToken(s.ctx, "verify-v@x.edu", s.now.Add(time.Hour))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects an expired token", func() {
		user := s.newUser("late@x.edu")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, user))

		_, err := s.store.ConsumeVerificationToken(s.ctx, "verify-late@x.edu", s.now.Add(25*time.Hour))
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})
}

func (s *UserStoreSuite) TestResetToken() {
	user := s.newUser("r@x.edu")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, user))
	expiry := s.now.Add(30 * time.Minute)
	s.Require().NoError(s.store.SetResetToken(s.ctx, user.ID, "token-hash", expiry))

	s.Run("rejects after expiry", func() {
		_, err := s.store.ConsumeResetToken(s.ctx, "token-hash", "new-hash", expiry.Add(time.Second))
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("only one concurrent consumer wins", func() {
		const racers = 16
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.store.ConsumeResetToken(s.ctx, "token-hash", "new-hash", s.now.Add(time.Minute))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			}
		}
		s.Equal(1, wins)

		got, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("new-hash", got.Credentials.PasswordHash)
		s.Empty(got.Credentials.ResetTokenHash)
	})
}

func (s *UserStoreSuite) TestProfileAndLogin() {
	user := s.newUser("p@x.edu")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, user))

	s.Require().NoError(s.store.UpdateProfile(s.ctx, user.ID, models.Profile{
		Bio:    "hello",
		Skills: []string{"go"},
	}, s.now))
	s.Require().NoError(s.store.UpdateLastLogin(s.ctx, user.ID, s.now))

	got, err := s.store.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("hello", got.Profile.Bio)
	s.Equal(s.now, got.LastLogin)
}
