package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/referral/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

type ReferralStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *ReferralStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestReferralStoreSuite(t *testing.T) {
	suite.Run(t, new(ReferralStoreSuite))
}

func (s *ReferralStoreSuite) newReferral(studentID, alumniID id.UserID, collegeID id.CollegeID, at time.Time) *models.Referral {
	referral, err := models.NewReferral(collegeID, studentID, alumniID, models.Referral{
		Company:  "Acme",
		Position: "Engineer",
		JobURL:   "https://acme.example/jobs/1",
		Message:  "please refer me",
	}, at)
	s.Require().NoError(err)
	return referral
}

func (s *ReferralStoreSuite) TestCreateAndFind() {
	collegeID := id.NewCollegeID()
	referral := s.newReferral(id.NewUserID(), id.NewUserID(), collegeID, s.now)

	s.Require().NoError(s.store.Create(s.ctx, referral))

	s.Run("duplicate id conflicts", func() {
		s.ErrorIs(s.store.Create(s.ctx, referral), sentinel.ErrConflict)
	})

	s.Run("found by id", func() {
		got, err := s.store.FindByID(s.ctx, referral.ID)
		s.Require().NoError(err)
		s.Equal(referral.ID, got.ID)
	})

	s.Run("unknown id not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewReferralID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reads are isolated from the caller", func() {
		accepted := s.newReferral(id.NewUserID(), id.NewUserID(), collegeID, s.now)
		accepted.ApplyResponse(true, "", s.now)
		s.Require().NoError(s.store.Create(s.ctx, accepted))

		got, err := s.store.FindByID(s.ctx, accepted.ID)
		s.Require().NoError(err)
		got.Status = models.StatusHired
		got.History[0].Status = models.StatusHired

		again, err := s.store.FindByID(s.ctx, accepted.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, again.Status)
		s.Equal(models.StatusAccepted, again.History[0].Status)
	})
}

func (s *ReferralStoreSuite) TestLists() {
	collegeID := id.NewCollegeID()
	studentID := id.NewUserID()
	alumniID := id.NewUserID()

	older := s.newReferral(studentID, alumniID, collegeID, s.now)
	newer := s.newReferral(studentID, alumniID, collegeID, s.now.Add(time.Hour))
	other := s.newReferral(id.NewUserID(), id.NewUserID(), id.NewCollegeID(), s.now)
	for _, r := range []*models.Referral{older, newer, other} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	s.Run("by student, newest first", func() {
		got, err := s.store.ListByStudent(s.ctx, studentID)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(newer.ID, got[0].ID)
		s.Equal(older.ID, got[1].ID)
	})

	s.Run("by alumni", func() {
		got, err := s.store.ListByAlumni(s.ctx, alumniID)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("by college excludes other tenants", func() {
		got, err := s.store.ListByCollege(s.ctx, collegeID)
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

func (s *ReferralStoreSuite) TestExecute() {
	referral := s.newReferral(id.NewUserID(), id.NewUserID(), id.NewCollegeID(), s.now)
	s.Require().NoError(s.store.Create(s.ctx, referral))

	s.Run("validate failure leaves state untouched", func() {
		_, err := s.store.Execute(s.ctx, referral.ID,
			func(r *models.Referral) error { return sentinel.ErrInvalidState },
			func(r *models.Referral) error {
				r.ApplyResponse(true, "", s.now)
				return nil
			},
		)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		got, findErr := s.store.FindByID(s.ctx, referral.ID)
		s.Require().NoError(findErr)
		s.Equal(models.StatusPending, got.Status)
	})

	s.Run("mutate failure leaves state untouched", func() {
		_, err := s.store.Execute(s.ctx, referral.ID,
			func(r *models.Referral) error { return nil },
			func(r *models.Referral) error {
				r.ApplyResponse(true, "", s.now)
				return sentinel.ErrInvalidState
			},
		)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		got, findErr := s.store.FindByID(s.ctx, referral.ID)
		s.Require().NoError(findErr)
		s.Equal(models.StatusPending, got.Status)
	})

	s.Run("mutation persists", func() {
		updated, err := s.store.Execute(s.ctx, referral.ID,
			func(r *models.Referral) error { return r.CanRespond() },
			func(r *models.Referral) error {
				r.ApplyResponse(true, "welcome", s.now)
				return nil
			},
		)
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, updated.Status)

		got, findErr := s.store.FindByID(s.ctx, referral.ID)
		s.Require().NoError(findErr)
		s.Equal(models.StatusAccepted, got.Status)
	})
}

// TestExecuteSerializes runs concurrent responses against one pending
// referral. The lock is held across validate and mutate, so exactly one
// caller passes CanRespond.
func (s *ReferralStoreSuite) TestExecuteSerializes() {
	referral := s.newReferral(id.NewUserID(), id.NewUserID(), id.NewCollegeID(), s.now)
	s.Require().NoError(s.store.Create(s.ctx, referral))

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.store.Execute(s.ctx, referral.ID,
				func(r *models.Referral) error { return r.CanRespond() },
				func(r *models.Referral) error {
					r.ApplyResponse(true, "", s.now)
					return nil
				},
			)
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
}
