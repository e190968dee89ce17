package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/college/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

type CollegeStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CollegeStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCollegeStoreSuite(t *testing.T) {
	suite.Run(t, new(CollegeStoreSuite))
}

func (s *CollegeStoreSuite) newCollege(name, domain string) *models.College {
	college, err := models.NewCollege(id.NewCollegeID(), name, domain, time.Now())
	s.Require().NoError(err)
	return college
}

func (s *CollegeStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID, domain and slug", func() {
		college := s.newCollege("State Tech", "statetech.edu")
		s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, college))

		byID, err := s.store.FindByID(s.ctx, college.ID)
		s.Require().NoError(err)
		s.Equal(college.Name, byID.Name)

		byDomain, err := s.store.FindByDomain(s.ctx, "STATETECH.edu")
		s.Require().NoError(err)
		s.Equal(college.ID, byDomain.ID)

		bySlug, err := s.store.FindBySlug(s.ctx, "state-tech")
		s.Require().NoError(err)
		s.Equal(college.ID, bySlug.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewCollegeID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CollegeStoreSuite) TestUniqueness() {
	s.Run("rejects duplicate domain", func() {
		s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, s.newCollege("First", "dup.edu")))
		err := s.store.CreateIfDomainAvailable(s.ctx, s.newCollege("Second", "dup.edu"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rejects duplicate name case-insensitively", func() {
		s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, s.newCollege("Same Name", "one.edu")))
		err := s.store.CreateIfDomainAvailable(s.ctx, s.newCollege("SAME NAME", "two.edu"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *CollegeStoreSuite) TestCounters() {
	college := s.newCollege("Counter U", "counter.edu")
	s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, college))

	s.Require().NoError(s.store.IncrementRoleCount(s.ctx, college.ID, id.RoleStudent))
	s.Require().NoError(s.store.IncrementRoleCount(s.ctx, college.ID, id.RoleStudent))
	s.Require().NoError(s.store.IncrementRoleCount(s.ctx, college.ID, id.RoleAlumni))
	s.Require().NoError(s.store.IncrementJobCount(s.ctx, college.ID))

	got, err := s.store.FindByID(s.ctx, college.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), got.Stats.TotalStudents)
	s.Equal(int64(1), got.Stats.TotalAlumni)
	s.Equal(int64(0), got.Stats.TotalFaculty)
	s.Equal(int64(1), got.Stats.TotalJobs)
}

func (s *CollegeStoreSuite) TestAddAdmin() {
	college := s.newCollege("Admin U", "admin.edu")
	s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, college))

	adminID := id.NewUserID()
	s.Require().NoError(s.store.AddAdmin(s.ctx, college.ID, adminID))
	// Idempotent by membership.
	s.Require().NoError(s.store.AddAdmin(s.ctx, college.ID, adminID))

	got, err := s.store.FindByID(s.ctx, college.ID)
	s.Require().NoError(err)
	s.Len(got.Admins, 1)
	s.True(got.HasAdmin(adminID))
}

func (s *CollegeStoreSuite) TestExecute() {
	college := s.newCollege("Exec U", "exec.edu")
	s.Require().NoError(s.store.CreateIfDomainAvailable(s.ctx, college))

	s.Run("applies mutation after validation", func() {
		updated, err := s.store.Execute(s.ctx, college.ID,
			func(c *models.College) error { return c.CanDeactivate() },
			func(c *models.College) { c.ApplyDeactivation(time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, updated.Status)
	})

	s.Run("validation failure leaves state untouched", func() {
		_, err := s.store.Execute(s.ctx, college.ID,
			func(c *models.College) error { return c.CanDeactivate() },
			func(c *models.College) { c.ApplyDeactivation(time.Now()) },
		)
		s.Require().Error(err)

		got, err := s.store.FindByID(s.ctx, college.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, got.Status)
	})
}
