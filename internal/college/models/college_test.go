package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

type CollegeModelSuite struct {
	suite.Suite
	now time.Time
}

func (s *CollegeModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestCollegeModelSuite(t *testing.T) {
	suite.Run(t, new(CollegeModelSuite))
}

func (s *CollegeModelSuite) TestSlugify() {
	s.Run("collapses non-alphanumeric runs", func() {
		s.Equal("state-tech-university", Slugify("State  Tech & University!"))
	})

	s.Run("trims leading and trailing dashes", func() {
		s.Equal("mit", Slugify("...MIT..."))
	})

	s.Run("lowercases", func() {
		s.Equal("harvard", Slugify("Harvard"))
	})
}

func (s *CollegeModelSuite) TestEmailDomainOf() {
	s.Run("extracts and lowercases domain", func() {
		domain, err := EmailDomainOf("Alice@College.EDU")
		s.Require().NoError(err)
		s.Equal("college.edu", domain)
	})

	s.Run("rejects address without domain", func() {
		_, err := EmailDomainOf("not-an-email")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CollegeModelSuite) TestNewCollege() {
	s.Run("applies default settings", func() {
		college, err := NewCollege(id.NewCollegeID(), "State Tech", "statetech.edu", s.now)
		s.Require().NoError(err)
		s.Equal("state-tech", college.Slug)
		s.Equal(StatusActive, college.Status)
		s.True(college.Settings.RequireAdminApproval)
		s.False(college.Settings.AllowPublicJobs)
		s.True(college.Settings.EnableChat)
		s.True(college.Settings.EnableMentorship)
		s.Zero(college.Stats.TotalStudents)
	})

	s.Run("rejects empty name", func() {
		_, err := NewCollege(id.NewCollegeID(), "  ", "statetech.edu", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CollegeModelSuite) TestDomainMatches() {
	college, err := NewCollege(id.NewCollegeID(), "State Tech", "statetech.edu", s.now)
	s.Require().NoError(err)

	s.True(college.DomainMatches("bob@statetech.edu"))
	s.True(college.DomainMatches("bob@STATETECH.EDU"))
	s.False(college.DomainMatches("bob@other.edu"))
}

func (s *CollegeModelSuite) TestLifecycle() {
	college, err := NewCollege(id.NewCollegeID(), "State Tech", "statetech.edu", s.now)
	s.Require().NoError(err)

	s.Run("deactivates an active college", func() {
		s.Require().NoError(college.CanDeactivate())
		college.ApplyDeactivation(s.now)
		s.Equal(StatusInactive, college.Status)
	})

	s.Run("cannot deactivate twice", func() {
		s.Error(college.CanDeactivate())
	})

	s.Run("reactivates", func() {
		s.Require().NoError(college.CanReactivate())
		college.ApplyReactivation(s.now)
		s.Equal(StatusActive, college.Status)
	})
}
