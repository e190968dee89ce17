package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

type ReferralModelSuite struct {
	suite.Suite
	now time.Time
}

func (s *ReferralModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestReferralModelSuite(t *testing.T) {
	suite.Run(t, new(ReferralModelSuite))
}

func (s *ReferralModelSuite) fields() Referral {
	return Referral{
		Company:  "Acme",
		Position: "Engineer",
		JobURL:   "https://acme.example/jobs/1",
		Message:  "please refer me",
	}
}

func (s *ReferralModelSuite) newReferral() *Referral {
	referral, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), s.fields(), s.now)
	s.Require().NoError(err)
	return referral
}

func (s *ReferralModelSuite) TestNewReferral() {
	s.Run("starts pending with empty history", func() {
		referral := s.newReferral()
		s.Equal(StatusPending, referral.Status)
		s.Nil(referral.RespondedAt)
		s.Empty(referral.History)
	})

	s.Run("requires company, position and job url", func() {
		fields := s.fields()
		fields.Company = ""
		_, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), fields, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires a message", func() {
		fields := s.fields()
		fields.Message = "   "
		_, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), fields, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("caps the message length", func() {
		fields := s.fields()
		fields.Message = strings.Repeat("x", 1001)
		_, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), fields, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("caps the cover letter length", func() {
		fields := s.fields()
		fields.CoverLetter = strings.Repeat("x", 2001)
		_, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), fields, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("keeps the optional job and document references", func() {
		fields := s.fields()
		jobID := id.NewJobID()
		fields.JobID = &jobID
		fields.Resume = "https://cdn.example/resume.pdf"
		fields.CoverLetter = "I interned on this team last summer."
		referral, err := NewReferral(id.NewCollegeID(), id.NewUserID(), id.NewUserID(), fields, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(referral.JobID)
		s.Equal(jobID, *referral.JobID)
		s.Equal(fields.Resume, referral.Resume)
		s.Equal(fields.CoverLetter, referral.CoverLetter)
	})

	s.Run("refuses self-referral", func() {
		selfID := id.NewUserID()
		_, err := NewReferral(id.NewCollegeID(), selfID, selfID, s.fields(), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ReferralModelSuite) TestResponse() {
	s.Run("accept resolves a pending referral exactly once", func() {
		referral := s.newReferral()
		s.Require().NoError(referral.CanRespond())

		referral.ApplyResponse(true, "happy to help", s.now.Add(time.Hour))
		s.Equal(StatusAccepted, referral.Status)
		s.Require().Len(referral.History, 1)
		s.Equal("referral accepted by alumni", referral.History[0].Note)
		s.Require().NotNil(referral.RespondedAt)
		firstResponse := *referral.RespondedAt

		err := referral.CanRespond()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal(firstResponse, *referral.RespondedAt, "responded timestamp is write-once")
	})

	s.Run("reject appends a descriptive history entry", func() {
		referral := s.newReferral()
		referral.ApplyResponse(false, "not this time", s.now.Add(time.Hour))
		s.Equal(StatusRejected, referral.Status)
		s.Equal("not this time", referral.ResponseMsg)
		s.Require().Len(referral.History, 1)
		s.Equal(StatusRejected, referral.History[0].Status)
		s.Equal("referral rejected by alumni", referral.History[0].Note)
	})
}

func (s *ReferralModelSuite) TestTransitions() {
	accepted := func() *Referral {
		referral := s.newReferral()
		referral.ApplyResponse(true, "", s.now)
		return referral
	}

	s.Run("accepted referral progresses through the pipeline", func() {
		referral := accepted()
		for _, next := range []Status{StatusSubmitted, StatusInterviewing, StatusOffered, StatusHired} {
			s.Require().NoError(referral.CanTransition(next))
			s.Require().NoError(referral.ApplyTransition(next, "", s.now))
		}
		s.Require().Len(referral.History, 5)
	})

	s.Run("cannot transition a pending referral", func() {
		err := s.newReferral().CanTransition(StatusSubmitted)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("cannot re-enter the response states", func() {
		referral := accepted()
		for _, next := range []Status{StatusPending, StatusAccepted, StatusRejected} {
			err := referral.CanTransition(next)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	})

	s.Run("terminal states are final", func() {
		referral := accepted()
		s.Require().NoError(referral.ApplyTransition(StatusDeclined, "candidate withdrew", s.now))

		err := referral.CanTransition(StatusSubmitted)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("no-op transition is refused", func() {
		referral := accepted()
		s.Require().NoError(referral.ApplyTransition(StatusSubmitted, "", s.now))
		s.Error(referral.CanTransition(StatusSubmitted))
	})
}

func (s *ReferralModelSuite) TestParseStatus() {
	status, err := ParseStatus(" Interviewing ")
	s.Require().NoError(err)
	s.Equal(StatusInterviewing, status)

	_, err = ParseStatus("bogus")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
