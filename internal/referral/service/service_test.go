package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/auth/password"
	collegeservice "alumnet/internal/college/service"
	collegestore "alumnet/internal/college/store"
	identityservice "alumnet/internal/identity/service"
	identitystore "alumnet/internal/identity/store"
	"alumnet/internal/notify"
	"alumnet/internal/referral/models"
	"alumnet/internal/referral/store"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/requestcontext"
)

type ReferralServiceSuite struct {
	suite.Suite
	service    *Service
	identities *identityservice.Service
	ctx        context.Context

	collegeID id.CollegeID
	studentID id.UserID
	alumniID  id.UserID
}

func (s *ReferralServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	hasher := password.NewHasher(4)
	mailer := notify.LogMailer{Logger: logger}
	registry := collegeservice.NewRegistry(collegestore.NewInMemory())
	s.identities = identityservice.New(identitystore.NewInMemory(), registry, hasher, mailer, logger)
	s.service = New(store.NewInMemory(), s.identities, logger)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s.studentID = s.register("student@ref.edu", "student", "Ref College", true)
	s.alumniID = s.register("alumni@ref.edu", "alumni", "Ref College", true)

	student, err := s.identities.FindByID(s.ctx, s.studentID)
	s.Require().NoError(err)
	s.collegeID = student.CollegeID
}

func TestReferralServiceSuite(t *testing.T) {
	suite.Run(t, new(ReferralServiceSuite))
}

func (s *ReferralServiceSuite) register(email, role, collegeName string, verified bool) id.UserID {
	res, err := s.identities.Register(s.ctx, "Ref Person", email, "password123", role, collegeName)
	s.Require().NoError(err)
	if verified {
		s.Require().NoError(s.identities.Verify(s.ctx, res.Identity.ID))
	}
	return res.Identity.ID
}

func (s *ReferralServiceSuite) create() *models.Referral {
	referral, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
		AlumniID: s.alumniID,
		Company:  "Acme",
		Position: "Engineer",
		JobURL:   "https://acme.example/jobs/1",
		Message:  "please",
	})
	s.Require().NoError(err)
	return referral
}

func (s *ReferralServiceSuite) TestCreate() {
	s.Run("creates a pending referral", func() {
		referral := s.create()
		s.Equal(models.StatusPending, referral.Status)
		s.Equal(s.collegeID, referral.CollegeID)
	})

	s.Run("requires a message", func() {
		_, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
			AlumniID: s.alumniID, Company: "Acme", Position: "Engineer", JobURL: "https://x.example",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("carries the optional job reference", func() {
		jobID := id.NewJobID()
		referral, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
			AlumniID: s.alumniID, Company: "Acme", Position: "Engineer",
			JobURL: "https://x.example", JobID: &jobID, Message: "please",
			CoverLetter: "I interned on this team last summer.",
		})
		s.Require().NoError(err)
		s.Require().NotNil(referral.JobID)
		s.Equal(jobID, *referral.JobID)

		got, err := s.service.Get(s.ctx, referral.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.JobID)
		s.Equal(jobID, *got.JobID)
		s.Equal("I interned on this team last summer.", got.CoverLetter)
	})

	s.Run("rejects a target from another college", func() {
		otherID := s.register("alumni@other.edu", "alumni", "Other College", true)
		_, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
			AlumniID: otherID, Company: "Acme", Position: "Engineer", JobURL: "https://x.example", Message: "please",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))
	})

	s.Run("rejects a student target", func() {
		peerID := s.register("peer@ref.edu", "student", "Ref College", true)
		_, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
			AlumniID: peerID, Company: "Acme", Position: "Engineer", JobURL: "https://x.example", Message: "please",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects an unverified alumni", func() {
		pendingID := s.register("pending@ref.edu", "alumni", "Ref College", false)
		_, err := s.service.Create(s.ctx, s.studentID, s.collegeID, CreateRequest{
			AlumniID: pendingID, Company: "Acme", Position: "Engineer", JobURL: "https://x.example", Message: "please",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ReferralServiceSuite) TestRespond() {
	s.Run("only the targeted alumni can respond", func() {
		referral := s.create()
		_, err := s.service.Respond(s.ctx, referral.ID, s.studentID, true, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("accept records response and history", func() {
		referral := s.create()
		updated, err := s.service.Respond(s.ctx, referral.ID, s.alumniID, true, "welcome aboard")
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, updated.Status)
		s.NotNil(updated.RespondedAt)
		s.Len(updated.History, 1)
	})

	s.Run("second response hits invalid state", func() {
		referral := s.create()
		_, err := s.service.Respond(s.ctx, referral.ID, s.alumniID, true, "")
		s.Require().NoError(err)
		_, err = s.service.Respond(s.ctx, referral.ID, s.alumniID, false, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// TestRespondRace fires concurrent responses at one pending referral:
// exactly one caller may win.
func (s *ReferralServiceSuite) TestRespondRace() {
	referral := s.create()

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Respond(s.ctx, referral.ID, s.alumniID, i%2 == 0, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	}
	s.Equal(1, wins)

	got, err := s.service.Get(s.ctx, referral.ID)
	s.Require().NoError(err)
	s.Len(got.History, 1, "history gains exactly one response entry")
}

func (s *ReferralServiceSuite) TestAdvance() {
	referral := s.create()
	_, err := s.service.Respond(s.ctx, referral.ID, s.alumniID, true, "")
	s.Require().NoError(err)

	s.Run("outsiders cannot advance", func() {
		strangerID := s.register("stranger@ref.edu", "alumni", "Ref College", true)
		_, err := s.service.Advance(s.ctx, referral.ID, strangerID, models.StatusSubmitted, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("the alumni advances through the pipeline", func() {
		updated, err := s.service.Advance(s.ctx, referral.ID, s.alumniID, models.StatusSubmitted, "sent to recruiter")
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, updated.Status)
	})

	s.Run("the student may advance too", func() {
		updated, err := s.service.Advance(s.ctx, referral.ID, s.studentID, models.StatusInterviewing, "recruiter reached out")
		s.Require().NoError(err)
		s.Equal(models.StatusInterviewing, updated.Status)
	})

	s.Run("terminal state refuses further advances", func() {
		_, err := s.service.Advance(s.ctx, referral.ID, s.alumniID, models.StatusHired, "")
		s.Require().NoError(err)
		_, err = s.service.Advance(s.ctx, referral.ID, s.alumniID, models.StatusInterviewing, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ReferralServiceSuite) TestLists() {
	first := s.create()
	second := s.create()

	sent, err := s.service.ListForStudent(s.ctx, s.studentID)
	s.Require().NoError(err)
	s.Len(sent, 2)

	received, err := s.service.ListForAlumni(s.ctx, s.alumniID)
	s.Require().NoError(err)
	s.Len(received, 2)

	all, err := s.service.ListForCollege(s.ctx, s.collegeID)
	s.Require().NoError(err)
	s.Len(all, 2)

	ids := []id.ReferralID{all[0].ID, all[1].ID}
	s.Contains(ids, first.ID)
	s.Contains(ids, second.ID)
}
