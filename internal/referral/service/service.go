package service

import (
	"context"
	"errors"
	"log/slog"

	identityservice "alumnet/internal/identity/service"
	referralmetrics "alumnet/internal/referral/metrics"
	"alumnet/internal/referral/models"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/platform/sentinel"
	"alumnet/pkg/requestcontext"
)

// Store is the persistence contract for referrals. Execute must hold the
// store's lock for the referral across validate and mutate so concurrent
// transitions serialize.
type Store interface {
	Create(ctx context.Context, referral *models.Referral) error
	FindByID(ctx context.Context, referralID id.ReferralID) (*models.Referral, error)
	ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Referral, error)
	ListByAlumni(ctx context.Context, alumniID id.UserID) ([]*models.Referral, error)
	ListByCollege(ctx context.Context, collegeID id.CollegeID) ([]*models.Referral, error)
	Execute(ctx context.Context, referralID id.ReferralID,
		validate func(*models.Referral) error, mutate func(*models.Referral) error) (*models.Referral, error)
}

// CreateRequest carries the fields of a new referral request. JobID,
// Resume and CoverLetter are optional.
type CreateRequest struct {
	AlumniID    id.UserID
	Company     string
	Position    string
	JobURL      string
	JobID       *id.JobID
	Message     string
	Resume      string
	CoverLetter string
}

// Service runs the referral workflow.
type Service struct {
	referrals  Store
	identities *identityservice.Service
	metrics    *referralmetrics.Metrics
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *referralmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the referral service.
func New(referrals Store, identities *identityservice.Service, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{referrals: referrals, identities: identities, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func wrapReferralErr(err error) error {
	var de *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		// Already coded, usually by a validate callback.
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "referral not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "referral state does not allow this")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "referral store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "referral store failure")
	}
}

// Create opens a referral request from a student to an alumni of the same
// college.
//
// Errors: CodeValidation on bad fields or when the target cannot give
// referrals; CodeTenantMismatch when the alumni belongs to another
// college; CodeNotFound when the alumni does not exist.
func (s *Service) Create(ctx context.Context, studentID id.UserID, collegeID id.CollegeID, req CreateRequest) (*models.Referral, error) {
	alumni, err := s.identities.FindByID(ctx, req.AlumniID)
	if err != nil {
		return nil, err
	}
	if alumni.CollegeID != collegeID {
		return nil, dErrors.New(dErrors.CodeTenantMismatch, "alumni belongs to another college")
	}
	if alumni.Role != id.RoleAlumni && alumni.Role != id.RoleFaculty {
		return nil, dErrors.New(dErrors.CodeValidation, "referrals can only be requested from alumni or faculty")
	}
	if !alumni.IsVerified {
		return nil, dErrors.New(dErrors.CodeValidation, "alumni account is not verified")
	}

	now := requestcontext.Now(ctx)
	referral, err := models.NewReferral(collegeID, studentID, req.AlumniID, models.Referral{
		Company:     req.Company,
		Position:    req.Position,
		JobURL:      req.JobURL,
		JobID:       req.JobID,
		Message:     req.Message,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		return nil, wrapReferralErr(err)
	}
	s.metrics.ObserveCreated()
	s.logger.InfoContext(ctx, "referral created",
		"referral_id", referral.ID.String(),
		"college_id", collegeID.String())
	return referral, nil
}

// Respond accepts or rejects a pending referral. Only the targeted alumni
// may respond, and only once: concurrent responses serialize in the store
// and the loser gets CodeInvalidState.
func (s *Service) Respond(ctx context.Context, referralID id.ReferralID, alumniID id.UserID, accepted bool, responseMsg string) (*models.Referral, error) {
	now := requestcontext.Now(ctx)
	referral, err := s.referrals.Execute(ctx, referralID,
		func(r *models.Referral) error {
			if r.AlumniID != alumniID {
				return dErrors.New(dErrors.CodeForbidden, "only the requested alumni can respond")
			}
			return r.CanRespond()
		},
		func(r *models.Referral) error {
			r.ApplyResponse(accepted, responseMsg, now)
			return nil
		},
	)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	s.metrics.ObserveResponse(outcome)
	s.logger.InfoContext(ctx, "referral response recorded",
		"referral_id", referralID.String(),
		"outcome", outcome)
	return referral, nil
}

// Advance moves an accepted referral through the hiring pipeline. Either
// party may advance it, the student as well as the alumni who accepted.
// Resolved responses and terminal states are refused.
func (s *Service) Advance(ctx context.Context, referralID id.ReferralID, callerID id.UserID, next models.Status, note string) (*models.Referral, error) {
	now := requestcontext.Now(ctx)
	referral, err := s.referrals.Execute(ctx, referralID,
		func(r *models.Referral) error {
			if r.AlumniID != callerID && r.StudentID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the referral's student or alumni can update status")
			}
			return r.CanTransition(next)
		},
		func(r *models.Referral) error {
			return r.ApplyTransition(next, note, now)
		},
	)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	s.metrics.ObserveTransition(string(next))
	return referral, nil
}

// Get retrieves a referral visible to the given user: only its student,
// its alumni, or a caller the guard already cleared for the college.
func (s *Service) Get(ctx context.Context, referralID id.ReferralID) (*models.Referral, error) {
	referral, err := s.referrals.FindByID(ctx, referralID)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	return referral, nil
}

// ListForStudent returns the referrals a student has requested, newest
// first.
func (s *Service) ListForStudent(ctx context.Context, studentID id.UserID) ([]*models.Referral, error) {
	referrals, err := s.referrals.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	return referrals, nil
}

// ListForAlumni returns the referrals addressed to an alumni, newest
// first.
func (s *Service) ListForAlumni(ctx context.Context, alumniID id.UserID) ([]*models.Referral, error) {
	referrals, err := s.referrals.ListByAlumni(ctx, alumniID)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	return referrals, nil
}

// ListForCollege returns every referral in a college, newest first.
func (s *Service) ListForCollege(ctx context.Context, collegeID id.CollegeID) ([]*models.Referral, error) {
	referrals, err := s.referrals.ListByCollege(ctx, collegeID)
	if err != nil {
		return nil, wrapReferralErr(err)
	}
	return referrals, nil
}
