package service

import (
	"context"
	"errors"
	"log/slog"

	collegeservice "alumnet/internal/college/service"
	jobmetrics "alumnet/internal/job/metrics"
	"alumnet/internal/job/models"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/platform/sentinel"
	"alumnet/pkg/requestcontext"
)

// Store is the persistence contract for job postings. Increment methods
// must be atomic.
type Store interface {
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, jobID id.JobID) (*models.Job, error)
	ListPublished(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error)
	ListPendingApproval(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error)
	ListByPoster(ctx context.Context, posterID id.UserID) ([]*models.Job, error)
	IncrementViews(ctx context.Context, jobID id.JobID) error
	IncrementClicks(ctx context.Context, jobID id.JobID) error
	Execute(ctx context.Context, jobID id.JobID,
		validate func(*models.Job) error, mutate func(*models.Job)) (*models.Job, error)
}

// Service runs the job board: posting, admin approval, takedown, and
// engagement counters. Callers are expected to have cleared the guard;
// the service enforces state and tenancy, not roles.
type Service struct {
	jobs     Store
	colleges *collegeservice.Registry
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *jobmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the job service.
func New(jobs Store, colleges *collegeservice.Registry, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{jobs: jobs, colleges: colleges, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func wrapJobErr(err error) error {
	var de *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		// Already coded, usually by a validate callback.
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "job not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "job store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "job store failure")
	}
}

// Post submits a new posting. When the college allows public postings the
// job publishes immediately and the college's job counter increments;
// otherwise it queues for admin approval.
func (s *Service) Post(ctx context.Context, posterID id.UserID, collegeID id.CollegeID, job models.Job) (*models.Job, error) {
	college, err := s.colleges.Get(ctx, collegeID)
	if err != nil {
		return nil, err
	}

	initial := models.StatusPendingApproval
	if college.Settings.AllowPublicJobs {
		initial = models.StatusPublished
	}

	now := requestcontext.Now(ctx)
	created, err := models.NewJob(collegeID, posterID, job, initial, now)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, created); err != nil {
		return nil, wrapJobErr(err)
	}
	s.metrics.ObservePosted()

	if initial == models.StatusPublished {
		if err := s.colleges.IncrementJobCounter(ctx, collegeID); err != nil {
			s.logger.WarnContext(ctx, "job counter increment failed",
				"college_id", collegeID.String(), "error", err)
		}
		s.metrics.ObservePublished()
	}
	s.logger.InfoContext(ctx, "job posted",
		"job_id", created.ID.String(),
		"college_id", collegeID.String(),
		"status", string(created.Status))
	return created, nil
}

// Approve publishes a pending posting and increments the college's job
// counter exactly once. Repeat approvals get CodeInvalidState.
func (s *Service) Approve(ctx context.Context, jobID id.JobID, collegeID id.CollegeID) (*models.Job, error) {
	now := requestcontext.Now(ctx)
	job, err := s.jobs.Execute(ctx, jobID,
		func(j *models.Job) error {
			if j.CollegeID != collegeID {
				return dErrors.New(dErrors.CodeTenantMismatch, "job belongs to another college")
			}
			return j.CanPublish()
		},
		func(j *models.Job) { j.ApplyPublish(now) },
	)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	if err := s.colleges.IncrementJobCounter(ctx, collegeID); err != nil {
		s.logger.WarnContext(ctx, "job counter increment failed",
			"college_id", collegeID.String(), "error", err)
	}
	s.metrics.ObservePublished()
	return job, nil
}

// Remove takes a posting down. Only the poster may remove their own job;
// the handler routes admin takedowns with asAdmin set.
func (s *Service) Remove(ctx context.Context, jobID id.JobID, callerID id.UserID, asAdmin bool) (*models.Job, error) {
	now := requestcontext.Now(ctx)
	job, err := s.jobs.Execute(ctx, jobID,
		func(j *models.Job) error {
			if !asAdmin && j.PostedBy != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the poster can remove this job")
			}
			return j.CanRemove()
		},
		func(j *models.Job) { j.ApplyRemove(now) },
	)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	s.metrics.ObserveRemoved()
	return job, nil
}

// Get retrieves a posting and records the view.
func (s *Service) Get(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	if err := s.jobs.IncrementViews(ctx, jobID); err != nil {
		s.logger.WarnContext(ctx, "view counter increment failed",
			"job_id", jobID.String(), "error", err)
	}
	return job, nil
}

// RecordApplicationClick counts an outbound application click.
func (s *Service) RecordApplicationClick(ctx context.Context, jobID id.JobID) error {
	if err := s.jobs.IncrementClicks(ctx, jobID); err != nil {
		return wrapJobErr(err)
	}
	return nil
}

// ListPublished returns a college's live postings, newest first, with
// expired deadlines filtered out.
func (s *Service) ListPublished(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	jobs, err := s.jobs.ListPublished(ctx, collegeID)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	now := requestcontext.Now(ctx)
	live := jobs[:0]
	for _, job := range jobs {
		if !job.IsExpired(now) {
			live = append(live, job)
		}
	}
	return live, nil
}

// ListPendingApproval returns the admin review queue.
func (s *Service) ListPendingApproval(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	jobs, err := s.jobs.ListPendingApproval(ctx, collegeID)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	return jobs, nil
}

// ListMine returns the caller's own postings regardless of status.
func (s *Service) ListMine(ctx context.Context, posterID id.UserID) ([]*models.Job, error) {
	jobs, err := s.jobs.ListByPoster(ctx, posterID)
	if err != nil {
		return nil, wrapJobErr(err)
	}
	return jobs, nil
}
