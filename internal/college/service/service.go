package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	collegemetrics "alumnet/internal/college/metrics"
	"alumnet/internal/college/models"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/platform/sentinel"
	"alumnet/pkg/requestcontext"
)

// Store is the persistence contract for the registry. Implementations must
// make CreateIfDomainAvailable atomic with respect to the domain and name
// uniqueness constraints, and IncrementRoleCount/IncrementJobCount atomic
// increments.
type Store interface {
	CreateIfDomainAvailable(ctx context.Context, college *models.College) error
	FindByID(ctx context.Context, collegeID id.CollegeID) (*models.College, error)
	FindByDomain(ctx context.Context, domain string) (*models.College, error)
	FindBySlug(ctx context.Context, slug string) (*models.College, error)
	IncrementRoleCount(ctx context.Context, collegeID id.CollegeID, role id.Role) error
	IncrementJobCount(ctx context.Context, collegeID id.CollegeID) error
	AddAdmin(ctx context.Context, collegeID id.CollegeID, userID id.UserID) error
	Execute(ctx context.Context, collegeID id.CollegeID,
		validate func(*models.College) error, mutate func(*models.College)) (*models.College, error)
}

// Registry orchestrates the tenant lifecycle: implicit creation on first
// registration, counters, admin lists, and status transitions.
type Registry struct {
	colleges Store
	metrics  *collegemetrics.Metrics
	// resolve collapses concurrent first-registrations for the same new
	// domain into one create attempt. The store's unique constraint is the
	// hard guarantee; this keeps the common race off the conflict path.
	resolve singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *collegemetrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry constructs the college registry.
func NewRegistry(colleges Store, opts ...Option) *Registry {
	r := &Registry{colleges: colleges}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func wrapCollegeErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "college not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "college already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "college store unavailable")
	case err == nil:
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "college store failure")
	}
}

// ResolveOrCreate returns the college owning the email's domain, creating
// it with the supplied display name when no college has claimed the domain
// yet. Creation is idempotent under concurrency: N racing first
// registrations for one unseen domain yield exactly one college.
//
// Errors: CodeValidation when the email has no domain segment or, on the
// creation path, the display name is empty/taken.
func (r *Registry) ResolveOrCreate(ctx context.Context, emailAddress, displayName string) (*models.College, error) {
	start := time.Now()
	defer r.metrics.ObserveResolve(start)

	domain, err := models.EmailDomainOf(emailAddress)
	if err != nil {
		return nil, err
	}

	college, err := r.colleges.FindByDomain(ctx, domain)
	if err == nil {
		return college, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapCollegeErr(err)
	}

	now := requestcontext.Now(ctx)
	v, err, _ := r.resolve.Do(domain, func() (any, error) {
		created, err := models.NewCollege(id.NewCollegeID(), displayName, domain, now)
		if err != nil {
			return nil, err
		}
		if err := r.colleges.CreateIfDomainAvailable(ctx, created); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost the race (or the name is taken by another domain's
				// college). If the domain now resolves, return the winner.
				if existing, findErr := r.colleges.FindByDomain(ctx, domain); findErr == nil {
					return existing, nil
				}
				return nil, dErrors.New(dErrors.CodeValidation, "college name is already taken")
			}
			return nil, wrapCollegeErr(err)
		}
		r.incrementCreated()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.College), nil
}

// DomainMatches reports whether the email's domain equals the college's
// stored domain. Pure check, no store access.
func (r *Registry) DomainMatches(college *models.College, emailAddress string) bool {
	return college.DomainMatches(emailAddress)
}

// IncrementRoleCounter records an accepted registration in the college's
// aggregate statistics. No-op for roles that are not counted (admin).
func (r *Registry) IncrementRoleCounter(ctx context.Context, collegeID id.CollegeID, role id.Role) error {
	if !role.Counted() {
		return nil
	}
	if err := r.colleges.IncrementRoleCount(ctx, collegeID, role); err != nil {
		return wrapCollegeErr(err)
	}
	if r.metrics != nil {
		r.metrics.RegistrationsByRole.WithLabelValues(role.String()).Inc()
	}
	return nil
}

// IncrementJobCounter records a published job posting.
func (r *Registry) IncrementJobCounter(ctx context.Context, collegeID id.CollegeID) error {
	if err := r.colleges.IncrementJobCount(ctx, collegeID); err != nil {
		return wrapCollegeErr(err)
	}
	return nil
}

// Get retrieves a college by ID.
func (r *Registry) Get(ctx context.Context, collegeID id.CollegeID) (*models.College, error) {
	if collegeID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "college id is required")
	}
	college, err := r.colleges.FindByID(ctx, collegeID)
	if err != nil {
		return nil, wrapCollegeErr(err)
	}
	return college, nil
}

// GetBySlug retrieves a college by its URL slug.
func (r *Registry) GetBySlug(ctx context.Context, slug string) (*models.College, error) {
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "college slug is required")
	}
	college, err := r.colleges.FindBySlug(ctx, slug)
	if err != nil {
		return nil, wrapCollegeErr(err)
	}
	return college, nil
}

// AddAdmin grants the user tenant-admin rights. Idempotent by membership.
func (r *Registry) AddAdmin(ctx context.Context, collegeID id.CollegeID, userID id.UserID) error {
	if collegeID.IsZero() || userID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "college id and user id are required")
	}
	if err := r.colleges.AddAdmin(ctx, collegeID, userID); err != nil {
		return wrapCollegeErr(err)
	}
	return nil
}

// Deactivate soft-disables a college. Uses the Execute callback pattern so
// the store holds its lock across validation and mutation.
func (r *Registry) Deactivate(ctx context.Context, collegeID id.CollegeID) (*models.College, error) {
	now := requestcontext.Now(ctx)
	college, err := r.colleges.Execute(ctx, collegeID,
		func(c *models.College) error {
			if err := c.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "college is already inactive")
			}
			return nil
		},
		func(c *models.College) { c.ApplyDeactivation(now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, wrapCollegeErr(err)
	}
	return college, nil
}

// Reactivate re-enables a college.
func (r *Registry) Reactivate(ctx context.Context, collegeID id.CollegeID) (*models.College, error) {
	now := requestcontext.Now(ctx)
	college, err := r.colleges.Execute(ctx, collegeID,
		func(c *models.College) error {
			if err := c.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "college is already active")
			}
			return nil
		},
		func(c *models.College) { c.ApplyReactivation(now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, wrapCollegeErr(err)
	}
	return college, nil
}

func (r *Registry) incrementCreated() {
	if r.metrics != nil {
		r.metrics.CollegeCreated.Inc()
	}
}
