package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"alumnet/internal/college/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Postgres persists colleges in PostgreSQL. This store is pure I/O; all
// domain logic belongs in the service and model layers.
//
// Expected schema:
//
//	CREATE TABLE colleges (
//	    id UUID PRIMARY KEY,
//	    name TEXT NOT NULL,
//	    slug TEXT NOT NULL UNIQUE,
//	    email_domain TEXT NOT NULL UNIQUE,
//	    require_admin_approval BOOLEAN NOT NULL,
//	    allow_public_jobs BOOLEAN NOT NULL,
//	    enable_chat BOOLEAN NOT NULL,
//	    enable_mentorship BOOLEAN NOT NULL,
//	    total_students BIGINT NOT NULL DEFAULT 0,
//	    total_alumni BIGINT NOT NULL DEFAULT 0,
//	    total_faculty BIGINT NOT NULL DEFAULT 0,
//	    total_jobs BIGINT NOT NULL DEFAULT 0,
//	    admins UUID[] NOT NULL DEFAULT '{}',
//	    status TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX colleges_name_idx ON colleges (lower(name));
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed college store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const collegeColumns = `id, name, slug, email_domain,
	require_admin_approval, allow_public_jobs, enable_chat, enable_mentorship,
	total_students, total_alumni, total_faculty, total_jobs,
	admins, status, created_at, updated_at`

// uniqueViolation is the postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

func translatePQ(err error, context string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", context, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", context, err)
}

func scanCollege(row interface{ Scan(...any) error }) (*models.College, error) {
	var (
		c        models.College
		rawID    uuid.UUID
		adminArr pq.StringArray
	)
	err := row.Scan(
		&rawID, &c.Name, &c.Slug, &c.EmailDomain,
		&c.Settings.RequireAdminApproval, &c.Settings.AllowPublicJobs,
		&c.Settings.EnableChat, &c.Settings.EnableMentorship,
		&c.Stats.TotalStudents, &c.Stats.TotalAlumni,
		&c.Stats.TotalFaculty, &c.Stats.TotalJobs,
		&adminArr, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.CollegeID(rawID)
	for _, raw := range adminArr {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt admin id %q: %w", raw, err)
		}
		c.Admins = append(c.Admins, id.UserID(parsed))
	}
	return &c, nil
}

func adminsArray(admins []id.UserID) pq.StringArray {
	arr := make(pq.StringArray, 0, len(admins))
	for _, a := range admins {
		arr = append(arr, a.String())
	}
	return arr
}

// CreateIfDomainAvailable inserts the college, relying on the unique
// indexes on email_domain and name to close the first-registration race.
func (s *Postgres) CreateIfDomainAvailable(ctx context.Context, college *models.College) error {
	query := `
		INSERT INTO colleges (` + collegeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(college.ID), college.Name, college.Slug, college.EmailDomain,
		college.Settings.RequireAdminApproval, college.Settings.AllowPublicJobs,
		college.Settings.EnableChat, college.Settings.EnableMentorship,
		college.Stats.TotalStudents, college.Stats.TotalAlumni,
		college.Stats.TotalFaculty, college.Stats.TotalJobs,
		adminsArray(college.Admins), college.Status, college.CreatedAt, college.UpdatedAt,
	)
	if err != nil {
		return translatePQ(err, "create college")
	}
	return nil
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE ` + where
	college, err := scanCollege(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("college: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find college: %w", err)
	}
	return college, nil
}

// FindByID retrieves a college by ID.
func (s *Postgres) FindByID(ctx context.Context, collegeID id.CollegeID) (*models.College, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(collegeID))
}

// FindByDomain retrieves a college by normalized email domain.
func (s *Postgres) FindByDomain(ctx context.Context, domain string) (*models.College, error) {
	return s.findOne(ctx, "email_domain = lower($1)", domain)
}

// FindBySlug retrieves a college by slug.
func (s *Postgres) FindBySlug(ctx context.Context, slug string) (*models.College, error) {
	return s.findOne(ctx, "slug = $1", slug)
}

// IncrementRoleCount bumps the counter matching role in a single UPDATE so
// concurrent registrations never lose updates.
func (s *Postgres) IncrementRoleCount(ctx context.Context, collegeID id.CollegeID, role id.Role) error {
	var column string
	switch role {
	case id.RoleStudent:
		column = "total_students"
	case id.RoleAlumni:
		column = "total_alumni"
	case id.RoleFaculty:
		column = "total_faculty"
	default:
		return nil
	}
	query := fmt.Sprintf(`UPDATE colleges SET %s = %s + 1 WHERE id = $1`, column, column)
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(collegeID))
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	return nil
}

// IncrementJobCount bumps the published-jobs counter atomically.
func (s *Postgres) IncrementJobCount(ctx context.Context, collegeID id.CollegeID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE colleges SET total_jobs = total_jobs + 1 WHERE id = $1`, uuid.UUID(collegeID))
	if err != nil {
		return fmt.Errorf("increment total_jobs: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	return nil
}

// AddAdmin appends the user to the admin list unless already present.
func (s *Postgres) AddAdmin(ctx context.Context, collegeID id.CollegeID, userID id.UserID) error {
	query := `
		UPDATE colleges
		SET admins = array_append(admins, $2)
		WHERE id = $1 AND NOT ($2 = ANY(admins))
	`
	_, err := s.db.ExecContext(ctx, query, uuid.UUID(collegeID), uuid.UUID(userID).String())
	if err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	return nil
}

// Execute loads the college FOR UPDATE inside a transaction, runs validate
// then mutate, and writes the result back. The row lock plays the role the
// memory store's mutex plays.
func (s *Postgres) Execute(
	ctx context.Context,
	collegeID id.CollegeID,
	validate func(*models.College) error,
	mutate func(*models.College),
) (*models.College, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE id = $1 FOR UPDATE`
	college, err := scanCollege(tx.QueryRowContext(ctx, query, uuid.UUID(collegeID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock college: %w", err)
	}

	if err := validate(college); err != nil {
		return nil, err
	}
	mutate(college)

	_, err = tx.ExecContext(ctx, `
		UPDATE colleges SET
			require_admin_approval = $2, allow_public_jobs = $3,
			enable_chat = $4, enable_mentorship = $5,
			admins = $6, status = $7, updated_at = $8
		WHERE id = $1
	`,
		uuid.UUID(college.ID),
		college.Settings.RequireAdminApproval, college.Settings.AllowPublicJobs,
		college.Settings.EnableChat, college.Settings.EnableMentorship,
		adminsArray(college.Admins), college.Status, college.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update college: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return college, nil
}
