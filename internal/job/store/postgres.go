package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"alumnet/internal/job/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Postgres persists job postings.
//
// Schema:
//
//	CREATE TABLE jobs (
//	    id               UUID PRIMARY KEY,
//	    college_id       UUID NOT NULL,
//	    posted_by        UUID NOT NULL,
//	    title            TEXT NOT NULL,
//	    company          TEXT NOT NULL,
//	    description      TEXT NOT NULL,
//	    location         TEXT NOT NULL DEFAULT '',
//	    location_type    TEXT NOT NULL,
//	    employment_type  TEXT NOT NULL,
//	    experience_level TEXT NOT NULL,
//	    skills           TEXT[] NOT NULL DEFAULT '{}',
//	    salary_min       BIGINT,
//	    salary_max       BIGINT,
//	    salary_currency  TEXT,
//	    application_url  TEXT NOT NULL DEFAULT '',
//	    deadline         TIMESTAMPTZ,
//	    status           TEXT NOT NULL,
//	    views            BIGINT NOT NULL DEFAULT 0,
//	    clicks           BIGINT NOT NULL DEFAULT 0,
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX jobs_college_status_idx ON jobs (college_id, status, created_at DESC);
//	CREATE INDEX jobs_poster_idx ON jobs (posted_by, created_at DESC);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const jobColumns = `id, college_id, posted_by, title, company, description, location,
	location_type, employment_type, experience_level, skills,
	salary_min, salary_max, salary_currency, application_url, deadline,
	status, views, clicks, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, job *models.Job) error {
	var salaryMin, salaryMax sql.NullInt64
	var salaryCurrency sql.NullString
	if job.Salary != nil {
		salaryMin = sql.NullInt64{Int64: job.Salary.Min, Valid: true}
		salaryMax = sql.NullInt64{Int64: job.Salary.Max, Valid: true}
		salaryCurrency = sql.NullString{String: job.Salary.Currency, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		job.ID.String(), job.CollegeID.String(), job.PostedBy.String(),
		job.Title, job.Company, job.Description, job.Location,
		string(job.LocationType), string(job.EmploymentType), string(job.ExperienceLevel),
		pq.StringArray(job.Skills), salaryMin, salaryMax, salaryCurrency,
		job.ApplicationURL, nullDeadline(job.Deadline),
		string(job.Status), job.Views, job.Clicks, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == "23505" {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID.String())
	return scanJob(row)
}

func (s *Postgres) ListPublished(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	return s.listStatus(ctx, collegeID, models.StatusPublished)
}

func (s *Postgres) ListPendingApproval(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	return s.listStatus(ctx, collegeID, models.StatusPendingApproval)
}

func (s *Postgres) ListByPoster(ctx context.Context, posterID id.UserID) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE posted_by = $1 ORDER BY created_at DESC`,
		posterID.String())
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (s *Postgres) IncrementViews(ctx context.Context, jobID id.JobID) error {
	return s.increment(ctx, "views", jobID)
}

func (s *Postgres) IncrementClicks(ctx context.Context, jobID id.JobID) error {
	return s.increment(ctx, "clicks", jobID)
}

// Execute locks the row with FOR UPDATE, runs validate and mutate, then
// writes the lifecycle fields back in the same transaction.
func (s *Postgres) Execute(ctx context.Context, jobID id.JobID, validate func(*models.Job) error, mutate func(*models.Job)) (*models.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, jobID.String())
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	if err := validate(job); err != nil {
		return nil, err
	}
	mutate(job)

	_, err = tx.ExecContext(ctx, `UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1`,
		job.ID.String(), string(job.Status), job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Postgres) increment(ctx context.Context, column string, jobID id.JobID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET `+column+` = `+column+` + 1 WHERE id = $1`, jobID.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) listStatus(ctx context.Context, collegeID id.CollegeID, status models.Status) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE college_id = $1 AND status = $2 ORDER BY created_at DESC`,
		collegeID.String(), string(status))
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]*models.Job, error) {
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job                        models.Job
		jobID, collegeID, postedBy string
		locType, empType, expLevel string
		skills                     pq.StringArray
		salaryMin, salaryMax       sql.NullInt64
		salaryCurrency             sql.NullString
		deadline                   sql.NullTime
		status                     string
	)
	err := row.Scan(&jobID, &collegeID, &postedBy,
		&job.Title, &job.Company, &job.Description, &job.Location,
		&locType, &empType, &expLevel, &skills,
		&salaryMin, &salaryMax, &salaryCurrency, &job.ApplicationURL, &deadline,
		&status, &job.Views, &job.Clicks, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.ID, err = id.ParseJobID(jobID); err != nil {
		return nil, err
	}
	if job.CollegeID, err = id.ParseCollegeID(collegeID); err != nil {
		return nil, err
	}
	if job.PostedBy, err = id.ParseUserID(postedBy); err != nil {
		return nil, err
	}
	job.LocationType = models.LocationType(locType)
	job.EmploymentType = models.EmploymentType(empType)
	job.ExperienceLevel = models.ExperienceLevel(expLevel)
	job.Skills = []string(skills)
	if salaryMin.Valid {
		job.Salary = &models.SalaryRange{Min: salaryMin.Int64, Max: salaryMax.Int64, Currency: salaryCurrency.String}
	}
	if deadline.Valid {
		t := deadline.Time
		job.Deadline = &t
	}
	job.Status = models.Status(status)
	return &job, nil
}

func nullDeadline(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
