package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"alumnet/internal/referral/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Postgres persists referrals.
//
// Schema:
//
//	CREATE TABLE referrals (
//	    id            UUID PRIMARY KEY,
//	    college_id    UUID NOT NULL,
//	    student_id    UUID NOT NULL,
//	    alumni_id     UUID NOT NULL,
//	    company       TEXT NOT NULL,
//	    position      TEXT NOT NULL,
//	    job_url       TEXT NOT NULL,
//	    job_id        UUID,
//	    message       TEXT NOT NULL,
//	    resume        TEXT NOT NULL DEFAULT '',
//	    cover_letter  TEXT NOT NULL DEFAULT '',
//	    status        TEXT NOT NULL,
//	    response_msg  TEXT NOT NULL DEFAULT '',
//	    responded_at  TIMESTAMPTZ,
//	    history       JSONB NOT NULL DEFAULT '[]',
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX referrals_student_idx ON referrals (student_id, created_at DESC);
//	CREATE INDEX referrals_alumni_idx  ON referrals (alumni_id, created_at DESC);
//	CREATE INDEX referrals_college_idx ON referrals (college_id, created_at DESC);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const referralColumns = `id, college_id, student_id, alumni_id, company, position, job_url, job_id,
	message, resume, cover_letter, status, response_msg, responded_at, history, created_at, updated_at`

const uniqueViolation = "23505"

func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}

func (s *Postgres) Create(ctx context.Context, referral *models.Referral) error {
	history, err := json.Marshal(referral.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO referrals (`+referralColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		referral.ID.String(), referral.CollegeID.String(), referral.StudentID.String(), referral.AlumniID.String(),
		referral.Company, referral.Position, referral.JobURL, nullJobID(referral.JobID),
		referral.Message, referral.Resume, referral.CoverLetter, string(referral.Status), referral.ResponseMsg,
		nullTime(referral.RespondedAt), history, referral.CreatedAt, referral.UpdatedAt)
	if err != nil {
		return translatePQ(err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, referralID id.ReferralID) (*models.Referral, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1`, referralID.String())
	return scanReferral(row)
}

func (s *Postgres) ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Referral, error) {
	return s.listWhere(ctx, "student_id", studentID.String())
}

func (s *Postgres) ListByAlumni(ctx context.Context, alumniID id.UserID) ([]*models.Referral, error) {
	return s.listWhere(ctx, "alumni_id", alumniID.String())
}

func (s *Postgres) ListByCollege(ctx context.Context, collegeID id.CollegeID) ([]*models.Referral, error) {
	return s.listWhere(ctx, "college_id", collegeID.String())
}

// Execute locks the row with FOR UPDATE, runs validate and mutate, then
// writes the result back in the same transaction.
func (s *Postgres) Execute(ctx context.Context, referralID id.ReferralID, validate func(*models.Referral) error, mutate func(*models.Referral) error) (*models.Referral, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1 FOR UPDATE`, referralID.String())
	referral, err := scanReferral(row)
	if err != nil {
		return nil, err
	}
	if err := validate(referral); err != nil {
		return nil, err
	}
	if err := mutate(referral); err != nil {
		return nil, err
	}

	history, err := json.Marshal(referral.History)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE referrals
		SET status = $2, response_msg = $3, responded_at = $4, history = $5, updated_at = $6
		WHERE id = $1`,
		referral.ID.String(), string(referral.Status), referral.ResponseMsg,
		nullTime(referral.RespondedAt), history, referral.UpdatedAt)
	if err != nil {
		return nil, translatePQ(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return referral, nil
}

func (s *Postgres) listWhere(ctx context.Context, column, value string) ([]*models.Referral, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+referralColumns+` FROM referrals WHERE `+column+` = $1 ORDER BY created_at DESC`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Referral
	for rows.Next() {
		referral, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, referral)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReferral(row rowScanner) (*models.Referral, error) {
	var (
		referral                                   models.Referral
		referralID, collegeID, studentID, alumniID string
		jobID                                      sql.NullString
		status                                     string
		respondedAt                                sql.NullTime
		history                                    []byte
	)
	err := row.Scan(&referralID, &collegeID, &studentID, &alumniID,
		&referral.Company, &referral.Position, &referral.JobURL, &jobID,
		&referral.Message, &referral.Resume, &referral.CoverLetter, &status, &referral.ResponseMsg,
		&respondedAt, &history, &referral.CreatedAt, &referral.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if referral.ID, err = id.ParseReferralID(referralID); err != nil {
		return nil, err
	}
	if referral.CollegeID, err = id.ParseCollegeID(collegeID); err != nil {
		return nil, err
	}
	if referral.StudentID, err = id.ParseUserID(studentID); err != nil {
		return nil, err
	}
	if referral.AlumniID, err = id.ParseUserID(alumniID); err != nil {
		return nil, err
	}
	if jobID.Valid {
		parsed, err := id.ParseJobID(jobID.String)
		if err != nil {
			return nil, err
		}
		referral.JobID = &parsed
	}
	referral.Status = models.Status(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		referral.RespondedAt = &t
	}
	if err := json.Unmarshal(history, &referral.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &referral, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullJobID(jobID *id.JobID) sql.NullString {
	if jobID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: jobID.String(), Valid: true}
}
