package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"alumnet/internal/identity/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Postgres persists users in PostgreSQL. Pure I/O; no domain logic.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id UUID PRIMARY KEY,
//	    full_name TEXT NOT NULL,
//	    email TEXT NOT NULL UNIQUE,
//	    role TEXT NOT NULL,
//	    college_id UUID NOT NULL REFERENCES colleges(id),
//	    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
//	    password_hash TEXT NOT NULL,
//	    verification_token TEXT NOT NULL DEFAULT '',
//	    verification_token_expiry TIMESTAMPTZ,
//	    reset_token_hash TEXT NOT NULL DEFAULT '',
//	    reset_token_expiry TIMESTAMPTZ,
//	    bio TEXT NOT NULL DEFAULT '',
//	    degree TEXT NOT NULL DEFAULT '',
//	    major TEXT NOT NULL DEFAULT '',
//	    graduation_year INT NOT NULL DEFAULT 0,
//	    company TEXT NOT NULL DEFAULT '',
//	    position TEXT NOT NULL DEFAULT '',
//	    skills TEXT[] NOT NULL DEFAULT '{}',
//	    phone TEXT NOT NULL DEFAULT '',
//	    linkedin_url TEXT NOT NULL DEFAULT '',
//	    github_url TEXT NOT NULL DEFAULT '',
//	    portfolio_url TEXT NOT NULL DEFAULT '',
//	    is_mentor BOOLEAN NOT NULL DEFAULT FALSE,
//	    mentor_topics TEXT[] NOT NULL DEFAULT '{}',
//	    last_login TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// uniqueViolation is the postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

const userColumns = `id, full_name, email, role, college_id, is_verified,
	password_hash, verification_token, verification_token_expiry,
	reset_token_hash, reset_token_expiry,
	bio, degree, major, graduation_year, company, position, skills,
	phone, linkedin_url, github_url, portfolio_url, is_mentor, mentor_topics,
	last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u          models.User
		rawID      uuid.UUID
		rawCollege uuid.UUID
		verExpiry  sql.NullTime
		resExpiry  sql.NullTime
		lastLogin  sql.NullTime
		skills     pq.StringArray
		topics     pq.StringArray
	)
	err := row.Scan(
		&rawID, &u.FullName, &u.Email, &u.Role, &rawCollege, &u.IsVerified,
		&u.Credentials.PasswordHash, &u.Credentials.VerificationToken, &verExpiry,
		&u.Credentials.ResetTokenHash, &resExpiry,
		&u.Profile.Bio, &u.Profile.Degree, &u.Profile.Major, &u.Profile.GraduationYear,
		&u.Profile.Company, &u.Profile.Position, &skills,
		&u.Profile.Phone, &u.Profile.LinkedinURL, &u.Profile.GithubURL,
		&u.Profile.PortfolioURL, &u.Profile.IsMentor, &topics,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ID = id.UserID(rawID)
	u.CollegeID = id.CollegeID(rawCollege)
	if verExpiry.Valid {
		u.Credentials.VerificationTokenExpiry = verExpiry.Time
	}
	if resExpiry.Valid {
		u.Credentials.ResetTokenExpiry = resExpiry.Time
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	u.Profile.Skills = []string(skills)
	u.Profile.MentorTopics = []string(topics)
	return &u, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CreateIfEmailAvailable inserts the user; the unique index on email makes
// duplicate registration a clean conflict.
func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID), u.FullName, u.Email, u.Role, uuid.UUID(u.CollegeID), u.IsVerified,
		u.Credentials.PasswordHash, u.Credentials.VerificationToken,
		nullTime(u.Credentials.VerificationTokenExpiry),
		u.Credentials.ResetTokenHash, nullTime(u.Credentials.ResetTokenExpiry),
		u.Profile.Bio, u.Profile.Degree, u.Profile.Major, u.Profile.GraduationYear,
		u.Profile.Company, u.Profile.Position, pq.StringArray(u.Profile.Skills),
		u.Profile.Phone, u.Profile.LinkedinURL, u.Profile.GithubURL,
		u.Profile.PortfolioURL, u.Profile.IsMentor, pq.StringArray(u.Profile.MentorTopics),
		nullTime(u.LastLogin), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("email %q: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by ID.
func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(userID))
}

// FindByEmail retrieves a user by normalized email.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = lower($1)", models.NormalizeEmail(email))
}

// MarkVerified flips is_verified and clears the verification token in one
// statement.
func (s *Postgres) MarkVerified(ctx context.Context, userID id.UserID, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_verified = TRUE, verification_token = '',
		    verification_token_expiry = NULL, updated_at = $2
		WHERE id = $1
	`, uuid.UUID(userID), now)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

// ConsumeVerificationToken verifies the account holding an unexpired
// token in one conditional update, so a token can never be redeemed
// twice.
func (s *Postgres) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_token = '',
		    verification_token_expiry = NULL, updated_at = $2
		WHERE verification_token = $1 AND verification_token <> ''
		  AND verification_token_expiry > $2
		RETURNING ` + userColumns
	u, err := scanUser(s.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verification token: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	return u, nil
}

// UpdateLastLogin stamps the login time.
func (s *Postgres) UpdateLastLogin(ctx context.Context, userID id.UserID, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = $2 WHERE id = $1`, uuid.UUID(userID), now)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

// UpdateProfile replaces the owner-mutable profile fields.
func (s *Postgres) UpdateProfile(ctx context.Context, userID id.UserID, p models.Profile, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			bio = $2, degree = $3, major = $4, graduation_year = $5,
			company = $6, position = $7, skills = $8, phone = $9,
			linkedin_url = $10, github_url = $11, portfolio_url = $12,
			is_mentor = $13, mentor_topics = $14, updated_at = $15
		WHERE id = $1
	`,
		uuid.UUID(userID),
		p.Bio, p.Degree, p.Major, p.GraduationYear,
		p.Company, p.Position, pq.StringArray(p.Skills), p.Phone,
		p.LinkedinURL, p.GithubURL, p.PortfolioURL,
		p.IsMentor, pq.StringArray(p.MentorTopics), now,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

// SetResetToken stores the reset token hash and expiry.
func (s *Postgres) SetResetToken(ctx context.Context, userID id.UserID, tokenHash string, expiry time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expiry = $3 WHERE id = $1
	`, uuid.UUID(userID), tokenHash, expiry)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken performs the atomic conditional update: password
// replacement and token clearing happen in one statement guarded by the
// hash match and expiry check, so a token can never be consumed twice.
func (s *Postgres) ConsumeResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token_hash = '',
		    reset_token_expiry = NULL, updated_at = $3
		WHERE reset_token_hash = $1 AND reset_token_hash <> ''
		  AND reset_token_expiry > $3
		RETURNING ` + userColumns
	u, err := scanUser(s.db.QueryRowContext(ctx, query, tokenHash, newPasswordHash, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reset token: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return u, nil
}
