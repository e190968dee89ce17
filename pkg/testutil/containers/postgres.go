//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is the full DDL the stores expect. Applied once per container.
const schema = `
CREATE TABLE colleges (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    email_domain TEXT NOT NULL UNIQUE,
    require_admin_approval BOOLEAN NOT NULL,
    allow_public_jobs BOOLEAN NOT NULL,
    enable_chat BOOLEAN NOT NULL,
    enable_mentorship BOOLEAN NOT NULL,
    total_students BIGINT NOT NULL DEFAULT 0,
    total_alumni BIGINT NOT NULL DEFAULT 0,
    total_faculty BIGINT NOT NULL DEFAULT 0,
    total_jobs BIGINT NOT NULL DEFAULT 0,
    admins UUID[] NOT NULL DEFAULT '{}',
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX colleges_name_idx ON colleges (lower(name));

CREATE TABLE users (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL,
    college_id UUID NOT NULL REFERENCES colleges(id),
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    password_hash TEXT NOT NULL,
    verification_token TEXT NOT NULL DEFAULT '',
    verification_token_expiry TIMESTAMPTZ,
    reset_token_hash TEXT NOT NULL DEFAULT '',
    reset_token_expiry TIMESTAMPTZ,
    bio TEXT NOT NULL DEFAULT '',
    degree TEXT NOT NULL DEFAULT '',
    major TEXT NOT NULL DEFAULT '',
    graduation_year INT NOT NULL DEFAULT 0,
    company TEXT NOT NULL DEFAULT '',
    position TEXT NOT NULL DEFAULT '',
    skills TEXT[] NOT NULL DEFAULT '{}',
    phone TEXT NOT NULL DEFAULT '',
    linkedin_url TEXT NOT NULL DEFAULT '',
    github_url TEXT NOT NULL DEFAULT '',
    portfolio_url TEXT NOT NULL DEFAULT '',
    is_mentor BOOLEAN NOT NULL DEFAULT FALSE,
    mentor_topics TEXT[] NOT NULL DEFAULT '{}',
    last_login TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE referrals (
    id            UUID PRIMARY KEY,
    college_id    UUID NOT NULL,
    student_id    UUID NOT NULL,
    alumni_id     UUID NOT NULL,
    company       TEXT NOT NULL,
    position      TEXT NOT NULL,
    job_url       TEXT NOT NULL,
    job_id        UUID,
    message       TEXT NOT NULL,
    resume        TEXT NOT NULL DEFAULT '',
    cover_letter  TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    response_msg  TEXT NOT NULL DEFAULT '',
    responded_at  TIMESTAMPTZ,
    history       JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX referrals_student_idx ON referrals (student_id, created_at DESC);
CREATE INDEX referrals_alumni_idx  ON referrals (alumni_id, created_at DESC);
CREATE INDEX referrals_college_idx ON referrals (college_id, created_at DESC);

CREATE TABLE jobs (
    id               UUID PRIMARY KEY,
    college_id       UUID NOT NULL,
    posted_by        UUID NOT NULL,
    title            TEXT NOT NULL,
    company          TEXT NOT NULL,
    description      TEXT NOT NULL,
    location         TEXT NOT NULL DEFAULT '',
    location_type    TEXT NOT NULL,
    employment_type  TEXT NOT NULL,
    experience_level TEXT NOT NULL,
    skills           TEXT[] NOT NULL DEFAULT '{}',
    salary_min       BIGINT,
    salary_max       BIGINT,
    salary_currency  TEXT,
    application_url  TEXT NOT NULL DEFAULT '',
    deadline         TIMESTAMPTZ,
    status           TEXT NOT NULL,
    views            BIGINT NOT NULL DEFAULT 0,
    clicks           BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX jobs_college_status_idx ON jobs (college_id, status, created_at DESC);
CREATE INDEX jobs_poster_idx ON jobs (posted_by, created_at DESC);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("alumnet_test"),
		tcpostgres.WithUsername("alumnet"),
		tcpostgres.WithPassword("alumnet"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// No t.Cleanup: the container is shared across suites via the
	// Manager singleton and Ryuk reaps it after the run.

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the named tables. Pass them in dependency order.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
