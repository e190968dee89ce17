package models

import (
	"regexp"
	"strings"
	"time"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

// Status is the college lifecycle state. Colleges are soft-disabled, never
// hard-deleted while they are referenced by users.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Settings control per-college feature gates.
type Settings struct {
	RequireAdminApproval bool `json:"require_admin_approval"`
	AllowPublicJobs      bool `json:"allow_public_jobs"`
	EnableChat           bool `json:"enable_chat"`
	EnableMentorship     bool `json:"enable_mentorship"`
}

// DefaultSettings mirrors what a college gets when it is created implicitly
// by a first registration.
func DefaultSettings() Settings {
	return Settings{
		RequireAdminApproval: true,
		AllowPublicJobs:      false,
		EnableChat:           true,
		EnableMentorship:     true,
	}
}

// Stats are mutable aggregate counters. They are only ever changed through
// atomic store-level increments, never read-modify-write in the service.
type Stats struct {
	TotalStudents int64 `json:"total_students"`
	TotalAlumni   int64 `json:"total_alumni"`
	TotalFaculty  int64 `json:"total_faculty"`
	TotalJobs     int64 `json:"total_jobs"`
}

// College is the aggregate root for a tenant institution.
//
// Invariants:
//   - Name and EmailDomain are globally unique; EmailDomain is lowercase
//     and trimmed
//   - Slug is derived from Name once at creation and never recomputed
//   - Status is either active or inactive
type College struct {
	ID          id.CollegeID `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	EmailDomain string       `json:"email_domain"`
	Settings    Settings     `json:"settings"`
	Stats       Stats        `json:"stats"`
	// Admins is the ordered set of users with tenant-admin rights in
	// addition to any user whose role is admin.
	Admins    []id.UserID `json:"admins"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

var slugScrub = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL slug from a display name: lowercase,
// non-alphanumeric runs collapsed to a single dash, trimmed of leading and
// trailing dashes.
func Slugify(name string) string {
	s := slugScrub.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// EmailDomainOf extracts the normalized domain segment of an email address.
//
// Errors: CodeValidation when the address has no non-empty domain segment.
func EmailDomainOf(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", dErrors.New(dErrors.CodeValidation, "email address has no domain segment")
	}
	return email[at+1:], nil
}

// NewCollege constructs an active college with default settings and zero
// counters. The slug is fixed here and never recomputed afterwards.
func NewCollege(collegeID id.CollegeID, name, emailDomain string, now time.Time) (*College, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "college name cannot be empty")
	}
	emailDomain = strings.ToLower(strings.TrimSpace(emailDomain))
	if emailDomain == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "college email domain cannot be empty")
	}
	return &College{
		ID:          collegeID,
		Name:        name,
		Slug:        Slugify(name),
		EmailDomain: emailDomain,
		Settings:    DefaultSettings(),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsActive reports whether the college accepts activity.
func (c *College) IsActive() bool { return c.Status == StatusActive }

// DomainMatches reports whether the email's domain exactly equals the
// college's stored domain. Both sides are already normalized, so the
// comparison is exact. Used to reject cross-domain registration into a
// college found by name collision.
func (c *College) DomainMatches(email string) bool {
	domain, err := EmailDomainOf(email)
	if err != nil {
		return false
	}
	return domain == c.EmailDomain
}

// HasAdmin reports whether the user appears in the college's admin list.
func (c *College) HasAdmin(userID id.UserID) bool {
	for _, admin := range c.Admins {
		if admin == userID {
			return true
		}
	}
	return false
}

// CanDeactivate checks whether the college can transition to inactive.
func (c *College) CanDeactivate() error {
	if c.Status == StatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "college is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the college to inactive. Call CanDeactivate
// first; the pair is meant for store Execute callbacks so validation and
// mutation happen under one lock.
func (c *College) ApplyDeactivation(now time.Time) {
	c.Status = StatusInactive
	c.UpdatedAt = now
}

// CanReactivate checks whether the college can transition to active.
func (c *College) CanReactivate() error {
	if c.Status == StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "college is already active")
	}
	return nil
}

// ApplyReactivation transitions the college to active.
func (c *College) ApplyReactivation(now time.Time) {
	c.Status = StatusActive
	c.UpdatedAt = now
}
