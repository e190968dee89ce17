package models

import (
	"regexp"
	"strings"
	"time"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

// Credentials holds everything that must never leave the core: the password
// hash and the single-use token material. It lives on User but has no
// counterpart on PublicProfile, so the type system (not a field flag)
// guarantees secrets are excluded from every externally-facing projection.
type Credentials struct {
	PasswordHash string
	// VerificationToken is the opaque admin-approval token, 24h validity,
	// cleared on first successful use.
	VerificationToken       string
	VerificationTokenExpiry time.Time
	// ResetTokenHash is the sha256 hex of the issued reset token. The
	// plaintext is returned to the caller once and never persisted.
	ResetTokenHash   string
	ResetTokenExpiry time.Time
}

// Profile is the owner-mutable portion of an identity.
type Profile struct {
	Bio            string   `json:"bio,omitempty"`
	Degree         string   `json:"degree,omitempty"`
	Major          string   `json:"major,omitempty"`
	GraduationYear int      `json:"graduation_year,omitempty"`
	Company        string   `json:"company,omitempty"`
	Position       string   `json:"position,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	LinkedinURL    string   `json:"linkedin_url,omitempty"`
	GithubURL      string   `json:"github_url,omitempty"`
	PortfolioURL   string   `json:"portfolio_url,omitempty"`
	IsMentor       bool     `json:"is_mentor,omitempty"`
	MentorTopics   []string `json:"mentor_topics,omitempty"`
}

// User is the aggregate root for an identity.
//
// Invariants:
//   - Email is globally unique across colleges, lowercase, trimmed
//   - Role and CollegeID are fixed at creation
//   - IsVerified starts false; only the admin-approval flow flips it
type User struct {
	ID          id.UserID
	FullName    string
	Email       string
	Role        id.Role
	CollegeID   id.CollegeID
	IsVerified  bool
	Credentials Credentials
	Profile     Profile
	LastLogin   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicProfile is the only representation of a user that leaves the core.
// It has no credential fields at all.
type PublicProfile struct {
	ID         id.UserID    `json:"id"`
	FullName   string       `json:"full_name"`
	Email      string       `json:"email"`
	Role       id.Role      `json:"role"`
	CollegeID  id.CollegeID `json:"college_id"`
	IsVerified bool         `json:"is_verified"`
	Profile    Profile      `json:"profile"`
	LastLogin  *time.Time   `json:"last_login,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the basic address shape.
func ValidateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !emailPattern.MatchString(email) {
		return dErrors.New(dErrors.CodeValidation, "email address is malformed")
	}
	return nil
}

// ValidateFullName enforces the minimum display-name length.
func ValidateFullName(name string) error {
	if len(strings.TrimSpace(name)) < 3 {
		return dErrors.New(dErrors.CodeValidation, "full name must be at least 3 characters")
	}
	return nil
}

// ValidatePassword enforces the minimum raw password length. Strength
// beyond length stays the caller's (UI's) concern.
func ValidatePassword(raw string) error {
	if len(raw) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

// NewUser constructs an unverified identity. The caller supplies the
// already-hashed password and verification token; raw secrets never reach
// the model layer.
func NewUser(
	userID id.UserID,
	fullName, email string,
	role id.Role,
	collegeID id.CollegeID,
	passwordHash, verificationToken string,
	now time.Time,
) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	if err := ValidateFullName(fullName); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if collegeID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "college reference is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	return &User{
		ID:         userID,
		FullName:   fullName,
		Email:      email,
		Role:       role,
		CollegeID:  collegeID,
		IsVerified: false,
		Credentials: Credentials{
			PasswordHash:            passwordHash,
			VerificationToken:       verificationToken,
			VerificationTokenExpiry: now.Add(24 * time.Hour),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Public projects the user into its externally-visible form.
func (u *User) Public() *PublicProfile {
	p := &PublicProfile{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       u.Role,
		CollegeID:  u.CollegeID,
		IsVerified: u.IsVerified,
		Profile:    u.Profile,
		CreatedAt:  u.CreatedAt,
	}
	if !u.LastLogin.IsZero() {
		t := u.LastLogin
		p.LastLogin = &t
	}
	return p
}

// ApplyVerification marks the account approved and clears the single-use
// verification token.
func (u *User) ApplyVerification(now time.Time) {
	u.IsVerified = true
	u.Credentials.VerificationToken = ""
	u.Credentials.VerificationTokenExpiry = time.Time{}
	u.UpdatedAt = now
}

// ProfileCompleteness returns the rounded percentage of profile fields the
// user has filled in.
func (u *User) ProfileCompleteness() int {
	filled := 0
	fields := []bool{
		u.FullName != "",
		u.Email != "",
		u.Profile.Bio != "",
		u.Profile.Degree != "",
		u.Profile.Major != "",
		u.Profile.GraduationYear != 0,
		u.Profile.Company != "",
		u.Profile.Position != "",
		len(u.Profile.Skills) > 0,
	}
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return (filled*100 + len(fields)/2) / len(fields)
}
