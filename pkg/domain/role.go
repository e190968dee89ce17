package domain

import dErrors "alumnet/pkg/domain-errors"

// Role is a user's position within their college. It is fixed at
// registration and never changes through normal flows.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleAlumni:  true,
	RoleFaculty: true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported role %q", s)
	}
	return r, nil
}

// IsValid reports whether the role is one of the supported values.
func (r Role) IsValid() bool { return validRoles[r] }

// Counted reports whether registrations with this role contribute to the
// college's per-role statistics. Admins are not counted.
func (r Role) Counted() bool { return r != RoleAdmin }

func (r Role) String() string { return string(r) }
