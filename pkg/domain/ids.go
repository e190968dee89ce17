// Package domain holds typed identifiers and small value types shared by
// every module. Typed IDs keep a CollegeID from ever being passed where a
// UserID is expected; construct them from external input via the Parse
// helpers so malformed values are rejected at the trust boundary.
package domain

import (
	"github.com/google/uuid"

	dErrors "alumnet/pkg/domain-errors"
)

// CollegeID identifies a tenant institution.
type CollegeID uuid.UUID

// UserID identifies an identity within a tenant.
type UserID uuid.UUID

// ReferralID identifies a referral request.
type ReferralID uuid.UUID

// JobID identifies a job posting.
type JobID uuid.UUID

func (id CollegeID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id ReferralID) String() string { return uuid.UUID(id).String() }
func (id JobID) String() string      { return uuid.UUID(id).String() }

func (id CollegeID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ReferralID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// IDs cross the wire as canonical uuid strings.

func (id CollegeID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ReferralID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id JobID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *CollegeID) UnmarshalText(b []byte) error {
	parsed, err := ParseCollegeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReferralID) UnmarshalText(b []byte) error {
	parsed, err := ParseReferralID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *JobID) UnmarshalText(b []byte) error {
	parsed, err := ParseJobID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewCollegeID returns a fresh random CollegeID.
func NewCollegeID() CollegeID { return CollegeID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewReferralID returns a fresh random ReferralID.
func NewReferralID() ReferralID { return ReferralID(uuid.New()) }

// NewJobID returns a fresh random JobID.
func NewJobID() JobID { return JobID(uuid.New()) }

func parse(s, kind string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id", kind)
	}
	return u, nil
}

// ParseCollegeID constructs a CollegeID from external input.
func ParseCollegeID(s string) (CollegeID, error) {
	u, err := parse(s, "college")
	return CollegeID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user")
	return UserID(u), err
}

// ParseReferralID constructs a ReferralID from external input.
func ParseReferralID(s string) (ReferralID, error) {
	u, err := parse(s, "referral")
	return ReferralID(u), err
}

// ParseJobID constructs a JobID from external input.
func ParseJobID(s string) (JobID, error) {
	u, err := parse(s, "job")
	return JobID(u), err
}
