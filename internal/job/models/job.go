package models

import (
	"strings"
	"time"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

// Status is the posting lifecycle. New postings start pending approval
// unless the college allows public postings, in which case they publish
// immediately.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusPublished       Status = "published"
	StatusExpired         Status = "expired"
	StatusRemoved         Status = "removed"
)

// LocationType classifies where the work happens.
type LocationType string

const (
	LocationOnSite LocationType = "on_site"
	LocationRemote LocationType = "remote"
	LocationHybrid LocationType = "hybrid"
)

// EmploymentType classifies the engagement.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

// ExperienceLevel classifies seniority.
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
	ExperienceLead   ExperienceLevel = "lead"
)

const minDescriptionLen = 50

// SalaryRange is an optional advertised compensation band.
type SalaryRange struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
}

// Job is a posting scoped to one college.
type Job struct {
	ID        id.JobID     `json:"id"`
	CollegeID id.CollegeID `json:"college_id"`
	PostedBy  id.UserID    `json:"posted_by"`

	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Description     string          `json:"description"`
	Location        string          `json:"location,omitempty"`
	LocationType    LocationType    `json:"location_type"`
	EmploymentType  EmploymentType  `json:"employment_type"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Skills          []string        `json:"skills,omitempty"`
	Salary          *SalaryRange    `json:"salary,omitempty"`
	ApplicationURL  string          `json:"application_url,omitempty"`
	Deadline        *time.Time      `json:"deadline,omitempty"`

	Status Status `json:"status"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseLocationType validates a caller-supplied location type.
func ParseLocationType(raw string) (LocationType, error) {
	t := LocationType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case LocationOnSite, LocationRemote, LocationHybrid:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown location type %q", raw)
}

// ParseEmploymentType validates a caller-supplied employment type.
func ParseEmploymentType(raw string) (EmploymentType, error) {
	t := EmploymentType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown employment type %q", raw)
}

// ParseExperienceLevel validates a caller-supplied experience level.
func ParseExperienceLevel(raw string) (ExperienceLevel, error) {
	l := ExperienceLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceLead:
		return l, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown experience level %q", raw)
}

// NewJob validates the posting fields and builds it in the given initial
// status.
func NewJob(collegeID id.CollegeID, postedBy id.UserID, job Job, initial Status, now time.Time) (*Job, error) {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" || job.Company == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title and company are required")
	}
	if len(strings.TrimSpace(job.Description)) < minDescriptionLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "description must be at least %d characters", minDescriptionLen)
	}
	if job.Salary != nil && job.Salary.Max < job.Salary.Min {
		return nil, dErrors.New(dErrors.CodeValidation, "salary max is below salary min")
	}
	if job.Deadline != nil && job.Deadline.Before(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "application deadline is in the past")
	}

	job.ID = id.NewJobID()
	job.CollegeID = collegeID
	job.PostedBy = postedBy
	job.Status = initial
	job.Views = 0
	job.Clicks = 0
	job.CreatedAt = now
	job.UpdatedAt = now
	return &job, nil
}

// CanPublish checks that a posting is awaiting approval.
func (j *Job) CanPublish() error {
	if j.Status != StatusPendingApproval {
		return dErrors.Newf(dErrors.CodeInvalidState, "job is %s", j.Status)
	}
	return nil
}

// ApplyPublish marks the posting published.
func (j *Job) ApplyPublish(now time.Time) {
	j.Status = StatusPublished
	j.UpdatedAt = now
}

// CanRemove checks that a posting is not already gone.
func (j *Job) CanRemove() error {
	if j.Status == StatusRemoved {
		return dErrors.New(dErrors.CodeInvalidState, "job is already removed")
	}
	return nil
}

// ApplyRemove takes the posting down.
func (j *Job) ApplyRemove(now time.Time) {
	j.Status = StatusRemoved
	j.UpdatedAt = now
}

// IsExpired reports whether the deadline has passed.
func (j *Job) IsExpired(now time.Time) bool {
	return j.Deadline != nil && j.Deadline.Before(now)
}
