package models

import (
	"strings"
	"time"

	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
)

// Status is the referral lifecycle state. A referral starts pending,
// resolves exactly once to accepted or rejected, and accepted referrals
// may then progress through the hiring pipeline.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusSubmitted    Status = "submitted"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusHired        Status = "hired"
	StatusDeclined     Status = "declined"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusSubmitted,
		StatusInterviewing, StatusOffered, StatusHired, StatusDeclined:
		return s, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown referral status %q", raw)
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusHired, StatusDeclined:
		return true
	}
	return false
}

// HistoryEntry records one status change. History is append-only.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	maxMessageLen     = 1000
	maxCoverLetterLen = 2000
	maxNoteLen        = 500
)

// Referral is a student's request to an alumni for a job referral, scoped
// to a single college. JobID optionally points at a posting in the
// college's job board; CoverLetter and Resume are optional document
// references the alumni can forward.
type Referral struct {
	ID        id.ReferralID `json:"id"`
	CollegeID id.CollegeID  `json:"college_id"`
	StudentID id.UserID     `json:"student_id"`
	AlumniID  id.UserID     `json:"alumni_id"`

	Company     string    `json:"company"`
	Position    string    `json:"position"`
	JobURL      string    `json:"job_url"`
	JobID       *id.JobID `json:"job_id,omitempty"`
	Message     string    `json:"message"`
	Resume      string    `json:"resume,omitempty"`
	CoverLetter string    `json:"cover_letter,omitempty"`

	Status      Status         `json:"status"`
	ResponseMsg string         `json:"response_message,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	History     []HistoryEntry `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReferral validates the caller-filled request fields and builds a
// pending referral. History starts empty; the implicit pending state gets
// no entry, so the first entry is always the alumni's response.
func NewReferral(collegeID id.CollegeID, studentID, alumniID id.UserID, referral Referral, now time.Time) (*Referral, error) {
	referral.Company = strings.TrimSpace(referral.Company)
	referral.Position = strings.TrimSpace(referral.Position)
	referral.JobURL = strings.TrimSpace(referral.JobURL)
	referral.Message = strings.TrimSpace(referral.Message)
	if referral.Company == "" || referral.Position == "" || referral.JobURL == "" || referral.Message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company, position, job url and message are required")
	}
	if len(referral.Message) > maxMessageLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "message exceeds %d characters", maxMessageLen)
	}
	if len(referral.CoverLetter) > maxCoverLetterLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "cover letter exceeds %d characters", maxCoverLetterLen)
	}
	if studentID == alumniID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot request a referral from yourself")
	}

	referral.ID = id.NewReferralID()
	referral.CollegeID = collegeID
	referral.StudentID = studentID
	referral.AlumniID = alumniID
	referral.Status = StatusPending
	referral.ResponseMsg = ""
	referral.RespondedAt = nil
	referral.History = nil
	referral.CreatedAt = now
	referral.UpdatedAt = now
	return &referral, nil
}

// CanRespond checks that a pending referral can still be accepted or
// rejected.
func (r *Referral) CanRespond() error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "referral already %s", r.Status)
	}
	return nil
}

// ApplyResponse resolves a pending referral. RespondedAt is set exactly
// once; CanRespond guarantees it is nil here. The history note describes
// the event; the alumni's free-text reply lives in ResponseMsg only.
func (r *Referral) ApplyResponse(accepted bool, responseMsg string, now time.Time) {
	status, note := StatusRejected, "referral rejected by alumni"
	if accepted {
		status, note = StatusAccepted, "referral accepted by alumni"
	}
	r.Status = status
	r.ResponseMsg = responseMsg
	t := now
	r.RespondedAt = &t
	r.appendHistory(r.Status, note, now)
}

// CanTransition checks a pipeline transition. Responses (accept/reject)
// go through ApplyResponse, never through here.
func (r *Referral) CanTransition(next Status) error {
	switch next {
	case StatusPending, StatusAccepted, StatusRejected:
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot move a referral back to %s", next)
	}
	if r.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvalidState, "referral is %s and cannot change", r.Status)
	}
	if r.Status == StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, "referral has not been accepted yet")
	}
	if next == r.Status {
		return dErrors.Newf(dErrors.CodeInvalidState, "referral is already %s", next)
	}
	return nil
}

// ApplyTransition advances the pipeline. CanTransition must have passed.
func (r *Referral) ApplyTransition(next Status, note string, now time.Time) error {
	if len(note) > maxNoteLen {
		return dErrors.Newf(dErrors.CodeValidation, "note exceeds %d characters", maxNoteLen)
	}
	r.Status = next
	r.appendHistory(next, note, now)
	return nil
}

func (r *Referral) appendHistory(status Status, note string, now time.Time) {
	r.History = append(r.History, HistoryEntry{Status: status, Note: note, Timestamp: now})
	r.UpdatedAt = now
}
