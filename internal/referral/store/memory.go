package store

import (
	"context"
	"sort"
	"sync"

	"alumnet/internal/referral/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// InMemory keeps referrals in process memory. Used in tests and when no
// database is configured.
type InMemory struct {
	mu   sync.RWMutex
	byID map[id.ReferralID]*models.Referral
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.ReferralID]*models.Referral)}
}

func (s *InMemory) Create(ctx context.Context, referral *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[referral.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[referral.ID] = cloneReferral(referral)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, referralID id.ReferralID) (*models.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	referral, ok := s.byID[referralID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneReferral(referral), nil
}

func (s *InMemory) ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Referral, error) {
	return s.list(func(r *models.Referral) bool { return r.StudentID == studentID })
}

func (s *InMemory) ListByAlumni(ctx context.Context, alumniID id.UserID) ([]*models.Referral, error) {
	return s.list(func(r *models.Referral) bool { return r.AlumniID == alumniID })
}

func (s *InMemory) ListByCollege(ctx context.Context, collegeID id.CollegeID) ([]*models.Referral, error) {
	return s.list(func(r *models.Referral) bool { return r.CollegeID == collegeID })
}

// Execute runs validate and mutate while holding the store lock, making
// state transitions atomic with respect to concurrent callers.
func (s *InMemory) Execute(ctx context.Context, referralID id.ReferralID, validate func(*models.Referral) error, mutate func(*models.Referral) error) (*models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referral, ok := s.byID[referralID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(referral); err != nil {
		return nil, err
	}
	updated := cloneReferral(referral)
	if err := mutate(updated); err != nil {
		return nil, err
	}
	s.byID[referralID] = updated
	return cloneReferral(updated), nil
}

func (s *InMemory) list(match func(*models.Referral) bool) ([]*models.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Referral
	for _, referral := range s.byID {
		if match(referral) {
			out = append(out, cloneReferral(referral))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneReferral(r *models.Referral) *models.Referral {
	clone := *r
	clone.History = append([]models.HistoryEntry(nil), r.History...)
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		clone.RespondedAt = &t
	}
	if r.JobID != nil {
		jobID := *r.JobID
		clone.JobID = &jobID
	}
	return &clone
}
