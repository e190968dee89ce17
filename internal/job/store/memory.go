package store

import (
	"context"
	"sort"
	"sync"

	"alumnet/internal/job/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// InMemory keeps job postings in process memory. Used in tests and when
// no database is configured.
type InMemory struct {
	mu   sync.RWMutex
	byID map[id.JobID]*models.Job
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.JobID]*models.Job)}
}

func (s *InMemory) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[job.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[job.ID] = cloneJob(job)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneJob(job), nil
}

// ListPublished returns the published postings of a college, newest first.
func (s *InMemory) ListPublished(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	return s.list(func(j *models.Job) bool {
		return j.CollegeID == collegeID && j.Status == models.StatusPublished
	})
}

// ListPendingApproval returns a college's queue for admin review.
func (s *InMemory) ListPendingApproval(ctx context.Context, collegeID id.CollegeID) ([]*models.Job, error) {
	return s.list(func(j *models.Job) bool {
		return j.CollegeID == collegeID && j.Status == models.StatusPendingApproval
	})
}

func (s *InMemory) ListByPoster(ctx context.Context, posterID id.UserID) ([]*models.Job, error) {
	return s.list(func(j *models.Job) bool { return j.PostedBy == posterID })
}

func (s *InMemory) IncrementViews(ctx context.Context, jobID id.JobID) error {
	return s.increment(jobID, func(j *models.Job) { j.Views++ })
}

func (s *InMemory) IncrementClicks(ctx context.Context, jobID id.JobID) error {
	return s.increment(jobID, func(j *models.Job) { j.Clicks++ })
}

// Execute runs validate and mutate while holding the store lock.
func (s *InMemory) Execute(ctx context.Context, jobID id.JobID, validate func(*models.Job) error, mutate func(*models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(job); err != nil {
		return nil, err
	}
	updated := cloneJob(job)
	mutate(updated)
	s.byID[jobID] = updated
	return cloneJob(updated), nil
}

func (s *InMemory) increment(jobID id.JobID, bump func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	bump(job)
	return nil
}

func (s *InMemory) list(match func(*models.Job) bool) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Job
	for _, job := range s.byID {
		if match(job) {
			out = append(out, cloneJob(job))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneJob(j *models.Job) *models.Job {
	clone := *j
	clone.Skills = append([]string(nil), j.Skills...)
	if j.Salary != nil {
		salary := *j.Salary
		clone.Salary = &salary
	}
	if j.Deadline != nil {
		t := *j.Deadline
		clone.Deadline = &t
	}
	return &clone
}
