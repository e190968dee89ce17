package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"alumnet/internal/college/models"
	id "alumnet/pkg/domain"
	"alumnet/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound when the requested college does not exist
// - Return sentinel.ErrConflict when a unique constraint would be violated
// - Return nil for successful operations

// InMemory stores colleges in memory for tests and development. Uniqueness
// of name and email domain is enforced under the store mutex, which is the
// same atomicity point the postgres implementation gets from its unique
// indexes.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.CollegeID]*models.College
	byDomain map[string]id.CollegeID
	byName   map[string]id.CollegeID
}

// NewInMemory constructs an empty in-memory college store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.CollegeID]*models.College),
		byDomain: make(map[string]id.CollegeID),
		byName:   make(map[string]id.CollegeID),
	}
}

func cloneCollege(c *models.College) *models.College {
	cp := *c
	cp.Admins = append([]id.UserID(nil), c.Admins...)
	return &cp
}

// CreateIfDomainAvailable inserts the college only when neither its email
// domain nor its name is taken. This is the atomic create-if-absent
// primitive that makes implicit tenant creation race-free.
func (s *InMemory) CreateIfDomainAvailable(_ context.Context, college *models.College) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDomain[college.EmailDomain]; ok {
		return fmt.Errorf("email domain %q: %w", college.EmailDomain, sentinel.ErrConflict)
	}
	nameKey := strings.ToLower(college.Name)
	if _, ok := s.byName[nameKey]; ok {
		return fmt.Errorf("college name %q: %w", college.Name, sentinel.ErrConflict)
	}

	s.byID[college.ID] = cloneCollege(college)
	s.byDomain[college.EmailDomain] = college.ID
	s.byName[nameKey] = college.ID
	return nil
}

// FindByID retrieves a college by ID.
func (s *InMemory) FindByID(_ context.Context, collegeID id.CollegeID) (*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byID[collegeID]; ok {
		return cloneCollege(c), nil
	}
	return nil, fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
}

// FindByDomain retrieves a college by normalized email domain.
func (s *InMemory) FindByDomain(_ context.Context, domain string) (*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if collegeID, ok := s.byDomain[strings.ToLower(domain)]; ok {
		return cloneCollege(s.byID[collegeID]), nil
	}
	return nil, fmt.Errorf("college domain %q: %w", domain, sentinel.ErrNotFound)
}

// FindBySlug retrieves a college by slug.
func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.byID {
		if c.Slug == slug {
			return cloneCollege(c), nil
		}
	}
	return nil, fmt.Errorf("college slug %q: %w", slug, sentinel.ErrNotFound)
}

// IncrementRoleCount atomically bumps the counter for the given role.
// Admin registrations are not counted; the role's Counted method is checked
// by the service before calling.
func (s *InMemory) IncrementRoleCount(_ context.Context, collegeID id.CollegeID, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[collegeID]
	if !ok {
		return fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	switch role {
	case id.RoleStudent:
		c.Stats.TotalStudents++
	case id.RoleAlumni:
		c.Stats.TotalAlumni++
	case id.RoleFaculty:
		c.Stats.TotalFaculty++
	}
	return nil
}

// IncrementJobCount atomically bumps the published-jobs counter.
func (s *InMemory) IncrementJobCount(_ context.Context, collegeID id.CollegeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[collegeID]
	if !ok {
		return fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	c.Stats.TotalJobs++
	return nil
}

// AddAdmin appends the user to the college's admin list if not already
// present. Append order is preserved.
func (s *InMemory) AddAdmin(_ context.Context, collegeID id.CollegeID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[collegeID]
	if !ok {
		return fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	if !c.HasAdmin(userID) {
		c.Admins = append(c.Admins, userID)
	}
	return nil
}

// Execute runs validate then mutate on the college while holding the store
// lock, so status transitions cannot interleave. Returns the updated
// college on success.
func (s *InMemory) Execute(
	_ context.Context,
	collegeID id.CollegeID,
	validate func(*models.College) error,
	mutate func(*models.College),
) (*models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[collegeID]
	if !ok {
		return nil, fmt.Errorf("college %s: %w", collegeID, sentinel.ErrNotFound)
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)
	return cloneCollege(c), nil
}
