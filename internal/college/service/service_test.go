package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"alumnet/internal/college/models"
	"alumnet/internal/college/store"
	id "alumnet/pkg/domain"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/requestcontext"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
	ctx      context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(store.NewInMemory())
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestResolveOrCreate() {
	s.Run("creates a college for an unseen domain", func() {
		college, err := s.registry.ResolveOrCreate(s.ctx, "alice@newcollege.edu", "New College")
		s.Require().NoError(err)
		s.Equal("newcollege.edu", college.EmailDomain)
		s.Equal("new-college", college.Slug)
	})

	s.Run("returns the existing college on the second registration", func() {
		first, err := s.registry.ResolveOrCreate(s.ctx, "a@shared.edu", "Shared U")
		s.Require().NoError(err)
		second, err := s.registry.ResolveOrCreate(s.ctx, "b@shared.edu", "Ignored Name")
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
	})

	s.Run("rejects a taken name on a new domain", func() {
		_, err := s.registry.ResolveOrCreate(s.ctx, "a@taken.edu", "Taken Name")
		s.Require().NoError(err)
		_, err = s.registry.ResolveOrCreate(s.ctx, "a@other.edu", "Taken Name")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects an email without a domain", func() {
		_, err := s.registry.ResolveOrCreate(s.ctx, "no-at-sign", "Whatever")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestResolveOrCreateRace exercises N concurrent first-registrations for
// one unseen domain: exactly one college must come out the other side.
func (s *RegistrySuite) TestResolveOrCreateRace() {
	const racers = 32

	var wg sync.WaitGroup
	results := make([]*models.College, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.registry.ResolveOrCreate(s.ctx, "racer@contested.edu", "Contested U")
		}(i)
	}
	wg.Wait()

	winner := results[0]
	for i := 0; i < racers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(winner.ID, results[i].ID)
	}
}

func (s *RegistrySuite) TestCounters() {
	college, err := s.registry.ResolveOrCreate(s.ctx, "x@count.edu", "Count U")
	s.Require().NoError(err)

	s.Require().NoError(s.registry.IncrementRoleCounter(s.ctx, college.ID, id.RoleStudent))
	s.Require().NoError(s.registry.IncrementRoleCounter(s.ctx, college.ID, id.RoleAdmin))
	s.Require().NoError(s.registry.IncrementJobCounter(s.ctx, college.ID))

	got, err := s.registry.Get(s.ctx, college.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.Stats.TotalStudents, "admin registrations are not counted")
	s.Equal(int64(1), got.Stats.TotalJobs)
}

func (s *RegistrySuite) TestLifecycle() {
	college, err := s.registry.ResolveOrCreate(s.ctx, "x@life.edu", "Life U")
	s.Require().NoError(err)

	s.Run("deactivate then conflict on repeat", func() {
		deactivated, err := s.registry.Deactivate(s.ctx, college.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, deactivated.Status)

		_, err = s.registry.Deactivate(s.ctx, college.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("reactivate", func() {
		reactivated, err := s.registry.Reactivate(s.ctx, college.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, reactivated.Status)
	})
}

func (s *RegistrySuite) TestAdmins() {
	college, err := s.registry.ResolveOrCreate(s.ctx, "x@adm.edu", "Adm U")
	s.Require().NoError(err)

	adminID := id.NewUserID()
	s.Require().NoError(s.registry.AddAdmin(s.ctx, college.ID, adminID))

	got, err := s.registry.Get(s.ctx, college.ID)
	s.Require().NoError(err)
	s.True(got.HasAdmin(adminID))
}
