package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"rentmarket/internal/user/models"
	"rentmarket/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newUser(id, email string) *models.User {
	return &models.User{ID: id, Name: "n-" + id, Email: email, Role: models.RoleClient}
}

func (s *UserStoreSuite) TestCreateAndFind() {
	s.Require().NoError(s.store.Create(s.ctx, newUser("u1", "u1@example.com")))

	found, err := s.store.FindByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("u1@example.com", found.Email)
	s.False(found.CreatedAt.IsZero())

	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *UserStoreSuite) TestUniqueness() {
	s.Run("duplicate id conflicts", func() {
		s.Require().NoError(s.store.Create(s.ctx, newUser("dup", "dup@example.com")))
		s.ErrorIs(s.store.Create(s.ctx, newUser("dup", "other@example.com")), sentinel.ErrConflict)
	})

	s.Run("duplicate email conflicts", func() {
		s.ErrorIs(s.store.Create(s.ctx, newUser("other", "dup@example.com")), sentinel.ErrConflict)
	})
}

func (s *UserStoreSuite) TestConcurrentCreateSingleWinner() {
	const goroutines = 32
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, newUser("race", "race@example.com"))
			switch {
			case err == nil:
				created.Add(1)
			case err == sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *UserStoreSuite) TestUpdatePartial() {
	s.Require().NoError(s.store.Create(s.ctx, newUser("u2", "u2@example.com")))
	role := models.RoleSuperAdmin

	s.Require().NoError(s.store.Update(s.ctx, "u2", models.ProfileUpdate{Role: &role}))

	found, err := s.store.FindByID(s.ctx, "u2")
	s.Require().NoError(err)
	s.Equal(models.RoleSuperAdmin, found.Role)
	s.Equal("n-u2", found.Name)

	s.ErrorIs(s.store.Update(s.ctx, "missing", models.ProfileUpdate{Role: &role}), sentinel.ErrNotFound)
}

func (s *UserStoreSuite) TestFindByIDsSkipsUnknown() {
	s.Require().NoError(s.store.Create(s.ctx, newUser("a", "a@example.com")))
	s.Require().NoError(s.store.Create(s.ctx, newUser("b", "b@example.com")))

	users, err := s.store.FindByIDs(s.ctx, []string{"a", "ghost", "b"})
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *UserStoreSuite) TestReturnedCopiesAreDetached() {
	s.Require().NoError(s.store.Create(s.ctx, newUser("c", "c@example.com")))
	found, err := s.store.FindByID(s.ctx, "c")
	s.Require().NoError(err)
	found.Role = models.RoleAdmin

	again, err := s.store.FindByID(s.ctx, "c")
	s.Require().NoError(err)
	s.Equal(models.RoleClient, again.Role)
}
