//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"rentmarket/internal/user/models"
	"rentmarket/internal/user/store"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresUserStoreSuite) TestRoundTripAndPartialUpdate() {
	ctx := context.Background()
	u := &models.User{ID: "sub-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleOwner, Avatar: "x"}
	s.Require().NoError(s.store.Create(ctx, u))

	name := "Ana S."
	s.Require().NoError(s.store.Update(ctx, "sub-1", models.ProfileUpdate{Name: &name}))

	found, err := s.store.FindByID(ctx, "sub-1")
	s.Require().NoError(err)
	s.Equal("Ana S.", found.Name)
	s.Equal(models.RoleOwner, found.Role)
	s.Equal("x", found.Avatar)

	users, err := s.store.FindByIDs(ctx, []string{"sub-1", "ghost"})
	s.Require().NoError(err)
	s.Len(users, 1)

	_, err = s.store.FindByID(ctx, "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentFirstLogin verifies the primary key turns racing creates for
// one subject into exactly one row and conflicts for everyone else.
func (s *PostgresUserStoreSuite) TestConcurrentFirstLogin() {
	ctx := context.Background()
	const goroutines = 20
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, &models.User{ID: "race", Name: "r", Email: "race@example.com", Role: models.RoleClient})
			if err == nil {
				created.Add(1)
			} else if err == sentinel.ErrConflict {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
