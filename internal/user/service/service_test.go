package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"rentmarket/internal/platform/logger"
	"rentmarket/internal/user/models"
	"rentmarket/internal/user/store"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/requestcontext"
)

type UserServiceSuite struct {
	suite.Suite
	users   *store.InMemory
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.users = store.NewInMemory()
	s.service = New(s.users, WithLogger(logger.Discard()))
	s.Require().NoError(s.users.Create(context.Background(), &models.User{
		ID: "u1", Name: "Ana", Email: "ana@example.com", Role: models.RoleOwner,
	}))
}

func (s *UserServiceSuite) TestActor() {
	s.Run("guest", func() {
		actor, err := s.service.Actor(context.Background())
		s.Require().NoError(err)
		s.Nil(actor)
	})

	s.Run("resolved subject", func() {
		ctx := requestcontext.WithIdentity(context.Background(), "u1", "ana@example.com")
		actor, err := s.service.Actor(ctx)
		s.Require().NoError(err)
		s.Equal(models.RoleOwner, actor.Role)
	})

	s.Run("subject without profile", func() {
		ctx := requestcontext.WithIdentity(context.Background(), "ghost", "g@example.com")
		_, err := s.service.Actor(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UserServiceSuite) TestUpdateProfile() {
	name := "  Ana Souza "
	user, err := s.service.UpdateProfile(context.Background(), "u1", &models.UpdateProfileRequest{Name: &name})
	s.Require().NoError(err)
	s.Equal("Ana Souza", user.Name)
	s.Equal(models.RoleOwner, user.Role)

	_, err = s.service.UpdateProfile(context.Background(), "ghost", &models.UpdateProfileRequest{Name: &name})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	blank := " "
	_, err = s.service.UpdateProfile(context.Background(), "u1", &models.UpdateProfileRequest{Name: &blank})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
