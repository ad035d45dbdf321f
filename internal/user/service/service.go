package service

import (
	"context"
	"errors"
	"log/slog"

	"rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/requestcontext"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, update models.ProfileUpdate) error
}

// Service serves profile reads and edits and loads the acting user for
// other modules.
type Service struct {
	users  UserStore
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users UserStore, opts ...Option) *Service {
	s := &Service{users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Actor returns the profile of the authenticated caller, or nil for guests.
// An authenticated subject without a profile has not resolved its session yet.
func (s *Service) Actor(ctx context.Context) (*models.User, error) {
	subject := requestcontext.SubjectID(ctx)
	if subject == "" {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session not resolved")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load profile")
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// UpdateProfile applies the caller's own profile edits.
func (s *Service) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, id, req.ToUpdate()); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	s.logger.InfoContext(ctx, "profile updated", "user_id", id)
	return s.Get(ctx, id)
}
