package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"rentmarket/internal/notification/models"
	"rentmarket/internal/platform/metrics"
	propertyModels "rentmarket/internal/property/models"
	"rentmarket/internal/property/visibility"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/requestcontext"
)

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type PropertyLookup interface {
	FindByID(ctx context.Context, id string) (*propertyModels.Property, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	notifications  NotificationStore
	props          PropertyLookup
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(notifications NotificationStore, props PropertyLookup, opts ...Option) *Service {
	s := &Service{
		notifications: notifications,
		props:         props,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyMe records that actor wants to hear about listing propertyID and
// acknowledges it with a notification addressed to actor.
func (s *Service) NotifyMe(ctx context.Context, actor *userModels.User, propertyID string) (*models.Notification, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := s.props.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	if !visibility.CanSee(p, actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
	}

	n := &models.Notification{
		ID:         uuid.NewString(),
		UserID:     actor.ID,
		PropertyID: p.ID,
		Message:    models.AvailabilityMessage(p.Title),
		Timestamp:  models.NewTimestamp(requestcontext.Now(ctx)),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create notification")
	}
	s.metrics.IncNotificationsCreated()
	s.emit(ctx, n)
	return n, nil
}

func (s *Service) List(ctx context.Context, actor *userModels.User) ([]*models.Notification, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	list, err := s.notifications.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, actor *userModels.User, id string) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := s.notifications.MarkRead(ctx, actor.ID, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor *userModels.User) (int, error) {
	if actor == nil {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	changed, err := s.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notifications")
	}
	return changed, nil
}

func (s *Service) emit(ctx context.Context, n *models.Notification) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    audit.ActionNotificationCreated,
		Timestamp: n.Timestamp.Time,
		UserID:    n.UserID,
		Subject:   n.ID,
		RequestID: requestcontext.RequestID(ctx),
		Attrs:     map[string]string{"property_id": n.PropertyID},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", string(audit.ActionNotificationCreated))
	}
}
