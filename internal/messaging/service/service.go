package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rentmarket/internal/messaging/conversation"
	"rentmarket/internal/messaging/models"
	"rentmarket/internal/platform/metrics"
	propertyModels "rentmarket/internal/property/models"
	"rentmarket/internal/property/visibility"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/requestcontext"
)

type MessageStore interface {
	Append(ctx context.Context, m models.Message) error
	ListByParticipant(ctx context.Context, userID string) ([]models.Message, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*userModels.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*userModels.User, error)
}

type PropertyDirectory interface {
	FindByID(ctx context.Context, id string) (*propertyModels.Property, error)
	FindByIDs(ctx context.Context, ids []string) ([]*propertyModels.Property, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service sends messages and derives the caller's conversation list.
type Service struct {
	messages       MessageStore
	users          UserDirectory
	props          PropertyDirectory
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
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

func New(messages MessageStore, users UserDirectory, props PropertyDirectory, opts ...Option) *Service {
	s := &Service{
		messages: messages,
		users:    users,
		props:    props,
		logger:   slog.Default(),
		tracer:   otel.Tracer("rentmarket/messaging"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a message from actor about a listing the actor can see.
func (s *Service) Send(ctx context.Context, actor *userModels.User, req *models.SendRequest) (*models.Message, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ToID == actor.ID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot send a message to yourself")
	}
	if _, err := s.users.FindByID(ctx, req.ToID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "recipient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recipient")
	}
	p, err := s.props.FindByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	if !visibility.CanSee(p, actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
	}

	m := models.Message{
		ID:         uuid.NewString(),
		FromID:     actor.ID,
		ToID:       req.ToID,
		PropertyID: p.ID,
		Content:    req.Content,
		Timestamp:  requestcontext.Now(ctx),
	}
	if err := s.messages.Append(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send message")
	}
	s.metrics.IncMessagesSent()
	s.emit(ctx, actor.ID, m)
	return &m, nil
}

// Conversations returns actor's conversations, newest first. initial, when
// set, is the (listing, partner) the client is opening; it appears as a
// placeholder if no messages exist for it yet.
func (s *Service) Conversations(ctx context.Context, actor *userModels.User, initial *models.ConversationKey) ([]models.ConversationGroup, error) {
	ctx, span := s.tracer.Start(ctx, "messaging.Conversations")
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if initial != nil && (initial.PropertyID == "" || initial.PartnerID == "") {
		return nil, dErrors.New(dErrors.CodeValidation, "property_id and partner_id must be given together")
	}
	log, err := s.messages.ListByParticipant(ctx, actor.ID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load messages")
	}
	dir, err := s.directory(ctx, actor.ID, log, initial)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	groups := conversation.Aggregate(actor.ID, log, dir, initial, requestcontext.Now(ctx))
	span.SetAttributes(attribute.Int("messages", len(log)), attribute.Int("conversations", len(groups)))
	s.metrics.ObserveConversations(len(groups))
	return groups, nil
}

// Thread returns the messages of one conversation, oldest first.
func (s *Service) Thread(ctx context.Context, actor *userModels.User, key models.ConversationKey) ([]models.Message, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	log, err := s.messages.ListByParticipant(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load messages")
	}
	return conversation.Thread(actor.ID, key, log), nil
}

func (s *Service) directory(ctx context.Context, viewerID string, log []models.Message, initial *models.ConversationKey) (conversation.Directory, error) {
	propIDs := make([]string, 0)
	userIDs := make([]string, 0)
	seenProps := map[string]struct{}{}
	seenUsers := map[string]struct{}{}
	add := func(key models.ConversationKey) {
		if _, ok := seenProps[key.PropertyID]; !ok {
			seenProps[key.PropertyID] = struct{}{}
			propIDs = append(propIDs, key.PropertyID)
		}
		if _, ok := seenUsers[key.PartnerID]; !ok {
			seenUsers[key.PartnerID] = struct{}{}
			userIDs = append(userIDs, key.PartnerID)
		}
	}
	for _, m := range log {
		add(models.KeyFor(viewerID, m))
	}
	if initial != nil {
		add(*initial)
	}

	props, err := s.props.FindByIDs(ctx, propIDs)
	if err != nil {
		return conversation.Directory{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load properties")
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return conversation.Directory{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load users")
	}
	return conversation.NewDirectory(props, users), nil
}

func (s *Service) emit(ctx context.Context, userID string, m models.Message) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    audit.ActionMessageSent,
		Timestamp: m.Timestamp,
		UserID:    userID,
		Subject:   m.ID,
		RequestID: requestcontext.RequestID(ctx),
		Attrs: map[string]string{
			"property_id": m.PropertyID,
			"to_id":       m.ToID,
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", string(audit.ActionMessageSent))
	}
}
