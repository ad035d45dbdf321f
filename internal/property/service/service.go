package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rentmarket/internal/pagination"
	"rentmarket/internal/platform/metrics"
	"rentmarket/internal/property/models"
	"rentmarket/internal/property/visibility"
	"rentmarket/internal/rating"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/requestcontext"
)

type PropertyStore interface {
	List(ctx context.Context) ([]*models.Property, error)
	FindByID(ctx context.Context, id string) (*models.Property, error)
	Create(ctx context.Context, p *models.Property) error
	Update(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, id string) error
	ApplyVote(ctx context.Context, id string, fn func(rating.Score) rating.Score) (*models.Property, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service applies the listing rules: who may see, edit, moderate and rate.
type Service struct {
	props          PropertyStore
	pageSize       int
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

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func New(props PropertyStore, opts ...Option) *Service {
	s := &Service{
		props:    props,
		pageSize: pagination.DefaultPageSize,
		logger:   slog.Default(),
		tracer:   otel.Tracer("rentmarket/property"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of the listings actor may see that match c.
// Pages past the end are empty.
func (s *Service) List(ctx context.Context, actor *userModels.User, c visibility.Criteria, page int) (pagination.Page[*models.Property], error) {
	if page < 1 {
		page = 1
	}
	all, err := s.props.List(ctx)
	if err != nil {
		return pagination.Page[*models.Property]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	visible := visibility.Filter(all, c, actor)
	return pagination.Paginate(visible, page, s.pageSize), nil
}

// Get hides listings the actor may not see behind not_found.
func (s *Service) Get(ctx context.Context, actor *userModels.User, id string) (*models.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibility.CanSee(p, actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor *userModels.User, req *models.CreateRequest) (*models.Property, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != userModels.RoleOwner && !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only owners can publish listings")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p := &models.Property{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Status:      models.StatusActive,
		ImageURLs:   req.ImageURLs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.props.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create property")
	}
	s.emit(ctx, audit.ActionPropertyCreated, actor.ID, p.ID, nil)
	return p, nil
}

// Update edits a listing. Only its owner may do so.
func (s *Service) Update(ctx context.Context, actor *userModels.User, id string, req *models.UpdateRequest) (*models.Property, error) {
	p, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionPropertyUpdated, actor.ID, p.ID, nil)
	return p, nil
}

// SetStatus suspends or reactivates a listing. Staff only.
func (s *Service) SetStatus(ctx context.Context, actor *userModels.User, id string, status models.Status) (*models.Property, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can moderate listings")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be active or suspended")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Status
	p.Status = status
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionPropertyStatusChanged, actor.ID, p.ID, map[string]string{
		"from": string(previous),
		"to":   string(status),
	})
	return p, nil
}

// SetOccupied toggles the occupancy flag. Only the listing owner may do so.
func (s *Service) SetOccupied(ctx context.Context, actor *userModels.User, id string, occupied bool) (*models.Property, error) {
	p, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.IsOccupied = occupied
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionPropertyUpdated, actor.ID, p.ID, map[string]string{
		"is_occupied": strconv.FormatBool(occupied),
	})
	return p, nil
}

// Delete removes a listing. Its owner and staff may do so.
func (s *Service) Delete(ctx context.Context, actor *userModels.User, id string) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != actor.ID && !actor.Role.IsStaff() {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to delete this listing")
	}
	if err := s.props.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete property")
	}
	s.emit(ctx, audit.ActionPropertyDeleted, actor.ID, id, nil)
	return nil
}

// Rate records one vote in [1,5] on a listing the actor can see. Votes on
// the same listing are serialized by the store.
func (s *Service) Rate(ctx context.Context, actor *userModels.User, id string, vote int) (*models.Property, error) {
	ctx, span := s.tracer.Start(ctx, "property.Rate",
		trace.WithAttributes(attribute.String("property_id", id), attribute.Int("vote", vote)))
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := rating.ValidateVote(vote); err != nil {
		return nil, err
	}
	target, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if target.OwnerID == actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "owners cannot rate their own listing")
	}

	p, err := s.props.ApplyVote(ctx, id, func(current rating.Score) rating.Score {
		return rating.Apply(current, vote)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}
	s.metrics.IncVotesApplied()
	s.emit(ctx, audit.ActionVoteRecorded, actor.ID, id, map[string]string{
		"vote":   strconv.Itoa(vote),
		"rating": strconv.FormatFloat(p.Rating, 'f', 2, 64),
		"count":  strconv.Itoa(p.ReviewCount),
	})
	return p, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Property, error) {
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	return p, nil
}

func (s *Service) loadOwned(ctx context.Context, actor *userModels.User, id string) (*models.Property, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.ID {
		if !visibility.CanSee(p, actor) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner can change this listing")
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.props.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update property")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, userID, propertyID string, attrs map[string]string) {
	if s.auditPublisher == nil {
		return
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["property_id"] = propertyID
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   propertyID,
		RequestID: requestcontext.RequestID(ctx),
		Attrs:     attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", string(action))
	}
}
