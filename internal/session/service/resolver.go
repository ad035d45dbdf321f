package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"rentmarket/internal/platform/device"
	"rentmarket/internal/platform/metrics"
	"rentmarket/internal/session/models"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/audit"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/requestcontext"
)

// ProfileStore is the profile persistence the resolver needs. The store owns
// uniqueness on subject id and reports duplicates as sentinel.ErrConflict.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (*userModels.User, error)
	Create(ctx context.Context, user *userModels.User) error
	Update(ctx context.Context, id string, update userModels.ProfileUpdate) error
}

// PendingRoleStore hands over the role chosen at registration.
type PendingRoleStore interface {
	Consume(ctx context.Context, token string) (userModels.Role, bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	outcomeUnauthenticated = "unauthenticated"
	outcomeExisting        = "existing"
	outcomeCreated         = "created"
	outcomeFallback        = "fallback"
	outcomeReadFailed      = "read_failed"
)

// Resolver maps identity-provider sessions onto local profiles.
type Resolver struct {
	profiles        ProfileStore
	pending         PendingRoleStore
	privilegedEmail string
	logger          *slog.Logger
	metrics         *metrics.Metrics
	auditPublisher  AuditPublisher
	tracer          trace.Tracer
	inflight        singleflight.Group
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Resolver) {
		r.auditPublisher = publisher
	}
}

// WithPrivilegedEmail sets the address that always resolves to superadmin.
// The comparison is case-sensitive; an empty value disables the override.
func WithPrivilegedEmail(email string) Option {
	return func(r *Resolver) {
		r.privilegedEmail = email
	}
}

func New(profiles ProfileStore, pending PendingRoleStore, opts ...Option) *Resolver {
	r := &Resolver{
		profiles: profiles,
		pending:  pending,
		logger:   slog.Default(),
		tracer:   otel.Tracer("rentmarket/session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps sess onto a local profile, provisioning one on first sight.
//
// A nil session resolves to Unauthenticated with no error. A failed profile
// read also yields Unauthenticated, together with an unavailable-coded error.
// A failed create still resolves, with Persisted=false and CreateErr set.
// pendingToken is consumed whenever it is non-empty.
func (r *Resolver) Resolve(ctx context.Context, sess *models.IdentitySession, pendingToken string) (*models.Resolution, error) {
	start := time.Now()
	if sess == nil || sess.SubjectID == "" {
		r.metrics.ObserveResolve(outcomeUnauthenticated, start)
		return &models.Resolution{State: models.StateUnauthenticated}, nil
	}

	ctx, span := r.tracer.Start(ctx, "session.Resolve",
		trace.WithAttributes(attribute.String("subject_id", sess.SubjectID)))
	defer span.End()

	// Concurrent resolutions of the same subject and handoff token share one
	// store round trip. The shared call outlives any single caller's
	// cancellation; each caller stops waiting on its own ctx.
	key := sess.SubjectID + "\x00" + pendingToken
	shared := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(key, func() (any, error) {
		return r.resolve(shared, sess, pendingToken)
	})
	var v any
	var err error
	select {
	case out := <-ch:
		v, err = out.Val, out.Err
	case <-ctx.Done():
		err = dErrors.Wrap(ctx.Err(), dErrors.CodeUnavailable, "profile lookup abandoned")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile read failed")
		r.metrics.ObserveResolve(outcomeReadFailed, start)
		return &models.Resolution{State: models.StateUnauthenticated}, err
	}

	res := v.(*models.Resolution).Clone()
	span.SetAttributes(attribute.String("role", string(res.User.Role)), attribute.Bool("persisted", res.Persisted))
	r.metrics.ObserveResolve(outcomeOf(res), start)
	return res, nil
}

func outcomeOf(res *models.Resolution) string {
	switch {
	case !res.Persisted:
		return outcomeFallback
	case res.Created:
		return outcomeCreated
	default:
		return outcomeExisting
	}
}

func (r *Resolver) resolve(ctx context.Context, sess *models.IdentitySession, pendingToken string) (*models.Resolution, error) {
	requested := r.consumePending(ctx, sess, pendingToken)

	user, err := r.profiles.FindByID(ctx, sess.SubjectID)
	switch {
	case err == nil:
		return r.resolveExisting(ctx, sess, user), nil
	case errors.Is(err, sentinel.ErrNotFound):
		return r.provision(ctx, sess, requested)
	default:
		r.logger.ErrorContext(ctx, "profile lookup failed",
			"error", err,
			"subject_id", sess.SubjectID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile lookup failed")
	}
}

// consumePending clears the handoff token regardless of which branch the
// resolution takes. Failures degrade to no requested role.
func (r *Resolver) consumePending(ctx context.Context, sess *models.IdentitySession, token string) userModels.Role {
	if token == "" || r.pending == nil {
		return ""
	}
	role, ok, err := r.pending.Consume(ctx, token)
	if err != nil {
		r.logger.WarnContext(ctx, "pending role lookup failed, using default role",
			"error", err,
			"subject_id", sess.SubjectID,
		)
		return ""
	}
	if !ok || !role.SelfAssignable() {
		return ""
	}
	return role
}

func (r *Resolver) isPrivileged(email string) bool {
	return r.privilegedEmail != "" && email == r.privilegedEmail
}

// resolveExisting applies the privileged-email override on every resolution
// so a drifted stored role heals itself.
func (r *Resolver) resolveExisting(ctx context.Context, sess *models.IdentitySession, user *userModels.User) *models.Resolution {
	if r.isPrivileged(sess.Email) && user.Role != userModels.RoleSuperAdmin {
		previous := user.Role
		role := userModels.RoleSuperAdmin
		user.Role = role
		if err := r.profiles.Update(ctx, user.ID, userModels.ProfileUpdate{Role: &role}); err != nil {
			r.logger.WarnContext(ctx, "failed to persist privileged role correction",
				"error", err,
				"subject_id", user.ID,
			)
		} else {
			r.metrics.IncPrivilegedRoleFixes()
			r.emit(ctx, audit.ActionRoleCorrected, user.ID, map[string]string{
				"previous_role": string(previous),
			})
		}
	}
	return &models.Resolution{State: models.StateResolved, User: user, Persisted: true}
}

func (r *Resolver) provision(ctx context.Context, sess *models.IdentitySession, requested userModels.Role) (*models.Resolution, error) {
	role := userModels.RoleClient
	switch {
	case r.isPrivileged(sess.Email):
		role = userModels.RoleSuperAdmin
	case requested != "":
		role = requested
	}

	now := requestcontext.Now(ctx)
	user := &userModels.User{
		ID:        sess.SubjectID,
		Name:      sess.DisplayName(),
		Email:     sess.Email,
		Role:      role,
		Avatar:    sess.Avatar(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.profiles.Create(ctx, user)
	if err == nil {
		r.metrics.IncProfilesCreated()
		r.emit(ctx, audit.ActionProfileCreated, user.ID, map[string]string{"role": string(role)})
		return &models.Resolution{State: models.StateResolved, User: user, Created: true, Persisted: true}, nil
	}

	createErr := dErrors.Wrap(err, dErrors.CodeInternal, "profile create failed")
	if errors.Is(err, sentinel.ErrConflict) {
		// Another resolution for this subject won the insert.
		existing, findErr := r.profiles.FindByID(ctx, sess.SubjectID)
		switch {
		case findErr == nil:
			return r.resolveExisting(ctx, sess, existing), nil
		case !errors.Is(findErr, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(findErr, dErrors.CodeUnavailable, "profile lookup failed")
		}
		// The email belongs to a different subject.
		createErr = dErrors.Wrap(err, dErrors.CodeConflict, "email already registered to another profile")
	}

	r.logger.WarnContext(ctx, "profile create failed, continuing with unpersisted profile",
		"error", err,
		"subject_id", sess.SubjectID,
		"role", string(role),
	)
	r.metrics.IncProfileCreateFailures()
	r.emit(ctx, audit.ActionProfileCreateFailed, user.ID, map[string]string{"role": string(role)})
	return &models.Resolution{
		State:     models.StateResolved,
		User:      user,
		Created:   true,
		Persisted: false,
		CreateErr: createErr,
	}, nil
}

func (r *Resolver) emit(ctx context.Context, action audit.Action, userID string, attrs map[string]string) {
	if r.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   userID,
		RequestID: requestcontext.RequestID(ctx),
		Device:    device.Describe(requestcontext.UserAgent(ctx)),
		Attrs:     attrs,
	}
	if err := r.auditPublisher.Emit(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event",
			"error", err,
			"action", string(action),
		)
	}
}
