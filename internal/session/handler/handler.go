package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rentmarket/internal/platform/middleware"
	"rentmarket/internal/session/models"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/httputil"
)

type Resolver interface {
	Resolve(ctx context.Context, sess *models.IdentitySession, pendingToken string) (*models.Resolution, error)
}

type SessionVerifier interface {
	Verify(raw string) (*models.IdentitySession, error)
}

type PendingRoles interface {
	Set(ctx context.Context, role userModels.Role) (string, error)
	TTL() time.Duration
}

// Handler exposes the authentication round trip: role handoff before the
// provider redirect and session resolution after it.
type Handler struct {
	resolver Resolver
	verifier SessionVerifier
	pending  PendingRoles
	logger   *slog.Logger
}

func New(resolver Resolver, verifier SessionVerifier, pending PendingRoles, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, verifier: verifier, pending: pending, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/pending-role", h.handlePendingRole)
	r.Post("/auth/session", h.handleResolveSession)
	r.Get("/auth/me", h.handleResolveSession)
}

type pendingRoleRequest struct {
	Role string `json:"role"`
}

type pendingRoleResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type resolveRequest struct {
	PendingRoleToken string `json:"pending_role_token"`
}

type sessionResponse struct {
	User      *userModels.User `json:"user"`
	Created   bool             `json:"created"`
	Persisted bool             `json:"persisted"`
}

func (h *Handler) handlePendingRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pendingRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := userModels.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.pending.Set(ctx, role)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "failed to store pending role",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "pending role could not be stored")
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, pendingRoleResponse{
		Token:     token,
		ExpiresIn: int(h.pending.TTL().Seconds()),
	})
}

func (h *Handler) handleResolveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var sess *models.IdentitySession
	if raw := middleware.BearerToken(r); raw != "" {
		verified, err := h.verifier.Verify(raw)
		if err != nil {
			h.logger.WarnContext(ctx, "session token rejected",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired session"))
			return
		}
		sess = verified
	}

	var req resolveRequest
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			httputil.WriteError(w, err)
			return
		}
	}

	res, err := h.resolver.Resolve(ctx, sess, req.PendingRoleToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !res.Authenticated() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
		return
	}
	if res.CreateErr != nil {
		h.logger.WarnContext(ctx, "serving unpersisted profile",
			"request_id", requestID,
			"subject_id", res.User.ID,
			"error", res.CreateErr,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		User:      res.User,
		Created:   res.Created,
		Persisted: res.Persisted,
	})
}
