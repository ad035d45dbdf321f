package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentmarket/internal/notification/models"
	"rentmarket/internal/platform/middleware"
	userModels "rentmarket/internal/user/models"
	"rentmarket/pkg/platform/httputil"
)

type Service interface {
	NotifyMe(ctx context.Context, actor *userModels.User, propertyID string) (*models.Notification, error)
	List(ctx context.Context, actor *userModels.User) ([]*models.Notification, error)
	MarkRead(ctx context.Context, actor *userModels.User, id string) error
	MarkAllRead(ctx context.Context, actor *userModels.User) (int, error)
}

// ActorLoader returns the caller's profile, or nil for guests.
type ActorLoader interface {
	Actor(ctx context.Context) (*userModels.User, error)
}

type Handler struct {
	notifications Service
	actors        ActorLoader
	logger        *slog.Logger
}

func New(notifications Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Post("/properties/{id}/notify", h.handleNotifyMe)
		r.Get("/notifications", h.handleList)
		r.Post("/notifications/read-all", h.handleMarkAllRead)
		r.Post("/notifications/{id}/read", h.handleMarkRead)
	})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*userModels.User, bool) {
	actor, err := h.actors.Actor(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return actor, true
}

func (h *Handler) handleNotifyMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.NotifyMe(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, n)
}

type listResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	list, err := h.notifications.List(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Notifications: list, Unread: unread})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markAllResponse struct {
	Updated int `json:"updated"`
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	changed, err := h.notifications.MarkAllRead(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, markAllResponse{Updated: changed})
}
