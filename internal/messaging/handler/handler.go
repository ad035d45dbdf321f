package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentmarket/internal/messaging/models"
	"rentmarket/internal/platform/middleware"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/httputil"
)

type Service interface {
	Send(ctx context.Context, actor *userModels.User, req *models.SendRequest) (*models.Message, error)
	Conversations(ctx context.Context, actor *userModels.User, initial *models.ConversationKey) ([]models.ConversationGroup, error)
	Thread(ctx context.Context, actor *userModels.User, key models.ConversationKey) ([]models.Message, error)
}

// ActorLoader returns the caller's profile, or nil for guests.
type ActorLoader interface {
	Actor(ctx context.Context) (*userModels.User, error)
}

type Handler struct {
	messages Service
	actors   ActorLoader
	logger   *slog.Logger
}

func New(messages Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{messages: messages, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Post("/messages", h.handleSend)
		r.Get("/conversations", h.handleConversations)
		r.Get("/conversations/{propertyID}/{partnerID}", h.handleThread)
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

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	m, err := h.messages.Send(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "message sent",
		"request_id", middleware.GetRequestID(r.Context()),
		"message_id", m.ID,
		"property_id", m.PropertyID,
	)
	httputil.WriteJSON(w, http.StatusCreated, m)
}

type conversationsResponse struct {
	Conversations []models.ConversationGroup `json:"conversations"`
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	var initial *models.ConversationKey
	q := r.URL.Query()
	propertyID, partnerID := q.Get("property_id"), q.Get("partner_id")
	switch {
	case propertyID != "" && partnerID != "":
		initial = &models.ConversationKey{PropertyID: propertyID, PartnerID: partnerID}
	case propertyID != "" || partnerID != "":
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "property_id and partner_id must be given together"))
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	groups, err := h.messages.Conversations(r.Context(), actor, initial)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, conversationsResponse{Conversations: groups})
}

type threadResponse struct {
	Key      string           `json:"key"`
	Messages []models.Message `json:"messages"`
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	key := models.ConversationKey{
		PropertyID: chi.URLParam(r, "propertyID"),
		PartnerID:  chi.URLParam(r, "partnerID"),
	}
	msgs, err := h.messages.Thread(r.Context(), actor, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, threadResponse{Key: key.String(), Messages: msgs})
}
