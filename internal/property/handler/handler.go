package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rentmarket/internal/pagination"
	"rentmarket/internal/platform/middleware"
	"rentmarket/internal/property/models"
	"rentmarket/internal/property/visibility"
	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/httputil"
)

type Service interface {
	List(ctx context.Context, actor *userModels.User, c visibility.Criteria, page int) (pagination.Page[*models.Property], error)
	Get(ctx context.Context, actor *userModels.User, id string) (*models.Property, error)
	Create(ctx context.Context, actor *userModels.User, req *models.CreateRequest) (*models.Property, error)
	Update(ctx context.Context, actor *userModels.User, id string, req *models.UpdateRequest) (*models.Property, error)
	SetStatus(ctx context.Context, actor *userModels.User, id string, status models.Status) (*models.Property, error)
	SetOccupied(ctx context.Context, actor *userModels.User, id string, occupied bool) (*models.Property, error)
	Delete(ctx context.Context, actor *userModels.User, id string) error
	Rate(ctx context.Context, actor *userModels.User, id string, vote int) (*models.Property, error)
}

// ActorLoader returns the caller's profile, or nil for guests.
type ActorLoader interface {
	Actor(ctx context.Context) (*userModels.User, error)
}

type Handler struct {
	props  Service
	actors ActorLoader
	logger *slog.Logger
}

func New(props Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{props: props, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/properties", h.handleList)
	r.Get("/properties/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Post("/properties", h.handleCreate)
		r.Patch("/properties/{id}", h.handleUpdate)
		r.Delete("/properties/{id}", h.handleDelete)
		r.Post("/properties/{id}/status", h.handleSetStatus)
		r.Post("/properties/{id}/occupancy", h.handleSetOccupied)
		r.Post("/properties/{id}/ratings", h.handleRate)
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

func parseListQuery(r *http.Request) (visibility.Criteria, int, error) {
	q := r.URL.Query()
	c := visibility.Criteria{Search: q.Get("search")}
	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return c, 0, dErrors.New(dErrors.CodeBadRequest, "max_price must be a non-negative integer")
		}
		c.MaxPrice = &v
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return c, 0, dErrors.New(dErrors.CodeBadRequest, "page must be a positive integer")
		}
		page = v
	}
	return c, page, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	c, page, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	result, err := h.props.List(r.Context(), actor, c, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.Create(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "property created",
		"request_id", middleware.GetRequestID(r.Context()),
		"property_id", p.ID,
		"owner_id", p.OwnerID,
	)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.Update(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.props.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type occupancyRequest struct {
	IsOccupied bool `json:"is_occupied"`
}

func (h *Handler) handleSetOccupied(w http.ResponseWriter, r *http.Request) {
	var req occupancyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.SetOccupied(r.Context(), actor, chi.URLParam(r, "id"), req.IsOccupied)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type rateRequest struct {
	Vote int `json:"vote"`
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	p, err := h.props.Rate(r.Context(), actor, chi.URLParam(r, "id"), req.Vote)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
