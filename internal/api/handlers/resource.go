package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/botwise/internal/api"
	"github.com/cloo-solutions/botwise/internal/api/middleware"
	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/service"
)

type ResourceService interface {
	Create(ctx context.Context, input service.CreateResourceInput) (*domain.Resource, error)
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context, input service.ListResourcesInput) (*service.ListResourcesOutput, error)
	Delete(ctx context.Context, id string) error
}

// ResourceHandler exposes resource ingestion under a bot. Bot ownership is
// checked on every route so one org can never touch another org's corpus.
type ResourceHandler struct {
	svc  ResourceService
	bots BotService
}

func NewResourceHandler(svc ResourceService, bots BotService) *ResourceHandler {
	return &ResourceHandler{svc: svc, bots: bots}
}

type CreateResourceRequest struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Chunks []string `json:"chunks"`
}

type ResourceResponse struct {
	ID        string `json:"id"`
	BotID     string `json:"bot_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func resourceToResponse(res *domain.Resource) *ResourceResponse {
	return &ResourceResponse{
		ID:        res.ID,
		BotID:     res.BotID,
		Name:      res.Name,
		Kind:      string(res.Kind),
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: res.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ResourceHandler) ownedBot(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}

	botID := chi.URLParam(r, "botID")
	if botID == "" {
		api.Error(w, http.StatusBadRequest, "bot id is required")
		return "", false
	}

	if _, err := h.bots.GetForOrg(r.Context(), orgID, botID); err != nil {
		api.HandleError(w, err)
		return "", false
	}

	return botID, true
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	botID, ok := h.ownedBot(w, r)
	if !ok {
		return
	}

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Kind == "" {
		api.Error(w, http.StatusBadRequest, "kind is required")
		return
	}
	if len(req.Chunks) == 0 {
		api.Error(w, http.StatusBadRequest, "chunks are required")
		return
	}

	resource, err := h.svc.Create(r.Context(), service.CreateResourceInput{
		BotID:  botID,
		Name:   req.Name,
		Kind:   domain.ResourceKind(req.Kind),
		Chunks: req.Chunks,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, resourceToResponse(resource))
}

type ResourceListResponse struct {
	Items   []*ResourceResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	botID, ok := h.ownedBot(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	out, err := h.svc.List(r.Context(), service.ListResourcesInput{
		BotID:  botID,
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ResourceResponse, 0, len(out.Items))
	for _, res := range out.Items {
		items = append(items, resourceToResponse(res))
	}

	api.Success(w, http.StatusOK, ResourceListResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	botID, ok := h.ownedBot(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	resource, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if resource.BotID != botID {
		api.HandleError(w, domain.ErrResourceNotFound)
		return
	}

	api.Success(w, http.StatusOK, resourceToResponse(resource))
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	botID, ok := h.ownedBot(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	resource, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if resource.BotID != botID {
		api.HandleError(w, domain.ErrResourceNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
