package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/botwise/internal/api"
	"github.com/cloo-solutions/botwise/internal/api/middleware"
	"github.com/cloo-solutions/botwise/internal/domain"
)

type BotService interface {
	Create(ctx context.Context, orgID, name string) (*domain.Bot, error)
	GetForOrg(ctx context.Context, orgID, botID string) (*domain.Bot, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Bot, error)
	Delete(ctx context.Context, orgID, botID string) error
}

type BotHandler struct {
	svc BotService
}

func NewBotHandler(svc BotService) *BotHandler {
	return &BotHandler{svc: svc}
}

type CreateBotRequest struct {
	Name string `json:"name"`
}

type BotResponse struct {
	ID        string `json:"id"`
	OrgID     string `json:"org_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func botToResponse(b *domain.Bot) *BotResponse {
	return &BotResponse{
		ID:        b.ID,
		OrgID:     b.OrgID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *BotHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	bot, err := h.svc.Create(r.Context(), orgID, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, botToResponse(bot))
}

func (h *BotHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	bot, err := h.svc.GetForOrg(r.Context(), orgID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, botToResponse(bot))
}

func (h *BotHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bots, err := h.svc.ListByOrg(r.Context(), orgID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*BotResponse, 0, len(bots))
	for _, b := range bots {
		items = append(items, botToResponse(b))
	}

	api.Success(w, http.StatusOK, items)
}

func (h *BotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), orgID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
