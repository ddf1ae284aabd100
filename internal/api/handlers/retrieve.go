package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/botwise/internal/api"
	"github.com/cloo-solutions/botwise/internal/api/middleware"
	"github.com/cloo-solutions/botwise/internal/retrieval"
)

type RetrievalRunner interface {
	Retrieve(ctx context.Context, orgID, botID, query string) (*retrieval.Result, error)
}

type RetrieveHandler struct {
	svc RetrievalRunner
}

func NewRetrieveHandler(svc RetrievalRunner) *RetrieveHandler {
	return &RetrieveHandler{svc: svc}
}

type RetrieveRequest struct {
	BotID string `json:"bot_id"`
	Query string `json:"query"`
}

type RetrieveResponse struct {
	Found      bool    `json:"found"`
	Content    string  `json:"content,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Message    string  `json:"message,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Retrieve answers a chatbot query from the bot's knowledge base. Pipeline
// failures are part of the response contract, not transport errors: the
// client always gets a 200 with found=false and a reason it can act on.
// Only ownership and infrastructure problems map to error status codes.
func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BotID == "" {
		api.Error(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	result, err := h.svc.Retrieve(r.Context(), orgID, req.BotID, req.Query)
	if err != nil {
		if reason := retrieval.ReasonOf(err); reason != "" {
			api.Success(w, http.StatusOK, RetrieveResponse{
				Found:  false,
				Reason: string(reason),
			})
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RetrieveResponse{
		Found:      true,
		Content:    result.Content,
		Similarity: result.Similarity,
		Message:    result.Message,
	})
}
