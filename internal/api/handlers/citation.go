package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/middleware"
	"github.com/parley-labs/parley/internal/domain"
)

type CitationService interface {
	CreateMany(ctx context.Context, ident domain.Identity, sources []json.RawMessage) ([]*domain.ChatCitation, error)
	FindForUser(ctx context.Context, ident domain.Identity, citationID string) (*domain.ChatCitation, error)
}

type CitationHandler struct {
	svc CitationService
}

func NewCitationHandler(svc CitationService) *CitationHandler {
	return &CitationHandler{svc: svc}
}

type CreateCitationsRequest struct {
	Sources []json.RawMessage `json:"sources"`
}

type CitationResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Content   json.RawMessage `json:"content"`
	CreatedAt string          `json:"createdAt"`
}

func citationToResponse(c *domain.ChatCitation) *CitationResponse {
	return &CitationResponse{
		ID:        c.ID,
		UserID:    c.OwnerUserID,
		Content:   c.SourceContent,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *CitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req CreateCitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Sources) == 0 {
		api.Error(w, http.StatusBadRequest, "sources are required")
		return
	}

	citations, err := h.svc.CreateMany(r.Context(), ident, req.Sources)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*CitationResponse, len(citations))
	for i, c := range citations {
		responses[i] = citationToResponse(c)
	}

	api.Success(w, http.StatusCreated, responses)
}

func (h *CitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	citation, err := h.svc.FindForUser(r.Context(), ident, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, citationToResponse(citation))
}
