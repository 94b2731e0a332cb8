package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/middleware"
	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/service"
)

type PromptService interface {
	Create(ctx context.Context, ident domain.Identity, input service.PromptInput) (*domain.Prompt, error)
	Update(ctx context.Context, ident domain.Identity, promptID string, input service.PromptInput) (*domain.Prompt, error)
	FindForUser(ctx context.Context, ident domain.Identity, promptID string) (*domain.Prompt, error)
	FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Prompt, error)
	SoftDelete(ctx context.Context, ident domain.Identity, promptID string) error
}

type PromptHandler struct {
	svc PromptService
}

func NewPromptHandler(svc PromptService) *PromptHandler {
	return &PromptHandler{svc: svc}
}

type PromptRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublished bool   `json:"isPublished"`
}

type PromptResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	IsPublished bool   `json:"isPublished"`
	CreatedAt   string `json:"createdAt"`
}

func promptToResponse(p *domain.Prompt) *PromptResponse {
	return &PromptResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UserID:      p.OwnerUserID,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, err := h.svc.Create(r.Context(), ident, service.PromptInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, promptToResponse(prompt))
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, err := h.svc.Update(r.Context(), ident, id, service.PromptInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(prompt))
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	prompt, err := h.svc.FindForUser(r.Context(), ident, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(prompt))
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	prompts, err := h.svc.FindAllForUser(r.Context(), ident)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*PromptResponse, len(prompts))
	for i, p := range prompts {
		responses[i] = promptToResponse(p)
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.SoftDelete(r.Context(), ident, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
