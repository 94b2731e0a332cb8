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

type ExtensionService interface {
	Create(ctx context.Context, ident domain.Identity, input service.ExtensionInput) (*domain.Extension, error)
	Update(ctx context.Context, ident domain.Identity, extensionID string, input service.ExtensionInput) (*domain.Extension, error)
	FindForUser(ctx context.Context, ident domain.Identity, extensionID string) (*domain.Extension, error)
	FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Extension, error)
	SoftDelete(ctx context.Context, ident domain.Identity, extensionID string) error
}

type ExtensionHandler struct {
	svc ExtensionService
}

func NewExtensionHandler(svc ExtensionService) *ExtensionHandler {
	return &ExtensionHandler{svc: svc}
}

type ExtensionRequest struct {
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	ExecutionSteps string                     `json:"executionSteps"`
	Headers        []domain.ExtensionHeader   `json:"headers"`
	Functions      []domain.ExtensionFunction `json:"functions"`
	IsPublished    bool                       `json:"isPublished"`
}

type ExtensionResponse struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	ExecutionSteps string                     `json:"executionSteps"`
	UserID         string                     `json:"userId"`
	Headers        []domain.ExtensionHeader   `json:"headers"`
	Functions      []domain.ExtensionFunction `json:"functions"`
	IsPublished    bool                       `json:"isPublished"`
	CreatedAt      string                     `json:"createdAt"`
}

func extensionToResponse(e *domain.Extension) *ExtensionResponse {
	return &ExtensionResponse{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		ExecutionSteps: e.ExecutionSteps,
		UserID:         e.OwnerUserID,
		Headers:        e.Headers,
		Functions:      e.Functions,
		IsPublished:    e.IsPublished,
		CreatedAt:      e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ExtensionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req ExtensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	extension, err := h.svc.Create(r.Context(), ident, service.ExtensionInput{
		Name:           req.Name,
		Description:    req.Description,
		ExecutionSteps: req.ExecutionSteps,
		Headers:        req.Headers,
		Functions:      req.Functions,
		IsPublished:    req.IsPublished,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, extensionToResponse(extension))
}

func (h *ExtensionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ExtensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	extension, err := h.svc.Update(r.Context(), ident, id, service.ExtensionInput{
		Name:           req.Name,
		Description:    req.Description,
		ExecutionSteps: req.ExecutionSteps,
		Headers:        req.Headers,
		Functions:      req.Functions,
		IsPublished:    req.IsPublished,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, extensionToResponse(extension))
}

func (h *ExtensionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	extension, err := h.svc.FindForUser(r.Context(), ident, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, extensionToResponse(extension))
}

func (h *ExtensionHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	extensions, err := h.svc.FindAllForUser(r.Context(), ident)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ExtensionResponse, len(extensions))
	for i, e := range extensions {
		responses[i] = extensionToResponse(e)
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *ExtensionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
