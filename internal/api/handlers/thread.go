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

type ThreadService interface {
	Create(ctx context.Context, ident domain.Identity, useName string) (*domain.ChatThread, error)
	FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.ChatThread, error)
	FindForUser(ctx context.Context, ident domain.Identity, threadID string) (*domain.ChatThread, error)
	Rename(ctx context.Context, ident domain.Identity, threadID, title string) (*domain.ChatThread, error)
	SetBookmarked(ctx context.Context, ident domain.Identity, threadID string, bookmarked bool) (*domain.ChatThread, error)
	AddExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error)
	RemoveExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error)
	SoftDelete(ctx context.Context, ident domain.Identity, threadID string) error
}

type ThreadHandler struct {
	svc ThreadService
}

func NewThreadHandler(svc ThreadService) *ThreadHandler {
	return &ThreadHandler{svc: svc}
}

type CreateThreadRequest struct {
	UseName string `json:"useName"`
}

type RenameThreadRequest struct {
	Name string `json:"name"`
}

type BookmarkThreadRequest struct {
	Bookmarked bool `json:"bookmarked"`
}

type ThreadResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	UseName       string   `json:"useName"`
	UserID        string   `json:"userId"`
	Bookmarked    bool     `json:"bookmarked"`
	Extension     []string `json:"extension"`
	PersonaTitle  string   `json:"personaMessageTitle"`
	CreatedAt     string   `json:"createdAt"`
	LastMessageAt string   `json:"lastMessageAt"`
}

func threadToResponse(t *domain.ChatThread) *ThreadResponse {
	extensions := t.ExtensionIDs
	if extensions == nil {
		extensions = []string{}
	}
	return &ThreadResponse{
		ID:            t.ID,
		Name:          t.Name,
		UseName:       t.UseName,
		UserID:        t.OwnerUserID,
		Bookmarked:    t.Bookmarked,
		Extension:     extensions,
		PersonaTitle:  t.PersonaMessageTitle,
		CreatedAt:     t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		LastMessageAt: t.LastMessageAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req CreateThreadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	thread, err := h.svc.Create(r.Context(), ident, req.UseName)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, threadToResponse(thread))
}

func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threads, err := h.svc.FindAllForUser(r.Context(), ident)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ThreadResponse, len(threads))
	for i, t := range threads {
		responses[i] = threadToResponse(t)
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	thread, err := h.svc.FindForUser(r.Context(), ident, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, threadToResponse(thread))
}

func (h *ThreadHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req RenameThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	thread, err := h.svc.Rename(r.Context(), ident, id, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, threadToResponse(thread))
}

func (h *ThreadHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req BookmarkThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thread, err := h.svc.SetBookmarked(r.Context(), ident, id, req.Bookmarked)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, threadToResponse(thread))
}

func (h *ThreadHandler) AddExtension(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	extensionID := chi.URLParam(r, "extensionId")
	if id == "" || extensionID == "" {
		api.Error(w, http.StatusBadRequest, "id and extensionId are required")
		return
	}

	thread, err := h.svc.AddExtension(r.Context(), ident, id, extensionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, threadToResponse(thread))
}

func (h *ThreadHandler) RemoveExtension(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	id := chi.URLParam(r, "id")
	extensionID := chi.URLParam(r, "extensionId")
	if id == "" || extensionID == "" {
		api.Error(w, http.StatusBadRequest, "id and extensionId are required")
		return
	}

	thread, err := h.svc.RemoveExtension(r.Context(), ident, id, extensionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, threadToResponse(thread))
}

func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
