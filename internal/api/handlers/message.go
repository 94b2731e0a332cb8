package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/middleware"
	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/service"
)

type MessageService interface {
	Create(ctx context.Context, ident domain.Identity, input service.CreateMessageInput) (*domain.ChatMessage, error)
	FindAllForThread(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error)
	FindTopForThread(ctx context.Context, ident domain.Identity, threadID string, top int) ([]*domain.ChatMessage, error)
}

type MessageHandler struct {
	svc     MessageService
	threads ThreadService
}

func NewMessageHandler(svc MessageService, threads ThreadService) *MessageHandler {
	return &MessageHandler{svc: svc, threads: threads}
}

type CreateMessageRequest struct {
	Role            string `json:"role"`
	Name            string `json:"name"`
	Content         string `json:"content"`
	MultiModalImage string `json:"multiModalImage"`
}

type MessageResponse struct {
	ID              string `json:"id"`
	ThreadID        string `json:"threadId"`
	UserID          string `json:"userId"`
	Role            string `json:"role"`
	Name            string `json:"name"`
	Content         string `json:"content"`
	MultiModalImage string `json:"multiModalImage,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

func messageToResponse(m *domain.ChatMessage) *MessageResponse {
	return &MessageResponse{
		ID:              m.ID,
		ThreadID:        m.ThreadID,
		UserID:          m.OwnerUserID,
		Role:            string(m.Role),
		Name:            m.Name,
		Content:         m.Content,
		MultiModalImage: m.MultiModalImage,
		CreatedAt:       m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threadID := chi.URLParam(r, "id")
	if threadID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	// Appending to a thread requires access to the thread itself.
	if _, err := h.threads.FindForUser(r.Context(), ident, threadID); err != nil {
		api.HandleError(w, err)
		return
	}

	message, err := h.svc.Create(r.Context(), ident, service.CreateMessageInput{
		ThreadID:        threadID,
		Role:            domain.ChatRole(req.Role),
		Name:            req.Name,
		Content:         req.Content,
		MultiModalImage: req.MultiModalImage,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, messageToResponse(message))
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threadID := chi.URLParam(r, "id")
	if threadID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if _, err := h.threads.FindForUser(r.Context(), ident, threadID); err != nil {
		api.HandleError(w, err)
		return
	}

	var (
		messages []*domain.ChatMessage
		err      error
	)
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		top, parseErr := strconv.Atoi(topStr)
		if parseErr != nil || top <= 0 {
			api.Error(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		messages, err = h.svc.FindTopForThread(r.Context(), ident, threadID, top)
	} else {
		messages, err = h.svc.FindAllForThread(r.Context(), ident, threadID)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = messageToResponse(m)
	}

	api.Success(w, http.StatusOK, responses)
}
