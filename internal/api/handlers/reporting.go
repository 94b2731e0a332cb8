package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/middleware"
	"github.com/parley-labs/parley/internal/domain"
)

type ReportingService interface {
	FindAllThreads(ctx context.Context, ident domain.Identity, limit, offset int) ([]*domain.ChatThread, error)
	FindAllMessages(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error)
}

// ReportingHandler serves the admin reporting views over all users' history.
type ReportingHandler struct {
	svc ReportingService
}

func NewReportingHandler(svc ReportingService) *ReportingHandler {
	return &ReportingHandler{svc: svc}
}

const (
	defaultReportPageSize = 10
	maxReportPageSize     = 100
)

func (h *ReportingHandler) Threads(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	limit := defaultReportPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}
	if limit > maxReportPageSize {
		limit = maxReportPageSize
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			api.Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = v
	}

	threads, err := h.svc.FindAllThreads(r.Context(), ident, limit, offset)
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

func (h *ReportingHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threadID := chi.URLParam(r, "id")
	if threadID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	messages, err := h.svc.FindAllMessages(r.Context(), ident, threadID)
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
