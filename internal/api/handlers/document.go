package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/middleware"
	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/service"
)

type DocumentService interface {
	Ingest(ctx context.Context, ident domain.Identity, input service.IngestInput) (*service.IngestResult, error)
	FindAllForThread(ctx context.Context, threadID string) ([]*domain.ChatDocument, error)
	FindChunks(ctx context.Context, threadID, fileName string) ([]*domain.DocumentChunk, error)
	DownloadURL(ctx context.Context, threadID, fileName string) (string, error)
}

type DocumentHandler struct {
	svc     DocumentService
	threads ThreadService
	// memory ceiling for parsing the multipart form, not the upload limit
	maxMemory int64
}

func NewDocumentHandler(svc DocumentService, threads ThreadService) *DocumentHandler {
	return &DocumentHandler{svc: svc, threads: threads, maxMemory: 32 << 20}
}

type DocumentResponse struct {
	ID        string `json:"id"`
	ThreadID  string `json:"chatThreadId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type UploadResponse struct {
	Document   *DocumentResponse `json:"document"`
	ChunkCount int               `json:"chunkCount"`
}

func documentToResponse(d *domain.ChatDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:        d.ID,
		ThreadID:  d.ThreadID,
		Name:      d.FileName,
		CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upload accepts a multipart form with a single "file" part and runs it
// through the ingestion pipeline.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.svc.Ingest(r.Context(), ident, service.IngestInput{
		ThreadID:    threadID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, UploadResponse{
		Document:   documentToResponse(result.Document),
		ChunkCount: len(result.Chunks),
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	documents, err := h.svc.FindAllForThread(r.Context(), threadID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(documents))
	for i, d := range documents {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, responses)
}

type ChunkResponse struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// Chunks lists the extracted text of one document in ordinal order.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threadID := chi.URLParam(r, "id")
	fileName := chi.URLParam(r, "fileName")
	if threadID == "" || fileName == "" {
		api.Error(w, http.StatusBadRequest, "id and fileName are required")
		return
	}

	if _, err := h.threads.FindForUser(r.Context(), ident, threadID); err != nil {
		api.HandleError(w, err)
		return
	}

	chunks, err := h.svc.FindChunks(r.Context(), threadID, fileName)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ChunkResponse, len(chunks))
	for i, c := range chunks {
		responses[i] = &ChunkResponse{Index: c.ChunkIndex, Content: c.Content}
	}

	api.Success(w, http.StatusOK, responses)
}

type DownloadResponse struct {
	URL string `json:"url"`
}

// Download hands out a short-lived link to the archived original upload.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	threadID := chi.URLParam(r, "id")
	fileName := chi.URLParam(r, "fileName")
	if threadID == "" || fileName == "" {
		api.Error(w, http.StatusBadRequest, "id and fileName are required")
		return
	}

	if _, err := h.threads.FindForUser(r.Context(), ident, threadID); err != nil {
		api.HandleError(w, err)
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), threadID, fileName)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadResponse{URL: url})
}
