package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/api/handlers"
	"github.com/parley-labs/parley/internal/api/middleware"
)

type RouterConfig struct {
	ThreadHandler    *handlers.ThreadHandler
	MessageHandler   *handlers.MessageHandler
	DocumentHandler  *handlers.DocumentHandler
	CitationHandler  *handlers.CitationHandler
	ExtensionHandler *handlers.ExtensionHandler
	PromptHandler    *handlers.PromptHandler
	ReportingHandler *handlers.ReportingHandler

	// MaxBodyBytes caps request bodies; uploads need headroom above the
	// document size limit for multipart framing.
	MaxBodyBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/threads", func(r chi.Router) {
			r.Post("/", cfg.ThreadHandler.Create)
			r.Get("/", cfg.ThreadHandler.List)
			r.Get("/{id}", cfg.ThreadHandler.Get)
			r.Delete("/{id}", cfg.ThreadHandler.Delete)
			r.Patch("/{id}/name", cfg.ThreadHandler.Rename)
			r.Put("/{id}/bookmark", cfg.ThreadHandler.Bookmark)
			r.Post("/{id}/extensions/{extensionId}", cfg.ThreadHandler.AddExtension)
			r.Delete("/{id}/extensions/{extensionId}", cfg.ThreadHandler.RemoveExtension)

			r.Post("/{id}/messages", cfg.MessageHandler.Create)
			r.Get("/{id}/messages", cfg.MessageHandler.List)

			r.Post("/{id}/documents", cfg.DocumentHandler.Upload)
			r.Get("/{id}/documents", cfg.DocumentHandler.List)
			r.Get("/{id}/documents/{fileName}/chunks", cfg.DocumentHandler.Chunks)
			r.Get("/{id}/documents/{fileName}/download", cfg.DocumentHandler.Download)
		})

		r.Route("/citations", func(r chi.Router) {
			r.Post("/", cfg.CitationHandler.Create)
			r.Get("/{id}", cfg.CitationHandler.Get)
		})

		r.Route("/extensions", func(r chi.Router) {
			r.Post("/", cfg.ExtensionHandler.Create)
			r.Get("/", cfg.ExtensionHandler.List)
			r.Get("/{id}", cfg.ExtensionHandler.Get)
			r.Put("/{id}", cfg.ExtensionHandler.Update)
			r.Delete("/{id}", cfg.ExtensionHandler.Delete)
		})

		r.Route("/reporting", func(r chi.Router) {
			r.Get("/threads", cfg.ReportingHandler.Threads)
			r.Get("/threads/{id}/messages", cfg.ReportingHandler.Messages)
		})

		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", cfg.PromptHandler.Create)
			r.Get("/", cfg.PromptHandler.List)
			r.Get("/{id}", cfg.PromptHandler.Get)
			r.Put("/{id}", cfg.PromptHandler.Update)
			r.Delete("/{id}", cfg.PromptHandler.Delete)
		})
	})

	return r
}
