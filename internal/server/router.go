package server

import (
	"net/http"

	"ap-story-web/internal/builder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter は、ミドルウェアとルーティングを統合した http.Handler を構築します。
func NewRouter(h *builder.AppHandlers) http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r)
	setupRoutes(r, h)

	return r
}

func setupCommonMiddleware(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
}

func setupRoutes(r chi.Router, h *builder.AppHandlers) {
	// --- 公開ルート (ストーリーAPI) ---
	r.Get("/healthz", h.API.Healthz)
	r.Route("/stories", func(r chi.Router) {
		r.Post("/", h.API.CreateStory)
		r.Get("/{id}", h.API.GetStory)
	})

	// --- Cloud Tasks 専用ルート (Worker 用) ---
	r.Group(func(r chi.Router) {
		r.Use(h.TaskVerifier.Middleware)
		r.Post("/tasks/generate", h.Worker.ProcessTask)
	})
}
