package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"homesite/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced on upload routes.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Get("/health", h.Health)

	// Public read surface.
	r.Get("/blogs", h.ListBlogs)
	r.Get("/notes", h.ListNotes)
	r.Get("/search", h.Search)

	// Uploads sit behind auth when it is enabled.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Post("/upload-blog", h.UploadBlog)
		r.Post("/upload-note", h.UploadNote)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
