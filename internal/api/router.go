package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig holds the optional parts of the API router.
type RouterConfig struct {
	// LoginRate is the number of login attempts allowed per client per
	// minute. Zero disables the limit.
	LoginRate int
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; every mutating route re-validates the caller's session.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	limiter := newLoginLimiter(cfg.LoginRate)

	r := chi.NewRouter()
	r.With(limiter.middleware).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(h.auth))

		r.Post("/logout", h.Logout)

		// Documents.
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.SaveDocument)
		r.Delete("/documents", h.DeleteDocument)
		r.Post("/documents/move", h.MoveDocuments)
		r.Post("/documents/bulk-delete", h.BulkDeleteDocuments)
		r.Get("/documents/*", h.GetDocument)
		r.Get("/outline/*", h.Outline)

		r.Get("/search", h.Search)
		r.Get("/analytics", h.Analytics)

		// Folders.
		r.Get("/folders", h.InspectFolder)
		r.Post("/folders", h.CreateFolder)
		r.Delete("/folders", h.DeleteFolder)

		// Media.
		r.Get("/media", h.ListMedia)
		r.Post("/media", h.UploadMedia)
		r.Delete("/media", h.DeleteMedia)

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	return r
}
