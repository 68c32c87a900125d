package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/ai"
	"github.com/starford/raido/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// dataDir is the root for attachment byte storage.
func NewRouter(svc *linkservice.Service, summarizer ai.Summarizer, related ai.RelatedFinder,
	authEnabled bool, token string, sseHandler http.Handler, dataDir string) chi.Router {
	h := NewHandler(svc, summarizer, related)
	ah := NewAttachmentHandler(dataDir, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Links CRUD and views.
	r.Get("/links", h.ListLinks)
	r.Post("/links", h.CreateLink)
	r.Post("/links/batch", h.BatchUpdate)
	r.Get("/links/{id}", h.GetLink)
	r.Put("/links/{id}", h.UpdateLink)
	r.Delete("/links/{id}", h.DeleteLink)

	// Attachments.
	r.Post("/links/{id}/attachments", ah.Upload)

	// Taxonomies.
	r.Get("/dictionaries", h.GetDictionaries)
	r.Put("/dictionaries", h.PutDictionaries)

	// Interchange.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// AI boundary.
	r.Post("/summarize", h.Summarize)
	r.Get("/links/{id}/related", h.Related)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
