package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/decknotes/internal/cardservice"
	"github.com/starford/decknotes/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *cardservice.Service, sessions *session.Manager, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Cards.
	r.Get("/cards", h.ListCards)
	r.Get("/cards/next", h.NextCard)
	r.Get("/cards/embed", h.EmbedCard)
	r.Post("/cards/views", h.RecordView)
	r.Get("/cards/hash/{hash}", h.CardByHash)

	r.Get("/decks", h.ListDecks)
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)

	// Settings and rescans.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	r.Post("/rescan", h.Rescan)

	// Display sessions.
	r.Post("/sessions", h.OpenSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Post("/sessions/{id}/next", h.NextInSession)
	r.Post("/sessions/{id}/switch", h.SwitchDeck)
	r.Delete("/sessions/{id}", h.CloseSession)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
