package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/decknotes/internal/apperr"
	"github.com/starford/decknotes/internal/cardservice"
	"github.com/starford/decknotes/internal/session"
)

const noCards = "no cards available"

// Handler holds API route handlers.
type Handler struct {
	svc      *cardservice.Service
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(svc *cardservice.Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// ListCards handles GET /api/cards.
//
//	@Summary		List cards, optionally restricted to one deck
//	@Tags			cards
//	@Produce		json
//	@Param			filter	query		string	false	"Deck tag or path prefix"
//	@Success		200		{object}	CardListResponse
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	items := h.svc.Cards(r.URL.Query().Get("filter"))
	writeJSON(w, http.StatusOK, CardListResponse{Cards: items, Total: len(items)})
}

// NextCard handles GET /api/cards/next.
//
//	@Summary		Select the next card
//	@Tags			cards
//	@Produce		json
//	@Param			filter	query		string	false	"Deck tag or path prefix; default deck when empty"
//	@Param			record	query		bool	false	"Record a view of the selected card"
//	@Success		200		{object}	Card
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/next [get]
func (h *Handler) NextCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	card, ok := h.svc.SelectCard(r.Context(), q.Get("filter"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(noCards))
		return
	}
	if record, _ := strconv.ParseBool(q.Get("record")); record {
		if err := h.svc.MarkViewed(r.Context(), card.Key); err != nil {
			h.internalError(w, "record view failed", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, card)
}

// EmbedCard handles GET /api/cards/embed.
//
//	@Summary		Select a card and render it as a callout block
//	@Tags			cards
//	@Produce		json
//	@Param			filter	query		string	false	"Deck tag or path prefix"
//	@Success		200		{object}	EmbedResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/embed [get]
func (h *Handler) EmbedCard(w http.ResponseWriter, r *http.Request) {
	card, ok := h.svc.SelectCard(r.Context(), r.URL.Query().Get("filter"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(noCards))
		return
	}
	if h.svc.TrackViews() {
		if err := h.svc.MarkViewed(r.Context(), card.Key); err != nil {
			h.internalError(w, "record view failed", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, EmbedResponse{Key: card.Key, Text: h.svc.EmbedText(card)})
}

// RecordView handles POST /api/cards/views.
//
//	@Summary		Record that a card was shown
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordViewRequest	true	"Card key"
//	@Success		200		{object}	RecordViewResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/views [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req RecordViewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	if err := h.svc.RecordView(r.Context(), req.Key); err != nil {
		h.writeErr(w, "record view failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordViewResponse{Key: req.Key, ViewedAt: h.svc.LastViewed(req.Key)})
}

// CardByHash handles GET /api/cards/hash/{hash}.
// A comma-separated list picks one of the matching cards at random.
//
//	@Summary		Look a card up by its compact key
//	@Tags			cards
//	@Produce		json
//	@Param			hash	path		string	true	"Compact key, or several separated by commas"
//	@Success		200		{object}	Card
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/hash/{hash} [get]
func (h *Handler) CardByHash(w http.ResponseWriter, r *http.Request) {
	hashes := strings.Split(chi.URLParam(r, "hash"), ",")
	card, ok := h.svc.CardByHash(hashes)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// ListDecks handles GET /api/decks.
//
//	@Summary		List decks for the active filter kind
//	@Tags			decks
//	@Produce		json
//	@Success		200	{object}	DeckListResponse
//	@Security		BearerAuth
//	@Router			/decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DeckListResponse{
		FilterKind: h.svc.Settings().FilterKind,
		Decks:      nonNil(h.svc.Decks()),
	})
}

// Search handles GET /api/search.
//
//	@Summary		Search cards by text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		h.internalError(w, "search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get deck settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// PutSettings handles PUT /api/settings. Fields missing from the body keep
// their current values. Saving triggers a rescan.
//
//	@Summary		Update deck settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		Settings	true	"Settings"
//	@Success		200		{object}	Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	settings := h.svc.Settings()
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := h.svc.SaveSettings(r.Context(), settings); err != nil {
		h.writeErr(w, "save settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// Rescan handles POST /api/rescan.
//
//	@Summary		Rebuild the card pool from the configured paths
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	ScanReport
//	@Security		BearerAuth
//	@Router			/rescan [post]
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Scan(r.Context())
	if err != nil {
		h.internalError(w, "rescan failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open a display session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	false	"Initial deck"
//	@Success		201		{object}	SessionSnapshot
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	_, snap, err := h.sessions.Open(r.Context(), req.Filter)
	if err != nil {
		h.internalError(w, "open session failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "get session failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// NextInSession handles POST /api/sessions/{id}/next.
//
//	@Summary		Show the next card, recording the current one
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionSnapshot
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/next [post]
func (h *Handler) NextInSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "next failed", err)
		return
	}
	snap, err := s.Next(r.Context())
	if err != nil {
		h.writeErr(w, "next failed", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SwitchDeck handles POST /api/sessions/{id}/switch.
//
//	@Summary		Move the session to the next deck
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionSnapshot
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/switch [post]
func (h *Handler) SwitchDeck(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "switch deck failed", err)
		return
	}
	snap, err := s.SwitchDeck(r.Context())
	if err != nil {
		h.writeErr(w, "switch deck failed", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, "close session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeErr maps domain errors to status codes.
func (h *Handler) writeErr(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusConflict, errorBody("session closed"))
	default:
		h.internalError(w, msg, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
