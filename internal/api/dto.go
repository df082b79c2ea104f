package api

import (
	"github.com/starford/decknotes/internal/cardservice"
	"github.com/starford/decknotes/internal/index"
	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/session"
)

// Card is a single card (aliased from the domain layer).
type Card = models.Card

// Settings is the deck configuration (aliased from the domain layer).
type Settings = models.Settings

// SessionSnapshot is the state of a display session (aliased from the domain layer).
type SessionSnapshot = session.Snapshot

// ScanReport summarizes a rescan (aliased from the domain layer).
type ScanReport = cardservice.ScanReport

// CardListResponse wraps card listings.
type CardListResponse struct {
	Cards []Card `json:"cards" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// EmbedResponse carries the callout text of a selected card.
type EmbedResponse struct {
	Key  string `json:"key" example:"Journal/coping.md#Breathe" validate:"required"`
	Text string `json:"text" example:"> [!tip]- Breathe\n> Box breathing." validate:"required"`
}

// RecordViewRequest is the request body for recording a view.
type RecordViewRequest struct {
	Key string `json:"key" example:"Journal/coping.md#Breathe" validate:"required"`
}

// RecordViewResponse echoes the stored timestamp.
type RecordViewResponse struct {
	Key      string `json:"key" validate:"required"`
	ViewedAt int64  `json:"viewedAt" example:"1700000000000" validate:"required"`
}

// DeckListResponse lists the decks a session can switch between.
type DeckListResponse struct {
	FilterKind string   `json:"filterKind" example:"tag" validate:"required"`
	Decks      []string `json:"decks" validate:"required"`
}

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// OpenSessionRequest is the request body for opening a display session.
type OpenSessionRequest struct {
	Filter string `json:"filter" example:"activities"`
}
