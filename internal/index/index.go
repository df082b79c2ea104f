package index

import (
	"context"

	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/state"
)

// CardIndex is the searchable copy of the card pool.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type CardIndex interface {
	ReplaceCards(ctx context.Context, cards []models.Card) error
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Verify *DB satisfies CardIndex and state.Store at compile time.
var (
	_ CardIndex   = (*DB)(nil)
	_ state.Store = (*DB)(nil)
)
