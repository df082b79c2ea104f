package cards

import (
	"math/rand/v2"
	"strings"

	"github.com/starford/decknotes/internal/models"
)

// RandSource is the uniform random capability used for random selection.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Views reports the last-viewed timestamp of a card key, 0 when never viewed.
type Views interface {
	LastViewed(key string) int64
}

// ViewMap is a plain map used as a read-only Views.
type ViewMap map[string]int64

// LastViewed implements Views.
func (m ViewMap) LastViewed(key string) int64 { return m[key] }

// Filter restricts the pool to one deck. An empty Value matches every card.
type Filter struct {
	Kind  string
	Value string
}

// Match reports whether c belongs to the filtered deck.
//
// Tag filters are hierarchical: "activities" matches "activities" and
// "activities/morning" but not "activitiesX". Path filters are a literal
// prefix test on the document path.
func (f Filter) Match(c models.Card) bool {
	if f.Value == "" {
		return true
	}
	if f.Kind == models.FilterPath {
		return strings.HasPrefix(c.Path, f.Value)
	}
	return c.HasTag(f.Value)
}

// Apply returns the cards of pool matching f, preserving order.
func (f Filter) Apply(pool []models.Card) []models.Card {
	if f.Value == "" {
		return pool
	}
	var out []models.Card
	for _, c := range pool {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Selector chooses the next card. It never mutates the ledger.
type Selector struct {
	rand RandSource
}

// NewSelector creates a Selector drawing from r. A nil r uses the
// math/rand/v2 global source.
func NewSelector(r RandSource) *Selector {
	if r == nil {
		r = globalRand{}
	}
	return &Selector{rand: r}
}

// Select filters pool and picks one card under mode. It returns false when
// no card matches the filter.
func (s *Selector) Select(pool []models.Card, f Filter, mode string, views Views) (models.Card, bool) {
	candidates := f.Apply(pool)
	if len(candidates) == 0 {
		return models.Card{}, false
	}
	if mode == models.SelectionRandom {
		return candidates[s.rand.IntN(len(candidates))], true
	}
	return leastRecent(candidates, views), true
}

// RandomByHash picks uniformly among the cards whose hash is in hashes.
func (s *Selector) RandomByHash(pool []models.Card, hashes []string) (models.Card, bool) {
	matches := ByHash(pool, hashes)
	if len(matches) == 0 {
		return models.Card{}, false
	}
	return matches[s.rand.IntN(len(matches))], true
}

// leastRecent returns the card with the oldest view, never-viewed first.
// Equal timestamps are ordered by hash so untouched decks come out in a
// stable order that does not follow the source layout.
func leastRecent(pool []models.Card, views Views) models.Card {
	lastViewed := func(c models.Card) int64 {
		if views == nil {
			return 0
		}
		return views.LastViewed(c.Key)
	}

	best := pool[0]
	bestAt := lastViewed(best)
	for _, c := range pool[1:] {
		at := lastViewed(c)
		if at < bestAt || at == bestAt && c.Hash < best.Hash {
			best, bestAt = c, at
		}
	}
	return best
}

// ByHash returns the cards of pool whose hash is one of hashes.
func ByHash(pool []models.Card, hashes []string) []models.Card {
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	var out []models.Card
	for _, c := range pool {
		if _, ok := set[c.Hash]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Tags returns every deck tag in pool, sorted.
func Tags(pool []models.Card) []string {
	set := make(map[string]struct{})
	for _, c := range pool {
		for _, t := range c.Tags {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Paths returns every document path in pool, sorted.
func Paths(pool []models.Card) []string {
	set := make(map[string]struct{})
	for _, c := range pool {
		set[c.Path] = struct{}{}
	}
	return sortedKeys(set)
}
