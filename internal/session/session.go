// Package session implements display sessions: a card is shown, and the user
// asks for the next card, switches deck, or closes the display.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/starford/decknotes/internal/models"
)

// ErrClosed is returned by actions on a closed session.
var ErrClosed = errors.New("session closed")

// State is the display state of a session.
type State string

const (
	StateSelecting State = "selecting"
	StateShowing   State = "showing"
	StateEmpty     State = "empty"
	StateClosed    State = "closed"
)

// Deck is the card source a session draws from.
type Deck interface {
	SelectCard(ctx context.Context, filter string) (models.Card, bool)
	MarkViewed(ctx context.Context, key string) error
	Decks() []string
	TrackViews() bool
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID     string       `json:"id"`
	State  State        `json:"state"`
	Filter string       `json:"filter"`
	Card   *models.Card `json:"card,omitempty"`
	Shown  int          `json:"shown"`
}

// Session is one display of cards from a deck.
type Session struct {
	id   string
	deck Deck

	mu     sync.Mutex
	state  State
	filter string
	card   models.Card
	shown  int
}

// New creates a session over deck filtered by filter. Call Start to show
// the first card.
func New(id string, deck Deck, filter string) *Session {
	return &Session{id: id, deck: deck, filter: filter, state: StateSelecting}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start selects the first card.
func (s *Session) Start(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return s.snapshotLocked(), ErrClosed
	}
	s.selectLocked(ctx)
	return s.snapshotLocked(), nil
}

// Next records a view of the current card when tracking is on and selects
// another card.
func (s *Session) Next(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return s.snapshotLocked(), ErrClosed
	}
	if err := s.recordLocked(ctx); err != nil {
		return s.snapshotLocked(), err
	}
	s.selectLocked(ctx)
	return s.snapshotLocked(), nil
}

// SwitchDeck moves the filter to the deck after the current one, wrapping
// around, and then behaves like Next. Without decks the filter is kept.
func (s *Session) SwitchDeck(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return s.snapshotLocked(), ErrClosed
	}
	if decks := s.deck.Decks(); len(decks) > 0 {
		s.filter = decks[(slices.Index(decks, s.filter)+1)%len(decks)]
	}
	if err := s.recordLocked(ctx); err != nil {
		return s.snapshotLocked(), err
	}
	s.selectLocked(ctx)
	return s.snapshotLocked(), nil
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.card = models.Card{}
	return s.snapshotLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) recordLocked(ctx context.Context) error {
	if s.state != StateShowing || !s.deck.TrackViews() {
		return nil
	}
	return s.deck.MarkViewed(ctx, s.card.Key)
}

func (s *Session) selectLocked(ctx context.Context) {
	s.state = StateSelecting
	c, ok := s.deck.SelectCard(ctx, s.filter)
	if !ok {
		s.state = StateEmpty
		s.card = models.Card{}
		return
	}
	s.state = StateShowing
	s.card = c
	s.shown++
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{ID: s.id, State: s.state, Filter: s.filter, Shown: s.shown}
	if s.state == StateShowing {
		c := s.card
		snap.Card = &c
	}
	return snap
}
