package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/decknotes/internal/apperr"
)

// Manager keeps the open sessions of one deck by ID.
type Manager struct {
	deck Deck

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(deck Deck) *Manager {
	return &Manager{deck: deck, sessions: make(map[string]*Session)}
}

// Open creates and starts a session.
func (m *Manager) Open(ctx context.Context, filter string) (*Session, Snapshot, error) {
	s := New(uuid.NewString(), m.deck, filter)
	snap, err := s.Start(ctx)
	if err != nil {
		return nil, snap, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, snap, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// Close closes and forgets a session.
func (m *Manager) Close(id string) (Snapshot, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s.Close(), nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
