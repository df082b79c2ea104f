// Package state persists deck settings and the view ledger.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/storage"
)

// Store loads and saves the settings + ledger blob.
type Store interface {
	// Load returns the stored state, or nil when nothing was saved yet.
	Load(ctx context.Context) (*models.State, error)
	// Save replaces the stored state.
	Save(ctx context.Context, s *models.State) error
}

// JSONFile stores state as one flat JSON object on disk.
type JSONFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONFile creates a JSON file store at path. The file is created on first Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

var _ Store = (*JSONFile)(nil)

// Load implements Store.
func (j *JSONFile) Load(_ context.Context) (*models.State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read %s: %w", j.path, err)
	}

	st := &models.State{Settings: models.DefaultSettings()}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", j.path, err)
	}
	if st.CardViews == nil {
		st.CardViews = map[string]int64{}
	}
	return st, nil
}

// Save implements Store.
func (j *JSONFile) Save(_ context.Context, s *models.State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return storage.WriteFileAtomic(j.path, data)
}
