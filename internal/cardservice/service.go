// Package cardservice owns the card pool and the view ledger and exposes the
// operations the CLI, HTTP API, and MCP server are built on.
package cardservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/decknotes/internal/apperr"
	"github.com/starford/decknotes/internal/cards"
	"github.com/starford/decknotes/internal/index"
	"github.com/starford/decknotes/internal/models"
	"github.com/starford/decknotes/internal/state"
	"github.com/starford/decknotes/internal/storage"
)

// Event kinds passed to the EventFunc.
const (
	EventRescanned     = "deck.rescanned"
	EventCardViewed    = "card.viewed"
	EventSettingsSaved = "settings.saved"
)

// EventFunc receives service events, e.g. to forward them to SSE clients.
type EventFunc func(kind string, data any)

// Option configures a Service.
type Option func(*Service)

// WithIndex mirrors every scanned pool into a searchable index.
func WithIndex(idx index.CardIndex) Option {
	return func(s *Service) { s.index = idx }
}

// WithRand sets the random source used for random selection.
func WithRand(r cards.RandSource) Option {
	return func(s *Service) { s.selector = cards.NewSelector(r) }
}

// WithClock sets the clock used to timestamp views.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEvents registers an event callback.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.events = fn }
}

// snapshot is one immutable scan result.
type snapshot struct {
	cards     []models.Card
	byKey     map[string]int
	scannedAt time.Time
}

// Service coordinates the document store, persistence, and card selection.
type Service struct {
	store    storage.Provider
	persist  state.Store
	index    index.CardIndex
	selector *cards.Selector
	ledger   *cards.Ledger
	now      func() time.Time
	logger   *slog.Logger
	events   EventFunc

	defaults models.Settings
	mu       sync.RWMutex
	settings models.Settings

	pool atomic.Pointer[snapshot]

	scanMu sync.Mutex
	cache  map[string]cachedDoc // guarded by scanMu

	saveMu sync.Mutex
}

// New creates a service. defaults are used until Load finds saved settings.
func New(store storage.Provider, persist state.Store, defaults models.Settings, opts ...Option) *Service {
	s := &Service{
		store:    store,
		persist:  persist,
		selector: cards.NewSelector(nil),
		ledger:   cards.NewLedger(nil),
		now:      time.Now,
		logger:   slog.Default(),
		defaults: defaults.Clone(),
		settings: defaults.Clone(),
		cache:    make(map[string]cachedDoc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool.Store(&snapshot{byKey: map[string]int{}})
	return s
}

// Load reads saved settings and views. Without saved state the configured
// defaults stay in effect and the ledger starts empty.
func (s *Service) Load(ctx context.Context) error {
	st, err := s.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("cardservice: load state: %w", err)
	}
	if st == nil {
		s.logger.Info("state: nothing saved yet, using configured defaults")
		return nil
	}

	settings := st.Settings
	if settings.CardPaths == nil {
		settings.CardPaths = []string{}
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("cardservice: saved settings: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.ledger.Replace(st.CardViews)

	s.logger.Info("state: loaded",
		slog.Int("card_paths", len(settings.CardPaths)),
		slog.Int("views", s.ledger.Len()))
	return nil
}

// Settings returns a copy of the active settings.
func (s *Service) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// TrackViews reports whether views should be recorded after a card is shown.
func (s *Service) TrackViews() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.TrackViews
}

// SaveSettings validates and persists new settings, then rescans.
func (s *Service) SaveSettings(ctx context.Context, settings models.Settings) error {
	if settings.CardPaths == nil {
		settings.CardPaths = []string{}
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	s.mu.Lock()
	s.settings = settings.Clone()
	s.mu.Unlock()

	if err := s.saveState(ctx); err != nil {
		return err
	}
	s.emit(EventSettingsSaved, map[string]any{"cardPaths": settings.CardPaths})

	if _, err := s.Scan(ctx); err != nil {
		return err
	}
	return nil
}

// SelectCard picks the next card. An empty filter selects from the default
// deck of the active filter kind. It returns false when no card matches.
func (s *Service) SelectCard(_ context.Context, filter string) (models.Card, bool) {
	settings := s.Settings()
	if filter == "" {
		filter = settings.DefaultFilter()
	}
	f := cards.Filter{Kind: settings.FilterKind, Value: filter}
	return s.selector.Select(s.pool.Load().cards, f, settings.SelectionMode, s.ledger)
}

// RecordView stamps key with the current time and persists the ledger. The
// key must name a card in the current pool.
func (s *Service) RecordView(ctx context.Context, key string) error {
	if _, ok := s.CardByKey(key); !ok {
		return fmt.Errorf("card %q: %w", key, apperr.ErrNotFound)
	}
	return s.MarkViewed(ctx, key)
}

// MarkViewed stamps key without checking the pool. A card selected before a
// rescan may no longer exist; its ledger entry is kept and ignored.
func (s *Service) MarkViewed(ctx context.Context, key string) error {
	at := s.ledger.Record(key, s.now())
	if err := s.saveState(ctx); err != nil {
		return err
	}
	s.emit(EventCardViewed, map[string]any{"key": key, "viewedAt": at})
	return nil
}

// LastViewed returns the ledger timestamp of key in Unix milliseconds.
func (s *Service) LastViewed(key string) int64 {
	return s.ledger.LastViewed(key)
}

// EmbedCard selects a card and renders it as a callout block, recording a
// view when tracking is enabled. It returns false when no card matches.
func (s *Service) EmbedCard(ctx context.Context, filter string) (string, bool, error) {
	c, ok := s.SelectCard(ctx, filter)
	if !ok {
		return "", false, nil
	}
	settings := s.Settings()
	text := cards.BuildEmbedText(c, settings.CalloutType)
	if settings.TrackViews {
		if err := s.MarkViewed(ctx, c.Key); err != nil {
			return "", false, err
		}
	}
	return text, true, nil
}

// EmbedText renders c with the configured callout type.
func (s *Service) EmbedText(c models.Card) string {
	return cards.BuildEmbedText(c, s.Settings().CalloutType)
}

// Cards returns the pool filtered by filter (no filter when empty).
func (s *Service) Cards(filter string) []models.Card {
	f := cards.Filter{Kind: s.Settings().FilterKind, Value: filter}
	return nonNilSlice(f.Apply(s.pool.Load().cards))
}

// CardByKey looks a card up by its "path#heading" identity.
func (s *Service) CardByKey(key string) (models.Card, bool) {
	snap := s.pool.Load()
	i, ok := snap.byKey[key]
	if !ok {
		return models.Card{}, false
	}
	return snap.cards[i], true
}

// CardsByHash returns every card whose compact key is in hashes.
func (s *Service) CardsByHash(hashes []string) []models.Card {
	return nonNilSlice(cards.ByHash(s.pool.Load().cards, hashes))
}

// CardByHash picks one card at random among those whose compact key is in hashes.
func (s *Service) CardByHash(hashes []string) (models.Card, bool) {
	return s.selector.RandomByHash(s.pool.Load().cards, hashes)
}

// Tags returns every deck tag in the pool, sorted.
func (s *Service) Tags() []string {
	return nonNilSlice(cards.Tags(s.pool.Load().cards))
}

// Decks returns the filter values a display session cycles through: deck
// tags for tag filtering, configured card paths for path filtering.
func (s *Service) Decks() []string {
	settings := s.Settings()
	if settings.FilterKind == models.FilterPath {
		return settings.CardPaths
	}
	return s.Tags()
}

// Search finds cards by text. Without an index the in-memory pool is scanned.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.index != nil {
		res, err := s.index.Search(ctx, query, limit)
		return nonNilSlice(res), err
	}
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)
	out := []index.SearchResult{}
	for _, c := range s.pool.Load().cards {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(c.Heading), q) || strings.Contains(strings.ToLower(c.Content), q) {
			out = append(out, index.SearchResult{Key: c.Key, Path: c.Path, Heading: c.Heading, Snippet: snippet(c.Content)})
		}
	}
	return out, nil
}

// Stats summarizes the current pool and ledger.
type Stats struct {
	Cards     int       `json:"cards"`
	Documents int       `json:"documents"`
	Tags      int       `json:"tags"`
	Views     int       `json:"views"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Stats returns counters for the current pool.
func (s *Service) Stats() Stats {
	snap := s.pool.Load()
	return Stats{
		Cards:     len(snap.cards),
		Documents: len(cards.Paths(snap.cards)),
		Tags:      len(cards.Tags(snap.cards)),
		Views:     s.ledger.Len(),
		ScannedAt: snap.scannedAt,
	}
}

func (s *Service) saveState(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	st := &models.State{
		Settings:  s.Settings(),
		CardViews: s.ledger.Snapshot(),
	}
	if err := s.persist.Save(ctx, st); err != nil {
		return fmt.Errorf("cardservice: save state: %w", err)
	}
	return nil
}

func (s *Service) emit(kind string, data any) {
	if s.events != nil {
		s.events(kind, data)
	}
}

func snippet(content string) string {
	if len(content) <= 200 {
		return content
	}
	return content[:200]
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
