package cards

import (
	"maps"
	"sync"
	"time"
)

// Ledger maps card keys to their last-viewed time in Unix milliseconds.
// Entries are created on first view and never pruned.
type Ledger struct {
	mu    sync.RWMutex
	views map[string]int64
}

// NewLedger creates a ledger seeded with a copy of initial.
func NewLedger(initial map[string]int64) *Ledger {
	views := make(map[string]int64, len(initial))
	maps.Copy(views, initial)
	return &Ledger{views: views}
}

// LastViewed implements Views.
func (l *Ledger) LastViewed(key string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.views[key]
}

// Record sets the view time of key to at and returns the stored value.
func (l *Ledger) Record(key string, at time.Time) int64 {
	ms := at.UnixMilli()
	l.mu.Lock()
	l.views[key] = ms
	l.mu.Unlock()
	return ms
}

// Replace discards every entry and loads a copy of views.
func (l *Ledger) Replace(views map[string]int64) {
	fresh := make(map[string]int64, len(views))
	maps.Copy(fresh, views)
	l.mu.Lock()
	l.views = fresh
	l.mu.Unlock()
}

// Snapshot returns a copy of every entry.
func (l *Ledger) Snapshot() map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.views)
}

// Len returns the number of recorded keys.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.views)
}
