package engine

import (
	"sort"
	"sync"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// PendingTable holds raised signals awaiting confirmation. At most one entry
// exists per (symbol, timeframe).
type PendingTable struct {
	mu    sync.Mutex
	byID  map[string]*model.PendingSignal
	byKey map[model.SeriesKey]string
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{
		byID:  make(map[string]*model.PendingSignal),
		byKey: make(map[model.SeriesKey]string),
	}
}

// Add registers p unless its series already has a live entry. It reports
// whether p was added.
func (t *PendingTable) Add(p *model.PendingSignal) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := p.Key()
	if _, ok := t.byKey[key]; ok {
		return false
	}
	t.byID[p.ID] = p
	t.byKey[key] = p.ID
	metrics.PendingSignals.Set(float64(len(t.byID)))
	return true
}

// Take removes and returns the entry with id. Only one caller can take a
// given entry.
func (t *PendingTable) Take(id string) (*model.PendingSignal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	delete(t.byID, id)
	delete(t.byKey, p.Key())
	metrics.PendingSignals.Set(float64(len(t.byID)))
	return p, true
}

// Due returns the entries at least dwell old, oldest first.
func (t *PendingTable) Due(now time.Time, dwell time.Duration) []*model.PendingSignal {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*model.PendingSignal
	for _, p := range t.byID {
		if now.Sub(p.CreatedAt) >= dwell {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Has reports whether key has a live entry.
func (t *PendingTable) Has(key model.SeriesKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byKey[key]
	return ok
}

// Len returns the number of live entries.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
