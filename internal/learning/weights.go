// Package learning owns the indicator weight table and the feedback rule that
// adjusts it from graded signal outcomes.
package learning

import (
	"sync"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// WeightStore is the concurrency-safe weight table. Every stored weight lies
// within [Min, Max]; indicators without an entry fall back to the base table.
type WeightStore struct {
	mu      sync.RWMutex
	base    model.WeightTable
	weights model.WeightTable
	min     float64
	max     float64
}

// NewWeightStore seeds the table from base, clamping every entry.
func NewWeightStore(base model.WeightTable, min, max float64) *WeightStore {
	s := &WeightStore{
		base:    make(model.WeightTable, len(base)),
		weights: make(model.WeightTable, len(base)),
		min:     min,
		max:     max,
	}
	for ind, w := range base {
		s.base[ind] = w
		s.weights[ind] = s.clamp(w)
	}
	s.publish(s.weights)
	return s
}

// Get returns the weight of ind, falling back to its base weight.
func (s *WeightStore) Get(ind model.Indicator) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ind)
}

func (s *WeightStore) get(ind model.Indicator) float64 {
	if w, ok := s.weights[ind]; ok {
		return w
	}
	if w, ok := s.base[ind]; ok {
		return s.clamp(w)
	}
	return s.clamp(model.BaseWeights[ind])
}

// Set stores a clamped weight for ind and returns the value stored.
func (s *WeightStore) Set(ind model.Indicator, w float64) float64 {
	s.mu.Lock()
	w = s.clamp(w)
	s.weights[ind] = w
	s.mu.Unlock()

	metrics.IndicatorWeight.WithLabelValues(string(ind)).Set(w)
	return w
}

// Load overlays persisted weights. Unknown indicators are ignored.
func (s *WeightStore) Load(t model.WeightTable) {
	s.mu.Lock()
	for ind, w := range t {
		if !model.Known(ind) {
			continue
		}
		s.weights[ind] = s.clamp(w)
	}
	snap := s.snapshot()
	s.mu.Unlock()
	s.publish(snap)
}

// Snapshot returns a copy holding an entry for every catalog indicator.
func (s *WeightStore) Snapshot() model.WeightTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *WeightStore) snapshot() model.WeightTable {
	out := make(model.WeightTable, len(model.Catalog))
	for _, ind := range model.Catalog {
		out[ind] = s.get(ind)
	}
	for ind, w := range s.weights {
		out[ind] = w
	}
	return out
}

func (s *WeightStore) clamp(w float64) float64 {
	if w < s.min {
		return s.min
	}
	if w > s.max {
		return s.max
	}
	return w
}

func (s *WeightStore) publish(t model.WeightTable) {
	for ind, w := range t {
		metrics.IndicatorWeight.WithLabelValues(string(ind)).Set(w)
	}
}
