package collector

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// DefaultCapacity is the number of bars kept per series.
const DefaultCapacity = 500

// ErrNoData is returned when a series has no usable price.
var ErrNoData = errors.New("no price data")

type series struct {
	bars      []model.OHLCV
	closedSeq uint64 // incremented every time a bar closes
	updatedAt time.Time
}

// History is the bounded per-(symbol, timeframe) bar store fed by the
// ingestion layer and read by the engine.
type History struct {
	mu       sync.RWMutex
	capacity int
	series   map[model.SeriesKey]*series
	received atomic.Int64
	now      func() time.Time
}

// NewHistory creates a History keeping capacity bars per series.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		series:   make(map[model.SeriesKey]*series),
		now:      time.Now,
	}
}

// OnBarUpdate merges one bar update. A bar with the open time of the forming
// last entry overwrites it; a newer bar is appended and implicitly closes the
// previous one. Updates to closed or older bars are ignored. It reports
// whether the update closed a bar.
func (h *History) OnBarUpdate(symbol string, tf model.Timeframe, bar model.OHLCV) bool {
	key := model.SeriesKey{Symbol: symbol, Timeframe: tf}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.series[key]
	if !ok {
		s = &series{bars: make([]model.OHLCV, 0, h.capacity)}
		h.series[key] = s
	}

	closed := false
	n := len(s.bars)
	switch {
	case n == 0 || bar.Time.After(s.bars[n-1].Time):
		if n > 0 && !s.bars[n-1].Closed {
			s.bars[n-1].Closed = true
			s.closedSeq++
			closed = true
		}
		s.bars = append(s.bars, bar)
		if len(s.bars) > h.capacity {
			s.bars = append(s.bars[:0], s.bars[len(s.bars)-h.capacity:]...)
		}
	case bar.Time.Equal(s.bars[n-1].Time) && !s.bars[n-1].Closed:
		s.bars[n-1] = bar
	default:
		return false
	}
	if bar.Closed {
		s.closedSeq++
		closed = true
	}
	s.updatedAt = h.now()

	h.received.Add(1)
	metrics.BarsReceived.WithLabelValues(key.Symbol, string(tf)).Inc()
	return closed
}

// Seed replaces a series with backfilled bars (oldest first). Every bar but a
// forming last one is treated as closed.
func (h *History) Seed(key model.SeriesKey, bars []model.OHLCV) {
	if len(bars) > h.capacity {
		bars = bars[len(bars)-h.capacity:]
	}
	s := &series{bars: make([]model.OHLCV, len(bars), h.capacity)}
	copy(s.bars, bars)
	sort.Slice(s.bars, func(i, j int) bool { return s.bars[i].Time.Before(s.bars[j].Time) })
	for i := range s.bars {
		if i < len(s.bars)-1 {
			s.bars[i].Closed = true
		}
		if s.bars[i].Closed {
			s.closedSeq++
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.series[key]; ok {
		s.closedSeq += prev.closedSeq
	}
	if len(s.bars) > 0 {
		s.updatedAt = h.now()
	}
	h.series[key] = s
}

// ClosedWindow returns up to n of the most recent closed bars, oldest first.
func (h *History) ClosedWindow(key model.SeriesKey, n int) []model.OHLCV {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.series[key]
	if !ok {
		return nil
	}
	end := len(s.bars)
	if end > 0 && !s.bars[end-1].Closed {
		end--
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]model.OHLCV, end-start)
	copy(out, s.bars[start:end])
	return out
}

// ClosedSeq returns a counter that advances every time a bar of key closes.
func (h *History) ClosedSeq(key model.SeriesKey) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.series[key]; ok {
		return s.closedSeq
	}
	return 0
}

// LatestClose returns the close of the most recent bar, forming or not, and
// the time of the last update. Series not updated within staleAfter are
// reported as ErrNoData; staleAfter <= 0 disables the check.
func (h *History) LatestClose(key model.SeriesKey, staleAfter time.Duration) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.series[key]
	if !ok || len(s.bars) == 0 {
		return 0, ErrNoData
	}
	if staleAfter > 0 && h.now().Sub(s.updatedAt) > staleAfter {
		return 0, ErrNoData
	}
	price := s.bars[len(s.bars)-1].Close
	if price <= 0 {
		return 0, ErrNoData
	}
	return price, nil
}

// Received returns the number of accepted bar updates.
func (h *History) Received() int64 {
	return h.received.Load()
}

// Len returns the number of bars held for key.
func (h *History) Len(key model.SeriesKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.series[key]; ok {
		return len(s.bars)
	}
	return 0
}

// Keys lists every series with at least one bar, sorted.
func (h *History) Keys() []model.SeriesKey {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.SeriesKey, 0, len(h.series))
	for k, s := range h.series {
		if len(s.bars) > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Timeframe < out[j].Timeframe
	})
	return out
}
