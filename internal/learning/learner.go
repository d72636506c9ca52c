package learning

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

// Store persists the weight table and performance records.
type Store interface {
	LoadWeights() (model.WeightTable, error)
	SaveWeights(model.WeightTable) error
	LoadPerformance() (model.PerformanceTable, error)
	SavePerformance(model.PerformanceTable) error
}

// Config tunes the feedback rule.
type Config struct {
	Rate         float64 // multiplicative step, e.g. 0.01
	MinSamples   int     // weights move only once total exceeds this
	SuccessAbove float64 // success rate above which a weight grows
	FailureBelow float64 // success rate below which a weight shrinks
}

// DefaultConfig returns the stock feedback parameters.
func DefaultConfig() Config {
	return Config{Rate: 0.01, MinSamples: 10, SuccessAbove: 0.6, FailureBelow: 0.4}
}

// Learner applies graded outcomes to per-indicator performance records and
// reweights the indicators that contributed.
type Learner struct {
	mu      sync.Mutex
	saveMu  sync.Mutex // held across snapshot and save so an older table never lands last
	cfg     Config
	weights *WeightStore
	perf    model.PerformanceTable
	store   Store
	log     zerolog.Logger
}

// NewLearner creates a Learner. store may be nil to disable persistence.
func NewLearner(cfg Config, weights *WeightStore, store Store, log zerolog.Logger) *Learner {
	return &Learner{
		cfg:     cfg,
		weights: weights,
		perf:    make(model.PerformanceTable),
		store:   store,
		log:     log.With().Str("component", "learner").Logger(),
	}
}

// Weights returns the underlying weight store.
func (l *Learner) Weights() *WeightStore {
	return l.weights
}

// Load restores weights and performance from the store. Load failures leave
// the base table in place.
func (l *Learner) Load() {
	if l.store == nil {
		return
	}
	if w, err := l.store.LoadWeights(); err != nil {
		l.log.Warn().Err(err).Msg("load weights failed, using base table")
	} else if len(w) > 0 {
		l.weights.Load(w)
		l.log.Info().Int("indicators", len(w)).Msg("weights loaded")
	}

	p, err := l.store.LoadPerformance()
	if err != nil {
		l.log.Warn().Err(err).Msg("load performance failed")
		return
	}
	l.mu.Lock()
	for ind, rec := range p {
		if model.Known(ind) {
			l.perf[ind] = rec
		}
	}
	l.mu.Unlock()
}

// Apply records one graded signal for each contributing indicator and
// adjusts the weights of those with enough history, then persists.
func (l *Learner) Apply(indicators []model.Indicator, profitable bool) {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	seen := make(map[model.Indicator]bool, len(indicators))
	for _, ind := range indicators {
		if seen[ind] || !model.Known(ind) {
			continue
		}
		seen[ind] = true

		rec := l.perf[ind]
		rec.Total++
		if profitable {
			rec.Success++
		}
		l.perf[ind] = rec

		if rec.Total <= l.cfg.MinSamples {
			continue
		}
		old := l.weights.Get(ind)
		next := l.adjust(old, rec.SuccessRate())
		if next != old {
			stored := l.weights.Set(ind, next)
			l.log.Debug().
				Str("indicator", string(ind)).
				Float64("success_rate", rec.SuccessRate()).
				Float64("old", old).
				Float64("new", stored).
				Msg("weight adjusted")
		}
	}
	perf := l.performance()
	l.mu.Unlock()

	l.persist(l.weights.Snapshot(), perf)
}

func (l *Learner) adjust(w, rate float64) float64 {
	switch {
	case rate > l.cfg.SuccessAbove:
		return w * (1 + l.cfg.Rate)
	case rate < l.cfg.FailureBelow:
		return w * (1 - l.cfg.Rate)
	}
	return w
}

// Persist writes the current weights and performance records.
func (l *Learner) Persist() {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()
	l.persist(l.weights.Snapshot(), l.Performance())
}

func (l *Learner) persist(w model.WeightTable, p model.PerformanceTable) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveWeights(w); err != nil {
		l.log.Error().Err(err).Msg("save weights failed")
	}
	if err := l.store.SavePerformance(p); err != nil {
		l.log.Error().Err(err).Msg("save performance failed")
	}
}

// Performance returns a copy of the performance records.
func (l *Learner) Performance() model.PerformanceTable {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.performance()
}

func (l *Learner) performance() model.PerformanceTable {
	out := make(model.PerformanceTable, len(l.perf))
	for ind, rec := range l.perf {
		out[ind] = rec
	}
	return out
}

// Report lists every indicator with graded history, best success rate first.
func (l *Learner) Report() []model.IndicatorReport {
	perf := l.Performance()
	weights := l.weights.Snapshot()

	out := make([]model.IndicatorReport, 0, len(perf))
	for ind, rec := range perf {
		if rec.Total == 0 {
			continue
		}
		out = append(out, model.IndicatorReport{
			Indicator:   ind,
			SuccessRate: rec.SuccessRate(),
			Success:     rec.Success,
			Total:       rec.Total,
			Weight:      weights[ind],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessRate != out[j].SuccessRate {
			return out[i].SuccessRate > out[j].SuccessRate
		}
		return out[i].Indicator < out[j].Indicator
	})
	return out
}
