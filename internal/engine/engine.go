// Package engine runs the evaluation loop: it scores closed bars, raises and
// confirms signals, and grades confirmed signals after their horizon.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/strategy"
)

// BarSource is the read side of the bar history.
type BarSource interface {
	Keys() []model.SeriesKey
	ClosedSeq(key model.SeriesKey) uint64
	ClosedWindow(key model.SeriesKey, n int) []model.OHLCV
	LatestClose(key model.SeriesKey, staleAfter time.Duration) (float64, error)
}

// WeightSource provides the weight table snapshot used for aggregation.
type WeightSource interface {
	Snapshot() model.WeightTable
}

// OutcomeLearner receives graded outcomes.
type OutcomeLearner interface {
	Apply(indicators []model.Indicator, profitable bool)
}

// SignalStore persists signals.
type SignalStore interface {
	StoreSignal(sig *model.Signal) error
	UpdateOutcome(id string, profitable bool) error
}

// Notifier delivers outbound events without blocking.
type Notifier interface {
	Deliver(kind notifier.Kind, payload interface{}) bool
}

// Config holds the engine tunables.
type Config struct {
	PollInterval     time.Duration
	Window           int // closed bars fed to the indicator library
	ConfirmWindow    int // closed bars used on higher timeframes
	MinBars          int
	Dwell            time.Duration
	Hierarchy        map[model.Timeframe][]model.Timeframe
	Qualifier        strategy.Qualifier
	Confirmer        strategy.Confirmer
	IntradayHorizon  time.Duration
	DailyHorizon     time.Duration
	StaleAfter       time.Duration
	PersistDiscarded bool
}

// Engine owns the pending table and the outcome trackers. An Engine is run
// once; create a new one to restart.
type Engine struct {
	cfg      Config
	bars     BarSource
	weights  WeightSource
	learner  OutcomeLearner
	store    SignalStore
	notify   Notifier
	log      zerolog.Logger
	pending  *PendingTable
	trackers *TaskRegistry
	lastSeq  map[model.SeriesKey]uint64

	raised       atomic.Int64
	profitable   atomic.Int64
	unprofitable atomic.Int64

	runOnce sync.Once
	compute func([]model.OHLCV) (model.IndicatorValues, error)
	now     func() time.Time
	newID   func(key model.SeriesKey) string
}

// New wires an Engine.
func New(cfg Config, bars BarSource, weights WeightSource, learner OutcomeLearner,
	store SignalStore, notify Notifier, log zerolog.Logger) *Engine {
	if cfg.MinBars < calculator.MinBars {
		cfg.MinBars = calculator.MinBars
	}
	if cfg.Window < cfg.MinBars {
		cfg.Window = cfg.MinBars
	}
	if cfg.ConfirmWindow < cfg.MinBars {
		cfg.ConfirmWindow = cfg.MinBars
	}
	return &Engine{
		cfg:      cfg,
		bars:     bars,
		weights:  weights,
		learner:  learner,
		store:    store,
		notify:   notify,
		log:      log.With().Str("component", "engine").Logger(),
		pending:  NewPendingTable(),
		trackers: NewTaskRegistry(context.Background()),
		lastSeq:  make(map[model.SeriesKey]uint64),
		compute:  calculator.Compute,
		now:      time.Now,
		newID:    newSignalID,
	}
}

func newSignalID(key model.SeriesKey) string {
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(key.Symbol), key.Timeframe, uuid.NewString()[:8])
}

// Restore seeds the outcome counters so accuracy carries over a restart.
func (e *Engine) Restore(profitable, unprofitable int64) {
	e.profitable.Store(profitable)
	e.unprofitable.Store(unprofitable)
}

// Run polls until ctx is cancelled, then cancels every live tracker and
// waits for them to return.
func (e *Engine) Run(ctx context.Context) {
	e.runOnce.Do(func() {
		e.log.Info().Dur("interval", e.cfg.PollInterval).Msg("engine started")
		ticker := time.NewTicker(e.cfg.PollInterval)
		defer ticker.Stop()

		for {
			e.Tick(ctx)
			select {
			case <-ctx.Done():
				e.trackers.CancelAll()
				e.trackers.Wait()
				e.log.Info().Msg("engine stopped")
				return
			case <-ticker.C:
			}
		}
	})
}

// Tick runs one poll cycle: evaluate every series with a newly closed bar,
// then resolve pending signals past their dwell window.
func (e *Engine) Tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.EvaluationSeconds.Observe(time.Since(start).Seconds()) }()

	for _, key := range e.bars.Keys() {
		if ctx.Err() != nil {
			return
		}
		seq := e.bars.ClosedSeq(key)
		if seq == e.lastSeq[key] {
			continue
		}
		e.lastSeq[key] = seq
		e.evaluate(key)
	}
	e.checkPending(ctx)
}

// evaluate scores the latest closed window of key and raises a pending
// signal when it qualifies.
func (e *Engine) evaluate(key model.SeriesKey) {
	log := e.log.With().Str("symbol", key.Symbol).Str("timeframe", string(key.Timeframe)).Logger()

	bars := e.bars.ClosedWindow(key, e.cfg.Window)
	if len(bars) < e.cfg.MinBars {
		log.Debug().Int("bars", len(bars)).Msg("not enough history, skipping")
		return
	}
	values, err := e.compute(bars)
	if err != nil {
		log.Debug().Err(err).Msg("indicator computation skipped")
		return
	}
	votes, err := strategy.MapVotes(values, bars[len(bars)-1].Close)
	if err != nil {
		if !errors.Is(err, strategy.ErrEmptyVote) {
			metrics.Errors.WithLabelValues("mapper").Inc()
		}
		log.Debug().Err(err).Msg("vote mapping skipped")
		return
	}

	c := strategy.Aggregate(votes, e.weights.Snapshot())
	if !e.cfg.Qualifier.Qualifies(c) {
		return
	}

	p := &model.PendingSignal{
		ID:         e.newID(key),
		Symbol:     key.Symbol,
		Timeframe:  key.Timeframe,
		Direction:  c.Direction(),
		Strength:   abs(c.Strength),
		Accuracy:   e.Accuracy(),
		Indicators: c.Indicators,
		CreatedAt:  e.now(),
	}
	if !e.pending.Add(p) {
		log.Debug().Msg("signal already pending for series, ignoring raise")
		return
	}
	e.raised.Add(1)
	metrics.SignalsRaised.WithLabelValues(string(key.Timeframe), string(p.Direction)).Inc()
	log.Info().
		Str("signal_id", p.ID).
		Str("direction", string(p.Direction)).
		Float64("strength", p.Strength).
		Int("indicators", len(p.Indicators)).
		Msg("signal raised")

	if err := e.store.StoreSignal(model.NewSignal(p, model.StatusPending)); err != nil {
		metrics.Errors.WithLabelValues("persistence").Inc()
		log.Error().Err(err).Str("signal_id", p.ID).Msg("store provisional signal failed")
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// checkPending confirms or discards every pending signal past its dwell.
func (e *Engine) checkPending(ctx context.Context) {
	for _, due := range e.pending.Due(e.now(), e.cfg.Dwell) {
		if ctx.Err() != nil {
			return
		}
		ratio, ok := e.confirm(due)
		p, taken := e.pending.Take(due.ID)
		if !taken {
			continue
		}
		log := e.log.With().Str("signal_id", p.ID).Float64("ratio", ratio).Logger()
		if ok {
			log.Info().Msg("signal confirmed")
			metrics.SignalsConfirmed.WithLabelValues(string(p.Timeframe)).Inc()
			e.promote(p)
			continue
		}
		log.Info().Msg("signal discarded")
		metrics.SignalsDiscarded.WithLabelValues(string(p.Timeframe)).Inc()
		if e.cfg.PersistDiscarded {
			if err := e.store.StoreSignal(model.NewSignal(p, model.StatusDiscarded)); err != nil {
				metrics.Errors.WithLabelValues("persistence").Inc()
				log.Error().Err(err).Msg("store discarded signal failed")
			}
		}
	}
}

// confirm evaluates p against its higher timeframes. Timeframes without
// enough history are left out of the ratio.
func (e *Engine) confirm(p *model.PendingSignal) (float64, bool) {
	higher := e.cfg.Hierarchy[p.Timeframe]
	if len(higher) == 0 {
		return 1, true
	}

	checks := make([]strategy.Check, 0, len(higher))
	for _, tf := range higher {
		check := strategy.Check{Timeframe: tf}
		bars := e.bars.ClosedWindow(model.SeriesKey{Symbol: p.Symbol, Timeframe: tf}, e.cfg.ConfirmWindow)
		if len(bars) >= e.cfg.MinBars {
			if values, err := e.compute(bars); err == nil {
				cond := strategy.Evaluate(p.Direction, values, bars[len(bars)-1].Close)
				check.Available = true
				check.Agrees = e.cfg.Confirmer.Mode.Confirms(cond)
			}
		}
		checks = append(checks, check)
	}
	return e.cfg.Confirmer.Decide(checks)
}

// promote persists and announces a confirmed signal and starts its tracker.
func (e *Engine) promote(p *model.PendingSignal) {
	sig := model.NewSignal(p, model.StatusConfirmed)
	log := e.log.With().Str("signal_id", sig.ID).Logger()

	if err := e.store.StoreSignal(sig); err != nil {
		metrics.Errors.WithLabelValues("persistence").Inc()
		log.Error().Err(err).Msg("store confirmed signal failed")
	}
	if !e.notify.Deliver(notifier.KindSignal, sig) {
		log.Warn().Msg("signal notification dropped")
	}

	entry, err := e.bars.LatestClose(p.Key(), e.cfg.StaleAfter)
	if err != nil {
		metrics.Outcomes.WithLabelValues("abandoned").Inc()
		log.Error().Err(err).Msg("no entry price, outcome will not be tracked")
		return
	}
	if !e.trackers.Go(sig.ID, func(ctx context.Context) { e.track(ctx, sig, entry) }) {
		log.Warn().Msg("tracker not started, engine stopping")
	}
}

// Horizon returns how long a signal on tf is tracked before grading.
func (e *Engine) Horizon(tf model.Timeframe) time.Duration {
	if tf.Daily() {
		return e.cfg.DailyHorizon
	}
	return e.cfg.IntradayHorizon
}

// track waits out the horizon and grades sig. Cancellation before the
// grading step leaves no trace; once grading starts it runs to completion.
func (e *Engine) track(ctx context.Context, sig *model.Signal, entry float64) {
	log := e.log.With().Str("signal_id", sig.ID).Logger()

	timer := time.NewTimer(e.Horizon(sig.Timeframe))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		log.Debug().Msg("tracker cancelled")
		return
	case <-timer.C:
	}

	exit, err := e.bars.LatestClose(model.SeriesKey{Symbol: sig.Symbol, Timeframe: sig.Timeframe}, e.cfg.StaleAfter)
	if err != nil {
		metrics.Outcomes.WithLabelValues("abandoned").Inc()
		log.Warn().Err(err).Msg("no exit price, abandoning outcome")
		return
	}
	if ctx.Err() != nil {
		return
	}

	profitable := strategy.IsProfitable(sig.Direction, entry, exit)
	e.resolve(sig, profitable)
	log.Info().
		Float64("entry", entry).
		Float64("exit", exit).
		Float64("change", strategy.PriceChange(entry, exit)).
		Bool("profitable", profitable).
		Msg("signal graded")
}

func (e *Engine) resolve(sig *model.Signal, profitable bool) {
	if err := e.store.UpdateOutcome(sig.ID, profitable); err != nil {
		metrics.Errors.WithLabelValues("persistence").Inc()
		e.log.Error().Err(err).Str("signal_id", sig.ID).Msg("update outcome failed")
	}
	if profitable {
		e.profitable.Add(1)
		metrics.Outcomes.WithLabelValues(string(model.OutcomeProfitable)).Inc()
	} else {
		e.unprofitable.Add(1)
		metrics.Outcomes.WithLabelValues(string(model.OutcomeUnprofitable)).Inc()
	}
	e.learner.Apply(sig.Indicators, profitable)
}
