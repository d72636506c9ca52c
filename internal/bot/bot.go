// Package bot owns the start/stop lifecycle: it wires the kline feed, the
// evaluation engine and the learner into one runnable unit.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/learning"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
)

var (
	ErrAlreadyRunning = errors.New("bot already running")
	ErrNotRunning     = errors.New("bot already stopped")
)

// FeedRunner is a live bar source.
type FeedRunner interface {
	Run(ctx context.Context) error
	Connections() int
}

// Notifier delivers events and counts the ones that went out.
type Notifier interface {
	Deliver(kind notifier.Kind, payload interface{}) bool
	Delivered(kind notifier.Kind) int64
}

// Options are the per-run settings.
type Options struct {
	Keys          []model.SeriesKey
	BackfillLimit int
	Engine        engine.Config
}

// Deps are the long-lived collaborators shared across runs.
type Deps struct {
	History  *collector.History
	Backfill *collector.Collector // nil disables backfill
	NewFeed  func() FeedRunner
	Learner  *learning.Learner
	Store    engine.SignalStore
	Notify   Notifier
}

// Bot starts and stops the feed and engine. Each start builds a fresh
// engine; outcome counters carry over from the previous run.
type Bot struct {
	opts Options
	deps Deps
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	eng     *engine.Engine
	feed    FeedRunner

	// totals of finished runs
	raised       int64
	profitable   int64
	unprofitable int64

	now func() time.Time
}

// New creates a stopped Bot.
func New(opts Options, deps Deps, log zerolog.Logger) *Bot {
	return &Bot{
		opts: opts,
		deps: deps,
		log:  log.With().Str("component", "bot").Logger(),
		now:  time.Now,
	}
}

// Start loads learned weights, backfills history and launches the feed and
// the engine. The runs outlive ctx, which only bounds the backfill.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return ErrAlreadyRunning
	}

	b.deps.Learner.Load()
	if b.deps.Backfill != nil && b.opts.BackfillLimit > 0 {
		if err := b.deps.Backfill.Backfill(ctx, b.opts.Keys, b.opts.BackfillLimit); err != nil {
			b.log.Warn().Err(err).Msg("backfill incomplete, continuing with live data")
		}
	}

	eng := engine.New(b.opts.Engine, b.deps.History, b.deps.Learner.Weights(), b.deps.Learner,
		b.deps.Store, b.deps.Notify, b.log)
	eng.Restore(b.profitable, b.unprofitable)
	feed := b.deps.NewFeed()

	runCtx, cancel := context.WithCancel(context.Background())
	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		if err := feed.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			b.log.Error().Err(err).Msg("kline feed exited")
		}
	}()
	go func() {
		defer b.wg.Done()
		eng.Run(runCtx)
	}()

	b.eng, b.feed, b.cancel = eng, feed, cancel
	b.running = true
	b.log.Info().Int("series", len(b.opts.Keys)).Msg("bot started")
	b.deps.Notify.Deliver(notifier.KindStatus, b.status())
	return nil
}

// Stop cancels the feed, the engine and every live tracker, waits for them,
// then persists the learned state.
func (b *Bot) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ErrNotRunning
	}

	b.cancel()
	b.wg.Wait()

	s := b.eng.Status()
	b.raised += s.SignalsRaised
	b.profitable = s.Profitable
	b.unprofitable = s.Unprofitable
	b.eng, b.feed, b.cancel = nil, nil, nil
	b.running = false

	b.deps.Learner.Persist()
	b.log.Info().Msg("bot stopped")
	b.deps.Notify.Deliver(notifier.KindStatus, b.status())
	return nil
}

// Running reports whether the bot is started.
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Status returns a point-in-time snapshot.
func (b *Bot) Status() model.BotStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status()
}

func (b *Bot) status() model.BotStatus {
	var s model.BotStatus
	if b.eng != nil {
		s = b.eng.Status()
	} else {
		s = model.BotStatus{
			Profitable:   b.profitable,
			Unprofitable: b.unprofitable,
			Accuracy:     engine.Accuracy(b.profitable, b.unprofitable),
		}
	}
	s.SignalsRaised += b.raised
	s.Running = b.running
	if b.feed != nil {
		s.Connections = b.feed.Connections()
	}
	s.DataReceived = b.deps.History.Received()
	s.SignalsSent = b.deps.Notify.Delivered(notifier.KindSignal)
	return s
}

// Report builds the performance report.
func (b *Bot) Report() *model.PerformanceReport {
	return &model.PerformanceReport{
		Status:     b.Status(),
		Indicators: b.deps.Learner.Report(),
		CreatedAt:  b.now(),
	}
}

// Weights returns the current weight table.
func (b *Bot) Weights() model.WeightTable {
	return b.deps.Learner.Weights().Snapshot()
}

// Checkpoint persists weights and performance.
func (b *Bot) Checkpoint() {
	b.deps.Learner.Persist()
}

// Close stops the bot if it is running.
func (b *Bot) Close() {
	if err := b.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		b.log.Error().Err(err).Msg("stop on close failed")
	}
}
