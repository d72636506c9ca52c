package recorder

import (
	"sync"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// Async wraps a Recorder so signal writes run on a background worker and
// never block the caller. Reads and learning-state writes pass through.
// Writes that do not fit in the queue are dropped and counted.
type Async struct {
	Recorder
	jobs   chan func() error
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	log    zerolog.Logger
}

// NewAsync starts the worker with a queue of size buffer.
func NewAsync(inner Recorder, buffer int, log zerolog.Logger) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		Recorder: inner,
		jobs:     make(chan func() error, buffer),
		log:      log.With().Str("component", "recorder-async").Logger(),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for job := range a.jobs {
		if err := job(); err != nil {
			metrics.Errors.WithLabelValues("persistence").Inc()
			a.log.Error().Err(err).Msg("background write failed")
		}
	}
}

func (a *Async) enqueue(job func() error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.jobs <- job:
	default:
		metrics.Errors.WithLabelValues("persistence_dropped").Inc()
		a.log.Warn().Msg("write queue full, dropping write")
	}
	return nil
}

// StoreSignal queues a copy of sig.
func (a *Async) StoreSignal(sig *model.Signal) error {
	cp := *sig
	cp.Indicators = append([]model.Indicator(nil), sig.Indicators...)
	return a.enqueue(func() error { return a.Recorder.StoreSignal(&cp) })
}

// UpdateOutcome queues the outcome write.
func (a *Async) UpdateOutcome(id string, profitable bool) error {
	return a.enqueue(func() error { return a.Recorder.UpdateOutcome(id, profitable) })
}

// Flush blocks until every write queued before the call has run.
// It returns at once after Close.
func (a *Async) Flush() {
	done := make(chan struct{})
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return
	}
	a.jobs <- func() error {
		close(done)
		return nil
	}
	a.mu.RUnlock()
	<-done
}

// Close drains the queue and closes the wrapped recorder.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()
	a.wg.Wait()
	return a.Recorder.Close()
}
