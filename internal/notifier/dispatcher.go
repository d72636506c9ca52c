package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/metrics"
)

// Kind classifies an outbound event.
type Kind string

const (
	KindSignal Kind = "signal"
	KindReport Kind = "report"
	KindStatus Kind = "status"
)

// Event is one outbound notification.
type Event struct {
	Kind    Kind        `json:"kind"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload"`
}

// Sink delivers events to one channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher fans events out to every sink on a background worker so callers
// never block on delivery.
type Dispatcher struct {
	sinks     []Sink
	queue     chan Event
	delivered [3]atomic.Int64
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	log       zerolog.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher with a queue of size buffer.
func NewDispatcher(buffer int, log zerolog.Logger, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sinks: sinks,
		queue: make(chan Event, buffer),
		log:   log.With().Str("component", "dispatcher").Logger(),
		now:   time.Now,
	}
}

// Start runs the delivery worker until ctx is cancelled or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e, ok := <-d.queue:
				if !ok {
					return
				}
				d.send(ctx, e)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Deliver queues an event. It returns false when the event was dropped.
func (d *Dispatcher) Deliver(kind Kind, payload interface{}) bool {
	e := Event{Kind: kind, Time: d.now(), Payload: payload}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		metrics.Errors.WithLabelValues("notify_dropped").Inc()
		d.log.Warn().Str("kind", string(kind)).Msg("notification queue full, dropping event")
		return false
	}
}

func (d *Dispatcher) send(ctx context.Context, e Event) {
	ok := false
	for _, s := range d.sinks {
		if err := s.Deliver(ctx, e); err != nil {
			metrics.Errors.WithLabelValues("notify").Inc()
			d.log.Error().Err(err).Str("sink", s.Name()).Str("kind", string(e.Kind)).Msg("delivery failed")
			continue
		}
		ok = true
	}
	if ok {
		if i := kindIndex(e.Kind); i >= 0 {
			d.delivered[i].Add(1)
		}
	}
}

// Delivered returns how many events of kind reached at least one sink.
func (d *Dispatcher) Delivered(kind Kind) int64 {
	if i := kindIndex(kind); i >= 0 {
		return d.delivered[i].Load()
	}
	return 0
}

func kindIndex(k Kind) int {
	switch k {
	case KindSignal:
		return 0
	case KindReport:
		return 1
	case KindStatus:
		return 2
	}
	return -1
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// TelegramSink renders events as text and sends them with retry.
type TelegramSink struct {
	Notifier   *TelegramNotifier
	MaxRetries int
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, e Event) error {
	return s.Notifier.SendWithRetry(ctx, FormatEvent(e), s.MaxRetries)
}

// LogSink writes events to the log; used when no chat is configured.
type LogSink struct {
	Log zerolog.Logger
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.Log.Info().Str("kind", string(e.Kind)).Msg(FormatEvent(e))
	return nil
}
