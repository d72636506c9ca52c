package recorder

import (
	"errors"

	"SignalSentinel/internal/model"
)

// ErrOutcomeResolved is returned by UpdateOutcome when the signal is unknown
// or its outcome was already set.
var ErrOutcomeResolved = errors.New("signal missing or outcome already resolved")

// ErrClosed is returned by writes queued after Async.Close.
var ErrClosed = errors.New("recorder closed")

// Recorder persists signals, indicator weights and performance records.
type Recorder interface {
	StoreSignal(sig *model.Signal) error
	UpdateOutcome(id string, profitable bool) error
	RecentSignals(limit int) ([]model.Signal, error)
	SaveWeights(w model.WeightTable) error
	LoadWeights() (model.WeightTable, error)
	SavePerformance(p model.PerformanceTable) error
	LoadPerformance() (model.PerformanceTable, error)
	Close() error
}
