package engine

import "SignalSentinel/internal/model"

const (
	defaultAccuracy = 0.93
	minAccuracy     = 0.70
	maxAccuracy     = 0.98
)

// Accuracy is the historical hit rate attached to new signals.
func (e *Engine) Accuracy() float64 {
	return Accuracy(e.profitable.Load(), e.unprofitable.Load())
}

// Accuracy computes profitable/(profitable+unprofitable) clamped to
// [0.70, 0.98], or 0.93 before any signal has been graded.
func Accuracy(profitable, unprofitable int64) float64 {
	total := profitable + unprofitable
	if total == 0 {
		return defaultAccuracy
	}
	acc := float64(profitable) / float64(total)
	if acc < minAccuracy {
		return minAccuracy
	}
	if acc > maxAccuracy {
		return maxAccuracy
	}
	return acc
}

// Status fills the engine-owned fields of a status snapshot.
func (e *Engine) Status() model.BotStatus {
	return model.BotStatus{
		SignalsRaised:  e.raised.Load(),
		Profitable:     e.profitable.Load(),
		Unprofitable:   e.unprofitable.Load(),
		PendingSignals: e.pending.Len(),
		LiveTrackers:   e.trackers.Len(),
		Accuracy:       e.Accuracy(),
	}
}
