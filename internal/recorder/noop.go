package recorder

import "SignalSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) StoreSignal(_ *model.Signal) error                { return nil }
func (n *NoopRecorder) UpdateOutcome(_ string, _ bool) error             { return nil }
func (n *NoopRecorder) RecentSignals(_ int) ([]model.Signal, error)      { return nil, nil }
func (n *NoopRecorder) SaveWeights(_ model.WeightTable) error            { return nil }
func (n *NoopRecorder) LoadWeights() (model.WeightTable, error)          { return nil, nil }
func (n *NoopRecorder) SavePerformance(_ model.PerformanceTable) error   { return nil }
func (n *NoopRecorder) LoadPerformance() (model.PerformanceTable, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
