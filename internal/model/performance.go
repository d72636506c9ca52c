package model

import "time"

// PerformanceRecord counts graded signals an indicator contributed to.
type PerformanceRecord struct {
	Success int `json:"success"`
	Total   int `json:"total"`
}

// SuccessRate returns Success/Total, or 0 with no samples.
func (r PerformanceRecord) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Success) / float64(r.Total)
}

// WeightTable maps indicators to their current weight.
type WeightTable map[Indicator]float64

// PerformanceTable maps indicators to their graded history.
type PerformanceTable map[Indicator]PerformanceRecord

// IndicatorReport is one line of the performance report.
type IndicatorReport struct {
	Indicator   Indicator `json:"indicator"`
	SuccessRate float64   `json:"success_rate"`
	Success     int       `json:"success"`
	Total       int       `json:"total"`
	Weight      float64   `json:"weight"`
}

// LearningState is the persisted snapshot of weights and performance.
type LearningState struct {
	Weights     WeightTable      `json:"weights"`
	Performance PerformanceTable `json:"performance"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// BotStatus is a point-in-time view of the running bot.
type BotStatus struct {
	Running        bool    `json:"running"`
	Connections    int     `json:"connections"`
	DataReceived   int64   `json:"data_received"`
	SignalsRaised  int64   `json:"signals_raised"`
	SignalsSent    int64   `json:"signals_sent"`
	Profitable     int64   `json:"profitable_signals"`
	Unprofitable   int64   `json:"unprofitable_signals"`
	PendingSignals int     `json:"pending_signals"`
	LiveTrackers   int     `json:"live_trackers"`
	Accuracy       float64 `json:"accuracy"`
}

// PerformanceReport is the periodic summary delivered as a report event.
type PerformanceReport struct {
	Status     BotStatus         `json:"status"`
	Indicators []IndicatorReport `json:"indicators"`
	CreatedAt  time.Time         `json:"created_at"`
}
