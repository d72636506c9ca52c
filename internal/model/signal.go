package model

import "time"

// Direction is the side of a signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Outcome is the graded result of a confirmed signal.
type Outcome string

const (
	OutcomeUnknown      Outcome = "unknown"
	OutcomeProfitable   Outcome = "profitable"
	OutcomeUnprofitable Outcome = "unprofitable"
)

// SignalStatus tracks where a signal sits in the raise/confirm lifecycle.
type SignalStatus string

const (
	StatusPending   SignalStatus = "pending"
	StatusConfirmed SignalStatus = "confirmed"
	StatusDiscarded SignalStatus = "discarded"
)

// PendingSignal is a raised signal awaiting cross-timeframe confirmation.
type PendingSignal struct {
	ID         string
	Symbol     string
	Timeframe  Timeframe
	Direction  Direction
	Strength   float64 // (0, 1]
	Accuracy   float64
	Indicators []Indicator
	CreatedAt  time.Time
}

// Key returns the series the signal was raised on.
func (p *PendingSignal) Key() SeriesKey {
	return SeriesKey{Symbol: p.Symbol, Timeframe: p.Timeframe}
}

// Signal is the durable record of a raised signal.
type Signal struct {
	ID         string       `json:"id"`
	Symbol     string       `json:"symbol"`
	Timeframe  Timeframe    `json:"timeframe"`
	Direction  Direction    `json:"direction"`
	Strength   float64      `json:"strength"`
	Accuracy   float64      `json:"accuracy"`
	Indicators []Indicator  `json:"indicators"`
	CreatedAt  time.Time    `json:"created_at"`
	Status     SignalStatus `json:"status"`
	Outcome    Outcome      `json:"outcome"`
}

// NewSignal builds the durable record for a pending signal.
func NewSignal(p *PendingSignal, status SignalStatus) *Signal {
	indicators := make([]Indicator, len(p.Indicators))
	copy(indicators, p.Indicators)
	return &Signal{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Timeframe:  p.Timeframe,
		Direction:  p.Direction,
		Strength:   p.Strength,
		Accuracy:   p.Accuracy,
		Indicators: indicators,
		CreatedAt:  p.CreatedAt,
		Status:     status,
		Outcome:    OutcomeUnknown,
	}
}
