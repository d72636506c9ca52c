package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// Mode selects how the sub-conditions of the confirmation predicate combine.
type Mode string

const (
	// ModeMajority needs at least three of trend, momentum, strength and volume.
	ModeMajority Mode = "majority"
	// ModeAll needs every sub-condition.
	ModeAll Mode = "all"
	// ModeLegacy is (trend or momentum or close beyond BB middle) and strength and volume.
	ModeLegacy Mode = "legacy"
)

// ParseMode validates a configured confirmation mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeMajority, ModeAll, ModeLegacy:
		return m, nil
	case "":
		return ModeMajority, nil
	}
	return "", fmt.Errorf("unknown confirmation mode %q", s)
}

// Conditions are the directional sub-checks evaluated on one higher timeframe.
type Conditions struct {
	Trend    bool // fast trend measure on the signal's side of the slow one
	Momentum bool // MACD on the signal's side of its signal line
	Strength bool // ADX above the trend floor
	Volume   bool // OBV trend agrees with the direction
	Band     bool // close on the signal's side of the BB middle
}

func (c Conditions) count() int {
	n := 0
	for _, ok := range []bool{c.Trend, c.Momentum, c.Strength, c.Volume} {
		if ok {
			n++
		}
	}
	return n
}

// Evaluate derives the sub-conditions for dir from a higher-timeframe snapshot.
// Missing inputs make the corresponding condition false.
func Evaluate(dir model.Direction, v model.IndicatorValues, close float64) Conditions {
	bull := dir == model.DirectionBuy
	agrees := func(x, y string) bool {
		a, okA := v.Get(x)
		b, okB := v.Get(y)
		if !okA || !okB || a == b {
			return false
		}
		return (a > b) == bull
	}

	var c Conditions
	c.Trend = agrees(model.FieldEMAFast, model.FieldEMASlow)
	c.Momentum = agrees(model.FieldMACD, model.FieldMACDSignal)
	if adx, ok := v.Get(model.FieldADX); ok {
		c.Strength = adx > TrendStrengthFloor
	}
	if obv, ok := v.Get(model.FieldOBVTrend); ok && obv != 0 {
		c.Volume = (obv > 0) == bull
	}
	if mid, ok := v.Get(model.FieldBBMiddle); ok && validPrice(close) && close != mid {
		c.Band = (close > mid) == bull
	}
	return c
}

// Confirms combines the sub-conditions according to the mode.
func (m Mode) Confirms(c Conditions) bool {
	switch m {
	case ModeAll:
		return c.count() == 4
	case ModeLegacy:
		return (c.Trend || c.Momentum || c.Band) && c.Strength && c.Volume
	}
	return c.count() >= 3
}

// Confirmer decides whether a pending signal is confirmed by its higher timeframes.
type Confirmer struct {
	Mode      Mode
	Threshold float64
}

// Check is the confirmation result of one higher timeframe. Available is false
// when the timeframe lacked enough history and is excluded from the ratio.
type Check struct {
	Timeframe model.Timeframe
	Available bool
	Agrees    bool
}

// Decide returns the confirmation ratio over available timeframes and whether
// it reaches the threshold. With no available timeframe the signal confirms.
func (c Confirmer) Decide(checks []Check) (float64, bool) {
	var available, agreeing int
	for _, v := range checks {
		if !v.Available {
			continue
		}
		available++
		if v.Agrees {
			agreeing++
		}
	}
	if available == 0 {
		return 1, true
	}
	ratio := float64(agreeing) / float64(available)
	return ratio, ratio >= c.Threshold
}
