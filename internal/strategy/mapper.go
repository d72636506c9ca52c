package strategy

import (
	"errors"
	"math"

	"SignalSentinel/internal/model"
)

// ErrEmptyVote is returned when the fields shared by the trend indicators are
// all missing, so the cycle for that series must be skipped.
var ErrEmptyVote = errors.New("required indicator fields missing")

// TrendStrengthFloor is the ADX level above which a trend counts as established.
const TrendStrengthFloor = 20.0

// requiredFields feed several indicators; if none of them is present the
// snapshot is unusable.
var requiredFields = []string{
	model.FieldEMAFast, model.FieldEMASlow, model.FieldMACD, model.FieldMACDSignal, model.FieldADX,
}

// voteRule maps a snapshot to a vote; ok=false means an input was missing and
// the indicator abstains from this cycle.
type voteRule func(v model.IndicatorValues, close float64) (vote float64, ok bool)

// voteRules holds one rule per catalog indicator. TestVoteRulesCoverCatalog
// keeps the two in sync.
var voteRules = map[model.Indicator]voteRule{
	model.IndicatorEMA:          above(model.FieldEMAFast, model.FieldEMASlow),
	model.IndicatorSMA:          closeAbove(model.FieldSMA),
	model.IndicatorMACD:         above(model.FieldMACD, model.FieldMACDSignal),
	model.IndicatorSupertrend:   sign(model.FieldSupertrend),
	model.IndicatorADX:          adxVote,
	model.IndicatorRSI:          oscillator(model.FieldRSI, 35, 65),
	model.IndicatorStochastic:   stochasticVote,
	model.IndicatorWilliamsR:    oscillator(model.FieldWilliams, -75, -25),
	model.IndicatorCCI:          oscillator(model.FieldCCI, -90, 90),
	model.IndicatorBollinger:    reversion(model.FieldBBUpper, model.FieldBBLower),
	model.IndicatorKeltner:      reversion(model.FieldKCUpper, model.FieldKCLower),
	model.IndicatorVolumeOsc:    sign(model.FieldVolumeOsc),
	model.IndicatorOBV:          sign(model.FieldOBVTrend),
	model.IndicatorEngulfing:    detector(model.FieldBullEngulf, model.FieldBearEngulf),
	model.IndicatorHammer:       detector(model.FieldHammer, ""),
	model.IndicatorPinBar:       detector(model.FieldPinBarBull, model.FieldPinBarBear),
	model.IndicatorParabolicSAR: sarVote,
	model.IndicatorDonchian:     reversion(model.FieldDonchianHi, model.FieldDonchianLo),
	model.IndicatorHeikinAshi:   above(model.FieldHAClose, model.FieldHAOpen),
	model.IndicatorVWAP:         closeAbove(model.FieldVWAP),
	model.IndicatorZScore:       oscillator(model.FieldZScore, -2, 2),
	model.IndicatorHullMA:       closeAbove(model.FieldHullMA),
	model.IndicatorChaikinMF:    sign(model.FieldChaikinOsc),
	model.IndicatorTrendVolume:  trendVolumeVote,
}

// MapVotes turns one indicator snapshot into per-indicator directional votes.
// Indicators with missing inputs are left out of the result.
func MapVotes(v model.IndicatorValues, close float64) (model.Vote, error) {
	present := false
	for _, f := range requiredFields {
		if _, ok := v.Get(f); ok {
			present = true
			break
		}
	}
	if !present {
		return model.Vote{}, ErrEmptyVote
	}

	votes := make(model.Vote, len(voteRules))
	for _, ind := range model.Catalog {
		rule, ok := voteRules[ind]
		if !ok {
			continue
		}
		if vote, ok := rule(v, close); ok {
			votes[ind] = vote
		}
	}
	return votes, nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func direction(bull bool) float64 {
	if bull {
		return 1
	}
	return -1
}

// above votes bullish when field a exceeds field b, bearish otherwise.
func above(a, b string) voteRule {
	return func(v model.IndicatorValues, _ float64) (float64, bool) {
		x, okA := v.Get(a)
		y, okB := v.Get(b)
		if !okA || !okB {
			return 0, false
		}
		return direction(x > y), true
	}
}

func closeAbove(field string) voteRule {
	return func(v model.IndicatorValues, close float64) (float64, bool) {
		x, ok := v.Get(field)
		if !ok || !validPrice(close) {
			return 0, false
		}
		return direction(close > x), true
	}
}

func sign(field string) voteRule {
	return func(v model.IndicatorValues, _ float64) (float64, bool) {
		x, ok := v.Get(field)
		if !ok {
			return 0, false
		}
		return direction(x > 0), true
	}
}

// oscillator votes bullish below oversold, bearish above overbought and is
// neutral in between.
func oscillator(field string, oversold, overbought float64) voteRule {
	return func(v model.IndicatorValues, _ float64) (float64, bool) {
		x, ok := v.Get(field)
		if !ok {
			return 0, false
		}
		switch {
		case x < oversold:
			return 1, true
		case x > overbought:
			return -1, true
		}
		return 0, true
	}
}

// reversion votes against a close outside the band.
func reversion(upperField, lowerField string) voteRule {
	return func(v model.IndicatorValues, close float64) (float64, bool) {
		upper, okU := v.Get(upperField)
		lower, okL := v.Get(lowerField)
		if !okU || !okL || !validPrice(close) {
			return 0, false
		}
		switch {
		case close > upper:
			return -1, true
		case close < lower:
			return 1, true
		}
		return 0, true
	}
}

func detector(bullField, bearField string) voteRule {
	return func(v model.IndicatorValues, _ float64) (float64, bool) {
		bull, ok := v.Flag(bullField)
		if !ok {
			return 0, false
		}
		if bull {
			return 1, true
		}
		if bearField == "" {
			return 0, true
		}
		bear, ok := v.Flag(bearField)
		if !ok {
			return 0, false
		}
		if bear {
			return -1, true
		}
		return 0, true
	}
}

func adxVote(v model.IndicatorValues, _ float64) (float64, bool) {
	adx, ok := v.Get(model.FieldADX)
	if !ok {
		return 0, false
	}
	if adx <= TrendStrengthFloor {
		return 0, true
	}
	plus, okP := v.Get(model.FieldPlusDI)
	minus, okM := v.Get(model.FieldMinusDI)
	if !okP || !okM || plus == minus {
		return 0, true
	}
	return direction(plus > minus), true
}

func sarVote(v model.IndicatorValues, close float64) (float64, bool) {
	sar, ok := v.Get(model.FieldSAR)
	if !ok || !validPrice(close) {
		return 0, false
	}
	return direction(close > sar), true
}

func stochasticVote(v model.IndicatorValues, _ float64) (float64, bool) {
	k, okK := v.Get(model.FieldStochK)
	d, okD := v.Get(model.FieldStochD)
	if !okK || !okD {
		return 0, false
	}
	switch {
	case k < 25 && d < 25:
		return 1, true
	case k > 75 && d > 75:
		return -1, true
	}
	return 0, true
}

func trendVolumeVote(v model.IndicatorValues, _ float64) (float64, bool) {
	fast, ok1 := v.Get(model.FieldEMAFast)
	slow, ok2 := v.Get(model.FieldEMASlow)
	obv, ok3 := v.Get(model.FieldOBVTrend)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	switch {
	case fast > slow && obv > 0:
		return 1, true
	case fast < slow && obv < 0:
		return -1, true
	}
	return 0, true
}
