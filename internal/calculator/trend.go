package calculator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

const (
	supertrendPeriod     = 10
	supertrendMultiplier = 3.0
	hullPeriod           = 16
)

func computeTrend(s series, out model.IndicatorValues) {
	out[model.FieldEMAFast] = last(talib.Ema(s.close, 12))
	out[model.FieldEMASlow] = last(talib.Ema(s.close, 26))
	out[model.FieldSMA] = last(talib.Sma(s.close, 20))

	macd, signal, _ := talib.Macd(s.close, 12, 26, 9)
	out[model.FieldMACD] = last(macd)
	out[model.FieldMACDSignal] = last(signal)

	out[model.FieldADX] = last(talib.Adx(s.high, s.low, s.close, 14))
	out[model.FieldPlusDI] = last(talib.PlusDI(s.high, s.low, s.close, 14))
	out[model.FieldMinusDI] = last(talib.MinusDI(s.high, s.low, s.close, 14))

	out[model.FieldSupertrend] = supertrendDirection(s, supertrendPeriod, supertrendMultiplier)
	out[model.FieldSAR] = last(talib.Sar(s.high, s.low, 0.02, 0.2))
	out[model.FieldHullMA] = hullMA(s.close, hullPeriod)
}

// supertrendDirection returns +1 while price holds above the trailing lower
// band and -1 once it closes below it.
func supertrendDirection(s series, period int, mult float64) float64 {
	n := len(s.close)
	atr := talib.Atr(s.high, s.low, s.close, period)
	start := period
	if n <= start {
		return math.NaN()
	}

	var finalUpper, finalLower float64
	dir := 1.0
	for i := start; i < n; i++ {
		mid := (s.high[i] + s.low[i]) / 2
		upper := mid + mult*atr[i]
		lower := mid - mult*atr[i]
		if i == start {
			finalUpper, finalLower = upper, lower
			continue
		}
		prevUpper, prevLower := finalUpper, finalLower
		if upper < prevUpper || s.close[i-1] > prevUpper {
			finalUpper = upper
		}
		if lower > prevLower || s.close[i-1] < prevLower {
			finalLower = lower
		}
		switch {
		case dir < 0 && s.close[i] > prevUpper:
			dir = 1
		case dir > 0 && s.close[i] < prevLower:
			dir = -1
		}
	}
	return dir
}

// hullMA is WMA(2*WMA(n/2) - WMA(n), sqrt(n)).
func hullMA(closes []float64, period int) float64 {
	half := talib.Wma(closes, period/2)
	full := talib.Wma(closes, period)
	start := period - 1
	if len(closes) <= start {
		return math.NaN()
	}
	diff := make([]float64, 0, len(closes)-start)
	for i := start; i < len(closes); i++ {
		diff = append(diff, 2*half[i]-full[i])
	}
	sqrtN := int(math.Sqrt(float64(period)))
	if len(diff) < sqrtN {
		return math.NaN()
	}
	return last(talib.Wma(diff, sqrtN))
}
