package calculator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

const channelPeriod = 20

func computeVolatility(s series, out model.IndicatorValues) {
	out[model.FieldATR] = last(talib.Atr(s.high, s.low, s.close, 14))

	upper, middle, lower := talib.BBands(s.close, channelPeriod, 2, 2, talib.SMA)
	out[model.FieldBBUpper] = last(upper)
	out[model.FieldBBMiddle] = last(middle)
	out[model.FieldBBLower] = last(lower)

	mid := last(talib.Ema(s.close, channelPeriod))
	atr := last(talib.Atr(s.high, s.low, s.close, channelPeriod))
	out[model.FieldKCUpper] = mid + 2*atr
	out[model.FieldKCLower] = mid - 2*atr

	hi, lo := donchian(s, channelPeriod)
	out[model.FieldDonchianHi] = hi
	out[model.FieldDonchianLo] = lo

	std := last(talib.StdDev(s.close, channelPeriod, 1))
	sma := last(talib.Sma(s.close, channelPeriod))
	out[model.FieldZScore] = ratio(last(s.close)-sma, std)
}

// donchian returns the highest high and lowest low of the period bars before
// the last one, so a close outside the channel marks a breakout.
func donchian(s series, period int) (float64, float64) {
	n := len(s.high) - 1
	if n < period {
		return math.NaN(), math.NaN()
	}
	hi := math.Inf(-1)
	lo := math.Inf(1)
	for i := n - period; i < n; i++ {
		hi = math.Max(hi, s.high[i])
		lo = math.Min(lo, s.low[i])
	}
	return hi, lo
}
