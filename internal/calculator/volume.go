package calculator

import (
	talib "github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

const vwapPeriod = 20

func computeVolume(s series, out model.IndicatorValues) {
	obv := talib.Obv(s.close, s.volume)
	out[model.FieldOBVTrend] = last(talib.Ema(obv, 20)) - last(talib.Ema(obv, 50))

	fast := last(talib.Ema(s.volume, 12))
	slow := last(talib.Ema(s.volume, 26))
	out[model.FieldVolumeOsc] = ratio(fast-slow, slow) * 100

	out[model.FieldVWAP] = rollingVWAP(s, vwapPeriod)
	out[model.FieldChaikinOsc] = last(talib.AdOsc(s.high, s.low, s.close, s.volume, 3, 10))
}

func rollingVWAP(s series, period int) float64 {
	n := len(s.close)
	if n < period {
		period = n
	}
	var pv, vol float64
	for i := n - period; i < n; i++ {
		typical := (s.high[i] + s.low[i] + s.close[i]) / 3
		pv += typical * s.volume[i]
		vol += s.volume[i]
	}
	return ratio(pv, vol)
}
