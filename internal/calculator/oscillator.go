package calculator

import (
	talib "github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

func computeOscillators(s series, out model.IndicatorValues) {
	out[model.FieldRSI] = last(talib.Rsi(s.close, 14))
	out[model.FieldCCI] = last(talib.Cci(s.high, s.low, s.close, 20))

	k, d := talib.Stoch(s.high, s.low, s.close, 14, 3, talib.SMA, 3, talib.SMA)
	out[model.FieldStochK] = last(k)
	out[model.FieldStochD] = last(d)

	out[model.FieldWilliams] = last(talib.WillR(s.high, s.low, s.close, 14))
}
