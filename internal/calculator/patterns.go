package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

func computePatterns(bars []model.OHLCV, out model.IndicatorValues) {
	cur := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	out[model.FieldBullEngulf] = flag(isBullishEngulfing(prev, cur))
	out[model.FieldBearEngulf] = flag(isBearishEngulfing(prev, cur))
	out[model.FieldHammer] = flag(isHammer(cur))
	out[model.FieldPinBarBull] = flag(isPinBar(cur, true))
	out[model.FieldPinBarBear] = flag(isPinBar(cur, false))

	haOpen, haClose := heikinAshi(bars)
	out[model.FieldHAOpen] = haOpen
	out[model.FieldHAClose] = haClose
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func body(b model.OHLCV) float64        { return math.Abs(b.Close - b.Open) }
func candleRange(b model.OHLCV) float64 { return b.High - b.Low }
func upperShadow(b model.OHLCV) float64 { return b.High - math.Max(b.Open, b.Close) }
func lowerShadow(b model.OHLCV) float64 { return math.Min(b.Open, b.Close) - b.Low }
func bullish(b model.OHLCV) bool        { return b.Close > b.Open }
func bearish(b model.OHLCV) bool        { return b.Close < b.Open }

func isBullishEngulfing(prev, cur model.OHLCV) bool {
	return bearish(prev) && bullish(cur) &&
		cur.Open <= prev.Close && cur.Close >= prev.Open &&
		body(cur) > body(prev)
}

func isBearishEngulfing(prev, cur model.OHLCV) bool {
	return bullish(prev) && bearish(cur) &&
		cur.Open >= prev.Close && cur.Close <= prev.Open &&
		body(cur) > body(prev)
}

// isHammer: small body in the upper part of the range with a lower shadow at
// least twice the body.
func isHammer(b model.OHLCV) bool {
	r := candleRange(b)
	if r <= 0 {
		return false
	}
	return body(b) <= 0.3*r &&
		lowerShadow(b) >= 2*math.Max(body(b), r*0.01) &&
		upperShadow(b) <= 0.1*r
}

// isPinBar: one wick covers at least two thirds of the range.
func isPinBar(b model.OHLCV, bull bool) bool {
	r := candleRange(b)
	if r <= 0 || body(b) > r/3 {
		return false
	}
	if bull {
		return lowerShadow(b) >= 2*r/3
	}
	return upperShadow(b) >= 2*r/3
}

func heikinAshi(bars []model.OHLCV) (float64, float64) {
	haOpen := (bars[0].Open + bars[0].Close) / 2
	haClose := (bars[0].Open + bars[0].High + bars[0].Low + bars[0].Close) / 4
	for _, b := range bars[1:] {
		haOpen = (haOpen + haClose) / 2
		haClose = (b.Open + b.High + b.Low + b.Close) / 4
	}
	return haOpen, haClose
}
