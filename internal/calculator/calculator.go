// Package calculator turns a bar window into the latest value of every
// indicator field the strategy layer votes on.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"SignalSentinel/internal/model"
)

// MinBars is the shortest window Compute accepts. The slowest series
// (EMA50 of OBV) needs 50 bars.
const MinBars = 51

// ErrInsufficientData is returned when the window is shorter than MinBars.
var ErrInsufficientData = errors.New("not enough bars for indicator calculation")

type series struct {
	open, high, low, close, volume []float64
}

func extract(bars []model.OHLCV) series {
	s := series{
		open:   make([]float64, len(bars)),
		high:   make([]float64, len(bars)),
		low:    make([]float64, len(bars)),
		close:  make([]float64, len(bars)),
		volume: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.open[i] = b.Open
		s.high[i] = b.High
		s.low[i] = b.Low
		s.close[i] = b.Close
		s.volume[i] = b.Volume
	}
	return s
}

// Compute calculates all indicator fields on bars (oldest first) and returns
// the values at the last bar. Fields whose inputs degenerate (zero volume,
// flat prices) are left out rather than reported as zero.
func Compute(bars []model.OHLCV) (model.IndicatorValues, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(bars), MinBars)
	}
	s := extract(bars)
	out := model.IndicatorValues{model.FieldClose: last(s.close)}

	computeTrend(s, out)
	computeOscillators(s, out)
	computeVolatility(s, out)
	computeVolume(s, out)
	computePatterns(bars, out)

	for k, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(out, k)
		}
	}
	return out, nil
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
