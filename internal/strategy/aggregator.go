package strategy

import (
	"sort"

	"SignalSentinel/internal/model"
)

// Composite is the weighted combination of one evaluation's votes.
type Composite struct {
	Strength   float64 // [-1, 1]
	Indicators []model.Indicator
}

// Direction returns BUY for positive strength and SELL otherwise.
func (c Composite) Direction() model.Direction {
	if c.Strength > 0 {
		return model.DirectionBuy
	}
	return model.DirectionSell
}

// Aggregate computes Σ(vote·w)/Σ(w) over indicators with a nonzero vote.
// A zero denominator yields strength 0 and no contributing indicators.
func Aggregate(votes model.Vote, weights model.WeightTable) Composite {
	var num, den float64
	active := make([]model.Indicator, 0, len(votes))
	for ind, vote := range votes {
		if vote == 0 {
			continue
		}
		w := weightOf(weights, ind)
		num += vote * w
		den += w
		active = append(active, ind)
	}
	if den <= 0 {
		return Composite{}
	}

	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	strength := num / den
	if strength > 1 {
		strength = 1
	} else if strength < -1 {
		strength = -1
	}
	return Composite{Strength: strength, Indicators: active}
}

func weightOf(weights model.WeightTable, ind model.Indicator) float64 {
	if w, ok := weights[ind]; ok {
		return w
	}
	return model.BaseWeights[ind]
}

// Qualifier applies the raise threshold and minimum indicator count.
type Qualifier struct {
	Threshold     float64
	MinIndicators int
}

// Qualifies reports whether c is strong and broad enough to raise a signal.
func (q Qualifier) Qualifies(c Composite) bool {
	if len(c.Indicators) == 0 {
		return false
	}
	s := c.Strength
	if s < 0 {
		s = -s
	}
	return s >= q.Threshold && len(c.Indicators) >= q.MinIndicators
}
