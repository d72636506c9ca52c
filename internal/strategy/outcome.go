package strategy

import (
	"math"

	"github.com/shopspring/decimal"

	"SignalSentinel/internal/model"
)

// ProfitThreshold is the fractional move a signal must exceed to count as profitable.
var ProfitThreshold = decimal.RequireFromString("0.01")

var one = decimal.NewFromInt(1)

func toDecimal(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// PriceChange returns (exit-entry)/entry.
func PriceChange(entry, exit float64) float64 {
	e, ok1 := toDecimal(entry)
	x, ok2 := toDecimal(exit)
	if !ok1 || !ok2 || e.IsZero() {
		return 0
	}
	return x.Sub(e).Div(e).InexactFloat64()
}

// IsProfitable grades a signal from its entry and exit prices. Prices are
// compared as decimals against entry*(1±threshold) and the bound is strict: a
// move of exactly one percent is not profitable.
func IsProfitable(dir model.Direction, entry, exit float64) bool {
	e, ok1 := toDecimal(entry)
	x, ok2 := toDecimal(exit)
	if !ok1 || !ok2 || !e.IsPositive() {
		return false
	}
	switch dir {
	case model.DirectionBuy:
		return x.GreaterThan(e.Mul(one.Add(ProfitThreshold)))
	case model.DirectionSell:
		return x.LessThan(e.Mul(one.Sub(ProfitThreshold)))
	}
	return false
}
