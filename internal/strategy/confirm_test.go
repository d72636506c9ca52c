package strategy

import (
	"testing"

	"SignalSentinel/internal/model"
)

func bullishSnapshot() model.IndicatorValues {
	return model.IndicatorValues{
		model.FieldEMAFast:    105,
		model.FieldEMASlow:    100,
		model.FieldMACD:       1.5,
		model.FieldMACDSignal: 1.0,
		model.FieldADX:        28,
		model.FieldOBVTrend:   1200,
		model.FieldBBMiddle:   101,
	}
}

func TestEvaluate_Conditions(t *testing.T) {
	v := bullishSnapshot()
	buy := Evaluate(model.DirectionBuy, v, 106)
	if !buy.Trend || !buy.Momentum || !buy.Strength || !buy.Volume || !buy.Band {
		t.Fatalf("expected all BUY conditions to hold, got %+v", buy)
	}
	sell := Evaluate(model.DirectionSell, v, 106)
	if sell.Trend || sell.Momentum || sell.Volume || sell.Band {
		t.Fatalf("expected directional SELL conditions to fail, got %+v", sell)
	}
	if !sell.Strength {
		t.Error("strength is direction-agnostic")
	}
}

func TestMode_Confirms(t *testing.T) {
	three := Conditions{Trend: true, Momentum: true, Strength: true}
	tests := []struct {
		mode Mode
		c    Conditions
		want bool
	}{
		{ModeMajority, three, true},
		{ModeMajority, Conditions{Trend: true, Volume: true}, false},
		{ModeAll, three, false},
		{ModeAll, Conditions{Trend: true, Momentum: true, Strength: true, Volume: true}, true},
		{ModeLegacy, Conditions{Band: true, Strength: true, Volume: true}, true},
		{ModeLegacy, three, false},
	}
	for _, tt := range tests {
		if got := tt.mode.Confirms(tt.c); got != tt.want {
			t.Errorf("%s.Confirms(%+v) = %v, want %v", tt.mode, tt.c, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeMajority {
		t.Errorf("empty mode = %q, %v", m, err)
	}
	if _, err := ParseMode("any"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestConfirmer_Decide(t *testing.T) {
	c := Confirmer{Mode: ModeMajority, Threshold: 0.7}
	tests := []struct {
		name      string
		checks    []Check
		wantRatio float64
		want      bool
	}{
		{"no higher timeframes", nil, 1, true},
		{"unavailable excluded", []Check{
			{Timeframe: "5m", Available: true, Agrees: true},
			{Timeframe: "15m", Available: false},
		}, 1, true},
		{"half agree", []Check{
			{Timeframe: "5m", Available: true, Agrees: true},
			{Timeframe: "15m", Available: true, Agrees: false},
		}, 0.5, false},
		{"none available", []Check{{Timeframe: "4h"}, {Timeframe: "1d"}}, 1, true},
	}
	for _, tt := range tests {
		ratio, ok := c.Decide(tt.checks)
		if ratio != tt.wantRatio || ok != tt.want {
			t.Errorf("%s: Decide = (%v, %v), want (%v, %v)", tt.name, ratio, ok, tt.wantRatio, tt.want)
		}
	}
}
