package model

import "math"

// Indicator names one entry of the fixed indicator catalog.
type Indicator string

const (
	IndicatorEMA          Indicator = "EMA"
	IndicatorSMA          Indicator = "SMA"
	IndicatorMACD         Indicator = "MACD"
	IndicatorSupertrend   Indicator = "Supertrend"
	IndicatorADX          Indicator = "ADX"
	IndicatorRSI          Indicator = "RSI"
	IndicatorStochastic   Indicator = "Stochastic"
	IndicatorWilliamsR    Indicator = "Williams_R"
	IndicatorCCI          Indicator = "CCI"
	IndicatorBollinger    Indicator = "Bollinger_Bands"
	IndicatorKeltner      Indicator = "Keltner_Channel"
	IndicatorVolumeOsc    Indicator = "Volume_Oscillator"
	IndicatorOBV          Indicator = "OBV"
	IndicatorEngulfing    Indicator = "Engulfing"
	IndicatorHammer       Indicator = "Hammer"
	IndicatorPinBar       Indicator = "Pin_Bar"
	IndicatorParabolicSAR Indicator = "Parabolic_SAR"
	IndicatorDonchian     Indicator = "Donchian_Channel"
	IndicatorHeikinAshi   Indicator = "Heikin_Ashi"
	IndicatorVWAP         Indicator = "VWAP"
	IndicatorZScore       Indicator = "Z_Score"
	IndicatorHullMA       Indicator = "Hull_MA"
	IndicatorChaikinMF    Indicator = "Chaikin_MF"
	IndicatorTrendVolume  Indicator = "Combined_Trend_Volume"
)

// Catalog lists every indicator that can vote, in reporting order.
var Catalog = []Indicator{
	IndicatorEMA, IndicatorSMA, IndicatorMACD, IndicatorSupertrend, IndicatorADX,
	IndicatorRSI, IndicatorStochastic, IndicatorWilliamsR, IndicatorCCI,
	IndicatorBollinger, IndicatorKeltner, IndicatorVolumeOsc, IndicatorOBV,
	IndicatorEngulfing, IndicatorHammer, IndicatorPinBar, IndicatorParabolicSAR,
	IndicatorDonchian, IndicatorHeikinAshi, IndicatorVWAP, IndicatorZScore,
	IndicatorHullMA, IndicatorChaikinMF, IndicatorTrendVolume,
}

// BaseWeights is the built-in starting weight of every catalog indicator.
var BaseWeights = map[Indicator]float64{
	IndicatorEMA:          0.05,
	IndicatorSMA:          0.05,
	IndicatorMACD:         0.07,
	IndicatorSupertrend:   0.05,
	IndicatorADX:          0.05,
	IndicatorRSI:          0.06,
	IndicatorStochastic:   0.05,
	IndicatorWilliamsR:    0.04,
	IndicatorCCI:          0.04,
	IndicatorBollinger:    0.06,
	IndicatorKeltner:      0.05,
	IndicatorVolumeOsc:    0.05,
	IndicatorOBV:          0.05,
	IndicatorEngulfing:    0.06,
	IndicatorHammer:       0.06,
	IndicatorPinBar:       0.06,
	IndicatorParabolicSAR: 0.04,
	IndicatorDonchian:     0.04,
	IndicatorHeikinAshi:   0.05,
	IndicatorVWAP:         0.05,
	IndicatorZScore:       0.04,
	IndicatorHullMA:       0.05,
	IndicatorChaikinMF:    0.04,
	IndicatorTrendVolume:  0.07,
}

// Known reports whether name is part of the catalog.
func Known(name Indicator) bool {
	_, ok := BaseWeights[name]
	return ok
}

// Field names of the values produced by the indicator library.
const (
	FieldClose      = "close"
	FieldEMAFast    = "EMA_12"
	FieldEMASlow    = "EMA_26"
	FieldSMA        = "SMA_20"
	FieldMACD       = "MACD"
	FieldMACDSignal = "MACD_signal"
	FieldADX        = "ADX"
	FieldPlusDI     = "PLUS_DI"
	FieldMinusDI    = "MINUS_DI"
	FieldSupertrend = "Supertrend_dir"
	FieldRSI        = "RSI"
	FieldCCI        = "CCI"
	FieldStochK     = "Stoch_k"
	FieldStochD     = "Stoch_d"
	FieldWilliams   = "Williams"
	FieldATR        = "ATR"
	FieldBBUpper    = "BB_upper"
	FieldBBMiddle   = "BB_middle"
	FieldBBLower    = "BB_lower"
	FieldKCUpper    = "KC_upper"
	FieldKCLower    = "KC_lower"
	FieldOBVTrend   = "OBV_trend"
	FieldVolumeOsc  = "Volume_Osc"
	FieldBullEngulf = "Bullish_Engulfing"
	FieldBearEngulf = "Bearish_Engulfing"
	FieldHammer     = "Hammer"
	FieldPinBarBull = "Pin_Bar_bull"
	FieldPinBarBear = "Pin_Bar_bear"
	FieldSAR        = "SAR"
	FieldDonchianHi = "DC_upper"
	FieldDonchianLo = "DC_lower"
	FieldHAOpen     = "HA_open"
	FieldHAClose    = "HA_close"
	FieldVWAP       = "VWAP"
	FieldZScore     = "Z_Score"
	FieldHullMA     = "HMA"
	FieldChaikinOsc = "ADOSC"
)

// IndicatorValues holds the latest computed value of every indicator field.
// Boolean detectors are encoded as 1 (present) or 0 (absent).
type IndicatorValues map[string]float64

// Get returns the value for field, treating absent keys and NaN as missing.
func (v IndicatorValues) Get(field string) (float64, bool) {
	x, ok := v[field]
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// Flag returns a boolean detector field.
func (v IndicatorValues) Flag(field string) (bool, bool) {
	x, ok := v.Get(field)
	return x != 0, ok
}

// Vote maps an indicator to -1 (bearish), 0 (neutral) or +1 (bullish).
type Vote map[Indicator]float64
