package model

import (
	"strconv"
	"strings"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time // bar open time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Closed bool // false while the bar is still forming
}

// Timeframe is an exchange kline interval such as "1m", "4h" or "1d".
type Timeframe string

// Duration returns the wall-clock span of one bar, or 0 for an unknown interval.
func (tf Timeframe) Duration() time.Duration {
	s := string(tf)
	if len(s) < 2 {
		return 0
	}
	if s[0] < '0' || s[0] > '9' {
		return 0
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0
	}
	switch s[len(s)-1] {
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour
	}
	return 0
}

// Daily reports whether one bar spans at least a day.
func (tf Timeframe) Daily() bool {
	return tf.Duration() >= 24*time.Hour
}

// SeriesKey identifies one (instrument, timeframe) bar series.
type SeriesKey struct {
	Symbol    string
	Timeframe Timeframe
}

func (k SeriesKey) String() string {
	return strings.ToUpper(k.Symbol) + "/" + string(k.Timeframe)
}
