package collector

import (
	"context"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching historical bars.
type Fetcher interface {
	FetchKlines(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error)
	Name() string
}
