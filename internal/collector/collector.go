package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[model.SeriesKey][]model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchKlines(_ context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[model.SeriesKey{Symbol: symbol, Timeframe: tf}]; ok {
		return bars, nil
	}
	return GenerateMockBars(m.Price, tf, limit), nil
}

// GenerateMockBars builds count closed bars drifting slowly upward, ending
// at the current bar boundary.
func GenerateMockBars(basePrice float64, tf model.Timeframe, count int) []model.OHLCV {
	step := tf.Duration()
	if step == 0 {
		step = time.Minute
	}
	end := time.Now().Truncate(step)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
			Closed: true,
		}
	}
	return bars
}

// Collector seeds the bar history from a Fetcher before the live feed starts.
type Collector struct {
	Fetcher Fetcher
	History *History
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, history *History, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		History: history,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Backfill loads limit bars for every key. A failing key is logged and
// skipped; the error reports how many keys failed.
func (c *Collector) Backfill(ctx context.Context, keys []model.SeriesKey, limit int) error {
	failed := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bars, err := c.Fetcher.FetchKlines(ctx, key.Symbol, key.Timeframe, limit)
		if err != nil {
			failed++
			c.log.Warn().Err(err).Str("series", key.String()).Msg("backfill failed")
			continue
		}
		c.History.Seed(key, bars)
		c.log.Debug().Str("series", key.String()).Int("bars", len(bars)).Msg("backfilled")
	}
	if failed > 0 {
		return fmt.Errorf("backfill: %d of %d series failed", failed, len(keys))
	}
	c.log.Info().Int("series", len(keys)).Msg("history backfilled")
	return nil
}
