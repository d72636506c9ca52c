package collector

import (
	"errors"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, close float64, closed bool) model.OHLCV {
	return model.OHLCV{
		Time:   t0.Add(time.Duration(i) * time.Minute),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 10,
		Closed: closed,
	}
}

func TestHistory_FormingBarOverwritten(t *testing.T) {
	h := NewHistory(10)
	key := model.SeriesKey{Symbol: "BTCUSDT", Timeframe: "1m"}

	if h.OnBarUpdate("BTCUSDT", "1m", bar(0, 100, false)) {
		t.Fatal("forming bar must not report a close")
	}
	h.OnBarUpdate("BTCUSDT", "1m", bar(0, 101, false))
	if n := h.Len(key); n != 1 {
		t.Fatalf("len = %d, want 1", n)
	}
	if p, _ := h.LatestClose(key, 0); p != 101 {
		t.Errorf("latest close = %v, want 101", p)
	}
	if w := h.ClosedWindow(key, 5); len(w) != 0 {
		t.Errorf("forming bar leaked into closed window: %v", w)
	}

	if !h.OnBarUpdate("BTCUSDT", "1m", bar(0, 102, true)) {
		t.Fatal("final update must report a close")
	}
	if seq := h.ClosedSeq(key); seq != 1 {
		t.Errorf("closed seq = %d, want 1", seq)
	}
	// closed bars are immutable
	h.OnBarUpdate("BTCUSDT", "1m", bar(0, 999, true))
	if w := h.ClosedWindow(key, 5); len(w) != 1 || w[0].Close != 102 {
		t.Errorf("closed bar modified: %v", w)
	}
}

func TestHistory_NewBarClosesPrevious(t *testing.T) {
	h := NewHistory(10)
	key := model.SeriesKey{Symbol: "ETHUSDT", Timeframe: "1m"}
	h.OnBarUpdate(key.Symbol, key.Timeframe, bar(0, 100, false))
	if !h.OnBarUpdate(key.Symbol, key.Timeframe, bar(1, 101, false)) {
		t.Fatal("a newer bar should close the forming one")
	}
	w := h.ClosedWindow(key, 5)
	if len(w) != 1 || w[0].Close != 100 {
		t.Fatalf("closed window = %v", w)
	}
	// stale update for an older bar is ignored
	h.OnBarUpdate(key.Symbol, key.Timeframe, bar(0, 50, true))
	if h.Len(key) != 2 {
		t.Errorf("len = %d, want 2", h.Len(key))
	}
}

func TestHistory_Capacity(t *testing.T) {
	h := NewHistory(5)
	key := model.SeriesKey{Symbol: "BTCUSDT", Timeframe: "1m"}
	for i := 0; i < 12; i++ {
		h.OnBarUpdate(key.Symbol, key.Timeframe, bar(i, float64(100+i), true))
	}
	if n := h.Len(key); n != 5 {
		t.Fatalf("len = %d, want 5", n)
	}
	w := h.ClosedWindow(key, 100)
	if w[0].Close != 107 || w[4].Close != 111 {
		t.Errorf("window = %v .. %v, want oldest evicted", w[0].Close, w[4].Close)
	}
	if seq := h.ClosedSeq(key); seq != 12 {
		t.Errorf("closed seq = %d, want 12", seq)
	}
	if n := h.Received(); n != 12 {
		t.Errorf("received = %d, want 12", n)
	}
}

func TestHistory_Seed(t *testing.T) {
	h := NewHistory(500)
	key := model.SeriesKey{Symbol: "BTCUSDT", Timeframe: "1h"}
	bars := []model.OHLCV{bar(2, 102, false), bar(0, 100, false), bar(1, 101, false)}
	h.Seed(key, bars)

	w := h.ClosedWindow(key, 10)
	if len(w) != 2 || w[0].Close != 100 || w[1].Close != 101 {
		t.Fatalf("closed window = %v", w)
	}
	if p, err := h.LatestClose(key, 0); err != nil || p != 102 {
		t.Errorf("latest = %v, %v", p, err)
	}
	if keys := h.Keys(); len(keys) != 1 || keys[0] != key {
		t.Errorf("keys = %v", keys)
	}
}

func TestHistory_LatestCloseStale(t *testing.T) {
	h := NewHistory(10)
	now := t0
	h.now = func() time.Time { return now }
	key := model.SeriesKey{Symbol: "BTCUSDT", Timeframe: "1m"}

	if _, err := h.LatestClose(key, time.Minute); !errors.Is(err, ErrNoData) {
		t.Fatalf("unknown key: err = %v, want ErrNoData", err)
	}
	h.OnBarUpdate(key.Symbol, key.Timeframe, bar(0, 100, false))
	if _, err := h.LatestClose(key, 15*time.Minute); err != nil {
		t.Fatalf("fresh series: %v", err)
	}
	now = now.Add(20 * time.Minute)
	if _, err := h.LatestClose(key, 15*time.Minute); !errors.Is(err, ErrNoData) {
		t.Errorf("stale series: err = %v, want ErrNoData", err)
	}
}
