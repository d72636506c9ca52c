package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "signals.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testSignal(id string, status model.SignalStatus) *model.Signal {
	return &model.Signal{
		ID:         id,
		Symbol:     "BTCUSDT",
		Timeframe:  "1h",
		Direction:  model.DirectionBuy,
		Strength:   0.92,
		Accuracy:   0.93,
		Indicators: []model.Indicator{model.IndicatorEMA, model.IndicatorRSI},
		CreatedAt:  time.Unix(1700000000, 0),
		Status:     status,
		Outcome:    model.OutcomeUnknown,
	}
}

func TestSQLite_SignalLifecycle(t *testing.T) {
	r := openTestDB(t)

	if err := r.StoreSignal(testSignal("BTCUSDT-1h-abc", model.StatusPending)); err != nil {
		t.Fatalf("store pending: %v", err)
	}
	if err := r.StoreSignal(testSignal("BTCUSDT-1h-abc", model.StatusConfirmed)); err != nil {
		t.Fatalf("store confirmed: %v", err)
	}

	sigs, err := r.RecentSignals(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1 (upsert)", len(sigs))
	}
	s := sigs[0]
	if s.Status != model.StatusConfirmed || s.Outcome != model.OutcomeUnknown {
		t.Errorf("status/outcome = %s/%s", s.Status, s.Outcome)
	}
	if len(s.Indicators) != 2 || s.Indicators[1] != model.IndicatorRSI {
		t.Errorf("indicators = %v", s.Indicators)
	}

	if err := r.UpdateOutcome("BTCUSDT-1h-abc", true); err != nil {
		t.Fatalf("update outcome: %v", err)
	}
	if err := r.UpdateOutcome("BTCUSDT-1h-abc", false); !errors.Is(err, ErrOutcomeResolved) {
		t.Errorf("second update: err = %v, want ErrOutcomeResolved", err)
	}
	if err := r.UpdateOutcome("missing", true); !errors.Is(err, ErrOutcomeResolved) {
		t.Errorf("missing id: err = %v, want ErrOutcomeResolved", err)
	}

	// a later status write must not reset the outcome
	if err := r.StoreSignal(testSignal("BTCUSDT-1h-abc", model.StatusConfirmed)); err != nil {
		t.Fatal(err)
	}
	sigs, _ = r.RecentSignals(10)
	if sigs[0].Outcome != model.OutcomeProfitable {
		t.Errorf("outcome = %s, want profitable", sigs[0].Outcome)
	}
}

func TestSQLite_WeightsAndPerformance(t *testing.T) {
	r := openTestDB(t)

	w, err := r.LoadWeights()
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 0 {
		t.Errorf("fresh db weights = %v", w)
	}

	if err := r.SaveWeights(model.WeightTable{model.IndicatorRSI: 0.0606, model.IndicatorEMA: 0.05}); err != nil {
		t.Fatal(err)
	}
	if err := r.SaveWeights(model.WeightTable{model.IndicatorRSI: 0.07}); err != nil {
		t.Fatal(err)
	}
	w, err = r.LoadWeights()
	if err != nil {
		t.Fatal(err)
	}
	if w[model.IndicatorRSI] != 0.07 || w[model.IndicatorEMA] != 0.05 {
		t.Errorf("weights = %v", w)
	}

	if err := r.SavePerformance(model.PerformanceTable{model.IndicatorRSI: {Success: 8, Total: 11}}); err != nil {
		t.Fatal(err)
	}
	p, err := r.LoadPerformance()
	if err != nil {
		t.Fatal(err)
	}
	if p[model.IndicatorRSI] != (model.PerformanceRecord{Success: 8, Total: 11}) {
		t.Errorf("performance = %+v", p[model.IndicatorRSI])
	}
}

func TestAsync_WritesThroughWorker(t *testing.T) {
	inner := openTestDB(t)
	a := NewAsync(inner, 4, zerolog.Nop())

	sig := testSignal("ETH-1m-1", model.StatusPending)
	if err := a.StoreSignal(sig); err != nil {
		t.Fatal(err)
	}
	sig.Status = model.StatusDiscarded // caller mutation after enqueue must not leak
	if err := a.UpdateOutcome("ETH-1m-1", false); err != nil {
		t.Fatal(err)
	}
	a.Flush()

	sigs, err := a.RecentSignals(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 1 || sigs[0].Status != model.StatusPending || sigs[0].Outcome != model.OutcomeUnprofitable {
		t.Errorf("signals = %+v", sigs)
	}
}

func TestAsync_AfterClose(t *testing.T) {
	a := NewAsync(NewNoopRecorder(), 4, zerolog.Nop())
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	a.Flush()
	if err := a.StoreSignal(testSignal("BTC-1m-1", model.StatusPending)); !errors.Is(err, ErrClosed) {
		t.Errorf("StoreSignal after Close = %v, want ErrClosed", err)
	}
	if err := a.UpdateOutcome("BTC-1m-1", true); !errors.Is(err, ErrClosed) {
		t.Errorf("UpdateOutcome after Close = %v, want ErrClosed", err)
	}
}
