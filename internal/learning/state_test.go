package learning

import (
	"path/filepath"
	"testing"

	"SignalSentinel/internal/model"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learning.json")
	fs := NewFileStore(path)

	w, err := fs.LoadWeights()
	if err != nil {
		t.Fatalf("load from missing file: %v", err)
	}
	if len(w) != 0 {
		t.Errorf("expected empty weights, got %v", w)
	}

	if err := fs.SaveWeights(model.WeightTable{model.IndicatorRSI: 0.0606}); err != nil {
		t.Fatal(err)
	}
	if err := fs.SavePerformance(model.PerformanceTable{model.IndicatorRSI: {Success: 8, Total: 11}}); err != nil {
		t.Fatal(err)
	}

	w, err = fs.LoadWeights()
	if err != nil {
		t.Fatal(err)
	}
	if w[model.IndicatorRSI] != 0.0606 {
		t.Errorf("weight = %v, want 0.0606", w[model.IndicatorRSI])
	}
	p, err := fs.LoadPerformance()
	if err != nil {
		t.Fatal(err)
	}
	if p[model.IndicatorRSI].Success != 8 || p[model.IndicatorRSI].Total != 11 {
		t.Errorf("performance = %+v", p[model.IndicatorRSI])
	}

	state, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on save")
	}
}
