package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/bot"
	"SignalSentinel/internal/model"
)

type fakeBot struct {
	running bool
}

func (f *fakeBot) Start(context.Context) error {
	if f.running {
		return bot.ErrAlreadyRunning
	}
	f.running = true
	return nil
}

func (f *fakeBot) Stop() error {
	if !f.running {
		return bot.ErrNotRunning
	}
	f.running = false
	return nil
}

func (f *fakeBot) Status() model.BotStatus { return model.BotStatus{Running: f.running, Accuracy: 0.93} }

func (f *fakeBot) Report() *model.PerformanceReport {
	return &model.PerformanceReport{Status: f.Status()}
}

func (f *fakeBot) Weights() model.WeightTable {
	return model.WeightTable{model.IndicatorRSI: 0.06}
}

type fakeLister struct {
	limit int
}

func (f *fakeLister) RecentSignals(limit int) ([]model.Signal, error) {
	f.limit = limit
	return []model.Signal{{ID: "BTCUSDT-1h-abcd1234", Symbol: "BTCUSDT", Status: model.StatusConfirmed}}, nil
}

func newTestEcho(b *fakeBot, l SignalLister) *echo.Echo {
	e := echo.New()
	NewHandler(b, l, zerolog.Nop()).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, Response) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestLifecycleEndpoints(t *testing.T) {
	e := newTestEcho(&fakeBot{}, nil)

	tests := []struct {
		method string
		target string
		code   int
	}{
		{http.MethodPost, "/start", http.StatusOK},
		{http.MethodPost, "/start", http.StatusConflict},
		{http.MethodGet, "/status", http.StatusOK},
		{http.MethodPost, "/stop", http.StatusOK},
		{http.MethodPost, "/stop", http.StatusConflict},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/performance", http.StatusOK},
		{http.MethodGet, "/weights", http.StatusOK},
	}
	for _, tt := range tests {
		rec, resp := do(e, tt.method, tt.target)
		if rec.Code != tt.code {
			t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.target, rec.Code, tt.code, rec.Body.String())
		}
		if resp.Status != tt.code {
			t.Errorf("%s %s envelope status = %d", tt.method, tt.target, resp.Status)
		}
	}
}

func TestStatusBody(t *testing.T) {
	e := newTestEcho(&fakeBot{running: true}, nil)
	rec, _ := do(e, http.MethodGet, "/status")
	if !strings.Contains(rec.Body.String(), `"running":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSignalsEndpoint(t *testing.T) {
	l := &fakeLister{}
	e := newTestEcho(&fakeBot{}, l)

	rec, _ := do(e, http.MethodGet, "/signals")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	if l.limit != 50 {
		t.Errorf("default limit = %d, want 50", l.limit)
	}
	if !strings.Contains(rec.Body.String(), "BTCUSDT-1h-abcd1234") {
		t.Errorf("body = %s", rec.Body.String())
	}

	if rec, _ := do(e, http.MethodGet, "/signals?limit=5"); rec.Code != http.StatusOK || l.limit != 5 {
		t.Errorf("limit=5: code %d, limit %d", rec.Code, l.limit)
	}
	if rec, _ := do(e, http.MethodGet, "/signals?limit=1000"); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=1000: code %d, want 400", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEcho(&fakeBot{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sentinel_pending_signals") {
		t.Errorf("metrics body missing collectors")
	}
}
