package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBinanceREST_FetchKlines(t *testing.T) {
	const body = `[
		[1704067200000,"100.0","101.0","99.0","100.5","12.5",1704067259999,"0",1,"0","0","0"],
		[1704067260000,"100.5","102.0","100.0","101.5","8.0",1704067319999,"0",1,"0","0","0"]
	]`
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	f := NewBinanceREST(server.URL, "")
	f.now = func() time.Time { return time.UnixMilli(1704067300000) }

	bars, err := f.FetchKlines(context.Background(), "btcusdt", "1m", 2)
	if err != nil {
		t.Fatalf("FetchKlines: %v", err)
	}
	if gotQuery != "interval=1m&limit=2&symbol=BTCUSDT" {
		t.Errorf("query = %s", gotQuery)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 100.5 || bars[0].Volume != 12.5 || !bars[0].Closed {
		t.Errorf("first bar = %+v", bars[0])
	}
	if bars[1].Closed {
		t.Error("bar whose close time is in the future should be forming")
	}
}

func TestBinanceREST_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"code":-1003}`},
		{"bad json", http.StatusOK, `{`},
		{"empty", http.StatusOK, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewBinanceREST(server.URL, "").FetchKlines(context.Background(), "BTCUSDT", "1m", 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.name == "empty" && !errors.Is(err, ErrNoData) {
				t.Errorf("err = %v, want ErrNoData", err)
			}
		})
	}
}
