package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"SignalSentinel/internal/model"
)

func testSignal() *model.Signal {
	return &model.Signal{
		ID:         "BTCUSDT-1h-1a2b3c4d",
		Symbol:     "BTCUSDT",
		Timeframe:  "1h",
		Direction:  model.DirectionSell,
		Strength:   0.9,
		Accuracy:   0.93,
		Indicators: []model.Indicator{model.IndicatorEMA, model.IndicatorMACD},
		CreatedAt:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Status:     model.StatusConfirmed,
	}
}

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(testSignal())
	for _, want := range []string{"[1a2b3c4d]", "BTCUSDT", "1h", "SELL", "90.00%", "93.0%", "EMA, MACD", "12:30:00 01.03.2024"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatPerformance(t *testing.T) {
	r := &model.PerformanceReport{
		Status: model.BotStatus{Profitable: 3, Unprofitable: 1, Accuracy: 0.75},
		Indicators: []model.IndicatorReport{
			{Indicator: model.IndicatorRSI, SuccessRate: 0.727, Success: 8, Total: 11, Weight: 0.0606},
		},
	}
	msg := FormatPerformance(r)
	if !strings.Contains(msg, "RSI: 72.7% (8/11) w=0.0606") {
		t.Errorf("unexpected report:\n%s", msg)
	}
	if !strings.Contains(msg, "Graded signals: 4") {
		t.Errorf("missing totals:\n%s", msg)
	}
}

func TestFormatWeights_Sorted(t *testing.T) {
	msg := FormatWeights(model.WeightTable{model.IndicatorRSI: 0.06, model.IndicatorMACD: 0.07})
	if strings.Index(msg, "MACD") > strings.Index(msg, "RSI") {
		t.Errorf("heaviest weight should come first:\n%s", msg)
	}
}

func TestTelegramSendWithRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	tn.APIURL = server.URL
	if err := tn.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
}

func TestTelegramPolling_FiltersChat(t *testing.T) {
	const updates = `{"ok":true,"result":[
		{"update_id":1,"message":{"text":"/status","chat":{"id":7}}},
		{"update_id":2,"message":{"text":" /status ","chat":{"id":42}}}
	]}`
	var mu sync.Mutex
	var replies []string
	served := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served {
				_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			served = true
			_, _ = w.Write([]byte(updates))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &p)
			replies = append(replies, p["text"])
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	tn.APIURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	var commands []string
	var cmdMu sync.Mutex
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string {
			cmdMu.Lock()
			commands = append(commands, cmd)
			cmdMu.Unlock()
			return "ok: " + cmd
		})
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(replies)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("timed out waiting for reply")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	cmdMu.Lock()
	defer cmdMu.Unlock()
	if len(commands) != 1 || commands[0] != "/status" {
		t.Errorf("commands = %v, want only the configured chat's", commands)
	}
	mu.Lock()
	defer mu.Unlock()
	if replies[0] != "ok: /status" {
		t.Errorf("reply = %q", replies[0])
	}
}

type fakeSink struct {
	mu     sync.Mutex
	name   string
	events []Event
	err    error
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Deliver(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func TestDispatcher_FanOut(t *testing.T) {
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("down")}
	d := NewDispatcher(8, zerolog.Nop(), bad, good)
	d.Start(context.Background())

	if !d.Deliver(KindSignal, testSignal()) {
		t.Fatal("deliver rejected")
	}
	d.Deliver(KindStatus, model.BotStatus{Running: true})
	d.Close()

	if len(good.events) != 2 {
		t.Fatalf("good sink got %d events, want 2", len(good.events))
	}
	if d.Delivered(KindSignal) != 1 || d.Delivered(KindStatus) != 1 || d.Delivered(KindReport) != 0 {
		t.Errorf("delivered counters = %d/%d/%d", d.Delivered(KindSignal), d.Delivered(KindStatus), d.Delivered(KindReport))
	}
	if d.Deliver(KindReport, "late") {
		t.Error("deliver after close should be rejected")
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	if !d.Deliver(KindStatus, "a") {
		t.Fatal("first event should fit")
	}
	if d.Deliver(KindStatus, "b") {
		t.Error("second event should be dropped without a worker")
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_Deliver(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w, "signals")
	if sink.Name() != "kafka:signals" {
		t.Errorf("name = %s", sink.Name())
	}

	e := Event{Kind: KindSignal, Time: time.Unix(1700000000, 0), Payload: testSignal()}
	if err := sink.Deliver(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("got %d messages", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "BTCUSDT-1h-1a2b3c4d" {
		t.Errorf("key = %s", w.msgs[0].Key)
	}
	var decoded struct {
		Kind    string `json:"kind"`
		Payload struct {
			ID        string `json:"id"`
			Direction string `json:"direction"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Kind != "signal" || decoded.Payload.ID != "BTCUSDT-1h-1a2b3c4d" || decoded.Payload.Direction != "SELL" {
		t.Errorf("decoded = %+v", decoded)
	}
}
