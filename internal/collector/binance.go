package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

const defaultStreamURL = "wss://stream.binance.com:9443/stream"

// BarSink receives decoded bar updates.
type BarSink interface {
	OnBarUpdate(symbol string, tf model.Timeframe, bar model.OHLCV) bool
}

type klineEnvelope struct {
	Stream string     `json:"stream"`
	Data   klineEvent `json:"data"`
}

type klineEvent struct {
	Symbol string `json:"s"`
	Kline  struct {
		Start    int64  `json:"t"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Final    bool   `json:"x"`
	} `json:"k"`
}

// Feed streams klines for every (symbol, timeframe) pair over one combined
// Binance websocket and forwards them to a BarSink.
type Feed struct {
	URL        string
	Symbols    []string
	Timeframes []model.Timeframe
	sink       BarSink
	log        zerolog.Logger
	connected  atomic.Int32
}

// NewFeed constructs a kline feed. An empty url selects the public endpoint.
func NewFeed(url string, symbols []string, timeframes []model.Timeframe, sink BarSink, log zerolog.Logger) *Feed {
	if url == "" {
		url = defaultStreamURL
	}
	return &Feed{
		URL:        url,
		Symbols:    symbols,
		Timeframes: timeframes,
		sink:       sink,
		log:        log.With().Str("component", "feed").Logger(),
	}
}

// Connections returns the number of live websocket connections.
func (f *Feed) Connections() int {
	return int(f.connected.Load())
}

func (f *Feed) streamURL() string {
	streams := make([]string, 0, len(f.Symbols)*len(f.Timeframes))
	for _, sym := range f.Symbols {
		for _, tf := range f.Timeframes {
			streams = append(streams, strings.ToLower(sym)+"@kline_"+string(tf))
		}
	}
	return fmt.Sprintf("%s?streams=%s", f.URL, strings.Join(streams, "/"))
}

// Run consumes the stream, reconnecting with backoff, until ctx is canceled.
func (f *Feed) Run(ctx context.Context) error {
	if len(f.Symbols) == 0 || len(f.Timeframes) == 0 {
		return fmt.Errorf("kline feed requires at least one symbol and timeframe")
	}

	url := f.streamURL()
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := f.consume(ctx, url)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("kline feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

func (f *Feed) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.connected.Add(1)
	defer f.connected.Add(-1)
	f.log.Info().Strs("symbols", f.Symbols).Int("streams", len(f.Symbols)*len(f.Timeframes)).Msg("connected kline feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("kline ping failed")
					return
				}
			case <-pingCtx.Done():
				conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		symbol, tf, bar, err := decodeKline(message)
		if err != nil {
			f.log.Warn().Err(err).Msg("failed to decode kline message")
			continue
		}
		if f.sink.OnBarUpdate(symbol, tf, bar) {
			f.log.Debug().Str("symbol", symbol).Str("timeframe", string(tf)).Msg("bar closed")
		}
	}
}

func decodeKline(message []byte) (string, model.Timeframe, model.OHLCV, error) {
	var env klineEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return "", "", model.OHLCV{}, err
	}
	k := env.Data.Kline
	if env.Data.Symbol == "" || k.Interval == "" {
		return "", "", model.OHLCV{}, fmt.Errorf("not a kline event: %s", env.Stream)
	}

	var vals [5]float64
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", "", model.OHLCV{}, fmt.Errorf("invalid kline field %q: %w", s, err)
		}
		vals[i] = v
	}
	bar := model.OHLCV{
		Time:   time.UnixMilli(k.Start),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
		Closed: k.Final,
	}
	return strings.ToUpper(env.Data.Symbol), model.Timeframe(k.Interval), bar, nil
}
