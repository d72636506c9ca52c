package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"SignalSentinel/internal/model"
)

const defaultRESTBaseURL = "https://api.binance.com"

// BinanceREST implements Fetcher using the Binance public klines endpoint.
type BinanceREST struct {
	Client  *http.Client
	BaseURL string
	now     func() time.Time
}

// NewBinanceREST creates a new Binance klines fetcher.
func NewBinanceREST(baseURL, proxyURL string) *BinanceREST {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = defaultRESTBaseURL
	}
	return &BinanceREST{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

func (f *BinanceREST) Name() string { return "binance-rest" }

// FetchKlines returns up to limit bars, oldest first. The last bar is marked
// forming when its close time is still in the future.
func (f *BinanceREST) FetchKlines(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))
	u := f.BaseURL + "/api/v3/klines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance klines fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance klines read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance klines: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("binance klines decode: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, tf, ErrNoData)
	}

	now := f.now()
	bars := make([]model.OHLCV, 0, len(rows))
	for _, row := range rows {
		bar, closeTime, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("binance klines row: %w", err)
		}
		bar.Closed = !closeTime.After(now)
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// parseKlineRow decodes [openTime, open, high, low, close, volume, closeTime, ...].
func parseKlineRow(row []json.RawMessage) (model.OHLCV, time.Time, error) {
	if len(row) < 7 {
		return model.OHLCV{}, time.Time{}, fmt.Errorf("short row: %d fields", len(row))
	}
	var openMs, closeMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return model.OHLCV{}, time.Time{}, err
	}
	if err := json.Unmarshal(row[6], &closeMs); err != nil {
		return model.OHLCV{}, time.Time{}, err
	}
	var vals [5]float64
	for i := range vals {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return model.OHLCV{}, time.Time{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, time.Time{}, err
		}
		vals[i] = v
	}
	return model.OHLCV{
		Time:   time.UnixMilli(openMs),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, time.UnixMilli(closeMs), nil
}
