package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.PollInterval != 3*time.Second {
		t.Errorf("poll interval = %v, want 3s", cfg.Engine.PollInterval)
	}
	if cfg.Engine.RaiseThreshold != 0.85 || cfg.Engine.MinIndicators != 5 {
		t.Errorf("qualifier defaults = %v/%d", cfg.Engine.RaiseThreshold, cfg.Engine.MinIndicators)
	}
	if cfg.Confirmation.Mode != "majority" || cfg.Confirmation.Threshold != 0.7 {
		t.Errorf("confirmation defaults = %s/%v", cfg.Confirmation.Mode, cfg.Confirmation.Threshold)
	}
	if cfg.Outcome.IntradayHorizon != 4*time.Hour || cfg.Outcome.DailyHorizon != 24*time.Hour {
		t.Errorf("horizons = %v/%v", cfg.Outcome.IntradayHorizon, cfg.Outcome.DailyHorizon)
	}
	if len(cfg.Binance.Timeframes) != 7 {
		t.Errorf("timeframes = %v", cfg.Binance.Timeframes)
	}
	if got := cfg.Confirmation.Hierarchy["1m"]; len(got) != 2 || got[0] != "5m" {
		t.Errorf("hierarchy[1m] = %v", got)
	}
	if len(cfg.Learning.BaseWeights) != len(model.Catalog) {
		t.Errorf("base weights = %d entries, want %d", len(cfg.Learning.BaseWeights), len(model.Catalog))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
binance:
  symbols: [BTCUSDT]
  timeframes: [5m, 1h]
engine:
  dwell: 10s
confirmation:
  mode: legacy
  hierarchy:
    5m: [1h]
`)
	t.Setenv("SYMBOLS", "solusdt, xrpusdt")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Dwell != 10*time.Second {
		t.Errorf("dwell = %v", cfg.Engine.Dwell)
	}
	if cfg.Confirmation.Mode != "legacy" {
		t.Errorf("mode = %s", cfg.Confirmation.Mode)
	}
	if strings.Join(cfg.Binance.Symbols, ",") != "solusdt,xrpusdt" {
		t.Errorf("symbols = %v", cfg.Binance.Symbols)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %s", cfg.Log.Level)
	}
	if len(cfg.Confirmation.Hierarchy) != 1 {
		t.Errorf("file hierarchy should replace the default, got %v", cfg.Confirmation.Hierarchy)
	}

	keys := cfg.SeriesKeys()
	if len(keys) != 4 || keys[0] != (model.SeriesKey{Symbol: "SOLUSDT", Timeframe: "5m"}) {
		t.Errorf("series keys = %v", keys)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"bad mode", func(c *Config) { c.Confirmation.Mode = "any" }, "Mode"},
		{"threshold above one", func(c *Config) { c.Engine.RaiseThreshold = 1.2 }, "RaiseThreshold"},
		{"no symbols", func(c *Config) { c.Binance.Symbols = nil }, "Symbols"},
		{"weight bounds inverted", func(c *Config) { c.Learning.MinWeight = 0.2 }, "min_weight"},
		{"unknown timeframe", func(c *Config) { c.Binance.Timeframes = []string{"7x"} }, "unknown interval"},
		{"hierarchy not higher", func(c *Config) { c.Confirmation.Hierarchy["1h"] = []string{"5m"} }, "not above"},
		{"unknown indicator", func(c *Config) { c.Learning.BaseWeights["Ichimoku_X"] = 0.05 }, "unknown indicator"},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, "chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q does not mention %q", err, tt.errSub)
			}
		})
	}
}
