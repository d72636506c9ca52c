package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"log"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		MaxRetries int    `yaml:"max_retries" default:"3" validate:"min=0,max=10"`
		Polling    bool   `yaml:"polling" default:"true"`
	} `yaml:"telegram"`
	Binance struct {
		Symbols       []string `yaml:"symbols" default:"[\"BTCUSDT\",\"ETHUSDT\"]" validate:"min=1,dive,required"`
		Timeframes    []string `yaml:"timeframes" default:"[\"1m\",\"5m\",\"15m\",\"30m\",\"1h\",\"4h\",\"1d\"]" validate:"min=1,dive,required"`
		StreamURL     string   `yaml:"stream_url" default:"wss://stream.binance.com:9443/stream" validate:"required"`
		RESTURL       string   `yaml:"rest_url" default:"https://api.binance.com" validate:"required"`
		BackfillLimit int      `yaml:"backfill_limit" default:"500" validate:"min=0,max=1000"`
	} `yaml:"binance"`
	Engine struct {
		PollInterval     time.Duration `yaml:"poll_interval" default:"3s" validate:"gt=0"`
		Window           int           `yaml:"window" default:"200" validate:"min=51"`
		ConfirmWindow    int           `yaml:"confirm_window" default:"100" validate:"min=51"`
		MinBars          int           `yaml:"min_bars" default:"51" validate:"min=51"`
		HistoryCapacity  int           `yaml:"history_capacity" default:"500" validate:"min=51"`
		RaiseThreshold   float64       `yaml:"raise_threshold" default:"0.85" validate:"gt=0,lte=1"`
		MinIndicators    int           `yaml:"min_indicators" default:"5" validate:"min=1"`
		Dwell            time.Duration `yaml:"dwell" default:"30s" validate:"gte=0"`
		PersistDiscarded bool          `yaml:"persist_discarded"`
		AutoStart        bool          `yaml:"auto_start" default:"true"`
	} `yaml:"engine"`
	Confirmation struct {
		Mode      string              `yaml:"mode" default:"majority" validate:"oneof=majority all legacy"`
		Threshold float64             `yaml:"threshold" default:"0.7" validate:"gt=0,lte=1"`
		Hierarchy map[string][]string `yaml:"hierarchy"`
	} `yaml:"confirmation"`
	Outcome struct {
		IntradayHorizon time.Duration `yaml:"intraday_horizon" default:"4h" validate:"gt=0"`
		DailyHorizon    time.Duration `yaml:"daily_horizon" default:"24h" validate:"gt=0"`
		StaleAfter      time.Duration `yaml:"stale_after" default:"15m" validate:"gt=0"`
	} `yaml:"outcome"`
	Learning struct {
		Rate         float64            `yaml:"rate" default:"0.01" validate:"gt=0,lt=1"`
		MinSamples   int                `yaml:"min_samples" default:"10" validate:"min=0"`
		SuccessAbove float64            `yaml:"success_above" default:"0.6" validate:"gte=0,lte=1"`
		FailureBelow float64            `yaml:"failure_below" default:"0.4" validate:"gte=0,lte=1"`
		MinWeight    float64            `yaml:"min_weight" default:"0.02" validate:"gt=0"`
		MaxWeight    float64            `yaml:"max_weight" default:"0.15" validate:"gt=0"`
		BaseWeights  map[string]float64 `yaml:"base_weights"`
		StateFile    string             `yaml:"state_file" default:"data/learning_state.json"`
	} `yaml:"learning"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path" default:"data/signal_sentinel.db"`
		WriteBuffer int    `yaml:"write_buffer" default:"256" validate:"min=1"`
	} `yaml:"database"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"signal-sentinel.events"`
	} `yaml:"kafka"`
	HTTP struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":8080"`
	} `yaml:"http"`
	Notify struct {
		QueueSize int `yaml:"queue_size" default:"64" validate:"min=1"`
	} `yaml:"notify"`
	Schedule struct {
		ReportCron     string `yaml:"report_cron" default:"0 0 */6 * * *"`
		StatusCron     string `yaml:"status_cron" default:"0 0 9 * * *"`
		CheckpointCron string `yaml:"checkpoint_cron" default:"0 */15 * * * *"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// DefaultHierarchy maps each timeframe to the higher timeframes consulted
// when confirming a signal raised on it. Daily bars confirm on their own.
var DefaultHierarchy = map[string][]string{
	"1m":  {"5m", "15m"},
	"5m":  {"15m", "30m"},
	"15m": {"30m", "1h"},
	"30m": {"1h", "4h"},
	"1h":  {"4h", "1d"},
	"4h":  {"1d"},
	"1d":  {},
}

var validate = validator.New()

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Confirmation.Hierarchy == nil {
		cfg.Confirmation.Hierarchy = make(map[string][]string, len(DefaultHierarchy))
		for tf, higher := range DefaultHierarchy {
			cfg.Confirmation.Hierarchy[tf] = append([]string(nil), higher...)
		}
	}
	if cfg.Learning.BaseWeights == nil {
		cfg.Learning.BaseWeights = make(map[string]float64, len(model.BaseWeights))
		for ind, w := range model.BaseWeights {
			cfg.Learning.BaseWeights[string(ind)] = w
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = splitList(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints and the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	if c.Learning.MinWeight > c.Learning.MaxWeight {
		return fmt.Errorf("learning.min_weight %.4f exceeds max_weight %.4f", c.Learning.MinWeight, c.Learning.MaxWeight)
	}
	if c.Learning.FailureBelow > c.Learning.SuccessAbove {
		return fmt.Errorf("learning.failure_below must not exceed success_above")
	}
	if c.Engine.MinBars > c.Engine.HistoryCapacity {
		return fmt.Errorf("engine.min_bars %d exceeds history_capacity %d", c.Engine.MinBars, c.Engine.HistoryCapacity)
	}
	for _, tf := range c.Binance.Timeframes {
		if model.Timeframe(tf).Duration() == 0 {
			return fmt.Errorf("binance.timeframes: unknown interval %q", tf)
		}
	}
	for tf, higher := range c.Confirmation.Hierarchy {
		if model.Timeframe(tf).Duration() == 0 {
			return fmt.Errorf("confirmation.hierarchy: unknown interval %q", tf)
		}
		for _, h := range higher {
			if model.Timeframe(h).Duration() <= model.Timeframe(tf).Duration() {
				return fmt.Errorf("confirmation.hierarchy: %q is not above %q", h, tf)
			}
		}
	}
	for name, w := range c.Learning.BaseWeights {
		if !model.Known(model.Indicator(name)) {
			return fmt.Errorf("learning.base_weights: unknown indicator %q", name)
		}
		if w < 0 {
			return fmt.Errorf("learning.base_weights: %s is negative", name)
		}
	}
	return nil
}

// SeriesKeys expands symbols × timeframes.
func (c *Config) SeriesKeys() []model.SeriesKey {
	keys := make([]model.SeriesKey, 0, len(c.Binance.Symbols)*len(c.Binance.Timeframes))
	for _, sym := range c.Binance.Symbols {
		for _, tf := range c.Binance.Timeframes {
			keys = append(keys, model.SeriesKey{Symbol: strings.ToUpper(sym), Timeframe: model.Timeframe(tf)})
		}
	}
	return keys
}

// Timeframes returns the configured intervals.
func (c *Config) Timeframes() []model.Timeframe {
	out := make([]model.Timeframe, len(c.Binance.Timeframes))
	for i, tf := range c.Binance.Timeframes {
		out[i] = model.Timeframe(tf)
	}
	return out
}

// TimeframeHierarchy converts the hierarchy to typed timeframes.
func (c *Config) TimeframeHierarchy() map[model.Timeframe][]model.Timeframe {
	out := make(map[model.Timeframe][]model.Timeframe, len(c.Confirmation.Hierarchy))
	for tf, higher := range c.Confirmation.Hierarchy {
		list := make([]model.Timeframe, len(higher))
		for i, h := range higher {
			list[i] = model.Timeframe(h)
		}
		out[model.Timeframe(tf)] = list
	}
	return out
}

// WeightTable converts the base weights to a typed table.
func (c *Config) WeightTable() model.WeightTable {
	out := make(model.WeightTable, len(c.Learning.BaseWeights))
	for name, w := range c.Learning.BaseWeights {
		out[model.Indicator(name)] = w
	}
	return out
}
