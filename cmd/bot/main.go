package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalSentinel/internal/api"
	"SignalSentinel/internal/bot"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/learning"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
	"SignalSentinel/internal/strategy"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Strs("symbols", cfg.Binance.Symbols).Strs("timeframes", cfg.Binance.Timeframes).Msg("SignalSentinel starting")

	mode, err := strategy.ParseMode(cfg.Confirmation.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("confirmation mode")
	}

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	var learnStore learning.Store = learning.NewFileStore(cfg.Learning.StateFile)
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop and state file")
		} else {
			rec = sr
			learnStore = sr
		}
	}
	signals := recorder.NewAsync(rec, cfg.Database.WriteBuffer, log)
	defer signals.Close()

	// Init notification sinks
	var sinks []notifier.Sink
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sinks = append(sinks, &notifier.TelegramSink{Notifier: tn, MaxRetries: cfg.Telegram.MaxRetries})
	} else {
		log.Warn().Msg("telegram not configured, events go to the log")
		sinks = append(sinks, &notifier.LogSink{Log: log.With().Str("component", "events").Logger()})
	}
	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := notifier.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("init kafka sink")
		}
		defer ks.Close()
		sinks = append(sinks, ks)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka sink enabled")
	}
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher := notifier.NewDispatcher(cfg.Notify.QueueSize, log, sinks...)
	dispatcher.Start(dispatchCtx)

	// Init learning
	weights := learning.NewWeightStore(cfg.WeightTable(), cfg.Learning.MinWeight, cfg.Learning.MaxWeight)
	learner := learning.NewLearner(learning.Config{
		Rate:         cfg.Learning.Rate,
		MinSamples:   cfg.Learning.MinSamples,
		SuccessAbove: cfg.Learning.SuccessAbove,
		FailureBelow: cfg.Learning.FailureBelow,
	}, weights, learnStore, log)

	// Init bar history and ingestion
	history := collector.NewHistory(cfg.Engine.HistoryCapacity)
	rest := collector.NewBinanceREST(cfg.Binance.RESTURL, cfg.Proxy)
	backfill := collector.NewCollector(rest, history, log)
	newFeed := func() bot.FeedRunner {
		return collector.NewFeed(cfg.Binance.StreamURL, cfg.Binance.Symbols, cfg.Timeframes(), history, log)
	}

	b := bot.New(bot.Options{
		Keys:          cfg.SeriesKeys(),
		BackfillLimit: cfg.Binance.BackfillLimit,
		Engine: engine.Config{
			PollInterval:     cfg.Engine.PollInterval,
			Window:           cfg.Engine.Window,
			ConfirmWindow:    cfg.Engine.ConfirmWindow,
			MinBars:          cfg.Engine.MinBars,
			Dwell:            cfg.Engine.Dwell,
			Hierarchy:        cfg.TimeframeHierarchy(),
			Qualifier:        strategy.Qualifier{Threshold: cfg.Engine.RaiseThreshold, MinIndicators: cfg.Engine.MinIndicators},
			Confirmer:        strategy.Confirmer{Mode: mode, Threshold: cfg.Confirmation.Threshold},
			IntradayHorizon:  cfg.Outcome.IntradayHorizon,
			DailyHorizon:     cfg.Outcome.DailyHorizon,
			StaleAfter:       cfg.Outcome.StaleAfter,
			PersistDiscarded: cfg.Engine.PersistDiscarded,
		},
	}, bot.Deps{
		History:  history,
		Backfill: backfill,
		NewFeed:  newFeed,
		Learner:  learner,
		Store:    signals,
		Notify:   dispatcher,
	}, log)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, b, dispatcher, log)
	if err := sched.RegisterAll(cfg.Schedule.ReportCron, cfg.Schedule.StatusCron, cfg.Schedule.CheckpointCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	// Start Telegram polling
	if tn != nil && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	var srv *api.Server
	if cfg.HTTP.Enabled {
		srv = api.NewServer(cfg.HTTP.Addr, api.NewHandler(b, signals, log), log)
		srv.Start()
	}

	if cfg.Engine.AutoStart {
		if err := b.Start(ctx); err != nil {
			log.Error().Err(err).Msg("auto start failed")
		}
	}

	log.Info().Msg("SignalSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	sched.Stop()
	b.Close()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		done()
	}
	dispatcher.Close()
	log.Info().Msg("SignalSentinel stopped")
}
