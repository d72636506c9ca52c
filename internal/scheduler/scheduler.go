package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/bot"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
)

// Controller is the bot surface driven by cron jobs and chat commands.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Status() model.BotStatus
	Report() *model.PerformanceReport
	Weights() model.WeightTable
	Checkpoint()
}

// Publisher queues outbound events.
type Publisher interface {
	Deliver(kind notifier.Kind, payload interface{}) bool
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron   *cron.Cron
	Bot    Controller
	Events Publisher
	Ctx    context.Context
	log    zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b Controller, events Publisher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Bot:    b,
		Events: events,
		Ctx:    ctx,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the performance report, status report and weight
// checkpoint jobs. An empty spec skips that job.
func (s *Scheduler) RegisterAll(reportCron, statusCron, checkpointCron string) error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"report", reportCron, s.reportTask},
		{"status", statusCron, s.statusTask},
		{"checkpoint", checkpointCron, s.checkpointTask},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.Cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("register %s task: %w", j.name, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) reportTask() {
	s.log.Debug().Msg("running performance report")
	s.publish(notifier.KindReport, s.Bot.Report())
}

func (s *Scheduler) statusTask() {
	s.publish(notifier.KindStatus, s.Bot.Status())
}

func (s *Scheduler) checkpointTask() {
	s.Bot.Checkpoint()
	s.log.Debug().Msg("learning state checkpointed")
}

func (s *Scheduler) publish(kind notifier.Kind, payload interface{}) {
	if !s.Events.Deliver(kind, payload) {
		s.log.Warn().Str("kind", string(kind)).Msg("scheduled event dropped")
	}
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(command string) string {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/start":
		err := s.Bot.Start(s.Ctx)
		switch {
		case errors.Is(err, bot.ErrAlreadyRunning):
			return "ℹ️ Bot already running"
		case err != nil:
			s.log.Error().Err(err).Msg("start command failed")
			return fmt.Sprintf("❌ Start failed: %v", err)
		}
		return "✅ Bot started"
	case "/stop":
		err := s.Bot.Stop()
		switch {
		case errors.Is(err, bot.ErrNotRunning):
			return "ℹ️ Bot already stopped"
		case err != nil:
			s.log.Error().Err(err).Msg("stop command failed")
			return fmt.Sprintf("❌ Stop failed: %v", err)
		}
		return "🛑 Bot stopped"
	case "/status":
		return notifier.FormatStatus(s.Bot.Status())
	case "/performance":
		return notifier.FormatPerformance(s.Bot.Report())
	case "/weights":
		return notifier.FormatWeights(s.Bot.Weights())
	default:
		return "Available commands:\n• /start\n• /stop\n• /status\n• /performance\n• /weights"
	}
}
