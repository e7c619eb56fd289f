package workflow

import (
	"context"
	"time"

	"kademe-kys/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const scanTimeout = 2 * time.Minute

// EscalationScheduler drives the periodic escalation scan through a
// cron schedule. The scan itself is idempotent, so an overlapping or
// repeated run cannot double-fire a rule.
type EscalationScheduler struct {
	engine   *Engine
	logger   *zap.Logger
	schedule string
	cron     *cron.Cron
}

func NewEscalationScheduler(engine *Engine, logger *zap.Logger, cfg *config.Config) *EscalationScheduler {
	return &EscalationScheduler{
		engine:   engine,
		logger:   logger,
		schedule: cfg.EscalationSchedule,
	}
}

func (s *EscalationScheduler) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("escalation scheduler started", zap.String("schedule", s.schedule))
	return nil
}

func (s *EscalationScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *EscalationScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	events, err := s.engine.RunEscalationScan(ctx, s.engine.clock.Now())
	if err != nil {
		s.logger.Error("escalation scan finished with errors",
			zap.Int("events", len(events)), zap.Error(err))
		return
	}
	if len(events) > 0 {
		s.logger.Info("escalation scan fired rules", zap.Int("events", len(events)))
	}
}

// StartEscalationScheduler hooks the scheduler into the fx lifecycle.
func StartEscalationScheduler(lc fx.Lifecycle, s *EscalationScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
