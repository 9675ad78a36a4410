package audit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the bounded audit on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	auditor *Auditor
	logger  *zap.Logger
}

func NewScheduler(auditor *Auditor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		auditor: auditor,
		logger:  logger,
	}
}

// Start registers the audit job and starts the cron loop. When the audit is
// disabled by configuration nothing is scheduled.
func (s *Scheduler) Start() error {
	if !s.auditor.cfg.Enabled {
		s.logger.Info("audit scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.auditor.cfg.Cron, func() {
		report, err := s.auditor.AuditBounded(context.Background())
		if err != nil {
			s.logger.Error("scheduled audit failed", zap.Error(err))
			return
		}
		s.logger.Info("scheduled audit finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("issues", report.Count()))
	})
	if err != nil {
		return fmt.Errorf("registering audit schedule %q: %w", s.auditor.cfg.Cron, err)
	}

	s.cron.Start()
	s.logger.Info("audit scheduler started", zap.String("cron", s.auditor.cfg.Cron))
	return nil
}

// Stop halts the cron loop and waits for a running audit to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
