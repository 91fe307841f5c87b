package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/config"
)

// SummaryPublisher produces the end-of-day quotation summary.
type SummaryPublisher interface {
	PublishDailySummary(ctx context.Context, day time.Time) (string, error)
}

// Scheduler runs the periodic reporting jobs.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	location  *time.Location
	publisher SummaryPublisher
	logger    *zap.Logger
}

// NewScheduler creates a scheduler bound to the configured timezone.
func NewScheduler(cfg config.ReportingConfig, publisher SummaryPublisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  cfg.CronSchedule,
		location:  loc,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Start registers the daily summary and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.publishDailySummary); err != nil {
		return fmt.Errorf("schedule daily summary %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) publishDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.publisher.PublishDailySummary(ctx, time.Now().In(s.location))
	if err != nil {
		s.logger.Error("failed to publish daily summary", zap.Error(err))
		return
	}
	s.logger.Info("daily summary published", zap.String("summary", summary))
}
