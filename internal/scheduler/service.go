package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/monitoring"
)

// Runner performs one monitoring run
type Runner interface {
	RunOnce(ctx context.Context, opts monitoring.RunOptions) (*monitoring.RunResult, error)
}

// Config holds the schedule and the parameters of every scheduled run
type Config struct {
	// Schedule is a cron expression with a seconds field, or a descriptor
	// such as "@every 4h"
	Schedule string
	Location *time.Location
	Hours    int
	Save     bool
}

// Service handles scheduling of monitoring runs
type Service struct {
	config Config
	runner Runner
	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new scheduler service. Ticks that fire while the
// previous run is still active are skipped.
func NewService(cfg Config, runner Runner) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	logger := cron.PrintfLogger(logrus.StandardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the scheduled monitoring
func (s *Service) Start() error {
	id, err := s.cron.AddFunc(s.config.Schedule, s.run)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Schedule, err)
	}
	s.entry = id

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q, next run at %s", s.config.Schedule, s.Next().Format(time.RFC3339))
	return nil
}

// Next returns the time of the next scheduled run
func (s *Service) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Service) run() {
	logrus.Info("Starting scheduled monitoring run")

	result, err := s.runner.RunOnce(s.ctx, monitoring.RunOptions{Hours: s.config.Hours, Save: s.config.Save})
	switch {
	case errors.Is(err, models.ErrAllCollectorsFailed):
		logrus.Warn("Scheduled run finished without data: all collectors failed")
	case errors.Is(err, monitoring.ErrRunInProgress):
		logrus.Warn("Skipping scheduled run: a run is already in progress")
		return
	case err != nil:
		logrus.Errorf("Scheduled monitoring run failed: %v", err)
		return
	}

	if result.ExportErr != nil {
		logrus.Errorf("Scheduled run export failed: %v", result.ExportErr)
	}
	logrus.Infof("Scheduled run %s found %d mentions", result.Report.RunID, result.Report.Summary.Total)
}

// Stop stops the scheduler and waits for a running job to return
func (s *Service) Stop() {
	if s.cron != nil {
		s.cancel()
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
