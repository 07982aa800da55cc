package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RequestLogPurger deletes old request logs
type RequestLogPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CronConfig holds the job schedules. Schedules accept six-field
// expressions ("0 0 4 * * *") and descriptors ("@every 1m").
type CronConfig struct {
	EvictSchedule       string        // idle cart eviction
	PurgeSchedule       string        // request log purge
	RequestLogRetention time.Duration // 0 keeps request logs forever
}

// DefaultCronConfig returns default configuration
func DefaultCronConfig() CronConfig {
	return CronConfig{
		EvictSchedule:       "@every 1m",
		PurgeSchedule:       "0 0 4 * * *",
		RequestLogRetention: 90 * 24 * time.Hour,
	}
}

// CronService manages scheduled background jobs
type CronService struct {
	cron   *cron.Cron
	carts  *CartRegistry
	purger RequestLogPurger
	config CronConfig
	logger *logrus.Logger
}

// NewCronService creates a new CronService. purger may be nil.
func NewCronService(carts *CartRegistry, purger RequestLogPurger, config CronConfig, logger *logrus.Logger) *CronService {
	defaults := DefaultCronConfig()
	if config.EvictSchedule == "" {
		config.EvictSchedule = defaults.EvictSchedule
	}
	if config.PurgeSchedule == "" {
		config.PurgeSchedule = defaults.PurgeSchedule
	}

	return &CronService{
		cron:   cron.New(cron.WithSeconds()),
		carts:  carts,
		purger: purger,
		config: config,
		logger: logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// Job 1: drop idle cart sessions
	if _, err := s.cron.AddFunc(s.config.EvictSchedule, s.evictIdleCartsJob); err != nil {
		return fmt.Errorf("failed to schedule idle cart eviction: %w", err)
	}
	s.logger.WithField("schedule", s.config.EvictSchedule).Info("Scheduled: evict idle cart sessions")

	// Job 2: purge old request logs
	if s.purger != nil && s.config.RequestLogRetention > 0 {
		if _, err := s.cron.AddFunc(s.config.PurgeSchedule, s.purgeRequestLogsJob); err != nil {
			return fmt.Errorf("failed to schedule request log purge: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"schedule":  s.config.PurgeSchedule,
			"retention": s.config.RequestLogRetention.String(),
		}).Info("Scheduled: purge old request logs")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) evictIdleCartsJob() {
	start := time.Now()
	evicted := s.carts.EvictIdle(start)

	s.logger.WithFields(logrus.Fields{
		"evicted":  evicted,
		"duration": time.Since(start).String(),
	}).Debug("[CRON] Idle cart eviction finished")
}

func (s *CronService) purgeRequestLogsJob() {
	if _, err := s.PurgeRequestLogsNow(context.Background()); err != nil {
		s.logger.WithError(err).Error("[CRON] Request log purge failed")
	}
}

// PurgeRequestLogsNow deletes request logs past the retention period
func (s *CronService) PurgeRequestLogsNow(ctx context.Context) (int64, error) {
	if s.purger == nil || s.config.RequestLogRetention <= 0 {
		return 0, nil
	}

	start := time.Now()
	deleted, err := s.purger.DeleteOlderThan(ctx, start.Add(-s.config.RequestLogRetention))
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"duration": time.Since(start).String(),
	}).Info("[CRON] Request log purge finished")

	return deleted, nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
