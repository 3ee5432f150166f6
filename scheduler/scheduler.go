// Package scheduler runs periodic housekeeping on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPurger is the part of session.Repository the purge job needs.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

const purgeTimeout = time.Minute

type Jobs struct {
	sessions SessionPurger
	logger   *slog.Logger
}

func NewJobs(sessions SessionPurger, logger *slog.Logger) *Jobs {
	return &Jobs{sessions: sessions, logger: logger}
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (j *Jobs) PurgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to purge expired sessions", "error", err)
		return
	}
	j.logger.Info("purged expired sessions", "deleted", n)
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
}

func New(jobs *Jobs, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
	}
}

// Start registers the session purge on schedule and starts the cron loop.
func (s *Scheduler) Start(purgeSchedule string) error {
	if _, err := s.cron.AddFunc(purgeSchedule, s.jobs.PurgeExpiredSessions); err != nil {
		return fmt.Errorf("scheduling session purge %q: %w", purgeSchedule, err)
	}
	s.logger.Info("scheduled session purge job", "schedule", purgeSchedule)

	s.cron.Start()
	return nil
}

// Stop stops scheduling; the returned context is done once running jobs end.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
