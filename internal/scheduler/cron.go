// Package scheduler runs the periodic maintenance jobs of the server.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a named unit of periodic work
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// RefreshJob refreshes a remote snapshot on spec
func RefreshJob(spec string, refresher interface {
	Refresh(ctx context.Context) error
}) Job {
	return Job{
		Name: "Remote Config Refresh",
		Spec: spec,
		Run:  refresher.Refresh,
	}
}

// PurgeJob drops expired cache entries on spec
func PurgeJob(name, spec string, purger interface{ PurgeExpired() int }, logger *logrus.Logger) Job {
	return Job{
		Name: name,
		Spec: spec,
		Run: func(ctx context.Context) error {
			removed := purger.PurgeExpired()
			logger.WithFields(logrus.Fields{
				"job":     name,
				"removed": removed,
			}).Debug("expired cache entries purged")
			return nil
		},
	}
}

// SweepJob disposes of idle client sessions on spec
func SweepJob(spec string, sweeper interface{ Sweep() int }, logger *logrus.Logger) Job {
	return Job{
		Name: "Session Sweep",
		Spec: spec,
		Run: func(ctx context.Context) error {
			if removed := sweeper.Sweep(); removed > 0 {
				logger.WithField("removed", removed).Info("idle client sessions disposed")
			}
			return nil
		},
	}
}

type CronScheduler struct {
	cron           *cron.Cron
	jobs           []Job
	names          map[cron.EntryID]string
	logger         *logrus.Logger
	jobTimeout     time.Duration
	activeJobs     sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

func NewCronScheduler(jobs []Job, logger *logrus.Logger) *CronScheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &CronScheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		jobs:           jobs,
		names:          make(map[cron.EntryID]string, len(jobs)),
		logger:         logger,
		jobTimeout:     time.Minute,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

// Start registers every job and starts the cron loop. Nothing runs when a
// spec fails to parse.
func (s *CronScheduler) Start() error {
	for _, job := range s.jobs {
		id, err := s.cron.AddFunc(job.Spec, s.createJobWrapper(job.Name, job.Run))
		if err != nil {
			return fmt.Errorf("failed to schedule %q: %w", job.Name, err)
		}
		s.names[id] = job.Name
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.jobs)).Info("Cron scheduler started successfully")
	return nil
}

// RunNow executes the named job once, outside the schedule
func (s *CronScheduler) RunNow(name string) bool {
	for _, job := range s.jobs {
		if job.Name == name {
			s.createJobWrapper(job.Name, job.Run)()
			return true
		}
	}
	return false
}

// createJobWrapper wraps a job with context, timeout, logging, and panic recovery
func (s *CronScheduler) createJobWrapper(jobName string, jobFunc func(context.Context) error) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		startTime := time.Now()

		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{
					"job":   jobName,
					"panic": r,
				}).Error("Job panicked")
			}
		}()

		err := jobFunc(ctx)

		duration := time.Since(startTime)

		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
				"error":    err.Error(),
			}).Error("Job failed")
		} else {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
			}).Debug("Job completed successfully")
		}

		if ctx.Err() == context.DeadlineExceeded {
			s.logger.WithFields(logrus.Fields{
				"job":     jobName,
				"timeout": s.jobTimeout.String(),
			}).Warn("Job timed out")
		}
	}
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")

	ctx := s.cron.Stop()
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All jobs completed, cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-time.After(10 * time.Second):
		s.logger.Warn("Timeout waiting for jobs to complete, forcing shutdown")
	}
}

// GetSchedulerStatus returns the current status of the scheduler. It is
// served by the health endpoint.
func (s *CronScheduler) GetSchedulerStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"name":     s.names[entry.ID],
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
