package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type countingRefresher struct {
	calls int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	atomic.AddInt32(&r.calls, 1)
	return r.err
}

type countingSweeper struct {
	calls int32
}

func (s *countingSweeper) Sweep() int {
	atomic.AddInt32(&s.calls, 1)
	return 1
}

type countingPurger struct {
	calls int32
}

func (p *countingPurger) PurgeExpired() int {
	atomic.AddInt32(&p.calls, 1)
	return 2
}

func TestNewCronScheduler(t *testing.T) {
	scheduler := NewCronScheduler(nil, quietLogger())

	if scheduler == nil {
		t.Fatal("Expected non-nil scheduler")
	}

	if scheduler.jobTimeout != time.Minute {
		t.Errorf("Expected job timeout of 1 minute, got %v", scheduler.jobTimeout)
	}

	if scheduler.cron == nil {
		t.Error("Expected non-nil cron instance")
	}
}

func TestCronScheduler_StartRegistersJobs(t *testing.T) {
	refresher := &countingRefresher{}
	purger := &countingPurger{}
	logger := quietLogger()

	scheduler := NewCronScheduler([]Job{
		RefreshJob("@every 5m", refresher),
		PurgeJob("Cache Purge", "@every 10m", purger, logger),
	}, logger)

	if err := scheduler.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	status := scheduler.GetSchedulerStatus()
	if status["job_count"] != 2 {
		t.Errorf("Expected 2 jobs, got %v", status["job_count"])
	}
	if status["running"] != true {
		t.Error("Expected scheduler to report running")
	}

	jobs, ok := status["jobs"].([]map[string]interface{})
	if !ok || len(jobs) != 2 {
		t.Fatalf("Expected 2 job entries, got %v", status["jobs"])
	}
	names := map[interface{}]bool{}
	for _, job := range jobs {
		names[job["name"]] = true
	}
	if !names["Remote Config Refresh"] || !names["Cache Purge"] {
		t.Errorf("Expected job names in status, got %v", jobs)
	}
}

func TestCronScheduler_StartRejectsBadSpec(t *testing.T) {
	scheduler := NewCronScheduler([]Job{
		RefreshJob("every now and then", &countingRefresher{}),
	}, quietLogger())

	if err := scheduler.Start(); err == nil {
		t.Fatal("Expected error for invalid spec")
	}
}

func TestCronScheduler_RunNow(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("upstream down")}
	purger := &countingPurger{}
	logger := quietLogger()

	sweeper := &countingSweeper{}

	scheduler := NewCronScheduler([]Job{
		RefreshJob("@every 5m", refresher),
		PurgeJob("Cache Purge", "@every 10m", purger, logger),
		SweepJob("@every 1m", sweeper, logger),
	}, logger)

	if !scheduler.RunNow("Session Sweep") {
		t.Fatal("Expected sweep job to be found")
	}
	if !scheduler.RunNow("Remote Config Refresh") {
		t.Fatal("Expected refresh job to be found")
	}
	if !scheduler.RunNow("Cache Purge") {
		t.Fatal("Expected purge job to be found")
	}
	if scheduler.RunNow("Unknown") {
		t.Error("Expected unknown job to be reported missing")
	}

	if got := atomic.LoadInt32(&refresher.calls); got != 1 {
		t.Errorf("Expected 1 refresh, got %d", got)
	}
	if got := atomic.LoadInt32(&purger.calls); got != 1 {
		t.Errorf("Expected 1 purge, got %d", got)
	}
	if got := atomic.LoadInt32(&sweeper.calls); got != 1 {
		t.Errorf("Expected 1 sweep, got %d", got)
	}
}

func TestCronScheduler_JobPanicIsRecovered(t *testing.T) {
	scheduler := NewCronScheduler([]Job{{
		Name: "Explodes",
		Spec: "@every 1h",
		Run: func(ctx context.Context) error {
			panic("boom")
		},
	}}, quietLogger())

	scheduler.RunNow("Explodes")
}

func TestCronScheduler_GetSchedulerStatus(t *testing.T) {
	scheduler := NewCronScheduler(nil, quietLogger())
	status := scheduler.GetSchedulerStatus()

	if status == nil {
		t.Fatal("Expected non-nil status")
	}

	for _, key := range []string{"running", "job_count", "jobs"} {
		if _, ok := status[key]; !ok {
			t.Errorf("Expected %q key in status", key)
		}
	}
}
