// Package scheduler triggers fetch cycles on a daily schedule and on
// demand, enforcing at most one concurrent run.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

const jobID = "daily_data_update"

// CycleRunner runs one fetch cycle. Satisfied by coordinator.Coordinator.
type CycleRunner interface {
	RunCycle(ctx context.Context) (tracker.Snapshot, error)
}

// Config controls when the recurring refresh fires, in UTC.
type Config struct {
	Hour   int
	Minute int
}

// JobInfo describes one scheduled job for the status endpoint.
type JobInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NextRunTime string `json:"next_run_time"`
}

// Status is the scheduler state reported to the boundary API.
type Status struct {
	Running bool      `json:"running"`
	Jobs    []JobInfo `json:"jobs"`
}

// Scheduler owns the refresh loop. A triggered run while one is already
// in flight is a logged no-op, never queued.
type Scheduler struct {
	runner  CycleRunner
	clock   tracker.Clock
	cfg     Config
	logger  *zap.Logger
	trigger chan struct{}
	running atomic.Bool

	mu      sync.RWMutex
	nextRun time.Time
	started bool
}

// New constructs a Scheduler.
func New(runner CycleRunner, clock tracker.Clock, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
}

// Run blocks, firing cycles on the daily timer and on manual triggers,
// until the context finishes.
func (s *Scheduler) Run(ctx context.Context) {
	s.setStarted(true)
	defer s.setStarted(false)
	s.logger.Info("scheduler started",
		zap.Int("hour", s.cfg.Hour), zap.Int("minute", s.cfg.Minute))

	for {
		next := s.nextRunAfter(s.clock.Now())
		s.setNextRun(next)

		timer := time.NewTimer(next.Sub(s.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			s.runOnce(ctx, "schedule")
		case <-s.trigger:
			timer.Stop()
			s.runOnce(ctx, "manual")
		}
	}
}

// Trigger requests an on-demand refresh without waiting for it. A
// trigger while a run is in flight is a logged no-op, and a pending
// trigger is coalesced.
func (s *Scheduler) Trigger() {
	if s.running.Load() {
		s.logger.Warn("refresh already running, trigger ignored")
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
		s.logger.Info("refresh already pending, trigger ignored")
	}
}

// Status reports whether a cycle is running and the next scheduled run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	started := s.started
	next := s.nextRun
	s.mu.RUnlock()

	st := Status{
		Running: s.running.Load(),
		Jobs:    []JobInfo{},
	}
	if started {
		st.Jobs = append(st.Jobs, JobInfo{
			ID:          jobID,
			Name:        "Daily eCFR data update",
			NextRunTime: tracker.FormatTime(next),
		})
	}
	return st
}

func (s *Scheduler) runOnce(ctx context.Context, reason string) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("refresh already running, skipping", zap.String("reason", reason))
		return
	}
	defer s.running.Store(false)

	s.logger.Info("refresh starting", zap.String("reason", reason))
	_, err := s.runner.RunCycle(ctx)
	switch {
	case err == nil:
		s.logger.Info("refresh succeeded", zap.String("reason", reason))
	case errors.Is(err, tracker.ErrNoTitles), errors.Is(err, tracker.ErrNoContent):
		s.logger.Error("refresh aborted, previous snapshot remains current",
			zap.String("reason", reason), zap.Error(err))
	default:
		s.logger.Error("refresh failed",
			zap.String("reason", reason), zap.Error(err))
	}
}

// nextRunAfter computes the next daily firing strictly after now.
func (s *Scheduler) nextRunAfter(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	s.nextRun = t
	s.mu.Unlock()
}

func (s *Scheduler) setStarted(v bool) {
	s.mu.Lock()
	s.started = v
	s.mu.Unlock()
}
