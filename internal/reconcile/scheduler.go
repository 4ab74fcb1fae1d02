package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrSyncInProgress is returned when a cycle is requested while another
// one is still running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Runner performs one sync cycle.
type Runner interface {
	RunOnce(ctx context.Context) (Report, error)
}

// Scheduler triggers cycles from a cron expression and on demand. At most
// one cycle runs at a time; overlapping requests are skipped, not queued.
type Scheduler struct {
	runner   Runner
	recorder Recorder
	logger   zerolog.Logger
	cron     *cron.Cron
	schedule string
	running  sync.Mutex
}

// NewScheduler parses the standard five-field schedule in loc.
func NewScheduler(runner Runner, schedule string, loc *time.Location, recorder Recorder, logger zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	s := &Scheduler{runner: runner, recorder: recorder, logger: logger, schedule: schedule}

	cronLogger := cron.PrintfLogger(&s.logger)
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)
	if _, err := s.cron.AddFunc(schedule, s.scheduled); err != nil {
		return nil, fmt.Errorf("parse sync schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins firing scheduled cycles.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.Next()).
		Msg("sync scheduler started")
}

// Next reports the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the schedule and waits for a running cycle, scheduled or
// triggered, to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	idle := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.running.Lock()
		s.running.Unlock()
		close(idle)
	}()

	select {
	case <-idle:
		s.logger.Info().Msg("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("sync scheduler stop timed out with a cycle still running")
		return ctx.Err()
	}
}

// TriggerNow runs a cycle immediately unless one is already running.
func (s *Scheduler) TriggerNow(ctx context.Context) (Report, error) {
	if !s.running.TryLock() {
		s.recorder.RecordCycle(ResultOverlap, Report{}, 0)
		s.logger.Warn().Msg("sync requested while a cycle is running, skipping")
		return Report{}, ErrSyncInProgress
	}
	defer s.running.Unlock()
	return s.runner.RunOnce(ctx)
}

func (s *Scheduler) scheduled() {
	// Cycles are not cancelled mid-flight; the feed timeout bounds them.
	_, _ = s.TriggerNow(context.Background())
}
