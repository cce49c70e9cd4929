package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"taskmgr/pkg/logx"
)

// Default cadences for the four reconciliation jobs.
const (
	DefaultTaskOverdueEvery     = time.Minute
	DefaultProjectOverdueEvery  = time.Minute
	DefaultTaskUpcomingEvery    = 30 * time.Minute
	DefaultProjectUpcomingEvery = time.Hour
)

// Intervals holds the cadence of each periodic sweep. Zero values fall back
// to the defaults above.
type Intervals struct {
	TaskOverdue     time.Duration
	ProjectOverdue  time.Duration
	TaskUpcoming    time.Duration
	ProjectUpcoming time.Duration
}

func (iv Intervals) withDefaults() Intervals {
	if iv.TaskOverdue <= 0 {
		iv.TaskOverdue = DefaultTaskOverdueEvery
	}
	if iv.ProjectOverdue <= 0 {
		iv.ProjectOverdue = DefaultProjectOverdueEvery
	}
	if iv.TaskUpcoming <= 0 {
		iv.TaskUpcoming = DefaultTaskUpcomingEvery
	}
	if iv.ProjectUpcoming <= 0 {
		iv.ProjectUpcoming = DefaultProjectUpcomingEvery
	}
	return iv
}

// job is one periodic unit of work with its own in-flight guard.
type job struct {
	name     string
	spec     string
	run      func(ctx context.Context) error
	inFlight atomic.Bool
}

// Scheduler drives independent periodic jobs. Each job is non-reentrant with
// itself: if a run is still executing when the next tick fires, that tick is
// skipped, not queued, so there is at most one in-flight run per job. Jobs
// never share a run loop, so a slow sweep of one kind cannot delay the others.
type Scheduler struct {
	log logx.Logger

	mu   sync.Mutex
	c    *cron.Cron
	jobs []*job

	runCtx context.Context
}

func NewScheduler(log logx.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// AddEvery registers a fixed-interval job. Must be called before Start.
func (s *Scheduler) AddEvery(name string, every time.Duration, run func(ctx context.Context) error) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	return s.add(name, fmt.Sprintf("@every %s", every), run)
}

// AddCron registers a job on a standard 5-field cron spec. Must be called
// before Start.
func (s *Scheduler) AddCron(name, spec string, run func(ctx context.Context) error) error {
	return s.add(name, spec, run)
}

func (s *Scheduler) add(name, spec string, run func(ctx context.Context) error) error {
	if run == nil {
		return fmt.Errorf("job %s: nil run func", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return errors.New("scheduler already started")
	}
	s.jobs = append(s.jobs, &job{name: name, spec: spec, run: run})
	return nil
}

// Start registers every job with cron and begins ticking. Spec errors surface
// here, before any timer fires.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New()
	for _, j := range s.jobs {
		j := j
		if _, err := c.AddFunc(j.spec, func() { s.runJob(j) }); err != nil {
			return fmt.Errorf("register job %s (%q): %w", j.name, j.spec, err)
		}
	}

	s.c = c
	s.runCtx = ctx
	c.Start()
	s.log.Info("reconciliation scheduler started", logx.Int("jobs", len(s.jobs)))
	return nil
}

// Stop suppresses future ticks and waits for in-flight runs to finish, up to
// the context deadline. There is no mid-flight cancellation of a sweep beyond
// the run context the jobs already hold.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
		s.log.Info("reconciliation scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out waiting for in-flight jobs")
	}
}

func (s *Scheduler) runJob(j *job) {
	// Skip, don't queue: at most one in-flight run per job.
	if !j.inFlight.CompareAndSwap(false, true) {
		s.log.Debug("previous run still in flight, tick skipped", logx.String("job", j.name))
		return
	}
	defer j.inFlight.Store(false)

	ctx := s.runContext()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.log.Warn("job failed, retrying on next tick",
			logx.String("job", j.name),
			logx.Err(err),
			logx.Duration("took", time.Since(start)),
		)
		return
	}
	s.log.Debug("job ok", logx.String("job", j.name), logx.Duration("took", time.Since(start)))
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}
