package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"docucheck.backend/pkg/logger"
)

// Job is one periodic unit of background work
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler runs registered jobs on cron schedules. A run that is still in
// progress when its next tick fires is skipped.
type Scheduler struct {
	mu         sync.Mutex
	cron       *cron.Cron
	jobs       map[string]Job
	runTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	running    bool
}

// NewScheduler creates a scheduler whose runs are bounded by runTimeout
func NewScheduler(runTimeout time.Duration) *Scheduler {
	cl := cronLogger{log: logger.GetLogger().Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		jobs:       make(map[string]Job),
		runTimeout: runTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register schedules job on a cron expression, e.g. "@every 5m" or "*/10 * * * *"
func (s *Scheduler) Register(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}
	s.jobs[job.Name()] = job
	return nil
}

// Trigger runs a registered job immediately on the calling goroutine
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	s.run(job)
	return nil
}

// Start begins firing schedules
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	logger.Info(s.ctx, "Starting job scheduler", zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	logger.Info(context.Background(), "Job scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	start := time.Now()
	job.Run(ctx)
	logger.Debug(ctx, "Job finished", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
}

// cronLogger routes cron's own messages through zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
