// Package scheduler runs periodic tasks on robfig/cron with overlap
// protection and panic recovery.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobfinder-engine/internal/errors"
)

type Task func(ctx context.Context) error

type entry struct {
	name string
	job  cron.Job
}

type Scheduler struct {
	cron  *cron.Cron
	chain cron.Chain
	log   *zap.Logger

	mu      sync.Mutex
	entries []entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	logger = logger.Named("scheduler")
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl)),
		chain:  cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers task to run at a fixed interval, plus once when Start
// is called. A run still in flight when the next one is due is skipped.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) error {
	if interval <= 0 {
		return errors.InvalidInput("interval must be positive for "+name, nil)
	}
	job := s.chain.Then(cron.FuncJob(func() {
		start := time.Now()
		if err := task(s.ctx); err != nil {
			s.log.Error("task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.log.Debug("task done", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}))
	s.cron.Schedule(cron.Every(interval), job)

	s.mu.Lock()
	s.entries = append(s.entries, entry{name: name, job: job})
	s.mu.Unlock()
	s.log.Info("scheduled", zap.String("task", name), zap.Duration("every", interval))
	return nil
}

// Start begins ticking and runs every registered task immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		s.wg.Add(1)
		go func(e entry) {
			defer s.wg.Done()
			e.job.Run()
		}(e)
	}
}

// Stop cancels the task context and waits for running tasks until ctx
// expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
