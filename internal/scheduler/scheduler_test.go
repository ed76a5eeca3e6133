package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/scheduler"
)

func TestStart_RunsImmediately(t *testing.T) {
	s := scheduler.New(zaptest.NewLogger(t))
	ran := make(chan struct{}, 1)
	if err := s.Every(time.Hour, "probe", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run at start")
	}
}

func TestEvery_RejectsNonPositiveInterval(t *testing.T) {
	s := scheduler.New(zaptest.NewLogger(t))
	if err := s.Every(0, "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error")
	}
}

func TestStop_CancelsTaskContext(t *testing.T) {
	s := scheduler.New(zaptest.NewLogger(t))
	started := make(chan struct{})
	var cancelled atomic.Bool
	_ = s.Every(time.Hour, "long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !cancelled.Load() {
		t.Fatal("task context was not cancelled")
	}
}

func TestStart_RecoversPanics(t *testing.T) {
	s := scheduler.New(zaptest.NewLogger(t))
	ok := make(chan struct{}, 1)
	_ = s.Every(time.Hour, "panics", func(context.Context) error { panic("boom") })
	_ = s.Every(time.Hour, "fine", func(context.Context) error {
		ok <- struct{}{}
		return nil
	})
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ok:
	case <-time.After(5 * time.Second):
		t.Fatal("healthy task did not run")
	}
}
