package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeReloader struct{ calls atomic.Int32 }

func (f *fakeReloader) ReloadAll(context.Context) ([]ReloadResult, error) {
	f.calls.Add(1)
	return nil, nil
}

func TestScheduler_DisabledWithZeroInterval(t *testing.T) {
	r := &fakeReloader{}
	s := &Scheduler{Reloader: r, Interval: 0}

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return with zero interval")
	}
	if r.calls.Load() != 0 {
		t.Fatalf("disabled scheduler triggered %d reloads", r.calls.Load())
	}
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	r := &fakeReloader{}
	s := &Scheduler{Reloader: r, Interval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if r.calls.Load() < 2 {
		t.Fatalf("calls = %d; want the immediate run plus at least one tick", r.calls.Load())
	}
}
