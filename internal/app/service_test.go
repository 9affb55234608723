package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Int32
	stopCh   chan struct{}
}

func newFakeService(name string, block bool, startErr error) *fakeService {
	return &fakeService{name: name, block: block, startErr: startErr, stopCh: make(chan struct{})}
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if !f.block {
		return f.startErr
	}
	select {
	case <-ctx.Done():
	case <-f.stopCh:
	}
	return nil
}

func (f *fakeService) Stop(context.Context) error {
	if f.stopped.Add(1) == 1 {
		close(f.stopCh)
	}
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	failing := newFakeService("failing", false, errors.New("listen failed"))
	blocking := newFakeService("blocking", true, nil)

	err := NewRunner(blocking, failing).Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "listen failed" {
		t.Fatalf("expected start error, got %v", err)
	}
	if blocking.stopped.Load() != 1 || failing.stopped.Load() != 1 {
		t.Fatalf("expected every service stopped once, got blocking=%d failing=%d", blocking.stopped.Load(), failing.stopped.Load())
	}
}

func TestRunnerCancelIsCleanExit(t *testing.T) {
	blocking := newFakeService("blocking", true, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
	if blocking.stopped.Load() != 1 {
		t.Fatalf("expected service stopped")
	}
}

func TestRunnerRequiresServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if ValidMode("cron") || !ValidMode(ModeWorker) {
		t.Fatalf("unexpected mode validation")
	}
}
