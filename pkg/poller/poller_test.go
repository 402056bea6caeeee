package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/careview/platform/pkg/common/logger"
)

func init() {
	logger.Init()
}

func TestStartRunsImmediateRefresh(t *testing.T) {
	var calls atomic.Int32
	p := New("patients", time.Hour, func(ctx context.Context) {
		calls.Add(1)
	})

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("refresh never invoked")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	p := New("patients", 20*time.Millisecond, func(ctx context.Context) {
		calls.Add(1)
	})

	p.Start(context.Background())
	p.Start(context.Background())
	p.Start(context.Background())

	time.Sleep(110 * time.Millisecond)
	p.Stop()

	// One timer: immediate refresh plus ~5 ticks. Duplicate timers would
	// roughly triple the count.
	if n := calls.Load(); n > 9 {
		t.Fatalf("too many refreshes for a single timer: %d", n)
	}
	if p.State() != StateIdle {
		t.Fatalf("expected idle after stop, got %s", p.State())
	}
}

func TestStopIsIdempotentAndHaltsTicks(t *testing.T) {
	var calls atomic.Int32
	p := New("doctors", 10*time.Millisecond, func(ctx context.Context) {
		calls.Add(1)
	})

	p.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	p.Stop()
	p.Stop()

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != n {
		t.Fatal("refresh ran after Stop")
	}
}

func TestStateTransitions(t *testing.T) {
	p := New("doctors", time.Hour, func(ctx context.Context) {})
	if p.State() != StateIdle {
		t.Fatalf("expected idle, got %s", p.State())
	}
	p.Start(context.Background())
	if p.State() != StatePolling {
		t.Fatalf("expected polling, got %s", p.State())
	}
	p.Stop()
	if p.State() != StateIdle {
		t.Fatalf("expected idle, got %s", p.State())
	}
}
