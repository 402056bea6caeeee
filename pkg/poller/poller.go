package poller

import (
	"context"
	"sync"
	"time"

	"github.com/careview/platform/pkg/common/logger"
)

type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
)

// RefreshFunc is invoked once per tick. Errors are the callback's concern;
// the poller keeps ticking regardless.
type RefreshFunc func(ctx context.Context)

// Poller drives periodic refreshes for one dataset while its view is active.
// Start and Stop are idempotent lifecycle transitions: a second Start never
// spawns a duplicate timer, a second Stop is a no-op.
type Poller struct {
	mu       sync.Mutex
	dataset  string
	interval time.Duration
	refresh  RefreshFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(dataset string, interval time.Duration, refresh RefreshFunc) *Poller {
	return &Poller{
		dataset:  dataset,
		interval: interval,
		refresh:  refresh,
	}
}

// Start transitions idle -> polling and runs one immediate refresh before the
// ticker takes over.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	logger.WithDataset(p.dataset).WithField("interval", p.interval.String()).Info("Polling started")

	go p.run(ctx, p.done)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// Stop transitions polling -> idle and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	logger.WithDataset(p.dataset).Info("Polling stopped")
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return StatePolling
	}
	return StateIdle
}
