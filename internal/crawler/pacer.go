package crawler

import (
	"context"
	"sync"
	"time"
)

// pacer enforces a minimum time between calls. Wait blocks until the
// interval has elapsed since the previous Wait returned, or until the
// context is canceled.
type pacer struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

func (p *pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	wait := time.Until(p.last.Add(p.interval))
	p.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
	return nil
}

// WaitN blocks for n intervals. Used between distinct items, which get
// a longer gap than requests within one item.
func (p *pacer) WaitN(ctx context.Context, n int) error {
	if p.interval <= 0 || n <= 0 {
		return nil
	}

	t := time.NewTimer(p.interval * time.Duration(n))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
	return nil
}
