package service

import (
	"context"
	"sync"
	"time"
)

// Backoff is a process-wide send gate. A rate limit reported for any recipient
// pauses every subsequent send until the gate reopens.
type Backoff struct {
	mu    sync.Mutex
	until time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBackoff() *Backoff {
	return &Backoff{now: time.Now, sleep: sleepCtx}
}

// Pause closes the gate for d. Overlapping pauses keep the later deadline.
func (b *Backoff) Pause(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if until := b.now().Add(d); until.After(b.until) {
		b.until = until
	}
}

// Wait blocks until the gate is open or ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		d := b.until.Sub(b.now())
		b.mu.Unlock()

		if d <= 0 {
			return nil
		}
		if err := b.sleep(ctx, d); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
