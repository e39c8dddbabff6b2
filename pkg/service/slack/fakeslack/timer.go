package fakeslack

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Timer records the requested backoff durations and fires immediately
type Timer struct {
	mu    sync.Mutex
	waits []time.Duration
}

// NewTimer returns an empty recording timer
func NewTimer() *Timer {
	return &Timer{}
}

// Factory adapts the timer to slack.WithTimer
func (t *Timer) Factory() func() backoff.Timer {
	return func() backoff.Timer {
		return &firingTimer{parent: t, c: make(chan time.Time, 1)}
	}
}

// Waits returns every duration a retry loop asked to sleep
func (t *Timer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

type firingTimer struct {
	parent *Timer
	c      chan time.Time
}

func (f *firingTimer) Start(d time.Duration) {
	f.parent.mu.Lock()
	f.parent.waits = append(f.parent.waits, d)
	f.parent.mu.Unlock()

	select {
	case f.c <- time.Now():
	default:
	}
}

func (f *firingTimer) Stop() {}

func (f *firingTimer) C() <-chan time.Time {
	return f.c
}
