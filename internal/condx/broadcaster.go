// Package condx provides a channel-based stand-in for a condition
// variable, one per wakeup purpose: initialization, and the event,
// polling, and streaming workers.
//
// Go's sync.Cond has no timed wait, so Broadcaster follows the
// subscriber/channel notification shape used elsewhere for fan-out
// wakeups: Signal/Broadcast close the current generation channel
// (waking every current waiter) and install a fresh one.
package condx

import (
	"context"
	"sync"
	"time"
)

// Broadcaster lets any number of goroutines wait for the next signal,
// with an optional timeout or context cancellation.
type Broadcaster struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewBroadcaster returns a ready-to-use Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{ch: make(chan struct{})}
}

// Signal wakes every goroutine currently blocked in Wait/WaitTimeout.
// There is no single-waiter variant because every waiter in this
// package selects on the same generation channel; "signal one" vs.
// "broadcast all" is not observable here.
func (b *Broadcaster) Signal() {
	b.mu.Lock()
	old := b.ch
	b.ch = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Broadcast is an alias for Signal, kept as a distinct name at call
// sites that are conceptually waking every waiter rather than nudging
// one, even though the mechanics are identical.
func (b *Broadcaster) Broadcast() { b.Signal() }

// Wait blocks until the next Signal/Broadcast call.
func (b *Broadcaster) Wait() {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	<-ch
}

// WaitTimeout blocks until the next Signal/Broadcast call or until d
// elapses, whichever comes first. It reports whether it woke because
// of a signal (true) or timed out (false).
func (b *Broadcaster) WaitTimeout(d time.Duration) bool {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()

	if d <= 0 {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// WaitContext blocks until the next Signal/Broadcast call or until ctx
// is done, whichever comes first. It reports whether it woke because
// of a signal (true) or the context ended (false).
func (b *Broadcaster) WaitContext(ctx context.Context) bool {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()

	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}
