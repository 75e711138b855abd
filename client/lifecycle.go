package client

import (
	"context"
	"time"

	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
)

// SetOffline toggles offline mode. Workers re-check it on their next
// iteration; no immediate wake is required because none of the three
// workers need to act faster than their normal cadence when going
// offline or coming back online. SetBackground and SetStreaming, by
// contrast, wake the polling and streaming workers.
func (c *Client) SetOffline(offline bool) {
	c.mu.Lock()
	c.offline = offline
	c.mu.Unlock()
}

// IsOffline reports the current offline flag.
func (c *Client) IsOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offline
}

// SetBackground moves the client between foreground and background
// mode. Going to the background sets should-stop-streaming, cancels
// any live stream handle through the stream transport, and wakes the
// polling and streaming broadcasters, so the streaming worker stays
// idle and the polling worker switches to the background interval.
// Coming back to the foreground clears should-stop-streaming and wakes
// both broadcasters again so streaming can resume.
func (c *Client) SetBackground(background bool) {
	c.mu.Lock()
	c.background = background
	if background {
		c.shouldStopStreaming = true
	} else {
		c.shouldStopStreaming = false
	}
	handle := c.streamHandle
	c.mu.Unlock()

	if background && handle != 0 {
		if c.transports.Stream != nil {
			c.transports.Stream.CancelRead(handle)
		}
		c.mu.Lock()
		c.streamHandle = 0
		c.mu.Unlock()
	}

	c.pollCond.Signal()
	c.streamCond.Signal()
}

// IsBackground reports the current background flag.
func (c *Client) IsBackground() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.background
}

// SetStreaming toggles whether the streaming worker should prefer a
// live connection over polling. This is a config.Config-level choice
// that can be changed at run time (neither config.Watch nor the CLI
// calls it); it takes effect on the streaming worker's next iteration.
func (c *Client) SetStreaming(enabled bool) {
	c.mu.Lock()
	c.streaming = enabled
	c.mu.Unlock()
	c.streamCond.Signal()
	c.pollCond.Signal()
}

// Identify installs a new shared user, enqueues an identify event, and
// reinitializes this client's connection. For multi-environment use,
// registry.Registry.Identify calls this on every registered client.
func (c *Client) Identify(ctx context.Context, user model.User) error {
	c.shared.SetUser(user)
	c.eventBuffer.EnqueueIdentify(user)
	c.reinitializeConnection()
	return nil
}

// reinitializeConnection transitions status back to Initializing
// (unless the status is already terminal), cancels any live stream
// handle, and signals both the polling and streaming broadcasters.
// Identify calls this after installing the new user.
func (c *Client) reinitializeConnection() {
	c.mu.Lock()
	if !c.status.terminal() {
		c.updateStatusLocked(StatusInitializing)
	}
	handle := c.streamHandle
	c.mu.Unlock()

	if handle != 0 {
		if c.transports.Stream != nil {
			c.transports.Stream.CancelRead(handle)
		}
		c.mu.Lock()
		c.streamHandle = 0
		c.mu.Unlock()
	}

	c.pollCond.Signal()
	c.streamCond.Signal()
}

// updateStatusLocked transitions status. Called only under the write
// lock. If the status actually changes, it invokes any registered
// status callback with the lock released and reacquired around the
// call, then always broadcasts every condition variable so
// AwaitInitialized callers and all three workers re-check promptly
// instead of sitting out their normal wait interval — this matters
// most for a Failed transition, which must wake a worker parked in a
// long disabled-streaming or idle-polling wait.
func (c *Client) updateStatusLocked(newStatus Status) {
	changed := c.status != newStatus
	if changed {
		c.status = newStatus
	}
	cb := c.statusCallback

	if changed && cb != nil {
		c.mu.Unlock()
		cb(newStatus)
		c.mu.Lock()
	}

	c.initCond.Broadcast()
	c.eventCond.Broadcast()
	c.pollCond.Broadcast()
	c.streamCond.Broadcast()
}

// StatusCallback registers fn to be invoked on every status change.
func (c *Client) StatusCallback(fn func(Status)) {
	c.mu.Lock()
	c.statusCallback = fn
	c.mu.Unlock()
}

// Status returns the current lifecycle status.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// IsInitialized reports whether status is currently Initialized.
func (c *Client) IsInitialized() bool {
	return c.Status() == StatusInitialized
}

// AwaitInitialized returns true immediately if status is already
// Initialized; otherwise it waits on the init broadcaster for up to
// timeout, re-reading status after every wakeup. Safe to
// call concurrently from multiple goroutines.
func (c *Client) AwaitInitialized(timeout time.Duration) bool {
	if c.IsInitialized() {
		return true
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return c.IsInitialized()
		}
		c.initCond.WaitTimeout(remaining)
		if c.IsInitialized() {
			return true
		}
		if c.Status().terminal() {
			return false
		}
		if time.Now().After(deadline) {
			return c.IsInitialized()
		}
	}
}

// Close transitions to ShuttingDown, cancels any live stream, wakes
// every broadcaster, and blocks until all three workers have returned
// or ctx ends. Close is idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.updateStatusLocked(StatusShuttingDown)
		handle := c.streamHandle
		c.mu.Unlock()

		if handle != 0 {
			if c.transports.Stream != nil {
				c.transports.Stream.CancelRead(handle)
			}
			c.mu.Lock()
			c.streamHandle = 0
			c.mu.Unlock()
		}

		c.cancel()
		c.initCond.Broadcast()
		c.eventCond.Broadcast()
		c.pollCond.Broadcast()
		c.streamCond.Broadcast()

		done := make(chan struct{})
		go func() {
			c.workers.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			logger.Warnw("client: close context ended before all workers exited", logger.FieldEnvironment, c.name)
		}
	})
	return nil
}
