package client

import (
	"time"

	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
	"github.com/edgeflag/flagcore/sse"
	"github.com/edgeflag/flagcore/transport"
)

// runStreamer is the Streaming Worker state machine. It
// never holds c.mu across transport.ReadStream or across a sleep.
func (c *Client) runStreamer() {
	retries := 0

	for {
		c.mu.Lock()
		if c.terminalStatusLocked() {
			c.mu.Unlock()
			c.workerExiting()
			return
		}

		disabled := !c.streaming || c.offline || c.background
		c.mu.Unlock()

		if disabled {
			c.streamCond.WaitTimeout(30 * time.Second)
			continue
		}

		if c.transports.Stream == nil {
			// No stream transport configured: behave as if streaming
			// were disabled rather than busy-looping.
			c.streamCond.WaitTimeout(30 * time.Second)
			continue
		}

		code := c.readOnce()

		switch {
		case code == 401 || code == 403:
			c.mu.Lock()
			c.updateStatusLocked(StatusFailed)
			c.mu.Unlock()
			logger.Warnw("client: streaming worker saw auth failure", logger.FieldEnvironment, c.name, logger.FieldResponseCode, code)
			continue // next iteration observes terminal status and exits
		case code == -1:
			c.mu.RLock()
			unsolicited := c.streamHandle != 0
			c.mu.RUnlock()
			if unsolicited {
				retries++
			} else {
				retries = 0
			}
		default:
			// Any other response (>=100, non-auth): log and reconnect
			// with a reset retry counter, the same treatment any
			// non-auth rejection from a transport gets.
			logger.Warnw("client: streaming worker disconnected", logger.FieldEnvironment, c.name, logger.FieldResponseCode, code)
			retries = 0
		}

		backoff, newRetries := computeBackoff(retries)
		retries = newRetries
		logger.Debugw("client: streaming backoff", logger.FieldEnvironment, c.name, logger.FieldRetries, retries, logger.FieldBackoffMS, backoff.Milliseconds())
		sleepCtx(c.ctx, backoff)
	}
}

// readOnce performs one ReadStream call with c.mu released throughout,
// returning the response code observed on disconnect.
func (c *Client) readOnce() int {
	parser := sse.NewParser(c.dispatchStreamEvent, c.triggerSnapshotFetch, c.shouldStopStreamingFlag)

	code, err := c.transports.Stream.ReadStream(c.ctx, func(line string) {
		parser.Feed(line)
	}, func(handle transport.StreamHandle) {
		c.mu.Lock()
		c.streamHandle = handle
		c.mu.Unlock()
	})

	// streamHandle is deliberately left as-is here: a non-zero handle
	// surviving this return means the disconnect was unsolicited, which
	// is exactly what runStreamer's code == -1 branch checks to decide
	// whether to grow the retry counter. Only the intentional-cancel
	// paths (SetBackground, reinitializeConnection, Close) zero it,
	// right after they call CancelRead.
	if err != nil {
		logger.Debugw("client: stream transport error", logger.FieldEnvironment, c.name, logger.FieldError, err.Error())
		return -1
	}
	return code
}

func (c *Client) shouldStopStreamingFlag() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shouldStopStreaming || c.status.terminal()
}

// dispatchStreamEvent applies a decoded put/patch/delete payload to
// the flag store, marking the client Initialized on the first
// successful snapshot status transition rule.
func (c *Client) dispatchStreamEvent(eventName, data string) {
	payload, err := model.DecodePayload([]byte(data))
	if err != nil {
		logger.Warnw("client: failed to parse streamed payload, skipping", logger.FieldEventName, eventName, logger.FieldError, err.Error())
		return
	}

	switch eventName {
	case "put":
		c.store.PutSnapshot(payload)
		c.markInitializedOnce()
	case "patch":
		c.store.ApplyPatch(payload)
	case "delete":
		c.store.ApplyDelete(payload)
	default:
		logger.Warnw("client: unexpected event name reached dispatch", logger.FieldEventName, eventName)
	}
}

func (c *Client) markInitializedOnce() {
	c.mu.Lock()
	if c.status == StatusInitializing {
		c.updateStatusLocked(StatusInitialized)
	}
	c.mu.Unlock()
}

// triggerSnapshotFetch performs an immediate full snapshot fetch
// through the polling path (pollOnce) on the streaming goroutine, with
// no client lock held. This is the parser's "ping" dispatch: rather
// than carrying a payload, a ping just means "go fetch a full snapshot".
// The polling worker itself skips fetches while streaming is active,
// so the fetch is not handed off to it.
func (c *Client) triggerSnapshotFetch() {
	c.pollOnce()
}
