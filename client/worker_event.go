package client

import (
	"time"

	"github.com/edgeflag/flagcore/logger"
)

// runEventSender is the Event Sender Worker state machine.
func (c *Client) runEventSender() {
	finalFlush := false

	for {
		if c.Status() == StatusFailed {
			c.workerExiting()
			return
		}
		if finalFlush {
			// The designated final flush pass already ran.
			c.workerExiting()
			return
		}

		if c.Status() == StatusShuttingDown {
			finalFlush = true // this iteration is the final flush
		} else {
			c.eventCond.WaitTimeout(c.shared.Config().EventsFlushInterval())
			if c.Status() == StatusShuttingDown {
				finalFlush = true
			}
		}

		if c.Status() == StatusFailed {
			c.workerExiting()
			return
		}

		c.sendOnce()
	}
}

func (c *Client) sendOnce() {
	if c.IsOffline() {
		return
	}

	batch, ok := c.eventBuffer.DrainBatch()
	if !ok {
		return
	}

	if c.transports.Event == nil {
		return
	}

	code, err := c.postBatch(batch)
	if err == nil && code == -1 {
		logger.Debugw("client: event post failed, retrying once", logger.FieldEnvironment, c.name)
		sleepCtx(c.ctx, time.Second)
		code, err = c.postBatch(batch)
	}

	switch {
	case err != nil:
		logger.Warnw("client: event post errored, dropping batch", logger.FieldEnvironment, c.name, logger.FieldError, err.Error())
	case code == 401 || code == 403:
		c.mu.Lock()
		c.updateStatusLocked(StatusFailed)
		c.mu.Unlock()
		logger.Warnw("client: event sender saw auth failure, abandoning batch", logger.FieldEnvironment, c.name, logger.FieldResponseCode, code)
	case code == -1:
		logger.Warnw("client: event post failed twice, dropping batch", logger.FieldEnvironment, c.name)
	default:
		// 2xx or any other non-auth response: treated as delivered,
		// since retrying a permanent server-side rejection forever
		// would just loop.
	}
}

func (c *Client) postBatch(batch []byte) (int, error) {
	return c.transports.Event.SendEvents(c.ctx, batch)
}

// Flush signals the event broadcaster without waiting for completion.
// registry.Registry.Flush calls this on every registered client to
// flush them all without blocking on any single one.
func (c *Client) Flush() {
	c.eventCond.Signal()
}
