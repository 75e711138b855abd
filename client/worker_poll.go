package client

import (
	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
)

// runPoller is the Polling Worker state machine.
func (c *Client) runPoller() {
	firstIteration := true

	for {
		c.mu.Lock()
		if c.terminalStatusLocked() {
			c.mu.Unlock()
			c.workerExiting()
			return
		}

		interval := c.shared.Config().PollingInterval()
		if c.background {
			interval = c.shared.Config().BackgroundPollingInterval()
		}

		skip := c.offline ||
			(c.background && c.shared.Config().DisableBackgroundUpdating) ||
			(!c.background && c.streaming && c.transports.Stream != nil)

		initializing := c.status == StatusInitializing
		c.mu.Unlock()

		if firstIteration && initializing && !skip {
			interval = 0
		}
		firstIteration = false

		if interval > 0 {
			c.pollCond.WaitTimeout(interval)
		}

		c.mu.RLock()
		terminal := c.terminalStatusLocked()
		c.mu.RUnlock()
		if terminal {
			continue // next loop top exits cleanly
		}

		if skip {
			continue
		}

		c.pollOnce()
	}
}

func (c *Client) pollOnce() {
	if c.transports.Flag == nil {
		return
	}

	code, payload, err := c.transports.Flag.FetchFlagSnapshot(c.ctx)
	if err != nil {
		logger.Warnw("client: poll request failed", logger.FieldEnvironment, c.name, logger.FieldError, err.Error())
		return
	}

	switch {
	case code == 401 || code == 403:
		c.mu.Lock()
		c.updateStatusLocked(StatusFailed)
		c.mu.Unlock()
		logger.Warnw("client: polling worker saw auth failure", logger.FieldEnvironment, c.name, logger.FieldResponseCode, code)
	case code == -1:
		logger.Debugw("client: poll transient failure, will retry next interval", logger.FieldEnvironment, c.name)
	case code >= 200 && code < 300:
		decoded, err := model.DecodePayload(payload)
		if err != nil {
			logger.Warnw("client: failed to parse poll payload, skipping", logger.FieldEnvironment, c.name, logger.FieldError, err.Error())
			return
		}
		c.store.PutSnapshot(decoded)
		c.markInitializedOnce()

		if c.transports.Persistence != nil {
			c.mu.RLock()
			userKey := c.shared.User().Key
			err := c.transports.Persistence.Save("features", userKey, payload)
			c.mu.RUnlock()
			if err != nil {
				logger.Warnw("client: failed to persist polled payload", logger.FieldEnvironment, c.name, logger.FieldError, err.Error())
			}
		}
	default:
		logger.Warnw("client: poll rejected", logger.FieldEnvironment, c.name, logger.FieldResponseCode, code)
	}
}
