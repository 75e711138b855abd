// Package client implements the lifecycle controller and the three
// background workers that keep a client's flags current: the event
// sender, the polling fetcher, and the server-sent-event streamer, all
// sharing one Client's state under a single reader-writer lock plus a
// condx.Broadcaster per wakeup purpose.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgeflag/flagcore/config"
	"github.com/edgeflag/flagcore/errors"
	"github.com/edgeflag/flagcore/flagstore"
	"github.com/edgeflag/flagcore/internal/condx"
	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
	"github.com/edgeflag/flagcore/transport"
)

// Transports bundles the external collaborators a Client talks to.
// StreamTransport and Persistence are optional: a nil StreamTransport
// means the client only ever polls (whatever the Streaming setting),
// and a nil Persistence means
// Restore-on-start and Save-after-poll are both skipped.
type Transports struct {
	Flag        transport.FlagTransport
	Event       transport.EventTransport
	Stream      transport.StreamTransport
	Persistence transport.PersistenceTransport
}

// Client is one environment's worth of state: status, offline/
// background flags, the live stream handle, and references to the
// flag store, event buffer, and shared user/config.
type Client struct {
	name string // environment name, for logging only

	mu                  sync.RWMutex
	status              Status
	offline             bool
	background          bool
	streaming           bool
	shouldStopStreaming bool
	streamHandle        transport.StreamHandle
	statusCallback      func(Status)

	store       *flagstore.Store
	shared      *SharedContext
	eventBuffer transport.EventBuffer
	transports  Transports

	initCond   *condx.Broadcaster
	eventCond  *condx.Broadcaster
	pollCond   *condx.Broadcaster
	streamCond *condx.Broadcaster

	liveWorkers atomic.Int32
	workers     *errgroup.Group

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New constructs a Client, warm-starts it from persistence if
// configured, enqueues an initial identify event, and starts the
// three background workers in that order: persistence load, identify,
// then worker startup.
func New(name string, shared *SharedContext, store *flagstore.Store, eventBuffer transport.EventBuffer, transports Transports) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		name:        name,
		status:      StatusInitializing,
		offline:     shared.Config().Offline,
		streaming:   shared.Config().Streaming,
		store:       store,
		shared:      shared,
		eventBuffer: eventBuffer,
		transports:  transports,
		initCond:    condx.NewBroadcaster(),
		eventCond:   condx.NewBroadcaster(),
		pollCond:    condx.NewBroadcaster(),
		streamCond:  condx.NewBroadcaster(),
		ctx:         ctx,
		cancel:      cancel,
		workers:     new(errgroup.Group),
	}

	if transports.Persistence != nil {
		user := shared.User()
		if payload, ok, err := transports.Persistence.Load("features", user.Key); err == nil && ok {
			if err := store.Restore(payload); err != nil {
				logger.Warnw("client: failed to restore persisted flags", logger.FieldError, err.Error())
			}
		}
	}

	eventBuffer.EnqueueIdentify(shared.User())

	c.startWorker(c.runEventSender)
	c.startWorker(c.runPoller)
	c.startWorker(c.runStreamer)

	return c
}

func (c *Client) startWorker(fn func()) {
	c.liveWorkers.Add(1)
	c.workers.Go(func() error {
		fn()
		return nil
	})
}

// workerExiting decrements the live-worker count and, when it reaches
// zero, signals the init broadcaster so AwaitInitialized callers
// re-check one final time after every worker has torn down.
func (c *Client) workerExiting() {
	if c.liveWorkers.Add(-1) == 0 {
		c.initCond.Broadcast()
	}
}

// terminalStatusLocked reports whether status is Failed or
// ShuttingDown. Callers must hold c.mu (read or write).
func (c *Client) terminalStatusLocked() bool {
	return c.status.terminal()
}

// Name returns the environment name this client was registered under.
func (c *Client) Name() string { return c.name }

// Store exposes the flag store for the variation package's public
// surface to query directly under its own lock.
func (c *Client) Store() *flagstore.Store { return c.store }

// EnqueueEvaluation forwards an evaluation event to the configured
// event buffer; used by package variation after every lookup.
func (c *Client) EnqueueEvaluation(ev model.EvaluationEvent) {
	c.eventBuffer.EnqueueEvaluation(ev)
}

// Track enqueues a named custom event with no data or metric.
func (c *Client) Track(name string) {
	c.eventBuffer.EnqueueTrack(name, nil, nil)
}

// TrackData enqueues a named custom event carrying arbitrary data.
func (c *Client) TrackData(name string, data any) {
	c.eventBuffer.EnqueueTrack(name, data, nil)
}

// TrackMetric enqueues a named custom event carrying data and a metric value.
func (c *Client) TrackMetric(name string, data any, metric float64) {
	c.eventBuffer.EnqueueTrack(name, data, &metric)
}

// SaveFlags serializes the current store contents via the configured
// PersistenceTransport, a no-op if none was configured.
func (c *Client) SaveFlags(ctx context.Context) error {
	if c.transports.Persistence == nil {
		return nil
	}
	blob, err := c.store.Serialize()
	if err != nil {
		return errors.Wrap(err, "failed to serialize flags")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	userKey := c.shared.User().Key
	return c.transports.Persistence.Save("features", userKey, blob)
}

// RestoreFlags applies PutSnapshot semantics to the last persisted
// payload, a no-op if none was configured or none is stored.
func (c *Client) RestoreFlags() error {
	if c.transports.Persistence == nil {
		return nil
	}
	userKey := c.shared.User().Key
	payload, ok, err := c.transports.Persistence.Load("features", userKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return c.store.Restore(payload)
}

// AllFlags returns every currently known flag record.
func (c *Client) AllFlags() []*model.FlagRecord {
	return c.store.GetAll()
}

// CurrentUser returns the shared user this client currently evaluates
// flags against, used by package variation to stamp evaluation events.
func (c *Client) CurrentUser() model.User {
	return c.shared.User()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
