// Package transport defines the external collaborator contracts the
// core workers talk through: flag snapshot fetch, event posting,
// streaming reads, stream cancellation, and local persistence. These
// interfaces are the boundary between the workers and any particular
// wire implementation.
package transport

import (
	"context"

	"github.com/edgeflag/flagcore/model"
)

// StreamHandle is the opaque token a StreamTransport hands back when a
// connection is established, so the caller can later cancel it from
// another goroutine. Zero means "no live connection".
type StreamHandle uint64

// FlagTransport fetches a full flag snapshot, used by both the
// polling worker's regular cadence and the streaming worker's
// "ping"-triggered snapshot path.
type FlagTransport interface {
	// FetchFlagSnapshot returns the HTTP-like response code (>=100,
	// or -1 for a local/network failure) and the raw payload bytes on
	// success.
	FetchFlagSnapshot(ctx context.Context) (code int, payload []byte, err error)
}

// EventTransport posts a serialized analytics event batch.
type EventTransport interface {
	SendEvents(ctx context.Context, batch []byte) (code int, err error)
}

// StreamTransport maintains a long-lived streaming connection.
// ReadStream blocks until disconnect; it must call onHandle
// exactly once with a non-zero handle once the connection is
// established, then call onLine for every received line with its
// trailing CR/LF already stripped, including empty lines as dispatch
// boundaries.
type StreamTransport interface {
	ReadStream(ctx context.Context, onLine func(line string), onHandle func(handle StreamHandle)) (code int, err error)

	// CancelRead causes an in-flight ReadStream call using this handle
	// to return promptly. Safe to call from any goroutine, including
	// concurrently with the ReadStream call it targets.
	CancelRead(handle StreamHandle)
}

// PersistenceTransport saves and loads a raw flag snapshot payload,
// keyed by namespace and user key. Called only with the client's read
// lock held, never the write lock.
type PersistenceTransport interface {
	Save(namespace, userKey string, payload []byte) error
	Load(namespace, userKey string) (payload []byte, ok bool, err error)
}

// EventBuffer is the external collaborator that accumulates analytics
// events and hands back a serialized batch for the event sender
// worker to post. Construction and flushing logic beyond
// this trigger/back-pressure contract is out of core scope;
// package eventbuffer provides a default implementation.
type EventBuffer interface {
	DrainBatch() (batch []byte, ok bool)
	EnqueueEvaluation(ev model.EvaluationEvent)
	EnqueueTrack(name string, data any, metric *float64)
	EnqueueIdentify(user model.User)
}
