// Package eventbuffer provides a default in-memory implementation of
// the EventBuffer contract: enqueue evaluation/track/identify
// events and drain a serialized batch for the event sender worker to
// post. Event-batch construction and flushing logic beyond this
// trigger/back-pressure contract is an external collaborator's concern
// — this implementation keeps the wire shape intentionally
// simple (one JSON array of tagged events).
package eventbuffer

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
)

// maxBufferedEvents bounds memory use; once full, new events are
// dropped with a warning rather than growing unbounded, giving the
// event sender worker's back-pressure contract a concrete enforcement
// point.
const maxBufferedEvents = 10000

type wireEvent struct {
	ID   string          `json:"id"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Buffer is a thread-safe, independent-per-client event queue. Each
// client.Client owns its own Buffer, so events from one environment
// never leak into another's batch.
type Buffer struct {
	mu     sync.Mutex
	events []wireEvent
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) enqueue(kind string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) >= maxBufferedEvents {
		logger.Warnw("eventbuffer: buffer full, dropping event", "kind", kind)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	b.events = append(b.events, wireEvent{ID: uuid.NewString(), Kind: kind, Data: data})
}

// EnqueueEvaluation implements transport.EventBuffer.
func (b *Buffer) EnqueueEvaluation(ev model.EvaluationEvent) {
	b.enqueue("evaluation", struct {
		FlagKey   string  `json:"flagKey"`
		Value     any     `json:"value"`
		Variation *int    `json:"variation,omitempty"`
		Default   any     `json:"default"`
		UserKey   string  `json:"userKey"`
	}{
		FlagKey:   ev.FlagKey,
		Value:     json.RawMessage(ev.Value.AsJSON()),
		Variation: ev.Variation,
		Default:   json.RawMessage(ev.Default.AsJSON()),
		UserKey:   ev.User.Key,
	})
}

// EnqueueTrack implements transport.EventBuffer.
func (b *Buffer) EnqueueTrack(name string, data any, metric *float64) {
	b.enqueue("track", struct {
		Name   string   `json:"name"`
		Data   any      `json:"data,omitempty"`
		Metric *float64 `json:"metricValue,omitempty"`
	}{Name: name, Data: data, Metric: metric})
}

// EnqueueIdentify implements transport.EventBuffer.
func (b *Buffer) EnqueueIdentify(user model.User) {
	b.enqueue("identify", struct {
		UserKey string `json:"userKey"`
	}{UserKey: user.Key})
}

// DrainBatch returns and clears the buffered events as a JSON array,
// or (nil, false) if nothing is buffered.
func (b *Buffer) DrainBatch() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil, false
	}
	batch := b.events
	b.events = nil

	out, err := json.Marshal(batch)
	if err != nil {
		return nil, false
	}
	return out, true
}
