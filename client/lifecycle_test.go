package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflag/flagcore/config"
	"github.com/edgeflag/flagcore/eventbuffer"
	"github.com/edgeflag/flagcore/flagstore"
	"github.com/edgeflag/flagcore/model"
	"github.com/edgeflag/flagcore/transport"
)

func testConfig() config.Config {
	return config.Config{
		PollingIntervalMillis:           5,
		EventsFlushIntervalMillis:       5,
		BackgroundPollingIntervalMillis: 3600000,
		Streaming:                       false,
	}
}

type authFailingFlagTransport struct{}

func (authFailingFlagTransport) FetchFlagSnapshot(ctx context.Context) (int, []byte, error) {
	return 401, nil, nil
}

// Scenario 4: auth failure.
func TestClient_AuthFailurePropagatesAndStopsWorkers(t *testing.T) {
	shared := NewSharedContext(model.User{Key: "u1"}, testConfig())
	c := New("default", shared, flagstore.New(), eventbuffer.New(), Transports{
		Flag: authFailingFlagTransport{},
	})

	require.Eventually(t, func() bool {
		return c.Status() == StatusFailed
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return c.liveWorkers.Load() == 0
	}, time.Second, time.Millisecond)

	assert.False(t, c.AwaitInitialized(50*time.Millisecond))

	_ = c.Close(context.Background())
}

type blockingFlagTransport struct{ calls atomic.Int32 }

func (b *blockingFlagTransport) FetchFlagSnapshot(ctx context.Context) (int, []byte, error) {
	b.calls.Add(1)
	return 200, []byte(`{"alpha":{"value":true,"version":1}}`), nil
}

func TestClient_AwaitInitialized_ReturnsTrueOncePolled(t *testing.T) {
	shared := NewSharedContext(model.User{Key: "u1"}, testConfig())
	c := New("default", shared, flagstore.New(), eventbuffer.New(), Transports{
		Flag: &blockingFlagTransport{},
	})
	defer c.Close(context.Background())

	assert.True(t, c.AwaitInitialized(time.Second))
	assert.True(t, c.IsInitialized())
}

func TestClient_Close_JoinsAllWorkers(t *testing.T) {
	shared := NewSharedContext(model.User{Key: "u1"}, testConfig())
	c := New("default", shared, flagstore.New(), eventbuffer.New(), Transports{})

	err := c.Close(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.liveWorkers.Load())

	// Close is idempotent.
	require.NoError(t, c.Close(context.Background()))
}

type handleTrackingStreamTransport struct {
	cancelled atomic.Int32
	handle    atomic.Uint64
}

func (s *handleTrackingStreamTransport) ReadStream(ctx context.Context, onLine func(string), onHandle func(transport.StreamHandle)) (int, error) {
	s.handle.Store(1)
	onHandle(transport.StreamHandle(1))
	<-ctx.Done()
	return -1, nil
}

func (s *handleTrackingStreamTransport) CancelRead(handle transport.StreamHandle) {
	s.cancelled.Add(1)
}

func TestClient_SetBackground_CancelsStream(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming = true
	shared := NewSharedContext(model.User{Key: "u1"}, cfg)
	stream := &handleTrackingStreamTransport{}
	c := New("default", shared, flagstore.New(), eventbuffer.New(), Transports{
		Stream: stream,
	})
	defer c.Close(context.Background())

	require.Eventually(t, func() bool {
		return stream.handle.Load() != 0
	}, time.Second, time.Millisecond)

	c.SetBackground(true)

	require.Eventually(t, func() bool {
		return stream.cancelled.Load() > 0
	}, time.Second, time.Millisecond)
}
