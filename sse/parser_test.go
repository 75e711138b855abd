package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchCall struct {
	event string
	data  string
}

func TestParser_PutDispatch(t *testing.T) {
	var calls []dispatchCall
	p := NewParser(func(event, data string) {
		calls = append(calls, dispatchCall{event, data})
	}, nil, func() bool { return false })

	sig := feedLines(p, "event: put", "data: {\"alpha\":true}", "")
	assert.Equal(t, Continue, sig)
	require.Len(t, calls, 1)
	assert.Equal(t, "put", calls[0].event)
	assert.Equal(t, `{"alpha":true}`, calls[0].data)
}

func TestParser_MultilineData(t *testing.T) {
	var calls []dispatchCall
	p := NewParser(func(event, data string) {
		calls = append(calls, dispatchCall{event, data})
	}, nil, func() bool { return false })

	feedLines(p, "event: patch", "data: line one", "data: line two", "")
	require.Len(t, calls, 1)
	assert.Equal(t, "line one\nline two", calls[0].data)
}

func TestParser_CommentsAndUnknownLinesIgnored(t *testing.T) {
	var calls []dispatchCall
	p := NewParser(func(event, data string) {
		calls = append(calls, dispatchCall{event, data})
	}, nil, func() bool { return false })

	feedLines(p, ":heartbeat", "retry: 1000", "event: put", "data: {}", "")
	require.Len(t, calls, 1)
	assert.Equal(t, "put", calls[0].event)
}

func TestParser_EmptyLineWithNoEventNameDropped(t *testing.T) {
	called := false
	p := NewParser(func(event, data string) { called = true }, nil, func() bool { return false })

	feedLines(p, "data: orphan", "")
	assert.False(t, called)
}

func TestParser_PingTriggersSnapshotNotDispatch(t *testing.T) {
	dispatched := false
	snapshotTriggered := false
	p := NewParser(
		func(event, data string) { dispatched = true },
		func() { snapshotTriggered = true },
		func() bool { return false },
	)

	feedLines(p, "event: ping", "")
	assert.False(t, dispatched)
	assert.True(t, snapshotTriggered)
}

func TestParser_UnknownEventNameWarnedAndDropped(t *testing.T) {
	dispatched := false
	p := NewParser(func(event, data string) { dispatched = true }, nil, func() bool { return false })

	feedLines(p, "event: frobnicate", "data: {}", "")
	assert.False(t, dispatched)
}

func TestParser_BuffersClearedAfterDispatch(t *testing.T) {
	var calls []dispatchCall
	p := NewParser(func(event, data string) {
		calls = append(calls, dispatchCall{event, data})
	}, nil, func() bool { return false })

	feedLines(p, "event: put", "data: first", "")
	feedLines(p, "data: second", "")

	require.Len(t, calls, 1)
	assert.Equal(t, "", p.eventName)
	assert.Equal(t, 0, p.data.Len())
}

func TestParser_StopClearsBuffersAndReturnsStop(t *testing.T) {
	stop := false
	p := NewParser(func(event, data string) {}, nil, func() bool { return stop })

	p.Feed("event: put")
	p.Feed("data: partial")
	stop = true
	sig := p.Feed("data: more")

	assert.Equal(t, Stop, sig)
	assert.Equal(t, "", p.eventName)
	assert.Equal(t, 0, p.data.Len())
}

func TestParser_EventNameTruncatedNotCorrupted(t *testing.T) {
	p := NewParser(func(event, data string) {}, nil, func() bool { return false })

	long := make([]byte, maxEventNameLen*4)
	for i := range long {
		long[i] = 'x'
	}
	p.Feed("event: " + string(long))
	assert.LessOrEqual(t, len(p.eventName), maxEventNameLen)
}

func feedLines(p *Parser, lines ...string) Signal {
	var last Signal
	for _, l := range lines {
		last = p.Feed(l)
	}
	return last
}
