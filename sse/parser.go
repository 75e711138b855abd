// Package sse implements the core's incremental server-sent-event
// line parser. It is pure: it has no knowledge of the
// transport delivering lines, and dispatch is handed to the caller's
// callback rather than applied to any store directly, so it can run
// with no client lock held.
package sse

import (
	"strings"

	"github.com/edgeflag/flagcore/logger"
)

// Signal is the continuation result of feeding one line to the parser.
type Signal int

const (
	// Continue means the caller should keep reading and feeding lines.
	Continue Signal = iota
	// Stop means the caller's should-stop-streaming flag was observed;
	// the parser has cleared its buffers and the caller should return
	// from its read loop.
	Stop
)

// maxEventNameLen bounds the event-name buffer. Overflow is truncated,
// never allowed to corrupt memory — in Go that guarantee is automatic,
// but the cap is kept to match the documented framing contract.
const maxEventNameLen = 256

// DispatchFunc is invoked once per completed event, with no store
// lock held, the same discipline the store's own listener
// invocations follow.
type DispatchFunc func(eventName string, data string)

// Parser is a line-oriented incremental SSE parser. It is not safe for
// concurrent use from multiple goroutines; the streaming worker owns
// exactly one Parser per connection attempt.
type Parser struct {
	data      strings.Builder
	eventName string

	dispatch        DispatchFunc
	triggerSnapshot func()

	shouldStop func() bool
}

// NewParser builds a Parser. dispatch is called for every completed
// put/patch/delete event. triggerSnapshot is called when a "ping"
// event is dispatched.
// shouldStop is polled on every line and, when it reports true, causes
// Feed to clear buffers and return Stop instead of dispatching.
func NewParser(dispatch DispatchFunc, triggerSnapshot func(), shouldStop func() bool) *Parser {
	return &Parser{dispatch: dispatch, triggerSnapshot: triggerSnapshot, shouldStop: shouldStop}
}

// Feed processes one line with its terminator already stripped by the
// transport. It returns Stop once the caller's should-stop-streaming
// flag is observed.
func (p *Parser) Feed(line string) Signal {
	if p.shouldStop != nil && p.shouldStop() {
		p.reset()
		return Stop
	}

	switch {
	case line == "":
		p.onDispatchLine()
	case strings.HasPrefix(line, ":"):
		// comment, ignored
	case strings.HasPrefix(line, "data:"):
		p.appendData(line[len("data:"):])
	case strings.HasPrefix(line, "event:"):
		p.setEventName(line[len("event:"):])
	default:
		// any other line is silently ignored
	}

	return Continue
}

// RequestStop clears both buffers immediately, mirroring the buffer
// clear Feed performs when it returns Stop. Callers use this when
// abandoning a connection without feeding a final empty line.
func (p *Parser) RequestStop() {
	p.reset()
}

func (p *Parser) onDispatchLine() {
	defer p.reset()

	name := p.eventName
	data := p.data.String()

	if name == "" {
		logger.Warnw("sse: empty line with no event name, dropping", logger.FieldEventName, name)
		return
	}

	switch name {
	case "ping":
		if p.triggerSnapshot != nil {
			p.triggerSnapshot()
		}
	case "put", "patch", "delete":
		p.dispatch(name, data)
	default:
		logger.Warnw("sse: unknown event name, dropping", logger.FieldEventName, name)
	}
}

func (p *Parser) appendData(rest string) {
	rest = trimLeadingSpace(rest)
	if p.data.Len() > 0 {
		p.data.WriteByte('\n')
	}
	p.data.WriteString(rest)
}

func (p *Parser) setEventName(rest string) {
	rest = trimLeadingSpace(rest)
	if len(rest) > maxEventNameLen {
		rest = rest[:maxEventNameLen]
	}
	p.eventName = rest
}

func (p *Parser) reset() {
	p.data.Reset()
	p.eventName = ""
}

// trimLeadingSpace strips exactly one leading space, per the SSE field
// framing rule: "field: value" and "field:value" both mean "value".
func trimLeadingSpace(s string) string {
	if len(s) > 0 && s[0] == ' ' {
		return s[1:]
	}
	return s
}
