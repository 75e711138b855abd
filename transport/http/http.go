// Package http is a reference implementation of the transport
// contracts against a real HTTP + SSE-over-HTTP backend. It is
// deliberately minimal: HTTP transport and SSE byte transport are
// explicitly out of the core's scope, so this package exists
// only to give the rest of the module something concrete to run
// against in tests and the demo CLI, not to be the focus of review.
package http

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/edgeflag/flagcore/transport"
)

// Client talks to a flagcore-compatible decisioning service over plain
// HTTP and SSE. MobileKey is sent as a bearer token straight through
// to the server with no interpretation on this side.
type Client struct {
	BaseURL   string
	MobileKey string
	HTTP      *http.Client

	mu          sync.Mutex
	cancelFuncs map[transport.StreamHandle]context.CancelFunc
	nextHandle  transport.StreamHandle
}

// NewClient returns a Client ready to use; HTTP defaults to
// http.DefaultClient if nil.
func NewClient(baseURL, mobileKey string) *Client {
	return &Client{
		BaseURL:     baseURL,
		MobileKey:   mobileKey,
		HTTP:        http.DefaultClient,
		cancelFuncs: make(map[transport.StreamHandle]context.CancelFunc),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.MobileKey)
	return req, nil
}

// FetchFlagSnapshot implements transport.FlagTransport.
func (c *Client) FetchFlagSnapshot(ctx context.Context) (int, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/msdk/evalx/flags")
	if err != nil {
		return -1, nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return -1, nil, nil // network failure maps to -1, not a Go error
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return -1, nil, nil
	}
	return resp.StatusCode, body, nil
}

// SendEvents implements transport.EventTransport.
func (c *Client) SendEvents(ctx context.Context, batch []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mobile/events/bulk", nil)
	if err != nil {
		return -1, err
	}
	req.Header.Set("Authorization", "Bearer "+c.MobileKey)
	req.Header.Set("Content-Type", "application/json")
	req.Body = io.NopCloser(bytes.NewReader(batch))
	req.ContentLength = int64(len(batch))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return -1, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// ReadStream implements transport.StreamTransport against a
// text/event-stream endpoint, splitting on bare newlines and handing
// each line to onLine with its terminator stripped.
func (c *Client) ReadStream(ctx context.Context, onLine func(string), onHandle func(transport.StreamHandle)) (int, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := c.newRequest(streamCtx, http.MethodGet, "/meval")
	if err != nil {
		return -1, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return -1, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}

	handle := c.registerHandle(cancel)
	defer c.releaseHandle(handle)
	onHandle(handle)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil && streamCtx.Err() == nil {
		return -1, nil
	}
	return -1, nil // any disconnect not carrying its own HTTP status counts as local failure
}

// CancelRead implements transport.StreamTransport.
func (c *Client) CancelRead(handle transport.StreamHandle) {
	c.mu.Lock()
	cancel, ok := c.cancelFuncs[handle]
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *Client) registerHandle(cancel context.CancelFunc) transport.StreamHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHandle++
	h := c.nextHandle
	c.cancelFuncs[h] = cancel
	return h
}

func (c *Client) releaseHandle(handle transport.StreamHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancelFuncs, handle)
}

// String identifies the transport in logs.
func (c *Client) String() string { return "http-transport(" + c.BaseURL + ")" }
