package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/edgeflag/flagcore/logger"
)

// demoFlag mirrors the wire shape transport/http.Client expects back
// from /msdk/evalx/flags: a bare map of flag key to flag state.
type demoFlag struct {
	Value     any `json:"value"`
	Version   int `json:"version"`
	Variation int `json:"variation,omitempty"`
}

// demoServer is a deliberately tiny stand-in decisioning service: it
// holds one mutable flag snapshot in memory, serves it over HTTP, and
// re-broadcasts any update over SSE to every connected streaming
// client. It exists so ServeDemoCmd gives the rest of the CLI
// something real to talk to, not as a reference backend.
type demoServer struct {
	mu    sync.Mutex
	flags map[string]demoFlag

	subMu sync.Mutex
	subs  map[chan string]struct{}
}

func newDemoServer() *demoServer {
	return &demoServer{
		flags: map[string]demoFlag{
			"welcome-banner": {Value: true, Version: 1},
			"max-items":      {Value: 10, Version: 1},
			"theme":          {Value: "light", Version: 1},
		},
		subs: make(map[chan string]struct{}),
	}
}

func (s *demoServer) snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.flags)
}

func (s *demoServer) subscribe() chan string {
	ch := make(chan string, 8)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *demoServer) unsubscribe(ch chan string) {
	s.subMu.Lock()
	delete(s.subs, ch)
	s.subMu.Unlock()
	close(ch)
}

func (s *demoServer) broadcast(line string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

func (s *demoServer) handleFlags(w http.ResponseWriter, r *http.Request) {
	body, err := s.snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *demoServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	var batch []json.RawMessage
	_ = json.NewDecoder(r.Body).Decode(&batch)
	logger.Infow("demo server: received event batch", "count", len(batch))
	w.WriteHeader(http.StatusAccepted)
}

func (s *demoServer) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(w, line)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// tickUpdates periodically flips the theme flag and pushes a ping
// event, giving streaming clients something to observe.
func (s *demoServer) tickUpdates(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	light := true
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			light = !light
			theme := "light"
			if !light {
				theme = "dark"
			}
			f := s.flags["theme"]
			f.Value = theme
			f.Version++
			s.flags["theme"] = f
			s.mu.Unlock()
			s.broadcast("event: ping\ndata: {}\n\n")
		case <-stop:
			return
		}
	}
}

// ServeDemoCmd runs a small in-memory HTTP/SSE backend compatible with
// transport/http.Client, for exercising the library end to end without
// a real decisioning service.
var ServeDemoCmd = &cobra.Command{
	Use:   "serve-demo",
	Short: "Run a local demo HTTP/SSE backend",
	Long:  `Start a minimal in-memory decisioning service exposing /msdk/evalx/flags, /mobile/events/bulk, and /meval, so other flagcore commands (and the bundled HTTP transport) have something real to talk to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		tickInterval, _ := cmd.Flags().GetDuration("tick")

		srv := newDemoServer()
		stop := make(chan struct{})
		go srv.tickUpdates(tickInterval, stop)
		defer close(stop)

		mux := http.NewServeMux()
		mux.HandleFunc("/msdk/evalx/flags", srv.handleFlags)
		mux.HandleFunc("/mobile/events/bulk", srv.handleEvents)
		mux.HandleFunc("/meval", srv.handleStream)

		pterm.DefaultHeader.WithFullWidth().Println("flagcore demo backend")
		pterm.Info.Printfln("listening on %s (flags flip every %s)", addr, tickInterval)
		pterm.Info.Println("point another terminal's --base-url at this address")

		httpServer := &http.Server{Addr: addr, Handler: mux}
		return httpServer.ListenAndServe()
	},
}

func init() {
	ServeDemoCmd.Flags().String("addr", ":8765", "address to listen on")
	ServeDemoCmd.Flags().Duration("tick", 5*time.Second, "interval between simulated flag updates")
}
