package visualization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
	"golang.org/x/net/websocket"
)

// LockedBrain guards a brain shared between a stepping loop and the server.
type LockedBrain struct {
	mu sync.Mutex
	b  *brain.Brain
}

// NewLockedBrain wraps b.
func NewLockedBrain(b *brain.Brain) *LockedBrain {
	return &LockedBrain{b: b}
}

// With runs fn while holding the lock.
func (lb *LockedBrain) With(fn func(b *brain.Brain) error) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return fn(lb.b)
}

// Server serves the live activity view of one brain.
type Server struct {
	brain      *LockedBrain
	refresh    time.Duration
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
	done       <-chan struct{}
}

// NewServer creates a viewer for lb. refresh is how often the page polls.
func NewServer(lb *LockedBrain, refresh time.Duration) *Server {
	if refresh <= 0 {
		refresh = 200 * time.Millisecond
	}
	return &Server{brain: lb, refresh: refresh}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe listens on addr ("localhost:0" picks a free port) and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/dot", s.handleDOT)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.Handle("/api/stream", websocket.Handler(s.handleStream))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.done = ctx.Done()
	s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type pageData struct {
	APIBaseURL    string
	RefreshMillis int64
}

// RenderHTML produces the viewer page pointed at apiBaseURL.
func RenderHTML(apiBaseURL string, refresh time.Duration) ([]byte, error) {
	tmplBytes, err := templates.ReadFile("templates/activity.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("activity").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{APIBaseURL: apiBaseURL, RefreshMillis: refresh.Milliseconds()}); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	html, err := RenderHTML("http://"+s.Addr(), s.refresh)
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var m ActivityMap
	s.brain.With(func(b *brain.Brain) error {
		m = BuildActivityMap(b)
		return nil
	})
	writeJSON(w, m)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st brain.ActivityStats
	s.brain.With(func(b *brain.Brain) error {
		st = b.Stats()
		return nil
	})
	writeJSON(w, st)
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	var dot string
	s.brain.With(func(b *brain.Brain) error {
		dot = RenderDOT(b)
		return nil
	})
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(dot))
}

// handleStream pushes an activity map every refresh interval until the
// client goes away or the server stops.
func (s *Server) handleStream(ws *websocket.Conn) {
	defer ws.Close()
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		var m ActivityMap
		s.brain.With(func(b *brain.Brain) error {
			m = BuildActivityMap(b)
			return nil
		})
		if err := websocket.JSON.Send(ws, m); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ws.Request().Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
