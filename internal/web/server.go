// Package web provides an HTTP status page and remote controls for the panel.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/panel-stopwatch/internal/status"
)

// Controls is the set of operations the control endpoints trigger.
// Implementations must be safe to call from HTTP handler goroutines.
type Controls interface {
	Toggle()
	Reset()
	Activity()
	Quit()
}

// Server serves the status page and control endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	controls   Controls
}

// New creates a Server that reads state from the given tracker. A nil
// controls disables the control endpoints.
func New(addr string, tracker *status.Tracker, controls Controls) *Server {
	s := &Server{tracker: tracker, controls: controls}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/api/toggle", s.handleControl(func(c Controls) { c.Toggle() }))
	mux.HandleFunc("/api/reset", s.handleControl(func(c Controls) { c.Reset() }))
	mux.HandleFunc("/api/activity", s.handleControl(func(c Controls) { c.Activity() }))
	mux.HandleFunc("/api/quit", s.handleControl(func(c Controls) { c.Quit() }))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's request multiplexer.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on ln. It blocks until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, s.controls != nil)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleControl(do func(Controls)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.controls == nil {
			http.Error(w, "controls disabled", http.StatusServiceUnavailable)
			return
		}
		do(s.controls)
		w.WriteHeader(http.StatusAccepted)
	}
}
