// Package web provides an HTTP status server for the flame-sensor daemon.
package web

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/sweeney/flame-sensor/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer      *http.Server
	tracker         *status.Tracker
	minDriftSamples uint32
}

// New creates a Server that reads state from the given tracker.
// minDriftSamples gates the ambient section of /debug.txt.
func New(addr string, tracker *status.Tracker, minDriftSamples uint32) *Server {
	s := &Server{tracker: tracker, minDriftSamples: minDriftSamples}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/debug.txt", s.handleDebug)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
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
	if err := renderHTML(w, snap); err != nil {
		log.Printf("web: render status page: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleDebug serves the engine diagnostics in the same text form the
// daemon writes to its log.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := snap.Engine.WriteDebug(w, s.minDriftSamples); err != nil {
		log.Printf("web: write debug dump: %v", err)
	}
}
