// Package api implements component C11's HTTP+WebSocket front end: a
// single-session server exposing the driver's Step/Run/Snapshot
// surface over REST, and the cycle engine's trace stream over
// WebSocket, for downstream constraint-generation consumers (spec.md
// §1, §4.8). Adapted from the teacher's api package, collapsed from a
// multi-tenant SessionManager down to one session per server instance,
// matching spec.md §5's "one session per running machine" concurrency
// model.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rv32sim/rv32sim/service"
)

// Server is the HTTP+WebSocket front end for one running machine.
type Server struct {
	driver      *service.Driver
	broadcaster *Broadcaster
	mux         *http.ServeMux
	httpServer  *http.Server
	port        int
}

// NewServer wires a Server around an already-constructed driver. The
// caller is expected to have installed a tee tracer (see
// WrapTracerForBroadcast) on the underlying machine before traffic
// starts, so trace events reach both the recorder and this server's
// WebSocket subscribers.
func NewServer(driver *service.Driver, broadcaster *Broadcaster, port int) *Server {
	s := &Server{
		driver:      driver,
		broadcaster: broadcaster,
		mux:         http.NewServeMux(),
		port:        port,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/step", s.handleStep)
	s.mux.HandleFunc("/api/run", s.handleRun)
	s.mux.HandleFunc("/api/reset", s.handleReset)
	s.mux.HandleFunc("/api/breakpoint", s.handleBreakpoint)
}

// Handler returns the HTTP handler with CORS middleware applied,
// restricted to localhost origins like the teacher's corsMiddleware.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

// Start blocks serving HTTP on 127.0.0.1:port.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("api: listening on http://127.0.0.1:%d", s.port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server and disconnects every
// WebSocket client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isLocalOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalOrigin(origin string) bool {
	if origin == "" || strings.HasPrefix(origin, "file://") {
		return true
	}
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func readJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16)).Decode(v)
}
