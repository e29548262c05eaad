package api

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleState implements GET /api/state (spec.md §4.8).
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	debugLog("GET /api/state")
	writeJSON(w, http.StatusOK, ToStateResponse(s.driver.Snapshot()))
}

// handleStep implements POST /api/step: advance exactly one proc-cycle.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	debugLog("POST /api/step")
	if err := s.driver.Step(); err != nil {
		writeJSON(w, http.StatusOK, RunResponse{State: ToStateResponse(s.driver.Snapshot()), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{State: ToStateResponse(s.driver.Snapshot())})
}

// handleRun implements POST /api/run: drive the machine forward until
// a breakpoint, a stationary PC, a host fault, or the driver's cycle
// budget.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req RunRequest
	_ = readJSON(r, &req) // an empty or absent body just means "no extra cap"

	ctx := r.Context()
	if req.MaxSteps > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go s.stopAfterSteps(ctx, cancel, req.MaxSteps)
	}

	_, err := s.driver.Run(ctx)
	resp := RunResponse{State: ToStateResponse(s.driver.Snapshot())}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// stopAfterSteps cancels ctx once the driver's cycle count has
// advanced by maxSteps from where it started, giving /api/run a
// per-call step cap layered on top of the driver's overall budget.
func (s *Server) stopAfterSteps(ctx context.Context, cancel context.CancelFunc, maxSteps uint64) {
	start := s.driver.Snapshot().Cycle
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.driver.Snapshot().Cycle-start >= maxSteps {
				cancel()
				return
			}
		}
	}
}

// handleReset implements POST /api/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	s.driver.Reset(0)
	writeJSON(w, http.StatusOK, ToStateResponse(s.driver.Snapshot()))
}

// handleBreakpoint implements POST/DELETE /api/breakpoint.
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request) {
	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.driver.AddBreakpoint(req.Address)
	case http.MethodDelete:
		s.driver.RemoveBreakpoint(req.Address)
	default:
		writeError(w, http.StatusMethodNotAllowed, "POST or DELETE only")
		return
	}
	writeJSON(w, http.StatusOK, s.driver.Breakpoints())
}
