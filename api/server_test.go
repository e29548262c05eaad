package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rv32sim/rv32sim/service"
	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

func newTestServer(t *testing.T) (*Server, *service.Driver) {
	t.Helper()
	machine := vm.NewMachine(0x1000, vm.FullIM(), vm.IdentityTranslator{}, trace.NopTracer{}, 1<<16)
	// jal x0, 0: jump to self, the canonical halt idiom.
	if err := machine.Memory.SetWord(0x1000/4, 0x0000006F); err != nil {
		t.Fatalf("SetWord returned error: %v", err)
	}
	driver := service.NewDriver(machine, trace.NewRecorder(64), 0x1000, 0)
	return NewServer(driver, NewBroadcaster(), 0), driver
}

func TestHandleHealthReportsOK(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %+v", body)
	}
}

func TestHandleStateReturnsSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.PC != 0x1000 {
		t.Fatalf("expected PC 0x1000, got %#x", resp.PC)
	}
}

func TestHandleStateRejectsNonGET(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleStepAdvancesOneCycle(t *testing.T) {
	srv, driver := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/step", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if driver.Snapshot().Cycle != 1 {
		t.Fatalf("expected cycle 1 after one /api/step, got %d", driver.Snapshot().Cycle)
	}
}

func TestHandleBreakpointAddsAndRemoves(t *testing.T) {
	srv, driver := newTestServer(t)
	body, _ := json.Marshal(BreakpointRequest{Address: 0x1000})

	postReq := httptest.NewRequest(http.MethodPost, "/api/breakpoint", bytes.NewReader(body))
	postRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(postRec, postReq)
	if postRec.Code != http.StatusOK {
		t.Fatalf("expected 200 on POST, got %d", postRec.Code)
	}
	if bps := driver.Breakpoints(); len(bps) != 1 {
		t.Fatalf("expected 1 breakpoint, got %d", len(bps))
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/api/breakpoint", bytes.NewReader(body))
	delRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200 on DELETE, got %d", delRec.Code)
	}
	if bps := driver.Breakpoints(); len(bps) != 0 {
		t.Fatalf("expected 0 breakpoints after delete, got %d", len(bps))
	}
}

func TestHandleResetRestoresEntryPoint(t *testing.T) {
	srv, driver := newTestServer(t)
	if err := driver.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if driver.Snapshot().Cycle != 0 {
		t.Fatalf("expected cycle reset to 0, got %d", driver.Snapshot().Cycle)
	}
}

func TestCORSAllowsLocalhostOrigin(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected CORS header to echo localhost origin, got %q", got)
	}
}
