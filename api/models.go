package api

import "github.com/rv32sim/rv32sim/service"

// StateResponse is the body of GET /api/state: a point-in-time snapshot
// of the running machine (spec.md §4.8 "/api/state returns a
// point-in-time snapshot"). Adapted from the teacher's
// RegistersResponse/SessionStatusResponse split, collapsed into one
// response shaped around service.Snapshot's RV32 fields instead of ARM
// R0-R12/SP/LR/PC/CPSR.
type StateResponse struct {
	Registers [32]uint32 `json:"registers"`
	PC        uint32     `json:"pc"`
	Mode      string     `json:"mode"`
	Cycle     uint64     `json:"cycle"`
	Trap      TrapInfo   `json:"trap"`
	Satp      uint32     `json:"satp"`
	State     string     `json:"state"`
	UARTText  []string   `json:"uartText,omitempty"`
	HostError string     `json:"hostError,omitempty"`
}

// TrapInfo mirrors service.TrapState for JSON transport.
type TrapInfo struct {
	Status  uint32 `json:"mstatus"`
	IE      uint32 `json:"mie"`
	IP      uint32 `json:"mip"`
	TVec    uint32 `json:"mtvec"`
	Scratch uint32 `json:"mscratch"`
	EPC     uint32 `json:"mepc"`
	Cause   uint32 `json:"mcause"`
	TVal    uint32 `json:"mtval"`
}

// RunRequest is the body of POST /api/run: an optional cap on how many
// cycles this particular run call may execute, layered on top of the
// driver's overall max-cycles budget.
type RunRequest struct {
	MaxSteps uint64 `json:"maxSteps,omitempty"`
}

// RunResponse reports why a run call returned.
type RunResponse struct {
	State StateResponse `json:"state"`
	Error string        `json:"error,omitempty"`
}

// BreakpointRequest is the body of POST/DELETE /api/breakpoint.
type BreakpointRequest struct {
	Address uint32 `json:"address"`
}

// ErrorResponse is the body of a non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToStateResponse converts a service.Snapshot to its wire shape.
func ToStateResponse(snap service.Snapshot) StateResponse {
	return StateResponse{
		Registers: snap.Registers.Registers,
		PC:        snap.Registers.PC,
		Mode:      snap.Registers.Mode,
		Cycle:     snap.Registers.Cycle,
		Trap: TrapInfo{
			Status:  snap.Trap.Status,
			IE:      snap.Trap.IE,
			IP:      snap.Trap.IP,
			TVec:    snap.Trap.TVec,
			Scratch: snap.Trap.Scratch,
			EPC:     snap.Trap.EPC,
			Cause:   snap.Trap.Cause,
			TVal:    snap.Trap.TVal,
		},
		Satp:      snap.Satp,
		State:     string(snap.State),
		UARTText:  snap.UARTText,
		HostError: snap.HostError,
	}
}
