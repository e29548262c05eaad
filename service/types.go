package service

import "github.com/rv32sim/rv32sim/vm"

// RegisterState is a point-in-time snapshot of the general register
// file and program counter, shaped for the debugger front ends and the
// API's /api/state endpoint.
type RegisterState struct {
	Registers [vm.GeneralRegisterCount]uint32
	PC        uint32
	Mode      string
	Cycle     uint64
}

// TrapState mirrors the machine trap CSR bundle for display.
type TrapState struct {
	Status  uint32
	IE      uint32
	IP      uint32
	TVec    uint32
	Scratch uint32
	EPC     uint32
	Cause   uint32
	TVal    uint32
}

// BreakpointInfo represents a breakpoint for UI display.
type BreakpointInfo struct {
	Address uint32 `json:"address"`
	Enabled bool   `json:"enabled"`
}

// ExecutionState is the current state of the driver's run loop.
type ExecutionState string

const (
	StateRunning    ExecutionState = "running"
	StateHalted     ExecutionState = "halted"
	StateBreakpoint ExecutionState = "breakpoint"
	StateError      ExecutionState = "error"
)

// Snapshot is the full point-in-time view the API and debugger front
// ends poll: registers, trap CSRs, oracle/UART state, and run state.
// Grounded on the teacher's RegisterState/ExecutionState split
// (service/types.go), widened to RV32's CSR and oracle surface.
type Snapshot struct {
	Registers RegisterState
	Trap      TrapState
	Satp      uint32
	State     ExecutionState
	Cycle     uint64
	UARTText  []string
	HostError string // non-empty once Machine.HostError() is set
}
