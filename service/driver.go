// Package service wraps a *vm.Machine behind a thread-safe driver
// reused by the CLI, the TUI/GUI debugger front ends and the API
// server, component C11 "Driver Loop" (spec.md §3). Adapted from the
// teacher's service/debugger_service.go: the same RWMutex-guarded
// struct-wrapping-a-machine shape and Step/Run/Reset/Snapshot surface,
// trimmed of the ARM debugger's source-map, stdin-pipe and Wails-event
// machinery, which has no RV32/oracle equivalent.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rv32sim/rv32sim/loader"
	"github.com/rv32sim/rv32sim/oracle"
	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

// Driver is the shared execution-control surface spec.md §4.8 assigns
// to the CLI, TUI, GUI and API front ends alike.
//
// Lock ordering: Driver holds its own mutex and never calls back into
// a front end while holding it, so there is only one lock to reason
// about (unlike the teacher's debugger+service double-mutex scheme,
// which this simulator has no need for since there is no nested
// debugger object).
type Driver struct {
	mu sync.RWMutex

	machine  *vm.Machine
	recorder *trace.Recorder
	oracle   *oracle.Oracle // optional; nil when no oracle port is wired

	symbols     []loader.Symbol
	breakpoints map[uint32]bool

	entryPoint uint32
	maxCycles  uint64
	cycleCount uint64
	state      ExecutionState
}

// NewDriver wraps an already-constructed machine. maxCycles of 0 means
// unbounded (spec.md §3 "Execution" configuration maps directly here).
func NewDriver(machine *vm.Machine, recorder *trace.Recorder, entryPoint uint32, maxCycles uint64) *Driver {
	return &Driver{
		machine:     machine,
		recorder:    recorder,
		entryPoint:  entryPoint,
		maxCycles:   maxCycles,
		breakpoints: make(map[uint32]bool),
		state:       StateHalted,
	}
}

// SetOracle installs the oracle instance backing this machine's
// non-determinism CSR port, so the driver can report UART text and
// disconnect state in its snapshots.
func (d *Driver) SetOracle(o *oracle.Oracle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.oracle = o
}

// LoadSymbols installs the flat symbol table used only for display
// (spec.md §4.9): never consulted by Step or Run.
func (d *Driver) LoadSymbols(symbols []loader.Symbol) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.symbols = symbols
}

// Machine exposes the underlying machine for callers (tools/xref, the
// debugger front ends) that need direct memory/register access beyond
// Snapshot's summary view.
func (d *Driver) Machine() *vm.Machine {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.machine
}

// AddBreakpoint arms a breakpoint at a PC value; Run stops just before
// executing the instruction at that address.
func (d *Driver) AddBreakpoint(address uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints[address] = true
}

// RemoveBreakpoint disarms a breakpoint.
func (d *Driver) RemoveBreakpoint(address uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.breakpoints, address)
}

// Breakpoints lists every armed breakpoint.
func (d *Driver) Breakpoints() []BreakpointInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]BreakpointInfo, 0, len(d.breakpoints))
	for addr, enabled := range d.breakpoints {
		out = append(out, BreakpointInfo{Address: addr, Enabled: enabled})
	}
	return out
}

// Step executes exactly one proc-cycle.
func (d *Driver) Step() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stepLocked()
}

func (d *Driver) stepLocked() error {
	if err := d.machine.Step(); err != nil {
		d.state = StateError
		return err
	}
	d.cycleCount++
	return nil
}

// Run steps the machine until one of: a breakpoint is hit, the PC goes
// stationary (the guest has spun on itself to declare completion,
// spec.md §5 "the driver halts the loop by detecting a stationary
// PC"), the cycle budget is reached, a host fault occurs, or ctx is
// canceled. It reports which of these stopped it via the returned
// ExecutionState, and a non-nil error for a host fault or for reaching
// the cycle budget.
func (d *Driver) Run(ctx context.Context) (ExecutionState, error) {
	d.mu.Lock()
	d.state = StateRunning
	d.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.state = StateHalted
			d.mu.Unlock()
			return StateHalted, nil
		default:
		}

		d.mu.Lock()
		pcBefore := d.machine.CPU.PC

		if d.maxCycles > 0 && d.cycleCount >= d.maxCycles {
			d.state = StateHalted
			d.mu.Unlock()
			return StateHalted, fmt.Errorf("service: cycle budget of %d reached", d.maxCycles)
		}

		if d.breakpoints[pcBefore] {
			d.state = StateBreakpoint
			d.mu.Unlock()
			return StateBreakpoint, nil
		}

		err := d.stepLocked()
		pcAfter := d.machine.CPU.PC
		state := d.state
		d.mu.Unlock()

		if err != nil {
			return StateError, err
		}
		if state == StateError {
			return StateError, nil
		}

		if pcAfter == pcBefore {
			d.mu.Lock()
			d.state = StateHalted
			d.mu.Unlock()
			return StateHalted, nil
		}
	}
}

// Reset rebuilds the machine's architectural state back to a fresh CPU
// at entryPoint (or the driver's configured entry point when 0 is
// passed) without touching memory contents, mirroring the teacher's
// ResetToEntryPoint/full-Reset split minus the memory-clearing path,
// which this simulator's driver never needs since a fresh image load
// already overwrites the memory it cares about.
func (d *Driver) Reset(entryPoint uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entryPoint == 0 {
		entryPoint = d.entryPoint
	}
	d.entryPoint = entryPoint
	d.machine.CPU = vm.NewCPU(entryPoint)
	d.cycleCount = 0
	d.state = StateHalted
}

// SymbolForAddress resolves an address to a symbol name, or "" if none
// matches.
func (d *Driver) SymbolForAddress(addr uint32) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sym := range d.symbols {
		if sym.Address == addr {
			return sym.Name
		}
	}
	return ""
}

// Snapshot returns a point-in-time view of the machine for the API and
// debugger front ends.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cpu := d.machine.CPU
	snap := Snapshot{
		Registers: RegisterState{
			Registers: cpu.R,
			PC:        cpu.PC,
			Mode:      cpu.Mode().String(),
			Cycle:     cpu.Cycle,
		},
		Trap: TrapState{
			Status:  cpu.Trap.Status,
			IE:      cpu.Trap.IE,
			IP:      cpu.Trap.IP,
			TVec:    cpu.Trap.TVec,
			Scratch: cpu.Trap.Scratch,
			EPC:     cpu.Trap.EPC,
			Cause:   cpu.Trap.Cause,
			TVal:    cpu.Trap.TVal,
		},
		Satp:  cpu.Satp,
		State: d.state,
		Cycle: cpu.Cycle,
	}
	if d.oracle != nil {
		snap.UARTText = d.oracle.UARTText()
	}
	if err := d.machine.HostError(); err != nil {
		snap.HostError = err.Error()
	}
	return snap
}

// RecentEvents returns the last n recorded trace events, or every
// event recorded so far if fewer than n exist. Used by the TUI and GUI
// trace panes.
func (d *Driver) RecentEvents(n int) []trace.Event {
	if d.recorder == nil {
		return nil
	}
	events := d.recorder.Snapshot()
	if len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}
