package service

import (
	"context"
	"testing"

	"github.com/rv32sim/rv32sim/loader"
	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

// jalSelf is "jal x0, 0": an unconditional jump to its own address, the
// canonical guest idiom for declaring completion (spec.md §5).
const jalSelf = 0x0000006F

func newRunnableDriver(t *testing.T, maxCycles uint64) (*Driver, *vm.Machine) {
	t.Helper()
	recorder := trace.NewRecorder(64)
	machine := vm.NewMachine(0x1000, vm.FullIM(), vm.IdentityTranslator{}, recorder, 1<<16)
	if err := machine.Memory.SetWord(0x1000/4, jalSelf); err != nil {
		t.Fatalf("SetWord returned error: %v", err)
	}
	return NewDriver(machine, recorder, 0x1000, maxCycles), machine
}

func TestStepAdvancesCycleCount(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	if err := driver.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	snap := driver.Snapshot()
	if snap.Cycle != 1 {
		t.Fatalf("expected cycle 1 after one step, got %d", snap.Cycle)
	}
}

func TestRunHaltsOnStationaryPC(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	state, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if state != StateHalted {
		t.Fatalf("expected StateHalted, got %v", state)
	}
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	driver.AddBreakpoint(0x1000)

	state, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if state != StateBreakpoint {
		t.Fatalf("expected StateBreakpoint, got %v", state)
	}

	bps := driver.Breakpoints()
	if len(bps) != 1 || bps[0].Address != 0x1000 {
		t.Fatalf("expected one breakpoint at 0x1000, got %+v", bps)
	}

	driver.RemoveBreakpoint(0x1000)
	if len(driver.Breakpoints()) != 0 {
		t.Fatal("expected breakpoint to be removed")
	}
}

func TestRunHaltsOnCycleBudget(t *testing.T) {
	machine := vm.NewMachine(0x1000, vm.FullIM(), vm.IdentityTranslator{}, trace.NopTracer{}, 1<<16)
	// "jal x0, 4" followed by "jal x0, -4" bounces the PC between two
	// addresses forever, so only the cycle budget (not the
	// stationary-PC check) can stop this run.
	if err := machine.Memory.SetWord(0x1000/4, 0x0040006F); err != nil {
		t.Fatalf("SetWord returned error: %v", err)
	}
	if err := machine.Memory.SetWord(0x1004/4, 0xFFDFF06F); err != nil {
		t.Fatalf("SetWord returned error: %v", err)
	}
	driver := NewDriver(machine, trace.NewRecorder(64), 0x1000, 3)

	state, err := driver.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error reporting the cycle budget was reached")
	}
	if state != StateHalted {
		t.Fatalf("expected StateHalted, got %v", state)
	}
}

func TestResetRestoresEntryPointAndClearsCycleCount(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	if err := driver.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	driver.Reset(0)

	snap := driver.Snapshot()
	if snap.Registers.PC != 0x1000 {
		t.Fatalf("expected PC reset to entry point 0x1000, got %#x", snap.Registers.PC)
	}
	if snap.Cycle != 0 {
		t.Fatalf("expected cycle reset to 0, got %d", snap.Cycle)
	}
	if snap.State != StateHalted {
		t.Fatalf("expected StateHalted after reset, got %v", snap.State)
	}
}

func TestSymbolForAddressResolvesLoadedSymbols(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	driver.LoadSymbols([]loader.Symbol{{Address: 0x1000, Name: "_start"}})

	if name := driver.SymbolForAddress(0x1000); name != "_start" {
		t.Fatalf("expected _start, got %q", name)
	}
	if name := driver.SymbolForAddress(0x2000); name != "" {
		t.Fatalf("expected empty string for unknown address, got %q", name)
	}
}

func TestRecentEventsCapsAtRequestedCount(t *testing.T) {
	driver, _ := newRunnableDriver(t, 0)
	for i := 0; i < 5; i++ {
		if err := driver.Step(); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}
	events := driver.RecentEvents(2)
	if len(events) != 2 {
		t.Fatalf("expected 2 recent events, got %d", len(events))
	}
}
