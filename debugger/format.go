package debugger

import (
	"context"
	"fmt"

	"github.com/rv32sim/rv32sim/disasm"
	"github.com/rv32sim/rv32sim/trace"
)

// contextWithStop returns a context canceled either by the caller's
// cancel func or by stop closing, so a GUI-triggered Run can be cut
// short when the window closes mid-run.
func contextWithStop(stop <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// formatTraceEvent renders one trace.Event as a single line, shared by
// the TUI's trace pane and the GUI's trace list. Grounded on the
// teacher's disassembly/log line formatting in debugger/tui.go
// (UpdateDisassemblyView), generalized from ARM mnemonics to the RV32 +
// oracle + delegation event set defined in trace/record.go.
func formatTraceEvent(e trace.Event) string {
	switch e.Kind {
	case trace.EventOpcodeRead:
		return fmt.Sprintf("[%6d] fetch   addr=0x%08X opcode=0x%08X  %s", e.ProcCycle, e.PhysAddr, e.NewValue, disasm.Disassemble(e.NewValue))
	case trace.EventRs1Read:
		return fmt.Sprintf("[%6d] rs1     x%-2d = 0x%08X", e.ProcCycle, e.RegIdx, e.NewValue)
	case trace.EventRs2Read:
		return fmt.Sprintf("[%6d] rs2     x%-2d = 0x%08X", e.ProcCycle, e.RegIdx, e.NewValue)
	case trace.EventRdWrite:
		return fmt.Sprintf("[%6d] rd      x%-2d  0x%08X -> 0x%08X", e.ProcCycle, e.RegIdx, e.OldValue, e.NewValue)
	case trace.EventNonDeterminismRead:
		return fmt.Sprintf("[%6d] oracle  read  0x%08X", e.ProcCycle, e.NewValue)
	case trace.EventNonDeterminismWrite:
		return fmt.Sprintf("[%6d] oracle  write 0x%08X", e.ProcCycle, e.NewValue)
	case trace.EventRamRead:
		return fmt.Sprintf("[%6d] ram read   addr=0x%08X val=0x%08X", e.ProcCycle, e.PhysAddr, e.NewValue)
	case trace.EventRamReadWrite:
		return fmt.Sprintf("[%6d] ram rmw    addr=0x%08X 0x%08X -> 0x%08X", e.ProcCycle, e.PhysAddr, e.OldValue, e.NewValue)
	case trace.EventAddressTranslation:
		return fmt.Sprintf("[%6d] translate satp=0x%08X virt=0x%08X -> phys=0x%08X", e.ProcCycle, e.SatpValue, e.VirtAddr, e.PhysAddr)
	case trace.EventBatchMemoryAccess:
		return fmt.Sprintf("[%6d] batch    id=%d high=0x%04X n=%d", e.ProcCycle, e.AccessID, e.PhysAddrHigh, len(e.Accesses))
	case trace.EventCycleStart:
		return fmt.Sprintf("[%6d] -- cycle start --", e.ProcCycle)
	case trace.EventCycleEnd:
		return fmt.Sprintf("[%6d] -- cycle end --", e.ProcCycle)
	default:
		return fmt.Sprintf("[%6d] unknown event kind %d", e.ProcCycle, e.Kind)
	}
}
