package vm

// TrapReason is the tagged union of trap and interrupt causes (spec.md
// §3 "Trap cause"). Values are grounded verbatim on
// original_source/src/cycle/status_registers/interrupt_cause.rs so the
// cause numbers this simulator writes into mcause match the reference
// model this spec was distilled from.
type TrapReason int32

const (
	InstructionAddressMisaligned TrapReason = 0
	InstructionAccessFault       TrapReason = 1
	IllegalInstruction           TrapReason = 2
	Breakpoint                   TrapReason = 3
	LoadAddressMisaligned        TrapReason = 4
	LoadAccessFault              TrapReason = 5
	StoreOrAMOAddressMisaligned  TrapReason = 6
	StoreOrAMOAccessFault        TrapReason = 7
	EnvironmentCallFromUMode     TrapReason = 8
	EnvironmentCallFromSMode     TrapReason = 9
	EnvironmentCallFromMMode     TrapReason = 11
	InstructionPageFault         TrapReason = 12
	LoadPageFault                TrapReason = 13
	StoreOrAMOPageFault          TrapReason = 15

	// NoTrap is the sentinel meaning "nothing happened this cycle". It
	// is deliberately out of the 4-bit cause range used by real traps.
	NoTrap TrapReason = 0xff
)

// InterruptReason enumerates the interrupt causes (spec.md §3). Only
// MachineTimerInterrupt is ever synthesized by the cycle engine (spec.md
// §4.3 "Interrupt rule"); the others are modeled for completeness of the
// cause-register encoding.
type InterruptReason uint32

const (
	SupervisorSoftwareInterrupt InterruptReason = 1
	MachineSoftwareInterrupt    InterruptReason = 3
	SupervisorTimerInterrupt    InterruptReason = 5
	MachineTimerInterrupt       InterruptReason = 7
	SupervisorExternalInterrupt InterruptReason = 9
	MachineExternalInterrupt    InterruptReason = 11
)

// interruptMask is bit 31 of mcause, set iff the cause is an interrupt
// (spec.md §6 "Trap cause register encoding").
const interruptMask uint32 = 0x8000_0000

// IsTrap reports whether r denotes an actual trap, as opposed to the
// NoTrap sentinel.
func (r TrapReason) IsTrap() bool {
	return r != NoTrap
}

// CauseValue returns the value that belongs in mcause for a synchronous
// trap: the low 5 bits hold the cause number, bit 31 is always clear.
func (r TrapReason) CauseValue() uint32 {
	return uint32(r) & 0x1f
}

// CauseValue returns the value that belongs in mcause for an
// interrupt: the low bits hold the interrupt number, bit 31 is set.
func (r InterruptReason) CauseValue() uint32 {
	return (uint32(r) & 0x1f) | interruptMask
}

// String renders a trap reason for diagnostics and trace output.
func (r TrapReason) String() string {
	switch r {
	case InstructionAddressMisaligned:
		return "InstructionAddressMisaligned"
	case InstructionAccessFault:
		return "InstructionAccessFault"
	case IllegalInstruction:
		return "IllegalInstruction"
	case Breakpoint:
		return "Breakpoint"
	case LoadAddressMisaligned:
		return "LoadAddressMisaligned"
	case LoadAccessFault:
		return "LoadAccessFault"
	case StoreOrAMOAddressMisaligned:
		return "StoreOrAMOAddressMisaligned"
	case StoreOrAMOAccessFault:
		return "StoreOrAMOAccessFault"
	case EnvironmentCallFromUMode:
		return "EnvironmentCallFromUMode"
	case EnvironmentCallFromSMode:
		return "EnvironmentCallFromSMode"
	case EnvironmentCallFromMMode:
		return "EnvironmentCallFromMMode"
	case InstructionPageFault:
		return "InstructionPageFault"
	case LoadPageFault:
		return "LoadPageFault"
	case StoreOrAMOPageFault:
		return "StoreOrAMOPageFault"
	case NoTrap:
		return "NoTrap"
	default:
		return "UnknownTrap"
	}
}
