package vm

// Mode is the processor's current privilege level, stored in the low
// bits of the flags word (spec.md §3 "Architectural state"). Non-goals
// (spec.md §1) mean Supervisor is only ever entered via MRET's MPP
// field, never the target of a trap in this implementation.
type Mode uint32

const (
	ModeUser       Mode = 0
	ModeSupervisor Mode = 1
	ModeReserved   Mode = 2
	ModeMachine    Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "User"
	case ModeSupervisor:
		return "Supervisor"
	case ModeReserved:
		return "Reserved"
	case ModeMachine:
		return "Machine"
	default:
		return "Unknown"
	}
}

// flagsWaitBit is the wait-for-interrupt latch, bit 2 of the flags word
// (spec.md §3).
const flagsWaitBit = 1 << 2

// TrapCSRs bundles the machine-mode trap CSR set spec.md §3 names as a
// single register bundle: {status, ie, ip, tvec, scratch, epc, cause,
// tval}. Grounded on the teacher's CPSR struct (vm/cpu.go) in spirit --
// a small plain struct of architectural state fields with no behavior
// beyond field access.
type TrapCSRs struct {
	Status  uint32 // mstatus
	IE      uint32 // mie
	IP      uint32 // mip
	TVec    uint32 // mtvec
	Scratch uint32 // mscratch
	EPC     uint32 // mepc
	Cause   uint32 // mcause
	TVal    uint32 // mtval
}

// CPU holds the architectural state defined by spec.md §3: the general
// register file, program counter, privilege/flags word, cycle and timer
// counters with their match register, and the machine trap CSR bundle.
type CPU struct {
	R  [GeneralRegisterCount]uint32
	PC uint32

	flags uint32 // mode in bits 0-1, wait-for-interrupt latch in bit 2

	Cycle       uint64
	Timer       uint64
	TimerMatch  uint64 // infinite (MaxUint64) on reset, per spec.md §3

	Trap TrapCSRs

	Satp uint32 // 0x180, consulted only when the Sv32 translator is active
}

// NewCPU creates a CPU reset to the state spec.md §3 mandates: pc =
// entry point, mode = Machine, timer_match = infinity.
func NewCPU(entryPoint uint32) *CPU {
	c := &CPU{PC: entryPoint, TimerMatch: ^uint64(0)}
	c.SetMode(ModeMachine)
	return c
}

// GetRegister reads a general register. Register 0 always reads as 0,
// even if some stale write path forgot to enforce the invariant at
// write time (spec.md §8 "∀ cycle: register 0 reads as 0").
func (c *CPU) GetRegister(idx uint32) uint32 {
	if idx == 0 {
		return 0
	}
	return c.R[idx]
}

// SetRegister writes a general register. Writes to register 0 are
// silently dropped (spec.md §3 invariant).
func (c *CPU) SetRegister(idx uint32, value uint32) {
	if idx == 0 {
		return
	}
	c.R[idx] = value
}

// Mode returns the current privilege mode (bits 0-1 of the flags word).
func (c *CPU) Mode() Mode {
	return Mode(c.flags & 0x3)
}

// SetMode updates the current privilege mode, leaving the
// wait-for-interrupt latch untouched.
func (c *CPU) SetMode(m Mode) {
	c.flags = (c.flags &^ 0x3) | uint32(m)
}

// WaitingForInterrupt reports whether the WFI latch (bit 2) is set.
func (c *CPU) WaitingForInterrupt() bool {
	return c.flags&flagsWaitBit != 0
}

// SetWaitingForInterrupt sets or clears the WFI latch.
func (c *CPU) SetWaitingForInterrupt(v bool) {
	if v {
		c.flags |= flagsWaitBit
	} else {
		c.flags &^= flagsWaitBit
	}
}

// mstatus bit accessors, grounded on original_source's MStatusRegister
// helper (status.rs), which this simulator only needs a small slice of:
// MIE, MPIE and MPP/MPRV for MRET and interrupt delivery.

func (c *CPU) mie() bool  { return c.Trap.Status&(1<<MstatusBitMIE) != 0 }
func (c *CPU) mpie() bool { return c.Trap.Status&(1<<MstatusBitMPIE) != 0 }

func (c *CPU) setMIE(v bool)  { setBit(&c.Trap.Status, MstatusBitMIE, v) }
func (c *CPU) setMPIE(v bool) { setBit(&c.Trap.Status, MstatusBitMPIE, v) }

func (c *CPU) mpp() Mode {
	return Mode((c.Trap.Status >> MstatusMPPShift) & MstatusMPPMask)
}

func (c *CPU) setMPP(m Mode) {
	c.Trap.Status &^= MstatusMPPMask << MstatusMPPShift
	c.Trap.Status |= (uint32(m) & MstatusMPPMask) << MstatusMPPShift
}

func (c *CPU) clearMPRV() { setBit(&c.Trap.Status, MstatusBitMPRV, false) }

func setBit(dst *uint32, bit uint, v bool) {
	if v {
		*dst |= 1 << bit
	} else {
		*dst &^= 1 << bit
	}
}
