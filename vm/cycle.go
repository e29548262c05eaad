package vm

// Cycle engine (component C9, spec.md §4.3): the fetch/decode/execute/
// trap/writeback loop run once per call to Step. Grounded on the
// teacher's executor.go main loop (fetch, decode, dispatch, trace,
// advance pc) generalized with RISC-V's trap/interrupt entry sequence,
// taken from original_source/src/cycle/mod.rs's step function.

// Step runs exactly one proc-cycle: timer advance and interrupt check,
// instruction fetch, decode, execute, and -- on a guest trap or
// interrupt -- trap entry into machine mode. Guest traps never surface
// as a Go error; Step returns a non-nil error only when the executed
// instruction left a simulator-host failure behind (Machine.Fault, as
// the oracle and delegation ports report protocol/ABI violations).
func (m *Machine) Step() error {
	m.StartCycle()
	defer m.EndCycle()

	m.advanceTimer()

	if m.CPU.WaitingForInterrupt() {
		if m.interruptPending() {
			m.CPU.SetWaitingForInterrupt(false)
			m.deliverInterrupt()
		}
		return nil
	}

	if m.interruptPending() {
		m.deliverInterrupt()
		return nil
	}

	pc := m.CPU.PC
	word, trap := m.FetchInstruction(pc)
	if trap.IsTrap() {
		m.deliverTrap(trap, pc, pc)
		return nil
	}

	inst := Decode(word)
	trap = m.execute(pc, inst)
	if err := m.HostError(); err != nil {
		return err
	}
	if trap.IsTrap() {
		m.deliverTrap(trap, pc, pc)
		return nil
	}

	if !m.pcUpdated {
		m.CPU.PC = pc + InstructionSize
	}
	return nil
}

// execute dispatches a decoded instruction to its opcode handler.
// Unrecognized opcodes raise IllegalInstruction, same as any
// unrecognized funct3/funct7 combination the handlers themselves
// reject.
func (m *Machine) execute(pc uint32, inst Instruction) TrapReason {
	switch inst.Opcode {
	case OpOpImm:
		return m.ExecuteOpImm(inst)
	case OpOp:
		return m.ExecuteOp(inst)
	case OpLoad:
		return m.ExecuteLoad(inst)
	case OpStore:
		return m.ExecuteStore(inst)
	case OpBranch:
		return m.ExecuteBranch(pc, inst)
	case OpJal:
		return m.ExecuteJal(pc, inst)
	case OpJalr:
		return m.ExecuteJalr(pc, inst)
	case OpLui:
		return m.ExecuteLui(inst)
	case OpAuipc:
		return m.ExecuteAuipc(pc, inst)
	case OpSystem:
		if !m.Features.ExceptionHandling && inst.Funct3 == F3Ecall_Ebreak_Mret_Wfi {
			return IllegalInstruction
		}
		return m.ExecuteSystem(inst)
	default:
		return IllegalInstruction
	}
}

// advanceTimer increments the free-running timer and latches the
// machine timer interrupt-pending bit, since this simulator has no
// external timer device to do it for the CPU.
func (m *Machine) advanceTimer() {
	m.CPU.Timer++
	if m.CPU.Timer >= m.CPU.TimerMatch {
		m.CPU.Trap.IP |= 1 << MipBitMTIP
	} else {
		m.CPU.Trap.IP &^= 1 << MipBitMTIP
	}
}

func (m *Machine) interruptPending() bool {
	pending := m.CPU.Trap.IP & m.CPU.Trap.IE
	if pending == 0 {
		return false
	}
	if m.CPU.Mode() == ModeMachine && !m.CPU.mie() {
		return false
	}
	return true
}

func (m *Machine) deliverInterrupt() {
	m.deliverTrapCause(MachineTimerInterrupt.CauseValue(), m.CPU.PC, 0)
}

func (m *Machine) deliverTrap(reason TrapReason, epc uint32, tval uint32) {
	m.deliverTrapCause(reason.CauseValue(), epc, tval)
}

// deliverTrapCause performs the trap-entry sequence spec.md §4.3
// requires: save the faulting pc and cause, snapshot and update the
// interrupt-enable bits, capture the interrupted mode in mpp, enter
// machine mode, and redirect pc to mtvec (direct mode only; this
// simulator does not implement vectored mtvec).
func (m *Machine) deliverTrapCause(cause uint32, epc uint32, tval uint32) {
	m.CPU.Trap.Cause = cause
	m.CPU.Trap.EPC = epc
	m.CPU.Trap.TVal = tval
	m.CPU.setMPIE(m.CPU.mie())
	m.CPU.setMIE(false)
	m.CPU.setMPP(m.CPU.Mode())
	m.CPU.SetMode(ModeMachine)
	m.SetPC(m.CPU.Trap.TVec &^ 0x3)
}
