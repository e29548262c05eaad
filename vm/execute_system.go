package vm

// SYSTEM opcode execution (component C9, spec.md §4.3, §4.4): ECALL,
// EBREAK, MRET, WFI, and the six CSR access forms. Grounded on the
// teacher's syscall.go (a single SWI-number dispatch feeding back into
// trap delivery) generalized to RISC-V's SYSTEM opcode, whose
// sub-instructions are distinguished either by the full 32-bit word
// (ECALL/EBREAK/MRET/WFI) or by funct3 (the CSR forms).

const (
	wordEcall = 0x00000073
	wordEbreak = 0x00100073
	wordMret   = 0x30200073
	wordWfi    = 0x10500073
)

func (m *Machine) ExecuteSystem(inst Instruction) TrapReason {
	switch inst.Funct3 {
	case F3Ecall_Ebreak_Mret_Wfi:
		switch inst.Raw {
		case wordEcall:
			return m.ecallCause()
		case wordEbreak:
			return Breakpoint
		case wordMret:
			return m.executeMret()
		case wordWfi:
			m.CPU.SetWaitingForInterrupt(true)
			return NoTrap
		default:
			return IllegalInstruction
		}
	case F3Csrrw, F3Csrrs, F3Csrrc:
		return m.executeCsrReg(inst, inst.Funct3)
	case F3Csrrwi, F3Csrrsi, F3Csrrci:
		return m.executeCsrImm(inst, inst.Funct3)
	default:
		return IllegalInstruction
	}
}

func (m *Machine) ecallCause() TrapReason {
	switch m.CPU.Mode() {
	case ModeUser:
		return EnvironmentCallFromUMode
	case ModeSupervisor:
		return EnvironmentCallFromSMode
	default:
		return EnvironmentCallFromMMode
	}
}

// executeMret restores the privilege mode and interrupt-enable state
// MRET unwinds, grounded on original_source's status.rs mret() helper:
// mode <- mpp, mie <- mpie, mpie <- 1, mpp <- User, mprv cleared,
// pc <- mepc.
func (m *Machine) executeMret() TrapReason {
	target := m.CPU.mpp()
	m.CPU.setMIE(m.CPU.mpie())
	m.CPU.setMPIE(true)
	m.CPU.setMPP(ModeUser)
	m.CPU.clearMPRV()
	m.CPU.SetMode(target)
	m.SetPC(m.CPU.Trap.EPC)
	return NoTrap
}

func (m *Machine) executeCsrReg(inst Instruction, funct3 uint32) TrapReason {
	csrIndex := inst.Raw >> 20
	rs1Value := m.CPU.GetRegister(inst.Rs1)

	mutation, suppressWrite := csrMutationFor(funct3, inst.Rs1 == 0)
	suppressRead := funct3 == F3Csrrw && inst.Rd == 0

	old, trap := m.AccessCSR(csrIndex, rs1Value, mutation, suppressRead, suppressWrite)
	if trap.IsTrap() {
		return trap
	}
	m.WriteRegisterTraced(inst.Rd, old)
	return NoTrap
}

func (m *Machine) executeCsrImm(inst Instruction, funct3 uint32) TrapReason {
	csrIndex := inst.Raw >> 20
	immValue := inst.Rs1 // the 5-bit zero-extended immediate occupies the rs1 field

	mutation, suppressWrite := csrMutationFor(funct3, immValue == 0)
	suppressRead := funct3 == F3Csrrwi && inst.Rd == 0

	old, trap := m.AccessCSR(csrIndex, immValue, mutation, suppressRead, suppressWrite)
	if trap.IsTrap() {
		return trap
	}
	m.WriteRegisterTraced(inst.Rd, old)
	return NoTrap
}

// csrMutationFor maps a CSR funct3 to its mutation kind and decides
// whether the write side effect should be suppressed: CSRRW/CSRRWI
// always write; CSRRS/CSRRC/CSRRSI/CSRRCI suppress the write when their
// operand (register or immediate) is zero, since ORing/AND-NOTing with
// zero would be a no-op anyway and the ISA defines this case as "must
// not cause a side effect."
func csrMutationFor(funct3 uint32, operandIsZero bool) (CSRMutation, bool) {
	switch funct3 {
	case F3Csrrw, F3Csrrwi:
		return CSRMutationWrite, false
	case F3Csrrs, F3Csrrsi:
		return CSRMutationSet, operandIsZero
	default: // F3Csrrc, F3Csrrci
		return CSRMutationClear, operandIsZero
	}
}
