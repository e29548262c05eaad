package vm

// BRANCH, JAL, JALR, LUI and AUIPC execution (component C9, spec.md
// §4.3). Grounded on the teacher's branch.go (condition evaluation
// feeding a single taken/not-taken PC update) generalized from ARM's
// condition-code field to RV32's six branch comparisons plus the three
// unconditional control-transfer forms.

func (m *Machine) ExecuteBranch(pc uint32, inst Instruction) TrapReason {
	rs1 := m.ReadRegisterTraced(inst.Rs1, true)
	rs2 := m.ReadRegisterTraced(inst.Rs2, false)

	var taken bool
	switch inst.Funct3 {
	case F3Beq:
		taken = rs1 == rs2
	case F3Bne:
		taken = rs1 != rs2
	case F3Blt:
		taken = int32(rs1) < int32(rs2)
	case F3Bge:
		taken = int32(rs1) >= int32(rs2)
	case F3Bltu:
		taken = rs1 < rs2
	case F3Bgeu:
		taken = rs1 >= rs2
	default:
		return IllegalInstruction
	}

	if !taken {
		return NoTrap
	}
	target := pc + uint32(inst.ImmB)
	if target&0x3 != 0 {
		return InstructionAddressMisaligned
	}
	m.SetPC(target)
	return NoTrap
}

func (m *Machine) ExecuteJal(pc uint32, inst Instruction) TrapReason {
	target := pc + uint32(inst.ImmJ)
	if target&0x3 != 0 {
		return InstructionAddressMisaligned
	}
	m.WriteRegisterTraced(inst.Rd, pc+4)
	m.SetPC(target)
	return NoTrap
}

func (m *Machine) ExecuteJalr(pc uint32, inst Instruction) TrapReason {
	rs1 := m.ReadRegisterTraced(inst.Rs1, true)
	target := (rs1 + uint32(inst.ImmI)) &^ 0x1
	if target&0x3 != 0 {
		return InstructionAddressMisaligned
	}
	m.WriteRegisterTraced(inst.Rd, pc+4)
	m.SetPC(target)
	return NoTrap
}

func (m *Machine) ExecuteLui(inst Instruction) TrapReason {
	m.WriteRegisterTraced(inst.Rd, uint32(inst.ImmU))
	return NoTrap
}

func (m *Machine) ExecuteAuipc(pc uint32, inst Instruction) TrapReason {
	m.WriteRegisterTraced(inst.Rd, pc+uint32(inst.ImmU))
	return NoTrap
}
