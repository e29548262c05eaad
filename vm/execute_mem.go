package vm

// LOAD and STORE execution (component C9, spec.md §4.3), routed
// through the access layer (C4). Grounded on the teacher's
// inst_memory.go (LDR/STR family dispatch by size and sign) generalized
// to RV32I's five load widths/signs and three store widths.

func (m *Machine) ExecuteLoad(inst Instruction) TrapReason {
	base := m.ReadRegisterTraced(inst.Rs1, true)
	addr := base + uint32(inst.ImmI)

	var width int
	signed := false
	switch inst.Funct3 {
	case F3Lb:
		width, signed = 1, true
	case F3Lh:
		width, signed = 2, true
	case F3Lw:
		width = 4
	case F3Lbu:
		width = 1
	case F3Lhu:
		width = 2
	default:
		return IllegalInstruction
	}
	if signed && !m.Features.SignedLoad {
		return IllegalInstruction
	}

	raw, trap := m.ReadSized(addr, width, AccessMemLoad)
	if trap.IsTrap() {
		return trap
	}

	value := raw
	if signed {
		value = uint32(signExtend(raw, uint(width*8)))
	}

	m.WriteRegisterTraced(inst.Rd, value)
	return NoTrap
}

func (m *Machine) ExecuteStore(inst Instruction) TrapReason {
	base := m.ReadRegisterTraced(inst.Rs1, true)
	value := m.ReadRegisterTraced(inst.Rs2, false)
	addr := base + uint32(inst.ImmS)

	var width int
	switch inst.Funct3 {
	case F3Sb:
		width = 1
	case F3Sh:
		width = 2
	case F3Sw:
		width = 4
	default:
		return IllegalInstruction
	}

	return m.WriteSized(addr, value, width, AccessMemStore)
}
