package vm

// Access layer (component C4, spec.md §4.2): sub-word read/write on top
// of the flat word-addressed Memory, going through the configured
// Translator and emitting the matching trace events. Grounded on the
// teacher's vm/inst_memory.go and vm/memory.go (GetByte/GetWord/GetWordAligned
// layered over a flat byte slice), generalized from byte-granular ARM
// memory to RV32's word-native store plus an explicit sub-word mask
// table.

// ReadSized performs a translated, traced read of width bytes (1, 2 or
// 4) at virtual address addr, classified by class. It returns the
// zero-extended value; callers that need sign extension (signed loads)
// do it themselves using the width and the raw bits returned here.
func (m *Machine) ReadSized(addr uint32, width int, class AccessClass) (uint32, TrapReason) {
	phys, trap := m.Translator.Translate(m, addr, class)
	if trap.IsTrap() {
		return 0, trap
	}

	if width != 4 && !m.Features.SubWordLoad {
		return 0, class.misalignedFault()
	}

	unalignment := int(phys & 3)
	entry, ok := lookupAccessMask(unalignment, width)
	if !ok {
		return 0, class.misalignedFault()
	}

	wordAddr := phys &^ 3
	word, err := m.Memory.GetWord(wordAddr / 4)
	if err != nil {
		return 0, class.faultFor(false)
	}

	ts := m.nextTimestamp()
	if class == AccessInstruction {
		m.tracer().TraceOpcodeRead(uint64(wordAddr), word, m.CPU.Cycle, ts)
	} else {
		m.tracer().TraceRamRead(uint64(wordAddr), word, m.CPU.Cycle, ts)
	}

	value := (word >> entry.shift) & entry.valueMask
	return value, NoTrap
}

// WriteSized performs a translated, traced read-modify-write of width
// bytes (1, 2 or 4) at virtual address addr. class is always
// AccessMemStore for ordinary stores; delegation kernels that poke
// memory directly may pass a different class.
func (m *Machine) WriteSized(addr uint32, value uint32, width int, class AccessClass) TrapReason {
	phys, trap := m.Translator.Translate(m, addr, class)
	if trap.IsTrap() {
		return trap
	}

	if width != 4 && !m.Features.SubWordLoad {
		return class.misalignedFault()
	}

	unalignment := int(phys & 3)
	entry, ok := lookupAccessMask(unalignment, width)
	if !ok {
		return class.misalignedFault()
	}

	wordAddr := phys &^ 3
	oldWord, err := m.Memory.GetWord(wordAddr / 4)
	if err != nil {
		return class.faultFor(false)
	}

	newWord := (oldWord &^ (entry.valueMask << entry.shift)) | ((value & entry.valueMask) << entry.shift)
	if err := m.Memory.SetWord(wordAddr/4, newWord); err != nil {
		return class.faultFor(false)
	}

	ts := m.nextTimestamp()
	m.tracer().TraceRamReadWrite(uint64(wordAddr), oldWord, newWord, m.CPU.Cycle, ts)
	return NoTrap
}

// FetchInstruction reads the 32-bit instruction word at pc. Misaligned
// fetches (pc not a multiple of 4) raise InstructionAddressMisaligned
// directly rather than going through the generic sub-word path, since
// instruction fetch never tolerates sub-word alignment regardless of
// the SubWordLoad feature.
func (m *Machine) FetchInstruction(pc uint32) (uint32, TrapReason) {
	if pc&0x3 != 0 {
		return 0, InstructionAddressMisaligned
	}
	return m.ReadSized(pc, 4, AccessInstruction)
}

// readPhysWordTraced reads one word directly at a physical address,
// bypassing the Translator. Used by the Sv32 page walker, whose PTE
// addresses are already physical.
func (m *Machine) readPhysWordTraced(physAddr uint32, class AccessClass) (uint32, TrapReason) {
	if physAddr&0x3 != 0 {
		return 0, class.misalignedFault()
	}
	word, err := m.Memory.GetWord(physAddr / 4)
	if err != nil {
		return 0, class.faultFor(false)
	}
	ts := m.nextTimestamp()
	m.tracer().TraceRamRead(uint64(physAddr), word, m.CPU.Cycle, ts)
	return word, NoTrap
}
