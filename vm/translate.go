package vm

// Translator is component C3, the address translator (spec.md §4.1).
// Two variants are selected at configuration time: identity (virtual =
// physical, always) and Sv32 (two-level page walk). Grounded on the
// teacher's vm/memory_multi.go segment-selection idiom, generalized
// from "pick the right MemorySegment" to "optionally walk a page
// table"; translated from the source's generic MMUImplementation trait
// (original_source/src/mmu/mod.rs) into a plain Go interface per
// spec.md §9's "capability object" guidance.
type Translator interface {
	Translate(m *Machine, virtAddr uint32, class AccessClass) (physAddr uint32, trap TrapReason)
}

// IdentityTranslator is the default deployment path: virtual addresses
// pass through unchanged (spec.md §4.1).
type IdentityTranslator struct{}

func (IdentityTranslator) Translate(_ *Machine, virtAddr uint32, _ AccessClass) (uint32, TrapReason) {
	return virtAddr, NoTrap
}

var _ Translator = IdentityTranslator{}

// Sv32 page table entry bit layout (standard RISC-V Sv32).
const (
	pteBitV = 0
	pteBitR = 1
	pteBitW = 2
	pteBitX = 3
	pteBitU = 4
	pteBitA = 6
	pteBitD = 7

	sv32PPNShift = 10
	sv32VPNBits  = 10
)

// Sv32Translator implements the optional two-level 4 KiB/4 MiB page
// walk (spec.md §4.1). Root pointer comes from CPU.Satp. The walker
// performs its own word reads through the machine's traced memory path
// so the tracer observes page-table reads, per spec.md §4.1's final
// sentence.
type Sv32Translator struct{}

var _ Translator = Sv32Translator{}

func (Sv32Translator) Translate(m *Machine, virtAddr uint32, class AccessClass) (uint32, TrapReason) {
	vpn1 := (virtAddr >> 22) & 0x3ff
	vpn0 := (virtAddr >> 12) & 0x3ff
	pageOffset := virtAddr & 0xfff

	rootPPN := m.CPU.Satp & 0x3fffff // bits 21:0 of satp hold the PPN for Sv32

	// Level 1
	pte1Addr := (rootPPN << 12) + vpn1*4
	pte1, trap := m.readPTE(pte1Addr)
	if trap.IsTrap() {
		return 0, class.faultFor(false)
	}
	if pte1&(1<<pteBitV) == 0 {
		return 0, class.faultFor(true)
	}
	if pte1&(1<<pteBitR) != 0 || pte1&(1<<pteBitX) != 0 {
		// Leaf at level 1: a 4 MiB superpage.
		if err := checkLeafPermissions(pte1, class, m.CPU.Mode()); err.IsTrap() {
			return 0, err
		}
		ppn1 := (pte1 >> (sv32PPNShift + sv32VPNBits)) & 0xfff // level-1 PPN field, PTE bits 31:20
		// Superpage alignment (spec.md §4.1): the level-0 PPN field
		// (PTE bits 19:10) must be zero when the walk stops at level 1.
		physPPN := (pte1 >> sv32PPNShift) & 0xfffff
		if physPPN&0x3ff != 0 {
			return 0, class.faultFor(true)
		}
		phys := (ppn1 << 22) | (virtAddr & 0x3fffff)
		m.tracer().TraceAddressTranslation(m.CPU.Satp, uint64(virtAddr), uint64(phys), m.CPU.Cycle, m.nextTimestamp())
		return phys, NoTrap
	}

	// Non-leaf: R and X bits must both be clear.
	nextPPN := (pte1 >> sv32PPNShift) & 0xfffff
	pte2Addr := (nextPPN << 12) + vpn0*4
	pte0, trap := m.readPTE(pte2Addr)
	if trap.IsTrap() {
		return 0, class.faultFor(false)
	}
	if pte0&(1<<pteBitV) == 0 {
		return 0, class.faultFor(true)
	}
	if pte0&(1<<pteBitR) == 0 && pte0&(1<<pteBitX) == 0 && pte0&(1<<pteBitW) != 0 {
		// Writable-only non-leaf is reserved; treat as a fault.
		return 0, class.faultFor(true)
	}
	if err := checkLeafPermissions(pte0, class, m.CPU.Mode()); err.IsTrap() {
		return 0, err
	}
	ppn := (pte0 >> sv32PPNShift) & 0xfffff
	phys := (ppn << 12) | pageOffset
	m.tracer().TraceAddressTranslation(m.CPU.Satp, uint64(virtAddr), uint64(phys), m.CPU.Cycle, m.nextTimestamp())
	return phys, NoTrap
}

// checkLeafPermissions enforces the per-access-class permission bits
// and the A/D accessed/dirty bits spec.md §4.1 requires: R for load, W
// for store, X for instruction, the U bit matched against the current
// mode, A set for any access, D set for stores.
func checkLeafPermissions(pte uint32, class AccessClass, mode Mode) TrapReason {
	switch class {
	case AccessInstruction:
		if pte&(1<<pteBitX) == 0 {
			return class.faultFor(true)
		}
	case AccessMemStore:
		if pte&(1<<pteBitW) == 0 {
			return class.faultFor(true)
		}
	default:
		if pte&(1<<pteBitR) == 0 {
			return class.faultFor(true)
		}
	}
	userBit := pte&(1<<pteBitU) != 0
	if mode == ModeUser && !userBit {
		return class.faultFor(true)
	}
	if mode != ModeUser && userBit {
		return class.faultFor(true)
	}
	if pte&(1<<pteBitA) == 0 {
		return class.faultFor(true)
	}
	if class == AccessMemStore && pte&(1<<pteBitD) == 0 {
		return class.faultFor(true)
	}
	return NoTrap
}

// readPTE reads one page-table word through the traced memory path,
// bypassing translation (the walk itself is always performed against
// physical memory).
func (m *Machine) readPTE(physAddr uint32) (uint32, TrapReason) {
	return m.readPhysWordTraced(physAddr, AccessMemLoad)
}
