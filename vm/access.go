package vm

// AccessClass classifies every memory/register touch for the tracer and
// for fault-kind selection (spec.md §3 "Access class"). The source this
// spec was distilled from carries two incompatible orderings of this
// enum; this is the canonical one (see DESIGN.md Open Question 1) and
// downstream consumers of the numeric index must use it.
type AccessClass int

const (
	AccessInstruction AccessClass = iota
	AccessMemLoad
	AccessMemStore
	AccessRegReadFirst
	AccessRegReadSecond
	AccessRegWrite
	AccessNone
)

func (a AccessClass) String() string {
	switch a {
	case AccessInstruction:
		return "Instruction"
	case AccessMemLoad:
		return "MemLoad"
	case AccessMemStore:
		return "MemStore"
	case AccessRegReadFirst:
		return "RegReadFirst"
	case AccessRegReadSecond:
		return "RegReadSecond"
	case AccessRegWrite:
		return "RegWrite"
	case AccessNone:
		return "None"
	default:
		return "Unknown"
	}
}

// faultFor picks the trap kind for an access class that failed to
// resolve to a physical address or violated memory permissions
// (spec.md §3 "Memory", §4.1).
func (a AccessClass) faultFor(isPageFault bool) TrapReason {
	switch a {
	case AccessInstruction:
		if isPageFault {
			return InstructionPageFault
		}
		return InstructionAccessFault
	case AccessMemStore:
		if isPageFault {
			return StoreOrAMOPageFault
		}
		return StoreOrAMOAccessFault
	default:
		if isPageFault {
			return LoadPageFault
		}
		return LoadAccessFault
	}
}

// misalignedFault picks the trap kind for a sub-word access whose
// (unalignment, width) pair is illegal (spec.md §4.2).
func (a AccessClass) misalignedFault() TrapReason {
	if a == AccessMemStore {
		return StoreOrAMOAddressMisaligned
	}
	return LoadAddressMisaligned
}

// accessMaskTable maps (unalignment, width) to (value-mask, shift)
// pairs used to realize sub-word reads and read-modify-write stores on
// top of the word-aligned backing store (spec.md §4.2). Only the seven
// listed pairs are legal; any other combination is a misalignment trap.
type maskEntry struct {
	valueMask uint32 // mask applied to the shifted value being written/read
	shift     uint   // bit shift = 8 * unalignment
}

var accessMaskTable = map[[2]int]maskEntry{
	{0, 4}: {0xFFFFFFFF, 0},
	{0, 2}: {0x0000FFFF, 0},
	{2, 2}: {0x0000FFFF, 16},
	{0, 1}: {0x000000FF, 0},
	{1, 1}: {0x000000FF, 8},
	{2, 1}: {0x000000FF, 16},
	{3, 1}: {0x000000FF, 24},
}

// lookupAccessMask returns the (mask, shift) pair for a legal
// (unalignment, width) combination, or ok=false if the combination must
// trap.
func lookupAccessMask(unalignment int, width int) (maskEntry, bool) {
	e, ok := accessMaskTable[[2]int{unalignment, width}]
	return e, ok
}
