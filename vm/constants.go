package vm

// ============================================================================
// RV32 Architecture Constants
// ============================================================================
// These values are defined by the RV32I/M base ISA plus the CSR extensions
// used by the non-determinism oracle and the delegation kernels. They
// should not be modified.

const (
	// Instruction encoding
	InstructionSize = 4 // bytes, every instruction is one 32-bit word

	// Register counts
	GeneralRegisterCount = 32 // x0-x31, x0 hardwired to zero

	// Sign bit for overflow calculations
	SignBitPos  = 31
	SignBitMask = 0x80000000

	// Bit masks
	Mask4Bit  = 0xF
	Mask5Bit  = 0x1F
	Mask7Bit  = 0x7F
	Mask8Bit  = 0xFF
	Mask12Bit = 0xFFF
	Mask16Bit = 0xFFFF
	Mask20Bit = 0xFFFFF
	Mask32Bit = 0xFFFFFFFF

	// Memory geometry (spec.md §3 "Memory"): the guest sees 2^32 bytes
	// addressed as 2^30 32-bit words. This is a ceiling, not an eager
	// allocation size -- NewMemory/NewMachine take an explicit backing
	// word count and clamp it against this.
	MemoryWords = 1 << 30

	// DefaultMemoryWords backs a freshly constructed Machine when the
	// caller has no size preference of its own (the CLI's default
	// config, and any ad-hoc caller that just wants a working machine):
	// 64 MiB of guest RAM, a small fraction of the 4 GiB logical
	// ceiling, sized the way original_source's
	// VectorMemoryImpl::new_for_byte_size takes an explicit byte count
	// instead of always committing the full address space.
	DefaultMemoryWords = 1 << 24

	// Default entry point for a freshly loaded image (spec.md §6).
	DefaultEntryPoint = 0x0100_0000

	// DefaultMaxCycles is a cycle budget for callers that want one;
	// nothing in this package applies it, and service.NewDriver treats a
	// budget of 0 as unbounded.
	DefaultMaxCycles = 10_000_000
)

// CSR indices (spec.md §4.4, grounded on original_source's
// cycle/state.rs NON_DETERMINISM_CSR constant).
const (
	CSRSatp    = 0x180
	CSRMstatus = 0x300
	CSRMie     = 0x304
	CSRMtvec   = 0x305
	CSRMscratch = 0x340
	CSRMepc    = 0x341
	CSRMcause  = 0x342
	CSRMtval   = 0x343
	CSRMip     = 0x344

	CSRNonDeterminism = 0x7C0

	CSRDelegationBlake2s                   = CSRNonDeterminism + 1 // full single-shot compression, 8-word state + 16-word block
	CSRDelegationBlake2Round               = CSRNonDeterminism + 2 // memory-resident 8-word state, 16-word block, one round
	CSRDelegationBlake2RoundFinalXor       = CSRNonDeterminism + 3 // same, folds an initial state via final xor
	CSRDelegationBlake2RoundRegs           = CSRNonDeterminism + 4 // state held in x10..x25 instead of memory
	CSRDelegationMersenneExt4FMA           = CSRNonDeterminism + 5 // quartic-extension FMA, operands in x10..x21
	CSRDelegationPoseidon2WitnessCompress  = CSRNonDeterminism + 6 // reads input, pulls oracle witness, compresses
)

// mstatus bit positions (grounded on original_source's status.rs).
const (
	MstatusBitSIE  = 1
	MstatusBitMIE  = 3
	MstatusBitSPIE = 5
	MstatusBitMPIE = 7
	MstatusBitSPP  = 8
	MstatusMPPShift = 11
	MstatusMPPMask  = 0x3
	MstatusBitMPRV = 17
)

// mie/mip bit positions for the single timer-interrupt source this
// simulator models (spec.md §4.3 "Interrupt rule").
const (
	MieBitMTIE = 7 // machine timer interrupt enable
	MipBitMTIP = 7 // machine timer interrupt pending
)
