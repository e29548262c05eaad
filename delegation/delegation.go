// Package delegation implements component C8, the delegation kernels
// (spec.md §4.6): fixed-ABI native routines invoked through reserved
// CSRs that appear to the guest as single opcodes. Each kernel reads a
// fixed number of 32-bit words from a region (memory or a register
// window), computes, writes a fixed number of words back, and emits
// one batched-access trace record capturing every read/write with its
// pre-image and post-image.
//
// The cryptographic math these kernels stand in for (BLAKE2s
// compression, Mersenne31 quartic-extension arithmetic, Poseidon2) is
// out of scope here -- only the ABI is. Every "compute" step below is a
// small, clearly non-cryptographic placeholder mixing function so the
// read/compute/write/trace shape is faithfully exercised without
// claiming to be the real primitive.
//
// Grounded on original_source/src/abstractions/delegation.rs (the
// fixed read-count/write-count kernel trait) and
// original_source/src/abstractions/tracer.rs's BatchAccessPartialData,
// and on the teacher's syscall.go for the "one CSR/opcode triggers one
// native routine" dispatch shape.
package delegation

import (
	"github.com/rv32sim/rv32sim/oracle"
	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

const (
	blake2StateWords   = 8
	blake2MessageWords = 16
)

// Kernels bundles the six delegation CSR ports and their shared
// batch-access id counter. Register one per reserved CSR index with
// Machine.RegisterPort.
type Kernels struct {
	Oracle *oracle.Oracle

	nextAccessID uint32
}

// NewKernels creates the kernel set. oracleRef may be nil if the
// witness-and-compress kernel is never exercised; calling it with a
// nil oracle is a delegation ABI fault.
func NewKernels(oracleRef *oracle.Oracle) *Kernels {
	return &Kernels{Oracle: oracleRef}
}

// RegisterAll installs every kernel into m at its reserved CSR index
// (spec.md §4.6).
func (k *Kernels) RegisterAll(m *vm.Machine) {
	m.RegisterPort(vm.CSRDelegationBlake2s, blake2sPort{k})
	m.RegisterPort(vm.CSRDelegationBlake2Round, blake2RoundPort{k})
	m.RegisterPort(vm.CSRDelegationBlake2RoundFinalXor, blake2FinalXorPort{k})
	m.RegisterPort(vm.CSRDelegationBlake2RoundRegs, blake2RegsPort{k})
	m.RegisterPort(vm.CSRDelegationMersenneExt4FMA, mersenneExt4FMAPort{k})
	m.RegisterPort(vm.CSRDelegationPoseidon2WitnessCompress, poseidon2Port{k})
}

func (k *Kernels) allocAccessID() uint32 {
	id := k.nextAccessID
	k.nextAccessID++
	return id
}

// mix8 is a placeholder eight-word compression stand-in: rotate-xor
// every state word against the corresponding message word (wrapping
// over the message when it is shorter than the state), then rotate by
// a selector-dependent amount. It has none of BLAKE2s's cryptographic
// properties; it exists only to give the ABI something deterministic
// to compute.
func mix8(state [blake2StateWords]uint32, message []uint32, selector uint32) [blake2StateWords]uint32 {
	var out [blake2StateWords]uint32
	shift := (selector % 31) + 1
	for i := range out {
		m := message[i%len(message)]
		v := state[i] ^ m
		out[i] = (v << shift) | (v >> (32 - shift))
	}
	return out
}

// --- memory-resident kernels -------------------------------------------------

// blake2sPort reads an 8-word state and a 16-word message block
// starting at the address written to the CSR and writes the fully
// compressed 8-word state back over it, the single-shot counterpart to
// blake2RoundPort's one-round-at-a-time form: it runs the placeholder
// mix twice over the block with different selectors to stand in for a
// full multi-round compression.
type blake2sPort struct{ k *Kernels }

func (p blake2sPort) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

func (p blake2sPort) WriteCSR(m *vm.Machine, base uint32, _ vm.CSRMutation) vm.TrapReason {
	const totalWords = blake2StateWords + blake2MessageWords
	words, partials, ok := readRegion(m, base, totalWords)
	if !ok {
		return vm.NoTrap
	}

	var state [blake2StateWords]uint32
	copy(state[:], words[:blake2StateWords])
	message := words[blake2StateWords:]

	state = mix8(state, message, 0)
	newState := mix8(state, message, 1)

	writePartials := writeRegion(m, base, newState[:], partials)
	merged := append([]trace.BatchAccessPartialData{}, partials...)
	copy(merged[:blake2StateWords], writePartials)
	p.k.emitBatch(m, base, merged)
	return vm.NoTrap
}

// blake2RoundPort reads an 8-word state, a 16-word message block and a
// 1-word selector starting at the address written to the CSR, and
// writes the new 8-word state back over the state sub-region.
type blake2RoundPort struct{ k *Kernels }

func (p blake2RoundPort) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

func (p blake2RoundPort) WriteCSR(m *vm.Machine, base uint32, _ vm.CSRMutation) vm.TrapReason {
	const totalWords = blake2StateWords + blake2MessageWords + 1
	words, partials, ok := readRegion(m, base, totalWords)
	if !ok {
		return vm.NoTrap
	}

	var state [blake2StateWords]uint32
	copy(state[:], words[:blake2StateWords])
	message := words[blake2StateWords : blake2StateWords+blake2MessageWords]
	selector := words[blake2StateWords+blake2MessageWords]

	newState := mix8(state, message, selector)
	writePartials := writeRegion(m, base, newState[:], partials)
	merged := append([]trace.BatchAccessPartialData{}, partials...)
	copy(merged[:blake2StateWords], writePartials)
	p.k.emitBatch(m, base, merged)
	return vm.NoTrap
}

// blake2FinalXorPort additionally reads an initial 8-word state ahead
// of {state, message, selector} and XORs it into the mixed result
// before writing back.
type blake2FinalXorPort struct{ k *Kernels }

func (p blake2FinalXorPort) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

func (p blake2FinalXorPort) WriteCSR(m *vm.Machine, base uint32, _ vm.CSRMutation) vm.TrapReason {
	const totalWords = blake2StateWords + blake2StateWords + blake2MessageWords + 1
	words, partials, ok := readRegion(m, base, totalWords)
	if !ok {
		return vm.NoTrap
	}

	initial := words[:blake2StateWords]
	var state [blake2StateWords]uint32
	copy(state[:], words[blake2StateWords:2*blake2StateWords])
	message := words[2*blake2StateWords : 2*blake2StateWords+blake2MessageWords]
	selector := words[2*blake2StateWords+blake2MessageWords]

	mixed := mix8(state, message, selector)
	var newState [blake2StateWords]uint32
	for i := range newState {
		newState[i] = mixed[i] ^ initial[i]
	}

	writeOffset := uint32(blake2StateWords * 4)
	writePartials := writeRegion(m, base+writeOffset, newState[:], partials[blake2StateWords:2*blake2StateWords])
	merged := append([]trace.BatchAccessPartialData{}, partials...)
	copy(merged[blake2StateWords:2*blake2StateWords], writePartials)
	p.k.emitBatch(m, base, merged)
	return vm.NoTrap
}

// --- register-resident kernels ------------------------------------------------

// blake2RegsPort takes its 8-word state from x10..x17 and an 8-word
// reduced message block from x18..x25, writing the new state back over
// x10..x17.
type blake2RegsPort struct{ k *Kernels }

func (p blake2RegsPort) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

func (p blake2RegsPort) WriteCSR(m *vm.Machine, _ uint32, _ vm.CSRMutation) vm.TrapReason {
	var state [blake2StateWords]uint32
	var partials []trace.BatchAccessPartialData
	for i := 0; i < blake2StateWords; i++ {
		v := m.CPU.GetRegister(uint32(10 + i))
		state[i] = v
		partials = append(partials, trace.BatchAccessPartialData{ReadValue: v})
	}
	message := make([]uint32, blake2StateWords)
	for i := 0; i < blake2StateWords; i++ {
		v := m.CPU.GetRegister(uint32(18 + i))
		message[i] = v
		partials = append(partials, trace.BatchAccessPartialData{ReadValue: v})
	}

	newState := mix8(state, message, 0)
	for i := 0; i < blake2StateWords; i++ {
		old := m.CPU.GetRegister(uint32(10 + i))
		m.CPU.SetRegister(uint32(10+i), newState[i])
		partials = append(partials, trace.BatchAccessPartialData{IsWrite: true, ReadValue: old, WrittenValue: newState[i]})
	}

	p.k.emitBatch(m, 0, partials)
	return vm.NoTrap
}

// mersenneExt4FMAPort reads two quartic-extension-field elements (4
// limbs each, x10..x17) and an accumulator (4 limbs, x18..x21),
// computes a placeholder fused multiply-add over the limbs, and writes
// the 4-limb result back over x10..x13.
type mersenneExt4FMAPort struct{ k *Kernels }

func (p mersenneExt4FMAPort) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

// mersennePrime31 is the modulus (2^31 - 1) the Mersenne31 field this
// ABI targets reduces against; the FMA placeholder below reduces modulo
// it so results stay in-field without implementing real quartic
// extension-field multiplication.
const mersennePrime31 = (1 << 31) - 1

func (p mersenneExt4FMAPort) WriteCSR(m *vm.Machine, _ uint32, _ vm.CSRMutation) vm.TrapReason {
	var a, b, c [4]uint32
	var partials []trace.BatchAccessPartialData
	read4 := func(base int, dst *[4]uint32) {
		for i := 0; i < 4; i++ {
			v := m.CPU.GetRegister(uint32(base + i))
			dst[i] = v
			partials = append(partials, trace.BatchAccessPartialData{ReadValue: v})
		}
	}
	read4(10, &a)
	read4(14, &b)
	read4(18, &c)

	var result [4]uint32
	for i := 0; i < 4; i++ {
		product := uint64(a[i]%mersennePrime31) * uint64(b[i]%mersennePrime31)
		result[i] = uint32((product + uint64(c[i]%mersennePrime31)) % mersennePrime31)
	}
	for i := 0; i < 4; i++ {
		old := m.CPU.GetRegister(uint32(10 + i))
		m.CPU.SetRegister(uint32(10+i), result[i])
		partials = append(partials, trace.BatchAccessPartialData{IsWrite: true, ReadValue: old, WrittenValue: result[i]})
	}

	p.k.emitBatch(m, 0, partials)
	return vm.NoTrap
}

// poseidon2Port reads 8 words of input from the address written to the
// CSR, asks the oracle for 8 words of witness, computes a placeholder
// compression of the two, and writes 8 words of output back.
type poseidon2Port struct{ k *Kernels }

func (p poseidon2Port) ReadCSR(m *vm.Machine, _ vm.CSRMutation) (uint32, vm.TrapReason) {
	return 0, vm.NoTrap
}

func (p poseidon2Port) WriteCSR(m *vm.Machine, base uint32, _ vm.CSRMutation) vm.TrapReason {
	const n = blake2StateWords
	words, partials, ok := readRegion(m, base, n)
	if !ok {
		return vm.NoTrap
	}
	if p.k.Oracle == nil {
		m.Fault(vm.DelegationABIError("poseidon2 witness-compress invoked with no oracle bound"))
		return vm.NoTrap
	}
	witness := p.k.Oracle.ProvideWitness(n)

	var output [n]uint32
	for i := 0; i < n; i++ {
		output[i] = words[i] ^ witness[i]
	}

	writePartials := writeRegion(m, base, output[:], partials)
	merged := append([]trace.BatchAccessPartialData{}, partials...)
	copy(merged, writePartials)
	p.k.emitBatch(m, base, merged)
	return vm.NoTrap
}

// --- shared helpers -----------------------------------------------------------

// readRegion reads n consecutive words starting at base, bypassing the
// translator (delegation operands are always physical) and the
// per-word tracer calls, since the caller reports the whole operation
// as one batched-access record instead. The CSR write value's low 16
// bits must be zero -- the low half is reserved, not just
// word-aligned -- so a base like 0x00001004 (word-aligned but with a
// nonzero low 16 bits) is a delegation ABI fault, matching the ABI
// check the reference kernels perform on their region argument.
func readRegion(m *vm.Machine, base uint32, n int) ([]uint32, []trace.BatchAccessPartialData, bool) {
	if base&vm.Mask16Bit != 0 {
		m.Fault(vm.DelegationABIError("delegation region base has nonzero low 16 bits"))
		return nil, nil, false
	}
	words := make([]uint32, n)
	partials := make([]trace.BatchAccessPartialData, n)
	for i := 0; i < n; i++ {
		w, err := m.Memory.GetWord(base/4 + uint32(i))
		if err != nil {
			m.Fault(vm.DelegationABIError("delegation region read out of range"))
			return nil, nil, false
		}
		words[i] = w
		partials[i] = trace.BatchAccessPartialData{ReadValue: w}
	}
	return words, partials, true
}

// writeRegion writes values over the first len(values) words starting
// at base, updating the matching partial entries (assumed to already
// hold the pre-image from a prior readRegion at the same base) to
// record the post-image.
func writeRegion(m *vm.Machine, base uint32, values []uint32, readPartials []trace.BatchAccessPartialData) []trace.BatchAccessPartialData {
	out := make([]trace.BatchAccessPartialData, len(values))
	for i, v := range values {
		old := readPartials[i].ReadValue
		_ = m.Memory.SetWord(base/4+uint32(i), v)
		out[i] = trace.BatchAccessPartialData{IsWrite: true, ReadValue: old, WrittenValue: v}
	}
	return out
}

func (k *Kernels) emitBatch(m *vm.Machine, base uint32, partials []trace.BatchAccessPartialData) {
	id := k.allocAccessID()
	physHigh := uint16(base >> 16)
	m.EmitBatchAccess(id, physHigh, partials)
}
