package vm

import "github.com/rv32sim/rv32sim/trace"

// CSRPort is implemented by components outside the vm package that
// claim a reserved CSR index: the non-determinism oracle at 0x7C0 and
// the delegation kernels at 0x7C1-0x7C6 (spec.md §4.4, §4.5, §4.6).
// Machine depends only on this interface, never on the oracle or
// delegation packages directly, so those packages can import vm
// without creating a cycle -- the same inversion the teacher's
// debugger package uses against service.Driver (an interface owned by
// the lower layer, implemented by the higher one).
type CSRPort interface {
	ReadCSR(m *Machine, mutation CSRMutation) (uint32, TrapReason)
	WriteCSR(m *Machine, value uint32, mutation CSRMutation) TrapReason
}

// Machine is the top-level simulator instance: architectural state
// (CPU, Memory), configuration (Features, Translator), the tracing
// sink, and the registry of non-standard CSR ports. It is the
// "capability object" spec.md §9 describes threading the tracer and
// memory source through decode/execute.
type Machine struct {
	CPU        *CPU
	Memory     *Memory
	Translator Translator
	Features   Features
	Tracer     trace.Tracer

	CSRPorts map[uint32]CSRPort

	timestamp uint32 // reset to 0 at the start of every cycle
	pcUpdated bool   // set by branch/jump/trap-entry/MRET; cleared each cycle

	hostError error // set by a CSRPort on a malformed-protocol/ABI violation (spec.md §7)
}

// NewMachine builds a Machine with memory reset to all zero words, the
// CPU reset per spec.md §3, and no ports registered. memoryWords sizes
// the backing store (see NewMemory); pass DefaultMemoryWords for a
// caller with no size preference of its own. The caller (main.go for
// the CLI) registers oracle/delegation ports with RegisterPort
// afterwards.
func NewMachine(entryPoint uint32, features Features, translator Translator, tracer trace.Tracer, memoryWords uint32) *Machine {
	return &Machine{
		CPU:        NewCPU(entryPoint),
		Memory:     NewMemory(memoryWords),
		Translator: translator,
		Features:   features,
		Tracer:     tracer,
		CSRPorts:   make(map[uint32]CSRPort),
	}
}

// RegisterPort installs a CSRPort at a CSR index. Used to wire the
// oracle and delegation kernels in without the vm package knowing
// their concrete types.
func (m *Machine) RegisterPort(csrIndex uint32, port CSRPort) {
	m.CSRPorts[csrIndex] = port
}

// Fault records a simulator-host failure (spec.md §7): a malformed
// oracle query, a misaligned delegation ABI offset, or a memory-source
// range error outside a classified access. These are bugs in the
// guest-host contract, never represented as guest traps, and never
// silently swallowed -- the first one recorded wins and halts the
// cycle engine at the next opportunity (see Step in cycle.go).
func (m *Machine) Fault(err error) {
	if m.hostError == nil {
		m.hostError = err
	}
}

// HostError reports the first fault recorded by Fault, or nil.
func (m *Machine) HostError() error {
	return m.hostError
}

func (m *Machine) tracer() trace.Tracer {
	if m.Tracer == nil {
		return trace.NopTracer{}
	}
	return m.Tracer
}

// nextTimestamp hands out the next intra-cycle timestamp and advances
// the counter. Reset at the top of every cycle by StartCycle.
func (m *Machine) nextTimestamp() uint32 {
	ts := m.timestamp
	m.timestamp++
	return ts
}

// StartCycle resets the intra-cycle timestamp counter and notifies the
// tracer a new proc-cycle has begun (spec.md §4.7).
func (m *Machine) StartCycle() {
	m.timestamp = 0
	m.pcUpdated = false
	m.tracer().AtCycleStart(m.CPU.Cycle)
}

// SetPC assigns an absolute next program counter and marks it as
// explicitly updated, so the cycle engine's default pc+4 advance is
// skipped. Used by taken branches, JAL/JALR, trap entry and MRET --
// anything that can redirect control flow, including a jump back to
// its own address (a common idle/halt idiom).
func (m *Machine) SetPC(target uint32) {
	m.CPU.PC = target
	m.pcUpdated = true
}

// EndCycle notifies the tracer the current proc-cycle is complete and
// advances the cycle counter.
func (m *Machine) EndCycle() {
	m.tracer().AtCycleEnd(m.CPU.Cycle)
	m.CPU.Cycle++
}

// ReadRegisterTraced reads a general register and emits the matching
// rs1/rs2 trace event, per spec.md §4.7's instruction-operand events.
func (m *Machine) ReadRegisterTraced(idx uint32, first bool) uint32 {
	value := m.CPU.GetRegister(idx)
	ts := m.nextTimestamp()
	if first {
		m.tracer().TraceRs1Read(idx, value, m.CPU.Cycle, ts)
	} else {
		m.tracer().TraceRs2Read(idx, value, m.CPU.Cycle, ts)
	}
	return value
}

// EmitBatchAccess reports a delegation kernel's single batched-access
// trace record (spec.md §4.6), covering every word it read or wrote in
// one call instead of the per-word trace events ordinary loads/stores
// produce.
func (m *Machine) EmitBatchAccess(accessID uint32, physAddrHigh uint16, accesses []trace.BatchAccessPartialData) {
	ts := m.nextTimestamp()
	m.tracer().TraceBatchMemoryAccess(accessID, physAddrHigh, accesses, m.CPU.Cycle, ts)
}

// WriteRegisterTraced writes a general register and emits the rd-write
// trace event, recording the pre-image for the benefit of witness
// generation downstream.
func (m *Machine) WriteRegisterTraced(idx uint32, value uint32) {
	old := m.CPU.GetRegister(idx)
	m.CPU.SetRegister(idx, value)
	ts := m.nextTimestamp()
	m.tracer().TraceRdWrite(idx, old, value, m.CPU.Cycle, ts)
}
