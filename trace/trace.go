// Package trace defines the structured callback interface the cycle
// engine uses to report every architectural event at cycle granularity
// (spec.md §4.7, component C5), plus a no-op implementation for
// performance builds and a recording implementation for tooling.
//
// Grounded on the teacher's vm/trace.go, vm/register_trace.go and
// vm/flag_trace.go (an ExecutionTrace struct recording register deltas
// per instruction) and on original_source/src/abstractions/tracer.rs,
// whose method set is reproduced here verbatim, translated from a Rust
// trait with default no-op methods to a Go interface plus an embeddable
// NopTracer.
package trace

// BatchAccessPartialData is one slot of a delegation kernel's batched
// access record (spec.md §3 "Trace record", §9 "Batched delegation
// trace"): either a plain read, or a read-modify-write carrying both
// the pre-image and the post-image. Grounded on
// original_source/src/abstractions/tracer.rs's BatchAccessPartialData
// enum.
type BatchAccessPartialData struct {
	IsWrite      bool
	ReadValue    uint32
	WrittenValue uint32 // only meaningful when IsWrite
}

// Tracer receives every architectural event the cycle engine produces.
// Every method carries the proc-cycle index and an intra-cycle
// timestamp used to linearize concurrent sub-accesses (spec.md §5).
// All methods are no-ops on the embedded NopTracer, so a concrete
// tracer only needs to override the events it cares about.
type Tracer interface {
	AtCycleStart(procCycle uint64)
	AtCycleEnd(procCycle uint64)

	TraceOpcodeRead(physAddr uint64, readValue uint32, procCycle uint64, timestamp uint32)
	TraceRs1Read(regIdx uint32, readValue uint32, procCycle uint64, timestamp uint32)
	TraceRs2Read(regIdx uint32, readValue uint32, procCycle uint64, timestamp uint32)
	TraceRdWrite(regIdx uint32, oldValue, newValue uint32, procCycle uint64, timestamp uint32)

	TraceNonDeterminismRead(readValue uint32, procCycle uint64, timestamp uint32)
	TraceNonDeterminismWrite(writtenValue uint32, procCycle uint64, timestamp uint32)

	TraceRamRead(physAddr uint64, readValue uint32, procCycle uint64, timestamp uint32)
	TraceRamReadWrite(physAddr uint64, oldValue, newValue uint32, procCycle uint64, timestamp uint32)

	TraceAddressTranslation(satp uint32, virtAddr, physAddr uint64, procCycle uint64, timestamp uint32)

	TraceBatchMemoryAccess(accessID uint32, physAddrHigh uint16, accesses []BatchAccessPartialData, procCycle uint64, timestamp uint32)
}

// NopTracer implements Tracer with methods that do nothing. Embed it to
// get a tracer that only needs to override a handful of events, and use
// it bare for performance builds where tracing overhead is undesirable
// (spec.md §4.7 "A no-op implementation exists for performance
// builds.").
type NopTracer struct{}

func (NopTracer) AtCycleStart(uint64) {}
func (NopTracer) AtCycleEnd(uint64)   {}

func (NopTracer) TraceOpcodeRead(uint64, uint32, uint64, uint32) {}
func (NopTracer) TraceRs1Read(uint32, uint32, uint64, uint32)    {}
func (NopTracer) TraceRs2Read(uint32, uint32, uint64, uint32)    {}
func (NopTracer) TraceRdWrite(uint32, uint32, uint32, uint64, uint32) {}

func (NopTracer) TraceNonDeterminismRead(uint32, uint64, uint32)  {}
func (NopTracer) TraceNonDeterminismWrite(uint32, uint64, uint32) {}

func (NopTracer) TraceRamRead(uint64, uint32, uint64, uint32)          {}
func (NopTracer) TraceRamReadWrite(uint64, uint32, uint32, uint64, uint32) {}

func (NopTracer) TraceAddressTranslation(uint32, uint64, uint64, uint64, uint32) {}

func (NopTracer) TraceBatchMemoryAccess(uint32, uint16, []BatchAccessPartialData, uint64, uint32) {}

var _ Tracer = NopTracer{}
