package trace

import (
	"sync"
)

// EventKind discriminates the union of event shapes a Recorder stores
// in its Events slice (spec.md §3 "Trace record").
type EventKind int

const (
	EventOpcodeRead EventKind = iota
	EventRs1Read
	EventRs2Read
	EventRdWrite
	EventNonDeterminismRead
	EventNonDeterminismWrite
	EventRamRead
	EventRamReadWrite
	EventAddressTranslation
	EventBatchMemoryAccess
	EventCycleStart
	EventCycleEnd
)

// Event is one recorded architectural event, shaped so that every field
// relevant to any event kind is present; unused fields are zero.
// Grounded on the teacher's TraceEntry struct (vm/trace.go), generalized
// from ARM register-delta tracking to the full RV32 event set defined by
// original_source/src/abstractions/tracer.rs.
type Event struct {
	Kind      EventKind
	ProcCycle uint64
	Timestamp uint32

	RegIdx       uint32
	PhysAddr     uint64
	OldValue     uint32
	NewValue     uint32
	SatpValue    uint32
	VirtAddr     uint64
	AccessID     uint32
	PhysAddrHigh uint16
	Accesses     []BatchAccessPartialData
}

// Recorder is a Tracer implementation that appends every event to an
// in-memory, growable log, following the shape of the teacher's
// ExecutionTrace (vm/trace.go: Enabled, MaxEntries, entries) but
// widened to the full RV32 + oracle + delegation event set. Reading the
// recorded events through Snapshot is safe concurrently with the cycle
// engine appending to them, guarded by a mutex (teacher's api/broadcaster.go
// follows the same locking discipline for concurrent trace consumers).
type Recorder struct {
	mu         sync.Mutex
	MaxEntries int // 0 means unbounded
	Events     []Event
	dropped    uint64
}

// NewRecorder creates a Recorder. maxEntries bounds memory use; once
// reached, further events are counted in Dropped() rather than
// appended, matching the teacher's ExecutionTrace.MaxEntries guard.
func NewRecorder(maxEntries int) *Recorder {
	return &Recorder{MaxEntries: maxEntries, Events: make([]Event, 0, 1024)}
}

// Dropped reports how many events were discarded after MaxEntries was
// reached.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Recorder) append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MaxEntries > 0 && len(r.Events) >= r.MaxEntries {
		r.dropped++
		return
	}
	r.Events = append(r.Events, e)
}

// Snapshot returns a copy of the events recorded so far, safe to read
// without racing the cycle engine.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.Events))
	copy(out, r.Events)
	return out
}

func (r *Recorder) AtCycleStart(procCycle uint64) {
	r.append(Event{Kind: EventCycleStart, ProcCycle: procCycle})
}

func (r *Recorder) AtCycleEnd(procCycle uint64) {
	r.append(Event{Kind: EventCycleEnd, ProcCycle: procCycle})
}

func (r *Recorder) TraceOpcodeRead(physAddr uint64, readValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventOpcodeRead, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, NewValue: readValue})
}

func (r *Recorder) TraceRs1Read(regIdx uint32, readValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventRs1Read, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, NewValue: readValue})
}

func (r *Recorder) TraceRs2Read(regIdx uint32, readValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventRs2Read, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, NewValue: readValue})
}

func (r *Recorder) TraceRdWrite(regIdx uint32, oldValue, newValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventRdWrite, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, OldValue: oldValue, NewValue: newValue})
}

func (r *Recorder) TraceNonDeterminismRead(readValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventNonDeterminismRead, ProcCycle: procCycle, Timestamp: ts, NewValue: readValue})
}

func (r *Recorder) TraceNonDeterminismWrite(writtenValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventNonDeterminismWrite, ProcCycle: procCycle, Timestamp: ts, NewValue: writtenValue})
}

func (r *Recorder) TraceRamRead(physAddr uint64, readValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventRamRead, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, NewValue: readValue})
}

func (r *Recorder) TraceRamReadWrite(physAddr uint64, oldValue, newValue uint32, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventRamReadWrite, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, OldValue: oldValue, NewValue: newValue})
}

func (r *Recorder) TraceAddressTranslation(satp uint32, virtAddr, physAddr uint64, procCycle uint64, ts uint32) {
	r.append(Event{Kind: EventAddressTranslation, ProcCycle: procCycle, Timestamp: ts, SatpValue: satp, VirtAddr: virtAddr, PhysAddr: physAddr})
}

func (r *Recorder) TraceBatchMemoryAccess(accessID uint32, physAddrHigh uint16, accesses []BatchAccessPartialData, procCycle uint64, ts uint32) {
	cp := make([]BatchAccessPartialData, len(accesses))
	copy(cp, accesses)
	r.append(Event{Kind: EventBatchMemoryAccess, ProcCycle: procCycle, Timestamp: ts, AccessID: accessID, PhysAddrHigh: physAddrHigh, Accesses: cp})
}

var _ Tracer = (*Recorder)(nil)
