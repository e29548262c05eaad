package api

import "github.com/rv32sim/rv32sim/trace"

// teeTracer forwards every traced event to both an underlying Tracer
// (normally a *trace.Recorder, for /api/state and replay) and a
// Broadcaster (for the /ws live stream), so the API server never has
// to poll the recorder for new entries. Grounded on the teacher's
// pattern of wrapping the VM's output writer to additionally emit
// broadcast events (api/event_writer.go), generalized from "wrap an
// io.Writer" to "wrap a trace.Tracer".
type teeTracer struct {
	inner trace.Tracer
	bus   *Broadcaster
}

// WrapTracerForBroadcast returns a trace.Tracer that forwards every
// event to inner (normally the machine's existing recorder, or
// trace.NopTracer{}) and additionally publishes it to bus for the /ws
// endpoint. Call this before installing the result as Machine.Tracer.
func WrapTracerForBroadcast(inner trace.Tracer, bus *Broadcaster) trace.Tracer {
	return newTeeTracer(inner, bus)
}

func newTeeTracer(inner trace.Tracer, bus *Broadcaster) *teeTracer {
	return &teeTracer{inner: inner, bus: bus}
}

func (t *teeTracer) AtCycleStart(procCycle uint64) {
	t.inner.AtCycleStart(procCycle)
	t.bus.Publish(trace.Event{Kind: trace.EventCycleStart, ProcCycle: procCycle})
}

func (t *teeTracer) AtCycleEnd(procCycle uint64) {
	t.inner.AtCycleEnd(procCycle)
	t.bus.Publish(trace.Event{Kind: trace.EventCycleEnd, ProcCycle: procCycle})
}

func (t *teeTracer) TraceOpcodeRead(physAddr uint64, readValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceOpcodeRead(physAddr, readValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventOpcodeRead, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, NewValue: readValue})
}

func (t *teeTracer) TraceRs1Read(regIdx uint32, readValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceRs1Read(regIdx, readValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventRs1Read, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, NewValue: readValue})
}

func (t *teeTracer) TraceRs2Read(regIdx uint32, readValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceRs2Read(regIdx, readValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventRs2Read, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, NewValue: readValue})
}

func (t *teeTracer) TraceRdWrite(regIdx uint32, oldValue, newValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceRdWrite(regIdx, oldValue, newValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventRdWrite, ProcCycle: procCycle, Timestamp: ts, RegIdx: regIdx, OldValue: oldValue, NewValue: newValue})
}

func (t *teeTracer) TraceNonDeterminismRead(readValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceNonDeterminismRead(readValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventNonDeterminismRead, ProcCycle: procCycle, Timestamp: ts, NewValue: readValue})
}

func (t *teeTracer) TraceNonDeterminismWrite(writtenValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceNonDeterminismWrite(writtenValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventNonDeterminismWrite, ProcCycle: procCycle, Timestamp: ts, NewValue: writtenValue})
}

func (t *teeTracer) TraceRamRead(physAddr uint64, readValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceRamRead(physAddr, readValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventRamRead, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, NewValue: readValue})
}

func (t *teeTracer) TraceRamReadWrite(physAddr uint64, oldValue, newValue uint32, procCycle uint64, ts uint32) {
	t.inner.TraceRamReadWrite(physAddr, oldValue, newValue, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventRamReadWrite, ProcCycle: procCycle, Timestamp: ts, PhysAddr: physAddr, OldValue: oldValue, NewValue: newValue})
}

func (t *teeTracer) TraceAddressTranslation(satp uint32, virtAddr, physAddr uint64, procCycle uint64, ts uint32) {
	t.inner.TraceAddressTranslation(satp, virtAddr, physAddr, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventAddressTranslation, ProcCycle: procCycle, Timestamp: ts, SatpValue: satp, VirtAddr: virtAddr, PhysAddr: physAddr})
}

func (t *teeTracer) TraceBatchMemoryAccess(accessID uint32, physAddrHigh uint16, accesses []trace.BatchAccessPartialData, procCycle uint64, ts uint32) {
	t.inner.TraceBatchMemoryAccess(accessID, physAddrHigh, accesses, procCycle, ts)
	t.bus.Publish(trace.Event{Kind: trace.EventBatchMemoryAccess, ProcCycle: procCycle, Timestamp: ts, AccessID: accessID, PhysAddrHigh: physAddrHigh, Accesses: accesses})
}

var _ trace.Tracer = (*teeTracer)(nil)
