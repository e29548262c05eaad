// Package oracle implements component C7, the non-determinism port
// (spec.md §4.5): a single CSR index (0x7C0) acting as a bidirectional
// query/response channel through which the guest asks the host for
// data it cannot derive deterministically.
//
// Grounded on original_source/src/abstractions/oracle.rs (QueryBuffer's
// write-side state machine and low/high word interleaving) and
// original_source/src/abstractions/non_determinism_csr.rs (the
// read-side response iterator), translated from the source's owned
// self-referential iterator into a plain index into a materialized
// response slice, per spec.md §9's "erase the iterator to a yield
// next/length/exhausted capability" design note. Registered into a
// vm.Machine through the vm.CSRPort inversion (vm/machine.go) so this
// package can depend on vm without vm depending back on it.
package oracle

import (
	"fmt"
	"log"

	"github.com/rv32sim/rv32sim/vm"
)

// QueryID identifies a request family (spec.md §4.5). The engine ships
// a registry entry for every id in this list; ids outside it are a
// malformed-query host fault.
type QueryID uint32

const (
	QueryTransactionSize QueryID = iota + 1
	QueryTransactionContent
	QueryIOInitializer
	QueryStorageReadProof
	QueryStorageWriteProof
	QueryPreimageLength
	QueryPreimageWords
	QueryInitialStorageSlot
	QueryFrameStart
	QueryFrameEnd
	QueryProofForIndex
	QueryNeighboursIndex
	QueryExactIndex
	QueryUARTOutput
	QueryDisconnect
)

// Processor computes a response payload (in 32-bit words, matching the
// wire format's response_len_in_u32) from a completed request's
// payload (in 64-bit words). The default registry installed by New
// returns an empty response for every id -- this simulator is a
// reference model for the cycle-level protocol, not a host data
// provider, so real deployments call RegisterProcessor to supply
// transaction/storage/proof data from wherever they actually live.
type Processor func(request []uint64) []uint32

// Config holds the two oracle-port CSR semantics spec.md §4.5 calls
// out as configuration rather than protocol: they change what a
// CSRRW-family vs. CSRRS/CSRRC-family instruction observes at this one
// CSR index, which ordinary CSRs never need.
type Config struct {
	// MockReadsBeforeWrites: CSRRW/CSRRWI at the oracle port read as 0
	// instead of invoking the oracle, since the instruction's intent is
	// understood to be "write," not "read."
	MockReadsBeforeWrites bool
	// IgnoreWritesAfterReads: CSRRS/CSRRC/CSRRSI/CSRRCI writes at the
	// oracle port are suppressed, since the instruction's intent is
	// understood to be "read."
	IgnoreWritesAfterReads bool
}

type writeState int

const (
	stateIdle writeState = iota
	stateHaveID
	stateBuffering
)

// Oracle is the CSRPort registered at 0x7C0.
type Oracle struct {
	Config   Config
	registry map[QueryID]Processor

	state          writeState
	currentID      QueryID
	declaredLen    uint64
	payload        []uint64
	pendingLow     uint32
	havePendingLow bool

	response      []uint32
	responseIdx   int
	headerPending bool

	passive bool

	uartRing []uint32
	uartText []string

	witnessProvider WitnessProvider
}

// WitnessProvider supplies n words of witness data to the
// "provide witness then compress" delegation kernel (spec.md §4.6),
// which consults the oracle directly rather than through the CSR wire
// protocol. The default returns n zero words; a real deployment
// installs one with SetWitnessProvider.
type WitnessProvider func(n int) []uint32

// SetWitnessProvider installs the function delegation's witness-and-
// compress kernel calls for its non-deterministic input.
func (o *Oracle) SetWitnessProvider(p WitnessProvider) {
	o.witnessProvider = p
}

// ProvideWitness returns n words of witness data for the delegation
// package's witness-and-compress kernel.
func (o *Oracle) ProvideWitness(n int) []uint32 {
	if o.witnessProvider == nil {
		return make([]uint32, n)
	}
	return o.witnessProvider(n)
}

// New creates an Oracle with the default (empty-response) registry
// installed for every known query family.
func New(cfg Config) *Oracle {
	o := &Oracle{Config: cfg, registry: make(map[QueryID]Processor)}
	for _, id := range allQueryIDs {
		o.registry[id] = func([]uint64) []uint32 { return nil }
	}
	return o
}

var allQueryIDs = []QueryID{
	QueryTransactionSize, QueryTransactionContent, QueryIOInitializer,
	QueryStorageReadProof, QueryStorageWriteProof, QueryPreimageLength,
	QueryPreimageWords, QueryInitialStorageSlot, QueryFrameStart,
	QueryFrameEnd, QueryProofForIndex, QueryNeighboursIndex,
	QueryExactIndex, QueryUARTOutput, QueryDisconnect,
}

// RegisterProcessor replaces the handler for a query id. A concrete
// deployment (the service package's driver, or a test harness) uses
// this to hand the oracle real transaction/storage/proof data.
func (o *Oracle) RegisterProcessor(id QueryID, p Processor) {
	o.registry[id] = p
}

// UARTRing returns the last (up to) eight raw 32-bit words submitted
// through UART-output queries, preserved for the host driver on
// termination (spec.md §6 "Program output").
func (o *Oracle) UARTRing() []uint32 {
	out := make([]uint32, len(o.uartRing))
	copy(out, o.uartRing)
	return out
}

// UARTText returns every decoded UART-output string in submission
// order.
func (o *Oracle) UARTText() []string {
	out := make([]string, len(o.uartText))
	copy(out, o.uartText)
	return out
}

var _ vm.CSRPort = (*Oracle)(nil)

// ReadCSR implements the read protocol (spec.md §4.5): the first read
// after a completed query returns the response length in 32-bit
// units; subsequent reads drain the response word by word; an
// exhausted or absent response reads as 0.
func (o *Oracle) ReadCSR(m *vm.Machine, mutation vm.CSRMutation) (uint32, vm.TrapReason) {
	if mutation == vm.CSRMutationWrite && o.Config.MockReadsBeforeWrites {
		return 0, vm.NoTrap
	}
	return o.read(), vm.NoTrap
}

func (o *Oracle) read() uint32 {
	if o.passive || o.response == nil {
		return 0
	}
	if o.headerPending {
		o.headerPending = false
		return uint32(len(o.response))
	}
	if o.responseIdx >= len(o.response) {
		return 0
	}
	v := o.response[o.responseIdx]
	o.responseIdx++
	return v
}

// WriteCSR implements the write protocol (spec.md §4.5): the first
// write starts a new query (its value is the query id), the next
// write is the declared length in 64-bit words, and subsequent writes
// are buffered in low/high pairs until the declared length is reached,
// at which point the request is dispatched and a response iterator is
// produced.
func (o *Oracle) WriteCSR(m *vm.Machine, value uint32, mutation vm.CSRMutation) vm.TrapReason {
	if mutation != vm.CSRMutationWrite && o.Config.IgnoreWritesAfterReads {
		return vm.NoTrap
	}
	if o.passive {
		return vm.NoTrap
	}
	o.write(m, value)
	return vm.NoTrap
}

func (o *Oracle) write(m *vm.Machine, value uint32) {
	switch o.state {
	case stateBuffering:
		if !o.havePendingLow {
			o.pendingLow = value
			o.havePendingLow = true
			return
		}
		word := uint64(o.pendingLow) | uint64(value)<<32
		o.havePendingLow = false
		o.payload = append(o.payload, word)
		if uint64(len(o.payload)) >= o.declaredLen {
			o.closeRequest(m)
		}
	case stateHaveID:
		o.declaredLen = uint64(value)
		o.payload = o.payload[:0]
		o.havePendingLow = false
		o.state = stateBuffering
		if o.declaredLen == 0 {
			o.closeRequest(m)
		}
	default: // stateIdle: a write here always starts a fresh query,
		// dropping any iterator still producing data (spec.md §4.5
		// "Reset or abandoned write").
		o.response = nil
		o.responseIdx = 0
		o.headerPending = false
		o.currentID = QueryID(value)
		o.state = stateHaveID
	}
}

func (o *Oracle) closeRequest(m *vm.Machine) {
	id := o.currentID
	payload := o.payload
	o.state = stateIdle

	proc, ok := o.registry[id]
	if !ok {
		m.Fault(vm.OracleProtocolError(fmt.Sprintf("unrecognized query id %d", uint32(id))))
		return
	}

	if id == QueryUARTOutput {
		o.consumeUARTOutput(payload)
	}
	if id == QueryDisconnect {
		o.passive = true
	}

	o.response = proc(payload)
	o.responseIdx = 0
	o.headerPending = true
}

// consumeUARTOutput decodes a length-prefixed byte string from the
// request payload (spec.md §4.5 "the UART id has a special response:
// its payload is interpreted as a length-prefixed byte string, decoded
// as text, and logged") and folds its words into the ring buffer.
func (o *Oracle) consumeUARTOutput(payload []uint64) {
	words := flattenLowHigh(payload)
	for _, w := range words {
		o.uartRing = append(o.uartRing, w)
		if len(o.uartRing) > 8 {
			o.uartRing = o.uartRing[1:]
		}
	}
	if len(words) == 0 {
		return
	}
	length := words[0]
	buf := make([]byte, 0, length)
	for i := 1; i < len(words) && uint32(len(buf)) < length; i++ {
		w := words[i]
		buf = append(buf, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	if uint32(len(buf)) > length {
		buf = buf[:length]
	}
	text := string(buf)
	o.uartText = append(o.uartText, text)
	log.Printf("oracle: uart output: %s", text)
}

func flattenLowHigh(payload []uint64) []uint32 {
	out := make([]uint32, 0, len(payload)*2)
	for _, w := range payload {
		out = append(out, uint32(w), uint32(w>>32))
	}
	return out
}
