package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rv32sim/rv32sim/loader"
	"github.com/rv32sim/rv32sim/trace"
)

// AccessType indicates how a recorded trace event touched an address.
type AccessType int

const (
	AccessFetch AccessType = iota // instruction opcode fetch
	AccessLoad                    // data read
	AccessStore                   // data write
)

func (a AccessType) String() string {
	switch a {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return "unknown"
	}
}

// Hit is one trace event resolved against the symbol table.
type Hit struct {
	ProcCycle uint64
	Address   uint64
	Type      AccessType
}

// SymbolXRef is one symbol's resolved address and every trace hit that
// landed on it.
type SymbolXRef struct {
	Name    string
	Address uint32
	Hits    []Hit
}

// XRefGenerator cross-references a flat symbol table (loader.LoadSymbols)
// against a recorded trace (trace.Recorder.Snapshot), resolving
// opcode-read/ram-read/ram-read-write events back to the symbol whose
// address they hit -- spec.md §4.9's optional flat symbol file exists
// only for this kind of display purpose, never consulted by the cycle
// engine itself.
type XRefGenerator struct {
	byAddress map[uint32]*SymbolXRef
}

// NewXRefGenerator indexes symbols by address.
func NewXRefGenerator(symbols []loader.Symbol) *XRefGenerator {
	x := &XRefGenerator{byAddress: make(map[uint32]*SymbolXRef, len(symbols))}
	for _, sym := range symbols {
		x.byAddress[sym.Address] = &SymbolXRef{Name: sym.Name, Address: sym.Address}
	}
	return x
}

// Generate walks events and attaches every hit to its matching symbol,
// dropping events whose address matches no known symbol. Returns the
// matched symbols sorted by address.
func (x *XRefGenerator) Generate(events []trace.Event) []*SymbolXRef {
	for _, e := range events {
		addr, accessType, ok := addressAndType(e)
		if !ok {
			continue
		}
		sym, ok := x.byAddress[uint32(addr)]
		if !ok {
			continue
		}
		sym.Hits = append(sym.Hits, Hit{ProcCycle: e.ProcCycle, Address: addr, Type: accessType})
	}

	out := make([]*SymbolXRef, 0, len(x.byAddress))
	for _, sym := range x.byAddress {
		if len(sym.Hits) > 0 {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func addressAndType(e trace.Event) (uint64, AccessType, bool) {
	switch e.Kind {
	case trace.EventOpcodeRead:
		return e.PhysAddr, AccessFetch, true
	case trace.EventRamRead:
		return e.PhysAddr, AccessLoad, true
	case trace.EventRamReadWrite:
		return e.PhysAddr, AccessStore, true
	default:
		return 0, 0, false
	}
}

// String renders the cross-reference as one symbol per paragraph,
// listing every hit's cycle and access type.
func (x *XRefGenerator) String(refs []*SymbolXRef) string {
	var sb strings.Builder
	for _, sym := range refs {
		fmt.Fprintf(&sb, "%s (0x%08X): %d hits\n", sym.Name, sym.Address, len(sym.Hits))
		for _, hit := range sym.Hits {
			fmt.Fprintf(&sb, "  cycle %d: %s\n", hit.ProcCycle, hit.Type)
		}
	}
	return sb.String()
}
