package tools

import (
	"strings"
	"testing"

	"github.com/rv32sim/rv32sim/loader"
	"github.com/rv32sim/rv32sim/trace"
)

func TestXRefGeneratorResolvesKnownAddresses(t *testing.T) {
	symbols := []loader.Symbol{
		{Name: "_start", Address: 0x1000},
		{Name: "main", Address: 0x1040},
	}
	events := []trace.Event{
		{Kind: trace.EventOpcodeRead, ProcCycle: 1, PhysAddr: 0x1000},
		{Kind: trace.EventOpcodeRead, ProcCycle: 2, PhysAddr: 0x1000},
		{Kind: trace.EventRamReadWrite, ProcCycle: 3, PhysAddr: 0x1040},
		{Kind: trace.EventRamRead, ProcCycle: 4, PhysAddr: 0x2000}, // no symbol, dropped
	}

	refs := NewXRefGenerator(symbols).Generate(events)
	if len(refs) != 2 {
		t.Fatalf("expected 2 symbols with hits, got %d", len(refs))
	}
	if refs[0].Name != "_start" || len(refs[0].Hits) != 2 {
		t.Fatalf("expected _start with 2 hits, got %+v", refs[0])
	}
	if refs[0].Hits[0].Type != AccessFetch {
		t.Fatalf("expected fetch access type, got %v", refs[0].Hits[0].Type)
	}
	if refs[1].Name != "main" || len(refs[1].Hits) != 1 {
		t.Fatalf("expected main with 1 hit, got %+v", refs[1])
	}
	if refs[1].Hits[0].Type != AccessStore {
		t.Fatalf("expected store access type, got %v", refs[1].Hits[0].Type)
	}
}

func TestXRefGeneratorOmitsSymbolsWithNoHits(t *testing.T) {
	symbols := []loader.Symbol{{Name: "unused", Address: 0x3000}}
	refs := NewXRefGenerator(symbols).Generate(nil)
	if len(refs) != 0 {
		t.Fatalf("expected no refs for a symbol never hit, got %+v", refs)
	}
}

func TestXRefGeneratorStringRendersHits(t *testing.T) {
	symbols := []loader.Symbol{{Name: "_start", Address: 0x1000}}
	events := []trace.Event{{Kind: trace.EventOpcodeRead, ProcCycle: 5, PhysAddr: 0x1000}}
	gen := NewXRefGenerator(symbols)
	refs := gen.Generate(events)
	out := gen.String(refs)
	if !strings.Contains(out, "_start") || !strings.Contains(out, "0x00001000") {
		t.Fatalf("expected symbol name and address in output, got %q", out)
	}
	if !strings.Contains(out, "cycle 5") {
		t.Fatalf("expected cycle number in output, got %q", out)
	}
}
