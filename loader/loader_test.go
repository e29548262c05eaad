package loader

import (
	"strings"
	"testing"

	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

func newTestMachine(entry uint32) *vm.Machine {
	return vm.NewMachine(entry, vm.FullIM(), vm.IdentityTranslator{}, trace.NopTracer{}, 1<<16)
}

func TestLoadImageWritesWordsAndSetsPC(t *testing.T) {
	machine := newTestMachine(0)
	image := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 0xCC, 0xDD}

	if err := LoadImage(machine, strings.NewReader(string(image)), 0x1000); err != nil {
		t.Fatalf("LoadImage returned error: %v", err)
	}
	if machine.CPU.PC != 0x1000 {
		t.Fatalf("expected PC=0x1000, got %#x", machine.CPU.PC)
	}

	word, err := machine.Memory.GetWord(0x1000 / 4)
	if err != nil {
		t.Fatalf("GetWord returned error: %v", err)
	}
	if word != 0x04030201 {
		t.Fatalf("expected little-endian word 0x04030201, got %#x", word)
	}

	word2, err := machine.Memory.GetWord(0x1000/4 + 1)
	if err != nil {
		t.Fatalf("GetWord returned error: %v", err)
	}
	if word2 != 0xDDCCBBAA {
		t.Fatalf("expected little-endian word 0xDDCCBBAA, got %#x", word2)
	}
}

func TestLoadImageRejectsUnalignedLength(t *testing.T) {
	machine := newTestMachine(0)
	err := LoadImage(machine, strings.NewReader("abc"), 0)
	if err == nil {
		t.Fatal("expected an error for an image whose length is not a multiple of 4")
	}
}

func TestLoadSymbolsParsesTabSeparatedPairs(t *testing.T) {
	input := "0x1000\t_start\n# a comment\n\n00001040\tmain\n"
	symbols, err := LoadSymbols(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadSymbols returned error: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(symbols))
	}
	if symbols[0] != (Symbol{Address: 0x1000, Name: "_start"}) {
		t.Fatalf("unexpected first symbol: %+v", symbols[0])
	}
	if symbols[1] != (Symbol{Address: 0x1040, Name: "main"}) {
		t.Fatalf("unexpected second symbol: %+v", symbols[1])
	}
}

func TestLoadSymbolsRejectsMalformedLine(t *testing.T) {
	_, err := LoadSymbols(strings.NewReader("not-a-valid-line-at-all\n"))
	if err == nil {
		t.Fatal("expected an error for a line with no name field")
	}
}

func TestLoadSymbolsRejectsBadAddress(t *testing.T) {
	_, err := LoadSymbols(strings.NewReader("zzzz\tmain\n"))
	if err == nil {
		t.Fatal("expected an error for a non-hex address")
	}
}
