package disasm

import (
	"strings"
	"testing"

	"github.com/rv32sim/rv32sim/vm"
)

func rType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func iType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func TestDisassembleAddi(t *testing.T) {
	word := iType(vm.OpOpImm, 5, vm.F3Add_Sub_Mul, 1, 10)
	got := Disassemble(word)
	if !strings.Contains(got, "addi") || !strings.Contains(got, "t0") || !strings.Contains(got, "ra") {
		t.Fatalf("expected an addi mnemonic with ABI register names, got %q", got)
	}
}

func TestDisassembleAddiFromX0RendersAsLi(t *testing.T) {
	word := iType(vm.OpOpImm, 5, vm.F3Add_Sub_Mul, 0, 7)
	got := Disassemble(word)
	if !strings.HasPrefix(got, "li ") {
		t.Fatalf("expected the addi-from-x0 idiom to render as li, got %q", got)
	}
}

func TestDisassembleAdd(t *testing.T) {
	word := rType(vm.OpOp, 3, vm.F3Add_Sub_Mul, 1, 2, vm.F7Base)
	got := Disassemble(word)
	if !strings.HasPrefix(got, "add ") {
		t.Fatalf("expected an add mnemonic, got %q", got)
	}
}

func TestDisassembleMul(t *testing.T) {
	word := rType(vm.OpOp, 3, vm.F3Add_Sub_Mul, 1, 2, vm.F7MExt)
	got := Disassemble(word)
	if !strings.HasPrefix(got, "mul ") {
		t.Fatalf("expected a mul mnemonic, got %q", got)
	}
}

func TestDisassembleEcallAndMret(t *testing.T) {
	if got := Disassemble(0x00000073); got != "ecall" {
		t.Fatalf("expected ecall, got %q", got)
	}
	if got := Disassemble(0x30200073); got != "mret" {
		t.Fatalf("expected mret, got %q", got)
	}
}

func TestDisassembleCsrrwNamesStandardCSR(t *testing.T) {
	word := iType(vm.OpSystem, 2, vm.F3Csrrw, 1, int32(vm.CSRMscratch))
	got := Disassemble(word)
	if !strings.Contains(got, "csrrw") || !strings.Contains(got, "mscratch") {
		t.Fatalf("expected csrrw with mscratch name, got %q", got)
	}
}

func TestDisassembleUnknownFallsBackToHex(t *testing.T) {
	got := Disassemble(0xFFFFFFFF)
	if !strings.HasPrefix(got, ".word 0x") {
		t.Fatalf("expected a .word hex fallback for an unrecognized word, got %q", got)
	}
}
