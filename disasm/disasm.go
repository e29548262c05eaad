// Package disasm renders a raw RV32 instruction word as a mnemonic
// text line for diagnostics and the debugger front ends (spec.md's
// external-collaborator component table). It never participates in
// the cycle engine -- vm.Decode/vm.Machine.execute own the actual
// semantics -- this package only describes what vm already decided.
//
// Grounded on the teacher's encoder package, whose per-format files
// (data_processing.go, branch.go, memory.go, other.go) each own one
// opcode table mapping a mnemonic to its encoded bits. This package
// inverts that direction, reusing vm's own opcode/funct3/funct7
// constants and vm.Decode so the two packages can never disagree about
// what an instruction word means.
package disasm

import (
	"fmt"

	"github.com/rv32sim/rv32sim/vm"
)

// regName renders a general register using its ABI name, matching the
// convention object-dump tools and the original reference model both
// use in preference to the bare x-number.
var regName = [...]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func reg(idx uint32) string {
	if int(idx) < len(regName) {
		return regName[idx]
	}
	return fmt.Sprintf("x%d", idx)
}

// Disassemble renders word as a single mnemonic line. A word whose
// opcode this package doesn't recognize, or a SYSTEM word outside the
// forms it names, renders as a raw hex fallback rather than an error; a
// known opcode with an unrecognized funct3/funct7 renders as a
// placeholder mnemonic such as "op?(f3=..,f7=..)". No error is returned
// since a disassembly listing over an arbitrary
// memory region will always contain data words alongside real code.
func Disassemble(word uint32) string {
	inst := vm.Decode(word)
	if text, ok := disassembleInstruction(inst); ok {
		return text
	}
	return fmt.Sprintf(".word 0x%08x", word)
}

func disassembleInstruction(inst vm.Instruction) (string, bool) {
	switch inst.Opcode {
	case vm.OpOpImm:
		return disassembleOpImm(inst), true
	case vm.OpOp:
		return disassembleOp(inst), true
	case vm.OpLoad:
		return disassembleLoad(inst), true
	case vm.OpStore:
		return disassembleStore(inst), true
	case vm.OpBranch:
		return disassembleBranch(inst), true
	case vm.OpJal:
		return fmt.Sprintf("jal %s, %d", reg(inst.Rd), inst.ImmJ), true
	case vm.OpJalr:
		return fmt.Sprintf("jalr %s, %d(%s)", reg(inst.Rd), inst.ImmI, reg(inst.Rs1)), true
	case vm.OpLui:
		return fmt.Sprintf("lui %s, 0x%x", reg(inst.Rd), uint32(inst.ImmU)>>12), true
	case vm.OpAuipc:
		return fmt.Sprintf("auipc %s, 0x%x", reg(inst.Rd), uint32(inst.ImmU)>>12), true
	case vm.OpSystem:
		return disassembleSystem(inst)
	default:
		return "", false
	}
}

func disassembleOpImm(inst vm.Instruction) string {
	rd, rs1, imm := reg(inst.Rd), reg(inst.Rs1), inst.ImmI
	switch inst.Funct3 {
	case vm.F3Add_Sub_Mul:
		if inst.Rs1 == 0 {
			return fmt.Sprintf("li %s, %d", rd, imm)
		}
		return fmt.Sprintf("addi %s, %s, %d", rd, rs1, imm)
	case vm.F3Slt_Mulhsu:
		return fmt.Sprintf("slti %s, %s, %d", rd, rs1, imm)
	case vm.F3Sltu_Mulhu:
		return fmt.Sprintf("sltiu %s, %s, %d", rd, rs1, imm)
	case vm.F3Xor_Div:
		return fmt.Sprintf("xori %s, %s, %d", rd, rs1, imm)
	case vm.F3Or_Rem:
		return fmt.Sprintf("ori %s, %s, %d", rd, rs1, imm)
	case vm.F3And_Remu:
		return fmt.Sprintf("andi %s, %s, %d", rd, rs1, imm)
	case vm.F3Sll_Mulh:
		return fmt.Sprintf("slli %s, %s, %d", rd, rs1, uint32(imm)&0x1f)
	case vm.F3Srl_Sra_Divu:
		switch inst.Funct7 {
		case vm.F7AltOrM:
			return fmt.Sprintf("srai %s, %s, %d", rd, rs1, uint32(imm)&0x1f)
		case vm.F7Rotate:
			return fmt.Sprintf("rori %s, %s, %d", rd, rs1, uint32(imm)&0x1f)
		default:
			return fmt.Sprintf("srli %s, %s, %d", rd, rs1, uint32(imm)&0x1f)
		}
	default:
		return fmt.Sprintf("op-imm?%d %s, %s, %d", inst.Funct3, rd, rs1, imm)
	}
}

var opMnemonics = map[uint32]map[uint32]string{
	vm.F7Base: {
		vm.F3Add_Sub_Mul:  "add",
		vm.F3Sll_Mulh:     "sll",
		vm.F3Slt_Mulhsu:   "slt",
		vm.F3Sltu_Mulhu:   "sltu",
		vm.F3Xor_Div:      "xor",
		vm.F3Srl_Sra_Divu: "srl",
		vm.F3Or_Rem:       "or",
		vm.F3And_Remu:     "and",
	},
	vm.F7AltOrM: {
		vm.F3Add_Sub_Mul:  "sub",
		vm.F3Srl_Sra_Divu: "sra",
	},
	vm.F7Rotate: {
		vm.F3Sll_Mulh:     "rol",
		vm.F3Srl_Sra_Divu: "ror",
	},
	vm.F7MExt: {
		vm.F3Add_Sub_Mul:  "mul",
		vm.F3Sll_Mulh:     "mulh",
		vm.F3Slt_Mulhsu:   "mulhsu",
		vm.F3Sltu_Mulhu:   "mulhu",
		vm.F3Xor_Div:      "div",
		vm.F3Srl_Sra_Divu: "divu",
		vm.F3Or_Rem:       "rem",
		vm.F3And_Remu:     "remu",
	},
}

func disassembleOp(inst vm.Instruction) string {
	if byFunct3, ok := opMnemonics[inst.Funct7]; ok {
		if mnemonic, ok := byFunct3[inst.Funct3]; ok {
			return fmt.Sprintf("%s %s, %s, %s", mnemonic, reg(inst.Rd), reg(inst.Rs1), reg(inst.Rs2))
		}
	}
	return fmt.Sprintf("op?(f3=%d,f7=%d) %s, %s, %s", inst.Funct3, inst.Funct7, reg(inst.Rd), reg(inst.Rs1), reg(inst.Rs2))
}

func disassembleLoad(inst vm.Instruction) string {
	mnemonic, ok := map[uint32]string{
		vm.F3Lb: "lb", vm.F3Lh: "lh", vm.F3Lw: "lw", vm.F3Lbu: "lbu", vm.F3Lhu: "lhu",
	}[inst.Funct3]
	if !ok {
		mnemonic = fmt.Sprintf("load?%d", inst.Funct3)
	}
	return fmt.Sprintf("%s %s, %d(%s)", mnemonic, reg(inst.Rd), inst.ImmI, reg(inst.Rs1))
}

func disassembleStore(inst vm.Instruction) string {
	mnemonic, ok := map[uint32]string{
		vm.F3Sb: "sb", vm.F3Sh: "sh", vm.F3Sw: "sw",
	}[inst.Funct3]
	if !ok {
		mnemonic = fmt.Sprintf("store?%d", inst.Funct3)
	}
	return fmt.Sprintf("%s %s, %d(%s)", mnemonic, reg(inst.Rs2), inst.ImmS, reg(inst.Rs1))
}

func disassembleBranch(inst vm.Instruction) string {
	mnemonic, ok := map[uint32]string{
		vm.F3Beq: "beq", vm.F3Bne: "bne", vm.F3Blt: "blt",
		vm.F3Bge: "bge", vm.F3Bltu: "bltu", vm.F3Bgeu: "bgeu",
	}[inst.Funct3]
	if !ok {
		mnemonic = fmt.Sprintf("branch?%d", inst.Funct3)
	}
	return fmt.Sprintf("%s %s, %s, %d", mnemonic, reg(inst.Rs1), reg(inst.Rs2), inst.ImmB)
}

// csrName renders the standard CSR indices this simulator implements
// and the non-determinism (oracle) port by name; anything else (the
// delegation kernels) falls back to its raw hex index.
var csrName = map[uint32]string{
	vm.CSRSatp: "satp", vm.CSRMstatus: "mstatus", vm.CSRMie: "mie",
	vm.CSRMip: "mip", vm.CSRMtvec: "mtvec", vm.CSRMscratch: "mscratch",
	vm.CSRMepc: "mepc", vm.CSRMcause: "mcause", vm.CSRMtval: "mtval",
	vm.CSRNonDeterminism: "ndet",
}

func csrDisplay(index uint32) string {
	if name, ok := csrName[index]; ok {
		return name
	}
	return fmt.Sprintf("0x%03x", index)
}

func disassembleSystem(inst vm.Instruction) (string, bool) {
	switch inst.Funct3 {
	case vm.F3Ecall_Ebreak_Mret_Wfi:
		switch inst.Raw {
		case 0x00000073:
			return "ecall", true
		case 0x00100073:
			return "ebreak", true
		case 0x30200073:
			return "mret", true
		case 0x10500073:
			return "wfi", true
		default:
			return "", false
		}
	case vm.F3Csrrw, vm.F3Csrrs, vm.F3Csrrc:
		mnemonic := map[uint32]string{vm.F3Csrrw: "csrrw", vm.F3Csrrs: "csrrs", vm.F3Csrrc: "csrrc"}[inst.Funct3]
		csrIndex := inst.Raw >> 20
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, reg(inst.Rd), csrDisplay(csrIndex), reg(inst.Rs1)), true
	case vm.F3Csrrwi, vm.F3Csrrsi, vm.F3Csrrci:
		mnemonic := map[uint32]string{vm.F3Csrrwi: "csrrwi", vm.F3Csrrsi: "csrrsi", vm.F3Csrrci: "csrrci"}[inst.Funct3]
		csrIndex := inst.Raw >> 20
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, reg(inst.Rd), csrDisplay(csrIndex), inst.Rs1), true
	default:
		return "", false
	}
}
