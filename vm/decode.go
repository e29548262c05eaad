package vm

// Decode (half of component C9, spec.md §4.3) turns a raw 32-bit
// instruction word into its constituent fields. Grounded on the
// teacher's executor.go opcode/operand split (a single ARM word
// decoded into condition/opcode/operands up front, then dispatched),
// generalized to RV32's seven instruction formats.

// Opcode values, bits 6:0 of the instruction word.
const (
	OpLoad   = 0x03
	OpOpImm  = 0x13
	OpAuipc  = 0x17
	OpStore  = 0x23
	OpOp     = 0x33
	OpLui    = 0x37
	OpBranch = 0x63
	OpJalr   = 0x67
	OpJal    = 0x6f
	OpSystem = 0x73
)

// funct3 values shared across opcodes that use it to select a
// sub-operation.
const (
	F3Add_Sub_Mul    = 0x0
	F3Sll_Mulh       = 0x1
	F3Slt_Mulhsu     = 0x2
	F3Sltu_Mulhu     = 0x3
	F3Xor_Div        = 0x4
	F3Srl_Sra_Divu   = 0x5
	F3Or_Rem         = 0x6
	F3And_Remu       = 0x7

	F3Beq  = 0x0
	F3Bne  = 0x1
	F3Blt  = 0x4
	F3Bge  = 0x5
	F3Bltu = 0x6
	F3Bgeu = 0x7

	F3Lb  = 0x0
	F3Lh  = 0x1
	F3Lw  = 0x2
	F3Lbu = 0x4
	F3Lhu = 0x5

	F3Sb = 0x0
	F3Sh = 0x1
	F3Sw = 0x2

	F3Ecall_Ebreak_Mret_Wfi = 0x0
	F3Csrrw                 = 0x1
	F3Csrrs                 = 0x2
	F3Csrrc                 = 0x3
	F3Csrrwi                = 0x5
	F3Csrrsi                = 0x6
	F3Csrrci                = 0x7
)

// funct7 values distinguishing OP sub-opcodes that share a funct3.
const (
	F7Base     = 0x00
	F7AltOrM   = 0x20 // SUB, SRA
	F7MExt     = 0x01 // MUL/DIV/REM family
	F7Rotate   = 0x30 // ROL/ROR (Zbb-style rotate, gated by Features.Rotation)
)

// Instruction is a fully decoded instruction word. Every field is
// populated regardless of the instruction's actual format; fields the
// format doesn't use are simply ignored by the executing function.
type Instruction struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Funct7 uint32

	ImmI int32
	ImmS int32
	ImmB int32
	ImmU int32
	ImmJ int32
}

// Decode splits a raw instruction word into its fields. It never
// fails: an unrecognized opcode/funct3/funct7 combination is detected
// by the executing switch, which raises IllegalInstruction.
func Decode(word uint32) Instruction {
	return Instruction{
		Raw:    word,
		Opcode: word & Mask7Bit,
		Rd:     (word >> 7) & Mask5Bit,
		Funct3: (word >> 12) & 0x7,
		Rs1:    (word >> 15) & Mask5Bit,
		Rs2:    (word >> 20) & Mask5Bit,
		Funct7: (word >> 25) & Mask7Bit,

		ImmI: signExtend(word>>20, 12),
		ImmS: signExtend(((word>>25)<<5)|((word>>7)&0x1f), 12),
		ImmB: decodeImmB(word),
		ImmU: int32(word &^ Mask12Bit),
		ImmJ: decodeImmJ(word),
	}
}

func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

func decodeImmB(word uint32) int32 {
	bit12 := (word >> 31) & 0x1
	bit11 := (word >> 7) & 0x1
	bits10_5 := (word >> 25) & 0x3f
	bits4_1 := (word >> 8) & 0xf
	value := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(value, 13)
}

func decodeImmJ(word uint32) int32 {
	bit20 := (word >> 31) & 0x1
	bits19_12 := (word >> 12) & 0xff
	bit11 := (word >> 20) & 0x1
	bits10_1 := (word >> 21) & 0x3ff
	value := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(value, 21)
}
