package vm

import (
	"testing"

	"github.com/rv32sim/rv32sim/trace"
)

func newTestMachine() *Machine {
	return NewMachine(0x1000, FullIM(), IdentityTranslator{}, trace.NopTracer{}, 1<<16)
}

func encodeRType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeIType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func TestStepAdvancesPCByFour(t *testing.T) {
	m := newTestMachine()
	// addi x1, x0, 5
	m.Memory.SetWord(0x1000/4, encodeIType(OpOpImm, 1, F3Add_Sub_Mul, 0, 5))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.PC != 0x1004 {
		t.Fatalf("expected PC 0x1004, got %#x", m.CPU.PC)
	}
	if m.CPU.GetRegister(1) != 5 {
		t.Fatalf("expected x1=5, got %d", m.CPU.GetRegister(1))
	}
}

func TestAddiWriteToX0IsDiscarded(t *testing.T) {
	m := newTestMachine()
	// addi x0, x0, 5 -- must not perturb x0
	m.Memory.SetWord(0x1000/4, encodeIType(OpOpImm, 0, F3Add_Sub_Mul, 0, 5))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.GetRegister(0) != 0 {
		t.Fatalf("expected x0 to remain 0, got %d", m.CPU.GetRegister(0))
	}
}

func TestIllegalInstructionEntersTrapAndSetsCause(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.TVec = 0x2000
	// all-1s word decodes to an opcode with no handler.
	m.Memory.SetWord(0x1000/4, 0xFFFFFFFF)

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.PC != 0x2000 {
		t.Fatalf("expected PC redirected to mtvec 0x2000, got %#x", m.CPU.PC)
	}
	if m.CPU.Trap.Cause != IllegalInstruction.CauseValue() {
		t.Fatalf("expected mcause IllegalInstruction, got %d", m.CPU.Trap.Cause)
	}
	if m.CPU.Trap.EPC != 0x1000 {
		t.Fatalf("expected mepc 0x1000, got %#x", m.CPU.Trap.EPC)
	}
	if m.CPU.Mode() != ModeMachine {
		t.Fatalf("expected machine mode after trap entry, got %v", m.CPU.Mode())
	}
}

func TestMisalignedFetchTraps(t *testing.T) {
	m := newTestMachine()
	m.CPU.PC = 0x1001
	m.CPU.Trap.TVec = 0x3000

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.Trap.Cause != InstructionAddressMisaligned.CauseValue() {
		t.Fatalf("expected InstructionAddressMisaligned cause, got %d", m.CPU.Trap.Cause)
	}
}

func TestEcallFromMachineModeSetsCorrectCause(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.TVec = 0x4000
	m.Memory.SetWord(0x1000/4, wordEcall)

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.Trap.Cause != EnvironmentCallFromMMode.CauseValue() {
		t.Fatalf("expected EnvironmentCallFromMMode cause, got %d", m.CPU.Trap.Cause)
	}
}

func TestMretRestoresPreviousModeAndPC(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.TVec = 0x4000
	m.CPU.Trap.EPC = 0x1234
	m.Memory.SetWord(0x1000/4, wordMret)

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.PC != 0x1234 {
		t.Fatalf("expected PC restored to mepc 0x1234, got %#x", m.CPU.PC)
	}
	if m.CPU.Mode() != ModeUser {
		t.Fatalf("expected mode restored from mpp (User at reset), got %v", m.CPU.Mode())
	}
}

func TestWaitForInterruptSuspendsUntilTimerFires(t *testing.T) {
	m := newTestMachine()
	m.CPU.TimerMatch = 3
	m.CPU.Trap.IE = 1 << MipBitMTIP
	m.CPU.Trap.Status |= 1 << MstatusBitMIE
	m.CPU.Trap.TVec = 0x5000
	m.Memory.SetWord(0x1000/4, wordWfi)

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !m.CPU.WaitingForInterrupt() {
		t.Fatal("expected CPU to be waiting for interrupt after WFI")
	}
	if m.CPU.PC != 0x1004 {
		t.Fatalf("expected PC past the WFI instruction while waiting, got %#x", m.CPU.PC)
	}

	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}
	if m.CPU.WaitingForInterrupt() {
		t.Fatal("expected the timer interrupt to wake the CPU")
	}
	if m.CPU.PC != 0x5000 {
		t.Fatalf("expected PC redirected to mtvec on interrupt delivery, got %#x", m.CPU.PC)
	}
}
