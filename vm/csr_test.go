package vm

import "testing"

func encodeCsrI(rd, funct3, csr, rs1 uint32) uint32 {
	return csr<<20 | rs1<<15 | funct3<<12 | rd<<7 | OpSystem
}

func TestCsrrwSwapsOldAndNewValues(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.Scratch = 0x11
	m.CPU.SetRegister(1, 0x22)
	// csrrw x2, mscratch, x1
	m.Memory.SetWord(0x1000/4, encodeCsrI(2, F3Csrrw, CSRMscratch, 1))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if got := m.CPU.GetRegister(2); got != 0x11 {
		t.Fatalf("expected old CSR value 0x11 in x2, got %#x", got)
	}
	if m.CPU.Trap.Scratch != 0x22 {
		t.Fatalf("expected mscratch updated to 0x22, got %#x", m.CPU.Trap.Scratch)
	}
}

func TestCsrrsWithZeroOperandSuppressesWrite(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.Scratch = 0x42
	// csrrs x2, mscratch, x0 -- operand is x0, so the write side effect is suppressed
	m.Memory.SetWord(0x1000/4, encodeCsrI(2, F3Csrrs, CSRMscratch, 0))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if got := m.CPU.GetRegister(2); got != 0x42 {
		t.Fatalf("expected x2=0x42, got %#x", got)
	}
	if m.CPU.Trap.Scratch != 0x42 {
		t.Fatalf("expected mscratch unchanged, got %#x", m.CPU.Trap.Scratch)
	}
}

func TestCSRRWOnlyFeatureRejectsSetAndClear(t *testing.T) {
	m := NewMachine(0x1000, ProvingSubset(), IdentityTranslator{}, nil, 1<<16)
	m.CPU.Trap.TVec = 0x2000
	m.CPU.SetRegister(1, 1)
	// csrrs x2, mscratch, x1 -- CSRRWOnly forbids non-write mutation forms
	m.Memory.SetWord(0x1000/4, encodeCsrI(2, F3Csrrs, CSRMscratch, 1))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.Trap.Cause != IllegalInstruction.CauseValue() {
		t.Fatalf("expected IllegalInstruction under CSRRWOnly, got cause %d", m.CPU.Trap.Cause)
	}
}

func TestUnknownCSRIndexTraps(t *testing.T) {
	m := newTestMachine()
	m.CPU.Trap.TVec = 0x2000
	m.Memory.SetWord(0x1000/4, encodeCsrI(2, F3Csrrw, 0x999, 1))

	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.CPU.Trap.Cause != IllegalInstruction.CauseValue() {
		t.Fatalf("expected IllegalInstruction for an unregistered CSR index, got %d", m.CPU.Trap.Cause)
	}
}

// stubPort is a minimal CSRPort used to exercise Machine's port-lookup
// indirection without pulling in the oracle or delegation packages.
type stubPort struct {
	value     uint32
	lastSeen  uint32
	readCount int
}

func (p *stubPort) ReadCSR(m *Machine, mutation CSRMutation) (uint32, TrapReason) {
	p.readCount++
	return p.value, NoTrap
}

func (p *stubPort) WriteCSR(m *Machine, value uint32, mutation CSRMutation) TrapReason {
	p.lastSeen = value
	p.value = value
	return NoTrap
}

// TestCsrrwWithX0DestinationSkipsPortRead pins down the write-only
// CSRRW idiom (csrrw x0, csr, rs1): the port's ReadCSR must never be
// invoked, since a port with a real read side effect (like the
// non-determinism oracle advancing its response iterator) must not
// observe a write-only access as a read.
func TestCsrrwWithX0DestinationSkipsPortRead(t *testing.T) {
	m := newTestMachine()
	port := &stubPort{value: 0x7}
	m.RegisterPort(CSRNonDeterminism, port)
	m.CPU.SetRegister(1, 0x99)

	// csrrw x0, ndet, x1 -- destination is x0, so the read side effect
	// must be suppressed even though the write still happens.
	m.Memory.SetWord(0x1000/4, encodeCsrI(0, F3Csrrw, CSRNonDeterminism, 1))
	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if port.lastSeen != 0x99 {
		t.Fatalf("expected port to observe the written value 0x99, got %#x", port.lastSeen)
	}
	if port.readCount != 0 {
		t.Fatalf("expected ReadCSR to never be called for a write-only CSRRW, got %d calls", port.readCount)
	}
}

func TestRegisteredPortHandlesNonStandardCSR(t *testing.T) {
	m := newTestMachine()
	port := &stubPort{value: 0x7}
	m.RegisterPort(CSRNonDeterminism, port)
	m.CPU.SetRegister(1, 0x99)

	m.Memory.SetWord(0x1000/4, encodeCsrI(2, F3Csrrw, CSRNonDeterminism, 1))
	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if got := m.CPU.GetRegister(2); got != 0x7 {
		t.Fatalf("expected old port value 0x7 in x2, got %#x", got)
	}
	if port.lastSeen != 0x99 {
		t.Fatalf("expected port to observe the written value 0x99, got %#x", port.lastSeen)
	}
}
