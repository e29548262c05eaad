package delegation

import (
	"testing"

	"github.com/rv32sim/rv32sim/trace"
	"github.com/rv32sim/rv32sim/vm"
)

func newTestMachine() *vm.Machine {
	return vm.NewMachine(0x1000, vm.FullIM(), vm.IdentityTranslator{}, trace.NopTracer{}, 1<<16)
}

// TestDelegationRegionRejectsNonzeroLow16Bits pins the §4.6 ABI rule
// that a delegation region base must have a zero low 16 bits, not
// merely be word-aligned -- 0x00001004 is word-aligned but not a legal
// region offset.
func TestDelegationRegionRejectsNonzeroLow16Bits(t *testing.T) {
	m := newTestMachine()
	k := NewKernels(nil)
	k.RegisterAll(m)

	if _, trap := m.AccessCSR(vm.CSRDelegationBlake2Round, 0x00001004, vm.CSRMutationWrite, false, false); trap.IsTrap() {
		t.Fatalf("a delegation ABI violation is a host fault, not a guest trap, got %v", trap)
	}
	if m.HostError() == nil {
		t.Fatal("expected a delegation ABI host fault for a base with nonzero low 16 bits")
	}
}

// TestDelegationRegionAcceptsZeroLow16Bits confirms a legal region base
// (low 16 bits zero, even though the high bits place it past the first
// 64 KiB) is accepted.
func TestDelegationRegionAcceptsZeroLow16Bits(t *testing.T) {
	m := newTestMachine()
	k := NewKernels(nil)
	k.RegisterAll(m)

	if _, trap := m.AccessCSR(vm.CSRDelegationBlake2Round, 0x00020000, vm.CSRMutationWrite, false, false); trap.IsTrap() {
		t.Fatalf("unexpected trap: %v", trap)
	}
	if m.HostError() != nil {
		t.Fatalf("unexpected host fault for a legal region base: %v", m.HostError())
	}
}

// TestBlake2sKernelRegisteredAndRunsFullCompression confirms the sixth
// delegation slot (spec.md §4.6, CSRNonDeterminism+1) is wired: writing
// to it reads the 8-word state + 16-word block, produces a new 8-word
// state, and leaves no host fault behind.
func TestBlake2sKernelRegisteredAndRunsFullCompression(t *testing.T) {
	m := newTestMachine()
	k := NewKernels(nil)
	k.RegisterAll(m)

	base := uint32(0x00020000)
	for i := 0; i < blake2StateWords+blake2MessageWords; i++ {
		if err := m.Memory.SetWord(base/4+uint32(i), uint32(i+1)); err != nil {
			t.Fatalf("SetWord returned error: %v", err)
		}
	}

	if _, trap := m.AccessCSR(vm.CSRDelegationBlake2s, base, vm.CSRMutationWrite, false, false); trap.IsTrap() {
		t.Fatalf("unexpected trap: %v", trap)
	}
	if m.HostError() != nil {
		t.Fatalf("unexpected host fault: %v", m.HostError())
	}

	allZero := true
	for i := 0; i < blake2StateWords; i++ {
		word, err := m.Memory.GetWord(base/4 + uint32(i))
		if err != nil {
			t.Fatalf("GetWord returned error: %v", err)
		}
		if word != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Fatal("expected the compression to overwrite the state words with a nonzero mix")
	}
}
