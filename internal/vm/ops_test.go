package vm

import (
	"errors"
	"testing"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()

	m := New(nil)
	m.PC = 0x3000

	return m
}

func TestAddImmediate(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Mem.LoadWord(m.PC, 0b0001_000_001_1_00010) // ADD R0, R1, #2
	m.Reg[R1] = 3

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if m.Reg[R0] != 5 {
		t.Errorf("R0: want 5, got %d", m.Reg[R0])
	}

	if !m.PSR.Positive() {
		t.Errorf("PSR: want positive, got %s", m.PSR)
	}
}

func TestAddSetsZero(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Mem.LoadWord(m.PC, 0b0001_000_001_1_00000) // ADD R0, R1, #0
	m.Reg[R1] = 0

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if !m.PSR.Zero() {
		t.Errorf("PSR: want zero, got %s", m.PSR)
	}
}

func TestBranchTaken(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.PSR.Set(0) // zero
	// BRz #5
	m.Mem.LoadWord(m.PC, 0b0000_010_000000101)

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if want := Word(0x3000 + 1 + 5); m.PC != want {
		t.Errorf("PC: want %s, got %s", want, m.PC)
	}
}

func TestBranchNotTaken(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.PSR.Set(1) // positive
	m.Mem.LoadWord(m.PC, 0b0000_010_000000101) // BRz

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if want := Word(0x3001); m.PC != want {
		t.Errorf("PC: want %s, got %s", want, m.PC)
	}
}

func TestLoadPCRelative(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Mem.LoadWord(0x3005, 0x00AB)
	m.Mem.LoadWord(m.PC, 0b0010_000_000000100) // LD R0, #4 -> 0x3005

	if _, err := m.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if m.Reg[R0] != 0x00AB {
		t.Errorf("R0: want x00AB, got %s", Word(m.Reg[R0]))
	}
}

func TestJsrAndRet(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Mem.LoadWord(m.PC, 0b0100_1_00000000101) // JSR #5
	m.Mem.LoadWord(0x3006, 0b1100_000_111_000000) // RET

	if _, err := m.Step(); err != nil {
		t.Fatalf("step jsr: %v", err)
	}

	if m.FinishDepth != 1 {
		t.Errorf("finish depth: want 1, got %d", m.FinishDepth)
	}

	if m.PC != 0x3006 {
		t.Errorf("PC after JSR: want x3006, got %s", m.PC)
	}

	res, err := m.Step()
	if err != nil {
		t.Fatalf("step ret: %v", err)
	}

	if !res.FinishedSub {
		t.Errorf("expected FinishedSub after RET")
	}

	if m.PC != 0x3001 {
		t.Errorf("PC after RET: want x3001, got %s", m.PC)
	}
}

func TestIllegalInstruction(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Mem.LoadWord(m.PC, 0xD000)

	_, err := m.Step()
	if !errors.Is(err, ErrIllegalInstruction) {
		t.Fatalf("want ErrIllegalInstruction, got %v", err)
	}

	if !m.Halted() {
		t.Errorf("machine should be halted after illegal instruction")
	}
}

func TestStepOnHaltedMachine(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Halt()

	if _, err := m.Step(); err == nil {
		t.Fatalf("want error stepping a halted machine")
	}
}

func TestBreakpointStop(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	m.Breakpoints.Set(0x3001)
	m.Mem.LoadWord(m.PC, 0b0001_000_000_1_00001) // ADD R0, R0, #1

	res, err := m.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	if !res.Breakpoint {
		t.Errorf("want breakpoint hit at %s", m.PC)
	}
}
