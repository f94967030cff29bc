package vm

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// waitReady polls KBSR briefly: the console's background pump goroutine
// needs a scheduling turn to deliver the first byte.
func waitReady(t *testing.T, mem *Memory) Word {
	t.Helper()

	deadline := time.Now().Add(time.Second)

	for time.Now().Before(deadline) {
		if w, _ := mem.Read(AddrKBSR); w == readyBit {
			return w
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatal("KBSR never became ready")

	return 0
}

func TestKeyboardReadyAndConsume(t *testing.T) {
	t.Parallel()

	console := NewStreamConsole(strings.NewReader("A"), &bytes.Buffer{}, false)
	mem := NewMemory(console)

	waitReady(t, mem)

	w, err := mem.Read(AddrKBDR)
	if err != nil {
		t.Fatalf("KBDR: %v", err)
	}

	if w != Word('A') {
		t.Errorf("KBDR: want 'A', got %s", w)
	}

	if w, _ := mem.Read(AddrKBSR); w != 0 {
		t.Errorf("KBSR after consume: want not-ready, got %s", w)
	}
}

func TestKeyboardNotReadyWithNoConsole(t *testing.T) {
	t.Parallel()

	mem := NewMemory(nil)

	if w, _ := mem.Read(AddrKBSR); w != 0 {
		t.Errorf("KBSR: want not-ready with no console, got %s", w)
	}
}

func TestDisplayWriteReachesConsole(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	console := NewStreamConsole(strings.NewReader(""), out, false)
	mem := NewMemory(console)

	if w, _ := mem.Read(AddrDSR); w != readyBit {
		t.Fatalf("DSR: want ready, got %s", w)
	}

	if err := mem.Write(AddrDDR, Word('X')); err != nil {
		t.Fatalf("write DDR: %v", err)
	}

	if out.String() != "X" {
		t.Errorf("console output: want %q, got %q", "X", out.String())
	}
}

func TestMCRWriteHalts(t *testing.T) {
	t.Parallel()

	mem := NewMemory(nil)

	if !mem.Running() {
		t.Fatalf("memory should start running")
	}

	if err := mem.Write(AddrMCR, 0); err != nil {
		t.Fatalf("write MCR: %v", err)
	}

	if mem.Running() {
		t.Errorf("memory should be halted after clearing MCR")
	}
}

func TestStreamConsoleFlushDiscardsBufferedKey(t *testing.T) {
	t.Parallel()

	console := NewStreamConsole(strings.NewReader("A"), &bytes.Buffer{}, false)
	mem := NewMemory(console)

	waitReady(t, mem)

	console.Flush()

	if w, _ := mem.Read(AddrKBSR); w != 0 {
		t.Errorf("KBSR after flush: want not-ready, got %s", w)
	}
}

func TestMemoryFlushInputDelegatesToConsole(t *testing.T) {
	t.Parallel()

	console := NewStreamConsole(strings.NewReader("A"), &bytes.Buffer{}, false)
	mem := NewMemory(console)

	waitReady(t, mem)

	mem.FlushInput()

	if w, _ := mem.Read(AddrKBSR); w != 0 {
		t.Errorf("KBSR after FlushInput: want not-ready, got %s", w)
	}
}

func TestOrdinaryReadWrite(t *testing.T) {
	t.Parallel()

	mem := NewMemory(nil)

	if err := mem.Write(0x3000, 0x1234); err != nil {
		t.Fatalf("write: %v", err)
	}

	if w, _ := mem.Read(0x3000); w != 0x1234 {
		t.Errorf("read: want x1234, got %s", w)
	}

	dirty := mem.TakeDirty()
	if len(dirty) != 1 || dirty[0] != 0x3000 {
		t.Errorf("dirty: want [x3000], got %v", dirty)
	}
}
