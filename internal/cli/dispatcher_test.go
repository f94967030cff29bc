package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *bytes.Buffer) {
	t.Helper()

	m := vm.New(nil)
	out := &bytes.Buffer{}
	d := NewDispatcher(m, strings.NewReader(""), out)

	return d, out
}

func TestDispatchPrefixMatch(t *testing.T) {
	t.Parallel()

	d, out := newTestDispatcher(t)

	if _, err := d.Dispatch("reg"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if !strings.Contains(out.String(), "PC") {
		t.Errorf("expected register dump, got %q", out.String())
	}
}

func TestDispatchUppercaseCommandName(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)

	// "f" matches only "file", since "finish" needs at least "fin"; no two
	// commands share a prefix at or above both minimum lengths, so there is
	// no ambiguous prefix to exercise. Assert instead that the command word
	// is matched case-insensitively: "QUIT" still runs quit.
	if _, err := d.Dispatch("QUIT"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if !d.Machine.Halted() {
		t.Errorf("quit should halt the machine")
	}
}

func TestDispatchRepeatsLastOnEmptyLine(t *testing.T) {
	t.Parallel()

	d, out := newTestDispatcher(t)
	d.Machine.Mem.LoadWord(d.Machine.PC, 0b0001_000_000_1_00001) // ADD R0,R0,#1

	if _, err := d.Dispatch("step"); err != nil {
		t.Fatalf("step: %v", err)
	}

	out.Reset()
	d.Machine.Mem.LoadWord(d.Machine.PC, 0b0001_000_000_1_00001)

	if _, err := d.Dispatch(""); err != nil {
		t.Fatalf("repeat: %v", err)
	}

	if d.Machine.Reg[vm.R0] != 2 {
		t.Errorf("expected repeated step to execute again, R0=%s", d.Machine.Reg[vm.R0])
	}
}

func TestBreakSetAndList(t *testing.T) {
	t.Parallel()

	d, out := newTestDispatcher(t)

	if _, err := d.Dispatch("break set x3005"); err != nil {
		t.Fatalf("break set: %v", err)
	}

	out.Reset()

	if _, err := d.Dispatch("break list"); err != nil {
		t.Fatalf("break list: %v", err)
	}

	if !strings.Contains(out.String(), "x3005") {
		t.Errorf("expected breakpoint listed, got %q", out.String())
	}
}

func TestDispatchListRepeatAppendsMore(t *testing.T) {
	t.Parallel()

	d, out := newTestDispatcher(t)

	if _, err := d.Dispatch("list x3000:x3003"); err != nil {
		t.Fatalf("list: %v", err)
	}

	out.Reset()

	if _, err := d.Dispatch(""); err != nil {
		t.Fatalf("repeat: %v", err)
	}

	if d.last != "list x3000:x3003" {
		t.Errorf("last: want original line preserved, got %q", d.last)
	}

	if !strings.Contains(out.String(), "x3004") {
		t.Errorf("expected repeat to continue past the first range, got %q", out.String())
	}
}

func TestDispatchNonRepeatableIgnoresEmptyLine(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)

	if _, err := d.Dispatch("break set x3005"); err != nil {
		t.Fatalf("break set: %v", err)
	}

	// An empty line after a one-shot command like "break" must not
	// silently re-run it.
	if _, err := d.Dispatch(""); err != nil {
		t.Fatalf("empty line: %v", err)
	}

	if len(d.Machine.Breakpoints.List()) != 1 {
		t.Errorf("expected exactly one breakpoint, got %d", len(d.Machine.Breakpoints.List()))
	}
}

func TestDispatchEmptyLineInsideScriptIsNotARepeat(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	d.Machine.Mem.LoadWord(d.Machine.PC, 0b0001_000_000_1_00001) // ADD R0,R0,#1

	if _, err := d.Dispatch("step"); err != nil {
		t.Fatalf("step: %v", err)
	}

	if err := d.PushScript(strings.NewReader("\n")); err != nil {
		t.Fatalf("push script: %v", err)
	}

	line, ok := d.readLine()
	if !ok {
		t.Fatalf("expected a line from the script")
	}

	if _, err := d.Dispatch(line); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if d.Machine.Reg[vm.R0] != 1 {
		t.Errorf("blank line inside a script should not repeat step, R0=%s", d.Machine.Reg[vm.R0])
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)

	if _, err := d.Dispatch("bogus"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
