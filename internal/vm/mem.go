package vm

// mem.go implements the 64K-word address space and the memory-mapped device
// registers layered on top of it. See spec.md §4.1.

import (
	"errors"
	"fmt"

	"github.com/LandonTheCoder/lc3tools-ng/internal/log"
)

// MemSize is the number of addressable words.
const MemSize = 1 << 16

var (
	ErrAddress = errors.New("vm: address out of range")
	ErrDevice  = errors.New("vm: device error")
)

// Memory is the machine's 64K-word address space, including the
// memory-mapped device registers. Create one with NewMemory: the zero value
// has the MCR cleared (not running) and no logger. A Memory with no attached
// console reads the keyboard as never-ready and discards display writes.
type Memory struct {
	cells [MemSize]Word

	console Console
	mcr     ControlRegister

	idleCount int

	// Dirty records addresses written since the last call to TakeDirty,
	// for the monitor's "show state after every step" display.
	Dirty []Word

	Log *log.Logger
}

// NewMemory creates a Memory with the MCR initialized to the running state,
// as the original simulator does on reset.
func NewMemory(console Console) *Memory {
	return &Memory{
		console: console,
		mcr:     controlRunning,
		Log:     log.DefaultLogger(),
	}
}

// AttachConsole rebinds the console device, e.g. when the `option stdin`
// command is toggled mid-script (spec.md §4.7, SPEC_FULL.md "option
// stdin's live rebind").
func (m *Memory) AttachConsole(c Console) { m.console = c }

// Running reports the state of the master control register.
func (m *Memory) Running() bool { return m.mcr.Running() }

// Halt clears the master control register's run bit directly, for use by
// the monitor when a `finish`/`quit` sequence needs to stop the machine
// without going through a simulated STI.
func (m *Memory) Halt() { m.mcr &^= controlRunning }

// Fetch is Read with the error discarded. It resolves device registers with
// the same side effects as Read (fetching KBDR consumes a pending
// keystroke); instruction loads and the disassembler both read through it.
func (m *Memory) Fetch(addr Word) Word {
	w, _ := m.Read(addr)
	return w
}

// Read loads the word at addr. Reads of KBDR consume the pending keystroke
// and clear the keyboard ready bit; reads of KBSR/DSR poll the console.
func (m *Memory) Read(addr Word) (Word, error) {
	switch addr {
	case AddrKBSR:
		return m.readKBSR(), nil
	case AddrKBDR:
		return m.readKBDR()
	case AddrDSR:
		return m.readDSR(), nil
	case AddrDDR:
		return 0, nil
	case AddrMCR:
		return Word(m.mcr), nil
	default:
		return m.cells[addr], nil
	}
}

// Write stores val at addr. Writes to DDR send a character to the console;
// writes to KBSR/KBDR are accepted but have no device effect, matching real
// LC-3 hardware where those registers are read-only from software's
// perspective (the original simulator is silent about enforcing this, so
// this implementation simply does not let a write change device state it
// doesn't own).
func (m *Memory) Write(addr, val Word) error {
	switch addr {
	case AddrDDR:
		if m.console == nil {
			break
		}

		if err := m.console.WriteChar(byte(val)); err != nil {
			return fmt.Errorf("%w: display: %w", ErrDevice, err)
		}
	case AddrMCR:
		m.mcr = ControlRegister(val)
		if !m.mcr.Running() {
			m.Log.Debug("mcr cleared, halting", "addr", addr)
		}
	case AddrKBSR, AddrKBDR, AddrDSR:
		// Read-only from the simulated program's point of view.
	default:
		m.cells[addr] = val
		m.Dirty = append(m.Dirty, addr)
	}

	return nil
}

// FlushInput discards any keystroke the console has buffered but the
// simulated program hasn't read yet, for the `finish`/`continue`/`next` run
// loop's post-stop cleanup (see the `flush` option).
func (m *Memory) FlushInput() {
	if f, ok := m.console.(interface{ Flush() }); ok {
		f.Flush()
	}
}

// TakeDirty returns and clears the set of addresses written since the last
// call, for the monitor's post-step memory-change display.
func (m *Memory) TakeDirty() []Word {
	d := m.Dirty
	m.Dirty = nil

	return d
}

func (m *Memory) readKBSR() Word {
	if m.console != nil && m.console.KeyReady() {
		m.idleCount = 0
		return readyBit
	}

	m.idleCount++
	if m.idleCount >= idleThreshold {
		idleSleep()
	}

	return 0
}

func (m *Memory) readKBDR() (Word, error) {
	if m.console == nil || !m.console.KeyReady() {
		return 0, nil
	}

	b, err := m.console.ReadKey()
	if err != nil {
		return 0, fmt.Errorf("%w: keyboard: %w", ErrDevice, err)
	}

	m.idleCount = 0

	return Word(b), nil
}

func (m *Memory) readDSR() Word {
	if sc, ok := m.console.(*StreamConsole); ok && sc.dsrBusy() {
		return 0
	}

	if m.console == nil {
		return 0
	}

	return readyBit
}

// LoadWord is used by the object-file loader to install a word directly,
// bypassing device semantics (loading to a device address just sets the
// backing cell; it does not trigger I/O). It does not record the address
// in Dirty, since a load is not a "step changed this" event.
func (m *Memory) LoadWord(addr, val Word) {
	m.cells[addr] = val
}

// RawWords returns a snapshot of the addresses in [lo, hi], inclusive,
// bypassing device semantics -- used by the `dump`/`translate` commands, which
// display device registers' backing cells rather than triggering reads.
func (m *Memory) RawWords(lo, hi Word) []Word {
	out := make([]Word, 0, int(hi-lo)+1)
	for a := uint32(lo); a <= uint32(hi); a++ {
		out = append(out, m.cells[Word(a)])

		if a == 0xFFFF {
			break
		}
	}

	return out
}
