package vm

// io.go implements the memory-mapped console device: the keyboard status/data
// registers (KBSR/KBDR) and display status/data registers (DSR/DDR). See
// spec.md §4.1 "Memory-mapped I/O".

import (
	"errors"
	"io"
	"math/rand"
	"time"
)

// Memory-mapped device addresses.
const (
	AddrKBSR Word = 0xFE00
	AddrKBDR Word = 0xFE02
	AddrDSR  Word = 0xFE04
	AddrDDR  Word = 0xFE06
	AddrMCR  Word = 0xFFFE
)

// readyBit marks a device register as ready in bit 15, matching real LC-3
// status register conventions.
const readyBit Word = 0x8000

// idleThreshold is the number of consecutive not-ready KBSR polls after
// which the run loop sleeps briefly rather than spinning the host CPU.
// Mirrors LC3SIM_IDLE in the original simulator.
const idleThreshold = 250

var ErrNoConsole = errors.New("vm: no console attached")

// Console is the host-side terminal the simulated KBSR/KBDR/DSR/DDR talk to.
// A nil Console makes the keyboard permanently not-ready and discards
// display output.
type Console interface {
	// KeyReady reports whether a byte is available to read without
	// blocking.
	KeyReady() bool
	// ReadKey consumes one available byte. Only called after KeyReady
	// returns true.
	ReadKey() (byte, error)
	// WriteChar writes one byte to the display.
	WriteChar(byte) error
}

// StreamConsole adapts a pair of byte streams -- typically the process's
// stdin/stdout, or a GUI's lc3_in/lc3_out pipe -- into a Console.
//
// A blocking Read on the input stream cannot be polled directly: in raw
// mode (VMIN=1, VTIME=0, see internal/tty) a read blocks until a byte
// arrives, which would make KBSR's "is a key ready" check block too,
// freezing the simulated program between keystrokes. So a single
// background goroutine does the blocking read and feeds bytes through a
// one-deep channel; KeyReady is then a non-blocking select against that
// channel, matching the teacher's own channel-based console model.
type StreamConsole struct {
	out io.Writer

	keys chan byte

	// busyChance is the probability (out of 16) that a display write
	// reports the device as momentarily busy on the next status poll,
	// exercising programs that poll DSR rather than assuming it is
	// always ready. Zero disables the simulated jitter.
	busyChance int
	busyUntil  int
}

// NewStreamConsole wraps in/out as a Console. jitter enables the simulated
// display-busy behavior described in spec.md's device model; pass false for
// a console that is always immediately ready.
func NewStreamConsole(in io.Reader, out io.Writer, jitter bool) *StreamConsole {
	chance := 0
	if jitter {
		chance = 1
	}

	c := &StreamConsole{
		out:        out,
		keys:       make(chan byte, 1),
		busyChance: chance,
	}

	go c.pump(in)

	return c
}

// pump reads one byte at a time from in and forwards it to keys, blocking
// until KeyReady/ReadKey catches up if the channel is still full. It exits
// when in returns an error (EOF, closed fd, ...).
func (c *StreamConsole) pump(in io.Reader) {
	buf := make([]byte, 1)

	for {
		n, err := in.Read(buf)
		if n == 1 {
			c.keys <- buf[0]
		}

		if err != nil {
			return
		}
	}
}

func (c *StreamConsole) KeyReady() bool {
	if c == nil {
		return false
	}

	select {
	case b := <-c.keys:
		// Peeked a byte off the channel to answer the ready check;
		// stash it back so ReadKey still returns the same byte.
		c.unread(b)
		return true
	default:
		return false
	}
}

// unread puts back a byte KeyReady pulled off the channel to test
// readiness, so ReadKey can claim it.
func (c *StreamConsole) unread(b byte) {
	select {
	case c.keys <- b:
	default:
		// Channel is already holding a byte (shouldn't happen with a
		// depth-1 channel fed by a single pump goroutine), drop rather
		// than block.
	}
}

// Flush discards any byte the pump goroutine has buffered but nothing has
// consumed yet, implementing the `flush` option's "drop stale keyboard
// input when a run stops" behavior.
func (c *StreamConsole) Flush() {
	if c == nil {
		return
	}

	select {
	case <-c.keys:
	default:
	}
}

func (c *StreamConsole) ReadKey() (byte, error) {
	if c == nil {
		return 0, ErrNoConsole
	}

	select {
	case b := <-c.keys:
		return b, nil
	default:
		return 0, ErrNoConsole
	}
}

func (c *StreamConsole) WriteChar(b byte) error {
	if c == nil || c.out == nil {
		return ErrNoConsole
	}

	if c.busyChance > 0 {
		if c.busyUntil > 0 {
			c.busyUntil--
		} else if rand.Intn(16) < c.busyChance { //nolint:gosec // jitter, not security-sensitive
			c.busyUntil = 1
		}
	}

	_, err := c.out.Write([]byte{b})

	return err
}

// dsrBusy reports whether the simulated display-busy jitter should make DSR
// read not-ready right now. Each busy answer uses up one busy poll, so the
// display reads ready again on a later poll.
func (c *StreamConsole) dsrBusy() bool {
	if c == nil || c.busyUntil == 0 {
		return false
	}

	c.busyUntil--

	return true
}

// idleSleep is called by the run loop each time it observes KBSR not-ready
// idleThreshold times in a row, so a tight polling loop in simulated code
// does not spin a host CPU core at 100%.
func idleSleep() {
	time.Sleep(time.Millisecond)
}
