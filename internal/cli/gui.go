package cli

// gui.go implements the GUI back-end protocol: a TCP loopback connection
// whose port is read from stdin at startup, over which the simulator sends
// keyword-prefixed status lines. See spec.md §6 and SPEC_FULL.md's
// "GUI address bias" note.

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

// guiAddrBias is added to every address sent to the GUI, matching the
// front end's historical 1-indexed display.
const guiAddrBias = 1

// GUISession holds the loopback connection to a GUI front end and the
// handshake state the dispatcher needs to implement autoresume-on-EOF. It
// also implements io.Reader: command lines from the GUI arrive over the
// same socket as status output, fed through a background pump so the run
// loop can poll for one (PollInterrupt) without blocking on it.
type GUISession struct {
	conn net.Conn
	w    *bufio.Writer

	lines   chan string // lines read from conn by pump
	pending string      // a line PollInterrupt pulled off lines, for Read
	buf     []byte      // partially-consumed bytes of the current line

	// InterruptedAtRequest is set when the machine stopped because the
	// GUI asked it to (rather than a breakpoint or illegal instruction),
	// so the dispatcher knows to auto-continue when its command source
	// runs dry. See SPEC_FULL.md.
	InterruptedAtRequest bool
}

// DialGUI reads a port number from portSource (conventionally the
// process's stdin, per spec.md §6) and connects to the GUI front end
// listening on that port on the loopback interface.
func DialGUI(portSource *bufio.Reader) (*GUISession, error) {
	line, err := portSource.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("cli: gui: reading port: %w", err)
	}

	line = stripNewline(line)

	port, err := strconv.Atoi(line)
	if err != nil {
		return nil, fmt.Errorf("cli: gui: bad port %q: %w", line, err)
	}

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("cli: gui: connect: %w", err)
	}

	g := &GUISession{
		conn:  conn,
		w:     bufio.NewWriter(conn),
		lines: make(chan string, 1),
	}

	go g.pump()

	return g, nil
}

func stripNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

// pump blocking-reads lines from the socket and forwards them through
// lines, the same background-goroutine-plus-channel shape StreamConsole
// uses for the keyboard, so a line's arrival can be polled without
// blocking. It exits (closing lines) when the connection goes away.
func (g *GUISession) pump() {
	r := bufio.NewReader(g.conn)

	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			g.lines <- stripNewline(line)
		}

		if err != nil {
			close(g.lines)
			return
		}
	}
}

// PollInterrupt does a non-blocking check for a line the GUI has sent while
// the machine is running. Per spec.md §4.5/§5, anything arriving on the
// GUI's command channel during a run is itself the stop request -- its
// content is the next command, handled normally once the dispatcher goes
// back to reading commands.
func (g *GUISession) PollInterrupt() bool {
	if g == nil {
		return false
	}

	select {
	case line, ok := <-g.lines:
		if !ok {
			return false
		}

		g.pending = line
		g.InterruptedAtRequest = true

		return true
	default:
		return false
	}
}

// Read implements io.Reader by serving whole lines (newline-terminated) out
// of the channel pump fills, preferring a line PollInterrupt already pulled
// off the channel so it isn't lost.
func (g *GUISession) Read(p []byte) (int, error) {
	if len(g.buf) == 0 {
		var line string

		if g.pending != "" {
			line, g.pending = g.pending, ""
		} else {
			l, ok := <-g.lines
			if !ok {
				return 0, io.EOF
			}

			line = l
		}

		g.buf = []byte(line + "\n")
	}

	n := copy(p, g.buf)
	g.buf = g.buf[n:]

	return n, nil
}

func (g *GUISession) flush() error {
	return g.w.Flush()
}

// Close tears down the connection.
func (g *GUISession) Close() error {
	if g == nil || g.conn == nil {
		return nil
	}

	return g.conn.Close()
}

func (g *GUISession) send(format string, args ...any) error {
	if g == nil || g.w == nil {
		return nil
	}

	if _, err := fmt.Fprintf(g.w, format+"\n", args...); err != nil {
		return fmt.Errorf("cli: gui: write: %w", err)
	}

	return g.flush()
}

// Code reports a single disassembled line at addr, for the GUI to show in
// its code pane.
func (g *GUISession) Code(addr vm.Word, text string) error {
	return g.send("CODE %5d %s", int(addr)+guiAddrBias, text)
}

// Registers reports the full register file and the condition code: one
// "REG R<i> x<hex>" line per general-purpose register, then a final
// "REG R<i> <mnemonic>" line at index NumGPR carrying the n/z/p condition
// as a mnemonic rather than a hex value, matching the historical GUI
// protocol. The program counter is reported separately via ToCode.
func (g *GUISession) Registers(m *vm.Machine) error {
	for i, r := range m.Reg {
		if err := g.send("REG R%d x%04X", i, uint16(r)); err != nil {
			return err
		}
	}

	return g.send("REG R%d %s", vm.NumGPR, m.PSR.Cond().String())
}

// Break reports a newly set breakpoint.
func (g *GUISession) Break(addr vm.Word) error {
	return g.send("BREAK %d", int(addr)+guiAddrBias)
}

// BreakClear reports a cleared breakpoint.
func (g *GUISession) BreakClear(addr vm.Word) error {
	return g.send("BCLEAR %d", int(addr)+guiAddrBias)
}

// Continued tells the GUI the machine is now free-running.
func (g *GUISession) Continued() error {
	return g.send("CONT")
}

// ToCode tells the GUI to scroll its code pane to addr.
func (g *GUISession) ToCode(addr vm.Word) error {
	return g.send("TOCODE %d", int(addr)+guiAddrBias)
}

// Translate answers a TRANS request: a symbol or raw address, resolved to
// an address, plus the word currently stored there.
func (g *GUISession) Translate(addr, val vm.Word) error {
	return g.send("TRANS x%04X x%04X", int(addr)+guiAddrBias, uint16(val))
}

// Err reports an error string back to the GUI, per the `ERR {...}` line
// format.
func (g *GUISession) Err(msg string) error {
	return g.send("ERR {%s}", msg)
}

// StopAndDump reports a full state snapshot after the machine stops,
// mirroring the original's gui_stop_and_dump.
func (g *GUISession) StopAndDump(m *vm.Machine) error {
	if err := g.ToCode(m.PC); err != nil {
		return err
	}

	return g.Registers(m)
}
