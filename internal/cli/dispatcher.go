package cli

// dispatcher.go implements cmd_in: tokenizing, prefix-matching, and running
// one command line at a time, plus the `execute` script stack and GUI
// autoresume-on-EOF behavior. See spec.md §4.6 and SPEC_FULL.md's
// "SUPPLEMENTED FEATURES" section.

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/LandonTheCoder/lc3tools-ng/internal/log"
	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

// maxScriptDepth bounds nested `execute` files, matching the original
// simulator's fixed-size script stack.
const maxScriptDepth = 10

// handlerFunc runs one command. args excludes the command word itself. It
// returns true if the dispatcher should stop reading further commands
// (the `quit` command).
type handlerFunc func(d *Dispatcher, args []string) (quit bool, err error)

// commandSpec is one entry in the command table.
type commandSpec struct {
	Name    string
	MinLen  int // shortest prefix that still matches unambiguously
	GUIOnly bool
	// Repeat marks a command that an empty line replays verbatim
	// (continue/finish/next/step). List marks a ranged-display command
	// (dump/list) that an empty line replays with the token "more"
	// appended instead, so it continues from where it left off rather
	// than redisplaying the same range. Neither flag is set for
	// one-shot commands like break/memory/file/execute, which an empty
	// line must not silently re-run. See spec.md §4.6.
	Repeat  bool
	List    bool
	Summary string
	Run     handlerFunc
}

// Dispatcher reads command lines from a stack of readers (cmd_in) and runs
// them against a machine.
type Dispatcher struct {
	Machine *vm.Machine
	Out     io.Writer
	GUI     *GUISession // nil outside GUI mode

	resolver machineResolver

	commands []commandSpec

	readers []*bufio.Reader // stack; top is readers[len-1]

	// last and lastIsList implement repeat-on-empty-line for the
	// commands that allow it (commandSpec.Repeat/List). They are only
	// ever set while reading from the top-level, interactive reader --
	// a blank line inside a script is never a repeat. See spec.md §4.6.
	last       string
	lastIsList bool

	more *moreState // list-continuation cursor

	Log *log.Logger
}

// moreState remembers where a ranged display command left off so a bare
// follow-up command (or an empty line) continues from there.
type moreState struct {
	command string
	next    vm.Word
}

// NewDispatcher creates a Dispatcher reading from in and writing to out.
func NewDispatcher(m *vm.Machine, in io.Reader, out io.Writer) *Dispatcher {
	installSignalHandler()

	d := &Dispatcher{
		Machine:  m,
		Out:      out,
		resolver: machineResolver{m: m},
		Log:      log.DefaultLogger(),
	}
	d.readers = []*bufio.Reader{bufio.NewReader(in)}
	d.commands = commandTable()

	return d
}

// PushScript begins reading from r, suspending the current input until r is
// exhausted or another `execute` nests further. Returns an error if the
// script stack is already at maxScriptDepth.
func (d *Dispatcher) PushScript(r io.Reader) error {
	if len(d.readers)-1 >= maxScriptDepth {
		return fmt.Errorf("cli: script nesting exceeds %d levels", maxScriptDepth)
	}

	d.readers = append(d.readers, bufio.NewReader(r))

	return nil
}

func (d *Dispatcher) popScript() {
	if len(d.readers) > 1 {
		d.readers = d.readers[:len(d.readers)-1]
	}
}

// readLine returns the next command line, popping exhausted script levels
// and synthesizing "continue" when a GUI session hits EOF while waiting at
// a breakpoint (SUPPLEMENTED FEATURES: "GUI autoresume on command
// exhaustion").
func (d *Dispatcher) readLine() (string, bool) {
	for {
		top := d.readers[len(d.readers)-1]

		line, err := top.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if err != nil {
			if len(d.readers) > 1 {
				d.popScript()
				continue
			}

			if d.GUI != nil && d.GUI.InterruptedAtRequest {
				d.GUI.InterruptedAtRequest = false
				return "continue", true
			}

			return "", false
		}

		return line, true
	}
}

// Run processes command lines until EOF on the outermost reader or a
// `quit` command.
func (d *Dispatcher) Run() int {
	for {
		line, ok := d.readLine()
		if !ok {
			return 0
		}

		quit, err := d.Dispatch(line)
		if err != nil {
			fmt.Fprintf(d.Out, "%v\n", err)
		}

		if quit {
			return 0
		}
	}
}

// Dispatch runs a single command line: tokenizes it, handles the
// empty-line-repeats-last-command rule, and prefix-matches the command
// word against the table.
//
// Per spec.md §4.6, an empty line only repeats the previous command when
// that command was a Repeat command (replayed verbatim) or a List command
// (replayed with "more" appended so it continues the range), and only at
// the top level -- a blank line read from a script does nothing.
func (d *Dispatcher) Dispatch(line string) (bool, error) {
	input := strings.TrimSpace(line)
	atTopLevel := len(d.readers) == 1
	repeating := input == ""

	if repeating {
		if !atTopLevel || d.last == "" {
			return false, nil
		}

		input = d.last
		if d.lastIsList {
			input += " more"
		}
	}

	fields := strings.Fields(input)
	word := strings.ToLower(fields[0])
	args := fields[1:]

	spec, err := d.lookup(word)
	if err != nil {
		return false, err
	}

	if spec.GUIOnly && d.GUI == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}

	if !repeating && atTopLevel && (spec.Repeat || spec.List) {
		d.last = strings.TrimSpace(line)
		d.lastIsList = spec.List
	}

	return spec.Run(d, args)
}

// lookup finds the command whose name the typed word is an unambiguous
// prefix of, honoring each command's configured minimum prefix length.
func (d *Dispatcher) lookup(word string) (commandSpec, error) {
	var (
		exact   *commandSpec
		matches []commandSpec
	)

	for i := range d.commands {
		c := &d.commands[i]

		if c.Name == word {
			exact = c
			break
		}

		if strings.HasPrefix(c.Name, word) && len(word) >= c.MinLen {
			matches = append(matches, *c)
		}
	}

	if exact != nil {
		return *exact, nil
	}

	switch len(matches) {
	case 0:
		return commandSpec{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	case 1:
		return matches[0], nil
	default:
		return commandSpec{}, fmt.Errorf("%w: %q", ErrAmbiguousCommand, word)
	}
}
