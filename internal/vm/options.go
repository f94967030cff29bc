package vm

// options.go implements the six runtime toggles from spec.md §4.7's
// `option` command.

// Options holds the booleans the `option` command can flip mid-session.
type Options struct {
	// Stdin routes lc3_in from the command channel's own input instead
	// of the process's stdin, letting a script drive simulated keyboard
	// input. See SPEC_FULL.md "option stdin's live rebind".
	Stdin bool
	// ShowPC prints the program counter after every step, in addition
	// to whatever command triggered it.
	ShowPC bool
	// ShowRegs prints the full register file after every step.
	ShowRegs bool
	// Trace prints a disassembly line for every instruction executed
	// during continue/finish/next, not just the final stop.
	Trace bool
	// ExplainIllegal adds a line with the IR (raw word and opcode name)
	// after the error line printed when a step fails, such as on an
	// illegal instruction.
	ExplainIllegal bool
	// Flush discards any keystroke buffered but not yet read by the
	// simulated program whenever a continue/finish/next run stops.
	// Turning it off ("keep") lets typed-ahead input survive a stop, at
	// the cost of letting stale keystrokes leak into the next command.
	Flush bool
}

// optionNames is the list the `option` command prints when given no
// arguments. Option names are matched exactly (after lowercasing), not by
// prefix.
var optionNames = []string{"stdin", "showpc", "showregs", "trace", "explainillegal", "flush"}

// Names lists the option keywords recognized by `option`.
func (Options) Names() []string {
	out := make([]string, len(optionNames))
	copy(out, optionNames)

	return out
}

// Get returns the current value of the named option and whether the name
// was recognized.
func (o *Options) Get(name string) (bool, bool) {
	switch name {
	case "stdin":
		return o.Stdin, true
	case "showpc":
		return o.ShowPC, true
	case "showregs":
		return o.ShowRegs, true
	case "trace":
		return o.Trace, true
	case "explainillegal":
		return o.ExplainIllegal, true
	case "flush":
		return o.Flush, true
	default:
		return false, false
	}
}

// Set assigns the named option and reports whether the name was
// recognized.
func (o *Options) Set(name string, value bool) bool {
	switch name {
	case "stdin":
		o.Stdin = value
	case "showpc":
		o.ShowPC = value
	case "showregs":
		o.ShowRegs = value
	case "trace":
		o.Trace = value
	case "explainillegal":
		o.ExplainIllegal = value
	case "flush":
		o.Flush = value
	default:
		return false
	}

	return true
}
