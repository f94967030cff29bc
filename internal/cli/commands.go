package cli

// commands.go implements the eighteen top-level commands from spec.md
// §4.6/§4.7.

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/LandonTheCoder/lc3tools-ng/internal/tty"
	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

func commandTable() []commandSpec {
	return []commandSpec{
		{Name: "break", MinLen: 2, Summary: "set, clear, or list breakpoints", Run: cmdBreak},
		{Name: "continue", MinLen: 1, Repeat: true, Summary: "run until a breakpoint or halt", Run: cmdContinue},
		{Name: "dump", MinLen: 2, List: true, Summary: "dump raw memory words", Run: cmdDump},
		{Name: "execute", MinLen: 2, Summary: "run commands from a script file", Run: cmdExecute},
		{Name: "file", MinLen: 1, Summary: "load an object and symbol file", Run: cmdFile},
		{Name: "finish", MinLen: 3, Repeat: true, Summary: "run until the current subroutine returns", Run: cmdFinish},
		{Name: "help", MinLen: 1, Summary: "list commands", Run: cmdHelp},
		{Name: "list", MinLen: 1, List: true, Summary: "disassemble a range of memory", Run: cmdList},
		{Name: "memory", MinLen: 1, Summary: "set a single memory word", Run: cmdMemory},
		{Name: "next", MinLen: 1, Repeat: true, Summary: "step, treating calls as one step", Run: cmdNext},
		{Name: "option", MinLen: 1, Summary: "get or set a runtime option", Run: cmdOption},
		{Name: "printregs", MinLen: 2, Summary: "print all registers", Run: cmdPrintRegs},
		{Name: "quit", MinLen: 1, Summary: "exit the simulator", Run: cmdQuit},
		{Name: "register", MinLen: 1, Summary: "get or set a register", Run: cmdRegister},
		{Name: "reset", MinLen: 3, Summary: "reset the machine to its initial state", Run: cmdReset},
		{Name: "step", MinLen: 1, Repeat: true, Summary: "execute one instruction", Run: cmdStep},
		{Name: "translate", MinLen: 1, GUIOnly: true, Summary: "resolve a symbol to an address for the GUI", Run: cmdTranslate},
		{Name: "x", MinLen: 1, Summary: "examine memory as disassembly", Run: cmdX},
	}
}

// maxFinishDepth aborts a runaway `finish` that never returns (e.g. a
// self-recursive routine with no base case) instead of spinning forever.
// Matches the original simulator's recursion guard.
const maxFinishDepth = 10_000_000

func cmdHelp(d *Dispatcher, _ []string) (bool, error) {
	for _, c := range d.commands {
		if c.GUIOnly && d.GUI == nil {
			continue
		}

		fmt.Fprintf(d.Out, "%-12s %s\n", c.Name, c.Summary)
	}

	return false, nil
}

func cmdQuit(d *Dispatcher, _ []string) (bool, error) {
	d.Machine.Halt()
	return true, nil
}

func cmdReset(d *Dispatcher, _ []string) (bool, error) {
	d.Machine.Reset()
	fmt.Fprintf(d.Out, "PC %s\n", d.Machine.PC)

	return false, nil
}

func cmdStep(d *Dispatcher, args []string) (bool, error) {
	count := 1

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%w: step count %q", ErrSyntax, args[0])
		}

		count = n
	}

	for i := 0; i < count; i++ {
		if d.Machine.Halted() {
			fmt.Fprintln(d.Out, "machine is halted")
			return false, nil
		}

		res, err := d.Machine.Step()
		if err != nil {
			printStepError(d, res, err)
			return false, nil
		}

		if d.Machine.Options.Trace {
			fmt.Fprintf(d.Out, "%s  %s\n", res.PC, d.Machine.Disassemble(res.PC))
		}
	}

	showStepState(d)

	return false, nil
}

// cmdNext treats a JSR/JSRR at the current PC as a single step: it sets a
// system breakpoint just past the call and continues, instead of stepping
// into the subroutine. See spec.md §4.5.
func cmdNext(d *Dispatcher, _ []string) (bool, error) {
	if d.Machine.Halted() {
		fmt.Fprintln(d.Out, "machine is halted")
		return false, nil
	}

	ir := vm.Decode(d.Machine.Mem.Fetch(d.Machine.PC))
	if ir.Opcode() != vm.JSR && ir.Opcode() != vm.TRAP {
		return cmdStep(d, nil)
	}

	d.Machine.SystemBreak = d.Machine.PC + 1
	d.Machine.HaveSystemBreak = true

	runScoped(d, func() { runUntilStop(d) })

	d.Machine.HaveSystemBreak = false

	return false, nil
}

func cmdFinish(d *Dispatcher, _ []string) (bool, error) {
	if d.Machine.Halted() {
		fmt.Fprintln(d.Out, "machine is halted")
		return false, nil
	}

	target := d.Machine.FinishDepth

	runScoped(d, func() {
		for !d.Machine.Halted() {
			if asyncStopRequested(d) {
				break
			}

			if d.Machine.FinishDepth >= maxFinishDepth {
				fmt.Fprintln(d.Out, "finish: possibly infinite recursion, stopping")
				break
			}

			res, err := d.Machine.Step()
			if err != nil {
				printStepError(d, res, err)
				return
			}

			if d.Machine.Options.Trace {
				fmt.Fprintf(d.Out, "%s  %s\n", res.PC, d.Machine.Disassemble(res.PC))
			}

			if res.Breakpoint {
				break
			}

			if res.FinishedSub && d.Machine.FinishDepth < target {
				break
			}
		}

		showStepState(d)
	})

	return false, nil
}

func cmdContinue(d *Dispatcher, _ []string) (bool, error) {
	if d.Machine.Halted() {
		fmt.Fprintln(d.Out, "machine is halted")
		return false, nil
	}

	if d.GUI != nil {
		_ = d.GUI.Continued()
	}

	runScoped(d, func() { runUntilStop(d) })

	return false, nil
}

// runScoped wraps a run_until_stopped-style loop (continue/finish/next) with
// the terminal raw-mode switch and the cleanup spec.md attaches to every
// run-loop exit: flushing buffered keyboard input unless the `flush` option
// has been turned off, and zeroing the subroutine-depth counter finish/next
// use, so bookkeeping never drifts across runs. Raw mode is scoped to this
// one invocation rather than the whole session, so the command prompt keeps
// normal line editing and echo between runs. See spec.md §4.5, §9.
func runScoped(d *Dispatcher, body func()) {
	mode, err := tty.Save(tty.Fd(os.Stdin))
	if err != nil {
		body()
	} else {
		if setErr := mode.SetRaw(); setErr != nil {
			d.Log.Warn("tty: set raw", "error", setErr)
		}

		body()

		if restoreErr := mode.Restore(); restoreErr != nil {
			d.Log.Warn("tty: restore", "error", restoreErr)
		}
	}

	if d.Machine.Options.Flush {
		d.Machine.Mem.FlushInput()
	}

	d.Machine.FinishDepth = 0
}

// asyncStopRequested polls the two stop conditions that are asynchronous to
// instruction execution, not tied to a breakpoint address: an OS-level
// SIGINT, and in GUI mode anything the front end sends on its command
// channel while the machine is running. See spec.md §1, §4.5, §5, §7.
func asyncStopRequested(d *Dispatcher) bool {
	if takeInterrupt() {
		fmt.Fprintln(d.Out, "stopped: interrupt")
		return true
	}

	if d.GUI != nil && d.GUI.PollInterrupt() {
		return true
	}

	return false
}

func runUntilStop(d *Dispatcher) {
	for !d.Machine.Halted() {
		if asyncStopRequested(d) {
			break
		}

		res, err := d.Machine.Step()
		if err != nil {
			printStepError(d, res, err)
			return
		}

		if d.Machine.Options.Trace {
			fmt.Fprintf(d.Out, "%s  %s\n", res.PC, d.Machine.Disassemble(res.PC))
		}

		if res.Breakpoint || res.SystemStop {
			break
		}
	}

	showStepState(d)
}

func printStepError(d *Dispatcher, res vm.StepResult, err error) {
	fmt.Fprintf(d.Out, "%s: %v\n", res.PC, err)

	if d.Machine.Options.ExplainIllegal {
		fmt.Fprintf(d.Out, "  IR %s\n", d.Machine.IR)
	}
}

func showStepState(d *Dispatcher) {
	for _, addr := range d.Machine.Mem.TakeDirty() {
		fmt.Fprintf(d.Out, "mem %s <- %s\n", addr, d.Machine.Mem.Fetch(addr))
	}

	if d.Machine.Options.ShowPC {
		fmt.Fprintf(d.Out, "PC %s\n", d.Machine.PC)
	}

	if d.Machine.Options.ShowRegs {
		printRegisters(d)
	}

	if d.GUI != nil {
		_ = d.GUI.StopAndDump(d.Machine)
	}
}

func printRegisters(d *Dispatcher) {
	for i, r := range d.Machine.Reg {
		fmt.Fprintf(d.Out, "%s %s\n", vm.GPR(i), r)
	}

	fmt.Fprintf(d.Out, "PC  %s\n", d.Machine.PC)
	fmt.Fprintf(d.Out, "IR  %s\n", d.Machine.IR)
	fmt.Fprintf(d.Out, "PSR %s\n", d.Machine.PSR)
}

func cmdPrintRegs(d *Dispatcher, _ []string) (bool, error) {
	printRegisters(d)
	return false, nil
}

func cmdRegister(d *Dispatcher, args []string) (bool, error) {
	if len(args) == 0 {
		printRegisters(d)
		return false, nil
	}

	name := strings.ToUpper(args[0])

	if len(args) == 1 {
		val, ok := d.resolver.ResolveRegister(name)
		if !ok {
			return false, fmt.Errorf("%w: no such register %q", ErrSyntax, args[0])
		}

		fmt.Fprintf(d.Out, "%s %s\n", name, val)

		return false, nil
	}

	return false, setRegister(d, name, args[1])
}

func setRegister(d *Dispatcher, name, valueTok string) error {
	if name == "PSR" || name == "CC" {
		return setPSR(d, valueTok)
	}

	val, err := parseNumber(valueTok)
	if err != nil {
		return err
	}

	switch name {
	case "PC":
		d.Machine.PC = val
	case "IR":
		d.Machine.IR = vm.Instruction(val)
	case "R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7":
		idx := int(name[1] - '0')
		d.Machine.Reg[idx] = vm.Register(val)
	default:
		return fmt.Errorf("%w: no such register %q", ErrSyntax, name)
	}

	return nil
}

// setPSR accepts CC value names, prefix-matched: NEGATIVE, ZERO, POSITIVE.
// The register name itself ("PSR" or "CC") is matched exactly by the
// caller; only the value is prefix-matched, per SPEC_FULL.md.
func setPSR(d *Dispatcher, valueTok string) error {
	v := strings.ToUpper(valueTok)

	switch {
	case strings.HasPrefix("NEGATIVE", v) && v != "":
		d.Machine.PSR.Set(^vm.Register(0))
	case strings.HasPrefix("ZERO", v) && v != "":
		d.Machine.PSR.Set(0)
	case strings.HasPrefix("POSITIVE", v) && v != "":
		d.Machine.PSR.Set(1)
	default:
		return fmt.Errorf("%w: %q is not NEGATIVE, ZERO, or POSITIVE", ErrSyntax, valueTok)
	}

	return nil
}

func cmdBreak(d *Dispatcher, args []string) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("%w: break needs a subcommand", ErrSyntax)
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]

	switch {
	case strings.HasPrefix("set", sub):
		if len(rest) != 1 {
			return false, fmt.Errorf("%w: break set needs one address", ErrSyntax)
		}

		addr, err := ParseAddress(rest[0], d.resolver)
		if err != nil {
			return false, err
		}

		d.Machine.Breakpoints.Set(addr)
		fmt.Fprintf(d.Out, "breakpoint set at %s\n", addr)

		if d.GUI != nil {
			_ = d.GUI.Break(addr)
		}

	case strings.HasPrefix("clear", sub):
		if len(rest) == 0 {
			d.Machine.Breakpoints.ClearAll()
			fmt.Fprintln(d.Out, "all breakpoints cleared")

			return false, nil
		}

		addr, err := ParseAddress(rest[0], d.resolver)
		if err != nil {
			return false, err
		}

		d.Machine.Breakpoints.Clear(addr)

		if d.GUI != nil {
			_ = d.GUI.BreakClear(addr)
		}

	case strings.HasPrefix("list", sub):
		for _, addr := range d.Machine.Breakpoints.List() {
			fmt.Fprintf(d.Out, "%s\n", addr)
		}

	default:
		return false, fmt.Errorf("%w: break %q", ErrSyntax, args[0])
	}

	return false, nil
}

func cmdList(d *Dispatcher, args []string) (bool, error) {
	rng, err := resolveDisplayRange(d, args, 8)
	if err != nil {
		return false, err
	}

	for _, line := range d.Machine.DisassembleRange(rng.Lo, rng.Hi) {
		fmt.Fprintln(d.Out, line)
	}

	d.more = &moreState{command: "list", next: rng.Hi + 1}

	return false, nil
}

func cmdX(d *Dispatcher, args []string) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("%w: x needs an address", ErrSyntax)
	}

	addr, err := ParseAddress(args[0], d.resolver)
	if err != nil {
		return false, err
	}

	fmt.Fprintf(d.Out, "%s  %s\n", addr, d.Machine.Disassemble(addr))

	return false, nil
}

func cmdDump(d *Dispatcher, args []string) (bool, error) {
	rng, err := resolveDisplayRange(d, args, 12)
	if err != nil {
		return false, err
	}

	words := d.Machine.Mem.RawWords(rng.Lo, rng.Hi)

	const perRow = 12

	for i := 0; i < len(words); i += perRow {
		end := i + perRow
		if end > len(words) {
			end = len(words)
		}

		fmt.Fprintf(d.Out, "%s ", rng.Lo+vm.Word(i))

		for _, w := range words[i:end] {
			fmt.Fprintf(d.Out, "%s ", w)
		}

		fmt.Fprintln(d.Out)
	}

	d.more = &moreState{command: "dump", next: rng.Hi + 1}

	return false, nil
}

// resolveDisplayRange parses args into a range for list/dump, falling back
// to continuing from the last "more" cursor with a default span when no
// arguments are given, or when the last argument is the literal token
// "more" -- an empty line on a List command repeats the previous line with
// "more" appended. See spec.md §4.6.
func resolveDisplayRange(d *Dispatcher, args []string, defaultSpan vm.Word) (AddressRange, error) {
	if len(args) == 0 || strings.EqualFold(args[len(args)-1], "more") {
		lo := d.Machine.PC
		if d.more != nil {
			lo = d.more.next
		}

		return AddressRange{Lo: lo, Hi: lo + defaultSpan - 1}, nil
	}

	return ParseRange(args[0], d.resolver)
}

func cmdMemory(d *Dispatcher, args []string) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: memory needs an address and a value", ErrSyntax)
	}

	addr, err := ParseAddress(args[0], d.resolver)
	if err != nil {
		return false, err
	}

	val, err := parseNumber(args[1])
	if err != nil {
		return false, err
	}

	if err := d.Machine.Mem.Write(addr, val); err != nil {
		return false, err
	}

	fmt.Fprintf(d.Out, "%s <- %s\n", addr, val)

	return false, nil
}

func cmdTranslate(d *Dispatcher, args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("%w: translate needs one symbol or address", ErrSyntax)
	}

	addr, err := ParseAddress(args[0], d.resolver)
	if err != nil {
		if d.GUI != nil {
			_ = d.GUI.Err(err.Error())
		}

		return false, err
	}

	if d.GUI != nil {
		words := d.Machine.Mem.RawWords(addr, addr)

		var val vm.Word
		if len(words) > 0 {
			val = words[0]
		}

		return false, d.GUI.Translate(addr, val)
	}

	fmt.Fprintf(d.Out, "%s\n", addr)

	return false, nil
}

func cmdOption(d *Dispatcher, args []string) (bool, error) {
	if len(args) == 0 {
		for _, name := range d.Machine.Options.Names() {
			val, _ := d.Machine.Options.Get(name)
			fmt.Fprintf(d.Out, "%-16s %t\n", name, val)
		}

		return false, nil
	}

	name := strings.ToLower(args[0])

	if len(args) == 1 {
		val, ok := d.Machine.Options.Get(name)
		if !ok {
			return false, fmt.Errorf("%w: no such option %q", ErrSyntax, args[0])
		}

		fmt.Fprintf(d.Out, "%-16s %t\n", name, val)

		return false, nil
	}

	val, err := strconv.ParseBool(args[1])
	if err != nil {
		return false, fmt.Errorf("%w: option value %q", ErrSyntax, args[1])
	}

	if !d.Machine.Options.Set(name, val) {
		return false, fmt.Errorf("%w: no such option %q", ErrSyntax, args[0])
	}

	if name == "stdin" {
		rebindConsoleStdin(d, val)
	}

	return false, nil
}

// rebindConsoleStdin implements "option stdin's live rebind" from
// SPEC_FULL.md: flipping the option mid-script immediately changes where
// lc3_in reads from for the remainder of the current script level.
func rebindConsoleStdin(d *Dispatcher, useCmdIn bool) {
	if useCmdIn {
		d.Machine.Mem.AttachConsole(vm.NewStreamConsole(d.readers[len(d.readers)-1], os.Stdout, false))
	} else {
		d.Machine.Mem.AttachConsole(vm.NewStreamConsole(os.Stdin, os.Stdout, true))
	}
}

func cmdFile(d *Dispatcher, args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("%w: file needs a path", ErrSyntax)
	}

	path := inferObjectPath(args[0])

	if strings.HasSuffix(path, ".sym") {
		f, err := os.Open(path)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		defer f.Close()

		return false, d.Machine.LoadSymbols(f)
	}

	obj, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	defer obj.Close()

	res, err := d.Machine.LoadObject(obj)
	if err != nil {
		return false, err
	}

	d.Machine.PC = res.Origin

	symPath := strings.TrimSuffix(path, ".obj") + ".sym"
	if sym, err := os.Open(symPath); err == nil {
		defer sym.Close()

		if err := d.Machine.LoadSymbols(sym); err != nil {
			fmt.Fprintf(d.Out, "symbols: %v\n", err)
		}
	}

	fmt.Fprintf(d.Out, "loaded %d words at %s\n", res.Words, res.Origin)

	return false, nil
}

// inferObjectPath implements SPEC_FULL.md's "file command extension
// inference": a path with no extension gets ".obj" appended; a path
// already ending ".sym" or ".obj" is used as-is.
func inferObjectPath(path string) string {
	if strings.HasSuffix(path, ".obj") || strings.HasSuffix(path, ".sym") {
		return path
	}

	if strings.Contains(path[strings.LastIndexByte(path, '/')+1:], ".") {
		return path
	}

	return path + ".obj"
}

func cmdExecute(d *Dispatcher, args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("%w: execute needs a script path", ErrSyntax)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	if err := d.PushScript(f); err != nil {
		f.Close()
		return false, err
	}

	return false, nil
}
