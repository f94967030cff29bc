// Package cli wires together flag parsing, the machine, the default system
// image, and the command dispatcher into the complete debugging session
// described in spec.md.
package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/LandonTheCoder/lc3tools-ng/internal/log"
	"github.com/LandonTheCoder/lc3tools-ng/internal/monitor"
	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

// Exit codes, matching spec.md §6.
const (
	ExitOK          = 0
	ExitUsageError  = 1
	ExitRuntimeFail = 3
)

// scriptFlag collects repeated -s flags in the order given.
type scriptFlag []string

func (s *scriptFlag) String() string { return fmt.Sprint([]string(*s)) }

func (s *scriptFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Run parses args, builds the machine, and runs the dispatcher to
// completion. It returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.NewFormattedLogger(stderr)
	log.SetDefault(logger)

	fs := flag.NewFlagSet("lc3tools-ng", flag.ContinueOnError)
	fs.SetOutput(stderr)

	gui := fs.Bool("gui", false, "connect to a GUI front end over a loopback socket")

	var scripts scriptFlag
	fs.Var(&scripts, "s", "run a script file before reading interactive commands (repeatable)")

	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	positional := fs.Args()

	m := vm.New(vm.NewStreamConsole(os.Stdin, stdout, true))

	image := monitor.NewSystemImage()
	if _, err := image.LoadTo(m); err != nil {
		fmt.Fprintf(stderr, "lc3tools-ng: loading system image: %v\n", err)
		return ExitRuntimeFail
	}

	var gs *GUISession

	if *gui {
		var err error

		gs, err = DialGUI(bufio.NewReader(stdin))
		if err != nil {
			fmt.Fprintf(stderr, "lc3tools-ng: gui: %v\n", err)
			return ExitRuntimeFail
		}

		defer gs.Close()
	}

	var d *Dispatcher
	if gs != nil {
		d = NewDispatcher(m, gs, stdout)
		d.GUI = gs
	} else {
		d = NewDispatcher(m, stdin, stdout)
	}

	d.Log = logger

	for _, path := range positional {
		if err := loadPositional(d, path); err != nil {
			fmt.Fprintf(stderr, "lc3tools-ng: %v\n", err)
			return ExitRuntimeFail
		}
	}

	// Terminal raw mode is switched on only for the duration of each
	// continue/finish/next run (see runScoped in commands.go), not for
	// the whole session, so the command prompt itself keeps normal line
	// editing and echo. See spec.md §4.5, §9.

	for _, path := range scripts {
		f, openErr := os.Open(path)
		if openErr != nil {
			fmt.Fprintf(stderr, "lc3tools-ng: %v\n", openErr)
			return ExitRuntimeFail
		}

		if pushErr := d.PushScript(f); pushErr != nil {
			f.Close()
			fmt.Fprintf(stderr, "lc3tools-ng: %v\n", pushErr)

			return ExitRuntimeFail
		}
	}

	return d.Run()
}

// loadPositional loads an object or symbol file given on the command line,
// reusing the `file` command's extension-inference rule. Scripts are given
// with -s, not positionally.
func loadPositional(d *Dispatcher, path string) error {
	_, err := cmdFile(d, []string{path})
	return err
}
