package vm

// machine.go wires the registers, memory, and instruction execution into the
// single top-level Machine type the monitor and CLI operate on. See
// spec.md §4.

import (
	"errors"
	"fmt"

	"github.com/LandonTheCoder/lc3tools-ng/internal/log"
)

// ErrIllegalInstruction is returned by Step when the fetched instruction
// decodes to the reserved opcode (0xD), per spec.md §4.3.
var ErrIllegalInstruction = errors.New("vm: illegal instruction")

// ResetPC is the address execution resumes at after Reset, matching the
// original simulator's fixed entry point for user programs.
const ResetPC Word = 0x0200

// Machine is the complete simulated LC-3: registers, condition codes,
// memory, and the bookkeeping the run loop needs for breakpoints and
// finish/next tracking.
type Machine struct {
	Reg RegisterFile
	PC  Word
	IR  Instruction
	PSR ProcessorStatus

	Mem *Memory

	Breakpoints     *Breakpoints
	Symbols         *SymbolTable
	FinishDepth     int
	SystemBreak     Word
	HaveSystemBreak bool

	Options Options

	Log *log.Logger

	// halted becomes true when a step clears the MCR's run bit (an STI
	// to xFFFE, the HALT trap routine's doing) or an illegal instruction
	// is fetched.
	halted bool
}

// New creates a Machine with the given console attached and everything
// else at its reset state.
func New(console Console) *Machine {
	m := &Machine{
		Mem:         NewMemory(console),
		Breakpoints: NewBreakpoints(),
		Symbols:     NewSymbolTable(),
		Options:     Options{Flush: true},
		Log:         log.DefaultLogger(),
	}
	m.Reset()

	return m
}

// Reset clears registers, condition codes, and the halt latch, and sets PC
// to ResetPC. It does not clear memory, breakpoints, or symbols -- matching
// the original's `reset` command, which is meant to rerun the loaded
// program, not reload it.
func (m *Machine) Reset() {
	m.Reg = RegisterFile{}
	m.PC = ResetPC
	m.IR = 0
	m.PSR = ProcessorStatus(StatusZero)
	m.halted = false
	m.Mem.mcr = controlRunning
	m.FinishDepth = 0
}

// Halted reports whether the machine has stopped running (MCR cleared, or
// the last Step hit an illegal instruction).
func (m *Machine) Halted() bool {
	return m.halted || !m.Mem.Running()
}

// Halt forces the machine to a stopped state, as the `quit`/GUI-disconnect
// paths do.
func (m *Machine) Halt() {
	m.halted = true
	m.Mem.Halt()
}

// StepResult describes what happened during one Step call, for the run
// loop to decide whether to keep going.
type StepResult struct {
	PC          Word // address the instruction executed from
	Opcode      Opcode
	Breakpoint  bool // a user breakpoint now matches PC
	SystemStop  bool // the system breakpoint (next/step-over) fired
	FinishedSub bool // this step was a RET/RTI that decremented FinishDepth
	Illegal     bool
}

// Step fetches and executes one instruction. It always advances PC past the
// fetched word before executing, matching real LC-3 semantics (PC-relative
// operands are computed from the incremented PC).
func (m *Machine) Step() (StepResult, error) {
	if m.Halted() {
		return StepResult{}, fmt.Errorf("vm: step: %w", errMachineHalted)
	}

	fetchPC := m.PC
	ir := Decode(m.Mem.Fetch(m.PC))
	m.IR = ir
	m.PC++

	res := StepResult{PC: fetchPC, Opcode: ir.Opcode()}

	if ir.Opcode() == RESV {
		m.halted = true
		res.Illegal = true

		return res, fmt.Errorf("%w: at %s", ErrIllegalInstruction, fetchPC)
	}

	finishedBefore := m.FinishDepth

	if err := execute(m, ir); err != nil {
		return res, err
	}

	if !m.Mem.Running() {
		m.halted = true
	}

	if m.FinishDepth < finishedBefore {
		res.FinishedSub = true
	}

	if m.Breakpoints.At(m.PC) {
		res.Breakpoint = true
	}

	if m.HaveSystemBreak && m.PC == m.SystemBreak {
		res.SystemStop = true
	}

	return res, nil
}

var errMachineHalted = errors.New("machine is halted")
