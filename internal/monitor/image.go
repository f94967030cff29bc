// Package monitor builds and installs the default system image: the trap
// vector table and the handful of TRAP service routines (GETC, OUT, PUTS,
// HALT) that give simulated programs a console without any OS of their own.
// See spec.md §6 "Startup" and SPEC_FULL.md's embedded-image note.
package monitor

import (
	"fmt"

	"github.com/LandonTheCoder/lc3tools-ng/internal/log"
	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

// Routine is one piece of the system image: a block of words loaded at a
// fixed origin, plus the symbols that name it for disassembly.
type Routine struct {
	Name    string
	Orig    vm.Word
	Code    []vm.Word
	Symbols map[string]vm.Word
}

// SystemImage is the complete default system: the vector table plus every
// trap service routine it points into. There is no assembler in this
// repository (spec.md's Non-goals exclude one), so each Routine's Code is a
// literal word encoding, derived by hand the same way the original
// simulator's `LC3SIM_INCBIN` fallback embeds a pre-assembled OS image
// directly in the binary.
type SystemImage struct {
	Vectors Routine
	Boot    Routine
	Traps   []Routine

	log *log.Logger
}

// NewSystemImage builds the default system image described in osdata.go.
func NewSystemImage() *SystemImage {
	return &SystemImage{
		Vectors: vectorTable,
		Boot:    bootBlock,
		Traps:   []Routine{trapGetc, trapOut, trapPuts, trapHalt},
		log:     log.DefaultLogger(),
	}
}

// LoadTo installs every routine in the image into the machine's memory and
// symbol table. It returns the number of words written.
func (img *SystemImage) LoadTo(m *vm.Machine) (int, error) {
	count := 0

	for _, r := range append([]Routine{img.Vectors, img.Boot}, img.Traps...) {
		img.log.Debug("loading system routine", "name", r.Name, "orig", r.Orig, "words", len(r.Code))

		if int(r.Orig)+len(r.Code) > vm.MemSize {
			return count, fmt.Errorf("monitor: routine %q overruns memory", r.Name)
		}

		for i, w := range r.Code {
			m.Mem.LoadWord(r.Orig+vm.Word(i), w)
		}

		for name, addr := range r.Symbols {
			m.Symbols.Define(name, addr)
		}

		count += len(r.Code)
	}

	return count, nil
}
