package monitor

// osdata.go is the hand-encoded default system image: the TRAP vector table
// and four service routines (GETC, OUT, PUTS, HALT). There is no assembler
// in this repository, so these word arrays were derived by hand from the
// ISA encoding in spec.md §4.3, the same way the original simulator's
// fallback build embeds a pre-assembled OS image directly in its source
// rather than generating one at build time.
//
// Trap vectors follow the conventional LC-3 OS layout: GETC=x20, OUT=x21,
// PUTS=x22, HALT=x25. IN (x23) and PUTSP (x24) are left as reserved, unused
// vector slots -- console input/output beyond GETC/OUT/PUTS is out of scope.

import "github.com/LandonTheCoder/lc3tools-ng/internal/vm"

var vectorTable = Routine{
	Name: "vectors",
	Orig: 0x0020,
	Code: []vm.Word{
		0x0430, // x20 GETC
		0x0450, // x21 OUT
		0x0460, // x22 PUTS
		0x0000, // x23 IN (unused)
		0x0000, // x24 PUTSP (unused)
		0x0480, // x25 HALT
	},
}

// bootBlock is what sits at the machine's reset vector: a single TRAP to
// HALT, so a freshly reset machine with nothing loaded stops immediately
// instead of running on into uninitialized memory.
var bootBlock = Routine{
	Name: "boot",
	Orig: vm.ResetPC,
	Code: []vm.Word{
		0xF025, // TRAP x25
	},
}

// trapGetc blocks until a key is available and returns it in R0, without
// echoing.
//
//	LDI R0, KBSR_PTR
//	BRzp #-2
//	LDI R0, KBDR_PTR
//	RET
//	KBSR_PTR: .FILL xFE00
//	KBDR_PTR: .FILL xFE02
var trapGetc = Routine{
	Name: "GETC",
	Orig: 0x0430,
	Code: []vm.Word{
		0xA003,
		0x07FE,
		0xA002,
		0xC1C0,
		0xFE00,
		0xFE02,
	},
	Symbols: map[string]vm.Word{"GETC": 0x0430},
}

// trapOut writes the low byte of R0 to the console, blocking until the
// display is ready.
//
//	LDI R1, DSR_PTR
//	BRzp #-2
//	STI R0, DDR_PTR
//	RET
//	DSR_PTR: .FILL xFE04
//	DDR_PTR: .FILL xFE06
var trapOut = Routine{
	Name: "OUT",
	Orig: 0x0450,
	Code: []vm.Word{
		0xA203,
		0x07FE,
		0xB002,
		0xC1C0,
		0xFE04,
		0xFE06,
	},
	Symbols: map[string]vm.Word{"OUT": 0x0450},
}

// trapPuts writes the NUL-terminated string pointed to by R0, one character
// per call to OUT. R7 is saved around the nested TRAP x21 so the final RET
// returns to the caller.
//
//	ST R7, SAVE_R7
//	LDR R1, R0, #0
//	BRz #6
//	ADD R3, R0, #0
//	ADD R0, R1, #0
//	TRAP x21
//	ADD R0, R3, #0
//	ADD R0, R0, #1
//	BR #-8
//	LD R7, SAVE_R7
//	RET
//	SAVE_R7: .FILL x0000
var trapPuts = Routine{
	Name: "PUTS",
	Orig: 0x0460,
	Code: []vm.Word{
		0x3E0A,
		0x6200,
		0x0406,
		0x1620,
		0x1060,
		0xF021,
		0x10E0,
		0x1021,
		0x0FF8,
		0x2E01,
		0xC1C0,
		0x0000,
	},
	Symbols: map[string]vm.Word{"PUTS": 0x0460},
}

// trapHalt clears the master control register's run bit, which the run
// loop observes and stops on.
//
//	AND R0, R0, #0
//	STI R0, MCR_PTR
//	BR #-1
//	MCR_PTR: .FILL xFFFE
var trapHalt = Routine{
	Name: "HALT",
	Orig: 0x0480,
	Code: []vm.Word{
		0x5020,
		0xB001,
		0x0FFF,
		0xFFFE,
	},
	Symbols: map[string]vm.Word{"HALT": 0x0480},
}
