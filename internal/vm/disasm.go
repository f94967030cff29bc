package vm

// disasm.go renders an instruction word as assembly text, for the
// `list`/`x` commands and the GUI's CODE lines. See spec.md §4.4.

import (
	"fmt"
	"strings"
)

// opcodeWidth is the column the operand field starts at, matching the
// original's fixed-width mnemonic column.
const opcodeWidth = 6

// Disassemble renders the instruction at addr as a single line of text. If
// the symbol table has a label for a PC-relative target, the label is shown
// instead of the raw address.
func (m *Machine) Disassemble(addr Word) string {
	word := m.Mem.Fetch(addr)
	ir := Decode(word)
	mnemonic, operands := m.disasmOperands(addr, ir)

	return fmt.Sprintf("%-*s%s", opcodeWidth, mnemonic, operands)
}

// DisassembleRange renders [lo, hi] as a slice of lines, one per word,
// prefixed with the address and an optional symbol.
func (m *Machine) DisassembleRange(lo, hi Word) []string {
	lines := make([]string, 0, int(hi-lo)+1)

	for a := uint32(lo); a <= uint32(hi); a++ {
		addr := Word(a)
		lines = append(lines, m.formatLine(addr))

		if a == 0xFFFF {
			break
		}
	}

	return lines
}

func (m *Machine) formatLine(addr Word) string {
	label := ""
	if name, ok := m.Symbols.Name(addr); ok {
		label = name
	}

	return fmt.Sprintf("%-12s %s  %s", label, addr, m.Disassemble(addr))
}

func (m *Machine) targetText(addr Word) string {
	if name, ok := m.Symbols.Name(addr); ok {
		return name
	}

	return addr.String()
}

func (m *Machine) disasmOperands(addr Word, ir Instruction) (string, string) {
	pcAfter := addr + 1

	switch ir.Opcode() {
	case BR:
		cond := strings.ToUpper(ir.Cond().String())
		if cond == "" {
			return "NOP", ""
		}

		return "BR" + cond, m.targetText(pcAfter + ir.Offset(Offset9))
	case ADD:
		if ir.Imm() {
			return "ADD", fmt.Sprintf("%s, %s, #%d", ir.DR(), ir.SR1(), int16(ir.Literal(Imm5)))
		}

		return "ADD", fmt.Sprintf("%s, %s, %s", ir.DR(), ir.SR1(), ir.SR2())
	case AND:
		if ir.Imm() {
			return "AND", fmt.Sprintf("%s, %s, #%d", ir.DR(), ir.SR1(), int16(ir.Literal(Imm5)))
		}

		return "AND", fmt.Sprintf("%s, %s, %s", ir.DR(), ir.SR1(), ir.SR2())
	case NOT:
		return "NOT", fmt.Sprintf("%s, %s", ir.DR(), ir.SR1())
	case LD:
		return "LD", fmt.Sprintf("%s, %s", ir.DR(), m.targetText(pcAfter+ir.Offset(Offset9)))
	case LDI:
		return "LDI", fmt.Sprintf("%s, %s", ir.DR(), m.targetText(pcAfter+ir.Offset(Offset9)))
	case LDR:
		return "LDR", fmt.Sprintf("%s, %s, #%d", ir.DR(), ir.BaseR(), int16(ir.Offset(Offset6)))
	case LEA:
		return "LEA", fmt.Sprintf("%s, %s", ir.DR(), m.targetText(pcAfter+ir.Offset(Offset9)))
	case ST:
		return "ST", fmt.Sprintf("%s, %s", ir.SR(), m.targetText(pcAfter+ir.Offset(Offset9)))
	case STI:
		return "STI", fmt.Sprintf("%s, %s", ir.SR(), m.targetText(pcAfter+ir.Offset(Offset9)))
	case STR:
		return "STR", fmt.Sprintf("%s, %s, #%d", ir.SR(), ir.BaseR(), int16(ir.Offset(Offset6)))
	case JMP:
		if ir.BaseR() == RETP {
			return "RET", ""
		}

		return "JMP", ir.BaseR().String()
	case JSR:
		if ir.Long() {
			return "JSR", m.targetText(pcAfter + ir.Offset(Offset11))
		}

		return "JSRR", ir.BaseR().String()
	case TRAP:
		return "TRAP", fmt.Sprintf("x%02X", uint16(ir.TrapVector()))
	case RTI:
		return "RTI", ""
	case RESV:
		return ".FILL", Word(ir).String()
	default:
		return ir.Opcode().String(), Word(ir).String()
	}
}
