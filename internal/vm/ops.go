package vm

// ops.go implements the execute phase for each opcode. See spec.md §4.3 for
// the per-instruction semantics this mirrors.

import "fmt"

// execute performs the side effects of one decoded instruction against m.
// PC has already been advanced past the fetched word.
func execute(m *Machine, ir Instruction) error {
	switch ir.Opcode() {
	case BR:
		return opBR(m, ir)
	case ADD:
		return opADD(m, ir)
	case LD:
		return opLD(m, ir)
	case ST:
		return opST(m, ir)
	case JSR:
		return opJSR(m, ir)
	case AND:
		return opAND(m, ir)
	case LDR:
		return opLDR(m, ir)
	case STR:
		return opSTR(m, ir)
	case RTI:
		return opRTI(m, ir)
	case NOT:
		return opNOT(m, ir)
	case LDI:
		return opLDI(m, ir)
	case STI:
		return opSTI(m, ir)
	case JMP:
		return opJMP(m, ir)
	case LEA:
		return opLEA(m, ir)
	case TRAP:
		return opTRAP(m, ir)
	default:
		return fmt.Errorf("%w: opcode %s", ErrIllegalInstruction, ir.Opcode())
	}
}

func opBR(m *Machine, ir Instruction) error {
	if ir.Cond().Any(m.PSR.Cond()) {
		m.PC += ir.Offset(Offset9)
	}

	return nil
}

func opADD(m *Machine, ir Instruction) error {
	a := m.Reg[ir.SR1()]

	var b Register
	if ir.Imm() {
		b = Register(ir.Literal(Imm5))
	} else {
		b = m.Reg[ir.SR2()]
	}

	r := Register(Word(a) + Word(b))
	m.Reg[ir.DR()] = r
	m.PSR.Set(r)

	return nil
}

func opAND(m *Machine, ir Instruction) error {
	a := m.Reg[ir.SR1()]

	var b Register
	if ir.Imm() {
		b = Register(ir.Literal(Imm5))
	} else {
		b = m.Reg[ir.SR2()]
	}

	r := a & b
	m.Reg[ir.DR()] = r
	m.PSR.Set(r)

	return nil
}

func opNOT(m *Machine, ir Instruction) error {
	r := ^m.Reg[ir.SR1()]
	m.Reg[ir.DR()] = r
	m.PSR.Set(r)

	return nil
}

func opLD(m *Machine, ir Instruction) error {
	addr := m.PC + ir.Offset(Offset9)
	val := m.Mem.Fetch(addr)
	m.Reg[ir.DR()] = Register(val)
	m.PSR.Set(Register(val))

	return nil
}

func opLDI(m *Machine, ir Instruction) error {
	ptr := m.PC + ir.Offset(Offset9)
	addr := m.Mem.Fetch(ptr)
	val := m.Mem.Fetch(addr)
	m.Reg[ir.DR()] = Register(val)
	m.PSR.Set(Register(val))

	return nil
}

func opLDR(m *Machine, ir Instruction) error {
	addr := m.Reg[ir.BaseR()] + Register(ir.Offset(Offset6))
	val := m.Mem.Fetch(Word(addr))
	m.Reg[ir.DR()] = Register(val)
	m.PSR.Set(Register(val))

	return nil
}

func opLEA(m *Machine, ir Instruction) error {
	addr := m.PC + ir.Offset(Offset9)
	m.Reg[ir.DR()] = Register(addr)
	m.PSR.Set(Register(addr))

	return nil
}

func opST(m *Machine, ir Instruction) error {
	addr := m.PC + ir.Offset(Offset9)
	return m.Mem.Write(addr, Word(m.Reg[ir.SR()]))
}

func opSTI(m *Machine, ir Instruction) error {
	ptr := m.PC + ir.Offset(Offset9)
	addr := m.Mem.Fetch(ptr)

	return m.Mem.Write(addr, Word(m.Reg[ir.SR()]))
}

func opSTR(m *Machine, ir Instruction) error {
	addr := Word(m.Reg[ir.BaseR()]) + ir.Offset(Offset6)
	return m.Mem.Write(addr, Word(m.Reg[ir.SR()]))
}

func opJMP(m *Machine, ir Instruction) error {
	target := m.Reg[ir.BaseR()]

	if ir.BaseR() == RETP {
		m.FinishDepth--
	}

	m.PC = Word(target)

	return nil
}

func opJSR(m *Machine, ir Instruction) error {
	linkage := m.PC
	m.FinishDepth++

	if ir.Long() {
		m.PC += ir.Offset(Offset11)
	} else {
		m.PC = Word(m.Reg[ir.BaseR()])
	}

	m.Reg[RETP] = Register(linkage)

	return nil
}

func opTRAP(m *Machine, ir Instruction) error {
	linkage := m.PC
	m.FinishDepth++

	vector := ir.TrapVector()
	target := m.Mem.Fetch(vector)

	m.Reg[RETP] = Register(linkage)
	m.PC = target

	return nil
}

func opRTI(m *Machine, ir Instruction) error {
	// No privilege/interrupt model: RTI behaves as a plain return through
	// R6, matching this machine's single execution context.
	m.FinishDepth--
	ret := m.Mem.Fetch(Word(m.Reg[SP]))
	m.Reg[SP]++
	m.PC = ret

	return nil
}
