package cli

// address.go parses the address expressions accepted by the break, dump,
// list, memory, and x commands, per spec.md §4.7 "Address parsing".
//
// An address expression is one of:
//   - a register name: R0..R7, PC, IR (the register's current value)
//   - a label defined by the loaded symbol table
//   - a hex literal: x<hex digits>, X<hex digits> or 0x<hex digits>
//   - a decimal literal: #<digits>
//   - bare digits, read as hex, if no other form matches
//
// A range expression is two address expressions joined by ':' (inclusive
// bounds) or an address and a number N joined by '+' (the inclusive range
// from the address through the address plus N).

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

// AddressResolver supplies the register and symbol values an address
// expression can reference. *vm.Machine implements it.
type AddressResolver interface {
	ResolveRegister(name string) (vm.Word, bool)
	ResolveSymbol(name string) (vm.Word, bool)
}

// machineResolver adapts *vm.Machine to AddressResolver.
type machineResolver struct{ m *vm.Machine }

func (r machineResolver) ResolveRegister(name string) (vm.Word, bool) {
	switch strings.ToUpper(name) {
	case "PC":
		return r.m.PC, true
	case "IR":
		return vm.Word(r.m.IR), true
	case "R0":
		return vm.Word(r.m.Reg[vm.R0]), true
	case "R1":
		return vm.Word(r.m.Reg[vm.R1]), true
	case "R2":
		return vm.Word(r.m.Reg[vm.R2]), true
	case "R3":
		return vm.Word(r.m.Reg[vm.R3]), true
	case "R4":
		return vm.Word(r.m.Reg[vm.R4]), true
	case "R5":
		return vm.Word(r.m.Reg[vm.R5]), true
	case "R6":
		return vm.Word(r.m.Reg[vm.R6]), true
	case "R7":
		return vm.Word(r.m.Reg[vm.R7]), true
	default:
		return 0, false
	}
}

func (r machineResolver) ResolveSymbol(name string) (vm.Word, bool) {
	return r.m.Symbols.Lookup(name)
}

// ParseAddress resolves a single address expression.
func ParseAddress(tok string, res AddressResolver) (vm.Word, error) {
	if tok == "" {
		return 0, fmt.Errorf("%w: empty address", ErrSyntax)
	}

	if addr, ok := res.ResolveRegister(tok); ok {
		return addr, nil
	}

	if addr, ok := res.ResolveSymbol(tok); ok {
		return addr, nil
	}

	return parseNumber(tok)
}

func parseNumber(tok string) (vm.Word, error) {
	switch {
	case strings.HasPrefix(tok, "#"):
		n, err := strconv.ParseInt(tok[1:], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrSyntax, tok, err)
		}

		return vm.Word(uint16(n)), nil

	case strings.HasPrefix(tok, "x") || strings.HasPrefix(tok, "X"):
		n, err := strconv.ParseUint(tok[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrSyntax, tok, err)
		}

		return vm.Word(n), nil

	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		n, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrSyntax, tok, err)
		}

		return vm.Word(n), nil

	default:
		// Bare digits: accept as hex, matching the original simulator's
		// leniency when a user types a raw address without a prefix.
		n, err := strconv.ParseUint(tok, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an address, register, or symbol", ErrSyntax, tok)
		}

		return vm.Word(n), nil
	}
}

// AddressRange is an inclusive [Lo, Hi] pair.
type AddressRange struct {
	Lo, Hi vm.Word
}

// ParseRange resolves a range expression: "A", "A:B", or "A+N".
func ParseRange(tok string, res AddressResolver) (AddressRange, error) {
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		lo, err := ParseAddress(tok[:i], res)
		if err != nil {
			return AddressRange{}, err
		}

		hi, err := ParseAddress(tok[i+1:], res)
		if err != nil {
			return AddressRange{}, err
		}

		if hi < lo {
			lo, hi = hi, lo
		}

		return AddressRange{Lo: lo, Hi: hi}, nil
	}

	if i := strings.IndexByte(tok, '+'); i >= 0 {
		lo, err := ParseAddress(tok[:i], res)
		if err != nil {
			return AddressRange{}, err
		}

		n, err := parseNumber(tok[i+1:])
		if err != nil {
			return AddressRange{}, err
		}

		return AddressRange{Lo: lo, Hi: lo + n}, nil
	}

	lo, err := ParseAddress(tok, res)
	if err != nil {
		return AddressRange{}, err
	}

	return AddressRange{Lo: lo, Hi: lo}, nil
}
