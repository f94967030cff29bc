package vm

import (
	"strings"
	"testing"
)

func TestLoadObject(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)

	obj := []byte{0x30, 0x00, 0x00, 0x01, 0x00, 0x02}

	res, err := m.LoadObject(strings.NewReader(string(obj)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if res.Origin != 0x3000 || res.Words != 2 {
		t.Fatalf("result: %+v", res)
	}

	if m.Mem.Fetch(0x3000) != 1 || m.Mem.Fetch(0x3001) != 2 {
		t.Errorf("words not loaded: %s %s", m.Mem.Fetch(0x3000), m.Mem.Fetch(0x3001))
	}
}

func TestLoadSymbols(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)

	sym := "" +
		"-- Symbol table --\n" +
		"Scope level 0:\n" +
		"\tSymbol Name       Page Address\n" +
		"\t----------------- ------------\n" +
		"\tSTART             0000 3000\n" +
		"\tLOOP               0000 3005\n"

	if err := m.LoadSymbols(strings.NewReader(sym)); err != nil {
		t.Fatalf("load symbols: %v", err)
	}

	if addr, ok := m.Symbols.Lookup("START"); !ok || addr != 0x3000 {
		t.Errorf("START: want x3000, got %s ok=%v", addr, ok)
	}

	if name, ok := m.Symbols.Name(0x3005); !ok || name != "LOOP" {
		t.Errorf("0x3005: want LOOP, got %q ok=%v", name, ok)
	}
}
