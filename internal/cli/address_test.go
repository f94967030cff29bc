package cli

import (
	"testing"

	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

func TestParseAddressHexAndDecimal(t *testing.T) {
	t.Parallel()

	m := vm.New(nil)
	res := machineResolver{m: m}

	cases := map[string]vm.Word{
		"x3000": 0x3000,
		"X3000": 0x3000,
		"0x3000": 0x3000,
		"#10":   10,
		"3000":  0x3000,
	}

	for tok, want := range cases {
		got, err := ParseAddress(tok, res)
		if err != nil {
			t.Errorf("%q: %v", tok, err)
			continue
		}

		if got != want {
			t.Errorf("%q: want %s, got %s", tok, want, got)
		}
	}
}

func TestParseAddressRegisterAndSymbol(t *testing.T) {
	t.Parallel()

	m := vm.New(nil)
	m.PC = 0x4000
	m.Symbols.Define("START", 0x5000)
	res := machineResolver{m: m}

	if got, err := ParseAddress("PC", res); err != nil || got != 0x4000 {
		t.Errorf("PC: got %s, err %v", got, err)
	}

	if got, err := ParseAddress("START", res); err != nil || got != 0x5000 {
		t.Errorf("START: got %s, err %v", got, err)
	}
}

func TestParseRangeColonAndPlus(t *testing.T) {
	t.Parallel()

	m := vm.New(nil)
	res := machineResolver{m: m}

	rng, err := ParseRange("x3000:x3005", res)
	if err != nil {
		t.Fatalf("colon range: %v", err)
	}

	if rng.Lo != 0x3000 || rng.Hi != 0x3005 {
		t.Errorf("colon range: got %+v", rng)
	}

	rng, err = ParseRange("x3000+x5", res)
	if err != nil {
		t.Fatalf("plus range: %v", err)
	}

	if rng.Lo != 0x3000 || rng.Hi != 0x3005 {
		t.Errorf("plus range: got %+v", rng)
	}
}
