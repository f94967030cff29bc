package cli

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/LandonTheCoder/lc3tools-ng/internal/vm"
)

func newPipeGUISession() (*GUISession, net.Conn) {
	client, server := net.Pipe()

	g := &GUISession{
		conn:  client,
		w:     bufio.NewWriter(client),
		lines: make(chan string, 1),
	}

	go g.pump()

	return g, server
}

func TestGUIRegistersProtocolFormat(t *testing.T) {
	t.Parallel()

	g, server := newPipeGUISession()
	defer server.Close()

	m := vm.New(nil)
	m.Reg[vm.R0] = 0x1234
	m.PSR.Set(1) // positive

	errCh := make(chan error, 1)

	go func() { errCh <- g.Registers(m) }()

	r := bufio.NewReader(server)

	lines := make([]string, 0, vm.NumGPR+1)

	for i := 0; i < int(vm.NumGPR)+1; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read line %d: %v", i, err)
		}

		lines = append(lines, strings.TrimRight(line, "\n"))
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Registers: %v", err)
	}

	if lines[0] != "REG R0 x1234" {
		t.Errorf("R0 line: got %q", lines[0])
	}

	want := fmt.Sprintf("REG R%d p", vm.NumGPR)
	if got := lines[len(lines)-1]; got != want {
		t.Errorf("condition line: got %q, want %q", got, want)
	}
}

func TestGUITranslateProtocolFormat(t *testing.T) {
	t.Parallel()

	g, server := newPipeGUISession()
	defer server.Close()

	errCh := make(chan error, 1)

	go func() { errCh <- g.Translate(0x3000, 0xABCD) }()

	r := bufio.NewReader(server)

	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Translate: %v", err)
	}

	want := fmt.Sprintf("TRANS x%04X xABCD\n", 0x3000+guiAddrBias)
	if line != want {
		t.Errorf("got %q, want %q", line, want)
	}
}

func TestGUIPollInterruptAndRead(t *testing.T) {
	t.Parallel()

	g, server := newPipeGUISession()
	defer server.Close()

	go func() { fmt.Fprintf(server, "stop\n") }()

	deadline := time.Now().Add(time.Second)
	for !g.PollInterrupt() {
		if time.Now().After(deadline) {
			t.Fatal("PollInterrupt never observed the line")
		}

		time.Sleep(time.Millisecond)
	}

	if !g.InterruptedAtRequest {
		t.Errorf("expected InterruptedAtRequest to be set")
	}

	buf := make([]byte, 16)

	n, err := g.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(buf[:n]) != "stop\n" {
		t.Errorf("got %q", buf[:n])
	}
}
