package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fennegan-labs/gbcore/internal/cart"
	"github.com/fennegan-labs/gbcore/internal/gameboy"
)

func newTestDebugger(program ...byte) (*Debugger, *bytes.Buffer, *gameboy.Gameboy) {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], program)
	gb := gameboy.New(cart.NewCartridge(rom))
	gb.CPU.SetPC(0x0100)
	var out bytes.Buffer
	return New(gb, &out), &out, gb
}

func TestBreakpointAddListDelete(t *testing.T) {
	d, out, _ := newTestDebugger(0x00)
	d.dispatch("bp 0x150")
	d.dispatch("bpl")
	if !strings.Contains(out.String(), "0x0150") {
		t.Fatalf("expected breakpoint list to show 0x0150, got %q", out.String())
	}
	out.Reset()
	d.dispatch("bpd 0x150")
	d.dispatch("bpl")
	if strings.TrimSpace(out.String()) != "Removed breakpoint 0x0150." {
		t.Fatalf("unexpected output after delete: %q", out.String())
	}
}

func TestStepOnceAdvancesPC(t *testing.T) {
	d, _, gb := newTestDebugger(0x00, 0x00) // NOP; NOP
	d.dispatch("n")
	if gb.CPU.PC != 0x0101 {
		t.Fatalf("expected PC=0x0101 after one step, got 0x%04X", gb.CPU.PC)
	}
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	d, out, gb := newTestDebugger(0x00, 0x00, 0x00)
	gb.SetBreakpoint(0x0102, true)
	d.dispatch("c")
	if gb.CPU.PC != 0x0102 {
		t.Fatalf("expected PC=0x0102 at breakpoint, got 0x%04X", gb.CPU.PC)
	}
	if !strings.Contains(out.String(), "Breakpoint hit") {
		t.Fatalf("expected breakpoint-hit message, got %q", out.String())
	}
}

func TestPrintMemoryReadsViaAuditPort(t *testing.T) {
	d, out, gb := newTestDebugger(0x00)
	gb.Mem.AuditPort().Write(0xC000, 0x42)
	d.dispatch("m 0xC000")
	if !strings.Contains(out.String(), "0x42") {
		t.Fatalf("expected memory read to show 0x42, got %q", out.String())
	}
}

func TestRunReadsUntilEOF(t *testing.T) {
	d, out, gb := newTestDebugger(0x00, 0x00)
	in := strings.NewReader("n\n")
	d.Run(in)
	if gb.CPU.PC != 0x0101 {
		t.Fatalf("expected PC=0x0101 after feeding one 'n' command, got 0x%04X", gb.CPU.PC)
	}
	if !strings.Contains(out.String(), "(dgbdb) ") {
		t.Fatalf("expected prompt in output")
	}
}
