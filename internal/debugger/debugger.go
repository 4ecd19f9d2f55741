// Package debugger implements a line-based REPL collaborator: breakpoint
// management, single-step, continue, register inspection, and raw memory
// reads, all through the Gameboy's audit port so the debugger never
// participates in the core's side-effect semantics.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fennegan-labs/gbcore/internal/gameboy"
	"github.com/fennegan-labs/gbcore/internal/gbmem"
)

// Debugger drives a Gameboy interactively from a stream of command lines.
type Debugger struct {
	gb  *gameboy.Gameboy
	mem gbmem.Port // audit port: side-effect-free reads/writes

	out io.Writer
}

// New attaches a Debugger to a running Gameboy, reading memory exclusively
// through its audit port.
func New(gb *gameboy.Gameboy, out io.Writer) *Debugger {
	return &Debugger{gb: gb, mem: gb.Mem.AuditPort(), out: out}
}

// Run reads one command per line from in until EOF or a "EOF"-equivalent
// close, dispatching to the debugger's command set. It returns when the
// stream closes or the "EOF" command is issued.
func (d *Debugger) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(d.out, "(dgbdb) ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !d.dispatch(line) {
			return
		}
		fmt.Fprint(d.out, "(dgbdb) ")
	}
}

// dispatch executes one command line and reports whether the REPL should
// keep reading further lines.
func (d *Debugger) dispatch(line string) bool {
	fields := strings.SplitN(line, " ", 2)
	cmd := fields[0]
	arg := ""
	if len(fields) == 2 {
		arg = strings.TrimSpace(fields[1])
	}

	switch cmd {
	case "bp":
		d.addBreakpoint(arg)
	case "bpd":
		d.deleteBreakpoint(arg)
	case "bpl":
		d.listBreakpoints()
	case "n":
		d.stepOne()
	case "c":
		d.cont()
	case "p":
		d.printState()
	case "m":
		d.printMemory(arg)
	case "EOF":
		return false
	case "":
		// blank line: no-op, re-prompt
	default:
		fmt.Fprintf(d.out, "unknown command %q\n", cmd)
	}
	return true
}

func parseAddr(arg string) (uint16, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(arg), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", arg, err)
	}
	return uint16(v), nil
}

func (d *Debugger) addBreakpoint(arg string) {
	addr, err := parseAddr(arg)
	if err != nil {
		fmt.Fprintln(d.out, err)
		return
	}
	already := false
	for _, bp := range d.gb.Breakpoints() {
		if bp == addr {
			already = true
		}
	}
	d.gb.SetBreakpoint(addr, true)
	if already {
		fmt.Fprintf(d.out, "Breakpoint 0x%04x already exists.\n", addr)
	} else {
		fmt.Fprintf(d.out, "Added breakpoint 0x%04x.\n", addr)
	}
}

func (d *Debugger) deleteBreakpoint(arg string) {
	addr, err := parseAddr(arg)
	if err != nil {
		fmt.Fprintln(d.out, err)
		return
	}
	existed := false
	for _, bp := range d.gb.Breakpoints() {
		if bp == addr {
			existed = true
		}
	}
	d.gb.SetBreakpoint(addr, false)
	if existed {
		fmt.Fprintf(d.out, "Removed breakpoint 0x%04x.\n", addr)
	} else {
		fmt.Fprintf(d.out, "Breakpoint 0x%04x does not exist.\n", addr)
	}
}

func (d *Debugger) listBreakpoints() {
	for _, bp := range d.gb.Breakpoints() {
		fmt.Fprintf(d.out, "0x%04x\n", bp)
	}
}

// stepOne runs a single instruction to completion and reports state.
func (d *Debugger) stepOne() {
	d.gb.Step()
	if d.gb.CPU.Fault != nil {
		fmt.Fprintln(d.out, d.gb.CPU.Fault)
		return
	}
	d.printState()
}

// cont runs until a breakpoint fires, a fault occurs, or a stop is
// requested elsewhere, then reports the resulting state.
func (d *Debugger) cont() {
	reason := d.gb.Run(false)
	switch reason {
	case gameboy.StopBreakpoint:
		fmt.Fprintln(d.out, "Breakpoint hit")
	case gameboy.StopFault:
		fmt.Fprintln(d.out, d.gb.CPU.Fault)
	case gameboy.StopRequested:
		fmt.Fprintln(d.out, "Stopped")
	}
	d.printState()
}

func (d *Debugger) printState() {
	c := d.gb.CPU
	fmt.Fprintf(d.out, "AF: 0x%04x\n", uint16(c.A)<<8|uint16(c.F))
	fmt.Fprintf(d.out, "BC: 0x%04x\n", uint16(c.B)<<8|uint16(c.C))
	fmt.Fprintf(d.out, "DE: 0x%04x\n", uint16(c.D)<<8|uint16(c.E))
	fmt.Fprintf(d.out, "HL: 0x%04x\n", uint16(c.H)<<8|uint16(c.L))
	fmt.Fprintf(d.out, "SP: 0x%04x\n", c.SP)
	fmt.Fprintf(d.out, "PC: 0x%04x\n", c.PC)
	op := d.mem.Read(c.PC)
	fmt.Fprintf(d.out, "Opcode: 0x%02x\n", op)
}

func (d *Debugger) printMemory(arg string) {
	addr, err := parseAddr(arg)
	if err != nil {
		fmt.Fprintln(d.out, err)
		return
	}
	fmt.Fprintf(d.out, "0x%02x\n", d.mem.Read(addr))
}
