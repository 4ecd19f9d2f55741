// Package timer implements the DIV/TIMA timebase: a fixed-rate divider
// plus a configurable counter, both gated on TAC's enable bit, advanced
// one M-cycle at a time by the Scheduler.
package timer

import "github.com/fennegan-labs/gbcore/internal/gbmem"

// dividerPeriod is how many M-cycles elapse between DIV increments: the
// master clock is 1048576 Hz and DIV counts at 16384 Hz.
const dividerPeriod = 64

// speeds maps TAC's low two bits to the TIMA increment period in M-cycles.
var speeds = [4]int{256, 4, 16, 64}

// Port is the subset of gbmem.Port the Timer needs; satisfied by
// (*gbmem.Memory).TimerPort().
type Port interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Timer owns no register bytes itself — those live in Memory — only the
// two small wait counters the spec calls internal to the timer.
type Timer struct {
	port Port

	dividerWait int
	counterWait int
}

// New wires a Timer to the Memory's timer-facing port.
func New(port Port) *Timer {
	return &Timer{port: port}
}

// Tick advances the timer by one M-cycle. When TAC bit 2 is clear the
// timer is stopped: neither counter advances and DIV does not tick
// either, matching the reference model this core follows.
func (t *Timer) Tick() {
	tac := t.port.Read(gbmem.RegTAC)
	if tac&0x04 == 0 {
		return
	}

	t.dividerWait++
	t.counterWait++

	if t.dividerWait >= dividerPeriod {
		t.dividerWait = 0
		div := t.port.Read(gbmem.RegDIV)
		t.port.Write(gbmem.RegDIV, div+1)
	}

	speed := speeds[tac&0x03]
	if t.counterWait >= speed {
		t.counterWait = 0
		tima := t.port.Read(gbmem.RegTIMA) + 1
		if tima == 0 {
			t.port.Write(gbmem.RegIF, 1<<gbmem.IntTimer)
			tima = t.port.Read(gbmem.RegTMA)
		}
		t.port.Write(gbmem.RegTIMA, tima)
	}
}
