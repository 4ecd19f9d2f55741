// Package gameboy implements the Scheduler ("the Gameboy"): the single
// cooperative driver that advances PPU, Timer, and CPU by exactly one
// M-cycle at a time, in that fixed order, and optionally paces the result
// to the real 1.048576 MHz DMG clock.
package gameboy

import (
	"time"

	"github.com/fennegan-labs/gbcore/internal/cart"
	"github.com/fennegan-labs/gbcore/internal/cpu"
	"github.com/fennegan-labs/gbcore/internal/gbmem"
	"github.com/fennegan-labs/gbcore/internal/ppu"
	"github.com/fennegan-labs/gbcore/internal/timer"
)

const mcyclesPerSecond = 1048576

// pacingBatch is how many M-cycles accumulate between wall-clock checks,
// trading pacing granularity for syscall overhead.
const pacingBatch = 10000

// StopReason explains why Run returned control to its caller.
type StopReason int

const (
	StopNone StopReason = iota
	StopRequested
	StopBreakpoint
	StopFault
)

// Gameboy owns the Bus and the three peers that tick off it, and is the
// sole mutator of their combined state: nothing outside Cycle is allowed
// to advance a peripheral's clock.
type Gameboy struct {
	Mem   *gbmem.Memory
	CPU   *cpu.CPU
	Timer *timer.Timer
	PPU   *ppu.PPU

	breakpoints map[uint16]bool
	stopReq     bool

	cycles     uint64
	measuredHz float64
	rateCycles uint64
}

// New wires a fresh Bus to a CPU/Timer/PPU triple, each through its own
// port, and resets the CPU to the documented post-boot-ROM state.
func New(c cart.Cartridge) *Gameboy {
	mem := gbmem.NewWithCartridge(c)
	g := &Gameboy{
		Mem:         mem,
		CPU:         cpu.New(mem.CPUPort()),
		Timer:       timer.New(mem.TimerPort()),
		PPU:         ppu.New(mem.PPUPort()),
		breakpoints: make(map[uint16]bool),
	}
	g.CPU.ResetNoBoot()
	return g
}

// NewWithBootROM additionally overlays a boot ROM image and starts the
// CPU at 0x0000, letting the boot ROM itself perform the handoff.
func NewWithBootROM(c cart.Cartridge, boot []byte) *Gameboy {
	mem := gbmem.NewWithCartridge(c)
	mem.SetBootROM(boot)
	g := &Gameboy{
		Mem:         mem,
		CPU:         cpu.New(mem.CPUPort()),
		Timer:       timer.New(mem.TimerPort()),
		PPU:         ppu.New(mem.PPUPort()),
		breakpoints: make(map[uint16]bool),
	}
	g.CPU.SetPC(0x0000)
	return g
}

// SetBreakpoint arms/disarms a breakpoint on a PC value.
func (g *Gameboy) SetBreakpoint(addr uint16, on bool) {
	if on {
		g.breakpoints[addr] = true
	} else {
		delete(g.breakpoints, addr)
	}
}

// Breakpoints lists currently armed breakpoint addresses.
func (g *Gameboy) Breakpoints() []uint16 {
	out := make([]uint16, 0, len(g.breakpoints))
	for a := range g.breakpoints {
		out = append(out, a)
	}
	return out
}

// RequestStop asks Run to return at the next M-cycle boundary, without
// abandoning mid-instruction state.
func (g *Gameboy) RequestStop() { g.stopReq = true }

// Cycle advances PPU (four dots), Timer, and CPU by exactly one M-cycle,
// in that fixed order. DMA is a supplemental transfer layered on top of
// the same M-cycle boundary (see gbmem.AdvanceDMA).
func (g *Gameboy) Cycle() {
	g.PPU.Tick()
	g.PPU.Tick()
	g.PPU.Tick()
	g.PPU.Tick()
	g.Timer.Tick()
	g.Mem.AdvanceDMA()
	g.CPU.Tick()
	g.cycles++
	g.rateCycles++
}

// Step drains any M-cycles remaining on the CPU's wait counter and then
// runs exactly one more, producing one full instruction's worth of ticks.
// This is the granularity the debugger's "n" command and headless
// single-instruction test harnesses want; Run drives Cycle directly so
// pacing and breakpoint checks happen at true M-cycle boundaries.
func (g *Gameboy) Step() {
	for g.CPU.IsWaiting() {
		g.Cycle()
	}
	g.Cycle()
}

// Run cycles the Gameboy until a breakpoint is hit, a stop is requested,
// or a fatal opcode fault occurs. When pace is true, wall-clock throttling
// holds the effective rate near the real DMG clock, checked in
// pacingBatch-sized batches to avoid per-tick syscall overhead.
func (g *Gameboy) Run(pace bool) StopReason {
	g.stopReq = false
	batchStart := time.Now()
	batchCycles := 0

	for {
		if g.stopReq {
			return StopRequested
		}
		if g.CPU.Fault != nil {
			return StopFault
		}

		g.Cycle()

		if g.CPU.InstructionJustCompleted() && g.breakpoints[g.CPU.PC] {
			return StopBreakpoint
		}

		if pace {
			batchCycles++
			if batchCycles >= pacingBatch {
				g.throttle(batchStart, batchCycles)
				batchStart = time.Now()
				batchCycles = 0
			}
		}
	}
}

// throttle sleeps off whatever time a batch of M-cycles finished early
// relative to the real 1.048576 MHz clock, and folds the batch into the
// measured-rate EMA exposed via MeasuredHz.
func (g *Gameboy) throttle(batchStart time.Time, batchCycles int) {
	wantDuration := time.Duration(float64(batchCycles) / mcyclesPerSecond * float64(time.Second))
	elapsed := time.Since(batchStart)
	if elapsed < wantDuration {
		time.Sleep(wantDuration - elapsed)
	}
	g.updateMeasuredRate(batchCycles, time.Since(batchStart))
}

// updateMeasuredRate maintains an exponential moving average of the
// observed M-cycle rate for the UI's Hz readout.
func (g *Gameboy) updateMeasuredRate(cycles int, took time.Duration) {
	if took <= 0 {
		return
	}
	instantaneous := float64(cycles) / took.Seconds()
	const alpha = 0.5
	if g.measuredHz == 0 {
		g.measuredHz = instantaneous
		return
	}
	g.measuredHz = alpha*instantaneous + (1-alpha)*g.measuredHz
}

// MeasuredHz returns the current EMA of the observed M-cycle rate.
func (g *Gameboy) MeasuredHz() float64 { return g.measuredHz }

// Cycles reports the total number of M-cycles stepped since construction.
func (g *Gameboy) Cycles() uint64 { return g.cycles }
