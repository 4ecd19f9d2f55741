package ppu

import (
	"testing"

	"github.com/fennegan-labs/gbcore/internal/gbmem"
)

func newHarness() (*gbmem.Memory, *PPU) {
	m := gbmem.New(make([]byte, 0x8000))
	return m, New(m.PPUPort())
}

func statMode(mem *gbmem.Memory) byte { return mem.CPUPort().Read(gbmem.RegSTAT) & 0x03 }

func TestPPUModeSequenceOneLine(t *testing.T) {
	mem, p := newHarness()
	cpu := mem.CPUPort()
	cpu.Write(gbmem.RegLCDC, 0x80)

	if m := statMode(mem); m != modeOAMSearch {
		t.Fatalf("expected OAMSearch at line start, got %d", m)
	}

	for i := 0; i < 80/4; i++ {
		p.Tick()
	}
	if m := statMode(mem); m != modeActivePicture {
		t.Fatalf("expected ActivePicture at dot 80, got %d", m)
	}

	for i := 0; i < 43; i++ { // 172 dots / 4 per Tick = 43 ticks
		p.Tick()
	}
	if m := statMode(mem); m != modeHBlank {
		t.Fatalf("expected HBlank at dot 252, got %d", m)
	}

	for i := 0; i < (456-252)/4; i++ {
		p.Tick()
	}
	if ly := cpu.Read(gbmem.RegLY); ly != 1 {
		t.Fatalf("expected LY=1, got %d", ly)
	}
	if m := statMode(mem); m != modeOAMSearch {
		t.Fatalf("expected OAMSearch at new line, got %d", m)
	}
}

func TestPPUVBlankInterruptGatedOnIE(t *testing.T) {
	mem, p := newHarness()
	cpu := mem.CPUPort()
	cpu.Write(gbmem.RegLCDC, 0x80)

	for i := 0; i < 144*456/4; i++ {
		p.Tick()
	}
	if ly := cpu.Read(gbmem.RegLY); ly != 144 {
		t.Fatalf("expected LY=144, got %d", ly)
	}
	if got := cpu.Read(gbmem.RegIF) & (1 << gbmem.IntVBlank); got != 0 {
		t.Fatalf("VBlank IF should stay clear when IE doesn't enable it")
	}

	mem2, p2 := newHarness()
	cpu2 := mem2.CPUPort()
	cpu2.Write(gbmem.RegLCDC, 0x80)
	cpu2.Write(gbmem.RegIE, 1<<gbmem.IntVBlank)
	for i := 0; i < 144*456/4; i++ {
		p2.Tick()
	}
	if got := cpu2.Read(gbmem.RegIF) & (1 << gbmem.IntVBlank); got == 0 {
		t.Fatalf("expected VBlank IF set once IE enables it")
	}
}

func TestSTATModeAndLYCCoincidence(t *testing.T) {
	mem, p := newHarness()
	cpu := mem.CPUPort()
	cpu.Write(gbmem.RegSTAT, (1<<3)|(1<<5)|(1<<6))
	cpu.Write(gbmem.RegLYC, 2)
	cpu.Write(gbmem.RegLCDC, 0x80)

	for i := 0; i < (80+172)/4; i++ {
		p.Tick()
	}
	if got := cpu.Read(gbmem.RegIF) & (1 << gbmem.IntLCDStat); got == 0 {
		t.Fatalf("expected STAT IRQ on HBlank when enabled")
	}

	cpu.Write(gbmem.RegIF, 0)
	remaining := (456 - (80 + 172)) + 456 // finish line 0, then all of line 1, landing at the start of line 2
	for i := 0; i < remaining/4; i++ {
		p.Tick()
	}
	if got := cpu.Read(gbmem.RegIF) & (1 << gbmem.IntLCDStat); got == 0 {
		t.Fatalf("expected STAT IRQ on LYC coincidence at LY=2")
	}
}

func TestPPU_FullFrameWrapsLYTo0(t *testing.T) {
	mem, p := newHarness()
	cpu := mem.CPUPort()
	cpu.Write(gbmem.RegLCDC, 0x80)

	for i := 0; i < 154*456/4; i++ {
		p.Tick()
	}
	if ly := cpu.Read(gbmem.RegLY); ly != 0 {
		t.Fatalf("expected LY to wrap to 0 after a full frame, got %d", ly)
	}
}
