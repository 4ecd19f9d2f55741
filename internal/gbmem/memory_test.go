package gbmem

import "testing"

func TestMemory_ROMAndRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	m := New(rom)
	cpu := m.CPUPort()

	if got := cpu.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	cpu.Write(0xC000, 0x99)
	if got := cpu.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	// Echo RAM mirrors C000–DDFF.
	cpu.Write(0xE000, 0x55)
	if got := cpu.Read(0xC000); got != 0x55 {
		t.Fatalf("echo write did not mirror to WRAM: got %02x", got)
	}

	cpu.Write(0xFF80, 0xAB)
	if got := cpu.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}

	if got := cpu.Read(0xA123); got != 0xFF {
		t.Fatalf("ext RAM (ROM-only cart) got %02x, want FF", got)
	}

	if got := cpu.Read(0xFEA0); got != 0xFF {
		t.Fatalf("prohibited region got %02x, want FF", got)
	}
	cpu.Write(0xFEA0, 0x01) // must be silently ignored
	if got := cpu.Read(0xFEA0); got != 0xFF {
		t.Fatalf("prohibited region write leaked through: got %02x", got)
	}
}

func TestMemory_VRAM_OAM_InterruptRegs(t *testing.T) {
	m := New(make([]byte, 0x8000))
	cpu := m.CPUPort()

	cpu.Write(0x8000, 0x11)
	if got := cpu.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	cpu.Write(0xFE00, 0x22)
	if got := cpu.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}

	cpu.Write(RegIF, 0x3F)
	if got := cpu.Read(RegIF); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02x, want %02x", got, 0xE0|0x1F)
	}

	cpu.Write(RegIE, 0x1B)
	if got := cpu.Read(RegIE); got != (0xE0 | 0x1B) {
		t.Fatalf("IE read got %02x, want %02x", got, 0xE0|0x1B)
	}
}

func TestMemory_JOYP(t *testing.T) {
	m := New(make([]byte, 0x8000))
	cpu := m.CPUPort()

	if got := cpu.Read(RegJOYP); got&0x0F != 0x0F {
		t.Fatalf("default JOYP lower bits got %02x want 0x0F", got&0x0F)
	}

	cpu.Write(RegJOYP, 0x20) // select D-pad (P14=0)
	m.SetButtons(ButtonRight | ButtonUp)
	if got := cpu.Read(RegJOYP); got&0x0F != 0x0A {
		t.Fatalf("JOYP D-pad got %02x want 0x0A", got&0x0F)
	}

	cpu.Write(RegJOYP, 0x10) // select buttons (P15=0)
	m.SetButtons(ButtonA | ButtonStart)
	if got := cpu.Read(RegJOYP); got&0x0F != 0x06 {
		t.Fatalf("JOYP buttons got %02x want 0x06", got&0x0F)
	}
}

func TestMemory_DIVResetOnCPUWrite(t *testing.T) {
	m := New(make([]byte, 0x8000))
	cpu := m.CPUPort()

	cpu.Write(RegDIV, 0x42)
	if got := cpu.Read(RegDIV); got != 0x00 {
		t.Fatalf("DIV write did not reset to 0: got %02x", got)
	}
}

func TestMemory_BootOverlay(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xAA
	m := New(rom)
	boot := make([]byte, 0x100)
	boot[0] = 0x55
	m.SetBootROM(boot)

	cpu := m.CPUPort()
	if got := cpu.Read(0x0000); got != 0x55 {
		t.Fatalf("boot overlay not visible: got %02x want 55", got)
	}

	cpu.Write(RegBOOT, 0x01)
	if got := cpu.Read(0x0000); got != 0xAA {
		t.Fatalf("boot overlay still visible after disable write: got %02x want AA", got)
	}
}

func TestMemory_PortsIndependentOfCPUSideEffects(t *testing.T) {
	m := New(make([]byte, 0x8000))
	tp := m.TimerPort()

	// The Timer port writing DIV does NOT trigger the CPU-only
	// reset-to-zero rule; it stores the raw value.
	tp.Write(RegDIV, 0x07)
	if got := tp.Read(RegDIV); got != 0x07 {
		t.Fatalf("timer port DIV write got %02x want 07", got)
	}

	pp := m.PPUPort()
	pp.Write(RegIF, 1<<IntVBlank)
	tp.Write(RegIF, 1<<IntTimer)
	cpu := m.CPUPort()
	if got := cpu.Read(RegIF) & 0x1F; got != (1<<IntVBlank | 1<<IntTimer) {
		t.Fatalf("IF requests from timer/ppu ports did not OR together: got %02x", got)
	}
}

func TestMemory_AuditPortNoSideEffects(t *testing.T) {
	m := New(make([]byte, 0x8000))
	ap := m.AuditPort()

	ap.Write(RegDIV, 0x99)
	if got := ap.Read(RegDIV); got != 0x99 {
		t.Fatalf("audit port DIV write should be a raw set: got %02x want 99", got)
	}
}

func TestMemory_DMA(t *testing.T) {
	rom := make([]byte, 0x8000)
	for i := 0; i < 0xA0; i++ {
		rom[0x4000+i] = byte(i)
	}
	m := New(rom)
	cpu := m.CPUPort()

	cpu.Write(RegDMA, 0x40) // source 0x4000
	for i := 0; i < 0xA0; i++ {
		m.AdvanceDMA()
	}
	for i := 0; i < 0xA0; i++ {
		if got := cpu.Read(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("DMA byte %d got %02x want %02x", i, got, byte(i))
		}
	}
}
