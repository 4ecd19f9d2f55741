// Package gbmem implements the LR35902 address-space fabric: region
// dispatch, MMIO registers, the boot-ROM overlay, and the four
// capability-restricted ports (CPU, Timer, PPU, audit) that the rest of
// the core borrows views through. Memory is the sole owner of all
// storage; CPU, Timer, and PPU never hold their own copies of a
// register or RAM bank, only the port handed to them at construction.
package gbmem

import "github.com/fennegan-labs/gbcore/internal/cart"

// MMIO register addresses named in the external interface contract.
const (
	RegJOYP = 0xFF00
	RegSB   = 0xFF01
	RegSC   = 0xFF02
	RegDIV  = 0xFF04
	RegTIMA = 0xFF05
	RegTMA  = 0xFF06
	RegTAC  = 0xFF07
	RegIF   = 0xFF0F
	RegLCDC = 0xFF40
	RegSTAT = 0xFF41
	RegSCY  = 0xFF42
	RegSCX  = 0xFF43
	RegLY   = 0xFF44
	RegLYC  = 0xFF45
	RegDMA  = 0xFF46
	RegBGP  = 0xFF47
	RegOBP0 = 0xFF48
	RegOBP1 = 0xFF49
	RegWY   = 0xFF4A
	RegWX   = 0xFF4B
	RegBOOT = 0xFF50
	RegIE   = 0xFFFF
)

// Interrupt bit positions within IF/IE; lowest-numbered has highest priority.
const (
	IntVBlank  = 0
	IntLCDStat = 1
	IntTimer   = 2
	IntSerial  = 3
	IntJoypad  = 4
)

// Joypad button bitmasks for SetButtons. A set bit means "pressed".
const (
	ButtonRight  = 1 << 0
	ButtonLeft   = 1 << 1
	ButtonUp     = 1 << 2
	ButtonDown   = 1 << 3
	ButtonA      = 1 << 4
	ButtonB      = 1 << 5
	ButtonSelect = 1 << 6
	ButtonStart  = 1 << 7
)

// Memory owns all addressable storage for one Game Boy session: cartridge
// ROM/RAM (delegated to a cart.Cartridge), WRAM, VRAM, OAM, HRAM, and every
// MMIO register. It never advances on its own; peripherals mutate it
// through the port views below, driven by the Scheduler.
type Memory struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000–0xDFFF
	hram [0x7F]byte   // 0xFF80–0xFFFE
	vram [0x2000]byte // 0x8000–0x9FFF
	oam  [0xA0]byte   // 0xFE00–0xFE9F

	// Sound registers 0xFF10–0xFF3F: storage only, no synthesis. Audio
	// generation is an external collaborator's concern; the core only
	// needs these bytes to round-trip for software that probes them.
	apuRegs [0x30]byte

	ie    byte
	ifReg byte // lower 5 bits meaningful

	joypSelect byte
	joypState  byte // bitmask of currently pressed buttons

	div            byte
	tima, tma, tac byte

	sb, sc byte

	lcdc, stat, scy, scx, ly, lyc, bgp, obp0, obp1, wy, wx byte

	dma       byte
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootROM     []byte
	bootEnabled bool
}

// New constructs a Memory with the cartridge implementation that
// cart.NewCartridge selects from rom's header.
func New(rom []byte) *Memory {
	return NewWithCartridge(cart.NewCartridge(rom))
}

// NewWithCartridge wires a provided cartridge implementation (ROM-only or
// an MBC variant selected by the ROM header).
func NewWithCartridge(c cart.Cartridge) *Memory {
	m := &Memory{cart: c}
	m.stat = 0x02 // OAMSearch at line 0, the PPU's power-on mode.
	return m
}

// SetBootROM loads a 256-byte DMG boot ROM to overlay 0x0000–0x00FF until a
// write to RegBOOT latches it off. A shorter or nil data leaves the overlay
// disabled (cartridge bank 0 visible from address 0).
func (m *Memory) SetBootROM(data []byte) {
	m.bootROM = nil
	m.bootEnabled = false
	if len(data) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, data[:0x100])
		m.bootEnabled = true
	}
}

// SetButtons records which joypad buttons are currently held. mask is a
// bitwise-OR of the Button* constants. No interrupt is raised here: input
// handling beyond register storage is an external collaborator's concern,
// so only the bits JOYP reads back are affected.
func (m *Memory) SetButtons(mask byte) { m.joypState = mask }

// Cart exposes the underlying cartridge for collaborators that need header
// or battery-RAM access (e.g. the CLI persisting a .sav file).
func (m *Memory) Cart() cart.Cartridge { return m.cart }

// CPUPort returns the full-semantics view used by the CPU: boot overlay,
// DIV-reset-on-write, boot-disable latch, and echo mirroring.
func (m *Memory) CPUPort() Port { return cpuPort{m} }

// TimerPort returns the view the Timer ticks through: direct register
// access with no CPU-only side effects, so the timer can advance DIV/TIMA
// without tripping the "write from CPU" rules.
func (m *Memory) TimerPort() Port { return timerPort{m} }

// PPUPort returns the view the PPU ticks through: direct access to its
// registers plus VRAM/OAM, and IF-request semantics for raising interrupts.
func (m *Memory) PPUPort() Port { return ppuPort{m} }

// AuditPort returns a side-effect-free view used by debuggers and
// monitors: reads never alter state, writes never trigger DIV reset or
// the boot-disable latch.
func (m *Memory) AuditPort() Port { return auditPort{m} }

// Port is the three-operation contract every bus view implements: typed
// byte read, typed byte write, and (by virtue of addr being the index)
// an indexable view over the shared address space.
type Port interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// readWithBootOverlay is shared by the two ports (CPU, audit) that should
// see the boot ROM overlay the way the CPU does.
func (m *Memory) readWithBootOverlay(addr uint16) byte {
	if m.bootEnabled && addr < 0x0100 && len(m.bootROM) >= 0x100 {
		return m.bootROM[addr]
	}
	return m.rawRead(addr)
}

// rawRead is the shared address-decode table. Every port's Read ultimately
// bottoms out here; boot overlay is applied by callers that want it.
func (m *Memory) rawRead(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return m.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return m.vram[addr-0x8000]
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return m.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m.dmaActive {
			return 0xFF
		}
		return m.oam[addr-0xFE00]
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF // Prohibited region.
	case addr == RegJOYP:
		return m.readJoyp()
	case addr == RegSB:
		return m.sb
	case addr == RegSC:
		return 0x7E | (m.sc & 0x81)
	case addr == RegDIV:
		return m.div
	case addr == RegTIMA:
		return m.tima
	case addr == RegTMA:
		return m.tma
	case addr == RegTAC:
		return 0xF8 | (m.tac & 0x07)
	case addr == RegIF:
		return 0xE0 | (m.ifReg & 0x1F)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return m.apuRegs[addr-0xFF10]
	case addr == RegLCDC:
		return m.lcdc
	case addr == RegSTAT:
		return 0x80 | (m.stat & 0x7F)
	case addr == RegSCY:
		return m.scy
	case addr == RegSCX:
		return m.scx
	case addr == RegLY:
		return m.ly
	case addr == RegLYC:
		return m.lyc
	case addr == RegDMA:
		return m.dma
	case addr == RegBGP:
		return m.bgp
	case addr == RegOBP0:
		return m.obp0
	case addr == RegOBP1:
		return m.obp1
	case addr == RegWY:
		return m.wy
	case addr == RegWX:
		return m.wx
	case addr == RegBOOT:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	case addr == RegIE:
		return 0xE0 | (m.ie & 0x1F)
	default:
		return 0xFF
	}
}

// rawWrite applies structural address-decode rules that hold for every
// port: cartridge/VRAM/OAM/WRAM storage, echo mirroring, and the
// prohibited region. It does NOT apply CPU-only side effects (DIV reset,
// boot-disable latch) or the request-vs-acknowledge distinction on IF —
// callers layer those in.
func (m *Memory) rawWrite(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		m.vram[addr-0x8000] = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		m.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		m.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m.dmaActive {
			return
		}
		m.oam[addr-0xFE00] = value
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// Prohibited: write ignored.
	case addr == RegJOYP:
		m.joypSelect = value & 0x30
	case addr == RegSB:
		m.sb = value
	case addr == RegSC:
		m.sc = value & 0x81
	case addr == RegDIV:
		m.div = value
	case addr == RegTIMA:
		m.tima = value
	case addr == RegTMA:
		m.tma = value
	case addr == RegTAC:
		m.tac = value & 0x07
	case addr == RegIF:
		m.ifReg = value & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		m.apuRegs[addr-0xFF10] = value
	case addr == RegLCDC:
		m.lcdc = value
	case addr == RegSTAT:
		// Full-byte store. The CPU port layers the "mode/coincidence bits
		// are read-only to software" rule on top; the PPU port relies on
		// this raw form to publish its own mode and LYC=LY flag.
		m.stat = value
	case addr == RegSCY:
		m.scy = value
	case addr == RegSCX:
		m.scx = value
	case addr == RegLY:
		// Raw store. The CPU port ignores writes here — LY is driven
		// exclusively by the PPU's own line counter — but the PPU port
		// needs a real setter to advance it, so the shared decode table
		// stores whatever it's given.
		m.ly = value
	case addr == RegLYC:
		m.lyc = value
	case addr == RegDMA:
		m.dma = value
		m.dmaActive = true
		m.dmaSrc = uint16(value) << 8
		m.dmaIndex = 0
	case addr == RegBGP:
		m.bgp = value
	case addr == RegOBP0:
		m.obp0 = value
	case addr == RegOBP1:
		m.obp1 = value
	case addr == RegWY:
		m.wy = value
	case addr == RegWX:
		m.wx = value
	case addr == RegBOOT:
		// Handled by the CPU port (the only port expected to write it);
		// a raw write here is a no-op latch-less store so other ports
		// writing it (e.g. the audit port, for test setup) can still
		// flip the overlay off.
		if value != 0 {
			m.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		m.hram[addr-0xFF80] = value
	case addr == RegIE:
		m.ie = value & 0x1F
	}
}

// readJoyp computes the JOYP byte: bits 7–6 read as 1, bits 5–4 echo the
// last selection write, and bits 3–0 are active-low for whichever of the
// D-pad/buttons groups is selected.
func (m *Memory) readJoyp() byte {
	res := byte(0xC0 | (m.joypSelect & 0x30) | 0x0F)
	if (m.joypSelect & 0x10) == 0 { // P14 low selects D-pad
		if m.joypState&ButtonRight != 0 {
			res &^= 0x01
		}
		if m.joypState&ButtonLeft != 0 {
			res &^= 0x02
		}
		if m.joypState&ButtonUp != 0 {
			res &^= 0x04
		}
		if m.joypState&ButtonDown != 0 {
			res &^= 0x08
		}
	}
	if (m.joypSelect & 0x20) == 0 { // P15 low selects buttons
		if m.joypState&ButtonA != 0 {
			res &^= 0x01
		}
		if m.joypState&ButtonB != 0 {
			res &^= 0x02
		}
		if m.joypState&ButtonSelect != 0 {
			res &^= 0x04
		}
		if m.joypState&ButtonStart != 0 {
			res &^= 0x08
		}
	}
	return res
}

// AdvanceDMA copies one byte of an in-flight OAM DMA transfer, if any. The
// Scheduler calls this once per M-cycle alongside Timer/CPU stepping; OAM
// DMA is layered on top of the regular tick order, not a replacement for it.
func (m *Memory) AdvanceDMA() {
	if !m.dmaActive {
		return
	}
	if m.dmaIndex < 0xA0 {
		v := m.rawRead(m.dmaSrc + uint16(m.dmaIndex))
		m.oam[m.dmaIndex] = v
		m.dmaIndex++
	}
	if m.dmaIndex >= 0xA0 {
		m.dmaActive = false
	}
}

type cpuPort struct{ m *Memory }

func (p cpuPort) Read(addr uint16) byte { return p.m.readWithBootOverlay(addr) }

func (p cpuPort) Write(addr uint16, value byte) {
	switch addr {
	case RegDIV:
		// Any write resets the underlying byte to 0, regardless of the
		// value written — real DIV hardware behavior.
		p.m.div = 0
	case RegBOOT:
		p.m.bootEnabled = false
	case RegSTAT:
		// Mode (bits 0–1) and the LYC=LY flag (bit 2) are PPU-driven and
		// read-only to software; only the interrupt-enable bits (3–6)
		// are writable from the CPU side.
		p.m.stat = (p.m.stat & 0x07) | (value & 0x78)
	case RegLY:
		// Software cannot reset the line counter; PPU writes go through
		// the PPU port's raw path instead.
	default:
		p.m.rawWrite(addr, value)
	}
}

type timerPort struct{ m *Memory }

func (p timerPort) Read(addr uint16) byte { return p.m.rawRead(addr) }

func (p timerPort) Write(addr uint16, value byte) {
	if addr == RegIF {
		p.m.ifReg |= value & 0x1F
		return
	}
	p.m.rawWrite(addr, value)
}

type ppuPort struct{ m *Memory }

func (p ppuPort) Read(addr uint16) byte { return p.m.rawRead(addr) }

func (p ppuPort) Write(addr uint16, value byte) {
	if addr == RegIF {
		p.m.ifReg |= value & 0x1F
		return
	}
	p.m.rawWrite(addr, value)
}

type auditPort struct{ m *Memory }

func (p auditPort) Read(addr uint16) byte  { return p.m.readWithBootOverlay(addr) }
func (p auditPort) Write(addr uint16, value byte) { p.m.rawWrite(addr, value) }
