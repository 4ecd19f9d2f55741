// Package ppu implements the LCD controller's mode/line state machine and
// a best-effort renderer: OAMSearch → ActivePicture → HBlank per visible
// line, ten full-length VBlank lines, and interrupt raising on the mode
// and LYC=LY transitions the hardware defines. The PPU owns no storage
// of its own — VRAM, OAM, and every LCD register live in gbmem.Memory —
// it drives that state forward through the PPU-facing port.
package ppu

import "github.com/fennegan-labs/gbcore/internal/gbmem"

// Per-line dot budgets, in PPU dots (4 per M-cycle).
const (
	oamSearchDots     = 80
	activePictureDots = 172
	hblankDots        = 204
	dotsPerLine       = oamSearchDots + activePictureDots + hblankDots // 456

	visibleLines = 144
	totalLines   = 154
)

// STAT mode values.
const (
	modeHBlank        = 0
	modeVBlank        = 1
	modeOAMSearch     = 2
	modeActivePicture = 3
)

// Port is the subset of gbmem.Port the PPU drives video state through;
// satisfied by (*gbmem.Memory).PPUPort().
type Port interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// LineRegs is a snapshot of per-line bookkeeping captured when a line
// begins, used by collaborators that want to reconstruct what the window
// layer was doing on a given scanline without re-deriving it.
type LineRegs struct {
	WinLine int
}

// PPU advances the mode/line state machine and renders into an internal
// palette-index framebuffer. Pixel composition (RenderBackgroundScanline,
// RenderWindowScanline, ComposeSpriteLine) is exposed so a
// renderer collaborator can redo it from raw VRAM/OAM bytes too; the
// internal Frame() buffer is a convenience, not the only way to get pixels.
type PPU struct {
	port Port

	dot int

	winLineActive bool
	winLine       int
	lineHistory   [totalLines]LineRegs

	frame [visibleLines][160]byte
}

// New wires a PPU to the Memory's PPU-facing port.
func New(port Port) *PPU {
	p := &PPU{port: port}
	p.captureLineStart(port.Read(gbmem.RegLY))
	return p
}

// Tick advances the PPU by one M-cycle: four dots, the fixed ratio
// between the Scheduler's master tick and the PPU's own clock.
func (p *PPU) Tick() {
	for i := 0; i < 4; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	ly := p.port.Read(gbmem.RegLY)
	p.dot++

	if ly < visibleLines {
		switch p.dot {
		case oamSearchDots:
			p.setMode(modeActivePicture)
		case oamSearchDots + activePictureDots:
			p.setMode(modeHBlank)
			p.renderLine(ly)
		}
	}

	if p.dot < dotsPerLine {
		return
	}
	p.dot = 0

	ly++
	if ly >= totalLines {
		ly = 0
	}
	p.port.Write(gbmem.RegLY, ly)
	p.updateLYC()

	if ly == visibleLines {
		p.setMode(modeVBlank)
		p.requestVBlankIfEnabled()
	} else if ly < visibleLines {
		p.setMode(modeOAMSearch)
		p.captureLineStart(ly)
	}
}

// captureLineStart advances the window's internal line counter and
// records the per-line snapshot collaborators can read back via LineRegs.
func (p *PPU) captureLineStart(ly byte) {
	lcdc := p.port.Read(gbmem.RegLCDC)
	wx := p.port.Read(gbmem.RegWX)
	wy := p.port.Read(gbmem.RegWY)

	windowVisible := lcdc&0x01 != 0 && lcdc&0x20 != 0 && wx < 166 && ly >= wy
	if windowVisible {
		if !p.winLineActive {
			p.winLine = 0
		} else {
			p.winLine++
		}
		p.winLineActive = true
	} else {
		p.winLineActive = false
	}

	p.lineHistory[ly] = LineRegs{WinLine: p.winLine}
}

// LineRegs returns the bookkeeping snapshot captured when line ly began.
func (p *PPU) LineRegs(ly int) LineRegs {
	if ly < 0 || ly >= totalLines {
		return LineRegs{}
	}
	return p.lineHistory[ly]
}

// Frame returns the current palette-index framebuffer. It is the PPU's
// own best-effort render; nothing stops a renderer from re-deriving
// pixels straight from VRAM/OAM via the audit port instead.
func (p *PPU) Frame() *[visibleLines][160]byte { return &p.frame }

func (p *PPU) setMode(mode byte) {
	stat := p.port.Read(gbmem.RegSTAT)
	if stat&0x03 == mode {
		return
	}
	stat = (stat &^ 0x03) | mode
	p.port.Write(gbmem.RegSTAT, stat)

	switch mode {
	case modeHBlank:
		if stat&(1<<3) != 0 {
			p.requestSTAT()
		}
	case modeVBlank:
		if stat&(1<<4) != 0 {
			p.requestSTAT()
		}
	case modeOAMSearch:
		if stat&(1<<5) != 0 {
			p.requestSTAT()
		}
	}
}

func (p *PPU) updateLYC() {
	ly := p.port.Read(gbmem.RegLY)
	lyc := p.port.Read(gbmem.RegLYC)
	stat := p.port.Read(gbmem.RegSTAT)
	if ly == lyc {
		stat |= 1 << 2
		if stat&(1<<6) != 0 {
			p.requestSTAT()
		}
	} else {
		stat &^= 1 << 2
	}
	p.port.Write(gbmem.RegSTAT, stat)
}

func (p *PPU) requestSTAT() { p.port.Write(gbmem.RegIF, 1<<gbmem.IntLCDStat) }

// requestVBlankIfEnabled raises the VBlank interrupt only if IE already
// enables it, at the line-144 HBlank→VBlank transition.
func (p *PPU) requestVBlankIfEnabled() {
	if p.port.Read(gbmem.RegIE)&(1<<gbmem.IntVBlank) != 0 {
		p.port.Write(gbmem.RegIF, 1<<gbmem.IntVBlank)
	}
}

// renderLine fills one row of the framebuffer at the HBlank transition,
// composing BG, window, and sprites the way scanline.go and sprite.go do it.
func (p *PPU) renderLine(ly byte) {
	lcdc := p.port.Read(gbmem.RegLCDC)

	var bg [160]byte
	if lcdc&0x01 != 0 {
		mapBase := uint16(0x9800)
		if lcdc&0x08 != 0 {
			mapBase = 0x9C00
		}
		scx := p.port.Read(gbmem.RegSCX)
		scy := p.port.Read(gbmem.RegSCY)
		bg = RenderBackgroundScanline(p.port, mapBase, lcdc&0x10 != 0, scx, scy, ly)
	}

	if lcdc&0x01 != 0 && lcdc&0x20 != 0 {
		wx := int(p.port.Read(gbmem.RegWX)) - 7
		if wx < 166-7 {
			winMapBase := uint16(0x9800)
			if lcdc&0x40 != 0 {
				winMapBase = 0x9C00
			}
			lr := p.LineRegs(int(ly))
			win := RenderWindowScanline(p.port, winMapBase, lcdc&0x10 != 0, wx, byte(lr.WinLine))
			for x := wx; x < 160; x++ {
				if x < 0 {
					continue
				}
				bg[x] = win[x]
			}
		}
	}

	if lcdc&0x02 != 0 {
		tall := lcdc&0x04 != 0
		sprites := ScanOAM(p.port, ly, tall)
		sprOut := ComposeSpriteLine(p.port, sprites, ly, bg, tall)
		for x := 0; x < 160; x++ {
			if sprOut[x] != 0 {
				bg[x] = sprOut[x]
			}
		}
	}

	p.frame[ly] = bg
}
