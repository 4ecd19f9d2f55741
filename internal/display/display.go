// Package display is a minimal ebiten-backed presenter: it blits the PPU's
// 160x144 palette-index frame buffer through the BGP palette once per
// ebiten draw, reading BGP via the Gameboy's audit port and the frame
// buffer via PPU.Frame(), so it never participates in the core's mutating
// side effects. The actual
// pixel-renderer front-end is deliberately kept out of the emulation
// core; this package exists only as a read-only consumer of it.
package display

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/fennegan-labs/gbcore/internal/gameboy"
	"github.com/fennegan-labs/gbcore/internal/gbmem"
)

const (
	screenW = 160
	screenH = 144
)

// shades is the classic DMG 4-tone green-gray palette, indexed by a BGP
// shade (0..3) after the palette register remaps a raw color index.
var shades = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// App is an ebiten.Game that presents a running Gameboy's frame buffer.
type App struct {
	gb    *gameboy.Gameboy
	scale int
	tex   *ebiten.Image
	rgba  []byte // screenW*screenH*4, re-filled and uploaded each Draw

	debugKeyToggled bool
	pace            bool
}

// New constructs a presenter for gb, scaling the 160x144 DMG screen by
// scale on-window.
func New(gb *gameboy.Gameboy, scale int, pace bool) *App {
	if scale < 1 {
		scale = 1
	}
	return &App{
		gb:    gb,
		scale: scale,
		tex:   ebiten.NewImage(screenW, screenH),
		rgba:  make([]byte, screenW*screenH*4),
		pace:  pace,
	}
}

// Update advances emulation by roughly one frame's worth of M-cycles and
// handles the single REPL-vs-window toggle key.
func (a *App) Update() error {
	const mcyclesPerFrame = 70224 / 4
	for i := 0; i < mcyclesPerFrame; i++ {
		if a.gb.CPU.Fault != nil {
			break
		}
		a.gb.Cycle()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.debugKeyToggled = !a.debugKeyToggled
	}
	return nil
}

// Draw blits the PPU's current palette-index buffer through BGP.
func (a *App) Draw(screen *ebiten.Image) {
	audit := a.gb.Mem.AuditPort()
	bgp := audit.Read(gbmem.RegBGP)
	fillRGBA(a.rgba, a.gb.PPU.Frame(), bgp)
	a.tex.WritePixels(a.rgba)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.scale), float64(a.scale))
	screen.DrawImage(a.tex, op)
}

// fillRGBA remaps a palette-index frame through BGP into a tightly packed
// RGBA buffer suitable for ebiten.Image.WritePixels. Kept free of the
// ebiten.Image type so it can be exercised without a graphics context.
func fillRGBA(dst []byte, frame *[screenH][screenW]byte, bgp byte) {
	for y := 0; y < screenH; y++ {
		for x := 0; x < screenW; x++ {
			ci := frame[y][x] & 0x03
			shade := (bgp >> (ci * 2)) & 0x03
			c := shades[shade]
			i := (y*screenW + x) * 4
			dst[i+0] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}
}

// Layout reports the fixed window size.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW * a.scale, screenH * a.scale
}

// DebugRequested reports whether the player asked to switch to the REPL
// debugger this tick.
func (a *App) DebugRequested() bool { return a.debugKeyToggled }

// Run opens the ebiten window and blocks until it's closed.
func Run(a *App, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(screenW*a.scale, screenH*a.scale)
	return ebiten.RunGame(a)
}
