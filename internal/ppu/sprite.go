package ppu

import "sort"

// Sprite is one OAM entry already translated into screen coordinates
// (Y-16, X-8), as hardware defines them.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// ScanOAM walks the 40 OAM entries via mem and returns the sprites that
// intersect scanline ly, capped at ten the way real hardware is.
func ScanOAM(mem VRAMReader, ly byte, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	var found []Sprite
	for i := 0; i < 40; i++ {
		base := uint16(0xFE00 + i*4)
		y := int(mem.Read(base)) - 16
		x := int(mem.Read(base+1)) - 8
		tile := mem.Read(base + 2)
		attr := mem.Read(base + 3)
		if int(ly) >= y && int(ly) < y+height {
			found = append(found, Sprite{X: x, Y: y, Tile: tile, Attr: attr, OAMIndex: i})
			if len(found) == 10 {
				break
			}
		}
	}
	return found
}

// ComposeSpriteLine renders the visible sprites for scanline ly into a
// 160-wide color-index row. Priority follows DMG rules: the sprite with
// the smallest X wins a contested pixel, ties broken by OAM index;
// transparent pixels (color index 0) never draw, and a sprite with its
// priority bit set yields to a non-zero background/window pixel.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]byte {
	ordered := make([]Sprite, len(sprites))
	copy(ordered, sprites)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].X != ordered[j].X {
			return ordered[i].X < ordered[j].X
		}
		return ordered[i].OAMIndex < ordered[j].OAMIndex
	})

	height := 8
	if tall {
		height = 16
	}

	var out [160]byte
	var drawn [160]bool
	for _, s := range ordered {
		row := int(ly) - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&0x40 != 0 { // Y flip
			row = height - 1 - row
		}

		tile := s.Tile
		if tall {
			tile &^= 1
			if row >= 8 {
				tile |= 1
				row -= 8
			}
		}

		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		for col := 0; col < 8; col++ {
			bit := 7 - col
			if s.Attr&0x20 != 0 { // X flip
				bit = col
			}
			ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if ci == 0 {
				continue
			}
			screenX := s.X + col
			if screenX < 0 || screenX >= 160 || drawn[screenX] {
				continue
			}
			if s.Attr&0x80 != 0 && bgci[screenX] != 0 {
				continue // behind BG/window
			}
			out[screenX] = ci
			drawn[screenX] = true
		}
	}
	return out
}
