package ppu

import "testing"

func TestComposeSpriteLineRespectsPriorityAndTransparency(t *testing.T) {
	mem := mockVRAM{}
	tileBase := uint16(0x8000)
	mem[tileBase+0] = 0x80 // single opaque pixel at screen column 0 of the tile
	mem[tileBase+1] = 0x00

	sprites := []Sprite{{X: 10, Y: 5, Tile: 0, Attr: 0, OAMIndex: 0}}
	var bgLine [160]byte

	out := ComposeSpriteLine(mem, sprites, 5, bgLine, false)
	if out[10] == 0 {
		t.Fatalf("expected sprite pixel at x=10")
	}

	sprites[0].Attr = 1 << 7 // behind-BG priority bit
	bgLine[10] = 1
	out = ComposeSpriteLine(mem, sprites, 5, bgLine, false)
	if out[10] != 0 {
		t.Fatalf("expected sprite pixel to be hidden behind a non-zero BG pixel")
	}
}

func TestComposeSpriteLineBreaksOverlapTiesByX(t *testing.T) {
	mem := mockVRAM{}
	tileBase := uint16(0x8000)
	mem[tileBase+0] = 0xFF // fully opaque row
	mem[tileBase+1] = 0x00

	left := Sprite{X: 19, Y: 0, Tile: 0, Attr: 0, OAMIndex: 5}
	right := Sprite{X: 20, Y: 0, Tile: 0, Attr: 0, OAMIndex: 3}
	var bgLine [160]byte

	out := ComposeSpriteLine(mem, []Sprite{left, right}, 0, bgLine, false)
	// At screen column 20: left contributes its 2nd pixel, right its 1st;
	// the sprite with the smaller X wins, so left (X=19) draws there even
	// though right has the lower OAM index.
	if out[20] == 0 {
		t.Fatalf("expected a sprite pixel at x=20")
	}
}
