package ppu

import "testing"

func TestRenderWindowScanlineStartsAtWXAndWalksTiles(t *testing.T) {
	mem := mockVRAM{}
	windowMap := uint16(0x9800)
	mem[windowMap+0] = 0
	mem[windowMap+1] = 1

	rowInTile := byte(2)
	tile0Row := uint16(0x8000) + 0*16 + uint16(rowInTile)*2
	mem[tile0Row] = 0xAA
	mem[tile0Row+1] = 0x0F
	tile1Row := uint16(0x8000) + 1*16 + uint16(rowInTile)*2
	mem[tile1Row] = 0x55
	mem[tile1Row+1] = 0xF0

	const wxStart = 20
	out := RenderWindowScanline(mem, windowMap, true, wxStart, rowInTile)

	for x := 0; x < wxStart; x++ {
		if out[x] != 0 {
			t.Fatalf("column %d before WX should be blank, got %d", x, out[x])
		}
	}

	lo0, hi0 := byte(0xAA), byte(0x0F)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[wxStart+i] != want {
			t.Fatalf("tile0 column %d got %d want %d", i, out[wxStart+i], want)
		}
	}

	lo1, hi1 := byte(0x55), byte(0xF0)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[wxStart+8+i] != want {
			t.Fatalf("tile1 column %d got %d want %d", i, out[wxStart+8+i], want)
		}
	}
}
