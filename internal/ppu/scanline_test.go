package ppu

import "testing"

func TestRenderBackgroundScanlineAppliesSCXSkipThenWrapsTiles(t *testing.T) {
	mapBase := uint16(0x9800)
	mem := mockVRAM{}
	const rowInTile = byte(0)
	for tile := 0; tile < 32; tile++ {
		mem[mapBase+uint16(tile)] = byte(tile)
		rowAddr := uint16(0x8000+tile*16) + uint16(rowInTile)*2
		mem[rowAddr] = byte(tile)
		mem[rowAddr+1] = ^byte(tile)
	}

	// scx=5 discards the first 5 pixels of tile 0; the remaining 3 plus a
	// full tile1 row should fill the first 11 output columns.
	out := RenderBackgroundScanline(mem, mapBase, true, 5, 0, 0)

	lo0, hi0 := byte(0), ^byte(0)
	for i := 0; i < 3; i++ {
		b := 2 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[i] != want {
			t.Fatalf("column %d got %d want %d", i, out[i], want)
		}
	}
	lo1, hi1 := byte(1), ^byte(1)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[3+i] != want {
			t.Fatalf("tile1 column %d got %d want %d", i, out[3+i], want)
		}
	}
}

func TestRenderBackgroundScanlineFoldsScrollYIntoMapRow(t *testing.T) {
	// ly=0, scy=11 -> bgY=11 selects map row 1 (tiles 32..63) at row-in-tile 3.
	mapBase := uint16(0x9800)
	mem := mockVRAM{}
	const rowInTile = byte(3)
	mem[mapBase+32+0] = 0
	mem[mapBase+32+1] = 1
	tile0Row := uint16(0x8000+0*16) + uint16(rowInTile)*2
	mem[tile0Row] = 0x12
	mem[tile0Row+1] = 0x34
	tile1Row := uint16(0x8000+1*16) + uint16(rowInTile)*2
	mem[tile1Row] = 0x56
	mem[tile1Row+1] = 0x78

	out := RenderBackgroundScanline(mem, mapBase, true, 0, 11, 0)

	lo0, hi0 := byte(0x12), byte(0x34)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[i] != want {
			t.Fatalf("tile0 column %d got %d want %d", i, out[i], want)
		}
	}
	lo1, hi1 := byte(0x56), byte(0x78)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[8+i] != want {
			t.Fatalf("tile1 column %d got %d want %d", i, out[8+i], want)
		}
	}
}
