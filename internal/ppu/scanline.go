package ppu

// RenderBackgroundScanline produces 160 BG color indices for scanline ly
// by walking the tile map a row at a time through a tileFetcher, the way
// the real PPU's pixel pipeline drains a FIFO and re-fetches on empty.
//
//   - mem: VRAM access (live PPU or a test double)
//   - mapBase: 0x9800 or 0x9C00, selects which of the two tile maps
//   - use8000Addr: tile data addressing mode (LCDC bit 4)
//   - scx, scy: background scroll registers
//   - ly: the scanline being drawn (0..143)
func RenderBackgroundScanline(mem VRAMReader, mapBase uint16, use8000Addr bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	bgY := uint16(ly) + uint16(scy)
	rowInTile := byte(bgY & 7)
	mapRow := (bgY >> 3) & 31

	scrollStartX := uint16(scx)
	mapCol := (scrollStartX >> 3) & 31
	skipPixels := int(scrollStartX & 7)

	var fifo pixelFIFO
	fetch := newTileFetcher(mem, &fifo)
	nextTile := func() {
		fetch.Configure(mapBase+mapRow*32+mapCol, use8000Addr, rowInTile)
		fetch.Fetch()
	}

	nextTile()
	for i := 0; i < skipPixels; i++ {
		fifo.Pop()
	}

	for x := 0; x < 160; x++ {
		if fifo.Len() == 0 {
			mapCol = (mapCol + 1) & 31
			nextTile()
		}
		out[x], _ = fifo.Pop()
	}
	return out
}

// RenderWindowScanline fills the window layer's color indices for a
// scanline starting at screen column wxStart (the WX-7 conversion is the
// caller's job), using winLine as the window's own internal line counter.
// Columns left of wxStart stay 0 so the caller can blend window over BG.
func RenderWindowScanline(mem VRAMReader, mapBase uint16, use8000Addr bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}

	mapRow := (uint16(winLine) >> 3) & 31
	rowInTile := winLine & 7
	mapCol := uint16(0)

	var fifo pixelFIFO
	fetch := newTileFetcher(mem, &fifo)
	nextTile := func() {
		fetch.Configure(mapBase+mapRow*32+mapCol, use8000Addr, rowInTile)
		fetch.Fetch()
	}

	nextTile()
	for x := wxStart; x < 160; x++ {
		if fifo.Len() == 0 {
			mapCol = (mapCol + 1) & 31
			nextTile()
		}
		out[x], _ = fifo.Pop()
	}
	return out
}
