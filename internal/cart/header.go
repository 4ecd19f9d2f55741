package cart

import (
	"encoding/binary"
	"errors"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

// nintendoLogo is the 48-byte bitmap every licensed ROM carries at
// 0x0104-0x0133; the original boot ROM refused to run a cartridge whose
// copy didn't match.
var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// romSizeEntry pairs a ROM-size code with the byte count and bank count it
// decodes to.
type romSizeEntry struct {
	bytes int
	banks int
}

var romSizeTable = map[byte]romSizeEntry{
	0x00: {32 * 1024, 2},
	0x01: {64 * 1024, 4},
	0x02: {128 * 1024, 8},
	0x03: {256 * 1024, 16},
	0x04: {512 * 1024, 32},
	0x05: {1 * 1024 * 1024, 64},
	0x06: {2 * 1024 * 1024, 128},
	0x07: {4 * 1024 * 1024, 256},
	0x08: {8 * 1024 * 1024, 512},
	0x52: {1152 * 1024, 72},
	0x53: {1280 * 1024, 80},
	0x54: {1536 * 1024, 96},
}

var ramSizeTable = map[byte]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// cartTypeGroups maps a run of adjacent cartridge-type codes to the family
// name reported in logs; codes not covered fall through to "Other/unknown".
var cartTypeGroups = []struct {
	lo, hi byte
	name   string
}{
	{0x00, 0x00, "ROM ONLY"},
	{0x01, 0x03, "MBC1 (variants)"},
	{0x05, 0x06, "MBC2 (variants)"},
	{0x0F, 0x13, "MBC3 (variants)"},
	{0x19, 0x1E, "MBC5 (variants)"},
}

// Header is the parsed content of the 0x0100-0x014F cartridge header.
type Header struct {
	Title          string // trimmed ASCII
	CGBFlag        byte   // 0x0143
	NewLicensee    string // 0x0144-0x0145 (ASCII), meaningful only if OldLicensee==0x33
	SGBFlag        byte   // 0x0146
	CartType       byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	Destination    byte   // 0x014A
	OldLicensee    byte   // 0x014B
	ROMVersion     byte   // 0x014C
	HeaderChecksum byte   // 0x014D
	GlobalChecksum uint16 // 0x014E-0x014F

	// Decoded convenience fields, used for logging and cartridge selection.
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// ParseHeader reads the fixed-layout cartridge header out of rom. The
// Nintendo logo is not enforced — homebrew and test ROMs routinely omit it
// and real hardware only used it as a copy-protection gate, not a data
// dependency for anything this core emulates.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}

	rawTitle := rom[0x0134:0x0144]
	title := strings.TrimRight(string(rawTitle), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	h.CartTypeStr = cartTypeString(h.CartType)

	return h, nil
}

// HeaderChecksumOK recomputes the 0x014D checksum over 0x0134-0x014C and
// reports whether it matches the stored value.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

func decodeROMSize(code byte) (size, banks int) {
	if e, ok := romSizeTable[code]; ok {
		return e.bytes, e.banks
	}
	return 0, 0
}

func decodeRAMSize(code byte) int {
	return ramSizeTable[code]
}

func cartTypeString(code byte) string {
	for _, g := range cartTypeGroups {
		if code >= g.lo && code <= g.hi {
			return g.name
		}
	}
	return "Other/unknown"
}
