package cart

// MBC3 is a register-latching stub for the MBC3 banking/RTC chip.
// As with MBC1, actual ROM/RAM bank switching and the real-time-clock
// registers are deliberately not implemented — cartridge-MBC banking
// behavior is an external collaborator concern this core only defines
// the registers for. Writes to the four control regions are latched, but
// the latched values are never read back: reads always see the
// cartridge image as loaded.
//
// Control regions:
//   - 0000-1FFF: RAM/RTC enable (0x0A in the low nibble)
//   - 2000-3FFF: ROM bank number, low 7 bits (0 maps to 1 on real hardware)
//   - 4000-5FFF: RAM bank (0-3) or RTC register select (0x08-0x0C)
//   - 6000-7FFF: RTC latch trigger (0 then 1)
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBankSel byte
	bankOrRTC  byte
	latch      byte
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.readRAM(addr)
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBankSel = v
	case addr < 0x6000:
		m.bankOrRTC = value
	case addr < 0x8000:
		m.latch = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.writeRAM(addr, value)
	}
}

func (m *MBC3) readRAM(addr uint16) byte {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0xFF
	}
	off := int(addr - 0xA000)
	if off < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC3) writeRAM(addr uint16, value byte) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return
	}
	off := int(addr - 0xA000)
	if off < len(m.ram) {
		m.ram[off] = value
	}
}

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}
