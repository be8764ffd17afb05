package mapper

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

const (
	mmc1PrgBankSize = 16 * 1024
	mmc1ChrBankSize = 4 * 1024
)

// MMC1 is the serial-shift-register cartridge mapper: every CPU write to
// $8000-$FFFF feeds one bit into a 5-bit shift register; on the fifth
// write the accumulated value latches into one of four target registers
// selected by the address's bank-select bits, and the shift register
// resets for the next command. A write with bit 7 set resets the shift
// register immediately regardless of how many bits had accumulated.
type MMC1 struct {
	prgROM []byte
	chrROM []byte // CHR RAM if the cartridge has no CHR ROM
	chrIsRAM bool
	prgRAM *BatteryBackedRAM

	shift      uint8
	shiftCount int

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	cpuBusID string
	ppuBusID string
}

// NewMMC1 constructs an MMC1 mapper over the given PRG/CHR ROM images.
// chrIsRAM selects writable CHR banking (carts with no CHR ROM use 8KB
// of CHR RAM instead). prgRAM may be nil for carts without battery RAM.
func NewMMC1(prgROM, chrROM []byte, chrIsRAM bool, prgRAM *BatteryBackedRAM, cpuBusID, ppuBusID string) *MMC1 {
	return &MMC1{
		prgROM: prgROM, chrROM: chrROM, chrIsRAM: chrIsRAM, prgRAM: prgRAM,
		control: 0x0C, // power-on state: PRG mode 3 (fix last bank at $C000)
		cpuBusID: cpuBusID, ppuBusID: ppuBusID,
	}
}

// Init implements controller.Controller: registers the PRG RAM, PRG ROM
// and CHR windows against the fabric.
func (m *MMC1) Init(inst *controller.Instance) error {
	if area, err := inst.Require("prg-ram", bus.KindMem); err == nil {
		if m.prgRAM == nil {
			m.prgRAM = NewBatteryBackedRAM(nil, "", int(area.Range.Size()))
		}
		if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
			Area: &area,
			Ops:  bus.MemOps{ReadB: m.prgRAM.ReadB, WriteB: m.prgRAM.WriteB},
		}); err != nil {
			return err
		}
	}

	prgArea, err := inst.Require("prg-rom-window", bus.KindMem)
	if err != nil {
		return err
	}
	m.cpuBusID = prgArea.BusID
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &prgArea,
		Ops:  bus.MemOps{ReadB: m.readPRG, WriteB: m.writeShift},
	}); err != nil {
		return err
	}

	chrArea, err := inst.Require("chr-window", bus.KindMem)
	if err != nil {
		return err
	}
	m.ppuBusID = chrArea.BusID
	chrOps := bus.MemOps{ReadB: m.readCHR}
	if m.chrIsRAM {
		chrOps.WriteB = m.writeCHR
	}
	return inst.Fabric.AddRegion(inst.Name, &bus.Region{Area: &chrArea, Ops: chrOps})
}

// writeShift implements the serial command-decode protocol. off is the
// offset within the $8000-$FFFF window, so the real CPU address is
// 0x8000+off; bits 13-14 of that address pick the target register.
func (m *MMC1) writeShift(off uint32, v uint8) {
	if v&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}
	m.shift |= (v & 1) << uint(m.shiftCount)
	m.shiftCount++
	if m.shiftCount < 5 {
		return
	}
	addr := 0x8000 + off
	switch (addr >> 13) & 0x3 {
	case 0:
		m.control = m.shift
	case 1:
		m.chrBank0 = m.shift
	case 2:
		m.chrBank1 = m.shift
	case 3:
		m.prgBank = m.shift
	}
	m.shift = 0
	m.shiftCount = 0
}

// prgMode returns the control register's PRG banking mode (bits 2-3).
func (m *MMC1) prgMode() uint8 { return (m.control >> 2) & 0x3 }

func (m *MMC1) prgOffset(off uint32) uint32 {
	bank := uint32(m.prgBank & 0x0F)
	numBanks := uint32(len(m.prgROM) / mmc1PrgBankSize)
	switch m.prgMode() {
	case 0, 1:
		base := (bank &^ 1) * mmc1PrgBankSize
		return (base + off) % uint32(len(m.prgROM))
	case 2:
		if off < mmc1PrgBankSize {
			return off
		}
		return bank*mmc1PrgBankSize + (off - mmc1PrgBankSize)
	default: // 3
		if off < mmc1PrgBankSize {
			return bank*mmc1PrgBankSize + off
		}
		last := numBanks - 1
		return last*mmc1PrgBankSize + (off - mmc1PrgBankSize)
	}
}

func (m *MMC1) readPRG(off uint32) uint8 {
	idx := m.prgOffset(off)
	if int(idx) >= len(m.prgROM) {
		return 0
	}
	return m.prgROM[idx]
}

// chrMode reports whether CHR is banked as one 8KB window (false) or two
// independent 4KB windows (true), control register bit 4.
func (m *MMC1) chrMode() bool { return m.control&0x10 != 0 }

func (m *MMC1) chrOffset(off uint32) uint32 {
	if !m.chrMode() {
		base := uint32(m.chrBank0&^1) * mmc1ChrBankSize
		return base + off
	}
	if off < mmc1ChrBankSize {
		return uint32(m.chrBank0)*mmc1ChrBankSize + off
	}
	return uint32(m.chrBank1)*mmc1ChrBankSize + (off - mmc1ChrBankSize)
}

func (m *MMC1) readCHR(off uint32) uint8 {
	idx := m.chrOffset(off)
	if int(idx) >= len(m.chrROM) {
		return 0
	}
	return m.chrROM[idx]
}

func (m *MMC1) writeCHR(off uint32, v uint8) {
	idx := m.chrOffset(off)
	if int(idx) < len(m.chrROM) {
		m.chrROM[idx] = v
	}
}

// ChrBank0 exposes the latched CHR bank 0 register, the value S3 checks.
func (m *MMC1) ChrBank0() uint8 { return m.chrBank0 }

// Reset implements controller.Controller. MMC1 has no bus-visible reset
// line on real hardware; this reinitializes the shift register and
// banking state to the power-on values.
func (m *MMC1) Reset() {
	m.shift, m.shiftCount = 0, 0
	m.control = 0x0C
	m.chrBank0, m.chrBank1, m.prgBank = 0, 0, 0
}

// Deinit implements controller.Controller, flushing battery RAM if any.
func (m *MMC1) Deinit() {
	if m.prgRAM != nil {
		m.prgRAM.Flush()
	}
}
