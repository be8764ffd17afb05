package mapper

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

const mmc3IrqLine = 4

// MMC3 is the bank-select/bank-data cartridge mapper with a
// scanline-timed IRQ counter clocked by CHR-address bit 12 rising
// edges. Because the PPU routes every pattern-table fetch through the
// shared bus fabric (internal/ppu's fetchPattern uses fabric.ReadB
// rather than an internal array), this mapper's CHR region handler sees
// every such fetch and can drive its own IRQ logic from inside that
// same bus access — the re-entrant pattern spec.md §4.3 describes ("a
// region callback may itself trigger effects against other regions").
type MMC3 struct {
	prgROM []byte
	chrROM []byte
	prgRAM *BatteryBackedRAM

	bankSelect uint8
	bankData   [8]uint8
	prgRamProtect uint8

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	lastA12    bool

	interrupt func(line int)
}

// NewMMC3 constructs an MMC3 mapper over the given PRG/CHR ROM images.
func NewMMC3(prgROM, chrROM []byte, prgRAM *BatteryBackedRAM) *MMC3 {
	return &MMC3{prgROM: prgROM, chrROM: chrROM, prgRAM: prgRAM}
}

func (m *MMC3) Init(inst *controller.Instance) error {
	m.interrupt = inst.Interrupt

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
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &prgArea,
		Ops:  bus.MemOps{ReadB: m.readPRG, WriteB: m.writeRegister},
	}); err != nil {
		return err
	}

	chrArea, err := inst.Require("chr-window", bus.KindMem)
	if err != nil {
		return err
	}
	return inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &chrArea,
		Ops:  bus.MemOps{ReadB: m.readCHR},
	})
}

// writeRegister dispatches $8000-$FFFF writes by even/odd address and
// the $8000-$9FFF/$A000-$BFFF/$C000-$DFFF/$E000-$FFFF quadrant, the
// standard MMC3 register layout.
func (m *MMC3) writeRegister(off uint32, v uint8) {
	addr := 0x8000 + off
	even := addr&1 == 0
	switch {
	case addr < 0xA000:
		if even {
			m.bankSelect = v
		} else {
			m.bankData[m.bankSelect&0x7] = v
		}
	case addr < 0xC000:
		if !even {
			m.prgRamProtect = v
		}
		// mirroring register (even) not modeled: this core drives a
		// single PPU nametable layout, not swappable at runtime.
	case addr < 0xE000:
		if even {
			m.irqLatch = v
		} else {
			m.irqReload = true
		}
	default:
		if even {
			m.irqEnabled = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *MMC3) prgBankSize() uint32 { return 8 * 1024 }

func (m *MMC3) prgOffset(off uint32) uint32 {
	numBanks := uint32(len(m.prgROM)) / m.prgBankSize()
	slot := off / m.prgBankSize()
	within := off % m.prgBankSize()

	swapMode := m.bankSelect&0x40 != 0
	// Slots 0 and 2 swap depending on bankSelect bit 6; slot 1 is always
	// R7; slot 3 is always the fixed last bank.
	var bank uint32
	switch slot {
	case 0:
		if swapMode {
			bank = numBanks - 2
		} else {
			bank = uint32(m.bankData[6])
		}
	case 1:
		bank = uint32(m.bankData[7])
	case 2:
		if swapMode {
			bank = uint32(m.bankData[6])
		} else {
			bank = numBanks - 2
		}
	default:
		bank = numBanks - 1
	}
	return (bank%numBanks)*m.prgBankSize() + within
}

func (m *MMC3) readPRG(off uint32) uint8 {
	idx := m.prgOffset(off)
	if int(idx) >= len(m.prgROM) {
		return 0
	}
	return m.prgROM[idx]
}

func (m *MMC3) chr2KSize() uint32 { return 2 * 1024 }
func (m *MMC3) chr1KSize() uint32 { return 1 * 1024 }

// chrOffset maps a CHR address to a ROM offset using the six 1KB/2KB
// banking registers R0-R5, swapped between the low and high 4KB half
// depending on bankSelect bit 7 (CHR A12 inversion).
func (m *MMC3) chrOffset(addr uint32) uint32 {
	inverted := m.bankSelect&0x80 != 0
	half := addr / 0x1000
	local := addr % 0x1000
	if inverted {
		half ^= 1
	}
	if half == 0 {
		group := local / m.chr2KSize()
		within := local % m.chr2KSize()
		bank := uint32(m.bankData[group]) &^ 1
		return bank*m.chr1KSize() + within
	}
	group := local / m.chr1KSize()
	within := local % m.chr1KSize()
	bank := uint32(m.bankData[2+group])
	return bank*m.chr1KSize() + within
}

func (m *MMC3) readCHR(addr uint32) uint8 {
	m.observeA12(addr)
	idx := m.chrOffset(addr)
	if int(idx) >= len(m.chrROM) {
		return 0
	}
	return m.chrROM[idx]
}

// observeA12 detects a 0->1 transition on CHR address bit 12 and clocks
// the scanline IRQ counter on it, the real MMC3's IRQ trigger.
func (m *MMC3) observeA12(addr uint32) {
	a12 := addr&0x1000 != 0
	if a12 && !m.lastA12 {
		m.clockIRQCounter()
	}
	m.lastA12 = a12
}

func (m *MMC3) clockIRQCounter() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled && m.interrupt != nil {
		m.interrupt(mmc3IrqLine)
	}
}

// IRQCounter exposes the current scanline counter value for tests.
func (m *MMC3) IRQCounter() uint8 { return m.irqCounter }

func (m *MMC3) Reset() {
	m.bankSelect = 0
	m.bankData = [8]uint8{}
	m.irqLatch, m.irqCounter = 0, 0
	m.irqReload, m.irqEnabled = false, false
	m.lastA12 = false
}

func (m *MMC3) Deinit() {
	if m.prgRAM != nil {
		m.prgRAM.Flush()
	}
}
