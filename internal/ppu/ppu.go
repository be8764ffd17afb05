package ppu

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// NESPPUHz is the PPU dot clock: three dots per CPU cycle on NTSC.
const NESPPUHz = 5369318

// Sink is the frontend pixel surface (spec.md §6 "Video frontend").
// Lock/Unlock bracket one frame's worth of SetPixel calls.
type Sink interface {
	Lock()
	Unlock()
	SetPixel(x, y int, r, g, b uint8)
	Update()
}

// PPU is the concrete NES-PPU-shaped instance of the event-per-dot
// raster pipeline pattern (spec.md §4.5).
type PPU struct {
	cursor   Cursor
	schedule *Schedule
	handlers Handlers

	sink      Sink
	interrupt func(line int)
	fabric    *bus.Fabric
	busID     string // bus id pattern-table fetches go out on, for CHR mapper regions

	// CPU-visible register state.
	ctrl, mask, status uint8
	oamAddr            uint8
	writeToggle        bool
	vramAddr           uint16 // "v": current VRAM address
	tempAddr           uint16 // "t": temporary VRAM address / scroll latch
	fineX              uint8
	readBuffer         uint8

	vram    [2048]byte
	palette [32]byte
	oam     [256]byte

	// Background shift pipeline.
	ntLatch, atLatch, lowLatch, highLatch uint8
	bgShiftLow, bgShiftHigh               uint16
	atShiftLow, atShiftHigh               uint16
	atLatchBit0, atLatchBit1              uint8
}

const (
	irqLineNMI = 0

	ctrlNMIEnable   = 1 << 7
	statusVBlank    = 1 << 7
	statusSpriteHit = 1 << 6
	statusOverflow  = 1 << 5
)

// New constructs an idle PPU bound to its pixel sink. sink may be nil
// for register-only tests.
func New(sink Sink) *PPU {
	p := &PPU{sink: sink, schedule: buildNESSchedule()}
	p.wireHandlers()
	return p
}

func (p *PPU) wireHandlers() {
	p.handlers = Handlers{
		FetchNT:     p.fetchNT,
		FetchAT:     p.fetchAT,
		FetchLowBG:  p.fetchLowBG,
		FetchHighBG: p.fetchHighBG,
		ReloadBG:    p.reloadShifters,
		ShiftBG:     p.shiftAndEmitPixel,
		VBlankSet:   p.setVBlank,
		VBlankClear: p.clearVBlank,
		IncHori:     p.incrementHori,
		IncVert:     p.incrementVert,
		SetHori:     p.copyHori,
		SetVert:     p.copyVert,
	}
}

// Init implements controller.Controller: registers the dot clock and the
// CPU-visible $2000-$2007-style register window.
func (p *PPU) Init(inst *controller.Instance) error {
	p.interrupt = inst.Interrupt
	p.fabric = inst.Fabric
	p.busID = inst.BusID

	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".dot", RateHz: NESPPUHz,
		Tick: func(ctx *scheduler.TickContext) {
			ctx.Consume(uint64(p.cursor.Advance(p.schedule, &p.handlers, p.renderingEnabled())))
		},
	})

	area, err := inst.Require("ppu-regs", bus.KindMem)
	if err != nil {
		return err
	}
	region := &bus.Region{
		Area: &area,
		Ops: bus.MemOps{
			WriteB: p.writeRegister,
			ReadB:  p.readRegister,
		},
	}
	return inst.Fabric.AddRegion(inst.Name, region)
}

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }

// writeRegister dispatches the eight PPUCTRL..PPUDATA register offsets.
func (p *PPU) writeRegister(offset uint32, v uint8) {
	switch offset & 0x7 {
	case 0:
		p.ctrl = v
		p.tempAddr = (p.tempAddr &^ 0x0C00) | uint16(v&0x03)<<10
	case 1:
		p.mask = v
	case 3:
		p.oamAddr = v
	case 4:
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case 5:
		if !p.writeToggle {
			p.fineX = v & 0x07
			p.tempAddr = (p.tempAddr &^ 0x001F) | uint16(v>>3)
		} else {
			p.tempAddr = (p.tempAddr &^ 0x73E0) | uint16(v&0x07)<<12 | uint16(v&0xF8)<<2
		}
		p.writeToggle = !p.writeToggle
	case 6:
		if !p.writeToggle {
			p.tempAddr = (p.tempAddr &^ 0x7F00) | uint16(v&0x3F)<<8
		} else {
			p.tempAddr = (p.tempAddr &^ 0x00FF) | uint16(v)
			p.vramAddr = p.tempAddr
		}
		p.writeToggle = !p.writeToggle
	case 7:
		p.writeData(v)
		p.advanceVramAddr()
	}
}

func (p *PPU) readRegister(offset uint32) uint8 {
	switch offset & 0x7 {
	case 2:
		v := p.status
		p.status &^= statusVBlank
		p.writeToggle = false
		return v
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		v := p.readBuffer
		p.readBuffer = p.readData()
		if p.vramAddr >= 0x3F00 {
			// Palette reads bypass the read-buffer delay.
			v = p.palette[p.paletteIndex(p.vramAddr)]
		}
		p.advanceVramAddr()
		return v
	}
	return 0
}

func (p *PPU) advanceVramAddr() {
	if p.ctrl&0x04 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
}

func (p *PPU) paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx&0x13 == 0x10 {
		idx &^= 0x10
	}
	return idx
}

// readData/writeData implement PPUDATA's address-space split: pattern
// tables ($0000-$1FFF) go through the bus fabric (so a mapper's CHR
// region can observe the read for A12 edge detection), nametables
// ($2000-$2FFF) hit internal VRAM with horizontal/vertical mirroring,
// and palette RAM ($3F00-$3F1F) is a flat 32-byte array.
func (p *PPU) readData() uint8 {
	addr := p.vramAddr & 0x3FFF
	switch {
	case addr < 0x2000:
		return p.fetchPattern(addr)
	case addr < 0x3F00:
		return p.vram[p.nametableIndex(addr)]
	default:
		return p.palette[p.paletteIndex(addr)]
	}
}

func (p *PPU) writeData(v uint8) {
	addr := p.vramAddr & 0x3FFF
	switch {
	case addr < 0x2000:
		// Pattern-table writes only make sense against CHR RAM; left to
		// the bus fabric's region ops (dropped if the mapper maps ROM).
	case addr < 0x3F00:
		p.vram[p.nametableIndex(addr)] = v
	default:
		p.palette[p.paletteIndex(addr)] = v
	}
}

// nametableIndex folds the logical $2000-$2FFF window onto the 2KB
// internal VRAM array using vertical mirroring (fixed here; horizontal
// and four-screen mirroring are mapper-selected concerns left for a
// future mapper to override via a Mirror field — out of this
// representative instance's scope).
func (p *PPU) nametableIndex(addr uint16) uint16 {
	off := (addr - 0x2000) % 0x1000
	table := off / 0x400
	cell := off % 0x400
	return (table%2)*0x400 + cell
}

// fetchPattern reads one pattern-table byte via the fabric on the PPU's
// own bus id, letting a cartridge mapper's CHR region (RAM or ROM)
// satisfy it and observe the address for A12 edge detection.
func (p *PPU) fetchPattern(addr uint16) uint8 {
	if p.fabric == nil {
		return 0
	}
	return p.fabric.ReadB(p.busID, uint32(addr))
}

func (p *PPU) fetchNT() {
	p.ntLatch = p.vram[p.nametableIndex(0x2000|(p.vramAddr&0x0FFF))]
}

func (p *PPU) fetchAT() {
	v := p.vramAddr
	atAddr := 0x23C0 | (v & 0x0C00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
	p.atLatch = p.vram[p.nametableIndex(atAddr)]
	shift := ((v >> 4) & 4) | (v & 2)
	p.atLatchBit0 = (p.atLatch >> shift) & 1
	p.atLatchBit1 = (p.atLatch >> (shift + 1)) & 1
}

func (p *PPU) patternBase() uint16 {
	if p.ctrl&0x10 != 0 {
		return 0x1000
	}
	return 0
}

func (p *PPU) fetchLowBG() {
	addr := p.patternBase() + uint16(p.ntLatch)*16 + (p.vramAddr>>12)&0x7
	p.lowLatch = p.fetchPattern(addr)
}

func (p *PPU) fetchHighBG() {
	addr := p.patternBase() + uint16(p.ntLatch)*16 + 8 + (p.vramAddr>>12)&0x7
	p.highLatch = p.fetchPattern(addr)
}

func (p *PPU) reloadShifters() {
	p.bgShiftLow = (p.bgShiftLow &^ 0xFF) | uint16(p.lowLatch)
	p.bgShiftHigh = (p.bgShiftHigh &^ 0xFF) | uint16(p.highLatch)
	var lo, hi uint16
	if p.atLatchBit0 != 0 {
		lo = 0xFF
	}
	if p.atLatchBit1 != 0 {
		hi = 0xFF
	}
	p.atShiftLow = (p.atShiftLow &^ 0xFF) | lo
	p.atShiftHigh = (p.atShiftHigh &^ 0xFF) | hi
}

// shiftAndEmitPixel advances the background shift registers by one dot
// and, on visible dots of a visible scanline, emits a pixel.
func (p *PPU) shiftAndEmitPixel() {
	if p.cursor.V < 240 && p.cursor.H >= 1 && p.cursor.H <= 256 && p.sink != nil {
		bit := uint16(0x8000) >> p.fineX
		patLo := 0
		if p.bgShiftLow&bit != 0 {
			patLo = 1
		}
		patHi := 0
		if p.bgShiftHigh&bit != 0 {
			patHi = 2
		}
		palLo := 0
		if p.atShiftLow&bit != 0 {
			palLo = 1
		}
		palHi := 0
		if p.atShiftHigh&bit != 0 {
			palHi = 2
		}
		pattern := patLo + patHi
		palette := palLo + palHi
		var colorIdx uint16
		if pattern == 0 {
			colorIdx = uint16(p.palette[0])
		} else {
			colorIdx = uint16(p.palette[palette*4+pattern])
		}
		r, g, b := nesPalette(colorIdx)
		p.sink.SetPixel(p.cursor.H-1, p.cursor.V, r, g, b)
	}
	p.bgShiftLow <<= 1
	p.bgShiftHigh <<= 1
	p.atShiftLow <<= 1
	p.atShiftHigh <<= 1
}

func (p *PPU) incrementHori() {
	if p.vramAddr&0x001F == 31 {
		p.vramAddr &^= 0x001F
		p.vramAddr ^= 0x0400
	} else {
		p.vramAddr++
	}
}

func (p *PPU) incrementVert() {
	if p.vramAddr&0x7000 != 0x7000 {
		p.vramAddr += 0x1000
		return
	}
	p.vramAddr &^= 0x7000
	y := (p.vramAddr & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.vramAddr ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.vramAddr = (p.vramAddr &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyHori() {
	p.vramAddr = (p.vramAddr &^ 0x041F) | (p.tempAddr & 0x041F)
}

func (p *PPU) copyVert() {
	p.vramAddr = (p.vramAddr &^ 0x7BE0) | (p.tempAddr & 0x7BE0)
}

func (p *PPU) setVBlank() {
	p.status |= statusVBlank
	if p.ctrl&ctrlNMIEnable != 0 && p.interrupt != nil {
		p.interrupt(irqLineNMI)
	}
	if p.sink != nil {
		p.sink.Unlock()
		p.sink.Update()
	}
}

func (p *PPU) clearVBlank() {
	p.status &^= (statusVBlank | statusSpriteHit | statusOverflow)
	if p.sink != nil {
		p.sink.Lock()
	}
}

// CopyOAMDMA copies 256 bytes into OAM starting at the current OAMADDR,
// the way a $4014-style CPU-side DMA register drives this channel. The
// caller (the system's OAM-DMA register) is responsible for charging the
// scheduler the 513/514-cycle stall this takes on real hardware.
func (p *PPU) CopyOAMDMA(data [256]byte) {
	for i := 0; i < 256; i++ {
		p.oam[(int(p.oamAddr)+i)&0xFF] = data[i]
	}
}

// Reset implements controller.Controller.
func (p *PPU) Reset() {
	interrupt := p.interrupt
	sink := p.sink
	fabric := p.fabric
	busID := p.busID
	*p = PPU{sink: sink, schedule: buildNESSchedule(), interrupt: interrupt, fabric: fabric, busID: busID}
	p.wireHandlers()
}

// Deinit implements controller.Controller.
func (p *PPU) Deinit() {}
