// Package gb wires the representative APU/PPU peripherals
// (internal/apu, internal/ppu) into a Game Boy-shaped machine.Description
// at the Game Boy's own register addresses, standing a controller.StubCpu
// in for the SM83 decoder spec.md §1 scopes out. No Game Boy-specific APU
// or PPU exists in this core: both peripherals were built NES-shaped
// (four square/triangle/noise/DMC-pattern channels, a tile-and-sprite
// raster pipeline), so this is a representative reuse of the same
// state machines at a different address map rather than authentic Game
// Boy hardware, the way systems/nes and systems/sms share the identical
// peripherals at theirs.
package gb

import (
	"github.com/intuitionamiga/emux/internal/apu"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/cartridge"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/machine"
	"github.com/intuitionamiga/emux/internal/ppu"
	"github.com/intuitionamiga/emux/internal/timer"
)

const (
	cpuBus = "cpu"
	ppuBus = "ppu"

	timerIrqLine = 2

	stubCpuCyclesPerStep = 1
	stubCpuRateHz        = 4_194_304 // SM83 reference clock
	divRateHz            = 16384     // real DIV increment rate
)

// Cartridge describes the ROM image backing a machine. Game Boy
// cartridges bank-switch through MBC chips this core does not model;
// ROMData and CHRData are mapped as flat, unbanked windows.
type Cartridge struct {
	ROMData []byte
	CHRData []byte
}

// Build assembles a Description plus its registry for cart, wiring the
// APU to audioSink and the PPU to videoSink.
func Build(cart Cartridge, audioSink apu.Sink, videoSink ppu.Sink) (*machine.Machine, machine.Description, error) {
	registry := controller.NewRegistry()
	mach := machine.New(registry, false)

	cpuRead := func(addr uint16) uint8 { return mach.Fabric.ReadB(cpuBus, uint32(addr)) }

	apuInst := apu.New(cpuRead, audioSink)
	ppuInst := ppu.New(videoSink)
	romCart := cartridge.NewStaticROM(cart.ROMData, cart.CHRData, cpuBus, ppuBus)
	cpu := controller.NewStubCpu(stubCpuCyclesPerStep, stubCpuRateHz)
	tmr := timer.New(timerIrqLine)

	registry.Register("apu", func() controller.Controller { return apuInst })
	registry.Register("ppu", func() controller.Controller { return ppuInst })
	registry.Register("cart", func() controller.Controller { return romCart })
	registry.Register("cpu", func() controller.Controller { return cpu })
	registry.Register("timer", func() controller.Controller { return tmr })

	desc := machine.Description{
		Name: "gb",
		Components: []machine.ComponentSpec{
			{
				Name: "cart", Instance: "cart", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "rom-window", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x0000, End: 0x7FFF}},
					{Name: "chr-window", Kind: bus.KindMem, BusID: ppuBus, Range: bus.Range{Start: 0x8000, End: 0x97FF}},
				},
			},
			{
				Name: "apu", Instance: "apu", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "apu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0xFF10, End: 0xFF3F}},
				},
			},
			{
				Name: "ppu", Instance: "ppu", BusID: ppuBus,
				Resources: bus.Resources{
					{Name: "ppu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0xFF40, End: 0xFF4B}},
				},
			},
			{
				Name: "timer", Instance: "timer", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "timer-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0xFF04, End: 0xFF07}},
					{Name: "div-clk", Kind: bus.KindClk, RateHz: divRateHz},
					{Name: "tima-clk", Kind: bus.KindClk, RateHz: stubCpuRateHz},
				},
			},
			{Name: "cpu", Instance: "cpu", BusID: cpuBus},
		},
	}
	return mach, desc, nil
}
