// Package sms wires the representative APU/PPU peripherals
// (internal/apu, internal/ppu) into a Sega Master System-shaped
// machine.Description, standing a controller.StubCpu in for the Z80
// decoder spec.md §1 scopes out. As with systems/gb, no SMS-specific PSG
// or VDP exists in this core: this is the same NES-shaped apu/ppu pair
// reused at a different address map, a representative wiring rather than
// authentic Master System hardware (whose VDP and PSG are genuinely
// port-addressed, not memory-mapped as modeled here).
package sms

import (
	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/internal/apu"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/cartridge"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/joypad"
	"github.com/intuitionamiga/emux/internal/machine"
	"github.com/intuitionamiga/emux/internal/ppu"
)

const (
	cpuBus = "cpu"
	ppuBus = "ppu"

	stubCpuCyclesPerStep = 1
	stubCpuRateHz        = 3_579_545 // NTSC Z80 reference clock
)

// Cartridge describes the ROM image backing a machine. Sega mapper
// chips bank-switch 16KB slots this core does not model; ROMData and
// CHRData are mapped as flat, unbanked windows.
type Cartridge struct {
	ROMData []byte
	CHRData []byte
}

// Build assembles a Description plus its registry for cart, wiring the
// APU to audioSink, the PPU to videoSink, and the joypad ports to
// inputBackend.
func Build(cart Cartridge, audioSink apu.Sink, videoSink ppu.Sink, inputBackend frontend.InputBackend) (*machine.Machine, machine.Description, error) {
	registry := controller.NewRegistry()
	mach := machine.New(registry, false)

	cpuRead := func(addr uint16) uint8 { return mach.Fabric.ReadB(cpuBus, uint32(addr)) }

	apuInst := apu.New(cpuRead, audioSink)
	ppuInst := ppu.New(videoSink)
	romCart := cartridge.NewStaticROM(cart.ROMData, cart.CHRData, cpuBus, ppuBus)
	cpu := controller.NewStubCpu(stubCpuCyclesPerStep, stubCpuRateHz)
	padInst := joypad.NewSMSController(inputBackend, joypad.DefaultSMSBindings())

	registry.Register("apu", func() controller.Controller { return apuInst })
	registry.Register("ppu", func() controller.Controller { return ppuInst })
	registry.Register("cart", func() controller.Controller { return romCart })
	registry.Register("cpu", func() controller.Controller { return cpu })
	registry.Register("joypad", func() controller.Controller { return padInst })

	desc := machine.Description{
		Name: "sms",
		Components: []machine.ComponentSpec{
			{
				Name: "cart", Instance: "cart", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "rom-window", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x0000, End: 0xBFFF}},
					{Name: "chr-window", Kind: bus.KindMem, BusID: ppuBus, Range: bus.Range{Start: 0x0000, End: 0x3FFF}},
				},
			},
			{
				Name: "apu", Instance: "apu", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "apu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0xC000, End: 0xC00F}},
				},
			},
			{
				Name: "ppu", Instance: "ppu", BusID: ppuBus,
				Resources: bus.Resources{
					{Name: "ppu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0xC010, End: 0xC01F}},
				},
			},
			{
				Name: "joypad", Instance: "joypad", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "joypad-io-port", Kind: bus.KindPort, Range: bus.Range{Start: 0xDC, End: 0xDD}},
					{Name: "joypad-ctl-port", Kind: bus.KindPort, Range: bus.Range{Start: 0x3E, End: 0x3F}},
				},
			},
			{Name: "cpu", Instance: "cpu", BusID: cpuBus},
		},
	}
	return mach, desc, nil
}
