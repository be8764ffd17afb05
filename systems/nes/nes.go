// Package nes wires the representative NES-shaped peripherals
// (internal/apu, internal/ppu, internal/mapper) into a runnable
// machine.Description. The 6502 decoder itself is out of scope (spec.md
// §1), so the CPU slot is a controller.StubCpu advancing cycles without
// instruction semantics: this system exercises the bus/scheduler/
// controller contract end to end rather than claiming cycle-exact NES
// emulation.
package nes

import (
	"fmt"

	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/internal/apu"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/joypad"
	"github.com/intuitionamiga/emux/internal/machine"
	"github.com/intuitionamiga/emux/internal/mapper"
	"github.com/intuitionamiga/emux/internal/ppu"
)

const (
	cpuBus = "cpu"
	ppuBus = "ppu"

	stubCpuCyclesPerStep = 1 // NTSC NES CPU runs one cycle at a time
	stubCpuRateHz        = apu.NTSCCPUHz
)

// MapperKind selects which cartridge mapper the ROM uses.
type MapperKind int

const (
	MapperMMC1 MapperKind = iota
	MapperMMC3
)

// Cartridge describes the ROM image backing a machine.
type Cartridge struct {
	PRGROM  []byte
	CHRROM  []byte // empty selects 8KB CHR RAM for MMC1 carts
	Mapper  MapperKind
	Battery *mapper.BatteryBackedRAM // nil for carts with no save RAM
}

// Build assembles a Description plus its registry for cart, wiring the
// APU to audioSink, the PPU to videoSink, and the joypad latch to
// inputBackend. Both sinks are the frontend.AudioBackend/VideoOutput
// contracts (or their headless test doubles), structurally satisfying
// apu.Sink/ppu.Sink.
func Build(cart Cartridge, audioSink apu.Sink, videoSink ppu.Sink, inputBackend frontend.InputBackend) (*machine.Machine, machine.Description, error) {
	registry := controller.NewRegistry()
	mach := machine.New(registry, false)

	cpuRead := func(addr uint16) uint8 { return mach.Fabric.ReadB(cpuBus, uint32(addr)) }

	apuInst := apu.New(cpuRead, audioSink)
	ppuInst := ppu.New(videoSink)
	cpu := controller.NewStubCpu(stubCpuCyclesPerStep, stubCpuRateHz)
	padInst := joypad.NewNESController(inputBackend, joypad.DefaultNESBindings())

	var mapperCtrl controller.Controller
	switch cart.Mapper {
	case MapperMMC1:
		mapperCtrl = mapper.NewMMC1(cart.PRGROM, cart.CHRROM, len(cart.CHRROM) == 0, cart.Battery, cpuBus, ppuBus)
	case MapperMMC3:
		mapperCtrl = mapper.NewMMC3(cart.PRGROM, cart.CHRROM, cart.Battery)
	default:
		return nil, machine.Description{}, fmt.Errorf("systems/nes: unknown mapper kind %d", cart.Mapper)
	}

	registry.Register("apu", func() controller.Controller { return apuInst })
	registry.Register("ppu", func() controller.Controller { return ppuInst })
	registry.Register("mapper", func() controller.Controller { return mapperCtrl })
	registry.Register("cpu", func() controller.Controller { return cpu })
	registry.Register("joypad", func() controller.Controller { return padInst })

	desc := machine.Description{
		Name: "nes",
		Components: []machine.ComponentSpec{
			{
				Name: "mapper", Instance: "mapper", BusID: cpuBus,
				Resources: mapperResources(cart),
			},
			{
				Name: "apu", Instance: "apu", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "apu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x4000, End: 0x4017}},
				},
			},
			{
				Name: "ppu", Instance: "ppu", BusID: ppuBus,
				Resources: bus.Resources{
					{Name: "ppu-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x2000, End: 0x2007}},
				},
			},
			{
				Name: "joypad", Instance: "joypad", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "joypad-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x4016, End: 0x4017}},
				},
			},
			{Name: "cpu", Instance: "cpu", BusID: cpuBus},
		},
	}
	return mach, desc, nil
}

func mapperResources(cart Cartridge) bus.Resources {
	res := bus.Resources{
		{Name: "prg-rom-window", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x8000, End: 0xFFFF}},
		{Name: "chr-window", Kind: bus.KindMem, BusID: ppuBus, Range: bus.Range{Start: 0x0000, End: 0x1FFF}},
	}
	if cart.Battery != nil {
		res = append(res, bus.Resource{Name: "prg-ram", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x6000, End: 0x7FFF}})
	}
	return res
}
