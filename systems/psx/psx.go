// Package psx wires the SPU/MDEC-pattern DMA FIFO engine (internal/dma)
// and the CD-ROM command engine (internal/cdrom) into a runnable
// machine.Description, standing a controller.StubCpu in for the MIPS
// R3000 decoder spec.md §1 scopes out. Like systems/nes, this exercises
// the bus/scheduler/controller contract end to end rather than claiming
// authentic PSX timing.
package psx

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/cdrom"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/dma"
	"github.com/intuitionamiga/emux/internal/machine"
	"github.com/intuitionamiga/emux/internal/timer"
)

const (
	cpuBus = "cpu"

	dmaFifoWords = 32
	dmaRamWords  = 4096
	dmaIrqLine   = 3
	dmaChannel   = 0

	cpuRamBytes = 64 * 1024

	timerIrqLine = 5

	stubCpuCyclesPerStep = 1
	stubCpuRateHz        = 33_868_800 // PSX R3000 reference clock
)

// Build assembles a Description plus its registry for a disc image,
// binding the CD-ROM command engine to source (nil is valid for tests
// that never issue ReadN/SeekL) and the SPU/MDEC DMA engine to its own
// register, RAM, and channel windows.
func Build(source cdrom.Source) (*machine.Machine, machine.Description, error) {
	registry := controller.NewRegistry()
	mach := machine.New(registry, false)

	dmaEngine := dma.New(dmaFifoWords, dmaRamWords, dmaIrqLine)
	dmaDriver := dma.NewDriver(cpuBus, dmaChannel)
	cdromEngine := cdrom.New(source)
	cpu := controller.NewStubCpu(stubCpuCyclesPerStep, stubCpuRateHz)
	tmr := timer.New(timerIrqLine)

	registry.Register("dma", func() controller.Controller { return dmaEngine })
	registry.Register("drive", func() controller.Controller { return dmaDriver })
	registry.Register("cdrom", func() controller.Controller { return cdromEngine })
	registry.Register("cpu", func() controller.Controller { return cpu })
	registry.Register("ram", func() controller.Controller { return newRam(make([]byte, cpuRamBytes)) })
	registry.Register("timer", func() controller.Controller { return tmr })

	desc := machine.Description{
		Name: "psx",
		Components: []machine.ComponentSpec{
			{
				Name: "ram", Instance: "ram", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "cpu-ram", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x00000000, End: cpuRamBytes - 1}},
				},
			},
			{
				Name: "dma", Instance: "dma", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "dma-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x1F801080, End: 0x1F80108B}},
					{Name: "dma-ram", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x1F000000, End: 0x1F000000 + dmaRamWords*4 - 1}},
					{Name: "dma-channel", Kind: bus.KindDma, Channel: dmaChannel},
				},
			},
			{
				Name: "drive", Instance: "drive", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "drive-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x1F8010F0, End: 0x1F8010FB}},
					{Name: "drive-clk", Kind: bus.KindClk, RateHz: dma.DriveHz},
				},
			},
			{
				Name: "cdrom", Instance: "cdrom", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "cdrom-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x1F801800, End: 0x1F801803}},
				},
			},
			{
				Name: "timer", Instance: "timer", BusID: cpuBus,
				Resources: bus.Resources{
					{Name: "timer-regs", Kind: bus.KindMem, BusID: cpuBus, Range: bus.Range{Start: 0x1F801100, End: 0x1F801103}},
					{Name: "div-clk", Kind: bus.KindClk, RateHz: stubCpuRateHz / 256},
					{Name: "tima-clk", Kind: bus.KindClk, RateHz: stubCpuRateHz},
				},
			},
			{Name: "cpu", Instance: "cpu", BusID: cpuBus},
		},
	}
	return mach, desc, nil
}

// ram is a flat byte-addressed backing store for the region internal/dma's
// driver pumps longs out of; it has no behavior of its own beyond the
// read/write ops bus.RamOps already provides.
type ram struct {
	data []byte
}

func newRam(data []byte) *ram { return &ram{data: data} }

func (r *ram) Init(inst *controller.Instance) error {
	area, err := inst.Require("cpu-ram", bus.KindMem)
	if err != nil {
		return err
	}
	return inst.Fabric.AddRegion(inst.Name, &bus.Region{Area: &area, Ops: bus.RamOps(r.data)})
}

func (r *ram) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
}

func (r *ram) Deinit() {}
