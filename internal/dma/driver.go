package dma

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// DriveHz is the driver's pump-rate clock. The channel-level cost is
// expressed per long via TickContext.Consume, not via this rate, so its
// exact value only affects how fine-grained the scheduler's interleaving
// with other clocks is.
const DriveHz = 1_000_000

// cyclesPerLong is the scheduler-cycle cost of pushing one 32-bit long
// through the channel (spec.md §4.6 "every long consumes 4 scheduler
// cycles").
const cyclesPerLong = 4

const (
	driveRegSrc   = 0x0
	driveRegCount = 0x4
	driveRegStart = 0x8
)

// Driver is the CPU-side half of a DMA transfer: the register window a
// program writes a source address and word count into, and the register
// whose write starts the pump. It reads successive longs out of a bus
// region (typically CPU RAM) and pushes them one at a time into a
// bus.DmaChannel registered by some other controller (internal/dma.Engine
// on the PSX machine description), charging cyclesPerLong scheduler
// cycles for each.
type Driver struct {
	sourceBus string
	channel   int

	srcAddr   uint32
	remaining uint32
	busy      bool

	fabric *bus.Fabric
	target *bus.DmaChannel
}

// NewDriver constructs a driver that reads longs from sourceBus and
// pushes them into the DMA channel numbered channel.
func NewDriver(sourceBus string, channel int) *Driver {
	return &Driver{sourceBus: sourceBus, channel: channel}
}

// Init implements controller.Controller: registers the driver's control
// register window and its pump clock, and resolves the target channel
// (which must already be registered by the controller owning it).
func (d *Driver) Init(inst *controller.Instance) error {
	d.fabric = inst.Fabric

	area, err := inst.Require("drive-regs", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &area,
		Ops:  bus.MemOps{ReadL: d.readRegister, WriteL: d.writeRegister},
	}); err != nil {
		return err
	}

	if _, err := inst.Require("drive-clk", bus.KindClk); err != nil {
		return err
	}
	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".drive", RateHz: DriveHz,
		Tick: d.pump,
	})
	return nil
}

// pump pushes one pending long per tick while a transfer is running,
// charging cyclesPerLong; an idle driver still consumes a single cycle
// so its clock always makes progress.
func (d *Driver) pump(ctx *scheduler.TickContext) {
	if !d.busy || d.remaining == 0 {
		ctx.Consume(1)
		return
	}
	if d.target == nil {
		target, ok := d.fabric.DmaChannel(d.channel)
		if !ok {
			d.busy = false
			ctx.Consume(1)
			return
		}
		d.target = target
	}

	v := d.fabric.ReadL(d.sourceBus, d.srcAddr)
	d.target.Ops.WriteL(0, v)
	d.srcAddr += 4
	d.remaining--
	if d.remaining == 0 {
		d.busy = false
	}
	ctx.Consume(cyclesPerLong)
}

func (d *Driver) readRegister(offset uint32) uint32 {
	switch offset {
	case driveRegSrc:
		return d.srcAddr
	case driveRegCount:
		return d.remaining
	case driveRegStart:
		if d.busy {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (d *Driver) writeRegister(offset uint32, v uint32) {
	switch offset {
	case driveRegSrc:
		d.srcAddr = v
	case driveRegCount:
		d.remaining = v
	case driveRegStart:
		if v != 0 && d.remaining > 0 {
			d.busy = true
		}
	}
}

// Reset implements controller.Controller.
func (d *Driver) Reset() {
	d.srcAddr, d.remaining, d.busy = 0, 0, false
}

// Deinit implements controller.Controller.
func (d *Driver) Deinit() {}
