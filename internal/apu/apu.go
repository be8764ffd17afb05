package apu

import (
	"math"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// NTSC CPU rate in Hz; the APU's per-cycle clock runs at this rate.
const NTSCCPUHz = 1789773

// quarterFrameHz is the nominal frame-sequencer step rate. Real hardware
// shifts this slightly between 4-step (~240Hz) and 5-step (~192.4Hz)
// modes; emux fixes it at the 4-step rate for scheduling simplicity
// since the state-machine sequencing under
// test in spec.md §8 does not depend on the exact wall-clock rate.
const quarterFrameHz = 240

// Sink receives one mixed stereo sample per sample-clock tick (spec.md
// §6 "Audio frontend"). Mono cores, like this one, pass the same value
// on both channels.
type Sink interface {
	Enqueue(left, right int16)
}

// APU is the controller.Controller implementing the representative NES
// audio core of spec.md §4.4.
type APU struct {
	Pulse1, Pulse2 *PulseChannel
	Triangle       *TriangleChannel
	Noise          *NoiseChannel
	DMC            *DMCChannel
	Sequencer      *FrameSequencer

	sink       Sink
	cpuRead    BusReader
	interrupt  func(line int)
	evenCycle  bool
	frameCycle uint32
}

const (
	irqLineFrame = 0
	irqLineDMC   = 1
)

// New constructs an APU bound to the CPU-bus reader (for DMC DMA) and the
// audio sink. Both may be nil for tests that only exercise register
// state, but a nil sink silently drops mixer output.
func New(cpuRead BusReader, sink Sink) *APU {
	a := &APU{sink: sink, cpuRead: cpuRead}
	a.Pulse1 = NewPulseChannel(true)
	a.Pulse2 = NewPulseChannel(false)
	a.Triangle = &TriangleChannel{}
	a.Noise = NewNoiseChannel()
	a.DMC = NewDMCChannel(cpuRead, func() {
		if a.interrupt != nil {
			a.interrupt(irqLineDMC)
		}
	})
	a.Sequencer = NewFrameSequencer(func() {
		if a.interrupt != nil {
			a.interrupt(irqLineFrame)
		}
	})
	return a
}

// Init implements controller.Controller: it registers the two clocks
// driving the APU (spec.md §4.4 "two clocks") and the $4000-$4017
// register window as a memory region.
func (a *APU) Init(inst *controller.Instance) error {
	a.interrupt = inst.Interrupt
	if a.cpuRead == nil {
		if r, ok := inst.MachData.(BusReader); ok {
			a.cpuRead = r
			a.DMC.bus = r
		}
	}

	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".cpu", RateHz: NTSCCPUHz,
		Tick: func(ctx *scheduler.TickContext) {
			a.tickCPUCycle()
			ctx.Consume(1)
		},
	})
	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".frame", RateHz: quarterFrameHz,
		Tick: func(ctx *scheduler.TickContext) {
			a.tickFrameStep()
			ctx.Consume(1)
		},
	})

	area, err := inst.Require("apu-regs", bus.KindMem)
	if err != nil {
		return err
	}
	region := &bus.Region{
		Area: &area,
		Ops: bus.MemOps{
			WriteB: a.writeRegister,
			ReadB:  a.readRegister,
		},
	}
	return inst.Fabric.AddRegion(inst.Name, region)
}

func (a *APU) writeRegister(offset uint32, v uint8) {
	switch offset {
	case 0x00:
		a.Pulse1.WriteControl(v)
	case 0x01:
		a.Pulse1.WriteSweep(v)
	case 0x02:
		a.Pulse1.WriteTimerLow(v)
	case 0x03:
		a.Pulse1.WriteLengthAndTimerHigh(v)
	case 0x04:
		a.Pulse2.WriteControl(v)
	case 0x05:
		a.Pulse2.WriteSweep(v)
	case 0x06:
		a.Pulse2.WriteTimerLow(v)
	case 0x07:
		a.Pulse2.WriteLengthAndTimerHigh(v)
	case 0x08:
		a.Triangle.WriteLinearCounter(v)
	case 0x0A:
		a.Triangle.WriteTimerLow(v)
	case 0x0B:
		a.Triangle.WriteLengthAndTimerHigh(v)
	case 0x0C:
		a.Noise.WriteControl(v)
	case 0x0E:
		a.Noise.WritePeriod(v)
	case 0x0F:
		a.Noise.WriteLength(v)
	case 0x10:
		a.DMC.WriteControl(v)
	case 0x11:
		a.DMC.WriteDirectLoad(v)
	case 0x12:
		a.DMC.WriteSampleAddress(v)
	case 0x13:
		a.DMC.WriteSampleLength(v)
	case 0x15:
		a.Pulse1.SetLengthEnabled(v&0x01 != 0)
		a.Pulse2.SetLengthEnabled(v&0x02 != 0)
		a.Triangle.SetLengthEnabled(v&0x04 != 0)
		a.Noise.SetLengthEnabled(v&0x08 != 0)
		a.DMC.SetEnabled(v&0x10 != 0)
	case 0x17:
		a.Sequencer.WriteControl(v)
	}
}

func (a *APU) readRegister(offset uint32) uint8 {
	if offset != 0x15 {
		return 0
	}
	var v uint8
	if a.Pulse1.LengthCounter() > 0 {
		v |= 0x01
	}
	if a.Pulse2.LengthCounter() > 0 {
		v |= 0x02
	}
	if a.Triangle.LengthCounter() > 0 {
		v |= 0x04
	}
	if a.Noise.LengthCounter() > 0 {
		v |= 0x08
	}
	if a.DMC.Active() {
		v |= 0x10
	}
	if a.Sequencer.InterruptFlag() {
		v |= 0x40
	}
	if a.DMC.InterruptFlag() {
		v |= 0x80
	}
	a.Sequencer.AckInterrupt()
	return v
}

// tickCPUCycle runs one APU-cycle worth of channel timer clocking and
// mixes one output sample (spec.md §4.4 "Mixer").
func (a *APU) tickCPUCycle() {
	a.Triangle.ClockTimer()
	a.DMC.ClockTimer()
	if a.evenCycle {
		a.Pulse1.ClockTimer()
		a.Pulse2.ClockTimer()
		a.Noise.ClockTimer()
	}
	a.evenCycle = !a.evenCycle

	sample := a.mix()
	if a.sink != nil {
		a.sink.Enqueue(sample, sample)
	}
}

// tickFrameStep runs one frame-sequencer step and applies its events to
// every channel (spec.md §4.4 "Frame sequencer").
func (a *APU) tickFrameStep() {
	ev := a.Sequencer.Step()
	if ev.Length {
		a.Pulse1.ClockLength()
		a.Pulse2.ClockLength()
		a.Triangle.ClockLength()
		a.Noise.ClockLength()
	}
	if ev.Envelope {
		a.Pulse1.ClockEnvelope()
		a.Pulse2.ClockEnvelope()
		a.Noise.ClockEnvelope()
		a.Triangle.ClockLinearAndEnvelope()
	}
}

// mix implements spec.md §4.4's mixer formula, scaled to an int16 range
// so it satisfies the Sink interface's PCM contract.
func (a *APU) mix() int16 {
	p1 := float64(a.Pulse1.Output())
	p2 := float64(a.Pulse2.Output())
	tr := float64(a.Triangle.Output())
	no := float64(a.Noise.Output())
	dm := float64(a.DMC.Output())

	pulseOut := 0.00752 * (p1 + p2)
	tndOut := 0.00851*tr + 0.00494*no + 0.00335*dm
	out := pulseOut + tndOut // in [0, ~0.85]
	if out > 1 {
		out = 1
	}
	scaled := out * math.MaxInt16
	return int16(scaled)
}

// Reset implements controller.Controller: state reinitializes to
// constructor defaults without re-registering clocks or regions.
func (a *APU) Reset() {
	interrupt := a.interrupt
	fresh := New(a.cpuRead, a.sink)
	*a = *fresh
	a.interrupt = interrupt
	a.DMC.irq = func() {
		if a.interrupt != nil {
			a.interrupt(irqLineDMC)
		}
	}
	a.Sequencer.raiseIRQ = func() {
		if a.interrupt != nil {
			a.interrupt(irqLineFrame)
		}
	}
}

// Deinit implements controller.Controller.
func (a *APU) Deinit() {}
