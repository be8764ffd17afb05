// Package timer implements the reload-and-interrupt free-running counter
// pattern shared by the Game Boy's DIV/TIMA/TMA/TAC block and the
// PlayStation's dot/hblank-clocked system counters
// (controllers/timer/gb_timer.c, controllers/timer/psx_timer.c): a
// divider free-runs every tick of one clock, and a separately clocked
// counter reloads from a modulo register and raises an interrupt line on
// overflow. This is spec.md §2 row E's "timers" peripheral, wired as a
// standalone controller rather than folded into the CPU stub, the same
// way the APU and PPU peripherals stand apart from it.
package timer

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

const (
	regDiv  = 0x0
	regTIMA = 0x1
	regTMA  = 0x2
	regTAC  = 0x3

	tacEnable = 1 << 2
	tacSelect = 0x03
)

// tacDivisors is the TIMA increment period (in tima-clock ticks, which
// register at the CPU's own rate) selected by TAC bits 0-1
// (controllers/timer/gb_timer.c's tima_divs table).
var tacDivisors = [4]int{1024, 16, 64, 256}

// Timer is a bus-mapped DIV/TIMA/TMA/TAC counter. div free-runs at
// div-clk's rate; tima advances at tima-clk's rate by tacDivisors[TAC
// select] ticks per increment, reloading from tma and raising irqLine on
// overflow.
type Timer struct {
	div  uint8
	tima uint8
	tma  uint8
	tac  uint8

	irqLine   int
	interrupt func(line int)
}

// New constructs a Timer that raises irqLine on TIMA overflow.
func New(irqLine int) *Timer {
	return &Timer{irqLine: irqLine}
}

// Init implements controller.Controller: registers the register window
// and the two independently-rated clocks (spec.md §4.1 "Clock").
func (t *Timer) Init(inst *controller.Instance) error {
	t.interrupt = inst.Interrupt

	area, err := inst.Require("timer-regs", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &area,
		Ops:  bus.MemOps{ReadB: t.readRegister, WriteB: t.writeRegister},
	}); err != nil {
		return err
	}

	divClk, err := inst.Require("div-clk", bus.KindClk)
	if err != nil {
		return err
	}
	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".div", RateHz: divClk.RateHz,
		Tick: func(ctx *scheduler.TickContext) {
			t.div++
			ctx.Consume(1)
		},
	})

	timaClk, err := inst.Require("tima-clk", bus.KindClk)
	if err != nil {
		return err
	}
	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".tima", RateHz: timaClk.RateHz,
		Tick: func(ctx *scheduler.TickContext) {
			ctx.Consume(uint64(t.tickTIMA()))
		},
	})

	return nil
}

// tickTIMA advances TIMA by one count when the TAC enable bit is set,
// reloading from TMA and raising the interrupt line on overflow; it
// always reports the current TAC divisor so the caller's clock stays in
// step regardless of whether the counter is currently enabled.
func (t *Timer) tickTIMA() int {
	divisor := tacDivisors[t.tac&tacSelect]
	if t.tac&tacEnable == 0 {
		return divisor
	}
	if t.tima == 0xFF {
		t.tima = t.tma
		if t.interrupt != nil {
			t.interrupt(t.irqLine)
		}
	} else {
		t.tima++
	}
	return divisor
}

func (t *Timer) readRegister(offset uint32) uint8 {
	switch offset {
	case regDiv:
		return t.div
	case regTIMA:
		return t.tima
	case regTMA:
		return t.tma
	case regTAC:
		return t.tac
	default:
		return 0
	}
}

func (t *Timer) writeRegister(offset uint32, v uint8) {
	switch offset {
	case regDiv:
		t.div = 0
	case regTIMA:
		t.tima = v
	case regTMA:
		t.tma = v
	case regTAC:
		t.tac = v & 0x07
	}
}

// Reset implements controller.Controller.
func (t *Timer) Reset() {
	t.div, t.tima, t.tma, t.tac = 0, 0, 0, 0
}

// Deinit implements controller.Controller.
func (t *Timer) Deinit() {}
