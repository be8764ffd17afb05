package timer

import (
	"testing"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

func newInstance(fabric *bus.Fabric, sched *scheduler.Scheduler, interrupt func(int)) *controller.Instance {
	return &controller.Instance{
		Name:      "timer",
		Fabric:    fabric,
		Scheduler: sched,
		Interrupt: interrupt,
		Resources: bus.Resources{
			{Name: "timer-regs", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0xFF04, End: 0xFF07}},
			{Name: "div-clk", Kind: bus.KindClk, RateHz: 16384},
			{Name: "tima-clk", Kind: bus.KindClk, RateHz: 4_194_304},
		},
	}
}

func TestDivFreeRunsAndResetsOnWrite(t *testing.T) {
	fabric := bus.NewFabric(nil)
	sched := scheduler.New(false)
	tm := New(4)
	if err := tm.Init(newInstance(fabric, sched, nil)); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for i := 0; i < 2000; i++ {
		sched.Tick()
	}
	if fabric.ReadB("cpu", 0xFF04) == 0 {
		t.Fatalf("div register should have advanced after 2000 ticks")
	}

	fabric.WriteB("cpu", 0xFF04, 0xFF)
	if fabric.ReadB("cpu", 0xFF04) != 0 {
		t.Fatalf("any write to the div register must reset it to 0")
	}
}

func TestTIMAOverflowReloadsFromTMAAndRaisesIRQ(t *testing.T) {
	fabric := bus.NewFabric(nil)
	sched := scheduler.New(false)
	var raised []int
	tm := New(4)
	if err := tm.Init(newInstance(fabric, sched, func(line int) { raised = append(raised, line) })); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.WriteB("cpu", 0xFF07, 0x05) // TAC: enable, select divisor 16
	fabric.WriteB("cpu", 0xFF06, 0x10) // TMA reload value
	fabric.WriteB("cpu", 0xFF05, 0xFF) // TIMA one tick from overflow

	for i := 0; i < 20; i++ {
		sched.Tick()
	}

	// The first tick overflows TIMA and reloads TMA (0x10); each of the
	// other 19 ticks is one divisor-16 period, one increment each.
	if fabric.ReadB("cpu", 0xFF05) != 0x10+19 {
		t.Fatalf("TIMA after overflow = %#x, want TMA value 0x10 plus 19 increments", fabric.ReadB("cpu", 0xFF05))
	}
	if len(raised) != 1 || raised[0] != 4 {
		t.Fatalf("expected exactly one interrupt on line 4, got %v", raised)
	}
}

func TestTIMADisabledByTACDoesNotAdvance(t *testing.T) {
	fabric := bus.NewFabric(nil)
	sched := scheduler.New(false)
	tm := New(4)
	if err := tm.Init(newInstance(fabric, sched, nil)); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.WriteB("cpu", 0xFF07, 0x00) // TAC: disabled
	for i := 0; i < 5000; i++ {
		sched.Tick()
	}
	if fabric.ReadB("cpu", 0xFF05) != 0 {
		t.Fatalf("TIMA must not advance while TAC enable bit is clear")
	}
}
