package dma

import (
	"testing"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

func newDriverInstance(name string, fabric *bus.Fabric, sched *scheduler.Scheduler, resources bus.Resources) *controller.Instance {
	return &controller.Instance{Name: name, Fabric: fabric, Scheduler: sched, Resources: resources}
}

// TestDriverPumpsCpuRamIntoChannelAndConsumesCycles grounds spec.md §4.6's
// "every long consumes 4 scheduler cycles" contract: a driver reading
// three longs out of CPU RAM must land all three in the target engine's
// FIFO, and the scheduler's virtual cycle count must have advanced by at
// least 4 per long.
func TestDriverPumpsCpuRamIntoChannelAndConsumesCycles(t *testing.T) {
	fabric := bus.NewFabric(nil)
	sched := scheduler.New(false)

	ram := make([]byte, 64)
	words := []uint32{0x11111111, 0x22222222, 0x33333333}
	for i, w := range words {
		off := i * 4
		ram[off] = byte(w)
		ram[off+1] = byte(w >> 8)
		ram[off+2] = byte(w >> 16)
		ram[off+3] = byte(w >> 24)
	}
	if err := fabric.AddRegion("cpu-ram", &bus.Region{
		Area: &bus.Resource{Name: "cpu-ram", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0, End: uint32(len(ram) - 1)}},
		Ops:  bus.RamOps(ram),
	}); err != nil {
		t.Fatalf("AddRegion(cpu-ram): %v", err)
	}

	engine := New(8, 16, 3)
	if err := engine.Init(newDriverInstance("engine", fabric, sched, bus.Resources{
		{Name: "dma-regs", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x1000, End: 0x100B}},
		{Name: "dma-ram", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x2000, End: 0x203F}},
		{Name: "dma-channel", Kind: bus.KindDma, Channel: 0},
	})); err != nil {
		t.Fatalf("engine Init: %v", err)
	}

	driver := NewDriver("cpu", 0)
	if err := driver.Init(newDriverInstance("driver", fabric, sched, bus.Resources{
		{Name: "drive-regs", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x3000, End: 0x300B}},
		{Name: "drive-clk", Kind: bus.KindClk, RateHz: DriveHz},
	})); err != nil {
		t.Fatalf("driver Init: %v", err)
	}

	fabric.WriteL("cpu", 0x3000, 0)          // source address
	fabric.WriteL("cpu", 0x3004, uint32(len(words))) // word count
	fabric.WriteL("cpu", 0x3008, 1)          // start

	before := sched.VirtualCycles()
	for i := 0; i < len(words)*4; i++ {
		sched.Tick()
	}
	if sched.VirtualCycles()-before < uint64(len(words)*cyclesPerLong) {
		t.Fatalf("virtual cycles advanced by %d, want at least %d", sched.VirtualCycles()-before, len(words)*cyclesPerLong)
	}

	if fabric.ReadL("cpu", 0x3008) != 0 {
		t.Fatalf("driver should report idle once all longs are pumped")
	}

	fabric.WriteL("cpu", 0x1004, 0x80000000|uint32(Normal)) // select NORMAL, start drain

	got := engine.RAM()
	for i, want := range words {
		if got[i] != want {
			t.Fatalf("engine ram[%d] = %#x, want %#x", i, got[i], want)
		}
	}
}
