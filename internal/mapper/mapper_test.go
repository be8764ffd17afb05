package mapper

import (
	"testing"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

func newInstance(fabric *bus.Fabric, resources bus.Resources) *controller.Instance {
	return &controller.Instance{
		Name:      "cart",
		Fabric:    fabric,
		Resources: resources,
	}
}

func mmc1Resources() bus.Resources {
	return bus.Resources{
		{Name: "prg-rom-window", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x8000, End: 0xFFFF}},
		{Name: "chr-window", Kind: bus.KindMem, BusID: "ppu", Range: bus.Range{Start: 0x0000, End: 0x1FFF}},
	}
}

// TestS3MMC1ShiftRegisterLatchesChrBank0 is spec.md §8 scenario S3: a
// write of 0x80 to $8000-$FFFF resets the shift register, and five
// subsequent writes of bits 1,0,1,0,1 to $A000-$BFFF latch 0x15 into the
// CHR bank 0 register.
func TestS3MMC1ShiftRegisterLatchesChrBank0(t *testing.T) {
	fabric := bus.NewFabric(nil)
	prgROM := make([]byte, 32*1024)
	chrROM := make([]byte, 8*1024)
	m := NewMMC1(prgROM, chrROM, false, nil, "cpu", "ppu")

	inst := newInstance(fabric, mmc1Resources())
	if err := m.Init(inst); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.WriteB("cpu", 0x8000, 0x80)
	if m.shift != 0 || m.shiftCount != 0 {
		t.Fatalf("reset write left shift=%#x count=%d, want 0,0", m.shift, m.shiftCount)
	}

	bits := []uint8{1, 0, 1, 0, 1}
	for _, b := range bits {
		fabric.WriteB("cpu", 0xA000, b)
	}

	if m.ChrBank0() != 0x15 {
		t.Fatalf("ChrBank0() = %#x, want 0x15", m.ChrBank0())
	}
	if m.shiftCount != 0 {
		t.Fatalf("shiftCount after fifth write = %d, want 0 (latched and reset)", m.shiftCount)
	}
}

// TestMMC1ResetMidSequenceReshiftsCleanly checks that a reset write
// partway through a 5-write command discards the partial shift instead
// of corrupting the next command's bits.
func TestMMC1ResetMidSequenceReshiftsCleanly(t *testing.T) {
	fabric := bus.NewFabric(nil)
	m := NewMMC1(make([]byte, 32*1024), make([]byte, 8*1024), false, nil, "cpu", "ppu")
	if err := m.Init(newInstance(fabric, mmc1Resources())); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.WriteB("cpu", 0xA000, 1)
	fabric.WriteB("cpu", 0xA000, 1)
	fabric.WriteB("cpu", 0x8000, 0x80) // reset mid-sequence
	for _, b := range []uint8{0, 0, 0, 0, 0} {
		fabric.WriteB("cpu", 0xA000, b)
	}
	if m.ChrBank0() != 0 {
		t.Fatalf("ChrBank0() = %#x, want 0 (reset must discard the partial shift)", m.ChrBank0())
	}
}

func mmc3Resources() bus.Resources {
	return bus.Resources{
		{Name: "prg-rom-window", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x8000, End: 0xFFFF}},
		{Name: "chr-window", Kind: bus.KindMem, BusID: "ppu", Range: bus.Range{Start: 0x0000, End: 0x1FFF}},
	}
}

// TestMMC3IRQFiresOnA12RisingEdgeAfterCounterReachesZero exercises the
// CHR-bus re-entrancy path: every CHR read this mapper's region serves
// also feeds observeA12, so a sequence of PPU pattern fetches crossing
// the $1000 boundary clocks the scanline counter down to 0 and raises
// the mapper's IRQ line.
func TestMMC3IRQFiresOnA12RisingEdgeAfterCounterReachesZero(t *testing.T) {
	fabric := bus.NewFabric(nil)
	m := NewMMC3(make([]byte, 32*1024), make([]byte, 8*1024), nil)

	var raisedLine = -1
	inst := newInstance(fabric, mmc3Resources())
	inst.Interrupt = func(line int) { raisedLine = line }
	if err := m.Init(inst); err != nil {
		t.Fatalf("Init: %v", err)
	}

	m.irqLatch = 2
	m.irqReload = true
	m.irqEnabled = true

	// Each CHR read below $1000 then at/above $1000 is one A12 rising
	// edge (low->high); three edges drain a latch of 2 to 0.
	for i := 0; i < 3; i++ {
		fabric.ReadB("ppu", 0x0100) // A12 low
		fabric.ReadB("ppu", 0x1100) // A12 high: rising edge
	}

	if m.IRQCounter() != 0 {
		t.Fatalf("IRQCounter() = %d, want 0 after three rising edges with latch 2", m.IRQCounter())
	}
	if raisedLine != mmc3IrqLine {
		t.Fatalf("interrupt line = %d, want %d", raisedLine, mmc3IrqLine)
	}
}

// TestMMC3BankSelectRoutesBankDataToTargetRegister checks the even/odd
// $8000/$8001 bank-select/bank-data register pair.
func TestMMC3BankSelectRoutesBankDataToTargetRegister(t *testing.T) {
	fabric := bus.NewFabric(nil)
	m := NewMMC3(make([]byte, 32*1024), make([]byte, 8*1024), nil)
	if err := m.Init(newInstance(fabric, mmc3Resources())); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.WriteB("cpu", 0x8000, 3) // select R3
	fabric.WriteB("cpu", 0x8001, 0x42)
	if m.bankData[3] != 0x42 {
		t.Fatalf("bankData[3] = %#x, want 0x42", m.bankData[3])
	}
}
