package cartridge

import (
	"testing"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

func TestStaticROMMapsRomAndChrWindowsReadOnly(t *testing.T) {
	fabric := bus.NewFabric(nil)
	rom := []byte{0xAA, 0xBB, 0xCC}
	chr := []byte{0x11, 0x22}

	s := NewStaticROM(rom, chr, "cpu", "ppu")
	inst := &controller.Instance{
		Name:   "cart",
		Fabric: fabric,
		Resources: bus.Resources{
			{Name: "rom-window", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x0000, End: 0x7FFF}},
			{Name: "chr-window", Kind: bus.KindMem, BusID: "ppu", Range: bus.Range{Start: 0x0000, End: 0x3FFF}},
		},
	}
	if err := s.Init(inst); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := fabric.ReadB("cpu", 0x0001); got != 0xBB {
		t.Fatalf("ReadB(cpu,1) = %#x, want 0xbb", got)
	}
	if got := fabric.ReadB("ppu", 0x0000); got != 0x11 {
		t.Fatalf("ReadB(ppu,0) = %#x, want 0x11", got)
	}

	fabric.WriteB("cpu", 0x0000, 0xFF)
	if got := fabric.ReadB("cpu", 0x0000); got != 0xAA {
		t.Fatalf("write to ROM window mutated backing data: got %#x", got)
	}
}

func TestStaticROMSkipsChrWindowWhenNil(t *testing.T) {
	fabric := bus.NewFabric(nil)
	s := NewStaticROM([]byte{0x01}, nil, "cpu", "ppu")
	inst := &controller.Instance{
		Name:   "cart",
		Fabric: fabric,
		Resources: bus.Resources{
			{Name: "rom-window", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x0000, End: 0x7FFF}},
		},
	}
	if err := s.Init(inst); err != nil {
		t.Fatalf("Init: %v", err)
	}
}
