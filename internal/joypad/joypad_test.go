package joypad

import (
	"testing"

	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/frontend/headless"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

func newInstance(fabric *bus.Fabric, resources bus.Resources) *controller.Instance {
	return &controller.Instance{Name: "joypad", Fabric: fabric, Resources: resources}
}

func TestNESStrobeLatchesAndShiftsOutButtons(t *testing.T) {
	fabric := bus.NewFabric(nil)
	input := headless.NewInput()
	ctl := NewNESController(input, []NESBinding{
		{Player: 0, Button: NESButtonA, Key: "q"},
		{Player: 0, Button: NESButtonRight, Key: "l"},
	})
	if err := ctl.Init(newInstance(fabric, bus.Resources{
		{Name: "joypad-regs", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x4016, End: 0x4017}},
	})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	input.Inject(frontend.InputEvent{Kind: frontend.EventKeyboard, Key: "q"})

	fabric.WriteB("cpu", 0x4016, 1) // strobe high, continuously reloads
	fabric.WriteB("cpu", 0x4016, 0) // strobe low, latches current state

	if v := fabric.ReadB("cpu", 0x4016) & 1; v != 1 {
		t.Fatalf("first read of player 1 register = %d, want bit0=1 for A pressed", v)
	}
	if v := fabric.ReadB("cpu", 0x4016) & 1; v != 0 {
		t.Fatalf("second read of player 1 register = %d, want bit0=0 (B not pressed)", v)
	}
}

func TestNESButtonUpClearsState(t *testing.T) {
	fabric := bus.NewFabric(nil)
	input := headless.NewInput()
	ctl := NewNESController(input, []NESBinding{{Player: 0, Button: NESButtonA, Key: "q"}})
	if err := ctl.Init(newInstance(fabric, bus.Resources{
		{Name: "joypad-regs", Kind: bus.KindMem, BusID: "cpu", Range: bus.Range{Start: 0x4016, End: 0x4017}},
	})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	input.Inject(frontend.InputEvent{Kind: frontend.EventKeyboard, Key: "q"})
	input.Inject(frontend.InputEvent{Kind: frontend.EventButtonUp, Key: "q"})

	fabric.WriteB("cpu", 0x4016, 1)
	fabric.WriteB("cpu", 0x4016, 0)
	if v := fabric.ReadB("cpu", 0x4016) & 1; v != 0 {
		t.Fatalf("released button must read 0, got %d", v)
	}
}

func TestSMSIoPortIsActiveLow(t *testing.T) {
	fabric := bus.NewFabric(nil)
	input := headless.NewInput()
	ctl := NewSMSController(input, DefaultSMSBindings())
	if err := ctl.Init(newInstance(fabric, bus.Resources{
		{Name: "joypad-io-port", Kind: bus.KindPort, Range: bus.Range{Start: 0xDC, End: 0xDD}},
		{Name: "joypad-ctl-port", Kind: bus.KindPort, Range: bus.Range{Start: 0x3E, End: 0x3F}},
	})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if v := fabric.In(0xDC); v != 0xFF {
		t.Fatalf("idle io port = %#x, want 0xFF", v)
	}

	input.Inject(frontend.InputEvent{Kind: frontend.EventKeyboard, Key: "i"}) // AUp
	if v := fabric.In(0xDC); v&1 != 0 {
		t.Fatalf("AUp bit should be clear while held, got %#x", v)
	}
}

func TestSMSControlPortOnlyAcceptsOddAddressWrites(t *testing.T) {
	fabric := bus.NewFabric(nil)
	input := headless.NewInput()
	ctl := NewSMSController(input, nil)
	if err := ctl.Init(newInstance(fabric, bus.Resources{
		{Name: "joypad-io-port", Kind: bus.KindPort, Range: bus.Range{Start: 0xDC, End: 0xDD}},
		{Name: "joypad-ctl-port", Kind: bus.KindPort, Range: bus.Range{Start: 0x3E, End: 0x3F}},
	})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fabric.Out(0x3E, 0x00) // even address: ignored
	if v := fabric.In(0x3E); v != 0xFF {
		t.Fatalf("even-address write must be ignored, got %#x", v)
	}
	fabric.Out(0x3F, 0x00) // odd address: accepted
	if v := fabric.In(0x3E); v != 0x00 {
		t.Fatalf("odd-address write must latch the control port, got %#x", v)
	}
}
