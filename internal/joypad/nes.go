// Package joypad bridges frontend.InputBackend's event taxonomy into the
// bus-mapped and port-mapped button latches real consoles expose to
// their CPU, closing the gap left by systems that only ever read
// cartridge/audio/video state: controllers/input/nes_controller.c (a
// memory-mapped two-player shift register) and
// controllers/input/sms_controller.c (a port-mapped A/B-port pair).
package joypad

import (
	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

// NESButton indexes the 8 bit positions of the NES controller shift
// register, in the hardware's own A,B,Select,Start,Up,Down,Left,Right
// order.
type NESButton int

const (
	NESButtonA NESButton = iota
	NESButtonB
	NESButtonSelect
	NESButtonStart
	NESButtonUp
	NESButtonDown
	NESButtonLeft
	NESButtonRight
	numNESButtons
)

const numNESPlayers = 2

// nesOpenBusBits mirrors the teacher's reserved/open-bus bit layout: bit
// 0 carries the serial shift-register output, bits 5-7 read back as set
// (the real hardware's floating-bus behavior on these lines).
const nesOpenBusBits = 0xE0

// NESBinding maps one input-frontend event to a (player, button) cell.
// A keyboard binding matches on Key; a gamepad binding matches on
// ButtonID when ByID is set.
type NESBinding struct {
	Player   int
	Button   NESButton
	Key      string
	ButtonID int
	ByID     bool
}

// DefaultNESBindings is a representative single-keyboard layout for both
// players (controllers/input/nes_controller.c's default_input_events).
func DefaultNESBindings() []NESBinding {
	return []NESBinding{
		{Player: 0, Button: NESButtonA, Key: "q"},
		{Player: 0, Button: NESButtonB, Key: "w"},
		{Player: 0, Button: NESButtonSelect, Key: "o"},
		{Player: 0, Button: NESButtonStart, Key: "p"},
		{Player: 0, Button: NESButtonUp, Key: "i"},
		{Player: 0, Button: NESButtonDown, Key: "k"},
		{Player: 0, Button: NESButtonLeft, Key: "j"},
		{Player: 0, Button: NESButtonRight, Key: "l"},
		{Player: 1, Button: NESButtonA, Key: "e"},
		{Player: 1, Button: NESButtonB, Key: "r"},
		{Player: 1, Button: NESButtonSelect, Key: "n"},
		{Player: 1, Button: NESButtonStart, Key: "m"},
		{Player: 1, Button: NESButtonUp, Key: "y"},
		{Player: 1, Button: NESButtonDown, Key: "h"},
		{Player: 1, Button: NESButtonLeft, Key: "g"},
		{Player: 1, Button: NESButtonRight, Key: "u"},
	}
}

// NESController is the bus-mapped shift-register joypad latch: strobing
// bit 0 of the input register reloads an 8-bit shift register per
// player from the latest key state; reads pop one bit per access while
// strobe is held low.
type NESController struct {
	input    frontend.InputBackend
	bindings []NESBinding

	strobe    bool
	keys      [numNESPlayers][numNESButtons]bool
	shiftRegs [numNESPlayers]uint8
}

// NewNESController constructs a controller bridging input to a
// two-player shift-register register pair.
func NewNESController(input frontend.InputBackend, bindings []NESBinding) *NESController {
	return &NESController{input: input, bindings: bindings}
}

// Init implements controller.Controller: registers the two-byte register
// window (one offset per player) and the input listener.
func (n *NESController) Init(inst *controller.Instance) error {
	area, err := inst.Require("joypad-regs", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &area,
		Ops:  bus.MemOps{ReadB: n.readRegister, WriteB: n.writeRegister},
	}); err != nil {
		return err
	}

	n.input.Register(frontend.InputConfig{
		Events:   []frontend.EventKind{frontend.EventKeyboard, frontend.EventButtonDown, frontend.EventButtonUp},
		Callback: n.onEvent,
	})
	return nil
}

func (n *NESController) readRegister(offset uint32) uint8 {
	if offset > 1 {
		return 0
	}
	v := n.shiftRegs[offset] & 1
	if !n.strobe {
		n.shiftRegs[offset] >>= 1
	}
	return v | nesOpenBusBits
}

func (n *NESController) writeRegister(offset uint32, v uint8) {
	if offset != 0 {
		return
	}
	n.strobe = v&1 != 0
	if n.strobe {
		n.reload()
	}
}

func (n *NESController) reload() {
	for p := 0; p < numNESPlayers; p++ {
		var reg uint8
		for b := 0; b < int(numNESButtons); b++ {
			if n.keys[p][b] {
				reg |= 1 << uint(b)
			}
		}
		n.shiftRegs[p] = reg
	}
}

func (n *NESController) onEvent(ev frontend.InputEvent) {
	pressed := ev.Kind != frontend.EventButtonUp
	for _, bind := range n.bindings {
		var matched bool
		if bind.ByID {
			matched = (ev.Kind == frontend.EventButtonDown || ev.Kind == frontend.EventButtonUp) && ev.ButtonID == bind.ButtonID
		} else {
			matched = (ev.Kind == frontend.EventKeyboard || ev.Kind == frontend.EventButtonUp) && ev.Key == bind.Key
		}
		if matched {
			n.keys[bind.Player][bind.Button] = pressed
		}
	}
	if n.strobe {
		n.reload()
	}
}

// Reset implements controller.Controller.
func (n *NESController) Reset() {
	n.strobe = false
	n.keys = [numNESPlayers][numNESButtons]bool{}
	n.shiftRegs = [numNESPlayers]uint8{}
}

// Deinit implements controller.Controller.
func (n *NESController) Deinit() {}
