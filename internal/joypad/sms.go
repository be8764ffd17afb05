package joypad

import (
	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

// SMSButton indexes the bit positions of the two SMS joypad ports, A and
// B, each contributing the four-direction plus two-button layout of
// controllers/input/sms_controller.c's io_port union.
type SMSButton int

const (
	SMSButtonAUp SMSButton = iota
	SMSButtonADown
	SMSButtonALeft
	SMSButtonARight
	SMSButtonATL
	SMSButtonATR
	SMSButtonBUp
	SMSButtonBDown
	numSMSButtons
)

// SMSBinding maps one input-frontend event to a button bit.
type SMSBinding struct {
	Button   SMSButton
	Key      string
	ButtonID int
	ByID     bool
}

// DefaultSMSBindings is a representative single-pad keyboard layout
// (controllers/input/sms_controller.c's default_input_events, port A
// and the TL/TR buttons only; B-port up/down are a second pad's).
func DefaultSMSBindings() []SMSBinding {
	return []SMSBinding{
		{Button: SMSButtonAUp, Key: "i"},
		{Button: SMSButtonADown, Key: "k"},
		{Button: SMSButtonALeft, Key: "j"},
		{Button: SMSButtonARight, Key: "l"},
		{Button: SMSButtonATL, Key: "q"},
		{Button: SMSButtonATR, Key: "w"},
	}
}

// SMSController is the port-mapped A/B-port joypad latch. Button bits
// are active low, matching real hardware: a released button reads 1, a
// held button reads 0. The control port's odd address alone accepts
// writes (io_ctl's pad-direction bits); the even address is read-only.
type SMSController struct {
	input    frontend.InputBackend
	bindings []SMSBinding

	keys    [numSMSButtons]bool
	ctlPort uint8
}

// NewSMSController constructs a controller bridging input to the A/B and
// control port pair.
func NewSMSController(input frontend.InputBackend, bindings []SMSBinding) *SMSController {
	return &SMSController{input: input, bindings: bindings, ctlPort: 0xFF}
}

// Init implements controller.Controller: registers the io and control
// port regions and the input listener.
func (s *SMSController) Init(inst *controller.Instance) error {
	ioArea, err := inst.Require("joypad-io-port", bus.KindPort)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddPortRegion(inst.Name, &bus.PortRegion{
		Area: &ioArea,
		Ops:  bus.PortOps{In: s.ioIn},
	}); err != nil {
		return err
	}

	ctlArea, err := inst.Require("joypad-ctl-port", bus.KindPort)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddPortRegion(inst.Name, &bus.PortRegion{
		Area: &ctlArea,
		Ops:  bus.PortOps{In: s.ctlIn, Out: s.ctlOut},
	}); err != nil {
		return err
	}

	s.input.Register(frontend.InputConfig{
		Events:   []frontend.EventKind{frontend.EventKeyboard, frontend.EventButtonDown, frontend.EventButtonUp},
		Callback: s.onEvent,
	})
	return nil
}

// ioIn returns the A/B-port byte: bit i clear means button i is held.
func (s *SMSController) ioIn(offset uint8) uint8 {
	if offset != 0 {
		return 0xFF
	}
	var v uint8 = 0xFF
	for b := 0; b < int(numSMSButtons); b++ {
		if s.keys[b] {
			v &^= 1 << uint(b)
		}
	}
	return v
}

// ctlIn only answers on the even address; odd reads float high, matching
// sms_controller.c's io_read (it returns 0xFF for any odd address).
func (s *SMSController) ctlIn(offset uint8) uint8 {
	if offset != 0 {
		return 0xFF
	}
	return s.ctlPort
}

// ctlOut only accepts writes at the odd address (sms_controller.c's
// ctl_write only handles port & 1 != 0).
func (s *SMSController) ctlOut(offset uint8, v uint8) {
	if offset&1 == 0 {
		return
	}
	s.ctlPort = v
}

func (s *SMSController) onEvent(ev frontend.InputEvent) {
	pressed := ev.Kind != frontend.EventButtonUp
	for _, bind := range s.bindings {
		var matched bool
		if bind.ByID {
			matched = (ev.Kind == frontend.EventButtonDown || ev.Kind == frontend.EventButtonUp) && ev.ButtonID == bind.ButtonID
		} else {
			matched = (ev.Kind == frontend.EventKeyboard || ev.Kind == frontend.EventButtonUp) && ev.Key == bind.Key
		}
		if matched {
			s.keys[bind.Button] = pressed
		}
	}
}

// Reset implements controller.Controller.
func (s *SMSController) Reset() {
	s.keys = [numSMSButtons]bool{}
	s.ctlPort = 0xFF
}

// Deinit implements controller.Controller.
func (s *SMSController) Deinit() {}
