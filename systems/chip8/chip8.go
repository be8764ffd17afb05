// Package chip8 wires the complete CHIP-8 interpreter (internal/chip8)
// into a runnable machine.Description, adapting its 1bpp Display/Keypad
// collaborators onto the shared frontend.VideoOutput/InputBackend
// contracts so the same concrete backends every other system uses (or
// their headless test doubles) drive it too.
package chip8

import (
	"github.com/intuitionamiga/emux/frontend"
	ichip8 "github.com/intuitionamiga/emux/internal/chip8"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/machine"
)

const chipBus = "chip8"

// videoAdapter bridges ichip8.Display onto a frontend.VideoOutput: "on"
// pixels map to white, "off" to black, one SetPixel/Lock/Unlock pair per
// pixel since CHIP-8's Display contract has no frame-bracketing calls of
// its own.
type videoAdapter struct {
	out frontend.VideoOutput
}

func (v *videoAdapter) SetPixel(x, y int, on bool) {
	var r, g, b uint8
	if on {
		r, g, b = 0xFF, 0xFF, 0xFF
	}
	v.out.Lock()
	v.out.SetPixel(x, y, r, g, b)
	v.out.Unlock()
}

func (v *videoAdapter) Clear() {
	v.out.Lock()
	for y := 0; y < ichip8.DisplayHeight; y++ {
		for x := 0; x < ichip8.DisplayWidth; x++ {
			v.out.SetPixel(x, y, 0, 0, 0)
		}
	}
	v.out.Unlock()
}

func (v *videoAdapter) Present() { v.out.Update() }

// keypadAdapter tracks which of the 16 hex keys are currently held,
// updated from frontend.InputBackend Keyboard/ButtonDown/ButtonUp events
// registered against it.
type keypadAdapter struct {
	held [16]bool
}

// keyMap is the conventional CHIP-8 keypad layout, QWERTY row-mapped:
// 1 2 3 C / Q W E R / A S D F / Z X C V.
var keyMap = map[string]uint8{
	"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
	"q": 0x4, "w": 0x5, "e": 0x6, "r": 0xD,
	"a": 0x7, "s": 0x8, "d": 0x9, "f": 0xE,
	"z": 0xA, "x": 0x0, "c": 0xB, "v": 0xF,
}

func (k *keypadAdapter) Pressed(key uint8) bool {
	if key >= 16 {
		return false
	}
	return k.held[key]
}

func (k *keypadAdapter) onEvent(ev frontend.InputEvent) {
	hex, ok := keyMap[ev.Key]
	if !ok {
		return
	}
	switch ev.Kind {
	case frontend.EventButtonDown, frontend.EventKeyboard:
		k.held[hex] = true
	case frontend.EventButtonUp:
		k.held[hex] = false
	}
}

// Build assembles a Description plus its registry for a CHIP-8 ROM,
// driving video through videoOut and input through inputBackend (key
// names are the single-character labels in keyMap).
func Build(rom []byte, videoOut frontend.VideoOutput, inputBackend frontend.InputBackend) (*machine.Machine, machine.Description, error) {
	registry := controller.NewRegistry()
	mach := machine.New(registry, false)

	keypad := &keypadAdapter{}
	inputBackend.Register(frontend.InputConfig{
		Events:   []frontend.EventKind{frontend.EventKeyboard, frontend.EventButtonDown, frontend.EventButtonUp},
		Callback: keypad.onEvent,
	})

	cpu := ichip8.New(&videoAdapter{out: videoOut}, keypad)
	cpu.LoadROM(rom)

	registry.Register("cpu", func() controller.Controller { return cpu })

	desc := machine.Description{
		Name: "chip8",
		Components: []machine.ComponentSpec{
			{Name: "cpu", Instance: "cpu", BusID: chipBus},
		},
	}
	return mach, desc, nil
}
