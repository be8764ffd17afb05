// Package mapper implements cartridge bank-switching logic (spec.md §6
// "cartridge mapper") as controller.Controller peripherals: address
// translation for PRG/CHR windows, serial shift-register command
// decoding (MMC1), and scanline-IRQ generation via CHR bus re-entrancy
// (MMC3). Grounded on the teacher's memory_bus.go region-registration
// idiom, generalized from a fixed memory map to runtime bank switching.
package mapper

import "github.com/intuitionamiga/emux/frontend"

// BatteryBackedRAM is cartridge save RAM that survives across sessions:
// loaded from the front end's file store when constructed, flushed back
// on Flush (called from a mapper's Deinit). This is the supplemented
// persistence feature spec.md's distillation left implicit in "deinit
// save points" — the teacher's component lifecycle never modeled
// per-component persisted state, so this generalizes it into its own
// small collaborator rather than bolting file I/O onto every mapper.
type BatteryBackedRAM struct {
	data  []byte
	io    frontend.FileIO
	path  string
	dirty bool
}

// NewBatteryBackedRAM constructs a size-byte save RAM region, preloading
// it from path under io if a prior save exists. io may be nil (no
// persistence, e.g. headless unit tests).
func NewBatteryBackedRAM(io frontend.FileIO, path string, size int) *BatteryBackedRAM {
	b := &BatteryBackedRAM{data: make([]byte, size), io: io, path: path}
	b.load()
	return b
}

func (b *BatteryBackedRAM) load() {
	if b.io == nil {
		return
	}
	f, err := b.io.Open(frontend.CategoryData, b.path)
	if err != nil {
		return
	}
	defer f.Close()
	f.ReadAt(b.data, 0)
}

func (b *BatteryBackedRAM) ReadB(off uint32) uint8 {
	if int(off) >= len(b.data) {
		return 0
	}
	return b.data[off]
}

func (b *BatteryBackedRAM) WriteB(off uint32, v uint8) {
	if int(off) >= len(b.data) {
		return
	}
	b.data[off] = v
	b.dirty = true
}

// Flush writes the save RAM back to the host file store if it has been
// written to since load or the last Flush. A no-op with no FileIO
// configured.
func (b *BatteryBackedRAM) Flush() error {
	if b.io == nil || !b.dirty {
		return nil
	}
	f, err := b.io.Open(frontend.CategoryData, b.path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteAt(b.data, 0); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

// Bytes exposes the backing slice, read-only by convention, for
// diagnostics.
func (b *BatteryBackedRAM) Bytes() []byte { return b.data }
