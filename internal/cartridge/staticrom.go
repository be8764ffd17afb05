// Package cartridge provides unbanked ROM/pattern-table wiring for
// systems whose bank-switching hardware (internal/mapper's MMC1/MMC3)
// this core does not model. It is the flat-mapping counterpart to
// internal/mapper: the same "bind ROM bytes to a bus window" concern,
// minus any register-driven bank selection.
package cartridge

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

// StaticROM maps romData and chrData as flat, read-only windows on two
// (possibly identical) buses: romData on cpuBusID as "rom-window",
// chrData on ppuBusID as "chr-window". A nil chrData skips that region.
type StaticROM struct {
	romData, chrData   []byte
	cpuBusID, ppuBusID string
}

// NewStaticROM constructs a StaticROM over the given images.
func NewStaticROM(romData, chrData []byte, cpuBusID, ppuBusID string) *StaticROM {
	return &StaticROM{romData: romData, chrData: chrData, cpuBusID: cpuBusID, ppuBusID: ppuBusID}
}

func (s *StaticROM) Init(inst *controller.Instance) error {
	romArea, err := inst.Require("rom-window", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{Area: &romArea, Ops: bus.RomOps(s.romData)}); err != nil {
		return err
	}

	if s.chrData == nil {
		return nil
	}
	chrArea, err := inst.Require("chr-window", bus.KindMem)
	if err != nil {
		return err
	}
	return inst.Fabric.AddRegion(inst.Name, &bus.Region{Area: &chrArea, Ops: bus.RomOps(s.chrData)})
}

func (s *StaticROM) Reset() {}
func (s *StaticROM) Deinit() {}
