package nes

import (
	"testing"

	"github.com/intuitionamiga/emux/frontend/headless"
)

func TestBuildMMC1MachineInitsAndRuns(t *testing.T) {
	prg := make([]byte, 32*1024)
	prg[0x7FFC] = 0x00 // reset vector low ($FFFC), in the fixed last 16KB bank
	prg[0x7FFD] = 0x80

	cart := Cartridge{PRGROM: prg, Mapper: MapperMMC1}
	audio := headless.NewAudio()
	video := headless.NewVideo()
	if err := video.Init(256, 240, 60, 1); err != nil {
		t.Fatalf("video.Init: %v", err)
	}

	mach, desc, err := Build(cart, audio, video, headless.NewInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := mach.Init(desc); err != nil {
		t.Fatalf("mach.Init: %v", err)
	}
	defer mach.Deinit()

	cpu, ok := mach.Controller("cpu")
	if !ok {
		t.Fatalf("cpu controller not found after Init")
	}

	for i := 0; i < 1000; i++ {
		mach.Scheduler.Tick()
	}
	if mach.Scheduler.VirtualCycles() == 0 {
		t.Fatalf("scheduler made no progress")
	}
	_ = cpu
}

func TestBuildRejectsUnknownMapperKind(t *testing.T) {
	cart := Cartridge{PRGROM: make([]byte, 32*1024), Mapper: MapperKind(99)}
	if _, _, err := Build(cart, headless.NewAudio(), headless.NewVideo(), headless.NewInput()); err == nil {
		t.Fatalf("expected an error for an unknown mapper kind")
	}
}
