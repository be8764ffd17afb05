package gb

import (
	"testing"

	"github.com/intuitionamiga/emux/frontend/headless"
)

func TestBuildMachineInitsAndRuns(t *testing.T) {
	cart := Cartridge{ROMData: make([]byte, 0x8000), CHRData: make([]byte, 0x1800)}
	audio := headless.NewAudio()
	video := headless.NewVideo()
	if err := video.Init(160, 144, 60, 1); err != nil {
		t.Fatalf("video.Init: %v", err)
	}

	mach, desc, err := Build(cart, audio, video)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := mach.Init(desc); err != nil {
		t.Fatalf("mach.Init: %v", err)
	}
	defer mach.Deinit()

	for i := 0; i < 500; i++ {
		mach.Scheduler.Tick()
	}
	if mach.Scheduler.VirtualCycles() == 0 {
		t.Fatalf("scheduler made no progress")
	}
}
