package psx

import (
	"testing"

	"github.com/intuitionamiga/emux/frontend/headless"
)

func TestBuildMachineInitsAndRuns(t *testing.T) {
	source := headless.NewCdromSource(make([]byte, 2352*4))

	mach, desc, err := Build(source)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := mach.Init(desc); err != nil {
		t.Fatalf("mach.Init: %v", err)
	}
	defer mach.Deinit()

	if _, ok := mach.Controller("dma"); !ok {
		t.Fatalf("dma controller not found after Init")
	}
	if _, ok := mach.Controller("cdrom"); !ok {
		t.Fatalf("cdrom controller not found after Init")
	}

	for i := 0; i < 500; i++ {
		mach.Scheduler.Tick()
	}
	if mach.Scheduler.VirtualCycles() == 0 {
		t.Fatalf("scheduler made no progress")
	}
}

func TestBuildAcceptsNilSourceForRegisterOnlyUse(t *testing.T) {
	mach, desc, err := Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := mach.Init(desc); err != nil {
		t.Fatalf("mach.Init: %v", err)
	}
	defer mach.Deinit()
}
