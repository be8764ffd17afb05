package controller

import "github.com/intuitionamiga/emux/internal/scheduler"

// StubCpu is a Cpu that advances a fixed number of cycles per Step
// without decoding any instructions, standing in for the 6502/Z80/M68K/
// x86 decoders spec.md §1 scopes out. It latches interrupts on a pending
// line so a machine description's IRQ wiring has somewhere to deliver
// Instance.Interrupt calls even though nothing here ever acts on them,
// matching the teacher's own CPU_6502.Step() "return cycles consumed"
// contract with everything but that one number stripped out. Init
// registers its own clock at RateHz, calling Step every tick, so a
// StubCpu participates in the scheduler the same way a real CPU adapter
// would rather than sitting idle as an unclocked passenger.
type StubCpu struct {
	CyclesPerStep int
	RateHz        uint64

	pendingLine int
	hasPending  bool
}

// NewStubCpu returns a StubCpu that reports cyclesPerStep cycles
// consumed on every Step, clocked at rateHz.
func NewStubCpu(cyclesPerStep int, rateHz uint64) *StubCpu {
	return &StubCpu{CyclesPerStep: cyclesPerStep, RateHz: rateHz}
}

func (s *StubCpu) Init(inst *Instance) error {
	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".cpu", RateHz: s.RateHz,
		Tick: func(ctx *scheduler.TickContext) {
			ctx.Consume(uint64(s.Step()))
		},
	})
	return nil
}
func (s *StubCpu) Reset()  { s.hasPending = false }
func (s *StubCpu) Deinit() {}

// Step reports CyclesPerStep cycles consumed, regardless of any pending
// interrupt: a stub adapter has no instruction stream to divert.
func (s *StubCpu) Step() int { return s.CyclesPerStep }

// Irq records the most recently latched interrupt line, for diagnostics
// and tests; a stub adapter never acts on it since it decodes nothing.
func (s *StubCpu) Irq(line int) {
	s.pendingLine = line
	s.hasPending = true
}

// Pending reports the last latched interrupt line and whether one is
// outstanding.
func (s *StubCpu) Pending() (line int, ok bool) { return s.pendingLine, s.hasPending }
