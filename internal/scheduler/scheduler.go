package scheduler

import (
	"log"
	"time"
)

// gcd and lcm operate on the clock rates supplied at registration time.
func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// Scheduler drives every registered Clock at its nominal rate relative to
// a single derived machine rate, and optionally paces the ensemble to
// wall time (spec.md §4.1).
type Scheduler struct {
	clocks      []*Clock
	machineRate uint64 // M, the LCM of every registered clock's rate
	virtualCyc  uint64 // cycles advanced since constructor or last lap

	pace      bool
	anchor    time.Time
	anchorCyc uint64

	Warn *log.Logger
}

// New creates an empty scheduler. pace enables best-effort wall-clock
// pacing (spec.md §4.1 step 4); tests typically leave it disabled so
// iterations run as fast as possible.
func New(pace bool) *Scheduler {
	return &Scheduler{pace: pace, Warn: log.Default()}
}

// AddClock registers a clock and re-derives div for every clock,
// including ones already registered, so that rate_i * div_i stays
// identical for all i regardless of registration order (spec.md §8
// property 1). The clock starts enabled.
func (s *Scheduler) AddClock(c *Clock) *Clock {
	c.enabled = true
	s.clocks = append(s.clocks, c)

	rate := c.RateHz
	if s.machineRate == 0 {
		s.machineRate = rate
	} else {
		s.machineRate = lcm(s.machineRate, rate)
	}
	for _, cl := range s.clocks {
		if cl.RateHz == 0 {
			continue
		}
		cl.div = s.machineRate / cl.RateHz
	}
	return c
}

// MachineRate returns M, the LCM of every registered clock's rate.
func (s *Scheduler) MachineRate() uint64 { return s.machineRate }

// VirtualCycles returns the total machine cycles advanced so far.
func (s *Scheduler) VirtualCycles() uint64 { return s.virtualCyc }

// Clocks returns the registered clocks in insertion order.
func (s *Scheduler) Clocks() []*Clock { return s.clocks }

// Tick runs one scheduler iteration (spec.md §4.1 "Tick loop"):
//  1. every enabled clock whose remaining budget is exhausted is ticked,
//     in insertion order;
//  2. the iteration step is the minimum remaining budget across enabled
//     clocks;
//  3. the virtual cycle count and every enabled clock's remaining budget
//     advance by that step.
//
// It returns the step taken; a zero step with at least one enabled clock
// is a ProgressViolation and is logged, not panicked (buggy peripheral
// code must not be able to hang the loop).
func (s *Scheduler) Tick() uint64 {
	for _, c := range s.clocks {
		if !c.enabled || c.numRemaining > 0 {
			continue
		}
		ctx := &TickContext{clock: c}
		c.Tick(ctx)
		if !ctx.consumed {
			s.Warn.Printf("scheduler: progress violation: clock %q ticked without consuming cycles", c.Name)
		}
	}

	var step int64 = -1
	anyEnabled := false
	for _, c := range s.clocks {
		if !c.enabled {
			continue
		}
		anyEnabled = true
		if step < 0 || c.numRemaining < step {
			step = c.numRemaining
		}
	}
	if !anyEnabled {
		return 0
	}
	if step <= 0 {
		s.Warn.Printf("scheduler: progress violation: iteration step was %d", step)
		step = 0
	}

	for _, c := range s.clocks {
		if c.enabled {
			c.numRemaining -= step
		}
	}
	s.virtualCyc += uint64(step)

	if s.pace {
		s.paceWallClock()
	}
	return uint64(step)
}

// paceWallClock implements the best-effort, never-timing-altering sleep
// of spec.md §4.1 step 4: if the virtual elapsed time outruns the wall
// clock since the pacing anchor, sleep the difference. The anchor resets
// every time the virtual cycle count laps the machine rate (one
// simulated second).
func (s *Scheduler) paceWallClock() {
	if s.machineRate == 0 {
		return
	}
	if s.anchor.IsZero() {
		s.anchor = time.Now()
		s.anchorCyc = s.virtualCyc
		return
	}
	elapsedCycles := s.virtualCyc - s.anchorCyc
	if elapsedCycles >= s.machineRate {
		s.anchor = time.Now()
		s.anchorCyc = s.virtualCyc
		return
	}
	virtualElapsed := time.Duration(elapsedCycles) * time.Second / time.Duration(s.machineRate)
	wallElapsed := time.Since(s.anchor)
	if virtualElapsed > wallElapsed {
		time.Sleep(virtualElapsed - wallElapsed)
	}
}

// Run ticks the scheduler until quit is closed. This is machine_run from
// spec.md §3; the only way to exit is the external Quit event delivered
// by closing quit.
func (s *Scheduler) Run(quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		default:
			s.Tick()
		}
	}
}
