// Package scheduler implements the cooperative, variable-rate clock model
// of spec.md §4.1: every registered clock advances in lock-step relative
// to a single derived machine rate, and the ensemble paces itself to wall
// time. It generalizes the teacher's fixed 60Hz frame loop
// (audio_chip.go's sample-rate ticking, video_chip.go's scanline timer)
// into an explicit multi-clock scheduler driven by LCM-derived ratios.
package scheduler

// TickFunc is the callback a Clock invokes when its remaining cycles
// reach zero. It must call ctx.Consume at least once; a tick that
// returns without consuming any cycles is a ProgressViolation (spec.md
// §7) and the scheduler surfaces a warning rather than crashing.
type TickFunc func(ctx *TickContext)

// Clock is a registered, independently-rated tick source (spec.md §3
// "Clock"). Data is an opaque per-clock payload the owning controller
// may stash state in without a second map lookup.
type Clock struct {
	Name   string
	RateHz uint64
	Data   any
	Tick   TickFunc

	div              uint64
	numRemaining     int64
	enabled          bool
}

// Enabled reports whether the clock currently participates in scheduling.
func (c *Clock) Enabled() bool { return c.enabled }

// SetEnabled toggles the clock. Disabling a clock during its own tick
// takes effect at the next scheduler iteration (spec.md §4.1).
func (c *Clock) SetEnabled(v bool) { c.enabled = v }

// Div is the machine-clock-relative divisor assigned when the clock
// joined the scheduler (rate_i * div_i is identical across all clocks).
func (c *Clock) Div() uint64 { return c.div }

// Remaining is the clock's outstanding sub-tick count.
func (c *Clock) Remaining() int64 { return c.numRemaining }

// TickContext is the explicit per-callback context a Clock's TickFunc
// receives, replacing the source project's thread-local "current clock"
// pointer (spec.md §9 design notes) with a value passed directly to the
// callback.
type TickContext struct {
	clock    *Clock
	consumed bool
}

// Consume advances the owning clock's cycle budget by n clock-local
// cycles (n * div machine cycles). It is the only way simulated time
// moves forward and may be called more than once per tick to amortize
// long synthetic work (spec.md §5 "Suspension points").
func (ctx *TickContext) Consume(n uint64) {
	ctx.clock.numRemaining += int64(n) * int64(ctx.clock.div)
	ctx.consumed = true
}

// Clock returns the clock this context belongs to, for callbacks that
// need to read back Data or Name.
func (ctx *TickContext) Clock() *Clock { return ctx.clock }
