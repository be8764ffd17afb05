package ppu

// Schedule is the 2-D timing grid events[v][h] of spec.md §4.5, indexed
// by scanline v and dot h. Cell (0,0) is top-left of a frame.
type Schedule struct {
	Scanlines int
	Dots      int
	grid      [][]EventMask
}

// NewSchedule allocates an empty scanlines x dots grid. Callers populate
// it with Set before driving a Cursor across it.
func NewSchedule(scanlines, dots int) *Schedule {
	grid := make([][]EventMask, scanlines)
	for v := range grid {
		grid[v] = make([]EventMask, dots)
	}
	return &Schedule{Scanlines: scanlines, Dots: dots, grid: grid}
}

// Set ORs mask into the bitmask at (v,h).
func (s *Schedule) Set(v, h int, mask EventMask) {
	s.grid[v][h] |= mask
}

// At returns the bitmask at (v,h).
func (s *Schedule) At(v, h int) EventMask {
	return s.grid[v][h]
}

// Cursor tracks the current (v,h) position and odd/even frame parity for
// one running instance of a Schedule.
type Cursor struct {
	V, H    int
	OddFrame bool
}

// Advance fires the bitmask at the cursor's current cell (if non-empty),
// then steps forward cell by cell until it lands on the next non-empty
// cell, or completes a full frame, whichever comes first. It returns the
// number of dots stepped, which the caller reports to the scheduler as
// one batched clock_consume — collapsing runs of idle dots without
// losing cycle accuracy (spec.md §4.5).
//
// renderingEnabled gates the scanline-0 odd-frame dot skip: real
// hardware only shortens the pre-render line when the background/sprite
// layers are actually being rendered.
func (c *Cursor) Advance(s *Schedule, h *Handlers, renderingEnabled bool) int {
	h.Fire(s.At(c.V, c.H))

	steps := 0
	for {
		c.H++
		steps++
		if c.H >= s.Dots {
			c.H = 0
			c.V++
			if c.V >= s.Scanlines {
				c.V = 0
				c.OddFrame = !c.OddFrame
			}
			if c.V == 0 && c.H == 0 && c.OddFrame && renderingEnabled {
				// Skip the idle dot of the pre-render line on odd frames.
				c.H++
				steps++
			}
		}
		if s.At(c.V, c.H) != 0 || steps >= s.Scanlines*s.Dots {
			break
		}
	}
	return steps
}
