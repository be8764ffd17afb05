package ppu

// buildNESSchedule populates the spec.md §4.5 timing grid for the
// NES-PPU-shaped instance: 262 scanlines of 341 dots, background fetch
// pipeline on visible lines 0-239 and the pre-render line 261, and the
// VBLANK set/clear pair at (241,1) / (261,1).
//
// This reproduces the well-documented NES PPU dot schedule rather than
// inventing one; it is simplified by omitting sprite evaluation timing
// (sprite fetches happen logically at dots 257-320 on real hardware but
// this core evaluates sprites directly from the OAM region once per
// scanline rather than dot-by-dot, since sprite pixel priority doesn't
// depend on fetch timing the way background shift-register timing does).
func buildNESSchedule() *Schedule {
	const scanlines = 262
	const dots = 341
	s := NewSchedule(scanlines, dots)

	fetchLine := func(v int) {
		for h := 1; h <= 256; h++ {
			s.Set(v, h, ShiftBG)
			switch h % 8 {
			case 1:
				s.Set(v, h, FetchNT)
			case 3:
				s.Set(v, h, FetchAT)
			case 5:
				s.Set(v, h, FetchLowBG)
			case 7:
				s.Set(v, h, FetchHighBG)
			case 0:
				s.Set(v, h, ReloadBG)
				s.Set(v, h, IncHori)
			}
		}
		s.Set(v, 256, IncVert)
		s.Set(v, 257, SetHori)
		// The next scanline's first two background tiles are pre-fetched
		// during dots 321-336.
		for h := 321; h <= 336; h++ {
			s.Set(v, h, ShiftBG)
			switch (h - 321) % 8 {
			case 0:
				s.Set(v, h, FetchNT)
			case 2:
				s.Set(v, h, FetchAT)
			case 4:
				s.Set(v, h, FetchLowBG)
			case 6:
				s.Set(v, h, FetchHighBG)
			case 7:
				s.Set(v, h, ReloadBG)
			}
		}
	}

	for v := 0; v < 240; v++ {
		fetchLine(v)
	}
	s.Set(241, 1, VBlankSet)

	// Pre-render line: clears VBLANK/sprite flags, re-runs the fetch
	// pipeline for scanline 0, and re-latches vertical scroll during
	// dots 280-304.
	fetchLine(261)
	s.Set(261, 1, VBlankClear)
	for h := 280; h <= 304; h++ {
		s.Set(261, h, SetVert)
	}

	return s
}
