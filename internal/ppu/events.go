// Package ppu implements the event-per-dot raster pipeline pattern every
// supported video unit in this core follows (PPU/VDP/LCDC). It is
// grounded in the teacher's video_chip.go dirty-region/mutex-guarded
// framebuffer idiom, generalized from a whole-frame-at-a-time GPU model
// to a per-dot timing grid the way video_antic.go's line-driven display
// list does for ANTIC.
package ppu

// EventMask is a bitmask of the atomic per-dot raster events. Bits are
// invoked in ascending order (SHIFT_BG first, SET_VERT last) when more
// than one fires on the same dot.
type EventMask uint16

const (
	ShiftBG EventMask = 1 << iota
	ReloadBG
	FetchNT
	FetchAT
	FetchLowBG
	FetchHighBG
	VBlankSet
	VBlankClear
	IncHori
	IncVert
	SetHori
	SetVert
)

// bits lists every EventMask bit in invocation priority order (low bit
// first), so Schedule.Fire doesn't need to branch through all twelve on
// every dot to know which ones are set.
var bits = []EventMask{
	ShiftBG, ReloadBG, FetchNT, FetchAT, FetchLowBG, FetchHighBG,
	VBlankSet, VBlankClear, IncHori, IncVert, SetHori, SetVert,
}

// Handlers binds one callback per event bit. A nil entry means the
// concrete PPU instance doesn't use that event.
type Handlers struct {
	ShiftBG     func()
	ReloadBG    func()
	FetchNT     func()
	FetchAT     func()
	FetchLowBG  func()
	FetchHighBG func()
	VBlankSet   func()
	VBlankClear func()
	IncHori     func()
	IncVert     func()
	SetHori     func()
	SetVert     func()
}

func (h *Handlers) call(bit EventMask) {
	var fn func()
	switch bit {
	case ShiftBG:
		fn = h.ShiftBG
	case ReloadBG:
		fn = h.ReloadBG
	case FetchNT:
		fn = h.FetchNT
	case FetchAT:
		fn = h.FetchAT
	case FetchLowBG:
		fn = h.FetchLowBG
	case FetchHighBG:
		fn = h.FetchHighBG
	case VBlankSet:
		fn = h.VBlankSet
	case VBlankClear:
		fn = h.VBlankClear
	case IncHori:
		fn = h.IncHori
	case IncVert:
		fn = h.IncVert
	case SetHori:
		fn = h.SetHori
	case SetVert:
		fn = h.SetVert
	}
	if fn != nil {
		fn()
	}
}

// Fire invokes every handler set in mask, in priority order.
func (h *Handlers) Fire(mask EventMask) {
	for _, b := range bits {
		if mask&b != 0 {
			h.call(b)
		}
	}
}
