package frontend

// VideoOutput is the video frontend contract (spec.md §6 "Video
// frontend"). Its Lock/Unlock/SetPixel/Update method set is exactly what
// internal/ppu.Sink requires, so any VideoOutput implementation also
// satisfies a raster pipeline's sink without an adapter shim.
type VideoOutput interface {
	Init(width, height, fps, scale int) error
	Lock()
	Unlock()
	SetPixel(x, y int, r, g, b uint8)
	GetPixel(x, y int) (r, g, b uint8)
	Update()
	Deinit()
}
