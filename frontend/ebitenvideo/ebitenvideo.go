// Package ebitenvideo implements frontend.VideoOutput on top of
// hajimehoshi/ebiten/v2, the teacher's own windowing dependency
// (video_backend_ebiten.go). Grounded on its EbitenOutput: an RGBA
// frame buffer guarded by a mutex, written by SetPixel and blitted to a
// single ebiten.Image once per Update, with ebiten's game loop run on
// its own goroutine the same way EbitenOutput.Start does.
package ebitenvideo

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Output implements frontend.VideoOutput (and, by method-set subset,
// internal/ppu.Sink and any other raster pipeline's sink contract).
type Output struct {
	width, height int
	scale         int
	frameBuffer   []byte
	mu            sync.RWMutex
	window        *ebiten.Image
	started       bool

	hudStatus HUDStatus
	hudImage  *ebiten.Image
}

// New constructs an unopened Output; call Init to size the frame buffer
// and start ebiten's game loop.
func New() *Output { return &Output{} }

func (o *Output) Init(width, height, fps, scale int) error {
	o.mu.Lock()
	o.width, o.height = width, height
	if scale < 1 {
		scale = 1
	}
	o.scale = scale
	o.frameBuffer = make([]byte, width*height*4)
	o.mu.Unlock()

	ebiten.SetWindowSize(width*scale, height*scale)
	ebiten.SetWindowTitle("emux")
	ebiten.SetWindowResizable(true)
	ebiten.SetTPS(fps)
	o.started = true
	go ebiten.RunGame(&gameAdapter{o})
	return nil
}

// gameAdapter satisfies ebiten.Game. It exists separately from Output
// because ebiten.Game.Update has a different signature (an error
// return) than frontend.VideoOutput.Update, and a type cannot declare
// the same method name twice with different signatures.
type gameAdapter struct{ o *Output }

func (g *gameAdapter) Update() error {
	if !g.o.started {
		return ebiten.Termination
	}
	return nil
}

func (g *gameAdapter) Draw(screen *ebiten.Image)     { g.o.draw(screen) }
func (g *gameAdapter) Layout(w, h int) (int, int)    { return g.o.Layout(w, h) }

// Lock/Unlock bracket one core frame's worth of SetPixel calls, the
// frame-boundary contract spec.md §6 names.
func (o *Output) Lock()   { o.mu.Lock() }
func (o *Output) Unlock() { o.mu.Unlock() }

// SetPixel writes one RGBA pixel into the frame buffer. Must be called
// between Lock and Unlock.
func (o *Output) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return
	}
	off := (y*o.width + x) * 4
	o.frameBuffer[off] = r
	o.frameBuffer[off+1] = g
	o.frameBuffer[off+2] = b
	o.frameBuffer[off+3] = 0xFF
}

func (o *Output) GetPixel(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return 0, 0, 0
	}
	off := (y*o.width + x) * 4
	return o.frameBuffer[off], o.frameBuffer[off+1], o.frameBuffer[off+2]
}

// Update is a no-op on this side: the frame buffer is already current
// once Unlock returns, and ebiten's own Draw callback (run on its
// goroutine) blits it to the window on its own schedule.
func (o *Output) Update() {}

func (o *Output) Deinit() {
	o.mu.Lock()
	o.started = false
	o.mu.Unlock()
}

// draw renders the current frame buffer; called by gameAdapter.Draw.
func (o *Output) draw(screen *ebiten.Image) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.window == nil && o.width > 0 && o.height > 0 {
		o.window = ebiten.NewImage(o.width, o.height)
	}
	if o.window == nil {
		return
	}
	o.window.WritePixels(o.frameBuffer)
	screen.DrawImage(o.window, nil)

	if o.hudStatus != nil {
		o.drawHUD(screen)
	}
}

// Layout reports the fixed core resolution ebiten.Game.Layout needs.
func (o *Output) Layout(_, _ int) (int, int) { return o.width, o.height }
