package ebitenvideo

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HUDStatus returns the lines of debug text the overlay renders, called
// once per frame. A typical callback reports scheduler clock rates, FIFO
// occupancy, or latched IRQ lines.
type HUDStatus func() []string

const (
	hudLineHeight = 14
	hudMargin     = 4
)

// EnableHUD turns on the status overlay, calling status once per frame
// to get the lines to draw. Passing a nil status disables it.
func (o *Output) EnableHUD(status HUDStatus) {
	o.mu.Lock()
	o.hudStatus = status
	o.mu.Unlock()
}

// drawHUD rasterizes the current status lines onto an RGBA image the size
// of the window and composites it over the core's frame buffer. Called
// with o.mu already held for reading.
func (o *Output) drawHUD(screen *ebiten.Image) {
	lines := o.hudStatus()
	if len(lines) == 0 {
		return
	}

	w, h := o.width, o.height
	if o.hudImage == nil || o.hudImage.Bounds().Dx() != w || o.hudImage.Bounds().Dy() != h {
		o.hudImage = ebiten.NewImage(w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0x20, 0xFF, 0x20, 0xFF}),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(hudMargin, hudMargin+hudLineHeight*(i+1))
		drawer.DrawString(line)
	}

	o.hudImage.WritePixels(img.Pix)
	screen.DrawImage(o.hudImage, nil)
}
