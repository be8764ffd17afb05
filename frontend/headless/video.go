package headless

import "sync"

// Video is an in-memory frontend.VideoOutput with no window: every test
// and every system description's headless configuration renders into
// this instead of touching a real display.
type Video struct {
	mu            sync.Mutex
	width, height int
	frameBuffer   []byte
	updates       int
}

func NewVideo() *Video { return &Video{} }

func (v *Video) Init(width, height, fps, scale int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width, v.height = width, height
	v.frameBuffer = make([]byte, width*height*4)
	return nil
}

func (v *Video) Lock()   { v.mu.Lock() }
func (v *Video) Unlock() { v.mu.Unlock() }

func (v *Video) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= v.width || y >= v.height {
		return
	}
	off := (y*v.width + x) * 4
	v.frameBuffer[off], v.frameBuffer[off+1], v.frameBuffer[off+2], v.frameBuffer[off+3] = r, g, b, 0xFF
}

func (v *Video) GetPixel(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= v.width || y >= v.height {
		return 0, 0, 0
	}
	off := (y*v.width + x) * 4
	return v.frameBuffer[off], v.frameBuffer[off+1], v.frameBuffer[off+2]
}

func (v *Video) Update() { v.updates++ }

func (v *Video) Deinit() {}

// Updates reports how many frames have been presented, for tests that
// want to assert the core is actually producing frames.
func (v *Video) Updates() int { return v.updates }
