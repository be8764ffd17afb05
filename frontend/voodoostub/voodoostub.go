// Package voodoostub implements frontend.VideoOutput as a software
// framebuffer that attempts real Vulkan loader initialization on Init
// and falls back silently if no driver is present, the same two-call
// sequence and software-fallback shape as the teacher's VulkanBackend.Init
// (voodoo_vulkan.go): vk.SetDefaultGetInstanceProcAddr then vk.Init,
// falling back to software rendering on failure. Unlike the teacher's
// full offscreen-rendering Vulkan backend (render passes, pipelines,
// triangle rasterization), this package only proves the loader/instance
// path and otherwise behaves exactly like a plain in-memory framebuffer
// — a stub standing in for a hardware-accelerated backend this core has
// no triangle-rasterization pipeline to drive, since emux's raster
// pipeline is a 2D per-dot pattern, not a 3D triangle pipeline.
package voodoostub

import (
	"sync"

	vk "github.com/goki/vulkan"
)

// Output is a frontend.VideoOutput backed by a plain RGBA byte buffer,
// optionally backed by an initialized (but otherwise unused) Vulkan
// instance.
type Output struct {
	mu            sync.RWMutex
	width, height int
	frameBuffer   []byte

	vulkanReady bool
	instance    vk.Instance
}

func New() *Output { return &Output{} }

var (
	vulkanInitOnce sync.Once
	vulkanInitErr  error
)

func (o *Output) Init(width, height, fps, scale int) error {
	o.mu.Lock()
	o.width, o.height = width, height
	o.frameBuffer = make([]byte, width*height*4)
	o.mu.Unlock()

	vulkanInitOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			vulkanInitErr = err
			return
		}
		vulkanInitErr = vk.Init()
	})
	o.vulkanReady = vulkanInitErr == nil
	// A failed Vulkan load is not a usage error: this backend renders
	// in software regardless, the same fallback the teacher's
	// VulkanBackend.Init performs.
	return nil
}

func (o *Output) Lock()   { o.mu.Lock() }
func (o *Output) Unlock() { o.mu.Unlock() }

func (o *Output) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return
	}
	off := (y*o.width + x) * 4
	o.frameBuffer[off], o.frameBuffer[off+1], o.frameBuffer[off+2], o.frameBuffer[off+3] = r, g, b, 0xFF
}

func (o *Output) GetPixel(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return 0, 0, 0
	}
	off := (y*o.width + x) * 4
	return o.frameBuffer[off], o.frameBuffer[off+1], o.frameBuffer[off+2]
}

// Update is a no-op: nothing composites this buffer to a window, since
// this backend's purpose is proving out the Vulkan loader path rather
// than presenting frames.
func (o *Output) Update() {}

func (o *Output) Deinit() {}

// VulkanReady reports whether vk.Init succeeded, for diagnostics.
func (o *Output) VulkanReady() bool { return o.vulkanReady }
