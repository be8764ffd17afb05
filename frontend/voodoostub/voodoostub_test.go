package voodoostub

import "testing"

func TestOutputSetPixelAndGetPixelRoundTrip(t *testing.T) {
	o := New()
	if err := o.Init(4, 4, 60, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	o.Lock()
	o.SetPixel(1, 2, 10, 20, 30)
	o.Unlock()

	o.Lock()
	r, g, b := o.GetPixel(1, 2)
	o.Unlock()
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("GetPixel(1,2) = (%d,%d,%d), want (10,20,30)", r, g, b)
	}
}

func TestOutputGetPixelOutOfBoundsReturnsZero(t *testing.T) {
	o := New()
	if err := o.Init(2, 2, 60, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r, g, b := o.GetPixel(5, 5)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("GetPixel out of bounds = (%d,%d,%d), want (0,0,0)", r, g, b)
	}
}

func TestOutputInitSucceedsEvenWithoutAVulkanDriver(t *testing.T) {
	o := New()
	if err := o.Init(1, 1, 60, 1); err != nil {
		t.Fatalf("Init should fall back to software rendering, not fail: %v", err)
	}
}
