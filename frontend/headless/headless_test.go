package headless

import (
	"os"
	"testing"

	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/internal/cdrom"
)

func TestVideoSetPixelAndGetPixelRoundTrip(t *testing.T) {
	v := NewVideo()
	if err := v.Init(4, 4, 60, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	v.Lock()
	v.SetPixel(1, 2, 10, 20, 30)
	v.Unlock()

	r, g, b := v.GetPixel(1, 2)
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("GetPixel = (%d,%d,%d), want (10,20,30)", r, g, b)
	}
	v.Update()
	if v.Updates() != 1 {
		t.Fatalf("Updates() = %d, want 1", v.Updates())
	}
}

func TestAudioRecordsEnqueuedSamples(t *testing.T) {
	a := NewAudio()
	a.Init(44100)
	a.Enqueue(100, -100)
	a.Enqueue(200, -200)
	got := a.Samples()
	want := []int16{100, -100, 200, -200}
	if len(got) != len(want) {
		t.Fatalf("Samples() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Samples()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestInputInjectDispatchesToMatchingListener(t *testing.T) {
	in := NewInput()
	var got *frontend.InputEvent
	in.Register(frontend.InputConfig{
		Events: []frontend.EventKind{frontend.EventQuit},
		Callback: func(ev frontend.InputEvent) {
			e := ev
			got = &e
		},
	})
	in.Inject(frontend.InputEvent{Kind: frontend.EventKeyboard, Key: "a"})
	if got != nil {
		t.Fatalf("keyboard event dispatched to a quit-only listener")
	}
	in.Inject(frontend.InputEvent{Kind: frontend.EventQuit})
	if got == nil || got.Kind != frontend.EventQuit {
		t.Fatalf("expected quit event dispatched, got %v", got)
	}
}

func TestFileIORejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	fio := &FileIO{Data: dir}
	if _, err := fio.Open(frontend.CategoryData, "../escape.sav"); err == nil {
		t.Fatalf("expected an error opening a path that escapes the category root")
	}
}

func TestFileIOOpenWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fio := &FileIO{Data: dir}
	f, err := fio.Open(frontend.CategoryData, "save.sav")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := f.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(dir + "/save.sav")
	if err != nil || string(data) != "hello" {
		t.Fatalf("file contents = %q, err=%v, want \"hello\"", data, err)
	}
}

func TestCdromSourceReadSectorAndMSFRoundTrip(t *testing.T) {
	image := make([]byte, sectorSize*3)
	for i := range image[sectorSize : sectorSize*2] {
		image[sectorSize+i] = 0xAB
	}
	src := NewCdromSource(image)
	buf := make([]byte, sectorSize)
	n, err := src.ReadSector(buf, 1, cdrom.ModeM1F1)
	if err != nil || n != sectorSize || buf[0] != 0xAB {
		t.Fatalf("ReadSector(lsn=1) = (%d,%v), buf[0]=%#x, want (%d,nil),0xAB", n, err, buf[0], sectorSize)
	}

	lsn := src.FromMSF(src.ToMSF(200))
	if lsn != 200 {
		t.Fatalf("FromMSF(ToMSF(200)) = %d, want 200", lsn)
	}
}
