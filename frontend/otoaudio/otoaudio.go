// Package otoaudio implements frontend.AudioBackend on top of
// ebitengine/oto/v3, the teacher's own audio output dependency
// (audio_backend_oto.go). Enqueue runs on the scheduler thread and feeds
// a small ring buffer; oto's Read callback runs on its own goroutine and
// drains it, the same producer/consumer split the teacher's
// OtoPlayer/SoundChip pair uses, generalized from the teacher's
// single-channel float32 ring to a stereo int16 ring matching this
// core's PCM format (spec.md §6 "signed 16-bit PCM").
package otoaudio

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

const ringCapacity = 1 << 13 // frames (left+right pairs), power of two

type frame struct{ l, r int16 }

// Backend implements frontend.AudioBackend.
type Backend struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	ring    [ringCapacity]frame
	head    int
	size    int
	started bool
}

// New constructs an unopened Backend; call Init to start the oto
// context at a concrete sample rate.
func New() *Backend { return &Backend{} }

func (b *Backend) Init(sampleRateHz int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRateHz,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	})
	if err != nil {
		return err
	}
	<-ready
	b.ctx = ctx
	b.player = ctx.NewPlayer(b)
	return nil
}

// Enqueue drops the oldest frame to make room when the ring is full
// rather than blocking the scheduler thread (spec.md §6 "no
// backpressure... frontend must handle ring-buffer overflow").
func (b *Backend) Enqueue(left, right int16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size == ringCapacity {
		b.head = (b.head + 1) % ringCapacity
		b.size--
	}
	tail := (b.head + b.size) % ringCapacity
	b.ring[tail] = frame{left, right}
	b.size++
}

// Read implements io.Reader for oto.Player: drains queued frames into
// little-endian interleaved int16 PCM, padding with silence if the ring
// underruns.
func (b *Backend) Read(p []byte) (int, error) {
	n := len(p) / 4
	b.mu.Lock()
	for i := 0; i < n; i++ {
		var f frame
		if b.size > 0 {
			f = b.ring[b.head]
			b.head = (b.head + 1) % ringCapacity
			b.size--
		}
		off := i * 4
		p[off] = byte(f.l)
		p[off+1] = byte(f.l >> 8)
		p[off+2] = byte(f.r)
		p[off+3] = byte(f.r >> 8)
	}
	b.mu.Unlock()
	return n * 4, nil
}

func (b *Backend) Start() {
	if b.player != nil && !b.started {
		b.player.Play()
		b.started = true
	}
}

func (b *Backend) Stop() {
	if b.player != nil && b.started {
		b.player.Pause()
		b.started = false
	}
}

func (b *Backend) Deinit() {
	b.Stop()
	if b.player != nil {
		b.player.Close()
		b.player = nil
	}
}
