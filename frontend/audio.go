package frontend

// AudioBackend is the audio frontend contract (spec.md §6 "Audio
// frontend"): signed 16-bit PCM, pushed at the audio clock's rate with
// no backpressure — the backend owns ring-buffer overflow handling, not
// the core.
type AudioBackend interface {
	Init(sampleRateHz int) error
	Enqueue(left, right int16)
	Start()
	Stop()
	Deinit()
}
