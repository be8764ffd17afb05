package apu

// envelope implements the 15-count decay unit shared by the pulse and
// noise channels (spec.md §4.4 "Envelope").
type envelope struct {
	start          bool
	divider        uint8
	decayLevel     uint8
	loop           bool // also the channel's length-counter halt flag
	constantVolume bool
	volumeOrPeriod uint8
}

// clock runs one "envelope clock" tick from the frame sequencer.
func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decayLevel = 15
		e.divider = e.volumeOrPeriod
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.volumeOrPeriod
	if e.decayLevel > 0 {
		e.decayLevel--
	} else if e.loop {
		e.decayLevel = 15
	}
}

// volume returns the channel's current output level.
func (e *envelope) volume() uint8 {
	if e.constantVolume {
		return e.volumeOrPeriod
	}
	return e.decayLevel
}

// lengthCounter is the per-channel silencing down-counter (spec.md §4.4
// "Length counter").
type lengthCounter struct {
	value    uint8
	halted   bool
	enabled  bool
}

// clock runs one "length clock" tick from the frame sequencer.
func (l *lengthCounter) clock() {
	if !l.halted && l.value > 0 {
		l.value--
	}
}

func (l *lengthCounter) silenced() bool { return l.value == 0 }

// setEnabled implements the control-register contract: disabling a
// channel zeroes its counter and latches silencing; re-enabling does not
// by itself reload it (a length-load write does that).
func (l *lengthCounter) setEnabled(v bool) {
	l.enabled = v
	if !v {
		l.value = 0
	}
}

// load reloads the counter from the 32-entry table by index, only if the
// length counter is enabled in the control register.
func (l *lengthCounter) load(index uint8) {
	if !l.enabled {
		return
	}
	l.value = lengthTable[index&0x1F]
}
