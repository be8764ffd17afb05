package apu

// NoiseChannel implements the LFSR-based noise channel: width 15, tap at
// bit 0 XOR bit {1 or 6} selected by the mode flag (spec.md §4.4
// "Channels").
type NoiseChannel struct {
	env    envelope
	length lengthCounter

	mode       bool // true selects the bit-6 tap (tighter, metallic noise)
	periodIdx  uint8
	timerCount uint16
	lfsr       uint16
}

// NewNoiseChannel constructs a noise channel with the LFSR seeded to its
// power-on value (any nonzero seed works; 1 matches common references).
func NewNoiseChannel() *NoiseChannel {
	return &NoiseChannel{lfsr: 1}
}

// WriteControl handles the $400C-style control register.
func (n *NoiseChannel) WriteControl(v uint8) {
	n.env.loop = v&0x20 != 0
	n.length.halted = n.env.loop
	n.env.constantVolume = v&0x10 != 0
	n.env.volumeOrPeriod = v & 0x0F
}

// WritePeriod handles the $400E-style register: mode flag and 4-bit
// period-table index.
func (n *NoiseChannel) WritePeriod(v uint8) {
	n.mode = v&0x80 != 0
	n.periodIdx = v & 0x0F
}

// WriteLength handles the $400F-style register: length-load index plus
// envelope restart.
func (n *NoiseChannel) WriteLength(v uint8) {
	n.length.load(v >> 3)
	n.env.start = true
}

// SetLengthEnabled mirrors the control register's per-channel enable bit.
func (n *NoiseChannel) SetLengthEnabled(v bool) { n.length.setEnabled(v) }

// LengthCounter exposes the raw counter for a status read.
func (n *NoiseChannel) LengthCounter() uint8 { return n.length.value }

// ClockLength runs the length-clock frame-sequencer event.
func (n *NoiseChannel) ClockLength() { n.length.clock() }

// ClockEnvelope runs the envelope-and-linear-clock event.
func (n *NoiseChannel) ClockEnvelope() { n.env.clock() }

// ClockTimer advances the noise timer by one APU cycle (noise, like
// pulse, clocks every second APU cycle; callers invoke at that cadence).
func (n *NoiseChannel) ClockTimer() {
	if n.timerCount == 0 {
		n.timerCount = noisePeriodTableNTSC[n.periodIdx]
		var tapBit uint16
		if n.mode {
			tapBit = (n.lfsr >> 6) & 1
		} else {
			tapBit = (n.lfsr >> 1) & 1
		}
		feedback := (n.lfsr & 1) ^ tapBit
		n.lfsr >>= 1
		n.lfsr |= feedback << 14
	} else {
		n.timerCount--
	}
}

// Output returns the channel's current 4-bit DAC output: silenced when
// the length counter is zero or LFSR bit 0 is set.
func (n *NoiseChannel) Output() uint8 {
	if n.length.silenced() || n.lfsr&1 != 0 {
		return 0
	}
	return n.env.volume()
}
