package apu

// sweep implements the pulse channel's periodic frequency adjuster
// (spec.md §4.4 "Sweep"). isPulse1 selects the ones'-complement quirk:
// pulse 1 subtracts one additional when negating.
type sweep struct {
	enabled  bool
	divider  uint8
	period   uint8
	negate   bool
	shift    uint8
	reload   bool
	isPulse1 bool
}

// targetPeriod computes the candidate period for the current timer
// period, per spec.md §4.4.
func (s *sweep) targetPeriod(current uint16) uint16 {
	change := int32(current >> s.shift)
	if s.negate {
		change = -change
		if s.isPulse1 {
			change--
		}
	}
	target := int32(current) + change
	if target < 0 {
		target = 0
	}
	return uint16(target)
}

// clock runs one "length clock" tick (the sweep unit is clocked by the
// same frame-sequencer event as the length counters) and returns the new
// timer period (0 means "no change") plus whether the channel should be
// silenced this tick.
func (s *sweep) clock(current uint16) (newPeriod uint16, changed bool, silenced bool) {
	target := s.targetPeriod(current)
	silenced = current < 8 || target > 0x7FF

	if s.divider == 0 && s.enabled && s.shift != 0 && !silenced {
		newPeriod = target
		changed = true
	}
	if s.divider == 0 || s.reload {
		s.divider = s.period
		s.reload = false
	} else {
		s.divider--
	}
	// Silencing/target-writeback is inhibited when the sweep is disabled
	// (spec.md §9 Open Questions): the target is still computed above,
	// but only `silenced` driven from `enabled` actually mutes the
	// channel.
	if !s.enabled {
		silenced = false
	}
	return newPeriod, changed, silenced
}

// PulseChannel is one of the two NES pulse/square channels.
type PulseChannel struct {
	env    envelope
	length lengthCounter
	sweep  sweep

	duty          uint8
	dutyStep      uint8
	period        uint16
	timerCount    uint16
	sweepSilenced bool
}

// NewPulseChannel constructs a pulse channel; isPulse1 selects the
// sweep-unit ones'-complement quirk.
func NewPulseChannel(isPulse1 bool) *PulseChannel {
	return &PulseChannel{sweep: sweep{isPulse1: isPulse1}}
}

// WriteControl handles the $4000/$4004-style control register: duty,
// loop/halt, constant-volume flag, volume/envelope-period field.
func (p *PulseChannel) WriteControl(v uint8) {
	p.duty = (v >> 6) & 0x3
	p.env.loop = v&0x20 != 0
	p.length.halted = p.env.loop
	p.env.constantVolume = v&0x10 != 0
	p.env.volumeOrPeriod = v & 0x0F
}

// WriteSweep handles the $4001/$4005-style sweep register.
func (p *PulseChannel) WriteSweep(v uint8) {
	p.sweep.enabled = v&0x80 != 0
	p.sweep.period = (v >> 4) & 0x7
	p.sweep.negate = v&0x08 != 0
	p.sweep.shift = v & 0x07
	p.sweep.reload = true
}

// WriteTimerLow handles the $4002/$4006-style low-byte timer register.
func (p *PulseChannel) WriteTimerLow(v uint8) {
	p.period = (p.period & 0x0700) | uint16(v)
}

// WriteLengthAndTimerHigh handles the $4003/$4007-style register: high 3
// timer bits plus the length-load index, and restarts the envelope and
// duty sequencer.
func (p *PulseChannel) WriteLengthAndTimerHigh(v uint8) {
	p.period = (p.period & 0x00FF) | (uint16(v&0x07) << 8)
	p.length.load(v >> 3)
	p.env.start = true
	p.dutyStep = 0
}

// SetLengthEnabled mirrors the control register's per-channel enable bit.
func (p *PulseChannel) SetLengthEnabled(v bool) { p.length.setEnabled(v) }

// LengthCounter exposes the raw counter, e.g. for a $4015 status read.
func (p *PulseChannel) LengthCounter() uint8 { return p.length.value }

// ClockEnvelope runs the envelope-and-linear-clock frame-sequencer event.
func (p *PulseChannel) ClockEnvelope() { p.env.clock() }

// ClockLength runs the length-clock frame-sequencer event, including the
// sweep unit (which shares the same clock on real hardware).
func (p *PulseChannel) ClockLength() {
	p.length.clock()
	newPeriod, changed, silenced := p.sweep.clock(p.period)
	if changed {
		p.period = newPeriod
	}
	p.sweepSilenced = silenced
}

// ClockTimer advances the pulse timer by one APU cycle (real hardware
// clocks pulse timers every second CPU cycle; callers are expected to
// invoke this at that cadence).
func (p *PulseChannel) ClockTimer() {
	if p.timerCount == 0 {
		p.timerCount = p.period
		p.dutyStep = (p.dutyStep + 1) % 8
	} else {
		p.timerCount--
	}
}

// Output returns the channel's current 4-bit DAC output.
func (p *PulseChannel) Output() uint8 {
	if p.length.silenced() || p.sweepSilenced || p.period < 8 {
		return 0
	}
	if dutyTable[p.duty][p.dutyStep] == 0 {
		return 0
	}
	return p.env.volume()
}
