// Package apu implements the representative audio core of spec.md §4.4:
// an NES-style frame sequencer driving two pulse channels, a triangle,
// a noise LFSR channel and a DMC delta-PCM channel with its own CPU-bus
// DMA reader. It is grounded in the teacher's audio_chip.go envelope and
// PSGEngine (psg_engine.go) register-mutex idioms, generalized from
// those chips' continuous-waveform synthesis to the NES APU's discrete
// length/envelope/sweep/linear-counter state machine.
package apu

// lengthTable is the 32-entry length-counter load table (spec.md §4.4
// "Length counter").
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// noisePeriodTableNTSC is the 4-bit noise-timer-period lookup (NTSC).
var noisePeriodTableNTSC = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// dmcRateTableNTSC is the 4-bit DMC-timer-period lookup (NTSC).
var dmcRateTableNTSC = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// dutyTable holds the four 8-step duty-cycle waveforms for the pulse
// channels (12.5%, 25%, 50%, 25%-negated).
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// triangleSeq is the 32-step triangle waveform.
var triangleSeq = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Frame-sequencer step schedules (spec.md §4.4 table): bit 0 = length
// clock, bit 1 = envelope/linear clock, bit 2 = frame IRQ.
const (
	evLength = 1 << iota
	evEnvelope
	evIRQ
)

var sequenceMode0 = [4]uint8{evEnvelope, evLength | evEnvelope, evEnvelope, evLength | evEnvelope | evIRQ}
var sequenceMode1 = [5]uint8{evLength | evEnvelope, evEnvelope, evLength | evEnvelope, evEnvelope, 0}
