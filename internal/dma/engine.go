package dma

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
)

// TransferType selects how Engine.Drain expands queued words into
// target RAM (spec.md §4.6).
type TransferType int

const (
	Normal TransferType = iota
	Rep2
	Rep4
	Rep8
	Fill
)

func (t TransferType) groupSize() int {
	switch t {
	case Rep2:
		return 2
	case Rep4:
		return 4
	case Rep8:
		return 8
	default:
		return 1
	}
}

const (
	statusBusy      = 1 << 0
	statusRequest   = 1 << 1
	statusInterrupt = 1 << 7

	regData    = 0x0
	regControl = 0x4
	regStatus  = 0x8
)

// Engine is the SPU/MDEC-pattern DMA-capable FIFO engine. A CPU-side DMA
// channel pushes words into the FIFO; writing the start bit in the
// control register drains it into target RAM according to the current
// transfer type.
type Engine struct {
	fifo *FIFO

	ram      []uint32
	writePtr uint32

	transferType TransferType
	busy         bool
	interrupt    func(line int)
	interruptSet bool

	irqLine int
}

// New constructs an Engine with the given FIFO capacity (words) and RAM
// size (words). irqLine is the interrupt line raised on drain completion.
func New(fifoCapacity, ramWords, irqLine int) *Engine {
	return &Engine{
		fifo:    NewFIFO(fifoCapacity),
		ram:     make([]uint32, ramWords),
		irqLine: irqLine,
	}
}

// Init implements controller.Controller: registers the register window,
// the backing RAM region, and the CPU-driven DMA channel.
func (e *Engine) Init(inst *controller.Instance) error {
	e.interrupt = inst.Interrupt

	regsArea, err := inst.Require("dma-regs", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &regsArea,
		Ops: bus.MemOps{
			WriteL: e.writeRegister,
			ReadL:  e.readRegister,
		},
	}); err != nil {
		return err
	}

	ramArea, err := inst.Require("dma-ram", bus.KindMem)
	if err != nil {
		return err
	}
	if err := inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &ramArea,
		Ops:  e.ramOps(),
	}); err != nil {
		return err
	}

	dmaArea, err := inst.Require("dma-channel", bus.KindDma)
	if err != nil {
		return err
	}
	return inst.Fabric.AddDmaChannel(&bus.DmaChannel{
		Area: &dmaArea,
		Ops: bus.DmaOps{
			WriteL: func(_ uint32, v uint32) { e.Push(v) },
		},
	})
}

// ramOps exposes the word-addressed RAM as a byte-addressable region so
// the fabric's width fallback can synthesize byte/word reads for a CPU
// reading back transferred data.
func (e *Engine) ramOps() bus.MemOps {
	return bus.MemOps{
		ReadL: func(off uint32) uint32 {
			idx := off / 4
			if int(idx) >= len(e.ram) {
				return 0
			}
			return e.ram[idx]
		},
		WriteL: func(off uint32, v uint32) {
			idx := off / 4
			if int(idx) < len(e.ram) {
				e.ram[idx] = v
			}
		},
	}
}

func (e *Engine) writeRegister(offset uint32, v uint32) {
	switch offset {
	case regData:
		e.Push(v)
	case regControl:
		e.transferType = TransferType(v & 0x07)
		if v&0x80000000 != 0 {
			e.Drain()
		}
	case regStatus:
		if v&statusInterrupt != 0 {
			e.interruptSet = false
		}
	}
}

func (e *Engine) readRegister(offset uint32) uint32 {
	if offset != regStatus {
		return 0
	}
	var v uint32
	if e.busy {
		v |= statusBusy
	}
	if !e.fifo.Empty() {
		v |= statusRequest
	}
	if e.interruptSet {
		v |= statusInterrupt
	}
	return v
}

// Push enqueues one word pushed by the CPU-side DMA driver. The caller
// is responsible for charging the scheduler the 4 cycles this transfer
// costs (spec.md §4.6 "every transfer consumes scheduler cycles
// explicitly").
func (e *Engine) Push(v uint32) bool { return e.fifo.Push(v) }

// Drain empties the FIFO into target RAM starting at writePtr, expanding
// words per the current transfer type (spec.md §4.6 and §8 scenario S5),
// then raises the completion interrupt.
func (e *Engine) Drain() {
	e.busy = true
	words := e.fifo.drainAll()

	switch e.transferType {
	case Fill:
		if len(words) > 0 {
			last := words[len(words)-1]
			for range words {
				e.store(last)
			}
		}
	default:
		n := e.transferType.groupSize()
		for i := 0; i < len(words); i += n {
			end := i + n
			if end > len(words) {
				end = len(words)
			}
			group := words[i:end]
			rep := group[0]
			for range group {
				e.store(rep)
			}
		}
	}

	e.busy = false
	e.interruptSet = true
	if e.interrupt != nil {
		e.interrupt(e.irqLine)
	}
}

func (e *Engine) store(v uint32) {
	if int(e.writePtr) < len(e.ram) {
		e.ram[e.writePtr] = v
	}
	e.writePtr++
}

// RAM exposes the backing store directly, for tests and save-state-free
// inspection tooling.
func (e *Engine) RAM() []uint32 { return e.ram }

// Reset implements controller.Controller.
func (e *Engine) Reset() {
	e.fifo.Reset()
	e.writePtr = 0
	e.busy = false
	e.interruptSet = false
	e.transferType = Normal
	for i := range e.ram {
		e.ram[i] = 0
	}
}

// Deinit implements controller.Controller.
func (e *Engine) Deinit() {}
