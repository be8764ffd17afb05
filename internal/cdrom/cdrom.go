package cdrom

import (
	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// State is one of the four command-engine states spec.md §4.7 names.
type State int

const (
	StateNormal State = iota
	StateRead
	StateSeek
	StatePlay
)

// EngineHz is the coarse command-completion clock. Real CD-ROM hardware
// completes commands after a sector-timing-derived number of CPU
// cycles; this core uses a fixed low-rate clock and a per-command cycle
// count expressed in ticks of that clock; sufficient to exercise the
// asynchronous-completion contract without modeling exact disc timing.
const EngineHz = 1000

const (
	statusBusy        = 1 << 0
	statusParamEmpty  = 1 << 1
	statusParamReady  = 1 << 2
	statusResponseReady = 1 << 3
	statusDataReady   = 1 << 4
)

// pending is an in-flight command awaiting completion.
type pending struct {
	ticksLeft int
	complete  func(c *CDROM)
}

// CDROM is the command/FIFO/state-machine controller.
type CDROM struct {
	state State

	index uint8 // 2-bit register-bank selector, set by the status-register write

	paramFifo    *byteFIFO
	responseFifo *byteFIFO
	dataFifo     *byteFIFO
	sram         [32 * 1024]byte

	interruptFlag   uint8 // pending INTn bits (bit n-1 == INTn pending)
	interruptEnable uint8

	targetLSN uint32
	pendingOp *pending

	source    Source
	interrupt func(line int)
}

const irqLineCDROM = 2

// New constructs a CDROM bound to its disc-image source. source may be
// nil for register-only tests that never issue ReadN/SeekL.
func New(source Source) *CDROM {
	return &CDROM{
		paramFifo:    newByteFIFO(16),
		responseFifo: newByteFIFO(16),
		dataFifo:     newByteFIFO(2352),
		source:       source,
	}
}

// Init implements controller.Controller: registers the command-engine
// clock and the index-banked register window.
func (c *CDROM) Init(inst *controller.Instance) error {
	c.interrupt = inst.Interrupt

	inst.Scheduler.AddClock(&scheduler.Clock{
		Name: inst.Name + ".engine", RateHz: EngineHz,
		Tick: func(ctx *scheduler.TickContext) {
			c.tick()
			ctx.Consume(1)
		},
	})

	area, err := inst.Require("cdrom-regs", bus.KindMem)
	if err != nil {
		return err
	}
	return inst.Fabric.AddRegion(inst.Name, &bus.Region{
		Area: &area,
		Ops: bus.MemOps{
			WriteB: c.writeRegister,
			ReadB:  c.readRegister,
		},
	})
}

func (c *CDROM) tick() {
	if c.pendingOp == nil {
		return
	}
	c.pendingOp.ticksLeft--
	if c.pendingOp.ticksLeft > 0 {
		return
	}
	op := c.pendingOp
	c.pendingOp = nil
	op.complete(c)
}

func (c *CDROM) statusByte() uint8 {
	var v uint8
	if c.pendingOp != nil {
		v |= statusBusy
	}
	if c.paramFifo.Empty() {
		v |= statusParamEmpty
	}
	if !c.paramFifo.Full() {
		v |= statusParamReady
	}
	if !c.responseFifo.Empty() {
		v |= statusResponseReady
	}
	if !c.dataFifo.Empty() {
		v |= statusDataReady
	}
	return v
}

// raiseInterrupt tags a response packet with INTn, queues its bytes, and
// latches + asserts the interrupt line if enabled.
func (c *CDROM) raiseInterrupt(intNum int, data []byte) {
	for _, b := range data {
		if !c.responseFifo.Push(b) {
			break
		}
	}
	bit := uint8(1) << (intNum - 1)
	c.interruptFlag |= bit
	if c.interruptEnable&bit != 0 && c.interrupt != nil {
		c.interrupt(irqLineCDROM)
	}
}

func (c *CDROM) writeRegister(offset uint32, v uint8) {
	switch offset {
	case 0:
		c.index = v & 0x03
	case 1:
		switch c.index {
		case 0:
			c.submit(v)
		}
	case 2:
		switch c.index {
		case 0:
			c.paramFifo.Push(v)
		case 1:
			c.interruptEnable = v & 0x1F
		}
	case 3:
		if c.index == 1 {
			// The interrupt-flag register (read back at this same offset)
			// doubles as the ack register.
			if v&0x40 != 0 {
				c.paramFifo.Reset()
			}
			c.interruptFlag &^= v & 0x1F
		}
	}
}

func (c *CDROM) readRegister(offset uint32) uint8 {
	switch offset {
	case 0:
		return c.statusByte() | c.index<<5
	case 1:
		switch c.index {
		case 0:
			v, _ := c.responseFifo.Pop()
			return v
		case 1:
			return c.interruptEnable
		}
	case 2:
		v, _ := c.dataFifo.Pop()
		return v
	case 3:
		if c.index == 1 {
			return c.interruptFlag
		}
	}
	return 0
}

// command codes this representative engine implements. A real PSX
// CD-ROM has dozens; this core models the handful needed to exercise
// state transitions and asynchronous INTn completion.
const (
	cmdGetStat = 0x01
	cmdSetLoc  = 0x02
	cmdReadN   = 0x06
	cmdPause   = 0x09
	cmdSeekL   = 0x15
)

func (c *CDROM) param() byte {
	v, _ := c.paramFifo.Pop()
	return v
}

// submit begins a command: parameters already queued in paramFifo are
// consumed, state may change immediately, and completion is scheduled
// for a command-specific number of engine ticks (spec.md §5 "long
// synthetic work ... amortized into multiple consumes").
func (c *CDROM) submit(cmd byte) {
	switch cmd {
	case cmdGetStat:
		c.pendingOp = &pending{ticksLeft: 2, complete: func(c *CDROM) {
			c.raiseInterrupt(3, []byte{c.statusByte()})
		}}
	case cmdSetLoc:
		m, s, f := c.param(), c.param(), c.param()
		if c.source != nil {
			c.targetLSN = c.source.FromMSF(m, s, f)
		}
		c.pendingOp = &pending{ticksLeft: 2, complete: func(c *CDROM) {
			c.raiseInterrupt(3, []byte{c.statusByte()})
		}}
	case cmdSeekL:
		c.state = StateSeek
		c.pendingOp = &pending{ticksLeft: 20, complete: func(c *CDROM) {
			c.state = StateNormal
			c.raiseInterrupt(2, []byte{c.statusByte()})
		}}
	case cmdReadN:
		c.state = StateRead
		c.pendingOp = &pending{ticksLeft: 40, complete: func(c *CDROM) {
			if c.source != nil {
				buf := make([]byte, 2048)
				n, _ := c.source.ReadSector(buf, c.targetLSN, ModeM1F1)
				for _, b := range buf[:n] {
					c.dataFifo.Push(b)
				}
				c.targetLSN++
			}
			c.raiseInterrupt(1, []byte{c.statusByte()})
		}}
	case cmdPause:
		c.state = StateNormal
		c.pendingOp = &pending{ticksLeft: 2, complete: func(c *CDROM) {
			c.raiseInterrupt(2, []byte{c.statusByte()})
		}}
	default:
		c.pendingOp = &pending{ticksLeft: 1, complete: func(c *CDROM) {
			c.raiseInterrupt(5, []byte{c.statusByte()})
		}}
	}
}

// Reset implements controller.Controller.
func (c *CDROM) Reset() {
	c.state = StateNormal
	c.index = 0
	c.paramFifo.Reset()
	c.responseFifo.Reset()
	c.dataFifo.Reset()
	c.interruptFlag = 0
	c.interruptEnable = 0
	c.targetLSN = 0
	c.pendingOp = nil
}

// Deinit implements controller.Controller.
func (c *CDROM) Deinit() {}
