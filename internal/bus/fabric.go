package bus

import (
	"fmt"

	"github.com/intuitionamiga/emux/internal/ratelog"
)

// entry pairs a registered Region with the owner name used for removal.
type entry struct {
	region *Region
	owner  string
}

// portEntry is the port-space analogue of entry.
type portEntry struct {
	region *PortRegion
	owner  string
}

// Fabric is the bus/region dispatch fabric (spec.md §4.2). One Fabric
// instance is shared by every controller in a machine; buses are
// distinguished by name ("cpu", "ppu", "smbus", ...) so e.g. a PPU's VRAM
// bus and a CPU's address bus never collide even though both may use
// overlapping numeric ranges.
type Fabric struct {
	mem   map[string][]entry
	ports []portEntry
	dma   map[int]*DmaChannel

	warn *ratelog.Logger
}

// NewFabric constructs an empty fabric. A nil logger defaults to the
// standard logger.
func NewFabric(warn *ratelog.Logger) *Fabric {
	if warn == nil {
		warn = ratelog.New(nil)
	}
	return &Fabric{
		mem:  make(map[string][]entry),
		dma:  make(map[int]*DmaChannel),
		warn: warn,
	}
}

// AddRegion registers a region on its resource's bus. Regions are ordered
// by insertion recency: later insertions shadow earlier ones on overlap
// (spec.md §3 "Region"), which is the only overlay mechanism (e.g. a boot
// ROM shadowing the first kilobytes of cart ROM until disabled).
func (f *Fabric) AddRegion(owner string, r *Region) error {
	if r.Area == nil || r.Area.Kind != KindMem {
		return fmt.Errorf("bus: AddRegion requires a Mem resource, got %v", r.Area)
	}
	if err := r.Area.Validate(); err != nil {
		return err
	}
	r.owner = owner
	f.mem[r.Area.BusID] = append(f.mem[r.Area.BusID], entry{region: r, owner: owner})
	return nil
}

// RemoveRegion removes the first region on busID that is r itself (by
// pointer); the owner is not consulted. Used by dynamic overlays (disabling a
// boot ROM) and by controller Deinit.
func (f *Fabric) RemoveRegion(busID string, r *Region) {
	list := f.mem[busID]
	for i, e := range list {
		if e.region == r {
			f.mem[busID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// RemoveOwner removes every region and port region registered by owner on
// every bus. Used by controller Deinit to reverse every registration.
func (f *Fabric) RemoveOwner(owner string) {
	for bus, list := range f.mem {
		kept := list[:0]
		for _, e := range list {
			if e.owner != owner {
				kept = append(kept, e)
			}
		}
		f.mem[bus] = kept
	}
	kept := f.ports[:0]
	for _, e := range f.ports {
		if e.owner != owner {
			kept = append(kept, e)
		}
	}
	f.ports = kept
	for ch, d := range f.dma {
		if d.Area != nil && d.Area.Name == owner {
			delete(f.dma, ch)
		}
	}
}

// lookup scans busID most-recently-added first, returning the region and
// the local offset to use within it (mirror-folded where applicable).
func (f *Fabric) lookup(busID string, addr uint32) (*Region, uint32, bool) {
	list := f.mem[busID]
	for i := len(list) - 1; i >= 0; i-- {
		area := list[i].region.Area
		if area.Range.Contains(addr) {
			return list[i].region, addr - area.Range.Start, true
		}
		for _, m := range area.Mirrors {
			if m.Contains(addr) {
				parentSize := area.Range.Size()
				offset := (addr - m.Start) % parentSize
				return list[i].region, offset, true
			}
		}
	}
	return nil, 0, false
}

// ReadB, ReadW and ReadL perform a width-typed read on busID, folding
// mirrors and synthesizing narrower reads when the exact-width op is
// absent (spec.md §4.2 "Width fallback"). Unmapped accesses return 0 and
// log once per address.
func (f *Fabric) ReadB(busID string, addr uint32) uint8 {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("read", busID, addr, 1)
		return 0
	}
	if r.Ops.ReadB != nil {
		return r.Ops.ReadB(off)
	}
	if r.Ops.ReadW != nil {
		return uint8(r.Ops.ReadW(off &^ 1))
	}
	f.warnUnmapped("read", busID, addr, 1)
	return 0
}

func (f *Fabric) ReadW(busID string, addr uint32) uint16 {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("read", busID, addr, 2)
		return 0
	}
	if r.Ops.ReadW != nil {
		return r.Ops.ReadW(off)
	}
	if r.Ops.ReadB != nil {
		lo := uint16(r.Ops.ReadB(off))
		hi := uint16(r.Ops.ReadB(off + 1))
		return lo | hi<<8
	}
	f.warnUnmapped("read", busID, addr, 2)
	return 0
}

func (f *Fabric) ReadL(busID string, addr uint32) uint32 {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("read", busID, addr, 4)
		return 0
	}
	if r.Ops.ReadL != nil {
		return r.Ops.ReadL(off)
	}
	if r.Ops.ReadW != nil {
		lo := uint32(r.Ops.ReadW(off))
		hi := uint32(r.Ops.ReadW(off + 2))
		return lo | hi<<16
	}
	if r.Ops.ReadB != nil {
		var v uint32
		for i := uint32(0); i < 4; i++ {
			v |= uint32(r.Ops.ReadB(off+i)) << (8 * i)
		}
		return v
	}
	f.warnUnmapped("read", busID, addr, 4)
	return 0
}

// WriteB, WriteW and WriteL are the write counterparts of ReadB/W/L.
// Writes to unmapped addresses are dropped.
func (f *Fabric) WriteB(busID string, addr uint32, v uint8) {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("write", busID, addr, 1)
		return
	}
	if r.Ops.WriteB != nil {
		r.Ops.WriteB(off, v)
		return
	}
	if r.Ops.WriteW != nil {
		r.Ops.WriteW(off&^1, uint16(v))
		return
	}
	f.warnUnmapped("write", busID, addr, 1)
}

func (f *Fabric) WriteW(busID string, addr uint32, v uint16) {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("write", busID, addr, 2)
		return
	}
	if r.Ops.WriteW != nil {
		r.Ops.WriteW(off, v)
		return
	}
	if r.Ops.WriteB != nil {
		r.Ops.WriteB(off, uint8(v))
		r.Ops.WriteB(off+1, uint8(v>>8))
		return
	}
	f.warnUnmapped("write", busID, addr, 2)
}

func (f *Fabric) WriteL(busID string, addr uint32, v uint32) {
	r, off, ok := f.lookup(busID, addr)
	if !ok {
		f.warnUnmapped("write", busID, addr, 4)
		return
	}
	if r.Ops.WriteL != nil {
		r.Ops.WriteL(off, v)
		return
	}
	if r.Ops.WriteW != nil {
		r.Ops.WriteW(off, uint16(v))
		r.Ops.WriteW(off+2, uint16(v>>16))
		return
	}
	if r.Ops.WriteB != nil {
		for i := uint32(0); i < 4; i++ {
			r.Ops.WriteB(off+i, uint8(v>>(8*i)))
		}
		return
	}
	f.warnUnmapped("write", busID, addr, 4)
}

func (f *Fabric) warnUnmapped(op, busID string, addr uint32, width int) {
	err := &AccessError{Op: op, BusID: busID, Addr: addr, Width: width, Err: ErrUnmapped}
	f.warn.Once(fmt.Sprintf("%s:%s:%#x", busID, op, addr), "bus: %v", err)
}

// AddPortRegion registers a port region, keyed by an 8-bit port index
// shared across all controllers on the machine (spec.md §4.2 "Ports").
func (f *Fabric) AddPortRegion(owner string, r *PortRegion) error {
	if r.Area == nil || r.Area.Kind != KindPort {
		return fmt.Errorf("bus: AddPortRegion requires a Port resource")
	}
	r.owner = owner
	f.ports = append(f.ports, portEntry{region: r, owner: owner})
	return nil
}

func (f *Fabric) portLookup(port uint8) (*PortRegion, uint8, bool) {
	addr := uint32(port)
	for i := len(f.ports) - 1; i >= 0; i-- {
		area := f.ports[i].region.Area
		if area.Range.Contains(addr) {
			return f.ports[i].region, uint8(addr - area.Range.Start), true
		}
		for _, m := range area.Mirrors {
			if m.Contains(addr) {
				return f.ports[i].region, uint8((addr - m.Start) % area.Range.Size()), true
			}
		}
	}
	return nil, 0, false
}

// In reads a byte from the shared port namespace.
func (f *Fabric) In(port uint8) uint8 {
	r, off, ok := f.portLookup(port)
	if !ok || r.Ops.In == nil {
		f.warnUnmapped("read", "port", uint32(port), 1)
		return 0
	}
	return r.Ops.In(off)
}

// Out writes a byte to the shared port namespace.
func (f *Fabric) Out(port uint8, v uint8) {
	r, off, ok := f.portLookup(port)
	if !ok || r.Ops.Out == nil {
		f.warnUnmapped("write", "port", uint32(port), 1)
		return
	}
	r.Ops.Out(off, v)
}

// AddDmaChannel registers a DMA channel by number.
func (f *Fabric) AddDmaChannel(ch *DmaChannel) error {
	if ch.Area == nil || ch.Area.Kind != KindDma {
		return fmt.Errorf("bus: AddDmaChannel requires a Dma resource")
	}
	f.dma[ch.Area.Channel] = ch
	return nil
}

// DmaChannel returns the channel registered under number n, if any.
func (f *Fabric) DmaChannel(n int) (*DmaChannel, bool) {
	ch, ok := f.dma[n]
	return ch, ok
}
