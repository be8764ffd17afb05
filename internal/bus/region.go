package bus

// MemOps is the set of access functions a Region may implement. Any
// non-empty subset is valid; nil entries mean "not implemented" and may
// be synthesized from narrower ops by the fabric's Read*/Write* methods;
// an access that cannot be served is logged as an ErrUnmapped warning.
type MemOps struct {
	ReadB  func(offset uint32) uint8
	ReadW  func(offset uint32) uint16
	ReadL  func(offset uint32) uint32
	WriteB func(offset uint32, v uint8)
	WriteW func(offset uint32, v uint16)
	WriteL func(offset uint32, v uint32)
}

// Region binds a Resource to its operations. Data is the opaque backing
// store (a byte slice, a struct pointer) the owning controller uses from
// within Ops; the fabric never touches it directly.
type Region struct {
	Area *Resource
	Ops  MemOps
	Data any

	owner string // controller name, for diagnostics only
}

// PortOps mirrors MemOps for the 8-bit port address space (§4.2 "Ports").
type PortOps struct {
	In  func(port uint8) uint8
	Out func(port uint8, v uint8)
}

// PortRegion is the port-space analogue of Region.
type PortRegion struct {
	Area *Resource
	Ops  PortOps
	Data any

	owner string
}

// DmaOps is the channel-level read/write pair a DMA-capable region
// exposes; every transfer consumes scheduler cycles explicitly via the
// caller, not the fabric (§4.2).
type DmaOps struct {
	ReadL  func(offset uint32) uint32
	WriteL func(offset uint32, v uint32)
}

// DmaChannel binds a channel number to its DMA operations.
type DmaChannel struct {
	Area *Resource
	Ops  DmaOps
	Data any
}

// RomOps returns a read-only MemOps backed by data: reads return the
// underlying byte/word/long (little-endian), writes are silently
// dropped. This is the fabric's canonical ROM helper (§4.2).
func RomOps(data []byte) MemOps {
	return MemOps{
		ReadB: func(off uint32) uint8 {
			if int(off) >= len(data) {
				return 0
			}
			return data[off]
		},
		ReadW: func(off uint32) uint16 {
			if int(off)+1 >= len(data) {
				return 0
			}
			return uint16(data[off]) | uint16(data[off+1])<<8
		},
		ReadL: func(off uint32) uint32 {
			if int(off)+3 >= len(data) {
				return 0
			}
			return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		},
		WriteB: func(uint32, uint8) {},
		WriteW: func(uint32, uint16) {},
		WriteL: func(uint32, uint32) {},
	}
}

// RamOps returns a full read/write MemOps over a backing byte slice. The
// slice is shared, not copied: callers retain direct access for
// controller-internal use (DMA, save-state dumps, battery RAM flush).
func RamOps(data []byte) MemOps {
	return MemOps{
		ReadB: func(off uint32) uint8 {
			if int(off) >= len(data) {
				return 0
			}
			return data[off]
		},
		ReadW: func(off uint32) uint16 {
			if int(off)+1 >= len(data) {
				return 0
			}
			return uint16(data[off]) | uint16(data[off+1])<<8
		},
		ReadL: func(off uint32) uint32 {
			if int(off)+3 >= len(data) {
				return 0
			}
			return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		},
		WriteB: func(off uint32, v uint8) {
			if int(off) < len(data) {
				data[off] = v
			}
		},
		WriteW: func(off uint32, v uint16) {
			if int(off)+1 < len(data) {
				data[off] = uint8(v)
				data[off+1] = uint8(v >> 8)
			}
		},
		WriteL: func(off uint32, v uint32) {
			if int(off)+3 < len(data) {
				data[off] = uint8(v)
				data[off+1] = uint8(v >> 8)
				data[off+2] = uint8(v >> 16)
				data[off+3] = uint8(v >> 24)
			}
		},
	}
}
