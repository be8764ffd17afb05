package cdrom

// Mode selects the raw-sector read format (spec.md §6 "CD-ROM source").
type Mode int

const (
	ModeAudio Mode = iota
	ModeM1F1
	ModeM1F2
	ModeM2F1
	ModeM2F2
)

// Source is the external disc-image collaborator (spec.md §6): opaque
// disc image access, sector/MSF conversion and raw-sector reads. The
// core never parses a disc image itself.
type Source interface {
	FirstTrack() int
	LastTrack() int
	ToMSF(lsn uint32) (m, s, f uint8)   // BCD-encoded, as transported on the bus
	FromMSF(m, s, f uint8) uint32
	ReadSector(buf []byte, lsn uint32, mode Mode) (int, error)
}
