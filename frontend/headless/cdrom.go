package headless

import "github.com/intuitionamiga/emux/internal/cdrom"

const sectorSize = 2048

// CdromSource implements cdrom.Source over an in-memory byte image, one
// fixed-size sector per LSN, for tests and headless system
// configurations that need a disc without reading a real file.
type CdromSource struct {
	image []byte
}

// NewCdromSource wraps image, which callers should size to a multiple
// of the sector size.
func NewCdromSource(image []byte) *CdromSource { return &CdromSource{image: image} }

func (s *CdromSource) FirstTrack() int { return 1 }
func (s *CdromSource) LastTrack() int  { return 1 }

func (s *CdromSource) ToMSF(lsn uint32) (m, sec, f uint8) {
	total := lsn + 150 // 2-second pregap, standard CD-ROM LSN-to-MSF offset
	return toBCD(uint8(total / 4500)), toBCD(uint8((total / 75) % 60)), toBCD(uint8(total % 75))
}

func (s *CdromSource) FromMSF(m, sec, f uint8) uint32 {
	mm, ss, ff := fromBCD(m), fromBCD(sec), fromBCD(f)
	return uint32(mm)*4500 + uint32(ss)*75 + uint32(ff) - 150
}

func (s *CdromSource) ReadSector(buf []byte, lsn uint32, mode cdrom.Mode) (int, error) {
	off := int(lsn) * sectorSize
	if off+sectorSize > len(s.image) {
		n := copy(buf, make([]byte, sectorSize))
		return n, nil
	}
	return copy(buf, s.image[off:off+sectorSize]), nil
}

func toBCD(v uint8) uint8   { return (v/10)<<4 | (v % 10) }
func fromBCD(v uint8) uint8 { return (v>>4)*10 + (v & 0xF) }
