package record

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/pkg/errors"
)

// Format distinguishes the two physical record layouts a page can carry,
// selected by the top bit of the index header's n_heap field.
type Format int

const (
	FormatCompact Format = iota
	FormatRedundant
)

// RecType is a record's role: a real row, an internal node pointer, or
// one of the two fixed system records bounding every page's chain.
type RecType uint8

const (
	RecConventional RecType = 0
	RecNodePointer  RecType = 1
	RecInfimum      RecType = 2
	RecSupremum     RecType = 3
)

func (t RecType) String() string {
	switch t {
	case RecConventional:
		return "conventional"
	case RecNodePointer:
		return "node_pointer"
	case RecInfimum:
		return "infimum"
	case RecSupremum:
		return "supremum"
	default:
		return "unknown"
	}
}

const (
	compactHeaderSize   = 5
	redundantHeaderSize = 6

	infoMinRecFlag  = 0x10
	infoDeletedFlag = 0x20
)

// Header is the record's fixed-size header, stored immediately before
// its origin.
type Header struct {
	Format     Format
	Type       RecType
	HeapNo     uint16
	Owned      uint8
	MinRec     bool
	Deleted    bool
	OffsetSize int // redundant format only: 1 or 2 bytes per field offset entry
	nextRaw    int32
}

// NextOrigin resolves the header's next-record pointer to an absolute
// byte offset within the page: compact format stores it as a signed
// 16-bit delta from this record's own origin, redundant format stores
// it as an absolute offset directly.
func (h Header) NextOrigin(origin int) int {
	if h.Format == FormatCompact {
		return origin + int(h.nextRaw)
	}
	return int(h.nextRaw)
}

// readHeader reads the fixed header immediately preceding origin. The
// cursor is left positioned at the header's start (origin -
// headerSize), ready for the caller to continue reading the
// variable-length bookkeeping further backward.
func readHeader(c *cursor.Cursor, origin int, format Format) (Header, error) {
	c.Seek(origin).Backward()
	switch format {
	case FormatCompact:
		b, err := c.ReadBytes(compactHeaderSize)
		if err != nil {
			return Header{}, err
		}
		infoByte := b[0]
		v := uint16(b[1])<<8 | uint16(b[2])
		next := int16(uint16(b[3])<<8 | uint16(b[4]))
		return Header{
			Format:  FormatCompact,
			Type:    RecType(v & 0x7),
			HeapNo:  v >> 3,
			Owned:   infoByte & 0x0F,
			MinRec:  infoByte&infoMinRecFlag != 0,
			Deleted: infoByte&infoDeletedFlag != 0,
			nextRaw: int32(next),
		}, nil
	case FormatRedundant:
		b, err := c.ReadBytes(redundantHeaderSize)
		if err != nil {
			return Header{}, err
		}
		infoByte := b[0]
		v := uint16(b[1])<<8 | uint16(b[2])
		next := uint16(b[3])<<8 | uint16(b[4])
		offsetSize := 2
		if b[5]&0x80 != 0 {
			offsetSize = 1
		}
		return Header{
			Format:     FormatRedundant,
			Type:       RecType(v & 0x7),
			HeapNo:     v >> 3,
			Owned:      infoByte & 0x0F,
			MinRec:     infoByte&infoMinRecFlag != 0,
			Deleted:    infoByte&infoDeletedFlag != 0,
			OffsetSize: offsetSize,
			nextRaw:    int32(next),
		}, nil
	default:
		return Header{}, errors.Errorf("record: unknown format %d", format)
	}
}
