// Package redolog decodes the InnoDB redo log: the fixed-size blocks a
// log file is chopped into, the file header and duplicated checkpoint
// descriptors that begin every log, and the MLOG_* records a block's
// data area carries — the write-ahead history that crash recovery
// replays against the tablespace.
package redolog

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

const (
	// BlockSize is the fixed size of every redo log block, independent
	// of the tablespace page size.
	BlockSize = 512

	// DataOffset is where a block's record data begins, past the
	// 12-byte header.
	DataOffset = 12

	// TrailerSize is the 4-byte checksum trailer's size.
	TrailerSize = 4

	// TrailerOffset is where the checksum trailer begins.
	TrailerOffset = BlockSize - TrailerSize

	blockHdrNo       = 0
	blockHdrDataLen  = 4
	blockHdrFirstRec = 6
	blockHdrCheckpNo = 8

	flushFlag = 1 << 31
)

// LogBlock wraps one BlockSize-byte slice of a log file.
type LogBlock struct {
	buf []byte
}

// NewLogBlock wraps buf, which must be exactly BlockSize bytes.
func NewLogBlock(buf []byte) (*LogBlock, error) {
	if len(buf) != BlockSize {
		return nil, ierrors.Wrapf(ierrors.ErrPageReadError, "redolog: block is %d bytes, want %d", len(buf), BlockSize)
	}
	return &LogBlock{buf: buf}, nil
}

func (b *LogBlock) be32(off int) uint32 {
	return uint32(b.buf[off])<<24 | uint32(b.buf[off+1])<<16 | uint32(b.buf[off+2])<<8 | uint32(b.buf[off+3])
}

// Flush reports whether this block is the last one flushed to disk in
// its write (the top bit of the block-number word).
func (b *LogBlock) Flush() bool { return b.be32(blockHdrNo)&flushFlag != 0 }

// Number is the block's sequence number, masked to its low 31 bits.
func (b *LogBlock) Number() uint32 { return b.be32(blockHdrNo) &^ flushFlag }

// DataLength is the number of data bytes the block carries, including
// the 12-byte header; BlockSize means the block is completely full.
func (b *LogBlock) DataLength() uint16 {
	return uint16(b.buf[blockHdrDataLen])<<8 | uint16(b.buf[blockHdrDataLen+1])
}

// FirstRecGroup is the byte offset of the first record group that
// starts within this block, or 0 if none does (the block only
// continues a record begun earlier).
func (b *LogBlock) FirstRecGroup() uint16 {
	return uint16(b.buf[blockHdrFirstRec])<<8 | uint16(b.buf[blockHdrFirstRec+1])
}

// CheckpointNo is the checkpoint number in effect when this block was
// written.
func (b *LogBlock) CheckpointNo() uint32 { return b.be32(blockHdrCheckpNo) }

// StoredChecksum is the checksum recorded in the block's trailer.
func (b *LogBlock) StoredChecksum() uint32 { return b.be32(TrailerOffset) }

// CalculateChecksum recomputes the block's checksum: a 1-initialized
// accumulator folds in every byte before the trailer, each contributing
// itself once straight and once shifted by a 0/8/16/24-bit rolling
// shift, masked to 31 bits before each addition.
func (b *LogBlock) CalculateChecksum() uint32 {
	var c uint32 = 1
	var shift uint = 0
	for i := 0; i < TrailerOffset; i++ {
		v := uint32(b.buf[i])
		c = (c & 0x7fffffff) + v + (v << shift)
		shift++
		if shift > 24 {
			shift = 0
		}
	}
	return c
}

// Corrupt reports whether the stored checksum doesn't match the
// recomputed one.
func (b *LogBlock) Corrupt() bool { return b.StoredChecksum() != b.CalculateChecksum() }

// Data returns the block's record-carrying bytes: from DataOffset up to
// whichever is smaller, the declared data length or the space before
// the trailer.
func (b *LogBlock) Data() []byte {
	n := int(b.DataLength())
	if n > TrailerOffset {
		n = TrailerOffset
	}
	if n < DataOffset {
		return nil
	}
	return b.buf[DataOffset:n]
}

// Full reports whether the block is completely packed with data, i.e.
// the log hasn't yet written a short final block.
func (b *LogBlock) Full() bool { return int(b.DataLength()) == BlockSize }
