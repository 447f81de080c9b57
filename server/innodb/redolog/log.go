package redolog

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

const (
	// HeaderBlocks is how many BlockSize blocks the log file's fixed
	// header occupies before record data begins: the file header
	// (block 0), the first checkpoint descriptor (block 1), an unused
	// block (block 2), and the second checkpoint descriptor (block 3).
	HeaderBlocks = 4

	// HeaderSize is HeaderBlocks in bytes.
	HeaderSize = HeaderBlocks * BlockSize

	fileHdrGroupID = 0
	fileHdrStartLSN = 4
	fileHdrFileNo   = 12
	fileHdrCreator  = 16
	fileHdrCreatorLen = 32

	cpNo           = 0
	cpLSN          = 8
	cpOffset       = 16
	cpLogBufSize   = 24
	cpArchivedLSN  = 28
	cpGroupArray   = 36
	cpGroupSlots   = 32
	cpGroupSlotLen = 8
	cpChecksum1    = cpGroupArray + cpGroupSlots*cpGroupSlotLen // 292
	cpChecksum2    = cpChecksum1 + 4                            // 296
	cpFspFreeLimit = cpChecksum2 + 4                             // 300
	cpFspMagicN    = cpFspFreeLimit + 4                          // 304
)

// FileHeader is the first block of a log file.
type FileHeader struct {
	GroupID   uint32
	StartLSN  uint64
	FileNo    uint32
	Creator   string
}

// Checkpoint is one of a log file's two duplicated checkpoint
// descriptors (blocks 1 and 3).
type Checkpoint struct {
	Number        uint64
	LSN           uint64
	LSNOffset     uint64
	LogBufSize    uint32
	ArchivedLSN   uint64
	Checksum1     uint32
	Checksum2     uint32
	FspFreeLimit  uint32
	FspMagicN     uint32
}

func be32(b []byte, off int) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

func be64(b []byte, off int) uint64 {
	return uint64(be32(b, off))<<32 | uint64(be32(b, off+4))
}

func parseFileHeader(b []byte) FileHeader {
	creator := string(b[fileHdrCreator : fileHdrCreator+fileHdrCreatorLen])
	return FileHeader{
		GroupID:  be32(b, fileHdrGroupID),
		StartLSN: be64(b, fileHdrStartLSN),
		FileNo:   be32(b, fileHdrFileNo),
		Creator:  strings.TrimRight(creator, "\x00"),
	}
}

func parseCheckpoint(b []byte) Checkpoint {
	return Checkpoint{
		Number:       be64(b, cpNo),
		LSN:          be64(b, cpLSN),
		LSNOffset:    be64(b, cpOffset),
		LogBufSize:   be32(b, cpLogBufSize),
		ArchivedLSN:  be64(b, cpArchivedLSN),
		Checksum1:    be32(b, cpChecksum1),
		Checksum2:    be32(b, cpChecksum2),
		FspFreeLimit: be32(b, cpFspFreeLimit),
		FspMagicN:    be32(b, cpFspMagicN),
	}
}

// Log is one member file of a log group, opened read-only.
type Log struct {
	f      *os.File
	blocks int64

	header FileHeader
	cp1    Checkpoint
	cp2    Checkpoint
}

// Open opens path and parses its fixed header.
func Open(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "redolog: opening %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "redolog: stat %s", path)
	}
	l := &Log{f: f, blocks: fi.Size() / BlockSize}

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		f.Close()
		return nil, ierrors.Wrapf(ierrors.ErrPageReadError, "redolog: reading header of %s: %v", path, err)
	}
	l.header = parseFileHeader(header[0:BlockSize])
	l.cp1 = parseCheckpoint(header[BlockSize : 2*BlockSize])
	l.cp2 = parseCheckpoint(header[3*BlockSize : 4*BlockSize])
	return l, nil
}

// Close releases the underlying file descriptor.
func (l *Log) Close() error { return l.f.Close() }

// FileHeader returns the log's parsed file header.
func (l *Log) FileHeader() FileHeader { return l.header }

// Checkpoint1 is the first of the two duplicated checkpoint descriptors.
func (l *Log) Checkpoint1() Checkpoint { return l.cp1 }

// Checkpoint2 is the second of the two duplicated checkpoint descriptors.
func (l *Log) Checkpoint2() Checkpoint { return l.cp2 }

// LatestCheckpoint returns whichever of the two checkpoint descriptors
// has the higher checkpoint number — the one recovery should trust.
func (l *Log) LatestCheckpoint() Checkpoint {
	if l.cp2.Number > l.cp1.Number {
		return l.cp2
	}
	return l.cp1
}

// Blocks is the number of BlockSize blocks in the file, header included.
func (l *Log) Blocks() int64 { return l.blocks }

// DataBlocks is the number of blocks available for record data, past
// the fixed header.
func (l *Log) DataBlocks() int64 { return l.blocks - HeaderBlocks }

// Block reads and wraps the i'th data block (0-based, past the header).
func (l *Log) Block(i int64) (*LogBlock, error) {
	if i < 0 || i >= l.DataBlocks() {
		return nil, ierrors.Wrapf(ierrors.ErrPageReadError, "redolog: block %d out of range (%d data blocks)", i, l.DataBlocks())
	}
	buf := make([]byte, BlockSize)
	off := int64(HeaderSize) + i*BlockSize
	if _, err := l.f.ReadAt(buf, off); err != nil {
		return nil, ierrors.Wrapf(ierrors.ErrPageReadError, "redolog: reading block %d: %v", i, err)
	}
	return NewLogBlock(buf)
}

// EachBlock calls fn for every data block in order, stopping at the
// first error fn returns or that reading a block returns.
func (l *Log) EachBlock(fn func(i int64, b *LogBlock) error) error {
	for i := int64(0); i < l.DataBlocks(); i++ {
		b, err := l.Block(i)
		if err != nil {
			return err
		}
		if err := fn(i, b); err != nil {
			return err
		}
	}
	return nil
}
