package redolog

// FrameSize is the per-block overhead an LSN delta must account for:
// every DataSize bytes of record data consumed, the next block's header
// and trailer (12+4 bytes) sit in between and have to be skipped too.
// Mirrors InnoDB's recv_calc_lsn_on_data_add: an LSN advance of a given
// amount of record-data bytes is larger than that amount by one
// FrameSize per full DataSize chunk crossed.
const (
	FrameSize = DataOffset + TrailerSize
	DataSize  = BlockSize - FrameSize
)

// LSN is a log sequence number: an absolute byte position in the
// log group's data stream, counted including the per-block
// header/trailer overhead so that comparing two LSNs tells you how
// much physical log space separates them.
type LSN struct {
	Number uint64
}

// Reposition moves the LSN to newNo.
func (l *LSN) Reposition(newNo uint64) { l.Number = newNo }

// Advance moves the LSN forward by a raw LSN-space delta (already
// produced by Delta).
func (l *LSN) Advance(delta uint64) { l.Number += delta }

// Delta converts a record-data byte length into the corresponding LSN
// advance, folding in one FrameSize of overhead for every DataSize
// bytes of data crossed starting from this LSN's current position
// within its block.
func (l LSN) Delta(length uint64) uint64 {
	fragment := int64(l.Number%BlockSize) - DataOffset
	if fragment < 0 {
		fragment = 0
	}
	return length + (uint64(fragment)+length)/DataSize*FrameSize
}

// Location resolves the LSN to a (log index, block number, data offset)
// triple within group, treating the group's member logs as a
// round-robin ring of equal-sized data areas starting at
// group.StartLSN(). The returned offset is 0-based into the target
// block's Data() slice, not a raw physical byte index — this relies on
// group.StartLSN() being congruent to DataOffset modulo BlockSize, true
// of any LSN a real log file actually assigns to its first data byte.
func (l LSN) Location(group *LogGroup) (logIdx int, blockNo int64, dataOffset int) {
	span := int64(l.Number - group.StartLSN())
	perFile := int64(group.dataBlocksPerLog()) * BlockSize
	n := int64(len(group.logs))
	logIdx = int((span / perFile) % n)
	within := span % perFile
	blockNo = within / BlockSize
	dataOffset = int(within % BlockSize)
	return logIdx, blockNo, dataOffset
}

// InBlock reports whether this LSN's location falls within a block's
// data range rather than past the data it has actually received.
func (l LSN) InBlock(group *LogGroup) bool {
	_, _, off := l.Location(group)
	return off >= 0 && off < DataSize
}
