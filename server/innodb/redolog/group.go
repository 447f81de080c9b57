package redolog

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

// LogGroup is a set of equal-sized log files written round-robin, the
// unit recovery actually replays: InnoDB always configures at least two
// (ib_logfile0, ib_logfile1, ...) so one can be archived while the
// other is active.
type LogGroup struct {
	logs []*Log
}

// OpenGroup opens every path in paths, in the order they round-robin
// (ib_logfile0, ib_logfile1, ...).
func OpenGroup(paths ...string) (*LogGroup, error) {
	if len(paths) == 0 {
		return nil, errors.New("redolog: no log files given")
	}
	g := &LogGroup{}
	for _, p := range paths {
		l, err := Open(p)
		if err != nil {
			g.Close()
			return nil, err
		}
		g.logs = append(g.logs, l)
	}
	return g, nil
}

// Close releases every member log's file descriptor.
func (g *LogGroup) Close() error {
	var first error
	for _, l := range g.logs {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Size is the number of member logs.
func (g *LogGroup) Size() int { return len(g.logs) }

func (g *LogGroup) dataBlocksPerLog() int64 {
	if len(g.logs) == 0 {
		return 0
	}
	return g.logs[0].DataBlocks()
}

// Capacity is the sum of every member log's data capacity, header
// overhead excluded — the total physical bytes available for record
// data across the whole group.
func (g *LogGroup) Capacity() int64 {
	var total int64
	for _, l := range g.logs {
		total += l.DataBlocks() * BlockSize
	}
	return total
}

// StartLSN is the LSN the group's data stream begins at: the first
// log's declared start LSN, advanced past its own header.
func (g *LogGroup) StartLSN() uint64 {
	if len(g.logs) == 0 {
		return 0
	}
	return g.logs[0].FileHeader().StartLSN
}

// MaxCheckpointLSN returns the LSN of whichever member log's checkpoint
// carries the highest checkpoint number — the one recovery resumes
// from.
func (g *LogGroup) MaxCheckpointLSN() uint64 {
	var best Checkpoint
	for _, l := range g.logs {
		cp := l.LatestCheckpoint()
		if cp.Number > best.Number {
			best = cp
		}
	}
	return best.LSN
}

// Reader opens a LogReader positioned at from, or at the group's last
// checkpoint LSN if from is nil.
func (g *LogGroup) Reader(from *LSN, checksums bool) *LogReader {
	start := LSN{Number: g.MaxCheckpointLSN()}
	if from != nil {
		start = *from
	}
	return &LogReader{group: g, lsn: start, checksums: checksums}
}

// Record seeks to lsnNo and decodes exactly one record there.
func (g *LogGroup) Record(lsnNo uint64, checksums bool) (*LogRecord, error) {
	r := g.Reader(&LSN{Number: lsnNo}, checksums)
	return r.Record()
}

// block reads the (logIdx, blockNo) block resolved by an LSN location.
func (g *LogGroup) block(logIdx int, blockNo int64) (*LogBlock, error) {
	if logIdx < 0 || logIdx >= len(g.logs) {
		return nil, ierrors.Wrapf(ierrors.ErrPageReadError, "redolog: log index %d out of range", logIdx)
	}
	return g.logs[logIdx].Block(blockNo)
}
