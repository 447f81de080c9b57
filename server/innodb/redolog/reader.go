package redolog

import (
	"time"

	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

// maxRecordBlocks bounds how many blocks a single record's payload may
// span before the reader gives up growing its buffer; real records
// (barring a multi-megabyte BLOB write) stay well under this.
const maxRecordBlocks = 64

// LogReader walks a LogGroup's record stream starting at an LSN,
// reassembling records that straddle block boundaries and verifying
// each block's checksum when enabled.
type LogReader struct {
	group     *LogGroup
	lsn       LSN
	checksums bool
}

// LSN is the reader's current position.
func (r *LogReader) LSN() LSN { return r.lsn }

// fill loads up to n blocks of record data starting at the reader's
// current LSN, concatenating each block's Data() and stopping early at
// a short (not-yet-full) block, which marks the end of what's been
// written so far.
func (r *LogReader) fill(n int) ([]byte, bool, error) {
	var out []byte
	logIdx, blockNo, off := r.lsn.Location(r.group)
	eof := false
	for i := 0; i < n; i++ {
		b, err := r.group.block(logIdx, blockNo)
		if err != nil {
			return out, eof, err
		}
		if r.checksums && b.Corrupt() {
			return out, eof, ierrors.Wrapf(ierrors.ErrChecksum, "redolog: block %d of log %d", blockNo, logIdx)
		}
		data := b.Data()
		start := 0
		if i == 0 {
			start = off
		}
		if start <= len(data) {
			out = append(out, data[start:]...)
		}
		if !b.Full() {
			eof = true
			break
		}
		blockNo++
		if blockNo >= r.group.dataBlocksPerLog() {
			blockNo = 0
			logIdx = (logIdx + 1) % r.group.Size()
		}
	}
	return out, eof, nil
}

// Record decodes the next record at the reader's current position and
// advances past it. Returns ierrors.ErrEndOfLog once the stream is
// exhausted.
func (r *LogReader) Record() (*LogRecord, error) {
	blocks := 1
	for {
		buf, eof, err := r.fill(blocks)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 && eof {
			return nil, ierrors.ErrEndOfLog
		}
		c := cursor.New(buf)
		rec, err := decodeRecord(c)
		if err == nil {
			r.lsn.Advance(r.lsn.Delta(uint64(c.Position())))
			return rec, nil
		}
		if errors.Is(err, ierrors.ErrOutOfBounds) {
			if eof || blocks >= maxRecordBlocks {
				return nil, ierrors.ErrEndOfLog
			}
			blocks++
			continue
		}
		return nil, err
	}
}

// EachRecord calls fn for every record from the reader's current
// position onward. If follow is true, reaching the end of the written
// stream or a block failing its checksum doesn't stop iteration: the
// reader sleeps briefly and retries, as a tailing recovery process
// would; wait bounds how long it keeps retrying before giving up with
// the last such error (ierrors.ErrEndOfLog or ierrors.ErrChecksum).
func (r *LogReader) EachRecord(follow bool, wait time.Duration, fn func(*LogRecord) error) error {
	deadline := time.Now().Add(wait)
	for {
		rec, err := r.Record()
		if err == ierrors.ErrEndOfLog || errors.Is(err, ierrors.ErrChecksum) {
			if !follow || time.Now().After(deadline) {
				return err
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
