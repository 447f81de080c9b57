package redolog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putBE32(b []byte, off int, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

func putBE64(b []byte, off int, v uint64) {
	putBE32(b, off, uint32(v>>32))
	putBE32(b, off+4, uint32(v))
}

func buildCheckpointBlock(number, lsn, offset uint64, bufSize uint32) []byte {
	buf := make([]byte, BlockSize)
	putBE64(buf, cpNo, number)
	putBE64(buf, cpLSN, lsn)
	putBE64(buf, cpOffset, offset)
	putBE32(buf, cpLogBufSize, bufSize)
	return buf
}

func buildTestLogFile(t *testing.T, dataBlocks int) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ib_logfile*")
	require.NoError(t, err)
	defer f.Close()

	fileHdr := make([]byte, BlockSize)
	putBE32(fileHdr, fileHdrGroupID, 0)
	putBE64(fileHdr, fileHdrStartLSN, HeaderSize+DataOffset)
	putBE32(fileHdr, fileHdrFileNo, 0)
	copy(fileHdr[fileHdrCreator:], []byte("innodb-reader"))
	_, err = f.Write(fileHdr)
	require.NoError(t, err)

	cp1 := buildCheckpointBlock(5, 1000, 0, 16*1024*1024)
	_, err = f.Write(cp1)
	require.NoError(t, err)

	_, err = f.Write(make([]byte, BlockSize)) // unused block 2
	require.NoError(t, err)

	cp2 := buildCheckpointBlock(6, 2000, 0, 16*1024*1024)
	_, err = f.Write(cp2)
	require.NoError(t, err)

	for i := 0; i < dataBlocks; i++ {
		full := i < dataBlocks-1
		dl := uint16(BlockSize)
		if !full {
			dl = DataOffset + 3
		}
		blk := buildBlock(uint32(i), full, dl, 0, 6, []byte("abc"))
		_, err = f.Write(blk)
		require.NoError(t, err)
	}
	return f.Name()
}

func TestLogOpenHeaderAndCheckpoints(t *testing.T) {
	path := buildTestLogFile(t, 3)
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, uint64(HeaderSize+DataOffset), l.FileHeader().StartLSN)
	assert.Equal(t, "innodb-reader", l.FileHeader().Creator)
	assert.Equal(t, uint64(5), l.Checkpoint1().Number)
	assert.Equal(t, uint64(6), l.Checkpoint2().Number)
	assert.Equal(t, l.Checkpoint2(), l.LatestCheckpoint())
	assert.Equal(t, int64(3), l.DataBlocks())
}

func TestLogBlockReadAndEach(t *testing.T) {
	path := buildTestLogFile(t, 3)
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	b, err := l.Block(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), b.Number())

	_, err = l.Block(3)
	assert.Error(t, err)

	count := 0
	err = l.EachBlock(func(i int64, b *LogBlock) error {
		assert.Equal(t, uint32(i), b.Number())
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
