package redolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBlock(number uint32, flush bool, dataLen uint16, firstRec uint16, checkpointNo uint32, data []byte) []byte {
	buf := make([]byte, BlockSize)
	n := number
	if flush {
		n |= flushFlag
	}
	buf[0] = byte(n >> 24)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	buf[4] = byte(dataLen >> 8)
	buf[5] = byte(dataLen)
	buf[6] = byte(firstRec >> 8)
	buf[7] = byte(firstRec)
	buf[8] = byte(checkpointNo >> 24)
	buf[9] = byte(checkpointNo >> 16)
	buf[10] = byte(checkpointNo >> 8)
	buf[11] = byte(checkpointNo)
	copy(buf[DataOffset:], data)
	return buf
}

func referenceChecksum(buf []byte) uint32 {
	var c uint32 = 1
	var shift uint = 0
	for i := 0; i < TrailerOffset; i++ {
		v := uint32(buf[i])
		c = (c & 0x7fffffff) + v + (v << shift)
		shift++
		if shift > 24 {
			shift = 0
		}
	}
	return c
}

func TestLogBlockFields(t *testing.T) {
	buf := buildBlock(7, true, BlockSize, 12, 42, []byte("hello"))
	b, err := NewLogBlock(buf)
	require.NoError(t, err)

	assert.True(t, b.Flush())
	assert.Equal(t, uint32(7), b.Number())
	assert.Equal(t, uint16(BlockSize), b.DataLength())
	assert.Equal(t, uint16(12), b.FirstRecGroup())
	assert.Equal(t, uint32(42), b.CheckpointNo())
	assert.True(t, b.Full())
}

func TestLogBlockChecksum(t *testing.T) {
	buf := buildBlock(1, false, 100, 12, 1, []byte("abc"))
	want := referenceChecksum(buf)
	buf[TrailerOffset] = byte(want >> 24)
	buf[TrailerOffset+1] = byte(want >> 16)
	buf[TrailerOffset+2] = byte(want >> 8)
	buf[TrailerOffset+3] = byte(want)

	b, err := NewLogBlock(buf)
	require.NoError(t, err)
	assert.Equal(t, want, b.CalculateChecksum())
	assert.Equal(t, want, b.StoredChecksum())
	assert.False(t, b.Corrupt())

	buf[TrailerOffset] ^= 0xff
	b2, err := NewLogBlock(buf)
	require.NoError(t, err)
	assert.True(t, b2.Corrupt())
}

func TestLogBlockData(t *testing.T) {
	buf := buildBlock(1, false, DataOffset+5, 0, 0, []byte("hello world"))
	b, err := NewLogBlock(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b.Data())
	assert.False(t, b.Full())
}

func TestNewLogBlockWrongSize(t *testing.T) {
	_, err := NewLogBlock(make([]byte, 10))
	assert.Error(t, err)
}
