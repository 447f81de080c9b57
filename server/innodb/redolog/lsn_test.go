package redolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLSNDeltaWithinBlock(t *testing.T) {
	l := LSN{Number: HeaderSize + DataOffset}
	assert.Equal(t, uint64(10), l.Delta(10))
}

func TestLSNDeltaCrossesBlock(t *testing.T) {
	l := LSN{Number: HeaderSize + DataOffset}
	// consuming exactly DataSize bytes from the start of a block's data
	// must land precisely at the next block's data start, i.e. the raw
	// byte span covers the remaining trailer+header too.
	assert.Equal(t, uint64(DataSize+FrameSize), l.Delta(DataSize))
}

func TestLSNAdvanceAndReposition(t *testing.T) {
	l := LSN{Number: 100}
	l.Advance(50)
	assert.Equal(t, uint64(150), l.Number)
	l.Reposition(7)
	assert.Equal(t, uint64(7), l.Number)
}
