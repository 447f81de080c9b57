package redolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogGroupAggregates(t *testing.T) {
	p1 := buildTestLogFile(t, 3)
	p2 := buildTestLogFile(t, 3)
	g, err := OpenGroup(p1, p2)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 2, g.Size())
	assert.Equal(t, int64(3*BlockSize*2), g.Capacity())
	assert.Equal(t, uint64(HeaderSize+DataOffset), g.StartLSN())
	assert.Equal(t, uint64(2000), g.MaxCheckpointLSN())
}

func TestLogGroupOpenEmpty(t *testing.T) {
	_, err := OpenGroup()
	assert.Error(t, err)
}
