package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

func buildUndoLogHeader(withXID bool) []byte {
	buf := make([]byte, HeaderSizeWithXID)
	copy(buf[hdrTrxID:], u64b(55))
	copy(buf[hdrTrxNo:], u64b(3))
	copy(buf[hdrDelMarks:], u16b(1))
	copy(buf[hdrLogStart:], u16b(46))
	buf[hdrXIDExists] = 0
	buf[hdrDictTrans] = 1
	copy(buf[hdrTableID:], u64b(1067))
	copy(buf[hdrNextLog:], u16b(0))
	copy(buf[hdrPrevLog:], u16b(0))
	// history node: prev nil, next = (page 5, offset 120)
	copy(buf[hdrHistoryNode:], u32b(list.NoPage))
	copy(buf[hdrHistoryNode+4:], u16b(0))
	copy(buf[hdrHistoryNode+6:], u32b(5))
	copy(buf[hdrHistoryNode+10:], u16b(120))

	if withXID {
		buf[hdrXIDExists] = 1
		copy(buf[xaFormat:], u32b(1))
		copy(buf[xaTridLen:], u32b(3))
		copy(buf[xaBqualLen:], u32b(2))
		copy(buf[xaData:], []byte("abcde"))
		return buf
	}
	return buf[:HeaderSize]
}

func TestUndoLogHeaderFields(t *testing.T) {
	body := buildUndoLogHeader(false)
	p := newTestPage(t, 10, page.TypeUndoLog, body)
	log := NewUndoLog(p, 0)

	assert.Equal(t, uint64(55), log.TrxID())
	assert.Equal(t, uint64(3), log.TrxNo())
	assert.True(t, log.DeleteMarkFlag())
	assert.Equal(t, uint16(46), log.LogStartOffset())
	assert.False(t, log.XIDFlag())
	assert.True(t, log.DDLFlag())
	assert.Equal(t, uint64(1067), log.DDLTableID())

	node, err := log.HistoryListNode()
	require.NoError(t, err)
	assert.True(t, node.Prev.IsNil())
	assert.Equal(t, uint32(5), node.Next.Page)
	assert.Equal(t, uint16(120), node.Next.Offset)
}

func TestUndoLogXID(t *testing.T) {
	body := buildUndoLogHeader(true)
	p := newTestPage(t, 10, page.TypeUndoLog, body)
	log := NewUndoLog(p, 0)
	require.True(t, log.XIDFlag())

	xid, err := log.XID()
	require.NoError(t, err)
	assert.Equal(t, int32(1), xid.FormatID)
	assert.Equal(t, []byte("abc"), xid.GlobalTrxID)
	assert.Equal(t, []byte("de"), xid.BranchQual)
}

func TestUndoLogXIDAbsent(t *testing.T) {
	body := buildUndoLogHeader(false)
	p := newTestPage(t, 10, page.TypeUndoLog, body)
	log := NewUndoLog(p, 0)
	_, err := log.XID()
	assert.Error(t, err)
}
