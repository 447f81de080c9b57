package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

const testLogStart = 48 // past the 46-byte fixed header, leaving room for the first record's own prev-offset field

func writeUndoLogHeader(body []byte, prev, next list.Address) {
	copy(body[hdrTrxID:], u64b(1))
	copy(body[hdrTrxNo:], u64b(1))
	copy(body[hdrLogStart:], u16b(testLogStart))
	copy(body[hdrTableID:], u64b(1067))
	copy(body[hdrHistoryNode:], u32b(prev.Page))
	copy(body[hdrHistoryNode+4:], u16b(prev.Offset))
	copy(body[hdrHistoryNode+6:], u32b(next.Page))
	copy(body[hdrHistoryNode+10:], u16b(next.Offset))
}

func buildHistoryFixture(t *testing.T) (*fakePager, list.BaseNode) {
	t.Helper()
	body10 := make([]byte, 200)
	writeUndoLogHeader(body10, list.Nil, list.Address{Page: 20, Offset: 0})
	writeInsertRecord(body10, testLogStart, 1, 1067, 11)

	body20 := make([]byte, 200)
	writeUndoLogHeader(body20, list.Address{Page: 10, Offset: 0}, list.Nil)
	writeInsertRecord(body20, testLogStart, 2, 1067, 22)

	p10 := newTestPage(t, 10, page.TypeUndoLog, body10)
	p20 := newTestPage(t, 20, page.TypeUndoLog, body20)

	base := list.BaseNode{
		Length: 2,
		First:  list.Address{Page: 10, Offset: 0},
		Last:   list.Address{Page: 20, Offset: 0},
	}
	return &fakePager{pages: map[uint32]*page.Page{10: p10, 20: p20}}, base
}

func TestHistoryListCursorForward(t *testing.T) {
	pager, base := buildHistoryFixture(t)
	hl := NewHistoryList(pager, base)

	cur := hl.Cursor(list.Forward)
	el, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), el.(*HistoryElement).Log.TrxNo())

	el, ok, err = cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(20), el.(*HistoryElement).addr.Page)

	_, ok, err = cur.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndoRecordCursorCrossesLogs(t *testing.T) {
	pager, base := buildHistoryFixture(t)
	hl := NewHistoryList(pager, base)

	rc := hl.UndoRecordCursor(list.Forward, idDescriber())

	rec, err := rc.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(1), rec.UndoNo)

	// the single record on log 10 has no next pointer, so the cursor
	// must cross into log 20's chain automatically.
	rec, err = rc.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(2), rec.UndoNo)

	rec, err = rc.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}
