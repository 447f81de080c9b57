package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

func idDescriber() *record.Describer {
	d := record.NewDescriber(record.Clustered)
	d.Key(record.NewField(0, "id", record.DataType{Kind: record.KindInt, Unsigned: true, Width: 4}, false))
	return d
}

func putU32At(body []byte, off int, v uint32) { copy(body[off:], u32b(v)) }

func writeInsertRecord(body []byte, pos int, undoNo, tableID uint64, id uint32) {
	copy(body[pos:pos+2], u16b(0)) // next-offset (set by caller if chaining)
	body[pos+2] = byte(TypeInsert)
	off := pos + 3
	b := encodeIMCUint64(undoNo)
	copy(body[off:], b)
	off += len(b)
	b = encodeIMCUint64(tableID)
	copy(body[off:], b)
	off += len(b)
	b = encodeICUint32(4)
	copy(body[off:], b)
	off += len(b)
	putU32At(body, off, id)
}

func buildInsertRecordPage(pos int, undoNo, tableID uint64, id uint32) []byte {
	body := make([]byte, 200)
	writeInsertRecord(body, pos, undoNo, tableID, id)
	return body
}

func TestDecodeInsertRecord(t *testing.T) {
	const pos = 50
	body := buildInsertRecordPage(pos, 5, 1067, 42)
	p := newTestPage(t, 1, page.TypeUndoLog, body)

	rec, err := Decode(p, pos, idDescriber())
	require.NoError(t, err)
	assert.Equal(t, TypeInsert, rec.Type)
	assert.False(t, rec.ExternFlag)
	assert.Equal(t, uint64(5), rec.UndoNo)
	assert.Equal(t, uint64(1067), rec.TableID)
	assert.Equal(t, []interface{}{uint64(42)}, rec.Key)
	assert.Nil(t, rec.UpdatedFields)
}

func buildUpdateRecordPage(pos int, undoNo, tableID, trxID, rollPtr uint64, id uint32) []byte {
	body := make([]byte, 200)
	copy(body[pos:pos+2], u16b(0))
	body[pos+2] = byte(TypeUpdateExisting)
	off := pos + 3
	b := encodeIMCUint64(undoNo)
	copy(body[off:], b)
	off += len(b)
	b = encodeIMCUint64(tableID)
	copy(body[off:], b)
	off += len(b)
	body[off] = 0 // info_bits
	off++
	b = encodeICUint64(trxID)
	copy(body[off:], b)
	off += len(b)
	b = encodeICUint64(rollPtr)
	copy(body[off:], b)
	off += len(b)
	b = encodeICUint32(4)
	copy(body[off:], b)
	off += len(b)
	putU32At(body, off, id)
	off += 4
	b = encodeICUint32(1) // field_count
	copy(body[off:], b)
	off += len(b)
	b = encodeICUint32(0) // field no
	copy(body[off:], b)
	off += len(b)
	b = encodeICUint32(2) // length
	copy(body[off:], b)
	off += len(b)
	copy(body[off:], []byte("ok"))
	return body
}

func TestDecodeUpdateRecord(t *testing.T) {
	const pos = 50
	body := buildUpdateRecordPage(pos, 5, 1067, 9, 458772, 42)
	p := newTestPage(t, 1, page.TypeUndoLog, body)

	rec, err := Decode(p, pos, idDescriber())
	require.NoError(t, err)
	assert.Equal(t, TypeUpdateExisting, rec.Type)
	assert.Equal(t, uint64(9), rec.TrxID)
	assert.Equal(t, record.RollPtr{Insert: false, RsegID: 0, UndoPage: 7, UndoOffset: 20}, rec.RollPtr)
	assert.Equal(t, []interface{}{uint64(42)}, rec.Key)
	require.Len(t, rec.UpdatedFields, 1)
	assert.Equal(t, 0, rec.UpdatedFields[0].FieldNo)
	assert.Equal(t, []byte("ok"), rec.UpdatedFields[0].Raw)
}

type fakePager struct {
	pages map[uint32]*page.Page
}

func (f *fakePager) Page(n uint32) (*page.Page, error) { return f.pages[n], nil }

func TestPrevByHistorySuccess(t *testing.T) {
	const targetPos = 60
	targetBody := buildInsertRecordPage(targetPos, 1, 1067, 7)
	targetPage := newTestPage(t, 7, page.TypeUndoLog, targetBody)

	// roll_ptr: rsegID=0, undoPage=7, undoOffset=60
	rollPtrVal := uint64(7)<<16 | uint64(targetPos)
	const curPos = 50
	curBody := buildUpdateRecordPage(curPos, 5, 1067, 9, rollPtrVal, 42)
	curPage := newTestPage(t, 1, page.TypeUndoLog, curBody)

	cur, err := Decode(curPage, curPos, idDescriber())
	require.NoError(t, err)

	pager := &fakePager{pages: map[uint32]*page.Page{7: targetPage}}
	prev, err := PrevByHistory(pager, cur, idDescriber())
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, TypeInsert, prev.Type)
	assert.Equal(t, uint64(1067), prev.TableID)
}

func TestPrevByHistoryPageTypeMismatch(t *testing.T) {
	const targetPos = 60
	targetBody := buildInsertRecordPage(targetPos, 1, 1067, 7)
	targetPage := newTestPage(t, 7, page.TypeIndex, targetBody)

	rollPtrVal := uint64(7)<<16 | uint64(targetPos)
	const curPos = 50
	curBody := buildUpdateRecordPage(curPos, 5, 1067, 9, rollPtrVal, 42)
	curPage := newTestPage(t, 1, page.TypeUndoLog, curBody)
	cur, err := Decode(curPage, curPos, idDescriber())
	require.NoError(t, err)

	pager := &fakePager{pages: map[uint32]*page.Page{7: targetPage}}
	prev, err := PrevByHistory(pager, cur, idDescriber())
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestPrevByHistoryTableIDMismatch(t *testing.T) {
	const targetPos = 60
	targetBody := buildInsertRecordPage(targetPos, 1, 999, 7)
	targetPage := newTestPage(t, 7, page.TypeUndoLog, targetBody)

	rollPtrVal := uint64(7)<<16 | uint64(targetPos)
	const curPos = 50
	curBody := buildUpdateRecordPage(curPos, 5, 1067, 9, rollPtrVal, 42)
	curPage := newTestPage(t, 1, page.TypeUndoLog, curBody)
	cur, err := Decode(curPage, curPos, idDescriber())
	require.NoError(t, err)

	pager := &fakePager{pages: map[uint32]*page.Page{7: targetPage}}
	prev, err := PrevByHistory(pager, cur, idDescriber())
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestPrevByHistoryNewerTrxRejected(t *testing.T) {
	const targetPos = 60
	// the "prior" record is itself an update with a trx_id newer than
	// the current record's — simulating a purged, reused page.
	targetBody := buildUpdateRecordPage(targetPos, 1, 1067, 99, 0, 7)
	targetPage := newTestPage(t, 7, page.TypeUndoLog, targetBody)

	rollPtrVal := uint64(7)<<16 | uint64(targetPos)
	const curPos = 50
	curBody := buildUpdateRecordPage(curPos, 5, 1067, 9, rollPtrVal, 42)
	curPage := newTestPage(t, 1, page.TypeUndoLog, curBody)
	cur, err := Decode(curPage, curPos, idDescriber())
	require.NoError(t, err)

	pager := &fakePager{pages: map[uint32]*page.Page{7: targetPage}}
	prev, err := PrevByHistory(pager, cur, idDescriber())
	require.NoError(t, err)
	assert.Nil(t, prev)
}
