package redolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
)

func TestDecodeRecordUndoInsert(t *testing.T) {
	buf := []byte{byte(MLOG_UNDO_INSERT) | 0x80}
	buf = append(buf, encodeICUint32(3)...) // space
	buf = append(buf, encodeICUint32(9)...) // page
	buf = append(buf, 0x00, 0x03)           // length = 3
	buf = append(buf, []byte("xyz")...)

	rec, err := decodeRecord(cursor.New(buf))
	require.NoError(t, err)
	assert.Equal(t, MLOG_UNDO_INSERT, rec.Type)
	assert.Equal(t, uint32(3), rec.Space)
	assert.Equal(t, uint32(9), rec.Page)
	bp, ok := rec.Payload.(BytesPayload)
	require.True(t, ok)
	assert.Equal(t, []byte("xyz"), bp.Value)
}

func TestDecodeRecordWriteString(t *testing.T) {
	buf := []byte{byte(MLOG_WRITE_STRING)}
	buf = append(buf, encodeICUint32(0)...)
	buf = append(buf, encodeICUint32(0)...)
	buf = append(buf, 0x00, 0x05) // offset = 5
	buf = append(buf, 0x00, 0x02) // length = 2
	buf = append(buf, []byte("ok")...)

	rec, err := decodeRecord(cursor.New(buf))
	require.NoError(t, err)
	assert.False(t, rec.Single)
	wp, ok := rec.Payload.(WriteStringPayload)
	require.True(t, ok)
	assert.Equal(t, uint16(5), wp.Offset)
	assert.Equal(t, []byte("ok"), wp.Value)
}

func TestDecodeRecordFileRename(t *testing.T) {
	buf := []byte{byte(MLOG_FILE_RENAME) | 0x80}
	buf = append(buf, encodeICUint32(4)...)
	buf = append(buf, encodeICUint32(0)...)
	buf = append(buf, 0x00, 0x03)
	buf = append(buf, []byte("old")...)
	buf = append(buf, 0x00, 0x03)
	buf = append(buf, []byte("new")...)

	rec, err := decodeRecord(cursor.New(buf))
	require.NoError(t, err)
	fr, ok := rec.Payload.(FileRenamePayload)
	require.True(t, ok)
	assert.Equal(t, "old", fr.OldName)
	assert.Equal(t, "new", fr.NewName)
}

func TestDecodeRecordNoPayloadType(t *testing.T) {
	buf := []byte{byte(MLOG_PAGE_CREATE) | 0x80}
	buf = append(buf, encodeICUint32(1)...)
	buf = append(buf, encodeICUint32(2)...)

	rec, err := decodeRecord(cursor.New(buf))
	require.NoError(t, err)
	assert.Equal(t, MLOG_PAGE_CREATE, rec.Type)
	assert.Nil(t, rec.Payload)
}

func TestDecodeRecordMultiRecEnd(t *testing.T) {
	buf := []byte{byte(MLOG_MULTI_REC_END)}
	rec, err := decodeRecord(cursor.New(buf))
	require.NoError(t, err)
	assert.Equal(t, MLOG_MULTI_REC_END, rec.Type)
	assert.Equal(t, uint32(0), rec.Space)
}
