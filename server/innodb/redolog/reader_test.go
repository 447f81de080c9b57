package redolog

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

func encodeICUint32(v uint32) []byte {
	switch {
	case v < 0x80:
		return []byte{byte(v)}
	case v < 0x4000:
		return []byte{byte(0x80 | (v >> 8)), byte(v)}
	default:
		return []byte{byte(0xC0 | (v >> 16)), byte(v >> 8), byte(v)}
	}
}

func buildRecordLogFile(t *testing.T, recordPayload []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ib_logfile*")
	require.NoError(t, err)
	defer f.Close()

	fileHdr := make([]byte, BlockSize)
	putBE32(fileHdr, fileHdrGroupID, 0)
	putBE64(fileHdr, fileHdrStartLSN, HeaderSize+DataOffset)
	putBE32(fileHdr, fileHdrFileNo, 0)
	_, err = f.Write(fileHdr)
	require.NoError(t, err)

	cp1 := buildCheckpointBlock(1, 1000, 0, 16*1024*1024)
	_, err = f.Write(cp1)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, BlockSize))
	require.NoError(t, err)
	cp2 := buildCheckpointBlock(1, 1000, 0, 16*1024*1024)
	_, err = f.Write(cp2)
	require.NoError(t, err)

	dl := uint16(DataOffset + len(recordPayload))
	blk := buildBlock(0, false, dl, 12, 1, recordPayload)
	_, err = f.Write(blk)
	require.NoError(t, err)
	return f.Name()
}

func TestLogReaderDecodesSingleRecord(t *testing.T) {
	payload := []byte{
		byte(MLOG_4BYTES) | 0x80, // single-record flag
	}
	payload = append(payload, encodeICUint32(0)...)  // space
	payload = append(payload, encodeICUint32(1)...)  // page
	payload = append(payload, 0x00, 0x0A)             // offset = 10
	payload = append(payload, encodeICUint32(123)...) // value

	path := buildRecordLogFile(t, payload)
	g, err := OpenGroup(path)
	require.NoError(t, err)
	defer g.Close()

	r := g.Reader(nil, false)
	r.lsn = LSN{Number: g.StartLSN()}
	rec, err := r.Record()
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, rec.Single)
	assert.Equal(t, MLOG_4BYTES, rec.Type)
	assert.Equal(t, uint32(0), rec.Space)
	assert.Equal(t, uint32(1), rec.Page)
	vp, ok := rec.Payload.(ValuePayload)
	require.True(t, ok)
	assert.Equal(t, uint16(10), vp.Offset)
	assert.Equal(t, uint64(123), vp.Value)

	_, err = r.Record()
	assert.True(t, errors.Is(err, ierrors.ErrEndOfLog))
}

func TestLogReaderUnknownType(t *testing.T) {
	payload := []byte{0x7F} // type 127: not a recognized tag
	path := buildRecordLogFile(t, payload)
	g, err := OpenGroup(path)
	require.NoError(t, err)
	defer g.Close()

	r := g.Reader(nil, false)
	r.lsn = LSN{Number: g.StartLSN()}
	_, err = r.Record()
	assert.True(t, errors.Is(err, ierrors.ErrUnsupportedRecordType))
}
