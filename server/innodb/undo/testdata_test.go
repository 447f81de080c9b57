package undo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// foType mirrors the FIL header's page-type offset (page.FileHeaderSize
// is 38; the type tag sits at byte 24 within it), duplicated here since
// the page package keeps it unexported.
const foType = 24

func newTestPage(t *testing.T, pageNo uint32, pageType page.Type, body []byte) *page.Page {
	t.Helper()
	buf := make([]byte, page.FileHeaderSize+len(body)+page.FileTrailerSize)
	buf[foType] = byte(uint16(pageType) >> 8)
	buf[foType+1] = byte(uint16(pageType))
	copy(buf[page.FileHeaderSize:], body)
	p, err := page.New(buf, pageNo)
	require.NoError(t, err)
	return p
}

// encodeICUint32 mirrors cursor.ReadICUint32's inverse.
func encodeICUint32(v uint32) []byte {
	switch {
	case v < 0x80:
		return []byte{byte(v)}
	case v < 0x4000:
		return []byte{byte(0x80 | (v >> 8)), byte(v)}
	case v < 0x200000:
		return []byte{byte(0xC0 | (v >> 16)), byte(v >> 8), byte(v)}
	case v < 0x10000000:
		return []byte{byte(0xE0 | (v >> 24)), byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		return []byte{0xF0, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

// encodeICUint64 mirrors cursor.ReadICUint64's inverse: a compressed
// high half followed by a raw 4-byte low half.
func encodeICUint64(v uint64) []byte {
	out := encodeICUint32(uint32(v >> 32))
	low := uint32(v)
	return append(out, byte(low>>24), byte(low>>16), byte(low>>8), byte(low))
}

// encodeIMCUint64 mirrors cursor.ReadIMCUint64's inverse.
func encodeIMCUint64(v uint64) []byte {
	if v>>32 == 0 {
		return encodeICUint32(uint32(v))
	}
	out := []byte{0xff}
	out = append(out, encodeICUint32(uint32(v>>32))...)
	out = append(out, encodeICUint32(uint32(v))...)
	return out
}

func u16b(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32b(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }
func u64b(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
