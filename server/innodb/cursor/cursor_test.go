package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadFixedWidth(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	c := New(buf)

	v16, err := c.ReadU16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v16, "大端序读取2字节")

	v32, err := c.ReadU32()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x03040506), v32)

	v16b, err := c.ReadU16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0708), v16b)

	_, err = c.ReadU8()
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestBackwardReadMirrorsForward(t *testing.T) {
	buf := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	c := New(buf).Seek(4).Backward()

	b, err := c.ReadBytes(2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xCC, 0xDD}, b)
	assert.Equal(t, 2, c.Position())

	b, err = c.ReadBytes(2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, b)
	assert.Equal(t, 0, c.Position())
}

func TestPushPopPeek(t *testing.T) {
	buf := make([]byte, 16)
	c := New(buf).Seek(10)

	err := c.Peek(nil, func(cur *Cursor) error {
		cur.Seek(0)
		_, rerr := cur.ReadBytes(4)
		return rerr
	})
	assert.NoError(t, err)
	assert.Equal(t, 10, c.Position(), "peek必须恢复原位置")
}

func TestReadICUint32(t *testing.T) {
	cases := []struct {
		in  []byte
		out uint32
	}{
		{[]byte{0x7f}, 0x7f},
		{[]byte{0xbf, 0xff}, 0x3fff},
		{[]byte{0xdf, 0xff, 0xff}, 0x1fffff},
		{[]byte{0xef, 0xff, 0xff, 0xff}, 0x0fffffff},
		{[]byte{0xf0, 0xff, 0xff, 0xff, 0xff}, 0xffffffff},
	}
	for _, tc := range cases {
		c := New(tc.in)
		v, err := c.ReadICUint32()
		assert.NoError(t, err)
		assert.Equal(t, tc.out, v)
		assert.Equal(t, len(tc.in), c.Position(), "应当消费掉全部编码字节")
	}
}

func TestReadICUint64(t *testing.T) {
	// high = 0x7f (1 byte), low = 0x00000001 (4 bytes) -> 5 bytes total
	buf := []byte{0x7f, 0x00, 0x00, 0x00, 0x01}
	c := New(buf)
	v, err := c.ReadICUint64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x7f00000001), v)
	assert.Equal(t, 5, c.Position())
}

func TestReadIMCUint64NoHighHalf(t *testing.T) {
	// leading byte != 0xff, reused as first byte of the low ic_uint32.
	buf := []byte{0x7f}
	c := New(buf)
	v, err := c.ReadIMCUint64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x7f), v)
	assert.Equal(t, 1, c.Position())
}

func TestReadIMCUint64WithHighHalf(t *testing.T) {
	// 0xff marker, high ic_uint32 = 0x01 (1 byte), low ic_uint32 = 0x02 (1 byte)
	buf := []byte{0xff, 0x01, 0x02}
	c := New(buf)
	v, err := c.ReadIMCUint64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1)<<32|2, v)
	assert.Equal(t, 3, c.Position())
}

func TestBitArrayLSBFirst(t *testing.T) {
	c := New([]byte{0b00000101})
	ba, err := c.ReadBitArray(3)
	assert.NoError(t, err)
	assert.True(t, ba.Bit(0))
	assert.False(t, ba.Bit(1))
	assert.True(t, ba.Bit(2))
}

func TestNamedPathInError(t *testing.T) {
	c := New([]byte{0x01})
	err := c.Named("record", func(cur *Cursor) error {
		return cur.Named("author", func(cur2 *Cursor) error {
			_, e := cur2.ReadU32()
			return e
		})
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "record.author")
}
