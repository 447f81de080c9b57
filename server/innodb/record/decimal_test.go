package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecodeDecimalPositive(t *testing.T) {
	raw := []byte{0x80, 0x00, 0x00, 0x7B, 0x2D} // DECIMAL(10,2) = 123.45
	got, err := decodeDecimal(raw, 10, 2)
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(123.45).Equal(got), "decimal 应当等于 123.45, 实际为 %s", got)
}

func TestDecodeDecimalNegative(t *testing.T) {
	// Same magnitude as above but negative: XOR every byte of the
	// positive encoding, sign byte included, with 0xFF, which also
	// clears the sign bit.
	positive := []byte{0x80, 0x00, 0x00, 0x7B, 0x2D}
	buf := make([]byte, len(positive))
	copy(buf, positive)
	for i := range buf {
		buf[i] ^= 0xFF
	}
	got, err := decodeDecimal(buf, 10, 2)
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(-123.45).Equal(got))
}

func TestDecimalEncodedLength(t *testing.T) {
	assert.Equal(t, 5, decimalEncodedLength(10, 2))
	assert.Equal(t, 4, decimalEncodedLength(9, 0))
}

func TestDigitGroups(t *testing.T) {
	assert.Equal(t, []int{8}, integralGroups(8))
	assert.Equal(t, []int{3, 9, 9}, integralGroups(21))
	assert.Equal(t, []int{2}, fractionalGroups(2))
	assert.Equal(t, []int{9, 4}, fractionalGroups(13))
}
