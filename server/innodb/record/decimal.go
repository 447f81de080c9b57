package record

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// digitBytes maps a digit-group size (0-9 digits) to the number of bytes
// MySQL's DECIMAL binary format spends encoding it.
var digitBytes = [10]int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

// integralGroups splits a digit count into the byte-stream order MySQL's
// decimal2bin lays groups out in: a short leading group (if the count
// isn't a multiple of 9) followed by full 9-digit groups, when counting
// from the most significant digit; fractionalGroups produces the
// reverse split (full groups first, short group last) for the
// fractional half.
func integralGroups(digits int) []int {
	if digits == 0 {
		return nil
	}
	lead := digits % 9
	if lead == 0 {
		lead = 9
	}
	groups := []int{lead}
	for digits -= lead; digits > 0; digits -= 9 {
		groups = append(groups, 9)
	}
	return groups
}

func fractionalGroups(digits int) []int {
	var groups []int
	for ; digits > 9; digits -= 9 {
		groups = append(groups, 9)
	}
	if digits > 0 {
		groups = append(groups, digits)
	}
	return groups
}

// decimalEncodedLength returns the total on-disk byte width of a
// DECIMAL(precision,scale) value.
func decimalEncodedLength(precision, scale int) int {
	total := 0
	for _, g := range integralGroups(precision - scale) {
		total += digitBytes[g]
	}
	for _, g := range fractionalGroups(scale) {
		total += digitBytes[g]
	}
	return total
}

// decodeDecimal decodes a DECIMAL(precision,scale) value per the
// engine's binary encoding: the first byte's top bit carries the sign
// (set means positive), after which every byte - including the
// now-corrected first one - is XOR-ed with 0xFF when the value is
// negative, turning the whole buffer into a sequence of unsigned
// big-endian digit groups.
func decodeDecimal(raw []byte, precision, scale int) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, nil
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)

	positive := buf[0]&0x80 != 0
	buf[0] ^= 0x80

	var mask byte
	if !positive {
		mask = 0xFF
	}
	for i := range buf {
		buf[i] ^= mask
	}

	pos := 0
	readGroups := func(groups []int) string {
		s := ""
		for _, digits := range groups {
			width := digitBytes[digits]
			chunk := buf[pos : pos+width]
			pos += width
			s += fmt.Sprintf("%0*d", digits, beUint(chunk))
		}
		return s
	}

	integral := readGroups(integralGroups(precision - scale))
	if integral == "" {
		integral = "0"
	}
	fractional := readGroups(fractionalGroups(scale))

	sign := ""
	if !positive {
		sign = "-"
	}
	s := sign + integral
	if scale > 0 {
		s += "." + fractional
	}
	return decimal.NewFromString(s)
}
