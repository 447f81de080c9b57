package record

import (
	"fmt"
	"math"
)

// decodeDate decodes the 3-byte packed DATE: (year << 9) | (month << 5)
// | day, stored as a 3-byte big-endian unsigned integer.
func decodeDate(b []byte) (interface{}, error) {
	v := beUint(b)
	day := v & 0x1F
	month := (v >> 5) & 0xF
	year := v >> 9
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

// decodeDatetime decodes the legacy 8-byte packed DATETIME, stored as a
// big-endian unsigned integer whose decimal digits read YYYYMMDDHHMMSS.
func decodeDatetime(b []byte) (interface{}, error) {
	v := beUint(b)
	sec := v % 100
	v /= 100
	min := v % 100
	v /= 100
	hour := v % 100
	v /= 100
	day := v % 100
	v /= 100
	month := v % 100
	v /= 100
	year := v
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, min, sec), nil
}

// decodeTime decodes the legacy 3-byte packed TIME: a signed integer
// whose magnitude's decimal digits read HHMMSS.
func decodeTime(b []byte) (interface{}, error) {
	raw, err := decodeInt(b, false)
	if err != nil {
		return nil, err
	}
	v := raw.(int64)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	sec := v % 100
	v /= 100
	min := v % 100
	v /= 100
	hour := v
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, hour, min, sec), nil
}

// decodeTimestamp decodes the 4-byte TIMESTAMP: Unix epoch seconds,
// stored as a big-endian unsigned integer.
func decodeTimestamp(b []byte) (interface{}, error) {
	return beUint(b), nil
}

func decodeFloat(b []byte) float32 {
	return math.Float32frombits(uint32(beUint(b)))
}

func decodeDouble(b []byte) float64 {
	return math.Float64frombits(beUint(b))
}
