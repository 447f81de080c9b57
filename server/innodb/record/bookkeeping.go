package record

import "github.com/innodb-tools/innodb-reader/server/innodb/cursor"

// bookkeeping holds the per-field nullability, on-disk length, and
// external-storage flag recovered from a record's variable-length
// preamble, keyed by field name.
type bookkeeping struct {
	null   map[string]bool
	length map[string]int
	extern map[string]bool
}

func newBookkeeping() bookkeeping {
	return bookkeeping{null: map[string]bool{}, length: map[string]int{}, extern: map[string]bool{}}
}

// readBookkeeping reads the preamble immediately preceding a record's
// header (itself immediately preceding origin) and resolves
// nullability/length/extern-ness for every field in fields, which must
// be in declared order.
//
// Compact format stores, going further backward past the header: first
// a fixed-size null bitmap (one bit per nullable field, LSB = lowest
// positioned nullable field), then a length entry per non-null
// variable-length field, nearest field first as encountered while
// scanning backward (i.e. last-declared field's entry sits closest to
// the null bitmap).
//
// Redundant format instead stores one fixed-width end-offset entry per
// field (nullable or not), encoding null/extern flags in its top bits,
// again nearest-field-first while scanning backward.
func readBookkeeping(c *cursor.Cursor, origin int, h Header, fields []Field) (bookkeeping, error) {
	bk := newBookkeeping()
	headerSize := compactHeaderSize
	if h.Format == FormatRedundant {
		headerSize = redundantHeaderSize
	}
	bc := cursor.New(c.Bytes())
	bc.Seek(origin - headerSize).Backward()

	switch h.Format {
	case FormatCompact:
		nNullable := 0
		for _, f := range fields {
			if f.Nullable {
				nNullable++
			}
		}
		bits, err := bc.ReadBitArray(nNullable)
		if err != nil {
			return bookkeeping{}, err
		}
		nullableIdx := 0
		nullableBitOf := map[string]int{}
		for _, f := range fields {
			if f.Nullable {
				nullableBitOf[f.Name] = nullableIdx
				nullableIdx++
			}
		}
		for _, f := range fields {
			if f.Nullable {
				bk.null[f.Name] = bits.Bit(nullableBitOf[f.Name])
			}
		}

		for i := len(fields) - 1; i >= 0; i-- {
			f := fields[i]
			if !f.Type.Variable() || bk.null[f.Name] {
				continue
			}
			length, ext, err := readLengthEntry(bc, f.Type.MaxWidth)
			if err != nil {
				return bookkeeping{}, err
			}
			bk.length[f.Name] = length
			bk.extern[f.Name] = ext
		}

	case FormatRedundant:
		type entry struct {
			name        string
			null, extrn bool
			end         int
		}
		entries := make([]entry, len(fields))
		for i := len(fields) - 1; i >= 0; i-- {
			f := fields[i]
			b, err := bc.ReadBytes(h.OffsetSize)
			if err != nil {
				return bookkeeping{}, err
			}
			if h.OffsetSize == 1 {
				entries[i] = entry{name: f.Name, null: b[0]&0x80 != 0, end: int(b[0] & 0x7F)}
			} else {
				raw := uint16(b[0])<<8 | uint16(b[1])
				entries[i] = entry{
					name:  f.Name,
					null:  raw&0x8000 != 0,
					extrn: raw&0x4000 != 0,
					end:   int(raw & 0x3FFF),
				}
			}
		}
		prevEnd := 0
		for _, e := range entries {
			bk.null[e.name] = e.null
			bk.extern[e.name] = e.extrn
			if e.null {
				bk.length[e.name] = 0
			} else {
				length := e.end - prevEnd
				if length < 0 {
					length = 0
				}
				bk.length[e.name] = length
				prevEnd = e.end
			}
		}
	}

	return bk, nil
}

// readLengthEntry reads one compact-format length-vector entry in the
// current (backward) direction: fields whose type max width fits a
// single byte always use 1 byte; larger/unbounded types use 1 byte when
// the leading bit is clear, else 2 bytes (top bit = continuation, next
// bit = externally-stored, remaining 14 bits = length).
func readLengthEntry(c *cursor.Cursor, maxWidth int) (length int, external bool, err error) {
	if maxWidth > 0 && maxWidth <= 255 {
		b, err := c.ReadBytes(1)
		if err != nil {
			return 0, false, err
		}
		return int(b[0]), false, nil
	}
	b0, err := c.ReadBytes(1)
	if err != nil {
		return 0, false, err
	}
	flag := b0[0]
	if flag&0x80 == 0 {
		return int(flag), false, nil
	}
	b1, err := c.ReadBytes(1)
	if err != nil {
		return 0, false, err
	}
	length = (int(flag&0x3F) << 8) | int(b1[0])
	external = flag&0x40 != 0
	return length, external, nil
}
