package record

import (
	"fmt"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
)

// Record is one decoded index-page record: a system record (infimum or
// supremum, key/row/sys all nil) or a real row/node-pointer.
type Record struct {
	Offset int
	Length int
	Header Header
	Key    []interface{}
	Row    []interface{}
	Sys    []interface{}
	// Next is the absolute byte offset, within the same page, of the
	// next record in the chain.
	Next int

	ChildPageNumber    uint32
	HasChildPageNumber bool
}

// Decode decodes the record whose origin is at byte offset origin
// within c's buffer (a single page body+header), per the field layout
// d describes.
func Decode(c *cursor.Cursor, origin int, format Format, d *Describer) (*Record, error) {
	h, err := readHeader(c, origin, format)
	if err != nil {
		return nil, err
	}

	if h.Type == RecInfimum || h.Type == RecSupremum {
		return &Record{Offset: origin, Header: h, Next: h.NextOrigin(origin)}, nil
	}

	isNodePointer := h.Type == RecNodePointer

	dataFields := make([]Field, 0, len(d.KeyFields)+len(d.RowFields))
	dataFields = append(dataFields, d.KeyFields...)
	if !isNodePointer {
		dataFields = append(dataFields, d.RowFields...)
	}

	bk, err := readBookkeeping(c, origin, h, dataFields)
	if err != nil {
		return nil, err
	}

	rec := &Record{Offset: origin, Header: h, Next: h.NextOrigin(origin)}

	fc := cursor.New(c.Bytes())
	fc.Seek(origin).Forward()

	readValues := func(fields []Field) ([]interface{}, error) {
		out := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			if f.Nullable && bk.null[f.Name] {
				out = append(out, nil)
				continue
			}
			length := f.Type.Length()
			if l, ok := bk.length[f.Name]; ok {
				length = l
			}
			if bk.extern[f.Name] {
				length -= externalRefSize
			}
			b, err := fc.ReadBytes(length)
			if err != nil {
				return nil, err
			}
			v, err := f.Type.Value(b)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			if bk.extern[f.Name] {
				if _, err := fc.ReadBytes(externalRefSize); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	}

	if rec.Key, err = readValues(d.KeyFields); err != nil {
		return nil, err
	}

	switch {
	case isNodePointer:
		cp, err := fc.ReadU32()
		if err != nil {
			return nil, err
		}
		rec.ChildPageNumber = cp
		rec.HasChildPageNumber = true
	default:
		if d.Kind == Clustered {
			if rec.Sys, err = readValues([]Field{sysTrxID, sysRollPtr}); err != nil {
				return nil, err
			}
		}
		if rec.Row, err = readValues(d.RowFields); err != nil {
			return nil, err
		}
	}

	rec.Length = fc.Position() - origin
	return rec, nil
}

// ReadExtern reads the 20-byte external-storage reference trailing a
// field's truncated inline prefix.
func ReadExtern(c *cursor.Cursor) (ExternRef, error) {
	spaceID, err := c.ReadU32()
	if err != nil {
		return ExternRef{}, err
	}
	page, err := c.ReadU32()
	if err != nil {
		return ExternRef{}, err
	}
	offset, err := c.ReadU32()
	if err != nil {
		return ExternRef{}, err
	}
	length, err := c.ReadU64()
	if err != nil {
		return ExternRef{}, err
	}
	return ExternRef{SpaceID: spaceID, Page: page, Offset: offset, Length: length & 0x3fffffff}, nil
}

// CompareKey orders this record's key against another's: nil keys
// (system records) sort below any real key, a length mismatch orders
// the shorter key lower, and otherwise fields are compared in order,
// the first difference deciding.
func CompareKey(a, b []interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if c := compareValue(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValue(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case uint64:
		bv := b.(uint64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case []byte:
		bv := b.([]byte)
		n := len(av)
		if len(bv) < n {
			n = len(bv)
		}
		for i := 0; i < n; i++ {
			if av[i] != bv[i] {
				if av[i] < bv[i] {
					return -1
				}
				return 1
			}
		}
		switch {
		case len(av) < len(bv):
			return -1
		case len(av) > len(bv):
			return 1
		default:
			return 0
		}
	default:
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
}
