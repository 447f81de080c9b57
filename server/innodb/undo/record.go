package undo

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// RecordType is the undo record's operation kind, the low 4 bits of its
// info byte. The values are the engine's real reserved tags, not a
// sequential 0..3 enumeration — they coexist on disk with the high bits
// of the same byte (extern flag, compilation info).
type RecordType uint8

const (
	TypeInsert         RecordType = 11
	TypeUpdateExisting RecordType = 12
	TypeUpdateDeleted  RecordType = 13
	TypeDeleteMark     RecordType = 14
)

func (t RecordType) String() string {
	switch t {
	case TypeInsert:
		return "insert"
	case TypeUpdateExisting:
		return "update_existing"
	case TypeUpdateDeleted:
		return "update_deleted"
	case TypeDeleteMark:
		return "delete"
	default:
		return "unknown"
	}
}

// CompilationInfo decodes bits 4-6 of the info byte: cmpl_info, divided
// by the engine's TRX_UNDO_CMPL_INFO_MULT of 16, carries two inverted
// flags about the update that produced this record.
type CompilationInfo struct {
	OrderMayChange bool
	SizeMayChange  bool
}

// UpdatedField is one (field number, old value) pair from an
// update/delete undo record's field list.
type UpdatedField struct {
	FieldNo int
	Raw     []byte
}

// UndoRecord is one decoded undo record: a before-image or delete
// marker chained into an undo log.
type UndoRecord struct {
	Pos         int
	PrevOffset  uint16
	NextOffset  uint16
	Type        RecordType
	ExternFlag  bool
	Compilation CompilationInfo

	UndoNo  uint64
	TableID uint64

	// InfoBits, TrxID, RollPtr are only populated for non-insert types.
	InfoBits uint8
	TrxID    uint64
	RollPtr  record.RollPtr

	// Key and UpdatedFields are only populated when Decode is given a
	// clustered-index describer.
	Key           []interface{}
	UpdatedFields []UpdatedField
}

// Decode reads the undo record at pos within p's body. The record's
// header starts 2 bytes before pos (the prev-offset field); clustered,
// when non-nil, lets the reader also decode the record's inline key
// (and, for update/delete types, its updated-field list).
func Decode(p *page.Page, pos int, clustered *record.Describer) (*UndoRecord, error) {
	if pos < 2 {
		return nil, errors.Errorf("undo: record position %d too small to hold a header", pos)
	}
	c := cursor.New(p.Body())
	c.Seek(pos - 2)

	prevOffset, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	nextOffset, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	infoByte, err := c.ReadU8()
	if err != nil {
		return nil, err
	}

	typ := RecordType(infoByte & 0x0F)
	externFlag := infoByte&0x80 != 0
	cmplInfo := (infoByte >> 4) & 0x7

	undoNo, err := c.ReadIMCUint64()
	if err != nil {
		return nil, err
	}
	tableID, err := c.ReadIMCUint64()
	if err != nil {
		return nil, err
	}

	rec := &UndoRecord{
		Pos:        pos,
		PrevOffset: prevOffset,
		NextOffset: nextOffset,
		Type:       typ,
		ExternFlag: externFlag,
		Compilation: CompilationInfo{
			OrderMayChange: cmplInfo&0x2 == 0,
			SizeMayChange:  cmplInfo&0x1 == 0,
		},
		UndoNo:  undoNo,
		TableID: tableID,
	}

	if typ != TypeInsert {
		infoBits, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		trxID, err := c.ReadICUint64()
		if err != nil {
			return nil, err
		}
		rollPtr, err := c.ReadICUint64()
		if err != nil {
			return nil, err
		}
		rec.InfoBits = infoBits
		rec.TrxID = trxID
		rec.RollPtr = record.DecodeRollPtr(rollPtr)
	}

	if clustered != nil {
		key, err := readValueList(c, clustered.KeyFields)
		if err != nil {
			return nil, errors.Wrap(err, "undo: decoding key")
		}
		rec.Key = key

		if typ != TypeInsert {
			fieldCount, err := c.ReadICUint32()
			if err != nil {
				return nil, err
			}
			fields := make([]UpdatedField, 0, fieldCount)
			for i := uint32(0); i < fieldCount; i++ {
				fieldNo, err := c.ReadICUint32()
				if err != nil {
					return nil, err
				}
				length, err := c.ReadICUint32()
				if err != nil {
					return nil, err
				}
				raw, err := c.ReadBytes(int(length))
				if err != nil {
					return nil, err
				}
				fields = append(fields, UpdatedField{FieldNo: int(fieldNo), Raw: append([]byte(nil), raw...)})
			}
			rec.UpdatedFields = fields
		}
	}

	return rec, nil
}

// readValueList reads len(fields) (ic-u32 length, value-by-length)
// pairs and decodes each one per its field's data type.
func readValueList(c *cursor.Cursor, fields []record.Field) ([]interface{}, error) {
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		length, err := c.ReadICUint32()
		if err != nil {
			return nil, err
		}
		raw, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		v, err := f.Type.Value(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		out = append(out, v)
	}
	return out, nil
}

// PrevByHistory follows rec's roll pointer to the undo record it
// overwrote. It returns (nil, nil) — not an error — when the target
// page was reused after purge: when it is no longer an undo-log page,
// belongs to a different table, or carries a transaction newer than
// rec's own.
func PrevByHistory(pager index.Pager, rec *UndoRecord, clustered *record.Describer) (*UndoRecord, error) {
	if rec.RollPtr.Insert {
		return nil, nil
	}
	target, err := pager.Page(rec.RollPtr.UndoPage)
	if err != nil {
		return nil, err
	}
	if target.Type() != page.TypeUndoLog {
		return nil, nil
	}
	prev, err := Decode(target, int(rec.RollPtr.UndoOffset), clustered)
	if err != nil {
		if errors.Is(err, ierrors.ErrOutOfBounds) {
			return nil, nil
		}
		return nil, err
	}
	if prev.TableID != rec.TableID {
		return nil, nil
	}
	if prev.Type != TypeInsert && prev.TrxID > rec.TrxID {
		return nil, nil
	}
	return prev, nil
}
