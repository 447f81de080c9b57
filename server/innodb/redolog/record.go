package redolog

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
)

// knownTypes lists every MLOG_*/MTR_* tag this package recognizes as a
// valid (if not always fully payload-decoded) redo record type.
var knownTypes = map[RecordType]bool{
	MLOG_1BYTE: true, MLOG_2BYTES: true, MLOG_4BYTES: true, MLOG_8BYTES: true,
	MLOG_REC_INSERT: true, MLOG_REC_CLUST_DELETE_MARK: true, MLOG_REC_SEC_DELETE_MARK: true,
	MLOG_REC_UPDATE_IN_PLACE: true, MLOG_REC_DELETE: true, MLOG_LIST_END_DELETE: true,
	MLOG_LIST_START_DELETE: true, MLOG_LIST_END_COPY_CREATED: true, MLOG_PAGE_REORGANIZE: true,
	MLOG_PAGE_CREATE: true, MLOG_UNDO_INSERT: true, MLOG_UNDO_ERASE_END: true,
	MLOG_UNDO_INIT: true, MLOG_UNDO_HDR_DISCARD: true, MLOG_UNDO_HDR_REUSE: true,
	MLOG_UNDO_HDR_CREATE: true, MLOG_REC_MIN_MARK: true, MLOG_IBUF_BITMAP_INIT: true,
	MLOG_LSN: true, MLOG_INIT_FILE_PAGE: true, MLOG_WRITE_STRING: true,
	MLOG_MULTI_REC_END: true, MLOG_DUMMY_RECORD: true, MLOG_FILE_CREATE: true,
	MLOG_FILE_RENAME: true, MLOG_FILE_DELETE: true, MLOG_COMP_REC_MIN_MARK: true,
	MLOG_COMP_PAGE_CREATE: true, MLOG_COMP_REC_INSERT: true, MLOG_COMP_REC_CLUST_DELETE_MARK: true,
	MLOG_COMP_REC_SEC_DELETE_MARK: true, MLOG_COMP_REC_UPDATE_IN_PLACE: true, MLOG_COMP_REC_DELETE: true,
	MLOG_COMP_LIST_END_DELETE: true, MLOG_COMP_LIST_START_DELETE: true, MLOG_COMP_LIST_END_COPY_CREATED: true,
	MLOG_COMP_PAGE_REORGANIZE: true, MLOG_FILE_CREATE2: true, MLOG_ZIP_WRITE_NODE_PTR: true,
	MLOG_ZIP_WRITE_BLOB_PTR: true, MLOG_ZIP_WRITE_HEADER: true, MLOG_ZIP_PAGE_COMPRESS: true,
	MLOG_ZIP_PAGE_COMPRESS_NO_DATA: true, MLOG_BIGGEST_TYPE: true,
}

// ValuePayload is the payload of MLOG_1BYTE/2BYTES/4BYTES/8BYTES: a
// single fixed-width value written at a byte offset within the page.
type ValuePayload struct {
	Offset uint16
	Value  uint64
}

// BytesPayload is a length-prefixed raw byte string, e.g. an
// MLOG_UNDO_INSERT record's undo bytes.
type BytesPayload struct {
	Value []byte
}

// WriteStringPayload is MLOG_WRITE_STRING: raw bytes written at a byte
// offset within the page.
type WriteStringPayload struct {
	Offset uint16
	Value  []byte
}

// UndoInitPayload is MLOG_UNDO_INIT's payload: which kind of undo log
// is being initialized.
type UndoInitPayload struct {
	UndoType RecordType
}

// FileNamePayload is the shared shape of MLOG_FILE_CREATE and
// MLOG_FILE_DELETE: a length-prefixed file name.
type FileNamePayload struct {
	Name string
}

// FileCreate2Payload is MLOG_FILE_CREATE2: a tablespace flags word plus
// a length-prefixed file name.
type FileCreate2Payload struct {
	Flags uint32
	Name  string
}

// FileRenamePayload is MLOG_FILE_RENAME: the file's old and new names.
type FileRenamePayload struct {
	OldName string
	NewName string
}

// IndexFieldDesc is one column's packed (mtype, prtype, length)
// descriptor as carried ahead of an MLOG_{COMP_,}REC_INSERT record's
// own fields, when the record defines its own index shape rather than
// relying on one already known to the reader. The three subfields are
// packed into the raw 16-bit word in a layout private to the writing
// server version; this reader keeps the word intact rather than
// guessing at bit boundaries it can't verify offline.
type IndexFieldDesc struct {
	Raw uint16
}

// IndexDescription is the optional per-column shape carried ahead of an
// insert record when the page's index isn't already known to the
// reader.
type IndexDescription struct {
	NCols  uint16
	NUnique uint16
	Fields []IndexFieldDesc
}

// InsertPayload is MLOG_REC_INSERT / MLOG_COMP_REC_INSERT: an optional
// index description followed by the inserted record's own bytes.
type InsertPayload struct {
	Index *IndexDescription

	PageOffset   uint16
	EndSegLen    uint32
	InfoBits     *uint8
	OriginOffset *uint32
	MismatchIdx  *uint32
	Data         []byte
}

// LogRecord is one decoded MLOG_* entry from the redo log stream.
type LogRecord struct {
	Single  bool
	Type    RecordType
	Space   uint32
	Page    uint32
	Payload interface{}
}

// decodeRecord reads exactly one LogRecord starting at c's current
// position, returning ierrors.ErrUnsupportedRecordType if the type tag
// isn't one this reader recognizes at all.
func decodeRecord(c *cursor.Cursor) (*LogRecord, error) {
	preamble, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	rec := &LogRecord{
		Single: preamble&0x80 != 0,
		Type:   RecordType(preamble &^ 0x80),
	}
	if !knownTypes[rec.Type] {
		return nil, ierrors.Wrapf(ierrors.ErrUnsupportedRecordType, "redolog: type tag %d", rec.Type)
	}

	if noSpacePage[rec.Type] {
		return rec, nil
	}
	if rec.Space, err = c.ReadICUint32(); err != nil {
		return nil, err
	}
	if rec.Page, err = c.ReadICUint32(); err != nil {
		return nil, err
	}

	if noPayload[rec.Type] {
		return rec, nil
	}

	payload, err := decodePayload(c, rec.Type)
	if err != nil {
		return nil, err
	}
	rec.Payload = payload
	return rec, nil
}

func decodePayload(c *cursor.Cursor, t RecordType) (interface{}, error) {
	switch t {
	case MLOG_1BYTE, MLOG_2BYTES, MLOG_4BYTES:
		off, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		v, err := c.ReadICUint32()
		if err != nil {
			return nil, err
		}
		return ValuePayload{Offset: off, Value: uint64(v)}, nil

	case MLOG_8BYTES:
		off, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		v, err := c.ReadICUint64()
		if err != nil {
			return nil, err
		}
		return ValuePayload{Offset: off, Value: v}, nil

	case MLOG_UNDO_INSERT:
		n, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		b, err := c.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		return BytesPayload{Value: b}, nil

	case MLOG_WRITE_STRING:
		off, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		n, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		b, err := c.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		return WriteStringPayload{Offset: off, Value: b}, nil

	case MLOG_UNDO_INIT:
		v, err := c.ReadICUint32()
		if err != nil {
			return nil, err
		}
		return UndoInitPayload{UndoType: RecordType(v)}, nil

	case MLOG_FILE_CREATE, MLOG_FILE_DELETE:
		name, err := readLenPrefixedName(c)
		if err != nil {
			return nil, err
		}
		return FileNamePayload{Name: name}, nil

	case MLOG_FILE_CREATE2:
		flags, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := readLenPrefixedName(c)
		if err != nil {
			return nil, err
		}
		return FileCreate2Payload{Flags: flags, Name: name}, nil

	case MLOG_FILE_RENAME:
		oldName, err := readLenPrefixedName(c)
		if err != nil {
			return nil, err
		}
		newName, err := readLenPrefixedName(c)
		if err != nil {
			return nil, err
		}
		return FileRenamePayload{OldName: oldName, NewName: newName}, nil

	case MLOG_REC_INSERT, MLOG_COMP_REC_INSERT:
		return decodeInsert(c)

	default:
		// A recognized tag without a byte-level payload decoder yet:
		// the reader still knows the record exists and where (space,
		// page) it applies to, just not its body shape.
		return nil, nil
	}
}

func readLenPrefixedName(c *cursor.Cursor) (string, error) {
	n, err := c.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeInsert(c *cursor.Cursor) (*InsertPayload, error) {
	hasIndex, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	p := &InsertPayload{}
	if hasIndex != 0 {
		nCols, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		nUniq, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		idx := &IndexDescription{NCols: nCols, NUnique: nUniq}
		for i := uint16(0); i < nCols; i++ {
			raw, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			idx.Fields = append(idx.Fields, IndexFieldDesc{Raw: raw})
		}
		p.Index = idx
	}

	if p.PageOffset, err = c.ReadU16(); err != nil {
		return nil, err
	}
	if p.EndSegLen, err = c.ReadICUint32(); err != nil {
		return nil, err
	}
	if p.EndSegLen&1 != 0 {
		infoBits, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		origin, err := c.ReadICUint32()
		if err != nil {
			return nil, err
		}
		mismatch, err := c.ReadICUint32()
		if err != nil {
			return nil, err
		}
		p.InfoBits = &infoBits
		p.OriginOffset = &origin
		p.MismatchIdx = &mismatch
	}

	n := int(p.EndSegLen >> 1)
	data, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	p.Data = data
	return p, nil
}
