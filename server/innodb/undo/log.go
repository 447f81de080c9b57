// Package undo decodes undo logs and the undo records they chain
// together: the before-images and delete markers a rollback segment
// keeps around for transaction rollback and MVCC history reads.
package undo

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// Undo log header field offsets, relative to the header's own position
// (not the page body): trx_id(8), trx_no(8), del_marks(2), log_start(2),
// xid_exists(1), dict_trans(1), table_id(8), next_log(2), prev_log(2),
// history_node(12) — 46 bytes total before the optional XA block.
const (
	hdrTrxID       = 0
	hdrTrxNo       = 8
	hdrDelMarks    = 16
	hdrLogStart    = 18
	hdrXIDExists   = 20
	hdrDictTrans   = 21
	hdrTableID     = 22
	hdrNextLog     = 30
	hdrPrevLog     = 32
	hdrHistoryNode = 34

	// HeaderSize is the fixed undo log header size when no XA
	// information is attached.
	HeaderSize = 46

	xaFormat    = HeaderSize
	xaTridLen   = HeaderSize + 4
	xaBqualLen  = HeaderSize + 8
	xaData      = HeaderSize + 12
	xaDataLen   = 140
	// HeaderSizeWithXID is the header size once the optional
	// distributed-transaction XID block is present.
	HeaderSizeWithXID = xaData + xaDataLen
)

// XID is a decoded X/Open distributed transaction identifier.
type XID struct {
	FormatID    int32
	GlobalTrxID []byte
	BranchQual  []byte
}

// UndoLog wraps an undo log header living at pos within p (the first
// page of an undo segment, or a continuation page after TRX_UNDO_PAGE
// reuse).
type UndoLog struct {
	p   *page.Page
	pos int
}

// NewUndoLog wraps the undo log header at byte offset pos within p's
// body.
func NewUndoLog(p *page.Page, pos int) *UndoLog { return &UndoLog{p: p, pos: pos} }

// Page is the page this log header lives on.
func (u *UndoLog) Page() *page.Page { return u.p }

// Pos is this log header's byte offset within its page's body.
func (u *UndoLog) Pos() int { return u.pos }

func (u *UndoLog) body() []byte { return u.p.Body()[u.pos:] }

func (u *UndoLog) u16(off int) uint16 { return uint16(u.body()[off])<<8 | uint16(u.body()[off+1]) }
func (u *UndoLog) u32(off int) uint32 {
	b := u.body()
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}
func (u *UndoLog) u64(off int) uint64 {
	var v uint64
	for _, x := range u.body()[off : off+8] {
		v = v<<8 | uint64(x)
	}
	return v
}

// TrxID is the transaction that wrote this log.
func (u *UndoLog) TrxID() uint64 { return u.u64(hdrTrxID) }

// TrxNo is the transaction's commit/rollback sequence number, used to
// order history-list entries for purge.
func (u *UndoLog) TrxNo() uint64 { return u.u64(hdrTrxNo) }

// DeleteMarkFlag reports whether the log contains any delete-marking
// update.
func (u *UndoLog) DeleteMarkFlag() bool { return u.u16(hdrDelMarks) != 0 }

// LogStartOffset is the byte offset of the first undo record in this
// log (the header itself may be followed by reused, stale record
// bytes past the end of the live chain).
func (u *UndoLog) LogStartOffset() uint16 { return u.u16(hdrLogStart) }

// XIDFlag reports whether an XA XID block follows the fixed header.
func (u *UndoLog) XIDFlag() bool { return u.body()[hdrXIDExists] != 0 }

// DDLFlag reports whether this log belongs to a data dictionary
// transaction (table create/drop/alter) rather than an ordinary DML one.
func (u *UndoLog) DDLFlag() bool { return u.body()[hdrDictTrans] != 0 }

// DDLTableID is the table this log's DDL operation targets; meaningless
// unless DDLFlag is set.
func (u *UndoLog) DDLTableID() uint64 { return u.u64(hdrTableID) }

// NextLogOffset is the page offset of the next undo log header sharing
// this segment, or 0 if this is the last.
func (u *UndoLog) NextLogOffset() uint16 { return u.u16(hdrNextLog) }

// PrevLogOffset is the page offset of the previous undo log header
// sharing this segment, or 0 if this is the first.
func (u *UndoLog) PrevLogOffset() uint16 { return u.u16(hdrPrevLog) }

// HistoryListNode links this log into the rollback segment's history
// list once its transaction has committed.
func (u *UndoLog) HistoryListNode() (list.Node, error) {
	c := cursor.New(u.p.Body())
	c.Seek(u.pos + hdrHistoryNode)
	return list.ReadNode(c)
}

// XID decodes the optional distributed-transaction identifier, present
// only when XIDFlag is set.
func (u *UndoLog) XID() (XID, error) {
	if !u.XIDFlag() {
		return XID{}, ierrors.Wrapf(ierrors.ErrUnsupportedFormat, "undo log at offset %d: no XID attached", u.pos)
	}
	tridLen := int(u.u32(xaTridLen))
	bqualLen := int(u.u32(xaBqualLen))
	data := u.body()[xaData : xaData+xaDataLen]
	return XID{
		FormatID:    int32(u.u32(xaFormat)),
		GlobalTrxID: append([]byte(nil), data[:tridLen]...),
		BranchQual:  append([]byte(nil), data[tridLen:tridLen+bqualLen]...),
	}, nil
}
