package undo

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

// HistoryElement is one undo log linked into a rollback segment's
// history list, resolved from a list.Address by HistoryList's loader.
type HistoryElement struct {
	Log  *UndoLog
	addr list.Address
	node list.Node
}

func (e *HistoryElement) Node() list.Node       { return e.node }
func (e *HistoryElement) Address() list.Address { return e.addr }

// HistoryList wraps the rollback segment's history list: every
// committed undo log still needed for consistent reads or awaiting
// purge, oldest first.
type HistoryList struct {
	pager index.Pager
	base  list.BaseNode
}

// NewHistoryList wraps a history list whose base node (length, first,
// last) has already been read from its owning rollback segment header.
func NewHistoryList(pager index.Pager, base list.BaseNode) *HistoryList {
	return &HistoryList{pager: pager, base: base}
}

// Len is the number of undo logs currently on the history list.
func (h *HistoryList) Len() uint32 { return h.base.Length }

func (h *HistoryList) load(addr list.Address) (list.Element, error) {
	p, err := h.pager.Page(addr.Page)
	if err != nil {
		return nil, err
	}
	ul := NewUndoLog(p, int(addr.Offset))
	node, err := ul.HistoryListNode()
	if err != nil {
		return nil, err
	}
	return &HistoryElement{Log: ul, addr: addr, node: node}, nil
}

// Cursor walks the list of undo log headers themselves, oldest-to-
// newest (Forward, starting at the base node's First) or newest-to-
// oldest (Backward, starting at Last).
func (h *HistoryList) Cursor(dir list.Direction) *list.Cursor {
	if dir == list.Forward {
		return list.AtFirst(h.base, h.load)
	}
	return list.AtLast(h.base, h.load)
}

// UndoRecordCursor walks undo records across log boundaries: it drains
// one log's record chain, then advances to the next log in the same
// direction as the underlying HistoryList traversal.
type UndoRecordCursor struct {
	logs      *list.Cursor
	clustered *record.Describer
	dir       list.Direction

	curLog  *UndoLog
	nextPos int
}

// UndoRecordCursor starts a cursor over every undo record reachable
// from this history list, in dir order; :min (Forward) begins at the
// oldest log's first record, :max (Backward) begins at the newest
// log's first record and walks its chain in reverse.
func (h *HistoryList) UndoRecordCursor(dir list.Direction, clustered *record.Describer) *UndoRecordCursor {
	return &UndoRecordCursor{logs: h.Cursor(dir), clustered: clustered, dir: dir}
}

// Next returns the next undo record, or (nil, nil) once every log on
// the history list has been drained.
func (c *UndoRecordCursor) Next() (*UndoRecord, error) {
	for {
		if c.curLog == nil {
			el, ok, err := c.logs.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			he := el.(*HistoryElement)
			c.curLog = he.Log
			c.nextPos = int(he.Log.LogStartOffset())
		}

		if c.nextPos == 0 {
			c.curLog = nil
			continue
		}

		rec, err := Decode(c.curLog.Page(), c.nextPos, c.clustered)
		if err != nil {
			return nil, errors.Wrapf(err, "undo: decoding record at page offset %d", c.nextPos)
		}
		if c.dir == list.Forward {
			c.nextPos = int(rec.NextOffset)
		} else {
			c.nextPos = int(rec.PrevOffset)
		}
		return rec, nil
	}
}
