package system

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
	"github.com/innodb-tools/innodb-reader/server/innodb/undo"
)

// Layout of the TRX_SYS page (trx0sys.h): an FSEG_HEADER for the
// system tablespace's own segment, followed by a fixed array of
// rollback-segment slots, each a (space, page_no) pair naming the
// space and page where that rollback segment's header lives. An
// unused slot has page_no == NoPage.
const (
	trxSysPageNo    = 4
	trxSysFsegSize  = 10
	trxSysRsegsBase = 8 + trxSysFsegSize // TRX_SYS_RSEGS
	trxSysRsegSlot  = 8                  // space (4) + page_no (4)
	trxSysMaxRsegs  = 128
)

// Layout of a rollback segment header page (trx0rseg.h): max size,
// history-list length, then the history list's own base node (length,
// first, last — 16 bytes, the same shape list.ReadBaseNode reads
// everywhere else in this module).
const (
	rsegHistoryOffset = 8
)

// RollbackSegment is one of the system tablespace's undo-log rollback
// segments: a page that roots a history list of committed-but-not-yet-
// purged undo logs.
type RollbackSegment struct {
	Slot    int
	SpaceID uint32
	PageNo  uint32

	sys *System
}

// History loads every in-use rollback segment slot from the TRX_SYS
// page and returns one RollbackSegment per slot with a page_no other
// than NoPage, in slot order.
func (s *System) History() ([]*RollbackSegment, error) {
	p, err := s.primary.Page(trxSysPageNo)
	if err != nil {
		return nil, err
	}
	if p.Type() != page.TypeTrxSys {
		return nil, errors.Wrapf(ierrors.ErrPageTypeMismatch, "page %d is %s, not TRX_SYS", trxSysPageNo, p.Type())
	}
	body := p.Body()
	var out []*RollbackSegment
	for slot := 0; slot < trxSysMaxRsegs; slot++ {
		off := trxSysRsegsBase + slot*trxSysRsegSlot
		spaceID := be32(body[off : off+4])
		pageNo := be32(body[off+4 : off+8])
		if pageNo == list.NoPage {
			continue
		}
		out = append(out, &RollbackSegment{Slot: slot, SpaceID: spaceID, PageNo: pageNo, sys: s})
	}
	return out, nil
}

// HistoryList reads this rollback segment's header page and returns
// its history list, ready to walk via undo.HistoryList.
func (r *RollbackSegment) HistoryList() (*undo.HistoryList, error) {
	pager, err := r.sys.Space(r.SpaceID)
	if err != nil {
		return nil, err
	}
	sp, err := pager.Page(r.PageNo)
	if err != nil {
		return nil, err
	}
	if sp.Type() != page.TypeSys {
		return nil, errors.Wrapf(ierrors.ErrPageTypeMismatch, "rollback segment header page %d is %s, not SYS", r.PageNo, sp.Type())
	}
	c := cursor.New(sp.Body()).Seek(rsegHistoryOffset)
	base, err := list.ReadBaseNode(c)
	if err != nil {
		return nil, err
	}
	return undo.NewHistoryList(pager, base), nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
