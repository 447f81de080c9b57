// Package extent decodes XDES (extent descriptor) entries: the
// per-extent bitmap, list node, allocation state, and owning segment id
// packed into every FSP_HDR/XDES page.
package extent

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

// EntrySizeAt64Pages is the on-disk size of one XDES entry: 8 (fseg id) + 12 (list
// node) + 4 (state) + 16 (bitmap, at the default 64-page extent).
const EntrySizeAt64Pages = 40

// State is the allocation state of an extent.
type State uint32

const (
	StateFree     State = 1
	StateFreeFrag State = 2
	StateFullFrag State = 3
	StateFseg     State = 4
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateFreeFrag:
		return "FREE_FRAG"
	case StateFullFrag:
		return "FULL_FRAG"
	case StateFseg:
		return "FSEG"
	default:
		return "UNKNOWN"
	}
}

// PageStatus is one extent page's 2-bit status: a free bit and a clean
// bit. Only these two bits are defined; clean is preserved but unused by
// the engine.
type PageStatus struct {
	Free  bool
	Clean bool
}

// Xdes is one decoded extent descriptor.
type Xdes struct {
	thisPage        uint32
	thisOffset      uint16
	extentFirstPage uint32
	pagesPerExtent  uint32
	fsegID          uint64
	node            list.Node
	state           State
	bitmap          cursor.BitArray
}

// New decodes an XDES entry from c, which must be positioned at the
// entry's start. extentFirstPage is the first page number of the extent
// this entry describes (computed by the caller from the entry's index
// within the FSP_HDR/XDES page's 256-entry array).
func New(c *cursor.Cursor, thisPage uint32, thisOffset uint16, extentFirstPage uint32, pagesPerExtent uint32) (*Xdes, error) {
	c.Forward()
	fsegID, err := c.ReadU64()
	if err != nil {
		return nil, err
	}
	node, err := list.ReadNode(c)
	if err != nil {
		return nil, err
	}
	stateRaw, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	bitmap, err := c.ReadBitArray(int(pagesPerExtent) * 2)
	if err != nil {
		return nil, err
	}
	return &Xdes{
		thisPage:        thisPage,
		thisOffset:      thisOffset,
		extentFirstPage: extentFirstPage,
		pagesPerExtent:  pagesPerExtent,
		fsegID:          fsegID,
		node:            node,
		state:           State(stateRaw),
		bitmap:          bitmap,
	}, nil
}

// FsegID is the owning file segment id, or 0 when this extent isn't
// allocated to any segment.
func (x *Xdes) FsegID() uint64 { return x.fsegID }

// State is this extent's allocation state.
func (x *Xdes) State() State { return x.state }

// Node exposes the list node so Xdes satisfies list.Element.
func (x *Xdes) Node() list.Node { return x.node }

// Address is this entry's own (page, offset) coordinate.
func (x *Xdes) Address() list.Address {
	return list.Address{Page: x.thisPage, Offset: x.thisOffset}
}

// ExtentFirstPage is the first page number covered by this extent.
func (x *Xdes) ExtentFirstPage() uint32 { return x.extentFirstPage }

// PagesPerExtent is the number of pages this descriptor's bitmap covers.
func (x *Xdes) PagesPerExtent() uint32 { return x.pagesPerExtent }

// EachPageStatus walks the bitmap LSB-first, yielding (page number,
// status) for every page in the extent.
func (x *Xdes) EachPageStatus(yield func(pageNumber uint32, status PageStatus)) {
	for i := uint32(0); i < x.pagesPerExtent; i++ {
		status := PageStatus{
			Free:  x.bitmap.Bit(int(i)*2 + 0),
			Clean: x.bitmap.Bit(int(i)*2 + 1),
		}
		yield(x.extentFirstPage+i, status)
	}
}

// FreePages counts pages with Free == true.
func (x *Xdes) FreePages() uint32 {
	var n uint32
	x.EachPageStatus(func(_ uint32, s PageStatus) {
		if s.Free {
			n++
		}
	})
	return n
}

// UsedPages is PagesPerExtent - FreePages.
func (x *Xdes) UsedPages() uint32 { return x.pagesPerExtent - x.FreePages() }

// Equal compares two extent descriptors by identity: (this_page,
// this_offset).
func (x *Xdes) Equal(other *Xdes) bool {
	if other == nil {
		return false
	}
	return x.thisPage == other.thisPage && x.thisOffset == other.thisOffset
}
