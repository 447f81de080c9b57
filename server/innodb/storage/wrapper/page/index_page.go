package page

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

const (
	indexHeaderSize = 36
	mumRecordSize   = 8 // fixed payload of the infimum/supremum system records

	ihNDirSlots  = 0
	ihHeapTop    = 2
	ihNHeap      = 4
	ihFree       = 6
	ihGarbage    = 8
	ihLastInsert = 10
	ihDirection  = 12
	ihNDirection = 14
	ihNRecs      = 16
	ihMaxTrxID   = 18
	ihLevel      = 26
	ihIndexID    = 28

	compactFormatFlag = 0x8000

	directorySlotSize = 2
)

// Direction is a page's recently-observed insert direction.
type Direction uint16

const (
	DirLeft         Direction = 1
	DirRight        Direction = 2
	DirSameRec      Direction = 3
	DirSamePage     Direction = 4
	DirNoDirection  Direction = 5
)

// IndexPage wraps an INDEX-type page: the page header, the two FSEG
// header entries, the infimum/supremum system records, the user-record
// heap, and the descending page directory.
type IndexPage struct {
	p *Page
}

// FromIndexPage wraps p, which must be a TypeIndex (or SDI-as-INDEX) page.
func FromIndexPage(p *Page) *IndexPage { return &IndexPage{p: p} }

// FilePage is the underlying page envelope, for sibling-link navigation.
func (ip *IndexPage) FilePage() *Page { return ip.p }

func (ip *IndexPage) body() []byte { return ip.p.Body() }

func (ip *IndexPage) u16(off int) uint16 {
	b := ip.body()[off : off+2]
	return uint16(b[0])<<8 | uint16(b[1])
}
func (ip *IndexPage) u32(off int) uint32 { return be32(ip.body()[off : off+4]) }
func (ip *IndexPage) u64(off int) uint64 { return be64(ip.body()[off : off+8]) }

// NDirSlots is the number of slots in the page directory.
func (ip *IndexPage) NDirSlots() int { return int(ip.u16(ihNDirSlots)) }

// HeapTop is the byte offset (within the page) of the first free byte
// in the user-record heap.
func (ip *IndexPage) HeapTop() int { return int(ip.u16(ihHeapTop)) }

// rawNHeap is the 16-bit n_heap word, format bit included.
func (ip *IndexPage) rawNHeap() uint16 { return ip.u16(ihNHeap) }

// NHeap is the number of records (including infimum/supremum) ever
// allocated in the heap, format bit masked off.
func (ip *IndexPage) NHeap() int { return int(ip.rawNHeap() &^ compactFormatFlag) }

// Format reports the record layout this page uses, from n_heap's top bit.
func (ip *IndexPage) Format() record.Format {
	if ip.rawNHeap()&compactFormatFlag != 0 {
		return record.FormatCompact
	}
	return record.FormatRedundant
}

func (ip *IndexPage) headerSize() int {
	if ip.Format() == record.FormatCompact {
		return 5
	}
	return 6
}

// FreeListHead is the byte offset of the first record in the garbage
// (deleted-record) list, or 0 when empty.
func (ip *IndexPage) FreeListHead() int { return int(ip.u16(ihFree)) }

// GarbageBytes is the total byte size of records on the garbage list.
func (ip *IndexPage) GarbageBytes() int { return int(ip.u16(ihGarbage)) }

// LastInsert is the byte offset of the most recently inserted record, or
// 0 if none.
func (ip *IndexPage) LastInsert() int { return int(ip.u16(ihLastInsert)) }

// InsertDirection is the page's recent insertion direction.
func (ip *IndexPage) InsertDirection() Direction { return Direction(ip.u16(ihDirection)) }

// NDirection is the number of consecutive inserts in InsertDirection.
func (ip *IndexPage) NDirection() int { return int(ip.u16(ihNDirection)) }

// NRecs is the number of user records on this page (excluding
// infimum/supremum and garbage).
func (ip *IndexPage) NRecs() int { return int(ip.u16(ihNRecs)) }

// MaxTrxID is the maximum transaction id of any record modifying this
// page; meaningful on secondary-index leaf and all non-leaf pages.
func (ip *IndexPage) MaxTrxID() uint64 { return ip.u64(ihMaxTrxID) }

// Level is this page's position in the B+tree, 0 at the leaf.
func (ip *IndexPage) Level() int { return int(ip.u16(ihLevel)) }

// IndexID is the id of the index this page belongs to.
func (ip *IndexPage) IndexID() uint64 { return ip.u64(ihIndexID) }

func (ip *IndexPage) fsegHeaderOffset() int { return indexHeaderSize }

// InternalSegment is the non-leaf file-segment entry reference, valid
// only on the root page.
func (ip *IndexPage) InternalSegment() (list.EntryRef, error) {
	c := cursor.New(ip.body())
	c.Seek(ip.fsegHeaderOffset())
	return list.ReadEntryRef(c)
}

// LeafSegment is the leaf file-segment entry reference, valid only on
// the root page.
func (ip *IndexPage) LeafSegment() (list.EntryRef, error) {
	c := cursor.New(ip.body())
	c.Seek(ip.fsegHeaderOffset() + list.EntryRefSize)
	return list.ReadEntryRef(c)
}

func (ip *IndexPage) posRecords() int { return indexHeaderSize + 2*list.EntryRefSize }

func (ip *IndexPage) posInfimum() int { return ip.posRecords() + ip.headerSize() }

func (ip *IndexPage) posSupremum() int { return ip.posInfimum() + ip.headerSize() + mumRecordSize }

func (ip *IndexPage) posUserRecords() int { return ip.posSupremum() + mumRecordSize }

// posDirectory is the body-relative offset one past the last directory
// slot; Body() already excludes the FIL trailer, so the directory runs
// right up to the end of the body.
func (ip *IndexPage) posDirectory() int { return len(ip.body()) }

// mumDescriber is a describer with no fields, used to decode the two
// fixed system records (whose key/row are never read) and any record
// when only header/next-pointer information is wanted.
var mumDescriber = record.NewDescriber(record.Clustered)

// Infimum decodes the page's infimum system record.
func (ip *IndexPage) Infimum() (*record.Record, error) {
	c := cursor.New(ip.body())
	return record.Decode(c, ip.posInfimum(), ip.Format(), mumDescriber)
}

// Supremum decodes the page's supremum system record.
func (ip *IndexPage) Supremum() (*record.Record, error) {
	c := cursor.New(ip.body())
	return record.Decode(c, ip.posSupremum(), ip.Format(), mumDescriber)
}

// Record decodes the record whose origin is at byte offset `origin`,
// per d's field layout.
func (ip *IndexPage) Record(origin int, d *record.Describer) (*record.Record, error) {
	c := cursor.New(ip.body())
	return record.Decode(c, origin, ip.Format(), d)
}

// RecordCursor walks this page's live record chain, decoding full field
// values per d as it goes.
type RecordCursor struct {
	ip     *IndexPage
	d      *record.Describer
	origin int
	done   bool
}

// CursorAtMin starts a forward cursor at the first user record (the one
// right after infimum).
func (ip *IndexPage) CursorAtMin(d *record.Describer) (*RecordCursor, error) {
	inf, err := ip.Infimum()
	if err != nil {
		return nil, err
	}
	return &RecordCursor{ip: ip, d: d, origin: inf.Next}, nil
}

// originBefore walks forward from infimum and returns the origin of the
// record immediately preceding the one at target, since the record
// chain carries no backward pointer. ok is false if target is the first
// user record (its predecessor is infimum, which holds no user fields).
func (ip *IndexPage) originBefore(target int) (origin int, ok bool, err error) {
	inf, err := ip.Infimum()
	if err != nil {
		return 0, false, err
	}
	if target == inf.Next {
		return 0, false, nil
	}
	walker := ip.CursorAt(inf.Next, mumDescriber)
	prevOrigin := inf.Next
	for {
		r, err := walker.NextRecord()
		if err != nil {
			return 0, false, err
		}
		if r == nil || r.Offset == target {
			return prevOrigin, true, nil
		}
		prevOrigin = r.Offset
	}
}

// CursorAtMax starts a cursor at the last user record (the one right
// before supremum).
func (ip *IndexPage) CursorAtMax(d *record.Describer) (*RecordCursor, error) {
	sup, err := ip.Supremum()
	if err != nil {
		return nil, err
	}
	origin, ok, err := ip.originBefore(sup.Offset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &RecordCursor{ip: ip, d: d, done: true}, nil
	}
	return &RecordCursor{ip: ip, d: d, origin: origin}, nil
}

// CursorAt starts a cursor at a given record origin.
func (ip *IndexPage) CursorAt(origin int, d *record.Describer) *RecordCursor {
	return &RecordCursor{ip: ip, d: d, origin: origin}
}

// NextRecord decodes the current record and advances the cursor to the
// next one, returning (nil, nil) once supremum is reached.
func (c *RecordCursor) NextRecord() (*record.Record, error) {
	if c.done {
		return nil, nil
	}
	rec, err := c.ip.Record(c.origin, c.d)
	if err != nil {
		return nil, err
	}
	if rec.Header.Type == record.RecSupremum {
		c.done = true
		return nil, nil
	}
	c.origin = rec.Next
	return rec, nil
}

// PrevRecord decodes the record the cursor currently points at and
// moves it backward to that record's predecessor (found by a forward
// scan from infimum, since the chain carries no backward pointer),
// returning (nil, nil) once infimum is passed.
func (c *RecordCursor) PrevRecord() (*record.Record, error) {
	if c.done {
		return nil, nil
	}
	rec, err := c.ip.Record(c.origin, c.d)
	if err != nil {
		return nil, err
	}
	origin, ok, err := c.ip.originBefore(c.origin)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.done = true
	} else {
		c.origin = origin
	}
	return rec, nil
}

// DirectorySlot reads the i-th (0-based) page directory slot: the byte
// offset of the record it owns. Slots are stored in descending address
// order, 2 bytes each, growing down from the FIL trailer.
func (ip *IndexPage) DirectorySlot(i int) int {
	off := ip.posDirectory() - (i+1)*directorySlotSize
	return int(ip.u16(off))
}

// LinearSearchFromCursor walks forward from a record cursor, returning
// the last record whose key is <= key, per record.CompareKey, without
// ever returning supremum.
func (ip *IndexPage) LinearSearchFromCursor(start *RecordCursor, key []interface{}) (*record.Record, error) {
	var best *record.Record
	for {
		rec, err := start.NextRecord()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		if record.CompareKey(rec.Key, key) > 0 {
			break
		}
		best = rec
	}
	return best, nil
}

// BinarySearchByDirectory binary-subdivides the page directory
// (excluding the final supremum-owning slot) to find a record, falling
// back to a linear walk within the winning slot's owned chain.
func (ip *IndexPage) BinarySearchByDirectory(d *record.Describer, key []interface{}) (*record.Record, error) {
	lo, hi := 0, ip.NDirSlots()-1 // hi is the supremum slot, excluded from comparison
	for lo < hi {
		if hi-lo == 1 {
			origin := ip.DirectorySlot(lo)
			return ip.LinearSearchFromCursor(ip.CursorAt(origin, d).prevOf(ip), key)
		}
		mid := (lo + hi) / 2
		origin := ip.DirectorySlot(mid)
		rec, err := ip.Record(origin, d)
		if err != nil {
			return nil, err
		}
		switch record.CompareKey(rec.Key, key) {
		case 0:
			return rec, nil
		default:
			if record.CompareKey(key, rec.Key) > 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
	}
	origin := ip.DirectorySlot(lo)
	return ip.LinearSearchFromCursor(ip.CursorAt(origin, d).prevOf(ip), key)
}

// prevOf returns a cursor one record before c's position, found by a
// forward scan from infimum since the chain carries no backward
// pointer, so that a walk from it examines that predecessor and then
// c's record. When c points at infimum or at the first user record, or
// the scan fails, the returned cursor starts at the first user record.
func (c *RecordCursor) prevOf(ip *IndexPage) *RecordCursor {
	inf, err := ip.Infimum()
	if err != nil {
		return c
	}
	if c.origin == inf.Offset {
		return ip.CursorAt(inf.Next, c.d)
	}
	origin, ok, err := ip.originBefore(c.origin)
	if err != nil || !ok {
		return ip.CursorAt(inf.Next, c.d)
	}
	return ip.CursorAt(origin, c.d)
}

// GarbageRecords walks the garbage (deleted-record) list from the
// index header's free-list head, independent of the live chain.
func (ip *IndexPage) GarbageRecords(d *record.Describer) ([]*record.Record, error) {
	var out []*record.Record
	origin := ip.FreeListHead()
	for origin != 0 {
		rec, err := ip.Record(origin, d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		if rec.Next == origin {
			return nil, ierrors.ErrPageReadError
		}
		origin = rec.Next
	}
	return out, nil
}

// EachRegion enumerates the index header, FSEG header, both mum
// records, directory slots, and live/garbage records.
func (ip *IndexPage) EachRegion(d *record.Describer) ([]Region, error) {
	regions := ip.p.EachRegion()
	base := FileHeaderSize
	regions = append(regions,
		Region{Offset: base, Length: indexHeaderSize, Name: "index_header"},
		Region{Offset: base + indexHeaderSize, Length: 2 * list.EntryRefSize, Name: "fseg_header"},
	)

	regions = append(regions, Region{
		Offset: base + ip.posInfimum() - ip.headerSize(),
		Length: ip.headerSize() + mumRecordSize,
		Name:   "infimum",
	})
	regions = append(regions, Region{
		Offset: base + ip.posSupremum() - ip.headerSize(),
		Length: ip.headerSize() + mumRecordSize,
		Name:   "supremum",
	})

	for i := 0; i < ip.NDirSlots(); i++ {
		regions = append(regions, Region{
			Offset: base + ip.posDirectory() - (i+1)*directorySlotSize,
			Length: directorySlotSize,
			Name:   "directory_slot",
		})
	}

	cur, err := ip.CursorAtMin(mumDescriber)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cur.NextRecord()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		regions = append(regions, Region{
			Offset: base + rec.Offset - ip.headerSize(),
			Length: ip.headerSize() + rec.Length,
			Name:   "record",
		})
	}

	garbage, err := ip.GarbageRecords(mumDescriber)
	if err != nil {
		return nil, err
	}
	for _, rec := range garbage {
		regions = append(regions, Region{
			Offset: base + rec.Offset - ip.headerSize(),
			Length: ip.headerSize() + rec.Length,
			Name:   "garbage_record",
		})
	}

	return regions, nil
}
