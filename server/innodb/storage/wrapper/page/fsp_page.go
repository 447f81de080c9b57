package page

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/extent"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

const (
	// ExtentSizeBytes is the fixed 1 MiB extent size regardless of page size.
	ExtentSizeBytes = 1024 * 1024
	// NumXdesEntries is the fixed number of extent descriptors carried by
	// every FSP_HDR/XDES page.
	NumXdesEntries = 256

	fspHeaderSize = 112

	ffSpaceID    = 0
	ffSize       = 8
	ffFreeLimit  = 12
	ffFlags      = 16
	ffFragNUsed  = 20
	ffFree       = 24
	ffFreeFrag   = 40
	ffFullFrag   = 56
	ffSegID      = 72
	ffFullInodes = 80
	ffFreeInodes = 96
)

// SpaceFlags decodes the FSP header's packed 32-bit flags word.
type SpaceFlags struct {
	PostAntelope       bool
	CompressedPageLog2 uint32 // 0 when uncompressed
	AtomicBlobs        bool
	SystemPageLog2     uint32 // 0 when using the space's own page size
	DataDirectory      bool
	Raw                uint32
}

// CompressedPageSize returns the compressed page size in bytes, or 0 if
// this space isn't compressed.
func (f SpaceFlags) CompressedPageSize() uint32 {
	if f.CompressedPageLog2 == 0 {
		return 0
	}
	return 1 << (9 + f.CompressedPageLog2)
}

// PageSize returns the space's own (uncompressed) page size in bytes,
// decoded from the system-page-size shift; a zero shift means the
// default 16 KiB.
func (f SpaceFlags) PageSize() uint32 {
	if f.SystemPageLog2 == 0 {
		return 16384
	}
	return 1 << (9 + f.SystemPageLog2)
}

func decodeFlags(raw uint32) SpaceFlags {
	return SpaceFlags{
		PostAntelope:       raw&0x1 != 0,
		CompressedPageLog2: (raw >> 1) & 0xF,
		AtomicBlobs:        raw&(1<<5) != 0,
		SystemPageLog2:     (raw >> 6) & 0xF,
		DataDirectory:      raw&(1<<10) != 0,
		Raw:                raw,
	}
}

// FspHdrPage wraps a FSP_HDR/XDES page: page 0 and every 16384th page of
// a tablespace.
type FspHdrPage struct {
	p *Page
}

// FromFspPage wraps p, which must be a TypeFspHdr (or TypeXdes) page.
func FromFspPage(p *Page) *FspHdrPage { return &FspHdrPage{p: p} }

func (f *FspHdrPage) body() []byte { return f.p.Body() }

func (f *FspHdrPage) u32(off int) uint32 { return be32(f.body()[off : off+4]) }
func (f *FspHdrPage) u64(off int) uint64 { return be64(f.body()[off : off+8]) }

// SpaceID is the space id recorded in the FSP header itself (should match
// the FIL header's space id).
func (f *FspHdrPage) SpaceID() uint32 { return f.u32(ffSpaceID) }

// SizePages is the current size of the tablespace, in pages.
func (f *FspHdrPage) SizePages() uint32 { return f.u32(ffSize) }

// FreeLimit is the first page number not yet used by any extent.
func (f *FspHdrPage) FreeLimit() uint32 { return f.u32(ffFreeLimit) }

// Flags decodes the packed space flags.
func (f *FspHdrPage) Flags() SpaceFlags { return decodeFlags(f.u32(ffFlags)) }

// FragNUsed is the number of used pages in the free_frag extent list's
// partially-used extents.
func (f *FspHdrPage) FragNUsed() uint32 { return f.u32(ffFragNUsed) }

func (f *FspHdrPage) baseNodeAt(off int) (list.BaseNode, error) {
	c := cursor.New(f.body())
	c.Seek(off)
	return list.ReadBaseNode(c)
}

// FreeExtents is the list of fully-free extents.
func (f *FspHdrPage) FreeExtents() (list.BaseNode, error) { return f.baseNodeAt(ffFree) }

// FreeFragExtents is the list of partially-used "fragment" extents.
func (f *FspHdrPage) FreeFragExtents() (list.BaseNode, error) { return f.baseNodeAt(ffFreeFrag) }

// FullFragExtents is the list of fully-used "fragment" extents.
func (f *FspHdrPage) FullFragExtents() (list.BaseNode, error) { return f.baseNodeAt(ffFullFrag) }

// FirstUnusedSegID is the next segment id this space will allocate.
func (f *FspHdrPage) FirstUnusedSegID() uint64 { return f.u64(ffSegID) }

// FullInodePages is the list of INODE pages with no free entries left.
func (f *FspHdrPage) FullInodePages() (list.BaseNode, error) { return f.baseNodeAt(ffFullInodes) }

// FreeInodePages is the list of INODE pages with at least one free entry.
func (f *FspHdrPage) FreeInodePages() (list.BaseNode, error) { return f.baseNodeAt(ffFreeInodes) }

// PagesPerExtent is ExtentSizeBytes / page size, e.g. 64 at the default
// 16 KiB page size.
func (f *FspHdrPage) PagesPerExtent() uint32 {
	return uint32(ExtentSizeBytes / f.p.PageSize())
}

// XdesEntry decodes the i-th (0-based) extent descriptor on this page.
// The extent it describes starts at this page's own page number plus
// i*pagesPerExtent.
func (f *FspHdrPage) XdesEntry(i int) (*extent.Xdes, error) {
	pagesPerExtent := f.PagesPerExtent()
	entrySize := 8 + 12 + 4 + int(pagesPerExtent)*2/8
	offset := fspHeaderSize + i*entrySize
	c := cursor.New(f.body())
	c.Seek(offset)
	extentFirstPage := f.p.RequestedPageNo() + uint32(i)*pagesPerExtent
	return extent.New(c, f.p.RequestedPageNo(), uint16(FileHeaderSize+offset), extentFirstPage, pagesPerExtent)
}

// XdesEntries decodes all 256 extent descriptors on this page.
func (f *FspHdrPage) XdesEntries() ([]*extent.Xdes, error) {
	out := make([]*extent.Xdes, 0, NumXdesEntries)
	for i := 0; i < NumXdesEntries; i++ {
		x, err := f.XdesEntry(i)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// EachRegion enumerates the FSP header fields and each XDES entry.
func (f *FspHdrPage) EachRegion() []Region {
	regions := f.p.EachRegion()
	base := FileHeaderSize
	regions = append(regions,
		Region{Offset: base + ffSpaceID, Length: 4, Name: "fsp_header.space_id"},
		Region{Offset: base + ffSize, Length: 4, Name: "fsp_header.size"},
		Region{Offset: base + ffFreeLimit, Length: 4, Name: "fsp_header.free_limit"},
		Region{Offset: base + ffFlags, Length: 4, Name: "fsp_header.flags"},
		Region{Offset: base + ffFragNUsed, Length: 4, Name: "fsp_header.frag_n_used"},
		Region{Offset: base + ffFree, Length: 16, Name: "fsp_header.free"},
		Region{Offset: base + ffFreeFrag, Length: 16, Name: "fsp_header.free_frag"},
		Region{Offset: base + ffFullFrag, Length: 16, Name: "fsp_header.full_frag"},
		Region{Offset: base + ffSegID, Length: 8, Name: "fsp_header.first_unused_seg_id"},
		Region{Offset: base + ffFullInodes, Length: 16, Name: "fsp_header.full_inodes"},
		Region{Offset: base + ffFreeInodes, Length: 16, Name: "fsp_header.free_inodes"},
	)
	pagesPerExtent := f.PagesPerExtent()
	entrySize := 8 + 12 + 4 + int(pagesPerExtent)*2/8
	for i := 0; i < NumXdesEntries; i++ {
		regions = append(regions, Region{
			Offset: base + fspHeaderSize + i*entrySize,
			Length: entrySize,
			Name:   "fsp_header.xdes_entry",
		})
	}
	return regions
}
