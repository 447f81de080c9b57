// Package page implements the common page envelope shared by every
// InnoDB page kind: the 38-byte FIL header, the 8-byte FIL trailer, and
// the header's type tag (Type, bucketed by Kind). The FSP_HDR/XDES,
// INDEX and dictionary-header body decoders live in this package; other
// kinds (INODE pages in segment, for one) wrap a *Page from their own
// packages.
package page

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/pkg/errors"
)

const (
	FileHeaderSize  = 38
	FileTrailerSize = 8

	foSpaceOrChecksum = 0
	foOffset          = 4
	foPrev            = 8
	foNext            = 12
	foLSN             = 16
	foType            = 24
	foFlushLSN        = 26
	foSpaceID         = 34

	// NoPage is the sentinel page number meaning "undefined/null".
	NoPage uint32 = 0xFFFFFFFF
)

// Region names one byte range of a page for diagnostic enumeration (hex
// dumps, round-trip coverage tests); it carries no decoding semantics.
type Region struct {
	Offset int
	Length int
	Name   string
	Info   string
}

// Page is the common envelope every page kind shares: FIL header, raw
// body bytes, FIL trailer. Specific bodies are decoded by wrapping a
// *Page (FspHdrPage, IndexPage and DictHeaderPage in this package,
// InodePage in segment).
type Page struct {
	space    uint32 // owning space id, for cross-page navigation by callers
	pageNo   uint32 // requested page number (not necessarily FIL offset)
	pageSize int
	buf      []byte
}

// New wraps a page-sized buffer. pageNo is the page number the caller
// requested (used for FIL-header offset cross-checking, not failure).
func New(buf []byte, pageNo uint32) (*Page, error) {
	if len(buf) < FileHeaderSize+FileTrailerSize {
		return nil, errors.Wrapf(ierrors.ErrPageReadError, "page %d: buffer too small (%d bytes)", pageNo, len(buf))
	}
	return &Page{pageNo: pageNo, pageSize: len(buf), buf: buf}, nil
}

// Buf returns the full raw page buffer (not a copy).
func (p *Page) Buf() []byte { return p.buf }

// PageSize returns the size in bytes of this page's buffer.
func (p *Page) PageSize() int { return p.pageSize }

// RequestedPageNo is the page number the caller asked for when reading
// this page from its space, independent of what the FIL header says.
func (p *Page) RequestedPageNo() uint32 { return p.pageNo }

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Checksum is the FIL header's stored page checksum.
func (p *Page) Checksum() uint32 { return be32(p.buf[foSpaceOrChecksum : foSpaceOrChecksum+4]) }

// Offset is the FIL header's own page-number field, expected (but not
// required) to equal RequestedPageNo.
func (p *Page) Offset() uint32 { return be32(p.buf[foOffset : foOffset+4]) }

// OffsetMatchesRequest reports whether the FIL header's stored offset
// agrees with the page number requested from the space. A mismatch is a
// warning-worthy oddity, never a hard failure.
func (p *Page) OffsetMatchesRequest() bool { return p.Offset() == p.pageNo }

func addressFrom(raw uint32) *uint32 {
	if raw == NoPage {
		return nil
	}
	v := raw
	return &v
}

// Prev is the previous page in this page's doubly linked list (e.g. the
// sibling leaf to the left), or nil if absent.
func (p *Page) Prev() *uint32 { return addressFrom(be32(p.buf[foPrev : foPrev+4])) }

// Next is the next page in this page's doubly linked list, or nil if
// absent.
func (p *Page) Next() *uint32 { return addressFrom(be32(p.buf[foNext : foNext+4])) }

// LSN is the log sequence number of the last modification to this page.
func (p *Page) LSN() uint64 { return be64(p.buf[foLSN : foLSN+8]) }

// Type is the FIL header's page-type tag.
func (p *Page) Type() Type { return Type(uint16(p.buf[foType])<<8 | uint16(p.buf[foType+1])) }

// FlushLSN is only meaningful on page 0 of the first file in the system
// tablespace: the LSN as of the last complete flush of the file.
func (p *Page) FlushLSN() uint64 { return be64(p.buf[foFlushLSN : foFlushLSN+8]) }

// SpaceID is the owning tablespace id: the id given to SetSpaceID when
// it is nonzero, otherwise the FIL header's space-id field.
func (p *Page) SpaceID() uint32 {
	if p.space != 0 {
		return p.space
	}
	return be32(p.buf[foSpaceID : foSpaceID+4])
}

// SetSpaceID lets the owning Space record its id on pages from
// tablespaces whose FIL header predates space-id stamping (rare, but the
// field only became reliable after the space-id-stored format change).
func (p *Page) SetSpaceID(id uint32) { p.space = id }

// Body is the slice between the FIL header and the FIL trailer: the
// page-kind-specific payload.
func (p *Page) Body() []byte {
	return p.buf[FileHeaderSize : p.pageSize-FileTrailerSize]
}

// TrailerChecksum is the low 4 bytes of the FIL trailer: a copy of the
// checksum, used to detect torn writes.
func (p *Page) TrailerChecksum() uint32 {
	off := p.pageSize - FileTrailerSize
	return be32(p.buf[off : off+4])
}

// TrailerLSNLow32 is the FIL trailer's low 32 bits of the page LSN.
func (p *Page) TrailerLSNLow32() uint32 {
	off := p.pageSize - FileTrailerSize + 4
	return be32(p.buf[off : off+4])
}

// EachRegion yields the FIL header and FIL trailer regions common to
// every page. Body decoders append their own regions after these.
func (p *Page) EachRegion() []Region {
	return []Region{
		{Offset: foSpaceOrChecksum, Length: 4, Name: "fil_header.checksum"},
		{Offset: foOffset, Length: 4, Name: "fil_header.offset"},
		{Offset: foPrev, Length: 4, Name: "fil_header.prev"},
		{Offset: foNext, Length: 4, Name: "fil_header.next"},
		{Offset: foLSN, Length: 8, Name: "fil_header.lsn"},
		{Offset: foType, Length: 2, Name: "fil_header.type", Info: p.Type().String()},
		{Offset: foFlushLSN, Length: 8, Name: "fil_header.flush_lsn"},
		{Offset: foSpaceID, Length: 4, Name: "fil_header.space_id"},
		{Offset: p.pageSize - FileTrailerSize, Length: 4, Name: "fil_trailer.checksum"},
		{Offset: p.pageSize - FileTrailerSize + 4, Length: 4, Name: "fil_trailer.lsn_low32"},
	}
}
