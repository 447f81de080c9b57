package list

import "github.com/innodb-tools/innodb-reader/server/innodb/cursor"

// EntryRefSize is the on-disk size of a file-segment entry reference: a
// 4-byte space id, a 4-byte inode page number, and a 2-byte inode
// offset.
const EntryRefSize = 10

// EntryRef points at a file-segment inode entry: the space owning it,
// the INODE page it lives on, and its byte offset within that page.
// Both the FSP header's segment bookkeeping and an INDEX page's FSEG
// header embed this reference, which is why it lives alongside Address
// rather than inside the segment package (segment itself wraps INODE
// pages and would otherwise need to import its readers' callers).
type EntryRef struct {
	SpaceID     uint32
	InodePage   uint32
	InodeOffset uint16
}

// ReadEntryRef reads a 10-byte file-segment entry reference.
func ReadEntryRef(c *cursor.Cursor) (EntryRef, error) {
	spaceID, err := c.ReadU32()
	if err != nil {
		return EntryRef{}, err
	}
	inodePage, err := c.ReadU32()
	if err != nil {
		return EntryRef{}, err
	}
	inodeOffset, err := c.ReadU16()
	if err != nil {
		return EntryRef{}, err
	}
	return EntryRef{SpaceID: spaceID, InodePage: inodePage, InodeOffset: inodeOffset}, nil
}
