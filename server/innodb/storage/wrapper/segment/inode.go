// Package segment decodes file-segment inode entries: the ownership
// record for a file segment, with its three extent lists (free,
// partially-used, full) and fragment-page array.
package segment

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

// MagicNumber marks an allocated inode entry; a mismatch means the slot
// has never been allocated to a segment.
const MagicNumber = 97937874

// EntrySize is the on-disk size of one inode entry: 8 + 4 + 3*16 + 4 +
// 32*4 = 192 bytes.
const EntrySize = 192

const fragSlots = 32

// Inode is one file-segment's ownership record.
type Inode struct {
	thisPage     uint32
	thisOffset   uint16
	FsegID       uint64
	NotFullNUsed uint32
	Free         list.BaseNode
	NotFull      list.BaseNode
	Full         list.BaseNode
	magic        uint32
	FragArray    [fragSlots]uint32 // 0xFFFFFFFF when the slot is empty
}

// New decodes one inode entry from c, positioned at the entry's start.
func New(c *cursor.Cursor, thisPage uint32, thisOffset uint16) (*Inode, error) {
	c.Forward()
	in := &Inode{thisPage: thisPage, thisOffset: thisOffset}
	var err error
	if in.FsegID, err = c.ReadU64(); err != nil {
		return nil, err
	}
	if in.NotFullNUsed, err = c.ReadU32(); err != nil {
		return nil, err
	}
	if in.Free, err = list.ReadBaseNode(c); err != nil {
		return nil, err
	}
	if in.NotFull, err = list.ReadBaseNode(c); err != nil {
		return nil, err
	}
	if in.Full, err = list.ReadBaseNode(c); err != nil {
		return nil, err
	}
	if in.magic, err = c.ReadU32(); err != nil {
		return nil, err
	}
	for i := 0; i < fragSlots; i++ {
		v, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		in.FragArray[i] = v
	}
	return in, nil
}

// Allocated reports whether the magic number matches; a mismatched magic
// means this slot has never held a segment.
func (in *Inode) Allocated() bool { return in.magic == MagicNumber }

// Address is this inode entry's own (page, offset) coordinate.
func (in *Inode) Address() list.Address {
	return list.Address{Page: in.thisPage, Offset: in.thisOffset}
}

// FragmentPages returns the non-empty slots of the fragment-page array.
func (in *Inode) FragmentPages() []uint32 {
	const noPage = 0xFFFFFFFF
	var out []uint32
	for _, p := range in.FragArray {
		if p != noPage {
			out = append(out, p)
		}
	}
	return out
}
