package segment

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// listNodeSize is the 12-byte node threading an INODE page into the FSP
// header's full_inodes/free_inodes list.
const listNodeSize = 12

// InodePage wraps an INODE-type page: the page's own list-membership
// node, followed by as many fixed-size inode entries as fit.
type InodePage struct {
	p *page.Page
}

// FromPage wraps p, which must be a TypeInode page.
func FromPage(p *page.Page) *InodePage { return &InodePage{p: p} }

// ListNode is this page's own node in the FSP header's inode list.
func (ip *InodePage) ListNode() (list.Node, error) {
	c := cursor.New(ip.p.Body())
	return list.ReadNode(c)
}

// NumEntries is how many fixed-size inode entries fit in this page's
// body after its list node.
func (ip *InodePage) NumEntries() int {
	return (len(ip.p.Body()) - listNodeSize) / EntrySize
}

// Entry decodes the i-th inode entry on this page.
func (ip *InodePage) Entry(i int) (*Inode, error) {
	offset := listNodeSize + i*EntrySize
	c := cursor.New(ip.p.Body())
	c.Seek(offset)
	return New(c, ip.p.RequestedPageNo(), uint16(page.FileHeaderSize+offset))
}

// Entries decodes every allocated inode entry on this page.
func (ip *InodePage) Entries() ([]*Inode, error) {
	n := ip.NumEntries()
	out := make([]*Inode, 0, n)
	for i := 0; i < n; i++ {
		e, err := ip.Entry(i)
		if err != nil {
			return nil, err
		}
		if e.Allocated() {
			out = append(out, e)
		}
	}
	return out, nil
}

// EachRegion enumerates the page's own node and each entry.
func (ip *InodePage) EachRegion() []page.Region {
	regions := ip.p.EachRegion()
	base := page.FileHeaderSize
	regions = append(regions, page.Region{Offset: base, Length: listNodeSize, Name: "inode_page.list_node"})
	n := ip.NumEntries()
	for i := 0; i < n; i++ {
		regions = append(regions, page.Region{
			Offset: base + listNodeSize + i*EntrySize,
			Length: EntrySize,
			Name:   "inode_page.entry",
		})
	}
	return regions
}
