// Package index implements the B+tree index abstraction: given a root
// page number and a record describer, it classifies pages by level,
// descends spines to find extrema, and drives both linear and
// directory-assisted searches across page boundaries.
package index

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// Pager is the minimal capability an Index needs from its owning space:
// fetch a page by absolute number. A *space.Space satisfies this without
// the index package ever importing space, keeping the two packages'
// mutual awareness (space builds indexes, indexes fetch pages) acyclic.
type Pager interface {
	Page(n uint32) (*page.Page, error)
}

// Index is a B+tree rooted at a fixed page within a space.
type Index struct {
	pager Pager
	root  uint32
	d     *record.Describer
}

// New constructs an index view. d may be nil, in which case only
// structural traversal (levels, child pointers, record chains without
// field decoding) is available.
func New(pager Pager, root uint32, d *record.Describer) *Index {
	if d == nil {
		d = record.NewDescriber(record.Clustered)
	}
	return &Index{pager: pager, root: root, d: d}
}

// Root returns the root page number.
func (ix *Index) Root() uint32 { return ix.root }

func (ix *Index) indexPageAt(n uint32) (*page.IndexPage, *page.Page, error) {
	p, err := ix.pager.Page(n)
	if err != nil {
		return nil, nil, err
	}
	if p.Type() != page.TypeIndex {
		return nil, nil, errors.Wrapf(ierrors.ErrPageTypeMismatch, "page %d is %s, not INDEX", n, p.Type())
	}
	return page.FromIndexPage(p), p, nil
}

// RootPage validates and returns the root page: it must be an INDEX page
// with no prev/next sibling (a root is never linked into a level's
// sibling chain).
func (ix *Index) RootPage() (*page.IndexPage, error) {
	ip, p, err := ix.indexPageAt(ix.root)
	if err != nil {
		return nil, err
	}
	if p.Prev() != nil || p.Next() != nil {
		return nil, errors.Wrapf(ierrors.ErrPageTypeMismatch, "root page %d has a sibling link", ix.root)
	}
	return ip, nil
}

// IsLeaf reports whether ip is a leaf page (level 0).
func (ix *Index) IsLeaf(ip *page.IndexPage) bool { return ip.Level() == 0 }

// MinPageAtLevel descends the left spine from the root, following each
// non-leaf page's first user record, until it reaches level L. It
// returns nil if L is above the root's own level.
func (ix *Index) MinPageAtLevel(level int) (*page.IndexPage, error) {
	cur, err := ix.RootPage()
	if err != nil {
		return nil, err
	}
	if cur.Level() < level {
		return nil, nil
	}
	for cur.Level() != level {
		child, err := ix.firstChild(cur)
		if err != nil {
			return nil, err
		}
		cur, _, err = ix.indexPageAt(child)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// MaxPageAtLevel descends the right spine from the root, following each
// non-leaf page's last user record, until it reaches level L.
func (ix *Index) MaxPageAtLevel(level int) (*page.IndexPage, error) {
	cur, err := ix.RootPage()
	if err != nil {
		return nil, err
	}
	if cur.Level() < level {
		return nil, nil
	}
	for cur.Level() != level {
		child, err := ix.lastChild(cur)
		if err != nil {
			return nil, err
		}
		cur, _, err = ix.indexPageAt(child)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (ix *Index) firstChild(ip *page.IndexPage) (uint32, error) {
	cur, err := ip.CursorAtMin(ix.d)
	if err != nil {
		return 0, err
	}
	rec, err := cur.NextRecord()
	if err != nil {
		return 0, err
	}
	if rec == nil || !rec.HasChildPageNumber {
		return 0, errors.Wrap(ierrors.ErrPageTypeMismatch, "non-leaf page has no node-pointer records")
	}
	return rec.ChildPageNumber, nil
}

func (ix *Index) lastChild(ip *page.IndexPage) (uint32, error) {
	cur, err := ip.CursorAtMax(ix.d)
	if err != nil {
		return 0, err
	}
	rec, err := cur.NextRecord()
	if err != nil {
		return 0, err
	}
	if rec == nil || !rec.HasChildPageNumber {
		return 0, errors.Wrap(ierrors.ErrPageTypeMismatch, "non-leaf page has no node-pointer records")
	}
	return rec.ChildPageNumber, nil
}

// MinRecord is the leftmost record on the leaf level.
func (ix *Index) MinRecord() (*record.Record, error) {
	leaf, err := ix.MinPageAtLevel(0)
	if err != nil || leaf == nil {
		return nil, err
	}
	cur, err := leaf.CursorAtMin(ix.d)
	if err != nil {
		return nil, err
	}
	return cur.NextRecord()
}

// MaxRecord is the rightmost record on the leaf level.
func (ix *Index) MaxRecord() (*record.Record, error) {
	leaf, err := ix.MaxPageAtLevel(0)
	if err != nil || leaf == nil {
		return nil, err
	}
	cur, err := leaf.CursorAtMax(ix.d)
	if err != nil {
		return nil, err
	}
	return cur.NextRecord()
}

// LinearSearch walks from the root down to the leaf, doing a full
// linear scan of each page's record chain, and returns an exact match
// or nil.
func (ix *Index) LinearSearch(key []interface{}) (*record.Record, error) {
	cur, err := ix.RootPage()
	if err != nil {
		return nil, err
	}
	for {
		c, err := cur.CursorAtMin(ix.d)
		if err != nil {
			return nil, err
		}
		rec, err := cur.LinearSearchFromCursor(c, key)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		if cur.Level() == 0 {
			if record.CompareKey(rec.Key, key) == 0 {
				return rec, nil
			}
			return nil, nil
		}
		cur, _, err = ix.indexPageAt(rec.ChildPageNumber)
		if err != nil {
			return nil, err
		}
	}
}

// BinarySearch walks from the root down to the leaf, using the page
// directory to binary-subdivide each page's record chain, and returns
// an exact match or nil.
func (ix *Index) BinarySearch(key []interface{}) (*record.Record, error) {
	cur, err := ix.RootPage()
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cur.BinarySearchByDirectory(ix.d, key)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		if cur.Level() == 0 {
			if record.CompareKey(rec.Key, key) == 0 {
				return rec, nil
			}
			return nil, nil
		}
		cur, _, err = ix.indexPageAt(rec.ChildPageNumber)
		if err != nil {
			return nil, err
		}
	}
}

// Direction is the direction an IndexCursor walks in.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// IndexCursor walks records across page boundaries, hopping via the
// sibling-page links (FIL header prev/next) once a page's chain is
// exhausted.
type IndexCursor struct {
	ix        *Index
	dir       Direction
	page      *page.IndexPage
	pageCur   *page.RecordCursor
	exhausted bool
}

// Cursor starts an IndexCursor at a leaf record whose key is the
// smallest (Ascending) or largest (Descending) in the index.
func (ix *Index) Cursor(dir Direction) (*IndexCursor, error) {
	var leaf *page.IndexPage
	var err error
	if dir == Ascending {
		leaf, err = ix.MinPageAtLevel(0)
	} else {
		leaf, err = ix.MaxPageAtLevel(0)
	}
	if err != nil || leaf == nil {
		return nil, err
	}
	var pc *page.RecordCursor
	if dir == Ascending {
		pc, err = leaf.CursorAtMin(ix.d)
	} else {
		pc, err = leaf.CursorAtMax(ix.d)
	}
	if err != nil {
		return nil, err
	}
	return &IndexCursor{ix: ix, dir: dir, page: leaf, pageCur: pc}, nil
}

// CursorAtKey starts an IndexCursor at the leaf landing point of a
// directory-assisted search for key (the greatest record <= key, same
// rule page.LinearSearchFromCursor uses), walking in dir from there.
// This is how a caller resumes a scan from an arbitrary position rather
// than an index extremum.
func (ix *Index) CursorAtKey(key []interface{}, dir Direction) (*IndexCursor, error) {
	cur, err := ix.RootPage()
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cur.BinarySearchByDirectory(ix.d, key)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return ix.Cursor(dir)
		}
		if cur.Level() == 0 {
			return &IndexCursor{ix: ix, dir: dir, page: cur, pageCur: cur.CursorAt(rec.Offset, ix.d)}, nil
		}
		cur, _, err = ix.indexPageAt(rec.ChildPageNumber)
		if err != nil {
			return nil, err
		}
	}
}

// Next decodes the current record and advances — forward via each
// page's record chain when Ascending, backward via predecessor lookup
// when Descending — crossing to the sibling page (next/prev FIL link)
// once the current page is exhausted. Returns (nil, nil) once the index
// is exhausted in this direction.
func (c *IndexCursor) Next() (*record.Record, error) {
	if c.exhausted {
		return nil, nil
	}
	for {
		var rec *record.Record
		var err error
		if c.dir == Ascending {
			rec, err = c.pageCur.NextRecord()
		} else {
			rec, err = c.pageCur.PrevRecord()
		}
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
		if err := c.crossSibling(); err != nil {
			return nil, err
		}
		if c.exhausted {
			return nil, nil
		}
	}
}

func (c *IndexCursor) crossSibling() error {
	var sibling *uint32
	if c.dir == Ascending {
		sibling = c.page.FilePage().Next()
	} else {
		sibling = c.page.FilePage().Prev()
	}
	if sibling == nil {
		c.exhausted = true
		return nil
	}
	ip, _, err := c.ix.indexPageAt(*sibling)
	if err != nil {
		return err
	}
	c.page = ip
	if c.dir == Ascending {
		c.pageCur, err = ip.CursorAtMin(c.ix.d)
	} else {
		c.pageCur, err = ip.CursorAtMax(c.ix.d)
	}
	return err
}
