// Package list implements the generic doubly-linked intrusive list InnoDB
// threads through on-disk addresses: extent lists, file-segment inode
// lists, undo-page lists, and undo-log history lists are all one of
// these, differing only in what object an Address resolves to.
package list

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
)

// NoPage is the sentinel page number meaning "undefined/null". It is
// defined here (rather than borrowed from the page package) so that
// list has no dependency on page, keeping segment's and the index
// page's own dependency on both list and page acyclic.
const NoPage uint32 = 0xFFFFFFFF

// Address is an on-disk (page number, offset-within-page) coordinate. A
// page number of NoPage denotes "undefined/null".
type Address struct {
	Page   uint32
	Offset uint16
}

// Nil is the absent address.
var Nil = Address{Page: NoPage}

// IsNil reports whether this address is the absent sentinel.
func (a Address) IsNil() bool { return a.Page == NoPage }

func (a Address) String() string {
	if a.IsNil() {
		return "<nil>"
	}
	return "(" + itoa(a.Page) + "," + itoa(uint32(a.Offset)) + ")"
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// ReadAddress reads a 6-byte (page, offset) address: a 4-byte page number
// followed by a 2-byte offset.
func ReadAddress(c *cursor.Cursor) (Address, error) {
	pageNo, err := c.ReadU32()
	if err != nil {
		return Address{}, err
	}
	offset, err := c.ReadU16()
	if err != nil {
		return Address{}, err
	}
	return Address{Page: pageNo, Offset: offset}, nil
}

// Node is a list node: prev/next addresses, 12 bytes on disk.
type Node struct {
	Prev Address
	Next Address
}

// ReadNode reads a 12-byte list node (prev then next address).
func ReadNode(c *cursor.Cursor) (Node, error) {
	prev, err := ReadAddress(c)
	if err != nil {
		return Node{}, err
	}
	next, err := ReadAddress(c)
	if err != nil {
		return Node{}, err
	}
	return Node{Prev: prev, Next: next}, nil
}

// BaseNode is a list head: element count plus first/last addresses, 16
// bytes on disk. A list with Length 0 must have both First and Last
// absent; a list of one item has both pointing at the same address.
type BaseNode struct {
	Length uint32
	First  Address
	Last   Address
}

// ReadBaseNode reads a 16-byte list base node.
func ReadBaseNode(c *cursor.Cursor) (BaseNode, error) {
	length, err := c.ReadU32()
	if err != nil {
		return BaseNode{}, err
	}
	first, err := ReadAddress(c)
	if err != nil {
		return BaseNode{}, err
	}
	last, err := ReadAddress(c)
	if err != nil {
		return BaseNode{}, err
	}
	return BaseNode{Length: length, First: first, Last: last}, nil
}
