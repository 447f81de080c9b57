package list

import "github.com/pkg/errors"

// Direction is the traversal direction of a ListCursor.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Element is anything an Address can resolve to that is itself threaded
// through the same list (it knows its own Node: prev/next addresses).
type Element interface {
	Node() Node
	Address() Address
}

// Loader resolves an Address to the Element living there. Each element
// kind (Xdes, Inode page, undo page, history node) supplies its own.
type Loader func(addr Address) (Element, error)

// Cursor walks a list lazily: each Next() call loads one element (at
// worst one page read) and advances to its prev/next address. Equality
// and membership are by element value, left to callers since Element
// implementations vary.
type Cursor struct {
	loader  Loader
	current Address
	dir     Direction
	done    bool
}

// AtFirst starts a forward cursor at the list's first element.
func AtFirst(base BaseNode, loader Loader) *Cursor {
	return &Cursor{loader: loader, current: base.First, dir: Forward, done: base.Length == 0}
}

// AtLast starts a backward cursor at the list's last element.
func AtLast(base BaseNode, loader Loader) *Cursor {
	return &Cursor{loader: loader, current: base.Last, dir: Backward, done: base.Length == 0}
}

// At starts a cursor at a specific address and direction.
func At(addr Address, dir Direction, loader Loader) *Cursor {
	return &Cursor{loader: loader, current: addr, dir: dir, done: addr.IsNil()}
}

// Next loads the current element (performing one resolve/page-load) and
// advances the cursor to the next address in its direction. It returns
// (nil, false, nil) once the list is exhausted.
func (c *Cursor) Next() (Element, bool, error) {
	if c.done || c.current.IsNil() {
		return nil, false, nil
	}
	el, err := c.loader(c.current)
	if err != nil {
		return nil, false, errors.Wrapf(err, "list: loading element at %s", c.current)
	}
	node := el.Node()
	if c.dir == Forward {
		c.current = node.Next
	} else {
		c.current = node.Prev
	}
	if c.current.IsNil() {
		c.done = true
	}
	return el, true, nil
}

// All drains the cursor into a slice. Safe for any finite list; callers
// walking a log-following or possibly-corrupt list should use Next
// directly and bound the iteration count themselves.
func All(c *Cursor) ([]Element, error) {
	var out []Element
	for {
		el, ok, err := c.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, el)
	}
}
