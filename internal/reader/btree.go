package reader

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// RawRecord is one leaf node surfaced by a cursor: the node's reassembled key
// and its undecoded payload.
type RawRecord struct {
	Key  []byte
	Data []byte
	// Page is the leaf page the record came from, for diagnostics.
	Page uint32
}

// Cursor iterates the leaf records of one B+tree in unsigned lexicographic
// key order. Descent runs root -> branch -> leaf; subsequent leaves are
// reached through each leaf's next-page pointer rather than re-descending,
// giving amortized linear full-table scans. A cursor is single-use state over
// a shared read-only file and must not be used concurrently.
type Cursor struct {
	r    *Reader
	root uint32

	page    *Page
	prefix  []byte
	index   int
	visited int // leaf pages walked, bounds the next-page chain
	done    bool
}

// OpenCursor positions a new cursor on the tree rooted at root. The cursor is
// unpositioned until First or Seek is called.
func (r *Reader) OpenCursor(root uint32) (*Cursor, error) {
	if root == 0 {
		return nil, fmt.Errorf("zero root page: %w", types.ErrCorruptBTree)
	}
	return &Cursor{r: r, root: root}, nil
}

// descend walks from the root to a leaf. When key is nil it always takes the
// leftmost child; otherwise it follows the first separator at or above key.
// The descent depth is bounded: a chain of branch pages longer than any sane
// tree means a cycle.
func (c *Cursor) descend(key []byte) (*Page, error) {
	pageNo := c.root
	for depth := 0; depth < types.MaxBTreeDepth; depth++ {
		page, err := c.r.ReadPage(pageNo)
		if err != nil {
			return nil, err
		}
		switch page.Kind {
		case format.PageKindLeaf, format.PageKindLongValueLeaf:
			return page, nil
		case format.PageKindBranch:
			child, err := c.pickChild(page, key)
			if err != nil {
				return nil, err
			}
			pageNo = child
		case format.PageKindEmpty:
			if depth == 0 {
				return page, nil // empty tree
			}
			return nil, fmt.Errorf("page %d: empty page mid-descent: %w",
				page.Number, types.ErrCorruptBTree)
		default:
			return nil, fmt.Errorf("page %d: %s page in tree descent: %w",
				page.Number, page.Kind, types.ErrCorruptBTree)
		}
	}
	return nil, fmt.Errorf("descent from page %d exceeds depth %d: %w",
		c.root, types.MaxBTreeDepth, types.ErrCorruptBTree)
}

// pickChild selects the child page to follow from a branch page. Separator
// keys are in ascending order; each child holds keys at or below its
// separator, so the target is the first separator >= key. A seek beyond the
// last separator follows the last child (the tree's right edge).
func (c *Cursor) pickChild(page *Page, key []byte) (uint32, error) {
	n := page.NodeCount()
	if n == 0 {
		return 0, fmt.Errorf("page %d: branch without children: %w",
			page.Number, types.ErrCorruptBTree)
	}
	prefix := page.KeyPrefix()
	var last uint32
	for i := 0; i < n; i++ {
		if page.Tags[i+1].Flags&format.TagFlagDefunct != 0 {
			continue
		}
		node, err := page.BranchNode(i)
		if err != nil {
			return 0, err
		}
		last = node.ChildPage
		if key == nil {
			return node.ChildPage, nil
		}
		sep := format.FullKey(prefix, node.CommonKeySize, node.LocalKey)
		if bytes.Compare(sep, key) >= 0 {
			return node.ChildPage, nil
		}
	}
	if last == 0 {
		return 0, fmt.Errorf("page %d: only defunct children: %w",
			page.Number, types.ErrCorruptBTree)
	}
	return last, nil
}

// settle positions the cursor on a freshly entered leaf page.
func (c *Cursor) settle(page *Page) {
	c.page = page
	c.prefix = page.KeyPrefix()
	c.index = -1
	c.visited++
}

// First positions the cursor on the tree's first record and returns it.
// Returns nil when the tree holds no records.
func (c *Cursor) First() (*RawRecord, error) {
	page, err := c.descend(nil)
	if err != nil {
		return nil, err
	}
	c.done = false
	c.visited = 0
	c.settle(page)
	return c.Next()
}

// Seek positions the cursor on the first record whose key is >= key in
// unsigned lexicographic order, matching the engine's own ordering. Returns
// nil when every record orders below key.
func (c *Cursor) Seek(key []byte) (*RawRecord, error) {
	page, err := c.descend(key)
	if err != nil {
		return nil, err
	}
	c.done = false
	c.visited = 0
	c.settle(page)
	for {
		rec, err := c.Next()
		if err != nil || rec == nil {
			return rec, err
		}
		if bytes.Compare(rec.Key, key) >= 0 {
			return rec, nil
		}
	}
}

// Next returns the record after the current one, chaining to the next leaf
// page when the current page is exhausted. The chain walk is bounded by the
// store's total page count: a next-page pointer that revisits a page would
// otherwise loop forever.
func (c *Cursor) Next() (*RawRecord, error) {
	if c.done || c.page == nil {
		return nil, nil
	}
	for {
		c.index++
		if c.index >= c.page.NodeCount() {
			next := c.page.Header.NextPage
			if next == 0 {
				c.done = true
				return nil, nil
			}
			if c.visited >= c.r.pageCount {
				return nil, fmt.Errorf("leaf chain from page %d revisits pages (at page %d after %d pages): %w",
					c.root, next, c.visited, types.ErrCorruptBTree)
			}
			page, err := c.r.ReadPage(next)
			if err != nil {
				return nil, err
			}
			if !page.Header.IsLeaf() && page.Kind != format.PageKindEmpty {
				return nil, fmt.Errorf("page %d: next-page pointer leads to %s page: %w",
					page.Number, page.Kind, types.ErrCorruptBTree)
			}
			c.settle(page)
			continue
		}
		if c.page.Tags[c.index+1].Flags&format.TagFlagDefunct != 0 {
			continue
		}
		node, err := c.page.LeafNode(c.index)
		if err != nil {
			return nil, err
		}
		return &RawRecord{
			Key:  format.FullKey(c.prefix, node.CommonKeySize, node.LocalKey),
			Data: node.Data,
			Page: c.page.Number,
		}, nil
	}
}
