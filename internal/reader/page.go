package reader

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// Page is one validated page: its decoded header, its classification, and its
// ordered tag array. The raw bytes alias the reader's mapping and must not be
// retained past the operation that fetched the page.
type Page struct {
	Number uint32
	Header format.PageHeader
	Kind   format.PageKind
	Tags   []format.PageTag

	raw []byte
	r   *Reader
}

// ReadPage fetches and validates data page n. Page numbering is 1-based; the
// file header and its shadow occupy the slots before page 1. The call is pure
// with respect to file content and safe to issue concurrently.
func (r *Reader) ReadPage(n uint32) (*Page, error) {
	if n < 1 || int(n) > r.pageCount {
		return nil, fmt.Errorf("page %d of %d: %w", n, r.pageCount, types.ErrOutOfRange)
	}
	raw, ok := buf.Slice(r.buf, (int(n)+1)*r.pageSize, r.pageSize)
	if !ok {
		return nil, fmt.Errorf("page %d: %w", n, types.ErrOutOfRange)
	}
	hdr, err := format.ParsePageHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("page %d: %v: %w", n, err, types.ErrCorruptPage)
	}
	tags, err := format.ParsePageTags(raw, hdr, r.head.Revision, r.head.PageSize)
	if err != nil {
		return nil, fmt.Errorf("page %d: %v: %w", n, err, types.ErrCorruptPage)
	}
	if r.opts.VerifyChecksums {
		if got, want := xorChecksum(raw), uint32(hdr.Checksum); got != want {
			return nil, fmt.Errorf("page %d: checksum %#x != stored %#x: %w",
				n, got, want, types.ErrCorruptPage)
		}
	}
	return &Page{
		Number: n,
		Header: hdr,
		Kind:   hdr.Kind(),
		Tags:   tags,
		raw:    raw,
		r:      r,
	}, nil
}

// xorChecksum folds every 32-bit word of the page after the checksum field,
// seeded with the header signature. This is the XOR half of the page
// checksum; the ECC half is not verified (it exists to repair single-bit
// flips, which a read-only forensic tool reports rather than repairs).
func xorChecksum(page []byte) uint32 {
	sum := uint32(format.HeaderSignature)
	for off := 8; off+4 <= len(page); off += 4 {
		sum ^= buf.U32LE(page[off:])
	}
	return sum
}

// NodeCount returns the number of nodes on the page. Tag 0 is the external
// header (on root pages) or the common page key and is not a node.
func (p *Page) NodeCount() int {
	if len(p.Tags) <= 1 {
		return 0
	}
	return len(p.Tags) - 1
}

// KeyPrefix returns the page's common key prefix: the payload of tag 0 on
// non-root pages. Root pages use tag 0 for the external root header, which
// never serves as a prefix.
func (p *Page) KeyPrefix() []byte {
	if len(p.Tags) == 0 || p.Header.Flags&format.PageFlagRoot != 0 {
		return nil
	}
	data, ok := format.TagData(p.raw, p.Tags[0], p.r.head.Revision, p.r.head.PageSize)
	if !ok {
		return nil
	}
	return data
}

// nodeData returns the raw byte range of node i (0-based, excluding tag 0)
// along with its tag flags.
func (p *Page) nodeData(i int) ([]byte, uint8, error) {
	if i < 0 || i >= p.NodeCount() {
		return nil, 0, fmt.Errorf("node %d of %d: %w", i, p.NodeCount(), types.ErrOutOfRange)
	}
	tag := p.Tags[i+1]
	data, ok := format.TagData(p.raw, tag, p.r.head.Revision, p.r.head.PageSize)
	if !ok {
		return nil, 0, fmt.Errorf("node %d: %w", i, types.ErrCorruptPage)
	}
	return data, tag.Flags, nil
}

// BranchNode decodes node i as a branch entry.
func (p *Page) BranchNode(i int) (format.BranchNode, error) {
	data, flags, err := p.nodeData(i)
	if err != nil {
		return format.BranchNode{}, err
	}
	node, err := format.ParseBranchNode(data, flags, p.r.largePage)
	if err != nil {
		return format.BranchNode{}, fmt.Errorf("page %d node %d: %v: %w",
			p.Number, i, err, types.ErrCorruptPage)
	}
	return node, nil
}

// LeafNode decodes node i as a leaf entry.
func (p *Page) LeafNode(i int) (format.LeafNode, error) {
	data, flags, err := p.nodeData(i)
	if err != nil {
		return format.LeafNode{}, err
	}
	node, err := format.ParseLeafNode(data, flags, p.r.largePage)
	if err != nil {
		return format.LeafNode{}, fmt.Errorf("page %d node %d: %v: %w",
			p.Number, i, err, types.ErrCorruptPage)
	}
	return node, nil
}
