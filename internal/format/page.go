package format

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
)

// PageKind classifies a page once, when it is read, so navigation code can
// switch exhaustively instead of re-testing flag bits at every step.
type PageKind int

const (
	PageKindEmpty PageKind = iota
	PageKindBranch
	PageKindLeaf
	PageKindLongValueLeaf
	PageKindSpaceTree
)

// String implements the Stringer interface for PageKind.
func (k PageKind) String() string {
	switch k {
	case PageKindEmpty:
		return "empty"
	case PageKindBranch:
		return "branch"
	case PageKindLeaf:
		return "leaf"
	case PageKindLongValueLeaf:
		return "long-value leaf"
	case PageKindSpaceTree:
		return "space tree"
	default:
		return "unknown"
	}
}

// PageHeader is the decoded 40-byte page header common to all revisions.
type PageHeader struct {
	Checksum        uint64
	DBTime          uint64
	PreviousPage    uint32
	NextPage        uint32
	FDPObject       uint32
	AvailableSize   uint16
	UncommittedSize uint16
	AvailableOffset uint16
	TagCount        uint16
	Flags           uint32
}

// Kind derives the page's closed variant from its flag bits. A branch page
// inside a long value tree still reports PageKindBranch; only leaves carry
// the long value payloads.
func (h PageHeader) Kind() PageKind {
	switch {
	case h.Flags&PageFlagEmpty != 0:
		return PageKindEmpty
	case h.Flags&PageFlagSpaceTree != 0:
		return PageKindSpaceTree
	case h.Flags&PageFlagLeaf != 0 && h.Flags&PageFlagLongValue != 0:
		return PageKindLongValueLeaf
	case h.Flags&PageFlagLeaf != 0:
		return PageKindLeaf
	case h.Flags&PageFlagParent != 0:
		return PageKindBranch
	case h.Flags&PageFlagRoot != 0:
		// A root page without leaf/parent flags is a single-page tree
		// whose entries are leaf nodes.
		return PageKindLeaf
	default:
		return PageKindEmpty
	}
}

// IsLeaf reports whether the page's entries are leaf nodes.
func (h PageHeader) IsLeaf() bool { return h.Flags&PageFlagLeaf != 0 }

// ParsePageHeader decodes the fixed page header from a full page buffer.
func ParsePageHeader(b []byte) (PageHeader, error) {
	if len(b) < PageHeaderSize {
		return PageHeader{}, fmt.Errorf("page header: %w", ErrTruncated)
	}
	return PageHeader{
		Checksum:        buf.U64LE(b[PageChecksumOffset:]),
		DBTime:          buf.U64LE(b[PageDBTimeOffset:]),
		PreviousPage:    buf.U32LE(b[PagePreviousOffset:]),
		NextPage:        buf.U32LE(b[PageNextOffset:]),
		FDPObject:       buf.U32LE(b[PageFDPObjectOffset:]),
		AvailableSize:   buf.U16LE(b[PageAvailableSizeOffset:]),
		UncommittedSize: buf.U16LE(b[PageUncommittedSizeOffset:]),
		AvailableOffset: buf.U16LE(b[PageAvailableOffsetOffset:]),
		TagCount:        buf.U16LE(b[PageTagCountOffset:]),
		Flags:           buf.U32LE(b[PageFlagsOffset:]),
	}, nil
}

// PageTag is one line entry of a page: a byte range within the data area plus
// its flags. Offsets have already been resolved against the data area start.
type PageTag struct {
	Offset int
	Size   int
	Flags  uint8
}

// DataAreaOffset returns the offset within the page at which the tag-relative
// data area begins.
func DataAreaOffset(rev, pageSize uint32) int {
	if HasExtendedPageHeader(rev, pageSize) {
		return PageHeaderSize + PageExtendedHeaderSize
	}
	return PageHeaderSize
}

// ParsePageTags extracts and validates the page's tag array. Tags are stored
// back-to-front from the page tail: the last four bytes of the page hold tag
// 0. Each tag's byte range must fall inside the data area and outside the tag
// array itself; the declared count must fit geometrically in the page.
func ParsePageTags(page []byte, hdr PageHeader, rev, pageSize uint32) ([]PageTag, error) {
	count := int(hdr.TagCount)
	dataStart := DataAreaOffset(rev, pageSize)
	tagArrayStart := len(page) - count*PageTagSize
	if _, err := buf.CheckListBounds(len(page), dataStart, count, PageTagSize); err != nil {
		return nil, fmt.Errorf("page tags: %d entries do not fit: %w", count, ErrInvalidPage)
	}
	if tagArrayStart < dataStart {
		return nil, fmt.Errorf("page tags: array overlaps header: %w", ErrInvalidPage)
	}

	large := pageSize > PageTagLargeLimit
	mask := PageTagSmallMask
	if large {
		mask = PageTagLargeMask
	}

	tags := make([]PageTag, count)
	for i := 0; i < count; i++ {
		raw := page[len(page)-(i+1)*PageTagSize:]
		rawSize := buf.U16LE(raw)
		rawOff := buf.U16LE(raw[2:])
		tag := PageTag{
			Offset: int(rawOff) & mask,
			Size:   int(rawSize) & mask,
		}
		if !large {
			tag.Flags = uint8(rawOff >> PageTagFlagsShift)
		}
		end, ok := buf.AddOverflowSafe(dataStart+tag.Offset, tag.Size)
		if !ok || end > tagArrayStart {
			return nil, fmt.Errorf("page tag %d: range [%d,+%d) escapes data area: %w",
				i, tag.Offset, tag.Size, ErrInvalidPage)
		}
		if large && tag.Size >= 2 {
			// Large pages relocate the tag flags into the top bits of
			// the first uint16 of the entry data.
			first := buf.U16LE(page[dataStart+tag.Offset:])
			tag.Flags = uint8(first >> PageTagFlagsShift)
		}
		tags[i] = tag
	}
	return tags, nil
}

// TagData returns the byte range of tag within the page. On large pages the
// flag bits embedded in the first uint16 of the data are masked out of the
// returned slice's first entry by the node parsers, not here.
func TagData(page []byte, tag PageTag, rev, pageSize uint32) ([]byte, bool) {
	return buf.Slice(page, DataAreaOffset(rev, pageSize)+tag.Offset, tag.Size)
}
