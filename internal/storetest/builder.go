// Package storetest builds synthetic ESE databases in memory for tests. The
// encoders mirror the documented on-disk layout so decode paths can be
// exercised against known inputs, including deliberately corrupt ones. It is
// imported by _test files only; the reader never writes databases.
package storetest

import (
	"encoding/binary"

	"github.com/joshuapare/esekit/internal/format"
)

// Builder assembles a database image page by page. The zero-ish default is a
// 4 KiB page, revision 0x14 store: small pages, so tag flags live in the tag
// offsets and pages carry no extended header.
type Builder struct {
	PageSize int
	Revision uint32
	State    uint32

	pages   map[uint32][]byte
	maxPage uint32
}

// NewBuilder returns a Builder with Windows Search-plausible defaults.
func NewBuilder() *Builder {
	return &Builder{
		PageSize: 4096,
		Revision: 0x14,
		State:    format.StateCleanShutdown,
		pages:    make(map[uint32][]byte),
	}
}

// Node is one page entry: its key and payload. Branch payloads are built via
// BranchNode. A node with the common-key tag flag set encodes CommonSize as
// its prefix length; Key then holds only the local suffix.
type Node struct {
	Key        []byte
	Data       []byte
	TagFlags   uint16
	CommonSize int
}

// BranchNode encodes a branch entry payload: the separator key is the node
// key, the payload is the child page number.
func BranchNode(key []byte, child uint32) Node {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], child)
	return Node{Key: key, Data: data[:]}
}

// WritePage lays out one data page: header, optional tag-0 payload (the
// external header on root pages, the common key prefix elsewhere), then the
// nodes in order. Node entries are encoded without common-key compression.
func (b *Builder) WritePage(n uint32, flags uint32, next uint32, tag0 []byte, nodes ...Node) {
	page := make([]byte, b.PageSize)
	binary.LittleEndian.PutUint32(page[format.PageNextOffset:], next)
	binary.LittleEndian.PutUint16(page[format.PageTagCountOffset:], uint16(len(nodes)+1))
	binary.LittleEndian.PutUint32(page[format.PageFlagsOffset:], flags)

	dataStart := format.DataAreaOffset(b.Revision, uint32(b.PageSize))
	off := 0
	writeTag := func(index, size int, tagFlags uint16) {
		slot := page[len(page)-(index+1)*format.PageTagSize:]
		binary.LittleEndian.PutUint16(slot, uint16(size))
		binary.LittleEndian.PutUint16(slot[2:], uint16(off)|tagFlags<<format.PageTagFlagsShift)
		off += size
	}

	copy(page[dataStart:], tag0)
	writeTag(0, len(tag0), 0)
	for i, node := range nodes {
		entry := page[dataStart+off:]
		at := 0
		if node.TagFlags&format.TagFlagCommonKey != 0 {
			binary.LittleEndian.PutUint16(entry, uint16(node.CommonSize))
			at += 2
		}
		binary.LittleEndian.PutUint16(entry[at:], uint16(len(node.Key)))
		at += 2
		copy(entry[at:], node.Key)
		at += len(node.Key)
		copy(entry[at:], node.Data)
		writeTag(i+1, at+len(node.Data), node.TagFlags)
	}

	b.pages[n] = page
	if n > b.maxPage {
		b.maxPage = n
	}
}

// WriteRawPage installs a pre-built page image, for corruption tests that
// need full control over the header bytes.
func (b *Builder) WriteRawPage(n uint32, page []byte) {
	b.pages[n] = page
	if n > b.maxPage {
		b.maxPage = n
	}
}

// Page returns the working image of page n so tests can corrupt it in place.
func (b *Builder) Page(n uint32) []byte { return b.pages[n] }

// Bytes assembles the file: header page, shadow copy, then data pages 1..max.
// Unwritten pages in the range come out zeroed, which parses as empty.
func (b *Builder) Bytes() []byte {
	header := make([]byte, b.PageSize)
	binary.LittleEndian.PutUint32(header[format.HeaderSignatureOffset:], format.HeaderSignature)
	binary.LittleEndian.PutUint32(header[format.HeaderVersionOffset:], format.FormatVersion)
	binary.LittleEndian.PutUint32(header[format.HeaderFileTypeOffset:], format.FileTypeDatabase)
	binary.LittleEndian.PutUint32(header[format.HeaderStateOffset:], b.State)
	binary.LittleEndian.PutUint32(header[format.HeaderRevisionOffset:], b.Revision)
	binary.LittleEndian.PutUint32(header[format.HeaderPageSizeOffset:], uint32(b.PageSize))

	out := make([]byte, 0, (int(b.maxPage)+2)*b.PageSize)
	out = append(out, header...)
	out = append(out, header...) // shadow header
	for n := uint32(1); n <= b.maxPage; n++ {
		page := b.pages[n]
		if page == nil {
			page = make([]byte, b.PageSize)
		}
		out = append(out, page...)
	}
	return out
}

// Checksum stamps every written page's XOR checksum (the fold of all 32-bit
// words after the checksum field, seeded with the header signature), for
// tests that open with checksum verification enabled.
func (b *Builder) Checksum() {
	for _, page := range b.pages {
		sum := uint32(format.HeaderSignature)
		for off := 8; off+4 <= len(page); off += 4 {
			sum ^= binary.LittleEndian.Uint32(page[off:])
		}
		binary.LittleEndian.PutUint64(page[format.PageChecksumOffset:], uint64(sum))
	}
}
