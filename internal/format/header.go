package format

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
)

// Header captures the subset of the database file header required to walk the
// page tree. See consts.go for the field offsets; Windows stores the header
// in little-endian form, duplicated in the page after it (the shadow header).
type Header struct {
	Signature uint32
	Version   uint32
	FileType  uint32
	State     uint32
	Revision  uint32
	PageSize  uint32
}

// ParseHeader validates and extracts key fields from a database file header.
// Version bounds are not enforced here; the caller decides which revisions it
// accepts so it can surface its own error taxonomy.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("ese header: %w", ErrTruncated)
	}
	h := Header{
		Signature: buf.U32LE(b[HeaderSignatureOffset:]),
		Version:   buf.U32LE(b[HeaderVersionOffset:]),
		FileType:  buf.U32LE(b[HeaderFileTypeOffset:]),
		State:     buf.U32LE(b[HeaderStateOffset:]),
		Revision:  buf.U32LE(b[HeaderRevisionOffset:]),
		PageSize:  buf.U32LE(b[HeaderPageSizeOffset:]),
	}
	if h.Signature != HeaderSignature {
		return Header{}, fmt.Errorf("ese header: %w", ErrSignatureMismatch)
	}
	if !ValidPageSize(h.PageSize) {
		return Header{}, fmt.Errorf("ese header: page size %d: %w", h.PageSize, ErrInvalidPage)
	}
	return h, nil
}

// ValidPageSize reports whether ps is a power of two within the supported
// range. Every page offset in the file is a multiple of the page size.
func ValidPageSize(ps uint32) bool {
	if ps < MinPageSize || ps > MaxPageSize {
		return false
	}
	return ps&(ps-1) == 0
}

// SupportedRevision reports whether the format revision falls in the range
// this reader understands.
func SupportedRevision(rev uint32) bool {
	return rev >= MinSupportedRevision && rev <= MaxSupportedRevision
}

// HasExtendedPageHeader reports whether data pages carry the extended header
// with per-block checksums. Only large pages in revision 0x11 and later do.
func HasExtendedPageHeader(rev, pageSize uint32) bool {
	return rev >= RevisionExtendedPage && pageSize > PageTagLargeLimit
}
