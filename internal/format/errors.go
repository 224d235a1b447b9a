package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrUnsupportedVersion indicates a format version or revision outside the supported range.
	ErrUnsupportedVersion = errors.New("format: unsupported version")
	// ErrInvalidPage indicates a page whose header contradicts its own geometry.
	ErrInvalidPage = errors.New("format: invalid page")
	// ErrUnsupportedCompression indicates a compressed value in a scheme we cannot expand.
	ErrUnsupportedCompression = errors.New("format: unsupported compression")
)
