// Package reader provides the concrete ESE database reader. The exported
// entry points are used by the public wrapper (pkg/ese or the CLI) to obtain
// a reader without exposing the internal parsing machinery directly.
package reader

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/mmfile"
	"github.com/joshuapare/esekit/pkg/types"
)

// Reader is a read-only view over one mapped database file. It owns the
// mapped buffer for the session; every higher layer borrows page views only
// for the duration of a single operation and re-fetches pages by number.
type Reader struct {
	buf    []byte
	unmap  func() error
	opts   types.OpenOptions
	head   format.Header
	closed bool

	pageSize  int
	pageCount int
	largePage bool
	dataStart int // offset of the tag-relative data area within a page

	catalog *types.Catalog
}

// Open maps the database at path and returns a Reader with its catalog
// loaded. Catalog failures are fatal for the store: every record layout
// derives from it.
func Open(path string, opts types.OpenOptions) (*Reader, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindIO, Msg: "open database", Err: err}
	}
	r, err := newReader(data, unmap, opts)
	if err != nil {
		if unmap != nil {
			_ = unmap()
		}
		return nil, err
	}
	return r, nil
}

// OpenBytes creates a reader backed by the provided buffer.
func OpenBytes(buf []byte, opts types.OpenOptions) (*Reader, error) {
	return newReader(buf, nil, opts)
}

func newReader(buf []byte, unmap func() error, opts types.OpenOptions) (*Reader, error) {
	head, err := format.ParseHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrNotDatabase)
	}
	if head.Version != format.FormatVersion || !format.SupportedRevision(head.Revision) {
		return nil, fmt.Errorf("version %#x revision %#x: %w",
			head.Version, head.Revision, types.ErrUnsupportedVersion)
	}
	if head.FileType != format.FileTypeDatabase {
		return nil, fmt.Errorf("file type %d: %w", head.FileType, types.ErrNotDatabase)
	}
	if head.State != format.StateCleanShutdown && !opts.AcceptDirty {
		return nil, fmt.Errorf("database state %d (dirty shutdown): %w",
			head.State, types.ErrUnsupportedVersion)
	}
	if opts.MaxLongValueSize <= 0 {
		opts.MaxLongValueSize = types.DefaultMaxLongValueSize
	}

	pageSize := int(head.PageSize)
	// The header page and its shadow copy occupy the first two page slots;
	// data page 1 starts at offset pageSize*2.
	pageCount := len(buf)/pageSize - 2
	if pageCount < 0 {
		pageCount = 0
	}

	r := &Reader{
		buf:       buf,
		unmap:     unmap,
		opts:      opts,
		head:      head,
		pageSize:  pageSize,
		pageCount: pageCount,
		largePage: pageSize > format.PageTagLargeLimit,
		dataStart: format.DataAreaOffset(head.Revision, head.PageSize),
	}

	catalog, err := r.LoadCatalog()
	if err != nil {
		return nil, err
	}
	r.catalog = catalog
	return r, nil
}

// Header returns the decoded file header.
func (r *Reader) Header() format.Header { return r.head }

// PageCount returns the number of data pages in the file.
func (r *Reader) PageCount() int { return r.pageCount }

// Catalog returns the schema catalog loaded at open.
func (r *Reader) Catalog() *types.Catalog { return r.catalog }

// Tables returns the names of all tables the catalog defines, including
// system tables that are never traversed.
func (r *Reader) Tables() []string {
	names := make([]string, 0, len(r.catalog.Tables))
	for name := range r.catalog.Tables {
		names = append(names, name)
	}
	return names
}

// Schema returns the schema for the named table.
func (r *Reader) Schema(name string) (*types.TableSchema, error) {
	schema, ok := r.catalog.Table(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, types.ErrTableNotFound)
	}
	return schema, nil
}

// Close releases the underlying mapping. The Reader must not be used after.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.buf = nil
	if r.unmap != nil {
		return r.unmap()
	}
	return nil
}

// diag forwards a non-fatal anomaly to the caller's sink, if any.
func (r *Reader) diag(d types.Diagnostic) {
	if r.opts.OnDiagnostic != nil {
		r.opts.OnDiagnostic(d)
	}
}
