// Package ese is the public face of the Windows Search index reader: open a
// store, enumerate its tables, scan records, and generate the three
// normalized forensic reports. The byte-level machinery lives under
// internal/ and is reached only through this package or the CLI.
package ese

import (
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/reader"
	"github.com/joshuapare/esekit/pkg/types"
)

// DB is one opened ESE database. Not safe for concurrent use; open one DB
// per goroutine when processing stores in parallel.
type DB struct {
	r *reader.Reader
}

// Info summarizes the store for display.
type Info struct {
	PageSize  uint32
	Revision  uint32
	PageCount int
	Clean     bool
	Tables    []string
}

// Open maps the database at path and loads its catalog. Catalog failures are
// fatal for the store.
func Open(path string, opts types.OpenOptions) (*DB, error) {
	r, err := reader.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &DB{r: r}, nil
}

// OpenBytes opens a database held entirely in memory.
func OpenBytes(data []byte, opts types.OpenOptions) (*DB, error) {
	r, err := reader.OpenBytes(data, opts)
	if err != nil {
		return nil, err
	}
	return &DB{r: r}, nil
}

// Info returns the store's header summary and table listing.
func (db *DB) Info() Info {
	h := db.r.Header()
	return Info{
		PageSize:  h.PageSize,
		Revision:  h.Revision,
		PageCount: db.r.PageCount(),
		Clean:     h.State == format.StateCleanShutdown,
		Tables:    db.Tables(),
	}
}

// Tables returns every table name the catalog defines.
func (db *DB) Tables() []string { return db.r.Tables() }

// Schema returns the schema of the named table.
func (db *DB) Schema(name string) (*types.TableSchema, error) { return db.r.Schema(name) }

// ScanTable walks the named table in key order, invoking fn once per decoded
// record. Per-record decode failures are skipped with a diagnostic; a
// non-nil error from fn aborts the scan and is returned unchanged.
func (db *DB) ScanTable(name string, fn func(types.Record) error) error {
	return db.r.ScanTable(name, fn)
}

// Close releases the mapping. The DB must not be used after Close.
func (db *DB) Close() error { return db.r.Close() }
