// Package types defines the public API surface for reading Extensible
// Storage Engine ("ESE") database files such as the Windows Search index
// (Windows.edb).
//
// This package only exposes core types and the error taxonomy. The internal
// implementation provides mmap-backed parsing of the page tree, the catalog,
// and the record layouts.
//
// Design goals:
//   - Read-only: the store is evidence, never a write target.
//   - Paranoid bounds checking; never panic on malformed input.
//   - Per-record failures are local; a corrupt record must not take the
//     surrounding table scan down with it.
//   - Typed errors with stable categories (corrupt/unsupported/out-of-range).
//
// This package has no dependencies beyond the standard library.
package types
