package types

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Core Identifiers & Schema
// -----------------------------------------------------------------------------

// ColumnID identifies a column within its table. The identifier also implies
// the column's storage class: fixed columns count up from 1, variable columns
// from 128, tagged columns from 256.
type ColumnID uint32

// LongValueID references out-of-line data in a table's long value tree.
type LongValueID uint32

// StorageClass describes how a column's data is laid out within a record.
type StorageClass int

const (
	StorageFixed StorageClass = iota
	StorageVariable
	StorageTagged
)

// String implements the Stringer interface for StorageClass.
func (c StorageClass) String() string {
	switch c {
	case StorageFixed:
		return "fixed"
	case StorageVariable:
		return "variable"
	case StorageTagged:
		return "tagged"
	default:
		return "unknown"
	}
}

// Column is one column definition from the catalog.
type Column struct {
	ID    ColumnID
	Name  string
	Type  ColumnType
	Class StorageClass
	// Width is the on-disk byte width for fixed columns; zero otherwise.
	Width int
	// CodePage selects the character encoding of text columns: 1200 is
	// UTF-16LE, anything else is treated as Windows-1252.
	CodePage uint32
	Flags    uint32
}

// TableSchema is the cached, immutable view over one table's catalog entries.
type TableSchema struct {
	Name     string
	ObjectID uint32
	// RootPage is the table's father data page, the root of its record
	// tree.
	RootPage uint32
	// LongValuePage is the root of the table's long value tree, or zero
	// when the table has none.
	LongValuePage uint32

	// Fixed and Variable columns in ascending identifier order; the order
	// defines their slots in every record's offset tables.
	Fixed    []Column
	Variable []Column
	// Tagged columns keyed by identifier.
	Tagged map[ColumnID]Column

	byName map[string]ColumnID
}

// Column returns the definition for the given identifier.
func (s *TableSchema) Column(id ColumnID) (Column, bool) {
	for i := range s.Fixed {
		if s.Fixed[i].ID == id {
			return s.Fixed[i], true
		}
	}
	for i := range s.Variable {
		if s.Variable[i].ID == id {
			return s.Variable[i], true
		}
	}
	c, ok := s.Tagged[id]
	return c, ok
}

// ColumnByName returns the definition for the given column name.
func (s *TableSchema) ColumnByName(name string) (Column, bool) {
	id, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.Column(id)
}

// Columns returns every column of the table: fixed, then variable, then
// tagged in ascending identifier order.
func (s *TableSchema) Columns() []Column {
	out := make([]Column, 0, len(s.Fixed)+len(s.Variable)+len(s.Tagged))
	out = append(out, s.Fixed...)
	out = append(out, s.Variable...)
	ids := make([]ColumnID, 0, len(s.Tagged))
	for id := range s.Tagged {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	for _, id := range ids {
		out = append(out, s.Tagged[id])
	}
	return out
}

// Index registers the schema's name lookup table. Called once by the catalog
// resolver after all columns are aggregated.
func (s *TableSchema) Index() {
	s.byName = make(map[string]ColumnID, len(s.Fixed)+len(s.Variable)+len(s.Tagged))
	for _, c := range s.Fixed {
		s.byName[c.Name] = c.ID
	}
	for _, c := range s.Variable {
		s.byName[c.Name] = c.ID
	}
	for id, c := range s.Tagged {
		s.byName[c.Name] = id
	}
}

// Catalog maps table names to their schemas. Tables the caller never scans
// are retained but cost nothing beyond their definition.
type Catalog struct {
	Tables map[string]*TableSchema
}

// Table returns the schema for name.
func (c *Catalog) Table(name string) (*TableSchema, bool) {
	t, ok := c.Tables[name]
	return t, ok
}

// -----------------------------------------------------------------------------
// Decoded Values & Records
// -----------------------------------------------------------------------------

// ValueKind discriminates the decoded representation of a column value.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueBool
	ValueInt
	ValueUint
	ValueFloat
	ValueTime
	ValueString
	ValueBinary
	ValueLongRef
	ValueMulti
)

// Value is one decoded column value. Exactly one representation is populated,
// selected by Kind; the zero Value is absent.
type Value struct {
	Kind    ValueKind
	Bool    bool
	Int     int64
	Uint    uint64
	Float   float64
	Time    time.Time
	Str     string
	Bytes   []byte
	LongRef LongValueID
	Multi   []Value
}

// IsAbsent reports whether the value is the well-defined default-absent marker.
func (v Value) IsAbsent() bool { return v.Kind == ValueAbsent }

// String renders the value for human-facing output. Binary data renders as a
// length marker rather than raw bytes.
func (v Value) String() string {
	switch v.Kind {
	case ValueAbsent:
		return ""
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueUint:
		return fmt.Sprintf("%d", v.Uint)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueTime:
		return v.Time.UTC().Format(time.RFC3339Nano)
	case ValueString:
		return v.Str
	case ValueBinary:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case ValueLongRef:
		return fmt.Sprintf("<long value %d>", v.LongRef)
	case ValueMulti:
		s := ""
		for i, e := range v.Multi {
			if i > 0 {
				s += "; "
			}
			s += e.String()
		}
		return s
	default:
		return ""
	}
}

// Record is one decoded leaf record: a mapping from column identifier to its
// decoded value. Fixed columns of the schema are always present in the map
// (possibly as the absent marker); variable and tagged columns appear only
// when actually encoded in the source buffer.
type Record struct {
	// Key is the record's full B+tree key. For the Windows Search property
	// store this is the big-endian document identifier.
	Key    []byte
	Values map[ColumnID]Value
}

// Value returns the decoded value for the given column identifier.
func (r Record) Value(id ColumnID) (Value, bool) {
	v, ok := r.Values[id]
	return v, ok
}

// -----------------------------------------------------------------------------
// Options & Diagnostics
// -----------------------------------------------------------------------------

// Diagnostic reports a non-fatal anomaly met during a scan: a skipped record,
// a dangling long value, an unexpandable compressed value. Partial evidence
// beats none, so these are surfaced instead of raised.
type Diagnostic struct {
	Table string
	Page  uint32
	Msg   string
	Err   error
}

// String implements the Stringer interface for Diagnostic.
func (d Diagnostic) String() string {
	s := d.Msg
	if d.Table != "" {
		s = d.Table + ": " + s
	}
	if d.Page != 0 {
		s = fmt.Sprintf("%s (page %d)", s, d.Page)
	}
	if d.Err != nil {
		s = s + ": " + d.Err.Error()
	}
	return s
}

// OpenOptions controls safety/performance tradeoffs for constructing a Reader.
type OpenOptions struct {
	// VerifyChecksums enables XOR checksum verification on every page
	// read. Off by default: forensic captures frequently carry pages from
	// dirty shutdowns whose checksums were never rewritten, and a failed
	// checksum would otherwise mask still-decodable records.
	VerifyChecksums bool

	// AcceptDirty permits opening databases whose state field is not
	// "clean shutdown". Forensic captures are routinely dirty.
	AcceptDirty bool

	// MaxLongValueSize guards against absurd/malicious long value sizes.
	// Zero selects a conservative default.
	MaxLongValueSize int

	// OnDiagnostic, when non-nil, receives every non-fatal anomaly.
	OnDiagnostic func(Diagnostic)
}
