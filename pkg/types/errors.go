package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // malformed headers/signatures (not an ESE database)
	ErrKindCorrupt                    // structural corruption (bad sizes/offsets/tags)
	ErrKindUnsupported                // valid feature or revision we don't support
	ErrKindOutOfRange                 // reference beyond the bounds of the file
	ErrKindNotFound                   // missing table, column or long value
	ErrKindIO                         // underlying read failure
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels for the failure taxonomy. Implementations wrap these with
// fmt.Errorf("...: %w", ...) so errors.Is keeps working while the message
// carries context.
var (
	// ErrNotDatabase indicates the file lacks a valid ESE header.
	ErrNotDatabase = &Error{Kind: ErrKindFormat, Msg: "not an ESE database (bad header)"}
	// ErrUnsupportedVersion indicates a format version or revision outside the supported range.
	ErrUnsupportedVersion = &Error{Kind: ErrKindUnsupported, Msg: "unsupported database version"}
	// ErrOutOfRange indicates a page number beyond the file's page count.
	ErrOutOfRange = &Error{Kind: ErrKindOutOfRange, Msg: "page number out of range"}
	// ErrCorruptPage indicates a page whose checksum or geometry contradicts its header.
	ErrCorruptPage = &Error{Kind: ErrKindCorrupt, Msg: "corrupt page"}
	// ErrCatalogCorrupt indicates the schema catalog cannot be trusted; the
	// whole store is unreadable because every record layout derives from it.
	ErrCatalogCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt catalog"}
	// ErrCorruptBTree indicates a structural inconsistency met during tree
	// traversal (wrong page kind for the descent position, or a page cycle).
	ErrCorruptBTree = &Error{Kind: ErrKindCorrupt, Msg: "corrupt b-tree"}
	// ErrTruncatedRecord indicates a record whose offset tables claim more
	// bytes than the record holds.
	ErrTruncatedRecord = &Error{Kind: ErrKindCorrupt, Msg: "truncated record"}
	// ErrDanglingLongValue indicates a long value reference with no segments
	// in the long value tree. Reported, not fatal: the owning field is
	// surfaced as empty rather than aborting the table scan.
	ErrDanglingLongValue = &Error{Kind: ErrKindNotFound, Msg: "dangling long value reference"}
	// ErrTableNotFound indicates a table name absent from the catalog.
	ErrTableNotFound = &Error{Kind: ErrKindNotFound, Msg: "table not found"}
)
