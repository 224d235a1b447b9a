// Package format houses low-level decoders for the Extensible Storage Engine
// (ESE) database file format used by the Windows Search index (Windows.edb).
// The goal is to keep the parsing focused, allocation-free where possible, and
// independent from the public API so higher-level packages can orchestrate the
// data in a more ergonomic form.
//
// All offsets and constants follow the publicly documented ESE database file
// format (the libesedb project's "Extensible Storage Engine (ESE) Database
// File (EDB) format" specification).
package format

const (
	// HeaderSignature is the four-byte magic at offset 4 of every database.
	HeaderSignature = 0x89abcdef

	// FormatVersion is the only database format version in circulation.
	FormatVersion = 0x620

	// FileTypeDatabase identifies a database file (as opposed to a
	// streaming file or flush map).
	FileTypeDatabase = 0

	// File header field offsets (little-endian).
	//
	//	Offset  Size  Description
	//	------  ----  ----------------------------------------------------
	//	 0x000   4    Header checksum (XOR of the remaining header dwords)
	//	 0x004   4    Signature 0xEF 0xCD 0xAB 0x89
	//	 0x008   4    Format version (0x620)
	//	 0x00C   4    File type (0 = database)
	//	 0x010   8    Database time
	//	 0x018  28    Database signature
	//	 0x034   4    Database state
	//	 0x0E8   4    Format revision
	//	 0x0EC   4    Page size
	HeaderChecksumOffset    = 0x000
	HeaderSignatureOffset   = 0x004
	HeaderVersionOffset     = 0x008
	HeaderFileTypeOffset    = 0x00C
	HeaderDBTimeOffset      = 0x010
	HeaderDBSignatureOffset = 0x018
	HeaderDBSignatureSize   = 28
	HeaderStateOffset       = 0x034
	HeaderRevisionOffset    = 0x0E8
	HeaderPageSizeOffset    = 0x0EC

	// HeaderSize is the number of header bytes we require to be present.
	// The header occupies a full page on disk (with a shadow copy in the
	// second page), but every field we consume lives in the first 0xF0.
	HeaderSize = 0x0F0

	// Database states.
	StateJustCreated    = 1
	StateDirtyShutdown  = 2
	StateCleanShutdown  = 3
	StateBeingConverted = 4
	StateForceDetach    = 5

	// Format revisions. Revision 0x0B introduced ECC checksums, 0x11 the
	// extended page header for pages larger than 8 KiB. Windows Search
	// databases in the wild carry 0x11 through 0x14.
	MinSupportedRevision = 0x09
	MaxSupportedRevision = 0x20
	RevisionExtendedPage = 0x11

	// MinPageSize and MaxPageSize bound the supported page sizes. The page
	// size must also be a power of two.
	MinPageSize = 1 << 12 // 4096
	MaxPageSize = 1 << 15 // 32768
)

const (
	// Page header field offsets (little-endian). The 40-byte header is
	// common to every revision; only the meaning of the first 8 bytes
	// changed over time (XOR checksum + page number, then XOR + ECC
	// checksum, then a single 64-bit checksum from revision 0x11 on).
	//
	//	Offset  Size  Description
	//	------  ----  ----------------------------------------------
	//	 0x00    8    Checksum
	//	 0x08    8    Database time of last modification
	//	 0x10    4    Previous page number
	//	 0x14    4    Next page number
	//	 0x18    4    Father data page (FDP) object identifier
	//	 0x1C    2    Available data size
	//	 0x1E    2    Available uncommitted data size
	//	 0x20    2    First available data offset
	//	 0x22    2    First available page tag (= number of tags)
	//	 0x24    4    Page flags
	PageChecksumOffset         = 0x00
	PageDBTimeOffset           = 0x08
	PagePreviousOffset         = 0x10
	PageNextOffset             = 0x14
	PageFDPObjectOffset        = 0x18
	PageAvailableSizeOffset    = 0x1C
	PageUncommittedSizeOffset  = 0x1E
	PageAvailableOffsetOffset  = 0x20
	PageTagCountOffset         = 0x22
	PageFlagsOffset            = 0x24
	PageHeaderSize             = 0x28
	PageExtendedHeaderSize     = 0x28 // extra block checksums on large pages
	PageExtendedPageNumberSlot = 0x18 // offset of the page number within the extension

	// Page flags.
	PageFlagRoot      = 0x0001
	PageFlagLeaf      = 0x0002
	PageFlagParent    = 0x0004
	PageFlagEmpty     = 0x0008
	PageFlagSpaceTree = 0x0010
	PageFlagIndex     = 0x0020
	PageFlagLongValue = 0x0040
	PageFlagNewFormat = 0x2000

	// Page tags live at the tail of the page, growing backwards: the last
	// four bytes of the page hold tag 0. Each tag is a (size, offset) pair
	// of uint16s; offsets are relative to the end of the page header. On
	// small pages the upper three bits of both values carry the tag flags;
	// pages larger than 8 KiB use all but the top bit for the value and
	// move the flags into the first uint16 of the entry data.
	PageTagSize        = 4
	PageTagSmallMask   = 0x1FFF
	PageTagLargeMask   = 0x7FFF
	PageTagFlagsShift  = 13
	PageTagLargeLimit  = 8192
	TagFlagVersion     = 0x1
	TagFlagDefunct     = 0x2
	TagFlagCommonKey   = 0x4
)

const (
	// CatalogPageNumber is the well-known father data page of the catalog
	// table (MSysObjects). Every database places it at data page 4.
	CatalogPageNumber = 4

	// CatalogTableName is the name under which the catalog describes
	// itself.
	CatalogTableName = "MSysObjects"

	// Catalog entry types (the Type column of a catalog record).
	CatalogTypeTable     = 1
	CatalogTypeColumn    = 2
	CatalogTypeIndex     = 3
	CatalogTypeLongValue = 4
	CatalogTypeCallback  = 5
)

const (
	// Column identifier ranges. The storage class of a column is implied
	// by its identifier: fixed columns count up from 1, variable columns
	// from 128, tagged columns from 256.
	MinFixedColumnID    = 1
	MaxFixedColumnID    = 127
	MinVariableColumnID = 128
	MaxVariableColumnID = 255
	MinTaggedColumnID   = 256
)

const (
	// Record (data definition) layout.
	//
	//	Offset  Size  Description
	//	------  ----  ----------------------------------------------
	//	 0x00    1    Last fixed column identifier present
	//	 0x01    1    Last variable column identifier present
	//	 0x02    2    Offset of the variable column offset table
	//	 0x04    ...  Fixed column data, then fixed null bitmap
	RecordLastFixedOffset    = 0
	RecordLastVariableOffset = 1
	RecordVariableOffset     = 2
	RecordHeaderSize         = 4

	// Variable column offset table entries are cumulative end offsets;
	// the high bit marks an explicit NULL.
	VariableOffsetNullBit = 0x8000
	VariableOffsetMask    = 0x7FFF

	// Tagged column entries are (identifier, offset) uint16 pairs sorted
	// by identifier. Bit 0x4000 of the offset announces a leading flags
	// byte in the value data.
	TaggedEntrySize    = 4
	TaggedOffsetMask   = 0x3FFF
	TaggedHasFlagsBit  = 0x4000

	// Tagged value flags byte.
	TaggedFlagLongValue  = 0x01
	TaggedFlagCompressed = 0x02
	TaggedFlagMultiValue = 0x08

	// Multi-value data starts with a uint16 offset table; the element
	// count is implied by the first offset. The high bit of an element
	// offset marks a separated (long value) element.
	MultiValueOffsetMask    = 0x7FFF
	MultiValueSeparatedBit  = 0x8000
)

const (
	// Long value trees key their nodes with the big-endian long value
	// identifier; segment nodes append a big-endian byte offset. The root
	// node for an identifier carries the reference count and total size.
	LongValueKeySize        = 4
	LongValueSegmentKeySize = 8
	LongValueRootDataSize   = 8
)

// Column types live in pkg/types (they are part of the public schema model);
// this package consumes them through that definition.
