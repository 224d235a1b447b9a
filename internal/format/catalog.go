package format

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
)

// The catalog table (MSysObjects) describes every table, column, index and
// long value tree in the database, yet its rows are themselves ordinary data
// definition records. Decoding them through the generic record decoder would
// require the very schema they define, so this file hand-decodes the
// catalog's fixed, documented layout instead. The generic decoder is only
// ever fed non-catalog tables.
//
// Catalog record fixed columns, in identifier order:
//
//	ID  Width  Field
//	 1    4    ObjidTable       (owning table object identifier)
//	 2    2    Type             (1 table, 2 column, 3 index, 4 long value)
//	 3    4    Id               (object / column identifier)
//	 4    4    ColtypOrPgnoFDP  (column type, or father data page number)
//	 5    4    SpaceUsage       (fixed column width, or page allocation)
//	 6    4    Flags
//	 7    4    PagesOrLocale
//
// The first variable column (identifier 128) holds the UTF-8 object name.
const (
	catalogObjidOffset     = 0
	catalogTypeOffset      = 4
	catalogIDOffset        = 6
	catalogColtypOffset    = 10
	catalogSpaceOffset     = 14
	catalogFlagsOffset     = 18
	catalogPagesOffset     = 22
	catalogFixedMinimum    = 7  // identifiers 1..7 must be present
	catalogFixedMinimumLen = 26 // their combined width
)

// CatalogRecord is one decoded row of the catalog table.
type CatalogRecord struct {
	ObjidTable      uint32
	Type            uint16
	ID              uint32
	ColtypOrPgnoFDP uint32
	SpaceUsage      uint32
	Flags           uint32
	PagesOrLocale   uint32
	Name            string
}

// ParseCatalogRecord bootstrap-decodes a raw catalog leaf record.
func ParseCatalogRecord(data []byte) (CatalogRecord, error) {
	hdr, err := ParseRecordHeader(data)
	if err != nil {
		return CatalogRecord{}, err
	}
	if int(hdr.LastFixedID) < catalogFixedMinimum {
		return CatalogRecord{}, fmt.Errorf("catalog record: only %d fixed columns", hdr.LastFixedID)
	}
	fixed, ok := buf.Slice(data, RecordHeaderSize, catalogFixedMinimumLen)
	if !ok {
		return CatalogRecord{}, fmt.Errorf("catalog record: %w", ErrTruncated)
	}
	rec := CatalogRecord{
		ObjidTable:      buf.U32LE(fixed[catalogObjidOffset:]),
		Type:            buf.U16LE(fixed[catalogTypeOffset:]),
		ID:              buf.U32LE(fixed[catalogIDOffset:]),
		ColtypOrPgnoFDP: buf.U32LE(fixed[catalogColtypOffset:]),
		SpaceUsage:      buf.U32LE(fixed[catalogSpaceOffset:]),
		Flags:           buf.U32LE(fixed[catalogFlagsOffset:]),
		PagesOrLocale:   buf.U32LE(fixed[catalogPagesOffset:]),
	}

	entries, _, err := ParseVariableEntries(data, hdr)
	if err != nil {
		return CatalogRecord{}, err
	}
	for _, e := range entries {
		if e.ID == MinVariableColumnID && !e.Null {
			// Object names are stored as 8-bit characters.
			rec.Name = string(e.Data)
			break
		}
	}
	if rec.Name == "" {
		return CatalogRecord{}, fmt.Errorf("catalog record: unnamed object %d", rec.ID)
	}
	return rec, nil
}
