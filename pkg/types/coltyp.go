package types

// ColumnType enumerates the JET column types encountered in Windows Search
// databases. The numbers align with the JET_coltyp definitions.
type ColumnType uint32

const (
	ColTypNil           ColumnType = 0
	ColTypBit           ColumnType = 1
	ColTypUnsignedByte  ColumnType = 2
	ColTypShort         ColumnType = 3
	ColTypLong          ColumnType = 4
	ColTypCurrency      ColumnType = 5
	ColTypIEEESingle    ColumnType = 6
	ColTypIEEEDouble    ColumnType = 7
	ColTypDateTime      ColumnType = 8
	ColTypBinary        ColumnType = 9
	ColTypText          ColumnType = 10
	ColTypLongBinary    ColumnType = 11
	ColTypLongText      ColumnType = 12
	ColTypSLV           ColumnType = 13
	ColTypUnsignedLong  ColumnType = 14
	ColTypLongLong      ColumnType = 15
	ColTypGUID          ColumnType = 16
	ColTypUnsignedShort ColumnType = 17
)

// FixedWidth returns the on-disk width of a fixed-size column type, or 0 when
// the type has no intrinsic width (binary and text columns take their width
// from the catalog's space usage field).
func (t ColumnType) FixedWidth() int {
	switch t {
	case ColTypBit, ColTypUnsignedByte:
		return 1
	case ColTypShort, ColTypUnsignedShort:
		return 2
	case ColTypLong, ColTypUnsignedLong, ColTypIEEESingle:
		return 4
	case ColTypCurrency, ColTypIEEEDouble, ColTypDateTime, ColTypLongLong:
		return 8
	case ColTypGUID:
		return 16
	default:
		return 0
	}
}

// IsLong reports whether values of this type may be stored out of line in the
// table's long value tree.
func (t ColumnType) IsLong() bool {
	return t == ColTypLongBinary || t == ColTypLongText || t == ColTypSLV
}

// IsText reports whether values of this type decode to a string.
func (t ColumnType) IsText() bool {
	return t == ColTypText || t == ColTypLongText
}

// String implements the Stringer interface for ColumnType.
func (t ColumnType) String() string {
	switch t {
	case ColTypNil:
		return "Nil"
	case ColTypBit:
		return "Bit"
	case ColTypUnsignedByte:
		return "UnsignedByte"
	case ColTypShort:
		return "Short"
	case ColTypLong:
		return "Long"
	case ColTypCurrency:
		return "Currency"
	case ColTypIEEESingle:
		return "IEEESingle"
	case ColTypIEEEDouble:
		return "IEEEDouble"
	case ColTypDateTime:
		return "DateTime"
	case ColTypBinary:
		return "Binary"
	case ColTypText:
		return "Text"
	case ColTypLongBinary:
		return "LongBinary"
	case ColTypLongText:
		return "LongText"
	case ColTypSLV:
		return "SLV"
	case ColTypUnsignedLong:
		return "UnsignedLong"
	case ColTypLongLong:
		return "LongLong"
	case ColTypGUID:
		return "GUID"
	case ColTypUnsignedShort:
		return "UnsignedShort"
	default:
		return "Unknown"
	}
}
