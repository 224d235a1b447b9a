package reader

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// codePageUTF16 is the code page catalog entries use for Unicode text
// columns; everything else is treated as Windows-1252.
const codePageUTF16 = 1200

// convertValue interprets a column's raw bytes per its semantic type code.
// An empty buffer converts to the absent marker for every type.
func convertValue(col types.Column, data []byte) (types.Value, error) {
	if len(data) == 0 {
		return types.Value{}, nil
	}
	switch col.Type {
	case types.ColTypBit:
		return types.Value{Kind: types.ValueBool, Bool: data[0] != 0}, nil
	case types.ColTypUnsignedByte:
		return types.Value{Kind: types.ValueUint, Uint: uint64(data[0])}, nil
	case types.ColTypShort:
		if len(data) < 2 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueInt, Int: int64(buf.I16LE(data))}, nil
	case types.ColTypUnsignedShort:
		if len(data) < 2 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueUint, Uint: uint64(buf.U16LE(data))}, nil
	case types.ColTypLong:
		if len(data) < 4 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueInt, Int: int64(buf.I32LE(data))}, nil
	case types.ColTypUnsignedLong:
		if len(data) < 4 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueUint, Uint: uint64(buf.U32LE(data))}, nil
	case types.ColTypLongLong, types.ColTypCurrency:
		if len(data) < 8 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueInt, Int: buf.I64LE(data)}, nil
	case types.ColTypIEEESingle:
		if len(data) < 4 {
			return types.Value{}, truncated(col)
		}
		f := math.Float32frombits(buf.U32LE(data))
		return types.Value{Kind: types.ValueFloat, Float: float64(f)}, nil
	case types.ColTypIEEEDouble:
		if len(data) < 8 {
			return types.Value{}, truncated(col)
		}
		f := math.Float64frombits(buf.U64LE(data))
		return types.Value{Kind: types.ValueFloat, Float: f}, nil
	case types.ColTypDateTime:
		if len(data) < 8 {
			return types.Value{}, truncated(col)
		}
		days := math.Float64frombits(buf.U64LE(data))
		return types.Value{Kind: types.ValueTime, Time: format.OADateToTime(days)}, nil
	case types.ColTypText, types.ColTypLongText:
		s, err := decodeText(data, col.CodePage)
		if err != nil {
			return types.Value{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return types.Value{Kind: types.ValueString, Str: s}, nil
	case types.ColTypGUID:
		if len(data) < 16 {
			return types.Value{}, truncated(col)
		}
		return types.Value{Kind: types.ValueString, Str: formatGUID(data)}, nil
	case types.ColTypBinary, types.ColTypLongBinary, types.ColTypSLV, types.ColTypNil:
		return types.Value{Kind: types.ValueBinary, Bytes: copyBytes(data)}, nil
	default:
		// Unknown type code: preserve the evidence as bytes.
		return types.Value{Kind: types.ValueBinary, Bytes: copyBytes(data)}, nil
	}
}

func truncated(col types.Column) error {
	return fmt.Errorf("column %q (%s): %w", col.Name, col.Type, types.ErrTruncatedRecord)
}

// decodeText converts a text column's bytes per its code page. Trailing NUL
// terminators are trimmed; 8-bit text uses Windows-1252 (with a fast path for
// plain ASCII, which needs no decoding).
func decodeText(data []byte, codePage uint32) (string, error) {
	if codePage == codePageUTF16 {
		if len(data)%2 != 0 {
			// A dangling byte means corruption; decode what aligns.
			data = data[:len(data)-1]
		}
		for len(data) >= 2 && data[len(data)-2] == 0 && data[len(data)-1] == 0 {
			data = data[:len(data)-2]
		}
		return decodeUTF16LE(data), nil
	}
	for len(data) >= 1 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	if isASCII(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode Windows-1252 text: %w", err)
	}
	return string(decoded), nil
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// formatGUID renders a 16-byte GUID in braced form. The first three groups
// are little-endian on disk, the last two are byte arrays.
func formatGUID(b []byte) string {
	return fmt.Sprintf("{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		buf.U32LE(b), buf.U16LE(b[4:]), buf.U16LE(b[6:]),
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}
