package reader

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// ResolveLongValue reassembles out-of-line data for the given identifier from
// the table's long value tree. Tree keys carry the identifier big-endian so
// byte order equals numeric order; the identifier alone keys the root node
// (reference count and declared size), and identifier plus a big-endian byte
// offset keys each data segment. Segments concatenate in offset order.
//
// A reference with no matching nodes yields ErrDanglingLongValue; callers
// surface the owning field as empty rather than failing the table scan.
func (r *Reader) ResolveLongValue(schema *types.TableSchema, id types.LongValueID) ([]byte, error) {
	if schema.LongValuePage == 0 {
		return nil, fmt.Errorf("table %q has no long value tree: %w",
			schema.Name, types.ErrDanglingLongValue)
	}
	var key [format.LongValueKeySize]byte
	binary.BigEndian.PutUint32(key[:], uint32(id))

	cursor, err := r.OpenCursor(schema.LongValuePage)
	if err != nil {
		return nil, err
	}
	rec, err := cursor.Seek(key[:])
	if err != nil {
		return nil, err
	}

	found := false
	declaredSize := -1
	var out []byte
	for ; err == nil && rec != nil; rec, err = cursor.Next() {
		if !bytes.HasPrefix(rec.Key, key[:]) {
			break
		}
		switch len(rec.Key) {
		case format.LongValueKeySize:
			// Root node: reference count, then total size.
			if len(rec.Data) >= format.LongValueRootDataSize {
				declaredSize = int(buf.U32LE(rec.Data[4:]))
				if declaredSize > r.opts.MaxLongValueSize {
					return nil, fmt.Errorf("long value %d declares %d bytes (limit %d): %w",
						id, declaredSize, r.opts.MaxLongValueSize, types.ErrCorruptBTree)
				}
			}
			found = true
		case format.LongValueSegmentKeySize:
			segOffset := int(buf.U32BE(rec.Key[format.LongValueKeySize:]))
			if segOffset != len(out) {
				return nil, fmt.Errorf("long value %d: segment at offset %d after %d assembled bytes: %w",
					id, segOffset, len(out), types.ErrCorruptBTree)
			}
			if len(out)+len(rec.Data) > r.opts.MaxLongValueSize {
				return nil, fmt.Errorf("long value %d exceeds %d bytes: %w",
					id, r.opts.MaxLongValueSize, types.ErrCorruptBTree)
			}
			out = append(out, rec.Data...)
			found = true
		default:
			return nil, fmt.Errorf("long value %d: key length %d: %w",
				id, len(rec.Key), types.ErrCorruptBTree)
		}
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("long value %d: %w", id, types.ErrDanglingLongValue)
	}
	if declaredSize >= 0 && declaredSize != len(out) {
		r.diag(types.Diagnostic{
			Table: schema.Name,
			Msg: fmt.Sprintf("long value %d: assembled %d bytes, root declares %d",
				id, len(out), declaredSize),
		})
	}
	return out, nil
}
