package reader

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// DecodeRecord decodes one raw leaf record against its table schema. The
// function is pure: identical (schema, raw) inputs always yield identical
// records. Long values are not resolved here; columns stored out of line
// surface as ValueLongRef for the caller to resolve lazily.
//
// Layout, in order within raw:
//
//  1. The record header, then the fixed columns' data sized by the schema,
//     then one NULL bit per encoded fixed column. Fixed columns beyond the
//     header's stated count are absent (the schema grew after this record
//     was written).
//  2. The variable column offset table (cumulative end offsets) followed by
//     the variable columns' concatenated bytes.
//  3. The tagged column area: an (identifier, offset) table followed by the
//     tagged values, present only for columns that actually occur.
func (r *Reader) DecodeRecord(schema *types.TableSchema, raw []byte) (types.Record, error) {
	hdr, err := format.ParseRecordHeader(raw)
	if err != nil {
		return types.Record{}, fmt.Errorf("%v: %w", err, types.ErrTruncatedRecord)
	}

	values := make(map[types.ColumnID]types.Value, len(schema.Fixed)+len(schema.Variable))

	// Fixed columns. The offset of each is the running sum of the widths of
	// its predecessors: identifiers are assigned strictly increasing from 1,
	// so schema order is layout order. The NULL bitmap trails the fixed data,
	// so raw slices are gathered first and converted once it is located.
	off := format.RecordHeaderSize
	fixedRaw := make([][]byte, len(schema.Fixed))
	for i, col := range schema.Fixed {
		if uint32(col.ID) > uint32(hdr.LastFixedID) {
			continue // absent: record predates the column
		}
		if off+col.Width > hdr.VariableOffset {
			return types.Record{}, fmt.Errorf("fixed column %d overruns fixed area: %w",
				col.ID, types.ErrTruncatedRecord)
		}
		data, ok := buf.Slice(raw, off, col.Width)
		if !ok {
			return types.Record{}, fmt.Errorf("fixed column %d: %w", col.ID, types.ErrTruncatedRecord)
		}
		off += col.Width
		fixedRaw[i] = data
	}
	bitmapSize := hdr.FixedNullBitmapSize()
	if off+bitmapSize > hdr.VariableOffset {
		return types.Record{}, fmt.Errorf("fixed null bitmap: %w", types.ErrTruncatedRecord)
	}
	bitmap := raw[off : off+bitmapSize]
	for i, col := range schema.Fixed {
		if fixedRaw[i] == nil || format.FixedNull(bitmap, int(col.ID)) {
			values[col.ID] = types.Value{}
			continue
		}
		converted, cerr := convertValue(col, fixedRaw[i])
		if cerr != nil {
			return types.Record{}, fmt.Errorf("fixed column %d: %w", col.ID, cerr)
		}
		values[col.ID] = converted
	}

	// Variable columns: present only when actually encoded.
	entries, taggedStart, err := format.ParseVariableEntries(raw, hdr)
	if err != nil {
		return types.Record{}, fmt.Errorf("%v: %w", err, types.ErrTruncatedRecord)
	}
	for _, e := range entries {
		if e.Null {
			continue
		}
		col, ok := schema.Column(types.ColumnID(e.ID))
		if !ok {
			r.diag(types.Diagnostic{
				Table: schema.Name,
				Msg:   fmt.Sprintf("variable column %d not in schema, skipped", e.ID),
			})
			continue
		}
		converted, cerr := convertValue(col, e.Data)
		if cerr != nil {
			return types.Record{}, fmt.Errorf("variable column %d: %w", e.ID, cerr)
		}
		values[col.ID] = converted
	}

	// Tagged columns.
	tagged, err := format.ParseTaggedEntries(raw[taggedStart:], r.largePage)
	if err != nil {
		return types.Record{}, fmt.Errorf("%v: %w", err, types.ErrTruncatedRecord)
	}
	for _, e := range tagged {
		col, ok := schema.Tagged[types.ColumnID(e.ID)]
		if !ok {
			r.diag(types.Diagnostic{
				Table: schema.Name,
				Msg:   fmt.Sprintf("tagged column %d not in schema, skipped", e.ID),
			})
			continue
		}
		v, cerr := r.taggedValue(schema, col, e)
		if cerr != nil {
			return types.Record{}, fmt.Errorf("tagged column %d: %w", e.ID, cerr)
		}
		values[col.ID] = v
	}

	return types.Record{Values: values}, nil
}

// taggedValue converts one tagged column occurrence, honoring its flags:
// out-of-line storage, compression, and multi-values.
func (r *Reader) taggedValue(schema *types.TableSchema, col types.Column, e format.TaggedEntry) (types.Value, error) {
	data := e.Data
	if e.Flags&format.TaggedFlagCompressed != 0 {
		expanded, err := format.Decompress(data)
		if err != nil {
			// Unsupported scheme: surface the raw bytes rather than
			// dropping the field.
			r.diag(types.Diagnostic{
				Table: schema.Name,
				Msg:   fmt.Sprintf("column %q kept compressed", col.Name),
				Err:   err,
			})
			return types.Value{Kind: types.ValueBinary, Bytes: copyBytes(data)}, nil
		}
		data = expanded
	}
	if e.Flags&format.TaggedFlagLongValue != 0 {
		if len(data) < 4 {
			return types.Value{}, fmt.Errorf("long value reference: %w", types.ErrTruncatedRecord)
		}
		return types.Value{
			Kind:    types.ValueLongRef,
			LongRef: types.LongValueID(buf.U32LE(data)),
		}, nil
	}
	if e.Flags&format.TaggedFlagMultiValue != 0 {
		elements, err := format.MultiValueSegments(data)
		if err != nil {
			return types.Value{}, fmt.Errorf("%v: %w", err, types.ErrTruncatedRecord)
		}
		multi := make([]types.Value, 0, len(elements))
		for _, el := range elements {
			if el.Separated {
				// The element's bytes live in the long value tree; its
				// inline data is the 4-byte long value id.
				if len(el.Data) < 4 {
					return types.Value{}, fmt.Errorf("separated element reference: %w",
						types.ErrTruncatedRecord)
				}
				multi = append(multi, types.Value{
					Kind:    types.ValueLongRef,
					LongRef: types.LongValueID(buf.U32LE(el.Data)),
				})
				continue
			}
			v, cerr := convertValue(col, el.Data)
			if cerr != nil {
				return types.Value{}, cerr
			}
			multi = append(multi, v)
		}
		return types.Value{Kind: types.ValueMulti, Multi: multi}, nil
	}
	return convertValue(col, data)
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
