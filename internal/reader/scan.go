package reader

import (
	"errors"
	"fmt"

	"github.com/joshuapare/esekit/pkg/types"
)

// ScanTable walks every record of the named table in key order, decodes it,
// resolves any long value references, and hands it to fn. Failure policy per
// record: decode errors and dangling long values are reported through the
// diagnostic sink and the record (or field) is skipped, because partial
// evidence beats none. Structural tree corruption aborts the scan with
// ErrCorruptBTree; records already delivered stay delivered. A non-nil error
// from fn stops the scan and is returned as-is.
func (r *Reader) ScanTable(name string, fn func(types.Record) error) error {
	schema, err := r.Schema(name)
	if err != nil {
		return err
	}
	cursor, err := r.OpenCursor(schema.RootPage)
	if err != nil {
		return err
	}
	rec, err := cursor.First()
	for ; err == nil && rec != nil; rec, err = cursor.Next() {
		record, derr := r.DecodeRecord(schema, rec.Data)
		if derr != nil {
			r.diag(types.Diagnostic{
				Table: schema.Name,
				Page:  rec.Page,
				Msg:   "skipping undecodable record",
				Err:   derr,
			})
			continue
		}
		r.resolveLongRefs(schema, record)
		record.Key = rec.Key
		if ferr := fn(record); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return fmt.Errorf("table %q: %w", name, err)
	}
	return nil
}

// resolveLongRefs replaces every long value reference in the record with its
// reassembled data, converted per the owning column's type. References also
// occur inside multi-values, where separated elements store their id inline.
// A dangling reference surfaces the field as empty; other resolution failures
// drop the field with a diagnostic.
func (r *Reader) resolveLongRefs(schema *types.TableSchema, record types.Record) {
	for id, v := range record.Values {
		col, ok := schema.Column(id)
		if !ok {
			continue
		}
		switch v.Kind {
		case types.ValueLongRef:
			record.Values[id] = r.resolveRef(schema, col, v.LongRef)
		case types.ValueMulti:
			for i, el := range v.Multi {
				if el.Kind == types.ValueLongRef {
					v.Multi[i] = r.resolveRef(schema, col, el.LongRef)
				}
			}
		}
	}
}

// resolveRef fetches and converts one long value. The returned value is
// empty of the column's kind when the data is gone or unconvertable.
func (r *Reader) resolveRef(schema *types.TableSchema, col types.Column, ref types.LongValueID) types.Value {
	data, err := r.ResolveLongValue(schema, ref)
	if err != nil {
		kind := "unresolvable"
		if errors.Is(err, types.ErrDanglingLongValue) {
			kind = "dangling"
		}
		r.diag(types.Diagnostic{
			Table: schema.Name,
			Msg:   fmt.Sprintf("%s long value for column %q", kind, col.Name),
			Err:   err,
		})
		return emptyValue(col)
	}
	converted, cerr := convertValue(col, data)
	if cerr != nil {
		r.diag(types.Diagnostic{
			Table: schema.Name,
			Msg:   fmt.Sprintf("unconvertable long value for column %q", col.Name),
			Err:   cerr,
		})
		return emptyValue(col)
	}
	return converted
}

// emptyValue is the surfaced form of a field whose out-of-line data is gone:
// empty of the column's kind, rather than absent, so report rows still show
// the field existed.
func emptyValue(col types.Column) types.Value {
	if col.Type.IsText() {
		return types.Value{Kind: types.ValueString}
	}
	return types.Value{Kind: types.ValueBinary, Bytes: []byte{}}
}
