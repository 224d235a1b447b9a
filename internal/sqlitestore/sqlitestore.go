// Package sqlitestore reads the SQLite-backed Windows Search index
// (Windows.db, Windows 11). The property store there is an entity-attribute
// table: one row per (document, property) pair, with property names held in
// a companion metadata table. Rows are regrouped into per-document records
// and fed through the same artifact mapper as the ESE store.
package sqlitestore

import (
	"crawshaw.io/sqlite"
	"github.com/pkg/errors"

	"github.com/joshuapare/esekit/internal/artifact"
	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/pkg/types"
)

const (
	metadataQuery = `SELECT Id, UniqueKey FROM SystemIndex_1_PropertyStore_Metadata;`
	propertyQuery = `SELECT WorkId, ColumnId, Value FROM SystemIndex_1_PropertyStore ORDER BY WorkId;`
)

// GenerateReport opens the Windows.db at path and writes its three reports
// through the producer. Returns the paths of the reports written, empty for
// stdout-bound output.
func GenerateReport(path string, producer *report.Producer) ([]string, error) {
	conn, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_READONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %q", path)
	}
	defer conn.Close()

	names, err := propertyNames(conn)
	if err != nil {
		return nil, err
	}

	collector := artifact.NewCollector(producer)
	if err := scanProperties(conn, names, collector.Add); err != nil {
		return nil, err
	}
	return collector.Close()
}

// propertyNames loads the metadata table: property identifier to normalized
// property name.
func propertyNames(conn *sqlite.Conn) (map[int64]string, error) {
	stmt, err := conn.Prepare(metadataQuery)
	if err != nil {
		return nil, errors.Wrap(err, "property store metadata")
	}
	defer stmt.Finalize()

	names := make(map[int64]string)
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errors.Wrap(err, "property store metadata")
		}
		if !hasRow {
			break
		}
		names[stmt.GetInt64("Id")] = artifact.NormalizeColumn(stmt.GetText("UniqueKey"))
	}
	return names, nil
}

// scanProperties walks the property rows in WorkId order, assembling one Row
// per document and handing it to emit when the next document starts.
func scanProperties(conn *sqlite.Conn, names map[int64]string, emit func(artifact.Row)) error {
	stmt, err := conn.Prepare(propertyQuery)
	if err != nil {
		return errors.Wrap(err, "property store")
	}
	defer stmt.Finalize()

	var row artifact.Row
	var open bool
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return errors.Wrap(err, "property store")
		}
		if !hasRow {
			break
		}
		workID := uint32(stmt.GetInt64("WorkId"))
		if !open || workID != row.WorkID {
			if open {
				emit(row)
			}
			row = artifact.Row{WorkID: workID, Values: make(map[string]types.Value)}
			open = true
		}
		name, ok := names[stmt.GetInt64("ColumnId")]
		if !ok {
			continue
		}
		v := columnValue(stmt, 2)
		if !v.IsAbsent() {
			row.Values[name] = v
		}
	}
	if open {
		emit(row)
	}
	return nil
}

// columnValue converts one sqlite value. Strings arrive either as TEXT or as
// UTF-16LE blobs; anything unrecognized stays binary and is rendered as a
// length marker downstream.
func columnValue(stmt *sqlite.Stmt, col int) types.Value {
	switch stmt.ColumnType(col) {
	case sqlite.SQLITE_INTEGER:
		return types.Value{Kind: types.ValueInt, Int: stmt.ColumnInt64(col)}
	case sqlite.SQLITE_FLOAT:
		return types.Value{Kind: types.ValueFloat, Float: stmt.ColumnFloat(col)}
	case sqlite.SQLITE_TEXT:
		return types.Value{Kind: types.ValueString, Str: stmt.ColumnText(col)}
	case sqlite.SQLITE_BLOB:
		b := make([]byte, stmt.ColumnLen(col))
		stmt.ColumnBytes(col, b)
		return blobValue(b)
	default:
		return types.Value{}
	}
}

// blobValue decodes a property blob. ASCII-range UTF-16LE is by far the most
// common string shape in the index; everything else is surfaced as bytes.
func blobValue(b []byte) types.Value {
	if len(b) == 0 || len(b)%2 != 0 {
		return types.Value{Kind: types.ValueBinary, Bytes: b}
	}
	text := true
	for i := 0; i < len(b); i += 2 {
		if b[i+1] != 0 || (b[i] < 0x20 && b[i] != '\t' && b[i] != '\n' && b[i] != '\r') {
			text = false
			break
		}
	}
	if !text {
		return types.Value{Kind: types.ValueBinary, Bytes: b}
	}
	out := make([]byte, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		out = append(out, b[i])
	}
	return types.Value{Kind: types.ValueString, Str: string(out)}
}
