package ese

import (
	"errors"
	"time"

	"github.com/joshuapare/esekit/internal/artifact"
	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/pkg/types"
)

// Property store table names across Windows Search generations, tried in
// order. Windows 10 writes SystemIndex_PropertyStore; Windows 7 and 8 used
// SystemIndex_0A.
var propertyStoreTables = []string{"SystemIndex_PropertyStore", "SystemIndex_0A"}

// GatherTableName is the crawl queue table. Its rows carry the gather time
// the property store often lacks.
const GatherTableName = "SystemIndex_Gthr"

// GenerateReport opens the store at path and writes its File, Activity
// History and Internet History reports through the producer. Returns the
// paths of the reports written, empty for stdout-bound output.
func GenerateReport(path string, producer *report.Producer, opts types.OpenOptions) ([]string, error) {
	db, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.GenerateReport(producer)
}

// GenerateReport maps the store's property records into report rows and
// writes them out. The whole store is buffered first: the hostname that
// names the report files can sit anywhere in the table.
func (db *DB) GenerateReport(producer *report.Producer) ([]string, error) {
	gathered := db.gatherTimes()
	collector := artifact.NewCollector(producer)

	var scanErr error
	for _, table := range propertyStoreTables {
		scanErr = db.ScanTable(table, func(rec types.Record) error {
			row := db.propertyRow(table, rec)
			if t, ok := gathered[row.WorkID]; ok {
				if _, has := row.Values["System_Search_GatherTime"]; !has {
					row.Values["System_Search_GatherTime"] = types.Value{Kind: types.ValueTime, Time: t}
				}
			}
			collector.Add(row)
			return nil
		})
		if scanErr == nil || !errors.Is(scanErr, types.ErrTableNotFound) {
			break
		}
	}
	if errors.Is(scanErr, types.ErrTableNotFound) {
		return nil, scanErr
	}
	// Structural corruption is fatal for the table only: rows decoded
	// before the fault still reach the reports.
	paths, closeErr := collector.Close()
	if closeErr != nil {
		return paths, closeErr
	}
	return paths, scanErr
}

// propertyRow converts one decoded property store record into a normalized
// row. The record key is the big-endian document identifier.
func (db *DB) propertyRow(table string, rec types.Record) artifact.Row {
	row := artifact.Row{Values: make(map[string]types.Value)}
	if len(rec.Key) >= 4 {
		row.WorkID = buf.U32BE(rec.Key[len(rec.Key)-4:])
	}
	schema, err := db.Schema(table)
	if err != nil {
		return row
	}
	for _, col := range schema.Columns() {
		v, ok := rec.Value(col.ID)
		if !ok || v.IsAbsent() {
			continue
		}
		row.Values[artifact.NormalizeColumn(col.Name)] = v
	}
	return row
}

// gatherTimes scans the crawl queue for last-gather timestamps keyed by
// document identifier. The table is optional and its failures never block
// the report.
func (db *DB) gatherTimes() map[uint32]time.Time {
	schema, err := db.Schema(GatherTableName)
	if err != nil {
		return nil
	}
	modified, ok := schema.ColumnByName("LastModified")
	if !ok {
		return nil
	}
	times := make(map[uint32]time.Time)
	_ = db.ScanTable(GatherTableName, func(rec types.Record) error {
		if len(rec.Key) < 4 {
			return nil
		}
		v, ok := rec.Value(modified.ID)
		if !ok || v.Kind != types.ValueBinary || len(v.Bytes) != 8 {
			return nil
		}
		id := buf.U32BE(rec.Key[len(rec.Key)-4:])
		times[id] = format.FiletimeToTime(buf.U64LE(v.Bytes))
		return nil
	})
	return times
}
