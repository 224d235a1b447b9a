package artifact

import (
	"github.com/joshuapare/esekit/internal/buf"
	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/pkg/types"
)

// fieldMapping binds one normalized source column to one report field. An
// optional render step reinterprets the decoded value first; numeric fields
// go out as bare integers instead of quoted strings.
type fieldMapping struct {
	column  string
	field   string
	render  func(types.Value) types.Value
	numeric bool
}

// The report field lists. Order is the column order of the CSV output.
var (
	fileFields = []fieldMapping{
		{column: "System_ComputerName", field: "System_ComputerName"},
		{column: "System_ItemPathDisplay", field: "System_ItemPathDisplay"},
		{column: "System_DateModified", field: "System_DateModified", render: renderDate},
		{column: "System_DateCreated", field: "System_DateCreated", render: renderDate},
		{column: "System_DateAccessed", field: "System_DateAccessed", render: renderDate},
		{column: "System_Size", field: "System_Size", numeric: true},
		{column: "System_FileOwner", field: "System_FileOwner"},
		{column: "System_Search_AutoSummary", field: "System_Search_AutoSummary"},
		{column: "System_Search_GatherTime", field: "System_Search_GatherTime", render: renderDate},
		{column: "System_ItemType", field: "System_ItemType"},
	}

	activityFields = []fieldMapping{
		{column: "System_ItemNameDisplay", field: "System_ItemNameDisplay"},
		{column: "System_ItemUrl", field: "System_ItemUrl"},
		{column: "System_ActivityHistory_StartTime", field: "System_ActivityHistory_StartTime", render: renderDate},
		{column: "System_ActivityHistory_EndTime", field: "System_ActivityHistory_EndTime", render: renderDate},
		{column: "System_Activity_AppDisplayName", field: "System_Activity_AppDisplayName"},
		{column: "System_ActivityHistory_AppId", field: "System_ActivityHistory_AppId"},
		{column: "System_Activity_DisplayText", field: "System_Activity_DisplayText"},
		{column: "System_Activity_ContentUri", field: "System_Activity_ContentUri"},
	}

	internetFields = []fieldMapping{
		{column: "System_ItemName", field: "System_ItemName"},
		{column: "System_ItemUrl", field: "System_ItemUrl"},
		{column: "System_ItemDate", field: "System_ItemDate", render: renderDate},
		{column: "System_Search_GatherTime", field: "System_Search_GatherTime", render: renderDate},
		{column: "System_Title", field: "System_Title"},
		{column: "System_Link_TargetUrl", field: "System_Link_TargetUrl"},
	}
)

// fieldsFor returns the field list of a report kind.
func fieldsFor(kind report.Kind) []fieldMapping {
	switch kind {
	case report.ActivityHistory:
		return activityFields
	case report.InternetHistory:
		return internetFields
	default:
		return fileFields
	}
}

// renderDate reinterprets the raw forms timestamps take in the property
// store. Typed date-time columns arrive decoded already; binary columns hold
// a little-endian FILETIME (gather times), and the SQLite store keeps dates
// as plain FILETIME integers. Only date-mapped fields pass through here, so
// an integer is never mistaken for a size.
func renderDate(v types.Value) types.Value {
	switch {
	case v.Kind == types.ValueBinary && len(v.Bytes) == 8:
		return types.Value{Kind: types.ValueTime, Time: format.FiletimeToTime(buf.U64LE(v.Bytes))}
	case v.Kind == types.ValueUint:
		return types.Value{Kind: types.ValueTime, Time: format.FiletimeToTime(v.Uint)}
	case v.Kind == types.ValueInt && v.Int > 0:
		return types.Value{Kind: types.ValueTime, Time: format.FiletimeToTime(uint64(v.Int))}
	}
	return v
}

// declareFields registers every field of the kind on a fresh report, so the
// CSV header covers fields the first record happens to lack.
func declareFields(r report.Report, kind report.Kind) {
	r.SetField("WorkId")
	for _, m := range fieldsFor(kind) {
		r.SetField(m.field)
	}
}

// emitRow writes one row's fields and completes the record.
func emitRow(r report.Report, kind report.Kind, row Row) {
	r.Int("WorkId", uint64(row.WorkID))
	for _, m := range fieldsFor(kind) {
		v, ok := row.Values[m.column]
		if !ok || v.IsAbsent() {
			continue
		}
		if m.render != nil {
			v = m.render(v)
		}
		if m.numeric && (v.Kind == types.ValueInt || v.Kind == types.ValueUint) {
			r.Int(m.field, asUint(v))
			continue
		}
		if s := v.String(); s != "" {
			r.Str(m.field, s)
		}
	}
	r.NewRecord()
}

func asUint(v types.Value) uint64 {
	if v.Kind == types.ValueInt {
		return uint64(v.Int)
	}
	return v.Uint
}
