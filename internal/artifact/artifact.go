// Package artifact holds the Windows Search domain knowledge: which source
// columns carry paths, URLs and timestamps, how a property store record is
// classified into one of the three report kinds, and how the indexing host's
// name is recovered for report file naming. The mapping is declarative — a
// table of (source column, report field) pairs per report kind — so covering
// another source table is a data change.
package artifact

import (
	"strings"

	"github.com/joshuapare/esekit/internal/report"
	"github.com/joshuapare/esekit/pkg/types"
)

// HostnameFallback names reports from stores that never indexed their own
// computer name.
const HostnameFallback = "Unknown"

// Row is one source record in normalized form: the document identifier
// (WorkId) plus decoded values keyed by normalized column name. Both store
// formats produce Rows, so everything downstream is format-agnostic.
type Row struct {
	WorkID uint32
	Values map[string]types.Value
}

// NormalizeColumn strips the numeric property identifier prefix that the
// property store prepends to column names ("33-System_ItemPathDisplay"),
// returning the bare property name. Names without the prefix pass through.
func NormalizeColumn(name string) string {
	i := strings.IndexByte(name, '-')
	if i <= 0 {
		return name
	}
	for _, r := range name[:i] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[i+1:]
}

// Classify decides which report a property store record belongs to. Activity
// history entries are indexed with a dedicated item type; Internet Explorer
// history entries carry the iehistory scheme in their URL; everything else
// is a file system item.
func Classify(row Row) report.Kind {
	if v, ok := row.Values["System_ItemType"]; ok && v.String() == "ActivityHistoryItem" {
		return report.ActivityHistory
	}
	if v, ok := row.Values["System_ItemUrl"]; ok && strings.HasPrefix(v.String(), "iehistory://") {
		return report.InternetHistory
	}
	return report.FileReport
}

// Hostname returns the computer name recorded on the row, or "".
func Hostname(row Row) string {
	if v, ok := row.Values["System_ComputerName"]; ok {
		return v.String()
	}
	return ""
}
