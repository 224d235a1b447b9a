package artifact

import (
	"github.com/joshuapare/esekit/internal/report"
)

// Collector buffers mapped rows for one store until the scan completes.
// Report files carry the indexing host's name, and the row that holds it can
// appear anywhere in the table, so nothing is written until Close.
type Collector struct {
	producer *report.Producer
	hostname string
	rows     []classifiedRow
}

type classifiedRow struct {
	kind report.Kind
	row  Row
}

// NewCollector prepares a collector writing through the given producer.
func NewCollector(p *report.Producer) *Collector {
	return &Collector{producer: p}
}

// Add classifies and buffers one row.
func (c *Collector) Add(row Row) {
	if c.hostname == "" {
		c.hostname = Hostname(row)
	}
	c.rows = append(c.rows, classifiedRow{kind: Classify(row), row: row})
}

// Hostname returns the recovered computer name, or the fallback literal.
func (c *Collector) Hostname() string {
	if c.hostname == "" {
		return HostnameFallback
	}
	return c.hostname
}

// Close opens one report per kind, replays the buffered rows into them in
// arrival order, and returns the paths of the reports written (empty for
// stdout-bound reports).
func (c *Collector) Close() ([]string, error) {
	var paths []string
	for _, kind := range []report.Kind{report.FileReport, report.ActivityHistory, report.InternetHistory} {
		path, rep, err := c.producer.NewReport(c.Hostname(), kind)
		if err != nil {
			return paths, err
		}
		declareFields(rep, kind)
		for _, cr := range c.rows {
			if cr.kind != kind {
				continue
			}
			emitRow(rep, kind, cr.row)
		}
		if err := rep.Close(); err != nil {
			return paths, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}
