// Package report writes the normalized artifact reports. Each discovered
// store yields up to three reports (file, activity history, internet
// history), emitted as JSON lines or CSV, to files named
// {hostname}_{report}_{UTC timestamp}.{json|csv} or to stdout.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Format selects the report serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatCSV
)

// ParseFormat maps a CLI flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, errors.Errorf("unknown report format %q (want json or csv)", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatCSV {
		return "csv"
	}
	return "json"
}

// Destination selects where report bytes go.
type Destination int

const (
	ToFile Destination = iota
	ToStdout
)

// ParseDestination maps a CLI flag value to a Destination.
func ParseDestination(s string) (Destination, error) {
	switch strings.ToLower(s) {
	case "file":
		return ToFile, nil
	case "stdout":
		return ToStdout, nil
	default:
		return 0, errors.Errorf("unknown report destination %q (want file or stdout)", s)
	}
}

// Kind identifies one of the three reports produced per store.
type Kind int

const (
	FileReport Kind = iota
	ActivityHistory
	InternetHistory
)

// Suffix returns the report name used in output file names.
func (k Kind) Suffix() string {
	switch k {
	case ActivityHistory:
		return "Activity_History_Report"
	case InternetHistory:
		return "Internet_History_Report"
	default:
		return "File_Report"
	}
}

// label is the machine-readable tag stamped on stdout records, where the
// report name is not carried by a file name.
func (k Kind) label() string {
	switch k {
	case ActivityHistory:
		return "activity_history"
	case InternetHistory:
		return "internet_history"
	default:
		return "file_report"
	}
}

// Report accumulates one record at a time as (field, value) pairs and writes
// it out when the next record starts. CSV reports derive their header from
// the fields registered before the first record is flushed, so callers
// declare the full field set up front with SetField.
//
// Implementations are safe for use by one goroutine; reports bound for
// stdout serialize between themselves through the producer's shared lock.
type Report interface {
	// NewRecord flushes the pending record, if it holds any value.
	NewRecord()
	// SetField registers a field name without a value.
	SetField(name string)
	// Str records a string field value.
	Str(field, value string)
	// Int records a numeric field value.
	Int(field string, v uint64)
	// Close flushes the final record and releases the destination.
	Close() error
}

// Producer creates reports in a target directory (or on stdout). The zero
// value is not usable; construct with NewProducer.
type Producer struct {
	fs     afero.Fs
	dir    string
	format Format
	dest   Destination

	stdout io.Writer
	mu     sync.Mutex // shared by every stdout-bound report
	now    func() time.Time
}

// NewProducer prepares a report factory. The output directory is created
// when missing.
func NewProducer(fs afero.Fs, dir string, format Format, dest Destination) (*Producer, error) {
	if dest == ToFile {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create report directory %q", dir)
		}
	}
	return &Producer{
		fs:     fs,
		dir:    dir,
		format: format,
		dest:   dest,
		stdout: os.Stdout,
		now:    time.Now,
	}, nil
}

// SetOutput redirects stdout-bound reports, for tests.
func (p *Producer) SetOutput(w io.Writer) { p.stdout = w }

// SetClock overrides the timestamp source, for tests.
func (p *Producer) SetClock(now func() time.Time) { p.now = now }

// Format returns the producer's serialization format.
func (p *Producer) Format() Format { return p.format }

// NewReport opens one report for the given recovered hostname. The returned
// path is empty for stdout-bound reports.
func (p *Producer) NewReport(hostname string, kind Kind) (string, Report, error) {
	if p.dest == ToStdout {
		return "", p.newWriter(p.stdout, nil, &p.mu, kind.label()), nil
	}
	name := fmt.Sprintf("%s_%s_%s.%s", hostname, kind.Suffix(), timestamp(p.now()), p.format.Ext())
	path := p.dir + string(os.PathSeparator) + name
	f, err := p.fs.Create(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "create report %q", path)
	}
	return path, p.newWriter(f, f, &sync.Mutex{}, ""), nil
}

func (p *Producer) newWriter(w io.Writer, c io.Closer, mu *sync.Mutex, label string) Report {
	if p.format == FormatCSV {
		return &csvReport{w: w, closer: c, mu: mu, label: label, first: true}
	}
	return &jsonReport{w: w, closer: c, mu: mu, label: label, first: true}
}

// timestamp renders the UTC creation time for report file names:
// basic-format date and time, with sub-second precision appended only when
// the clock carries any.
func timestamp(t time.Time) string {
	t = t.UTC()
	s := t.Format("20060102_150405")
	if ns := t.Nanosecond(); ns != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
	}
	return s
}
