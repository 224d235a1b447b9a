package report

import (
	"io"
	"strconv"
	"strings"
	"sync"
)

// csvReport emits comma-separated rows under a header derived from the
// fields known when the first record flushes. A record that lacks a field
// leaves its cell empty; a field never registered and never set for any
// record simply has no column. String cells are always quoted, numeric cells
// never are.
type csvReport struct {
	mu     *sync.Mutex
	w      io.Writer
	closer io.Closer
	label  string
	first  bool
	cells  []csvCell
}

type csvCell struct {
	field string
	value string
}

func (r *csvReport) NewRecord() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush()
}

func (r *csvReport) SetField(name string) {
	r.mu.Lock()
	r.set(name, "")
	r.mu.Unlock()
}

func (r *csvReport) Str(field, value string) {
	r.mu.Lock()
	r.set(field, `"`+strings.ReplaceAll(value, `"`, `""`)+`"`)
	r.mu.Unlock()
}

func (r *csvReport) Int(field string, v uint64) {
	r.mu.Lock()
	r.set(field, strconv.FormatUint(v, 10))
	r.mu.Unlock()
}

func (r *csvReport) Close() error {
	r.mu.Lock()
	r.flush()
	r.mu.Unlock()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// set updates the cell for field, appending a new column when the field is
// seen for the first time. Caller holds the lock.
func (r *csvReport) set(field, value string) {
	for i := range r.cells {
		if r.cells[i].field == field {
			r.cells[i].value = value
			return
		}
	}
	r.cells = append(r.cells, csvCell{field: field, value: value})
}

// flush writes the pending row, emitting the header before the first one.
// Rows are newline-separated with no trailing newline. Caller holds the lock.
func (r *csvReport) flush() {
	any := false
	for i := range r.cells {
		if r.cells[i].value != "" {
			any = true
			break
		}
	}
	if !any {
		return
	}

	var b strings.Builder
	if r.first {
		if r.label != "" {
			b.WriteString("Report Suffix,")
		}
		for i := range r.cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(r.cells[i].field)
		}
		b.WriteByte('\n')
		r.first = false
	} else {
		b.WriteByte('\n')
	}
	if r.label != "" {
		b.WriteString(r.label)
		b.WriteByte(',')
	}
	for i := range r.cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.cells[i].value)
		r.cells[i].value = ""
	}
	_, _ = io.WriteString(r.w, b.String())
}
